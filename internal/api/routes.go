// Package api wires the HTTP routes to their handlers.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/trendsight/trendsight-go/internal/api/handlers"
)

// Handlers bundles the constructed handler set for route registration.
type Handlers struct {
	Trends    *handlers.TrendsHandler
	Fusion    *handlers.FusionHandler
	Taxonomy  *handlers.TaxonomyHandler
	Countries *handlers.CountriesHandler
	Cache     *handlers.CacheHandler
	Health    *handlers.HealthHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	{
		trends := v1.Group("/trends")
		{
			trends.POST("/query", h.Trends.Query)
			trends.GET("/recent", h.Trends.Recent)
		}

		insights := v1.Group("/insights")
		{
			insights.POST("/fusion/query", h.Fusion.Query)
		}

		categories := v1.Group("/categories")
		{
			categories.POST("/resolve", h.Taxonomy.Resolve)
		}

		v1.GET("/countries", h.Countries.List)

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", h.Cache.Stats)
			cacheGroup.POST("/purge", h.Cache.Purge)
		}
	}
}

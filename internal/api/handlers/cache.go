package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/cache"
)

type CacheHandler struct {
	cache  *cache.TrendCache
	logger *logrus.Logger
}

func NewCacheHandler(trendCache *cache.TrendCache, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{cache: trendCache, logger: logger}
}

// Stats handles GET /api/v1/cache/stats.
func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetStats())
}

type PurgeRequest struct {
	Pattern string `json:"pattern"`
}

// Purge handles POST /api/v1/cache/purge. The pattern is restricted to the
// trend namespace so an over-broad glob cannot touch foreign keys.
func (h *CacheHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		pattern = "trend:*"
	}
	if !strings.HasPrefix(pattern, "trend:") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern must start with trend:"})
		return
	}

	removed, err := h.cache.Purge(c.Request.Context(), pattern)
	if err != nil {
		h.logger.WithError(err).Error("Cache purge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache purge failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed, "pattern": pattern})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/services"
)

type ResolveCategoriesRequest struct {
	IDs []string `json:"ids"`
	// Titles maps a category id to a representative product title used by
	// the keyword-inference strategy.
	Titles map[string]string `json:"titles"`
}

type TaxonomyHandler struct {
	resolver *services.TaxonomyResolver
	cfg      *config.Config
	logger   *logrus.Logger
}

func NewTaxonomyHandler(resolver *services.TaxonomyResolver, cfg *config.Config, logger *logrus.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{resolver: resolver, cfg: cfg, logger: logger}
}

// Resolve handles POST /api/v1/categories/resolve.
func (h *TaxonomyHandler) Resolve(c *gin.Context) {
	var req ResolveCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	entries := h.resolver.ResolveCategories(c.Request.Context(), req.IDs, req.Titles)

	c.JSON(http.StatusOK, gin.H{
		"mode":       h.cfg.Taxonomy.Mode,
		"categories": entries,
	})
}

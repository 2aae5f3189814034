package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/services"
)

const (
	defaultLang           = "es"
	defaultTargetCurrency = "USD"
	defaultPageSize       = 10
	maxPageSize           = 50
)

type FusionQueryRequest struct {
	Keyword        string `json:"keyword"`
	Region         string `json:"region"`
	WindowDays     int    `json:"window_days"`
	BaselineDays   int    `json:"baseline_days"`
	Lang           string `json:"lang"`
	MaxResults     int    `json:"max_results"`
	TargetCurrency string `json:"target_currency"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
}

type FusionHandler struct {
	fusion *services.FusionService
	cfg    *config.Config
	logger *logrus.Logger
}

func NewFusionHandler(fusion *services.FusionService, cfg *config.Config, logger *logrus.Logger) *FusionHandler {
	return &FusionHandler{fusion: fusion, cfg: cfg, logger: logger}
}

// Query handles POST /api/v1/insights/fusion/query.
func (h *FusionHandler) Query(c *gin.Context) {
	var req FusionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	trendReq := TrendQueryRequest{
		Keyword:      req.Keyword,
		Region:       req.Region,
		WindowDays:   req.WindowDays,
		BaselineDays: req.BaselineDays,
	}
	if err := normalizeTrendRequest(&trendReq, h.cfg.Server.SupportedRegions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Lang = strings.ToLower(strings.TrimSpace(req.Lang))
	if req.Lang == "" {
		req.Lang = defaultLang
	}
	req.TargetCurrency = strings.ToUpper(strings.TrimSpace(req.TargetCurrency))
	if req.TargetCurrency == "" {
		req.TargetCurrency = defaultTargetCurrency
	}
	if req.MaxResults <= 0 {
		req.MaxResults = h.cfg.YouTube.MaxResults
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	result, err := h.fusion.ExecuteFusionQuery(c.Request.Context(), services.FusionParams{
		Keyword:        trendReq.Keyword,
		Region:         trendReq.Region,
		WindowDays:     trendReq.WindowDays,
		BaselineDays:   trendReq.BaselineDays,
		Lang:           req.Lang,
		MaxResults:     req.MaxResults,
		TargetCurrency: req.TargetCurrency,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

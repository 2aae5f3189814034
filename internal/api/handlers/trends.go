// Package handlers holds the HTTP handlers for the public API. Handlers
// validate input, delegate to the service layer and map errors to status
// codes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/database"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/services"
	"github.com/trendsight/trendsight-go/internal/utils"
)

const (
	defaultWindowDays   = 7
	defaultBaselineDays = 30
	maxWindowDays       = 90
	maxBaselineDays     = 365
)

type TrendQueryRequest struct {
	Keyword      string `json:"keyword"`
	Region       string `json:"region"`
	WindowDays   int    `json:"window_days"`
	BaselineDays int    `json:"baseline_days"`
}

type TrendsHandler struct {
	engine  *services.TrendEngine
	queries *database.QueryRepository // optional, nil when the query log is disabled
	cfg     *config.Config
	logger  *logrus.Logger
}

func NewTrendsHandler(engine *services.TrendEngine, queries *database.QueryRepository, cfg *config.Config, logger *logrus.Logger) *TrendsHandler {
	return &TrendsHandler{engine: engine, queries: queries, cfg: cfg, logger: logger}
}

// Query handles POST /api/v1/trends/query.
func (h *TrendsHandler) Query(c *gin.Context) {
	var req TrendQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := normalizeTrendRequest(&req, h.cfg.Server.SupportedRegions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := uuid.New().String()
	result, err := h.engine.ExecuteQuery(c.Request.Context(),
		req.Keyword, req.Region, req.WindowDays, req.BaselineDays, requestID)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Recent handles GET /api/v1/trends/recent, the query metadata log.
func (h *TrendsHandler) Recent(c *gin.Context) {
	if h.queries == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query log is disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	records, err := h.queries.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read query log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read query log"})
		return
	}
	if records == nil {
		records = []models.TrendQueryRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"queries": records})
}

// normalizeTrendRequest trims, defaults and bounds the query inputs in place.
func normalizeTrendRequest(req *TrendQueryRequest, supportedRegions []string) error {
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return errors.New("keyword is required")
	}

	req.Region = strings.ToUpper(strings.TrimSpace(req.Region))
	if req.Region == "" {
		req.Region = supportedRegions[0]
	}
	if !regionSupported(req.Region, supportedRegions) {
		return errors.New("region must be one of: " + strings.Join(supportedRegions, ", "))
	}

	if req.WindowDays <= 0 {
		req.WindowDays = defaultWindowDays
	}
	if req.WindowDays > maxWindowDays {
		req.WindowDays = maxWindowDays
	}
	if req.BaselineDays <= 0 {
		req.BaselineDays = defaultBaselineDays
	}
	if req.BaselineDays < req.WindowDays {
		req.BaselineDays = req.WindowDays
	}
	if req.BaselineDays > maxBaselineDays {
		req.BaselineDays = maxBaselineDays
	}
	return nil
}

func regionSupported(region string, supported []string) bool {
	for _, code := range supported {
		if region == code {
			return true
		}
	}
	return false
}

// writeQueryError maps pipeline errors to HTTP status codes. Empty series is
// a 404, exhausted acquisition is an upstream failure.
func writeQueryError(c *gin.Context, err error) {
	switch {
	case utils.IsEmptySeries(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "no data available for this keyword"})
	case utils.IsAcquisitionError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		var valErr *utils.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

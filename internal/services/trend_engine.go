package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/cache"
	"github.com/trendsight/trendsight-go/internal/connectors/trends"
	"github.com/trendsight/trendsight-go/internal/database"
	"github.com/trendsight/trendsight-go/internal/models"
)

// TrendEngine orchestrates the trend pipeline: cache lookup, acquisition,
// scoring, cache write, and the stale fallback on acquisition failure.
type TrendEngine struct {
	orchestrator *trends.Orchestrator
	scoring      *ScoringService
	cache        *cache.TrendCache
	queries      *database.QueryRepository // optional, nil disables the query log
	logger       *logrus.Logger
}

func NewTrendEngine(orchestrator *trends.Orchestrator, scoring *ScoringService, trendCache *cache.TrendCache, queries *database.QueryRepository, logger *logrus.Logger) *TrendEngine {
	return &TrendEngine{
		orchestrator: orchestrator,
		scoring:      scoring,
		cache:        trendCache,
		queries:      queries,
		logger:       logger,
	}
}

// ExecuteQuery runs one trend query through the cache-aside flow and
// annotates the result with how it was served.
func (e *TrendEngine) ExecuteQuery(ctx context.Context, keyword, region string, windowDays, baselineDays int, requestID string) (*models.TrendResult, error) {
	log := e.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"keyword":       keyword,
		"region":        region,
		"window_days":   windowDays,
		"baseline_days": baselineDays,
	})
	log.Info("Executing trend query")

	key := e.cache.Key(keyword, region, windowDays, baselineDays)

	result, err := e.cache.GetOrFetch(ctx, key, func(fetchCtx context.Context) (*models.TrendResult, error) {
		return e.fetchAndScore(fetchCtx, keyword, region, windowDays, baselineDays)
	})
	if err != nil {
		log.WithError(err).Error("Trend query failed with no stale fallback available")
		return nil, err
	}

	result.RequestID = requestID
	e.recordQuery(ctx, result, requestID)

	log.WithFields(logrus.Fields{
		"trend_score": result.TrendScore,
		"cache_hit":   result.Cache.Hit,
		"stale":       result.Cache.Stale,
	}).Info("Trend query completed")
	return result, nil
}

// fetchAndScore performs the acquisition plus scoring leg of a cache miss.
func (e *TrendEngine) fetchAndScore(ctx context.Context, keyword, region string, windowDays, baselineDays int) (*models.TrendResult, error) {
	data, err := e.orchestrator.FetchComplete(ctx, keyword, region, windowDays, baselineDays)
	if err != nil {
		return nil, err
	}

	scored, err := e.scoring.Score(data.TimeSeries, keyword, region, windowDays, baselineDays)
	if err != nil {
		return nil, err
	}

	return &models.TrendResult{
		Keyword:      keyword,
		Region:       region,
		WindowDays:   windowDays,
		BaselineDays: baselineDays,
		GeneratedAt:  time.Now().UTC(),
		SourcesUsed:  []string{string(data.Source)},
		TrendScore:   scored.TrendScore,
		Signals:      scored.Signals,
		Explain:      scored.Explain,
		Series:       data.TimeSeries,
		ByRegion:     data.ByRegion,
	}, nil
}

// recordQuery persists query metadata. Best-effort: failures are logged and
// never surfaced to the caller.
func (e *TrendEngine) recordQuery(ctx context.Context, result *models.TrendResult, requestID string) {
	if e.queries == nil {
		return
	}
	rec := &models.TrendQueryRecord{
		Keyword:      result.Keyword,
		Region:       result.Region,
		WindowDays:   result.WindowDays,
		BaselineDays: result.BaselineDays,
		TrendScore:   result.TrendScore,
		CacheHit:     result.Cache.Hit,
		RequestID:    requestID,
	}
	if err := e.queries.Insert(ctx, rec); err != nil {
		e.logger.WithField("request_id", requestID).WithError(err).Warn("Failed to record trend query metadata")
	}
}

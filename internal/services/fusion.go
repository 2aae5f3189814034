package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/connectors/marketplace"
	"github.com/trendsight/trendsight-go/internal/connectors/youtube"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// Recommendation tier boundaries, inclusive at the lower edge.
const (
	tierHigh     = 70.0
	tierModerate = 50.0
	tierLow      = 30.0
)

// Fuse combines the primary trend score with the secondary intent score.
// With no secondary samples the primary score carries full weight, so the
// combined score equals it exactly.
func Fuse(primaryScore, secondaryScore float64, secondarySampleSize int, cfg config.FusionConfig) models.FusionScore {
	weightPrimary := 1.0
	weightSecondary := 0.0
	if secondarySampleSize > 0 {
		weightPrimary = cfg.WeightPrimary
		weightSecondary = cfg.WeightSecondary
	}

	combined := utils.Round2(primaryScore*weightPrimary + secondaryScore*weightSecondary)

	return models.FusionScore{
		CombinedScore:   combined,
		WeightPrimary:   weightPrimary,
		WeightSecondary: weightSecondary,
		Recommendation:  recommendationFor(combined),
	}
}

func recommendationFor(score float64) models.Recommendation {
	switch {
	case score >= tierHigh:
		return models.RecommendationHigh
	case score >= tierModerate:
		return models.RecommendationModerate
	case score >= tierLow:
		return models.RecommendationLow
	default:
		return models.RecommendationNotRecommended
	}
}

// VideoSource is the secondary engagement upstream.
type VideoSource interface {
	FetchComplete(ctx context.Context, keyword, region, lang string, windowDays, maxResults int) (*youtube.FetchResult, error)
}

// CompetitorSource is the marketplace product upstream.
type CompetitorSource interface {
	ProductQuery(ctx context.Context, params marketplace.ProductQueryParams) (*models.ProductQueryResult, error)
}

// FusionParams are the validated inputs of one fusion query.
type FusionParams struct {
	Keyword        string
	Region         string
	WindowDays     int
	BaselineDays   int
	Lang           string
	MaxResults     int
	TargetCurrency string
	Page           int
	PageSize       int
}

// FusionService runs the trend pipeline plus the independent secondary
// sources and combines their scores. The trend result is mandatory; the
// secondary sources degrade to empty sections on failure.
type FusionService struct {
	trendEngine *TrendEngine
	videos      VideoSource
	intent      *IntentService
	competitors CompetitorSource
	taxonomy    *TaxonomyResolver
	cfg         config.FusionConfig
	logger      *logrus.Logger
}

func NewFusionService(trendEngine *TrendEngine, videos VideoSource, intent *IntentService, competitors CompetitorSource, taxonomy *TaxonomyResolver, cfg config.FusionConfig, logger *logrus.Logger) *FusionService {
	return &FusionService{
		trendEngine: trendEngine,
		videos:      videos,
		intent:      intent,
		competitors: competitors,
		taxonomy:    taxonomy,
		cfg:         cfg,
		logger:      logger,
	}
}

// ExecuteFusionQuery produces the unified multi-source insight response.
func (s *FusionService) ExecuteFusionQuery(ctx context.Context, params FusionParams) (*models.FusionResult, error) {
	requestID := uuid.New().String()
	log := s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"keyword":    params.Keyword,
		"region":     params.Region,
	})
	log.Info("Executing fusion query")

	// The primary pipeline must succeed (possibly via its stale fallback).
	trendResult, err := s.trendEngine.ExecuteQuery(ctx,
		params.Keyword, params.Region, params.WindowDays, params.BaselineDays, requestID)
	if err != nil {
		return nil, err
	}

	// The secondary sources hit separate upstreams and run concurrently
	// with each other; neither can abort the request.
	var wg sync.WaitGroup
	videoSection := models.FusionVideoSection{QueryUsed: params.Keyword}
	marketSection := models.FusionMarketplaceSection{
		Paging: models.Paging{Page: params.Page, PageSize: params.PageSize},
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		videoSection = s.fetchVideoSection(ctx, params)
	}()
	go func() {
		defer wg.Done()
		marketSection = s.fetchMarketplaceSection(ctx, params)
	}()
	wg.Wait()

	fusionScore := Fuse(trendResult.TrendScore, videoSection.IntentScore, videoSection.VideosAnalyzed, s.cfg)

	log.WithFields(logrus.Fields{
		"trend_score":    trendResult.TrendScore,
		"intent_score":   videoSection.IntentScore,
		"combined_score": fusionScore.CombinedScore,
		"recommendation": fusionScore.Recommendation,
	}).Info("Fusion query completed")

	return &models.FusionResult{
		RequestID:    requestID,
		GeneratedAt:  time.Now().UTC(),
		Keyword:      params.Keyword,
		Region:       params.Region,
		WindowDays:   params.WindowDays,
		BaselineDays: params.BaselineDays,
		Lang:         params.Lang,
		Trends: models.FusionTrendsSection{
			TrendScore:  trendResult.TrendScore,
			Signals:     trendResult.Signals,
			SourcesUsed: trendResult.SourcesUsed,
			CacheHit:    trendResult.Cache.Hit,
			SeriesCount: len(trendResult.Series),
			ByRegion:    trendResult.ByRegion,
		},
		Videos:      videoSection,
		Marketplace: marketSection,
		Fusion:      fusionScore,
		Series:      trendResult.Series,
	}, nil
}

func (s *FusionService) fetchVideoSection(ctx context.Context, params FusionParams) models.FusionVideoSection {
	section := models.FusionVideoSection{QueryUsed: params.Keyword, Videos: []models.Video{}}
	if s.videos == nil {
		return section
	}

	fetched, err := s.videos.FetchComplete(ctx, params.Keyword, params.Region, params.Lang, params.WindowDays, params.MaxResults)
	if err != nil {
		s.logger.WithError(err).Warn("Video fetch failed, continuing without engagement data")
		section.Error = err.Error()
		return section
	}

	intent := s.intent.CalculateIntentScore(fetched.Stats, params.Keyword, params.Region, params.WindowDays)
	return models.FusionVideoSection{
		IntentScore:    intent.IntentScore,
		VideosAnalyzed: intent.VideosAnalyzed,
		TotalViews:     intent.TotalViews,
		QueryUsed:      fetched.QueryUsed,
		Videos:         intent.Videos,
	}
}

func (s *FusionService) fetchMarketplaceSection(ctx context.Context, params FusionParams) models.FusionMarketplaceSection {
	section := models.FusionMarketplaceSection{
		Paging:      models.Paging{Page: params.Page, PageSize: params.PageSize},
		Competitors: []models.Competitor{},
	}
	if s.competitors == nil {
		return section
	}

	result, err := s.competitors.ProductQuery(ctx, marketplace.ProductQueryParams{
		Keywords:       params.Keyword,
		ShipToCountry:  params.Region,
		TargetCurrency: params.TargetCurrency,
		TargetLanguage: params.Lang,
		PageNo:         params.Page,
		PageSize:       params.PageSize,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Marketplace fetch failed, continuing without competitor data")
		section.Error = err.Error()
		return section
	}

	competitors := result.Competitors
	if s.taxonomy != nil && len(competitors) > 0 {
		competitors = s.taxonomy.EnrichCompetitors(ctx, competitors)
	}

	return models.FusionMarketplaceSection{
		Paging:           result.Paging,
		CompetitorsCount: len(competitors),
		Competitors:      competitors,
	}
}

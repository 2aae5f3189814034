package models

import "time"

// Recommendation is the tier assigned to a fused score.
type Recommendation string

const (
	RecommendationHigh           Recommendation = "HIGH_OPPORTUNITY"
	RecommendationModerate       Recommendation = "MODERATE_OPPORTUNITY"
	RecommendationLow            Recommendation = "LOW_OPPORTUNITY"
	RecommendationNotRecommended Recommendation = "NOT_RECOMMENDED"
)

// FusionScore is the weighted combination of the primary trend score and the
// secondary intent score. Derived and stateless, recomputed per request.
type FusionScore struct {
	CombinedScore   float64        `json:"combined_score"`
	WeightPrimary   float64        `json:"weight_trends"`
	WeightSecondary float64        `json:"weight_youtube"`
	Recommendation  Recommendation `json:"recommendation"`
}

// FusionTrendsSection summarizes the trend pipeline output inside a fusion
// response without repeating the full series.
type FusionTrendsSection struct {
	TrendScore  float64       `json:"trend_score"`
	Signals     ScoreSignals  `json:"signals"`
	SourcesUsed []string      `json:"sources_used"`
	CacheHit    bool          `json:"cache_hit"`
	SeriesCount int           `json:"series_count"`
	ByRegion    []RegionScore `json:"by_region"`
}

// FusionVideoSection summarizes the secondary engagement source.
type FusionVideoSection struct {
	IntentScore    float64 `json:"intent_score"`
	VideosAnalyzed int     `json:"videos_analyzed"`
	TotalViews     int64   `json:"total_views"`
	QueryUsed      string  `json:"query_used"`
	Videos         []Video `json:"videos"`
	Error          string  `json:"error,omitempty"`
}

// FusionMarketplaceSection summarizes competitor data.
type FusionMarketplaceSection struct {
	Paging           Paging       `json:"paging"`
	CompetitorsCount int          `json:"competitors_count"`
	Competitors      []Competitor `json:"competitors"`
	Error            string       `json:"error,omitempty"`
}

// FusionResult is the unified response for a fusion query.
type FusionResult struct {
	RequestID    string                   `json:"request_id"`
	GeneratedAt  time.Time                `json:"generated_at"`
	Keyword      string                   `json:"keyword"`
	Region       string                   `json:"region"`
	WindowDays   int                      `json:"window_days"`
	BaselineDays int                      `json:"baseline_days"`
	Lang         string                   `json:"lang"`
	Trends       FusionTrendsSection      `json:"google_trends"`
	Videos       FusionVideoSection       `json:"youtube"`
	Marketplace  FusionMarketplaceSection `json:"marketplace"`
	Fusion       FusionScore              `json:"fusion"`
	Series       []TimeSeriesPoint        `json:"series"`
}

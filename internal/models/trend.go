package models

import "time"

// Source identifies where a trend result came from.
type Source string

const (
	SourceLive       Source = "live"
	SourceMock       Source = "mock"
	SourceStaleCache Source = "stale_cache"
)

// TimeSeriesPoint is a single day of search interest, value in [0,100].
type TimeSeriesPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Value int    `json:"value"`
}

// RegionScore is relative interest for a 2-letter region code, value in [0,100].
type RegionScore struct {
	RegionCode string `json:"region_code"`
	Value      int    `json:"value"`
}

// ScoreSignals holds the three derived signals behind a trend score.
// Always recomputed from the full series, never updated incrementally.
type ScoreSignals struct {
	Growth7vs30  float64 `json:"growth_7_vs_30"`
	Slope14d     float64 `json:"slope_14d"`
	RecentPeak30 float64 `json:"recent_peak_30d"`
}

// CacheMeta annotates a result with how it was served.
type CacheMeta struct {
	Hit        bool  `json:"hit"`
	Stale      bool  `json:"stale,omitempty"`
	TTLSeconds int64 `json:"ttl_seconds"`
	AgeSeconds int64 `json:"age_seconds,omitempty"`
}

// TrendResult is a scored trend query result. It is created once per
// acquisition cycle, cached, and may be re-served unmodified until evicted.
type TrendResult struct {
	Keyword      string            `json:"keyword"`
	Region       string            `json:"region"`
	WindowDays   int               `json:"window_days"`
	BaselineDays int               `json:"baseline_days"`
	GeneratedAt  time.Time         `json:"generated_at"`
	SourcesUsed  []string          `json:"sources_used"`
	TrendScore   float64           `json:"trend_score"`
	Signals      ScoreSignals      `json:"signals"`
	Explain      []string          `json:"explain"`
	Series       []TimeSeriesPoint `json:"series"`
	ByRegion     []RegionScore     `json:"by_region"`
	Cache        CacheMeta         `json:"cache"`
	Warning      string            `json:"warning,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
}

// TrendsData is the raw payload produced by one orchestrated acquisition.
type TrendsData struct {
	TimeSeries []TimeSeriesPoint `json:"time_series"`
	ByRegion   []RegionScore     `json:"by_region"`
	Source     Source            `json:"source"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// TrendQueryRecord is the persisted metadata row for an executed query.
type TrendQueryRecord struct {
	ID           string    `json:"id" db:"id"`
	Keyword      string    `json:"keyword" db:"keyword"`
	Region       string    `json:"region" db:"region"`
	WindowDays   int       `json:"window_days" db:"window_days"`
	BaselineDays int       `json:"baseline_days" db:"baseline_days"`
	TrendScore   float64   `json:"trend_score" db:"trend_score"`
	CacheHit     bool      `json:"cache_hit" db:"cache_hit"`
	RequestID    string    `json:"request_id" db:"request_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

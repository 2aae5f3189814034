package models

// Video is a processed video with engagement features attached.
type Video struct {
	VideoID          string  `json:"video_id"`
	Title            string  `json:"title"`
	ChannelTitle     string  `json:"channel_title"`
	PublishedAt      string  `json:"published_at"`
	URL              string  `json:"url"`
	Duration         string  `json:"duration"`
	Views            int64   `json:"views"`
	Likes            int64   `json:"likes"`
	Comments         int64   `json:"comments"`
	DaysSincePublish int     `json:"days_since_publish"`
	Freshness        float64 `json:"freshness"`
	EngagementRate   float64 `json:"engagement_rate"`
	VideoIntent      float64 `json:"video_intent"`
}

// IntentResult aggregates per-video intent into one engagement score.
type IntentResult struct {
	Videos         []Video `json:"videos"`
	IntentScore    float64 `json:"intent_score"`
	TotalViews     int64   `json:"total_views"`
	VideosAnalyzed int     `json:"videos_analyzed"`
}

// VideoStats is the raw statistics payload for one video as returned by the
// video data API, before intent features are computed.
type VideoStats struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
	Duration     string `json:"duration"`
	Views        int64  `json:"views"`
	Likes        int64  `json:"likes"`
	Comments     int64  `json:"comments"`
}

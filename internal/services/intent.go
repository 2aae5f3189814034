package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// IntentService derives an engagement/intent score from video statistics.
//
// Per video:
//   - engagement_rate = (likes + 2*comments) / views
//   - freshness = exp(-days_since_publish / half_life)
//   - video_intent = log10(views+1) * engagement_rate * freshness
//
// The aggregate intent score is the views-weighted mean of video_intent.
type IntentService struct {
	logger *logrus.Logger
}

func NewIntentService(logger *logrus.Logger) *IntentService {
	return &IntentService{logger: logger}
}

// halfLifeDays picks the freshness decay parameter for the analysis window.
func halfLifeDays(windowDays int) float64 {
	switch {
	case windowDays <= 7:
		return 4
	case windowDays <= 14:
		return 7
	default:
		return 14
	}
}

// VideoFeatures computes engagement, freshness and intent for one video.
func (s *IntentService) VideoFeatures(views, likes, comments int64, publishedAt string, windowDays int) (daysSince int, freshness, engagementRate, videoIntent float64) {
	published, err := time.Parse(time.RFC3339, publishedAt)
	if err == nil {
		daysSince = int(time.Since(published).Hours() / 24)
		if daysSince < 0 {
			daysSince = 0
		}
	}

	freshness = math.Exp(-float64(daysSince) / halfLifeDays(windowDays))

	if views > 0 {
		engagementRate = float64(likes+2*comments) / float64(views)
	}

	videoIntent = math.Log10(float64(views)+1) * engagementRate * freshness
	return daysSince, utils.Round4(freshness), engagementRate, utils.Round4(videoIntent)
}

// CalculateIntentScore processes raw video statistics and aggregates them
// into one intent score.
func (s *IntentService) CalculateIntentScore(stats []models.VideoStats, keyword, region string, windowDays int) *models.IntentResult {
	s.logger.WithFields(logrus.Fields{
		"keyword":      keyword,
		"region":       region,
		"videos_count": len(stats),
	}).Info("Calculating video intent scores")

	videos := make([]models.Video, 0, len(stats))
	var totalViews int64
	weightedIntentSum := 0.0

	for _, item := range stats {
		daysSince, freshness, engagement, intent := s.VideoFeatures(
			item.Views, item.Likes, item.Comments, item.PublishedAt, windowDays)

		url := ""
		if item.VideoID != "" {
			url = "https://www.youtube.com/watch?v=" + item.VideoID
		}

		videos = append(videos, models.Video{
			VideoID:          item.VideoID,
			Title:            item.Title,
			ChannelTitle:     item.ChannelTitle,
			PublishedAt:      item.PublishedAt,
			URL:              url,
			Duration:         item.Duration,
			Views:            item.Views,
			Likes:            item.Likes,
			Comments:         item.Comments,
			DaysSincePublish: daysSince,
			Freshness:        freshness,
			EngagementRate:   engagement,
			VideoIntent:      intent,
		})

		totalViews += item.Views
		weightedIntentSum += intent * float64(item.Views)
	}

	intentScore := 0.0
	if totalViews > 0 {
		intentScore = weightedIntentSum / float64(totalViews)
	}

	return &models.IntentResult{
		Videos:         videos,
		IntentScore:    utils.Round4(intentScore),
		TotalViews:     totalViews,
		VideosAnalyzed: len(videos),
	}
}

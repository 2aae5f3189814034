package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendsight/trendsight-go/internal/models"
)

func TestHalfLifeDays(t *testing.T) {
	assert.Equal(t, 4.0, halfLifeDays(7))
	assert.Equal(t, 7.0, halfLifeDays(14))
	assert.Equal(t, 14.0, halfLifeDays(30))
	assert.Equal(t, 14.0, halfLifeDays(90))
}

func TestVideoFeaturesFreshVideo(t *testing.T) {
	svc := NewIntentService(testLogger())
	publishedAt := time.Now().UTC().Format(time.RFC3339)

	daysSince, freshness, engagement, intent := svc.VideoFeatures(1000, 100, 50, publishedAt, 7)

	assert.Equal(t, 0, daysSince)
	assert.Equal(t, 1.0, freshness)
	// (100 + 2*50) / 1000
	assert.InDelta(t, 0.2, engagement, 0.0001)
	// log10(1001) * 0.2 * 1.0
	assert.InDelta(t, 0.6001, intent, 0.0001)
}

func TestVideoFeaturesFreshnessDecay(t *testing.T) {
	svc := NewIntentService(testLogger())
	publishedAt := time.Now().UTC().AddDate(0, 0, -4).Add(-time.Hour).Format(time.RFC3339)

	daysSince, freshness, _, _ := svc.VideoFeatures(100, 10, 0, publishedAt, 7)

	// One half-life elapsed at a 7-day window: freshness ~ e^-1.
	assert.Equal(t, 4, daysSince)
	assert.InDelta(t, 0.3679, freshness, 0.001)
}

func TestVideoFeaturesZeroViews(t *testing.T) {
	svc := NewIntentService(testLogger())

	_, _, engagement, intent := svc.VideoFeatures(0, 10, 5, time.Now().UTC().Format(time.RFC3339), 7)

	assert.Equal(t, 0.0, engagement)
	assert.Equal(t, 0.0, intent)
}

func TestVideoFeaturesBadTimestamp(t *testing.T) {
	svc := NewIntentService(testLogger())

	daysSince, freshness, _, _ := svc.VideoFeatures(100, 1, 1, "not-a-date", 7)

	// Unparseable timestamps degrade to maximum freshness.
	assert.Equal(t, 0, daysSince)
	assert.Equal(t, 1.0, freshness)
}

func TestCalculateIntentScoreEmpty(t *testing.T) {
	svc := NewIntentService(testLogger())

	result := svc.CalculateIntentScore(nil, "cargador", "MX", 7)

	assert.Equal(t, 0.0, result.IntentScore)
	assert.Equal(t, 0, result.VideosAnalyzed)
	assert.Equal(t, int64(0), result.TotalViews)
	assert.Empty(t, result.Videos)
}

func TestCalculateIntentScoreWeightsByViews(t *testing.T) {
	svc := NewIntentService(testLogger())
	now := time.Now().UTC().Format(time.RFC3339)

	stats := []models.VideoStats{
		{VideoID: "big", Views: 900, Likes: 90, Comments: 0, PublishedAt: now},
		{VideoID: "small", Views: 100, Likes: 50, Comments: 0, PublishedAt: now},
	}

	result := svc.CalculateIntentScore(stats, "cargador", "MX", 7)

	require.Equal(t, 2, result.VideosAnalyzed)
	assert.Equal(t, int64(1000), result.TotalViews)

	// The aggregate must sit between the per-video intents and lean toward
	// the high-view video.
	bigIntent := result.Videos[0].VideoIntent
	smallIntent := result.Videos[1].VideoIntent
	assert.Greater(t, smallIntent, bigIntent)
	assert.Greater(t, result.IntentScore, bigIntent)
	assert.Less(t, result.IntentScore, smallIntent)

	assert.Equal(t, "https://www.youtube.com/watch?v=big", result.Videos[0].URL)
}

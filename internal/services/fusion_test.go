package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
)

var fusionCfg = config.FusionConfig{WeightPrimary: 0.7, WeightSecondary: 0.3}

func TestFuseNoSecondarySamples(t *testing.T) {
	// With zero analyzed videos the primary score carries full weight and the
	// combined score equals it exactly.
	score := Fuse(63.27, 0.0, 0, fusionCfg)

	assert.Equal(t, 63.27, score.CombinedScore)
	assert.Equal(t, 1.0, score.WeightPrimary)
	assert.Equal(t, 0.0, score.WeightSecondary)
}

func TestFuseWeightedCombination(t *testing.T) {
	score := Fuse(80.0, 40.0, 12, fusionCfg)

	// 0.7*80 + 0.3*40 = 68
	assert.Equal(t, 68.0, score.CombinedScore)
	assert.Equal(t, 0.7, score.WeightPrimary)
	assert.Equal(t, 0.3, score.WeightSecondary)
	assert.Equal(t, models.RecommendationModerate, score.Recommendation)
}

func TestFuseRoundsToTwoDecimals(t *testing.T) {
	score := Fuse(33.333, 11.111, 5, fusionCfg)

	// 0.7*33.333 + 0.3*11.111 = 26.6664 -> 26.67
	assert.Equal(t, 26.67, score.CombinedScore)
}

func TestFuseRecommendationTiers(t *testing.T) {
	tests := []struct {
		score float64
		want  models.Recommendation
	}{
		{100, models.RecommendationHigh},
		{70, models.RecommendationHigh},
		{69.99, models.RecommendationModerate},
		{50, models.RecommendationModerate},
		{49.99, models.RecommendationLow},
		{30, models.RecommendationLow},
		{29.99, models.RecommendationNotRecommended},
		{0, models.RecommendationNotRecommended},
	}

	for _, tt := range tests {
		// Primary-only weighting passes the score through unchanged.
		got := Fuse(tt.score, 0, 0, fusionCfg)
		assert.Equal(t, tt.want, got.Recommendation, "score %.2f", tt.score)
	}
}

package services

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func makeSeries(values ...int) []models.TimeSeriesPoint {
	series := make([]models.TimeSeriesPoint, len(values))
	for i, v := range values {
		series[i] = models.TimeSeriesPoint{Date: "2026-01-01", Value: v}
	}
	return series
}

func TestScoreEmptySeries(t *testing.T) {
	svc := NewScoringService(testLogger())

	result, err := svc.Score(nil, "cargador", "MX", 7, 30)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, utils.IsEmptySeries(err))
}

func TestScoreSinglePoint(t *testing.T) {
	svc := NewScoringService(testLogger())

	result, err := svc.Score(makeSeries(50), "cargador", "MX", 7, 30)
	require.NoError(t, err)

	// One point: growth neutral, slope undefined, peak 50/100.
	assert.Equal(t, 1.0, result.Signals.Growth7vs30)
	assert.Equal(t, 0.0, result.Signals.Slope14d)
	assert.Equal(t, 0.5, result.Signals.RecentPeak30)
	assert.Equal(t, 40.0, result.TrendScore)
}

func TestScoreRisingSeries(t *testing.T) {
	svc := NewScoringService(testLogger())

	result, err := svc.Score(makeSeries(30, 32, 31, 35, 40, 45, 50), "cargador", "MX", 7, 30)
	require.NoError(t, err)

	// With only 7 points both averaging windows see the same data.
	assert.Equal(t, 1.0, result.Signals.Growth7vs30)
	assert.Greater(t, result.Signals.Slope14d, 0.0)
	assert.Equal(t, 0.5, result.Signals.RecentPeak30)
	assert.GreaterOrEqual(t, result.TrendScore, 0.0)
	assert.LessOrEqual(t, result.TrendScore, 100.0)
}

func TestScoreGrowthSplitsWindows(t *testing.T) {
	svc := NewScoringService(testLogger())

	// 23 days at 20 followed by 7 days at 80: the recent window average is
	// well above the 30-day baseline average.
	values := make([]int, 0, 30)
	for i := 0; i < 23; i++ {
		values = append(values, 20)
	}
	for i := 0; i < 7; i++ {
		values = append(values, 80)
	}

	result, err := svc.Score(makeSeries(values...), "cargador", "MX", 7, 30)
	require.NoError(t, err)

	// avg7=80, avg30=34 -> growth ~2.35
	assert.InDelta(t, 2.35, result.Signals.Growth7vs30, 0.01)
	assert.Greater(t, result.Signals.Slope14d, 0.01)
	assert.InDelta(t, 0.8, result.Signals.RecentPeak30, 0.001)
}

func TestScoreDeterministic(t *testing.T) {
	svc := NewScoringService(testLogger())
	series := makeSeries(10, 20, 30, 40, 50, 60, 70, 80)

	first, err := svc.Score(series, "telescopio", "CR", 7, 30)
	require.NoError(t, err)
	second, err := svc.Score(series, "telescopio", "CR", 7, 30)
	require.NoError(t, err)

	assert.Equal(t, first.TrendScore, second.TrendScore)
	assert.Equal(t, first.Signals, second.Signals)
	assert.Equal(t, first.Explain, second.Explain)
}

func TestScoreBounds(t *testing.T) {
	svc := NewScoringService(testLogger())

	cases := [][]int{
		{0},
		{0, 0, 0, 0, 0},
		{100, 100, 100, 100, 100},
		{100, 0, 100, 0, 100, 0},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	for _, values := range cases {
		result, err := svc.Score(makeSeries(values...), "kw", "ES", 7, 30)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.TrendScore, 0.0)
		assert.LessOrEqual(t, result.TrendScore, 100.0)
	}
}

func TestScoreZeroBaselineNeutralGrowth(t *testing.T) {
	svc := NewScoringService(testLogger())

	result, err := svc.Score(makeSeries(0, 0, 0, 0, 0, 0, 0), "kw", "MX", 7, 30)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Signals.Growth7vs30)
	assert.Equal(t, 0.0, result.Signals.Slope14d)
}

func TestExplanationsThresholds(t *testing.T) {
	tests := []struct {
		name    string
		signals models.ScoreSignals
		want    []string
	}{
		{
			name:    "growing",
			signals: models.ScoreSignals{Growth7vs30: 1.5, Slope14d: 0.05, RecentPeak30: 0.9},
			want:    []string{"creció", "positiva", "máximo posible"},
		},
		{
			name:    "falling",
			signals: models.ScoreSignals{Growth7vs30: 0.5, Slope14d: -0.05, RecentPeak30: 0.2},
			want:    []string{"cayó", "negativa", "niveles bajos"},
		},
		{
			name:    "stable",
			signals: models.ScoreSignals{Growth7vs30: 1.0, Slope14d: 0.0, RecentPeak30: 0.6},
			want:    []string{"estable", "plana", "niveles moderados"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := explanations(tt.signals, "MX", 7, 30)
			require.Len(t, out, 4)
			for i, fragment := range tt.want {
				assert.Contains(t, out[i], fragment)
			}
			assert.Contains(t, out[3], "MX")
		})
	}
}

func TestExplanationBoundaryValuesAreNeutral(t *testing.T) {
	// Exactly 1.1 growth and 0.01 slope sit on the thresholds and stay in
	// the neutral branch.
	out := explanations(models.ScoreSignals{Growth7vs30: 1.1, Slope14d: 0.01, RecentPeak30: 0.5}, "CR", 7, 30)
	assert.Contains(t, out[0], "estable")
	assert.Contains(t, out[1], "plana")
	assert.Contains(t, out[2], "niveles bajos")
}

func TestFormatPeriod(t *testing.T) {
	assert.Equal(t, "1 día", formatPeriod(1))
	assert.Equal(t, "7 días", formatPeriod(7))
	assert.Equal(t, "1 mes", formatPeriod(30))
	assert.Equal(t, "3.0 meses", formatPeriod(90))
	assert.Equal(t, "1 año", formatPeriod(365))
	assert.Equal(t, "2.0 años", formatPeriod(730))
}

package trends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendsight/trendsight-go/internal/models"
)

func TestGenerateMockTimeSeriesDeterministic(t *testing.T) {
	first := GenerateMockTimeSeries("cargador", 30)
	second := GenerateMockTimeSeries("cargador", 30)

	assert.Equal(t, first, second)
}

func TestGenerateMockTimeSeriesShapeAndBounds(t *testing.T) {
	series := GenerateMockTimeSeries("telescopio", 30)

	require.Len(t, series, 31)
	for _, point := range series {
		assert.GreaterOrEqual(t, point.Value, 0)
		assert.LessOrEqual(t, point.Value, 100)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, point.Date)
	}

	// Dates ascend day by day.
	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].Date, series[i-1].Date)
	}
}

func TestGenerateMockTimeSeriesVariesByKeyword(t *testing.T) {
	a := GenerateMockTimeSeries("cargador", 30)
	b := GenerateMockTimeSeries("funda", 30)

	assert.NotEqual(t, a, b)
}

func TestGenerateMockByRegionTargetWins(t *testing.T) {
	for _, region := range SupportedRegions {
		scores := GenerateMockByRegion("cargador", region)

		require.Len(t, scores, len(SupportedRegions))
		// The requested region lands in the 80-100 band, above every other
		// region's cap of 79, so it always sorts first.
		assert.Equal(t, region, scores[0].RegionCode)
		assert.GreaterOrEqual(t, scores[0].Value, 80)
		for _, rs := range scores[1:] {
			assert.LessOrEqual(t, rs.Value, 79)
		}
	}
}

func TestGenerateMockByRegionSorted(t *testing.T) {
	scores := GenerateMockByRegion("auriculares", "CR")

	for i := 1; i < len(scores); i++ {
		if scores[i-1].Value == scores[i].Value {
			assert.Less(t, scores[i-1].RegionCode, scores[i].RegionCode)
		} else {
			assert.Greater(t, scores[i-1].Value, scores[i].Value)
		}
	}
}

func TestSortRegionScoresTieBreak(t *testing.T) {
	scores := []models.RegionScore{
		{RegionCode: "ES", Value: 50},
		{RegionCode: "CR", Value: 50},
		{RegionCode: "MX", Value: 70},
	}
	sortRegionScores(scores)

	assert.Equal(t, "MX", scores[0].RegionCode)
	assert.Equal(t, "CR", scores[1].RegionCode)
	assert.Equal(t, "ES", scores[2].RegionCode)
}

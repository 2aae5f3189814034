package trends

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/trendsight/trendsight-go/internal/models"
)

// SupportedRegions is the fixed region set the mock and the region
// comparison operate over.
var SupportedRegions = []string{"MX", "CR", "ES"}

// keywordSeed derives a deterministic seed from the keyword so repeated mock
// calls with identical parameters return identical data.
func keywordSeed(keyword string) int {
	seed := 0
	for _, ch := range keyword {
		seed += int(ch)
	}
	return seed
}

// GenerateMockTimeSeries produces a deterministic daily series covering
// baselineDays+1 days ending today. Values stay within [0,100].
func GenerateMockTimeSeries(keyword string, baselineDays int) []models.TimeSeriesPoint {
	totalDays := baselineDays + 1
	seed := keywordSeed(keyword)
	startDate := time.Now().UTC().AddDate(0, 0, -baselineDays)

	series := make([]models.TimeSeriesPoint, 0, totalDays)
	for i := 0; i < totalDays; i++ {
		date := startDate.AddDate(0, 0, i)

		dayOffset := float64(i) / float64(totalDays)
		baseValue := float64(30 + seed%40)
		trend := math.Sin(dayOffset*math.Pi*4) * 20
		noise := float64((seed*(i+1))%30 - 15)

		value := int(math.Round(baseValue + trend + noise))
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}

		series = append(series, models.TimeSeriesPoint{
			Date:  date.Format("2006-01-02"),
			Value: value,
		})
	}
	return series
}

// GenerateMockByRegion produces deterministic region comparison data. The
// requested region always ranks in the 80-100 band so it wins the sort.
func GenerateMockByRegion(keyword, region string) []models.RegionScore {
	seed := keywordSeed(keyword)

	result := make([]models.RegionScore, 0, len(SupportedRegions))
	for _, code := range SupportedRegions {
		var value int
		if code == region {
			value = 80 + seed%21
		} else {
			offset := int(code[0]) + int(code[1])
			value = (seed + offset) % 80
			if value < 0 {
				value = 0
			}
			if value > 79 {
				value = 79
			}
		}
		result = append(result, models.RegionScore{RegionCode: code, Value: value})
	}

	sortRegionScores(result)
	return result
}

// sortRegionScores orders descending by value with a stable tie-break on
// region code ascending.
func sortRegionScores(scores []models.RegionScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].RegionCode < scores[j].RegionCode
	})
}

// MockProvider serves keyword-seeded deterministic data for tests and
// offline mode.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) InterestOverTime(_ context.Context, keyword, _ string, start, end time.Time) ([]models.TimeSeriesPoint, error) {
	baselineDays := int(end.Sub(start).Hours() / 24)
	return GenerateMockTimeSeries(keyword, baselineDays), nil
}

func (m *MockProvider) InterestByRegion(_ context.Context, keyword string) ([]models.RegionScore, error) {
	// Without a target region the first supported region takes the top band.
	return GenerateMockByRegion(keyword, SupportedRegions[0]), nil
}

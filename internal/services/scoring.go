package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// Signal weights and normalization bands for the composite trend score.
const (
	growthWeight = 0.5
	slopeWeight  = 0.3
	peakWeight   = 0.2

	// Growth 0.7..1.7 maps onto 0..1, slope -0.5..0.5 maps onto 0..1.
	growthNormOffset = 0.7
	slopeNormOffset  = 0.5
)

// ScoringResult is the pure output of the scoring engine.
type ScoringResult struct {
	TrendScore float64
	Signals    models.ScoreSignals
	Explain    []string
}

// ScoringService turns a raw time series into three normalized signals, a
// 0-100 composite score and deterministic explanatory text.
//
// Signals:
//   - growth: avg(last 7) / avg(last 30), weight 0.5
//   - slope: 14-day OLS slope normalized by the mean value, weight 0.3
//   - peak: max(last 30) / 100, weight 0.2
type ScoringService struct {
	logger *logrus.Logger
}

func NewScoringService(logger *logrus.Logger) *ScoringService {
	return &ScoringService{logger: logger}
}

// Score computes signals, composite score and explanations for series.
// Returns utils.ErrEmptySeries when the series has no points. Same input
// always produces the same output.
func (s *ScoringService) Score(series []models.TimeSeriesPoint, keyword, region string, windowDays, baselineDays int) (*ScoringResult, error) {
	if len(series) == 0 {
		return nil, utils.ErrEmptySeries
	}

	values := make([]float64, len(series))
	for i, point := range series {
		values[i] = float64(point.Value)
	}

	signals := models.ScoreSignals{
		Growth7vs30:  growth7vs30(values),
		Slope14d:     slope14d(values),
		RecentPeak30: recentPeak30(values),
	}

	score := finalScore(signals)
	explain := explanations(signals, region, windowDays, baselineDays)

	s.logger.WithFields(logrus.Fields{
		"keyword":     keyword,
		"region":      region,
		"trend_score": score,
		"data_points": len(series),
	}).Info("Trend score calculated")

	return &ScoringResult{
		TrendScore: utils.Round2(score),
		Signals: models.ScoreSignals{
			Growth7vs30:  utils.Round2(signals.Growth7vs30),
			Slope14d:     utils.Round4(signals.Slope14d),
			RecentPeak30: utils.Round2(signals.RecentPeak30),
		},
		Explain: explain,
	}, nil
}

// growth7vs30 is avg(last 7) / avg(last 30). 1.0 means no change; neutral
// when either window is empty or the baseline average is zero.
func growth7vs30(values []float64) float64 {
	last7 := tail(values, 7)
	last30 := tail(values, 30)

	if len(last7) == 0 || len(last30) == 0 {
		return 1.0
	}

	avg30 := utils.Average(last30)
	if avg30 <= 0 {
		return 1.0
	}
	return utils.Average(last7) / avg30
}

// slope14d is the OLS slope of the last 14 points against index 0..n-1,
// divided by the mean value so it is scale-independent. Zero with fewer than
// two points.
func slope14d(values []float64) float64 {
	last14 := tail(values, 14)
	n := len(last14)
	if n < 2 {
		return 0.0
	}

	meanX := float64(n-1) / 2.0
	meanY := utils.Average(last14)

	numerator := 0.0
	denominator := 0.0
	for i, y := range last14 {
		dx := float64(i) - meanX
		numerator += dx * (y - meanY)
		denominator += dx * dx
	}
	if denominator == 0 {
		return 0.0
	}

	slope := numerator / denominator
	if meanY > 0 {
		return slope / meanY
	}
	return slope
}

// recentPeak30 is max(last 30) / 100, the fraction of the maximum possible
// interest value reached recently.
func recentPeak30(values []float64) float64 {
	last30 := tail(values, 30)
	if len(last30) == 0 {
		return 0.0
	}
	return utils.Max(last30) / 100.0
}

// finalScore is 100 * clamp(0.5*G + 0.3*S + 0.2*P, 0, 1) with each signal
// normalized to [0,1] first.
func finalScore(signals models.ScoreSignals) float64 {
	g := utils.Clamp((signals.Growth7vs30-growthNormOffset)/1.0, 0, 1)
	sl := utils.Clamp((signals.Slope14d+slopeNormOffset)/1.0, 0, 1)
	p := utils.Clamp(signals.RecentPeak30, 0, 1)

	return utils.Clamp(growthWeight*g+slopeWeight*sl+peakWeight*p, 0, 1) * 100
}

// explanations generates the human-readable breakdown. The threshold
// boundaries (±10% growth, ±0.01 slope, 0.8/0.5 peak) and their direction
// are part of the scoring contract.
func explanations(signals models.ScoreSignals, region string, windowDays, baselineDays int) []string {
	windowText := formatPeriod(windowDays)
	baselineText := formatPeriod(baselineDays)

	out := make([]string, 0, 4)

	growthPercent := utils.Round2((signals.Growth7vs30 - 1) * 100)
	if growthPercent < 0 {
		growthPercent = -growthPercent
	}
	switch {
	case signals.Growth7vs30 > 1.1:
		out = append(out, fmt.Sprintf("El interés en los últimos %s creció %.1f%% vs los últimos %s.", windowText, growthPercent, baselineText))
	case signals.Growth7vs30 < 0.9:
		out = append(out, fmt.Sprintf("El interés en los últimos %s cayó %.1f%% vs los últimos %s.", windowText, growthPercent, baselineText))
	default:
		out = append(out, fmt.Sprintf("El interés en los últimos %s se mantiene estable respecto a los últimos %s.", windowText, baselineText))
	}

	slopePeriod := 2 * windowDays
	if slopePeriod > 14 {
		slopePeriod = 14
	}
	slopeText := formatPeriod(slopePeriod)
	switch {
	case signals.Slope14d > 0.01:
		out = append(out, fmt.Sprintf("La tendencia de los últimos %s es positiva (creciente).", slopeText))
	case signals.Slope14d < -0.01:
		out = append(out, fmt.Sprintf("La tendencia de los últimos %s es negativa (decreciente).", slopeText))
	default:
		out = append(out, fmt.Sprintf("La tendencia de los últimos %s es plana (sin cambios significativos).", slopeText))
	}

	peakPeriod := windowDays
	if peakPeriod < 30 {
		peakPeriod = 30
	}
	peakText := formatPeriod(peakPeriod)
	peakPercent := int(signals.RecentPeak30*100 + 0.5)
	switch {
	case signals.RecentPeak30 > 0.8:
		out = append(out, fmt.Sprintf("El interés en los últimos %s alcanzó %d%% del máximo posible.", peakText, peakPercent))
	case signals.RecentPeak30 > 0.5:
		out = append(out, fmt.Sprintf("El interés está en niveles moderados (%d%% del máximo en los últimos %s).", peakPercent, peakText))
	default:
		out = append(out, fmt.Sprintf("El interés está en niveles bajos (%d%% del máximo en los últimos %s).", peakPercent, peakText))
	}

	out = append(out, fmt.Sprintf("Los datos corresponden al país %s.", region))
	return out
}

// formatPeriod renders a day count as days, months or years.
func formatPeriod(days int) string {
	switch {
	case days >= 365:
		years := float64(days) / 365.0
		if years == 1 {
			return "1 año"
		}
		return fmt.Sprintf("%.1f años", years)
	case days >= 30:
		months := float64(days) / 30.0
		if months == 1 {
			return "1 mes"
		}
		return fmt.Sprintf("%.1f meses", months)
	case days == 1:
		return "1 día"
	default:
		return fmt.Sprintf("%d días", days)
	}
}

// tail returns the last n elements of values, or all of them.
func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

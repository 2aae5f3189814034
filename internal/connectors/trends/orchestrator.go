package trends

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

const (
	// backoffGrowth turns an 8s base delay into the 8s, 12s, 18s ladder.
	backoffGrowth = 1.5

	// humanDelayMin/Max pace each upstream call like an interactive client.
	humanDelayMin = 500 * time.Millisecond
	humanDelayMax = 1500 * time.Millisecond
)

// Orchestrator performs one logical trend acquisition: the time-series call,
// a mandatory cool-down, then the region-comparison call. Calls to the
// upstream are serialized; each individual call is retried with jittered
// exponential backoff.
type Orchestrator struct {
	provider Provider
	cfg      config.TrendsConfig
	logger   *logrus.Logger

	requestMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewOrchestrator(provider Provider, cfg config.TrendsConfig, logger *logrus.Logger) *Orchestrator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Orchestrator{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchComplete acquires the full trend payload for one query. In mock mode
// it returns deterministic keyword-seeded data without touching the network
// or the pacing delays.
func (o *Orchestrator) FetchComplete(ctx context.Context, keyword, region string, windowDays, baselineDays int) (*models.TrendsData, error) {
	if o.cfg.MockMode {
		return &models.TrendsData{
			TimeSeries: GenerateMockTimeSeries(keyword, baselineDays),
			ByRegion:   GenerateMockByRegion(keyword, region),
			Source:     models.SourceMock,
			FetchedAt:  time.Now().UTC(),
		}, nil
	}

	// Serialize upstream calls; concurrent fetches against this source are
	// what triggers blocking.
	o.requestMu.Lock()
	defer o.requestMu.Unlock()

	log := o.logger.WithFields(logrus.Fields{
		"keyword":       keyword,
		"region":        region,
		"window_days":   windowDays,
		"baseline_days": baselineDays,
	})
	log.Info("Fetching complete trend data from upstream")

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -baselineDays)

	series, err := o.fetchWithRetry(ctx, "interest_over_time", func(callCtx context.Context) (interface{}, error) {
		return o.provider.InterestOverTime(callCtx, keyword, region, startDate, endDate)
	})
	if err != nil {
		return nil, err
	}

	// Cool down between the dependent calls to avoid a burst pattern. The
	// series call always precedes the region call.
	cooldown := 2 * o.cfg.RequestDelay
	log.WithField("delay", cooldown.String()).Info("Waiting before region comparison call")
	if err := sleepCtx(ctx, o.withJitter(cooldown)); err != nil {
		return nil, err
	}

	byRegion, err := o.fetchWithRetry(ctx, "interest_by_region", func(callCtx context.Context) (interface{}, error) {
		return o.provider.InterestByRegion(callCtx, keyword)
	})
	if err != nil {
		return nil, err
	}

	data := &models.TrendsData{
		TimeSeries: series.([]models.TimeSeriesPoint),
		ByRegion:   byRegion.([]models.RegionScore),
		Source:     models.SourceLive,
		FetchedAt:  time.Now().UTC(),
	}
	log.WithField("data_points", len(data.TimeSeries)).Info("Successfully fetched trend data")
	return data, nil
}

// fetchWithRetry runs one upstream call with human pacing, per-call timeout
// and jittered exponential backoff. Blocked and ordinary failures follow the
// same retry schedule but are logged at different severity.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, operation string, call func(context.Context) (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		// Small randomized pre-call delay to avoid a mechanical cadence.
		if err := sleepCtx(ctx, o.humanDelay()); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		result, err := call(callCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// A per-call timeout is an ordinary failure consumed by the loop.
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("call timed out after %s: %w", o.cfg.Timeout, err)
		}
		lastErr = err
		blocked := utils.IsBlocked(err)

		if attempt == o.cfg.MaxRetries {
			o.logger.WithFields(logrus.Fields{
				"operation":   operation,
				"attempt":     attempt,
				"max_retries": o.cfg.MaxRetries,
				"error":       truncate(err.Error(), 200),
			}).Error("All retry attempts exhausted")
			break
		}

		delay := o.retryDelay(attempt)
		entry := o.logger.WithFields(logrus.Fields{
			"operation":  operation,
			"attempt":    attempt,
			"is_blocked": blocked,
			"next_delay": delay.String(),
			"error":      truncate(err.Error(), 150),
		})
		if blocked {
			entry.Warn("Upstream blocked request, backing off before retry")
		} else {
			entry.Info("Request failed, retrying")
		}

		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	if utils.IsBlocked(lastErr) {
		return nil, utils.NewBlockedError(
			fmt.Sprintf("failed after %d attempts: %v", o.cfg.MaxRetries, lastErr), lastErr)
	}
	return nil, utils.NewAcquisitionError(
		fmt.Sprintf("failed after %d attempts: %v", o.cfg.MaxRetries, lastErr), lastErr)
}

// retryDelay is base * growth^(attempt-1) plus up to 25% jitter.
func (o *Orchestrator) retryDelay(attempt int) time.Duration {
	base := float64(o.cfg.RetryDelay) * math.Pow(backoffGrowth, float64(attempt-1))
	jitter := base * 0.25 * o.randFloat()
	return time.Duration(base + jitter)
}

// humanDelay returns a random pause in the human-pacing band.
func (o *Orchestrator) humanDelay() time.Duration {
	span := float64(humanDelayMax - humanDelayMin)
	return humanDelayMin + time.Duration(span*o.randFloat())
}

// withJitter spreads a fixed delay by ±10%.
func (o *Orchestrator) withJitter(d time.Duration) time.Duration {
	jitter := float64(d) * 0.1 * (o.randFloat()*2 - 1)
	return time.Duration(float64(d) + jitter)
}

func (o *Orchestrator) randFloat() float64 {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	return o.rng.Float64()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

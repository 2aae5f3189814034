// Package trends acquires search-interest data from a rate-limited upstream
// that actively defends against automated clients. The orchestrator owns
// pacing, retries and block classification; providers own the wire format.
package trends

import (
	"context"
	"time"

	"github.com/trendsight/trendsight-go/internal/models"
)

// Provider performs raw upstream calls. Implementations must classify
// anti-automation responses as blocked errors (utils.NewBlockedError) at the
// transport boundary so the retry loop can report them distinctly.
type Provider interface {
	// InterestOverTime returns daily interest for keyword in region between
	// start and end, ascending by date.
	InterestOverTime(ctx context.Context, keyword, region string, start, end time.Time) ([]models.TimeSeriesPoint, error)

	// InterestByRegion returns relative interest per supported region over a
	// fixed 12-month lookback.
	InterestByRegion(ctx context.Context, keyword string) ([]models.RegionScore, error)
}

package telegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/concierge/internal/store"
)

// Summarizer computes activity metrics for a time range.
type Summarizer interface {
	Summarize(ctx context.Context, since, until time.Time) (*store.Summary, error)
}

// BuildDailyDigest summarizes the 24 hours before now. It returns nil when
// there was no activity and nothing is pending.
func BuildDailyDigest(ctx context.Context, s Summarizer, now time.Time) (*store.Summary, error) {
	sum, err := s.Summarize(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, fmt.Errorf("telegraph: daily digest: %w", err)
	}
	if sum.Orders == 0 && sum.Requests == 0 && sum.PendingRequests == 0 {
		return nil, nil
	}
	return sum, nil
}

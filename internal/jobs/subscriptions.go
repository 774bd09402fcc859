package jobs

import (
	"context"
	"time"
)

// SubscriptionSweepJob is the name of the subscription expiry job.
const SubscriptionSweepJob = "subscription-sweep"

// Sweeper cancels subscriptions whose period has ended.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionSweep wraps a Sweeper as a Job.
func SubscriptionSweep(s Sweeper) Job {
	return func(ctx context.Context) error {
		_, err := s.SweepExpired(ctx, time.Now().UTC())
		return err
	}
}

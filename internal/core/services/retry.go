package services

import (
	"context"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/observability"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often a unit of work is retried after a
// concurrency conflict. Other errors are returned at once.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy matches the configuration defaults.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Backoff: 50 * time.Millisecond}

// Do runs fn, retrying on domain.ErrConflict with linear backoff.
func (p RetryPolicy) Do(ctx context.Context, operation string, log logrus.FieldLogger, metrics *observability.Metrics, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !domain.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}

		metrics.ConflictRetry(operation)
		if log != nil {
			log.WithFields(logrus.Fields{
				"operation": operation,
				"attempt":   attempt + 1,
			}).WithError(err).Warn("retrying after conflict")
		}

		if p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff * time.Duration(attempt+1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
	}
}

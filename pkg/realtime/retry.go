package realtime

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries      = 2
	DefaultInitialInterval = 2 * time.Second
)

// RetryFetcher retries a stop fetch with exponential backoff. Errors that cannot succeed on retry,
// such as a rejected API key, are returned straight away.
type RetryFetcher struct {
	Fetcher api511.StopFetcher
	Service string

	MaxRetries      uint64
	InitialInterval time.Duration
}

func (r *RetryFetcher) FetchStop(ctx context.Context, stopID string) (*ctdf.RawStopPredictions, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = r.InitialInterval
	if retryBackoff.InitialInterval <= 0 {
		retryBackoff.InitialInterval = DefaultInitialInterval
	}

	maxRetries := r.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	attempt := 0

	return backoff.RetryNotifyWithData(
		func() (*ctdf.RawStopPredictions, error) {
			attempt++

			stopPredictions, err := r.Fetcher.FetchStop(ctx, stopID)
			if err != nil && !api511.Retryable(err) {
				return nil, backoff.Permanent(err)
			}

			return stopPredictions, err
		},
		backoff.WithContext(backoff.WithMaxRetries(retryBackoff, maxRetries), ctx),
		func(err error, wait time.Duration) {
			log.Debug().
				Err(err).
				Str("service", r.Service).
				Str("stop", stopID).
				Int("attempt", attempt).
				Str("wait", wait.String()).
				Msg("Retrying stop fetch")
		},
	)
}

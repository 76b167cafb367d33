package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/noiseboard/noiseboard/pkg/formatter"
	"github.com/noiseboard/noiseboard/pkg/predictor"
	"github.com/rs/zerolog/log"
)

// FrameWriter receives every rendered board frame.
type FrameWriter interface {
	WriteFrame(frame ctdf.FormattedLine) error
}

// BoardDriver renders every service onto the board once per RenderInterval and refreshes upstream
// data every RefreshEvery renders. Between refreshes the minute counts keep counting down.
type BoardDriver struct {
	Predictors []*predictor.Predictor

	// Board is nil when the board is only shown on the console.
	Board   FrameWriter
	Console io.Writer

	RenderInterval time.Duration
	RefreshEvery   int

	Now func() time.Time

	cycle int
}

// Run cycles until ctx is done. It only returns an error when the board cannot continue, a rejected
// API key or a failed write to the sign.
func (d *BoardDriver) Run(ctx context.Context) error {
	log.Info().
		Int("services", len(d.Predictors)).
		Str("interval", d.RenderInterval.String()).
		Int("refresh_every", d.RefreshEvery).
		Msg("Starting board")

	interval := d.RenderInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := d.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle renders one frame, refreshing first when this cycle is due for it.
func (d *BoardDriver) Cycle(ctx context.Context) error {
	refreshEvery := d.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = 1
	}

	if d.cycle%refreshEvery == 0 {
		if err := d.refresh(ctx); err != nil {
			return err
		}
	}
	d.cycle++

	now := d.now()
	services := make([]ctdf.FormattedLine, 0, len(d.Predictors))

	for _, servicePredictor := range d.Predictors {
		if err := servicePredictor.DeriveETAs(now); err != nil {
			log.Warn().Err(err).Str("service", servicePredictor.Service.Headline()).Msg("Failed to derive arrival times")
		}

		services = append(services, servicePredictor.RenderService())
	}

	frame := formatter.BoardFrame(services, now)

	if d.Console != nil {
		fmt.Fprintln(d.Console, frame.Text)
	}

	if d.Board != nil {
		if err := d.Board.WriteFrame(frame); err != nil {
			return err
		}
	}

	return nil
}

func (d *BoardDriver) refresh(ctx context.Context) error {
	for _, servicePredictor := range d.Predictors {
		err := servicePredictor.Refresh(ctx)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if api511.IsUnauthorized(err) {
			log.Error().Str("service", servicePredictor.Service.Headline()).Msg("511.org rejected the API key, check api_key or --api-key")

			return fmt.Errorf("refresh %s: %w", servicePredictor.Service.Headline(), err)
		}

		var upstreamReported *api511.UpstreamReportedError
		if errors.As(err, &upstreamReported) {
			log.Warn().Str("service", servicePredictor.Service.Headline()).Str("message", upstreamReported.Message).Msg("511.org reported an error")
		}
	}

	return nil
}

func (d *BoardDriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now()
}

package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/noiseboard/noiseboard/pkg/formatter"
	"github.com/noiseboard/noiseboard/pkg/predictions"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const DefaultWorkers = 4

type Options struct {
	Workers   int
	OnFailure FailurePolicy
	Policy    predictions.Policy
}

// Predictor holds one service's last fetched arrivals and the minute counts derived from them.
// Refreshing and deriving are separate so the board can count down between fetches.
//
// Both snapshots are replaced wholesale and never mutated once published.
type Predictor struct {
	Service *ctdf.ServiceConfig

	fetcher api511.StopFetcher
	options Options

	mutex sync.RWMutex
	raw   *ctdf.RawServicePredictions
	etas  *ctdf.ServicePredictions
	state State
}

func New(service *ctdf.ServiceConfig, fetcher api511.StopFetcher, options Options) *Predictor {
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}

	return &Predictor{
		Service: service,
		fetcher: fetcher,
		options: options,
		raw:     ctdf.NewOrderedMap[string, *ctdf.RawStopPredictions](),
		etas:    ctdf.NewOrderedMap[string, *ctdf.StopPredictions](),
		state:   StateEmpty,
	}
}

type stopResult struct {
	index       int
	stopID      string
	predictions *ctdf.RawStopPredictions
	err         error
}

// Refresh fetches every configured stop and publishes a new raw snapshot. A failing stop never stops
// its siblings; failures are returned joined together once all stops have finished. If ctx is done
// before the fetches finish the previous snapshot is left in place.
func (p *Predictor) Refresh(ctx context.Context) error {
	startTime := time.Now()
	stops := p.Service.StopIDs()

	workers := pool.NewWithResults[stopResult]().WithMaxGoroutines(p.options.Workers)

	for index, stopID := range stops {
		workers.Go(func() stopResult {
			stopPredictions, err := p.fetcher.FetchStop(ctx, stopID)

			return stopResult{
				index:       index,
				stopID:      stopID,
				predictions: stopPredictions,
				err:         err,
			}
		})
	}

	results := make([]stopResult, len(stops))
	for _, result := range workers.Wait() {
		results[result.index] = result
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	previous := p.raw
	next := ctdf.NewOrderedMap[string, *ctdf.RawStopPredictions]()
	var errs []error

	for _, result := range results {
		if result.err == nil {
			next.Set(result.stopID, result.predictions)
			continue
		}

		errs = append(errs, fmt.Errorf("stop %s: %w", result.stopID, result.err))

		logEvent := log.Warn()
		if api511.IsUnauthorized(result.err) {
			logEvent = log.Error()
		}
		logEvent.Err(result.err).
			Str("service", p.Service.Headline()).
			Str("stop", result.stopID).
			Str("policy", p.options.OnFailure.String()).
			Msg("Failed to fetch stop predictions")

		if p.options.OnFailure == KeepStale {
			if stale, ok := previous.Get(result.stopID); ok {
				next.Set(result.stopID, stale)
			}
		}
	}

	p.raw = next
	p.state = StateHasRaw

	log.Debug().
		Str("service", p.Service.Headline()).
		Int("stops", next.Len()).
		Int("failed", len(errs)).
		Str("duration", time.Since(startTime).String()).
		Msg("Refreshed predictions")

	return errors.Join(errs...)
}

// DeriveETAs recomputes minute counts from the last raw snapshot without touching the network. A stop
// whose data cannot be normalized is left off the board and its error returned.
func (p *Predictor) DeriveETAs(now time.Time) error {
	p.mutex.RLock()
	raw := p.raw
	state := p.state
	p.mutex.RUnlock()

	if state == StateEmpty {
		return nil
	}

	etas := ctdf.NewOrderedMap[string, *ctdf.StopPredictions]()
	var errs []error

	for stopID, stopRaw := range raw.All() {
		normalized, err := predictions.Normalize(
			stopRaw,
			stopID,
			p.Service.DirectionFor(stopID),
			p.Service.APIVariant,
			now,
			p.options.Policy,
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", stopID, err))
			continue
		}

		etas.Set(stopID, normalized)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// A refresh may have published while we were deriving; its snapshot wins.
	if p.raw == raw {
		p.etas = etas
		p.state = StateHasETAs
	}

	return errors.Join(errs...)
}

func (p *Predictor) currentETAs() *ctdf.ServicePredictions {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.etas
}

// Render returns one line per route across all stops, in stop then first-seen route order. Routes with
// no arrivals are skipped. Before the first refresh this is empty.
func (p *Predictor) Render() []ctdf.FormattedLine {
	var lines []ctdf.FormattedLine

	for _, stopPredictions := range p.currentETAs().All() {
		lines = append(lines, p.renderStop(stopPredictions)...)
	}

	return lines
}

func (p *Predictor) renderStop(stopPredictions *ctdf.StopPredictions) []ctdf.FormattedLine {
	var lines []ctdf.FormattedLine

	for _, routePrediction := range stopPredictions.All() {
		if len(routePrediction.Arrivals) == 0 {
			continue
		}

		lines = append(lines, formatter.FormatRoute(
			routePrediction.RouteID,
			routePrediction.Arrivals,
			routePrediction.Direction,
			p.Service.RouteRename,
		))
	}

	return lines
}

// RenderService groups the routes by stop under the service headline.
func (p *Predictor) RenderService() ctdf.FormattedLine {
	var groups []ctdf.FormattedLine

	for _, stopPredictions := range p.currentETAs().All() {
		groups = append(groups, formatter.FormatStopGroup(p.renderStop(stopPredictions)))
	}

	return formatter.FormatService(p.Service.Headline(), groups)
}

// Snapshot returns a deep copy of the current minute counts, safe for the caller to modify.
func (p *Predictor) Snapshot() (*ctdf.ServicePredictions, error) {
	etas := p.currentETAs()
	snapshot := ctdf.NewOrderedMap[string, *ctdf.StopPredictions]()

	for stopID, stopPredictions := range etas.All() {
		stopCopy := ctdf.NewStopPredictions()

		for routeID, routePrediction := range stopPredictions.All() {
			routeCopy := &ctdf.RoutePrediction{}
			if err := copier.CopyWithOption(routeCopy, routePrediction, copier.Option{DeepCopy: true}); err != nil {
				return nil, err
			}

			stopCopy.Set(routeID, routeCopy)
		}

		snapshot.Set(stopID, stopCopy)
	}

	return snapshot, nil
}

func (p *Predictor) State() State {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.state
}

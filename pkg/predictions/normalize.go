// Package predictions turns raw upstream arrivals into whole minutes from now.
package predictions

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// MaxDisplayMinutes is the largest arrival value shown on the board.
const MaxDisplayMinutes = 120

type Policy struct {
	// DropDeparted removes negative minute values, arrivals the feed still reports after the
	// vehicle has left.
	DropDeparted bool
}

// MinutesUntil is the floor of the minutes between now and arrival.
func MinutesUntil(arrival time.Time, now time.Time) int {
	return int(math.Floor(arrival.Sub(now).Minutes()))
}

// Normalize converts one stop's raw arrivals into minute counts, keeping upstream route order and
// at most variant.ArrivalLimit() arrivals per route. With policy.DropDeparted the cap is taken after
// departed arrivals are removed. Route ids are left as the feed reports them.
//
// A legacy minute count that is not an integer is returned as an *api511.MalformedResponseError
// wrapping a *MalformedMinutesError.
func Normalize(raw *ctdf.RawStopPredictions, stopID string, direction string, variant ctdf.APIVariant, now time.Time, policy Policy) (*ctdf.StopPredictions, error) {
	limit := variant.ArrivalLimit()
	normalized := ctdf.NewStopPredictions()

	for routeID, arrivals := range raw.All() {
		minutes := make([]int, 0, len(arrivals))

		for _, arrival := range arrivals {
			value, err := arrivalMinutes(arrival, now)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", routeID, err)
			}

			minutes = append(minutes, value)
		}

		if policy.DropDeparted {
			minutes = slices.DeleteFunc(minutes, func(value int) bool {
				return value < 0
			})
		}

		if len(minutes) > limit {
			minutes = minutes[:limit]
		}

		normalized.Set(routeID, &ctdf.RoutePrediction{
			StopID:    stopID,
			RouteID:   routeID,
			Direction: direction,
			Arrivals:  minutes,
		})
	}

	return normalized, nil
}

// MalformedMinutesError is a legacy minute count that is not an integer. Normalize reports it inside an
// *api511.MalformedResponseError.
type MalformedMinutesError struct {
	Value string
}

func (e *MalformedMinutesError) Error() string {
	return fmt.Sprintf("malformed minute count %q", e.Value)
}

func arrivalMinutes(arrival ctdf.RawArrival, now time.Time) (int, error) {
	if !arrival.IsRelative() {
		return MinutesUntil(arrival.Time, now), nil
	}

	value, err := strconv.Atoi(arrival.Minutes)
	if err != nil {
		return 0, &api511.MalformedResponseError{
			Reason: "legacy minute count",
			Err:    &MalformedMinutesError{Value: arrival.Minutes},
		}
	}

	return value, nil
}

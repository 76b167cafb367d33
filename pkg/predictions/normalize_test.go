package predictions

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/noiseboard/noiseboard/pkg/api511"
	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinutesUntil(t *testing.T) {
	midnight := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		arrival  time.Time
		expected int
	}{
		{"five minutes", midnight.Add(5 * time.Minute), 5},
		{"ninety seconds", midnight.Add(90 * time.Second), 1},
		{"fifty nine seconds", midnight.Add(59 * time.Second), 0},
		{"now", midnight, 0},
		{"thirty seconds ago", midnight.Add(-30 * time.Second), -1},
		{"two minutes ago", midnight.Add(-2 * time.Minute), -2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MinutesUntil(tc.arrival, midnight))
		})
	}
}

func rawJSON(now time.Time, routes map[string][]time.Duration, order ...string) *ctdf.RawStopPredictions {
	raw := ctdf.NewRawStopPredictions()
	for _, routeID := range order {
		var arrivals []ctdf.RawArrival
		for _, offset := range routes[routeID] {
			arrivals = append(arrivals, ctdf.RawArrival{Time: now.Add(offset)})
		}
		raw.Set(routeID, arrivals)
	}

	return raw
}

func TestNormalizeJSON(t *testing.T) {
	now := time.Date(2016, 7, 15, 14, 22, 0, 0, time.UTC)
	raw := rawJSON(now, map[string][]time.Duration{
		"764": {2 * time.Minute, 17 * time.Minute, 32 * time.Minute, 47 * time.Minute},
		"385": {-90 * time.Second, 13 * time.Minute},
	}, "764", "385")

	normalized, err := Normalize(raw, "10", "", ctdf.APIVariantJSON, now, Policy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"764", "385"}, normalized.Keys())

	millbrae, _ := normalized.Get("764")
	assert.Equal(t, &ctdf.RoutePrediction{StopID: "10", RouteID: "764", Arrivals: []int{2, 17, 32}}, millbrae)

	daly, _ := normalized.Get("385")
	assert.Equal(t, []int{-2, 13}, daly.Arrivals)
}

func stopMonitoringBody(arrivals ...string) []byte {
	visits := make([]string, 0, len(arrivals))
	for _, arrival := range arrivals {
		visits = append(visits, fmt.Sprintf(
			`{"MonitoredVehicleJourney": {"LineRef": "14", "MonitoredCall": {"AimedArrivalTime": %q}}}`,
			arrival,
		))
	}

	return []byte(`{"ServiceDelivery": {"StopMonitoringDelivery": {"MonitoredStopVisit": [` +
		strings.Join(visits, ",") + `]}}}`)
}

func TestNormalizeStopMonitoringFixture(t *testing.T) {
	body, err := os.ReadFile("../api511/testdata/sample_response.json")
	require.NoError(t, err)

	raw, err := api511.ParseStopMonitoring(body)
	require.NoError(t, err)

	now := time.Date(2016, 7, 15, 14, 22, 0, 0, time.UTC)
	normalized, err := Normalize(raw, "10", "", ctdf.APIVariantJSON, now, Policy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"764", "243", "722", "385", "671"}, normalized.Keys())

	expected := map[string][]int{
		"764": {2, 17, 32},
		"243": {7, 22, 37},
		"722": {10, 25, 40},
		"385": {13, 28},
		"671": {30, 45, 60},
	}
	for routeID, routePrediction := range normalized.All() {
		assert.Equal(t, expected[routeID], routePrediction.Arrivals, routeID)
		assert.Equal(t, "10", routePrediction.StopID)
	}
}

func TestNormalizeDropDeparted(t *testing.T) {
	raw, err := api511.ParseStopMonitoring(stopMonitoringBody(
		"2016-01-01T00:00:00Z",
		"2016-01-01T00:10:00Z",
		"2016-01-01T00:20:00Z",
		"2016-01-01T00:30:00Z",
	))
	require.NoError(t, err)

	now := time.Date(2016, 1, 1, 0, 5, 0, 0, time.UTC)

	kept, err := Normalize(raw, "15553", "NB", ctdf.APIVariantJSON, now, Policy{})
	require.NoError(t, err)
	route, _ := kept.Get("14")
	assert.Equal(t, []int{-5, 5, 15}, route.Arrivals)

	dropped, err := Normalize(raw, "15553", "NB", ctdf.APIVariantJSON, now, Policy{DropDeparted: true})
	require.NoError(t, err)
	route, _ = dropped.Get("14")
	assert.Equal(t, []int{5, 15, 25}, route.Arrivals)
	assert.Equal(t, "NB", route.Direction)
}

func TestNormalizeDropDepartedEmptiesRoute(t *testing.T) {
	raw, err := api511.ParseStopMonitoring(stopMonitoringBody("2016-01-01T00:00:00Z"))
	require.NoError(t, err)

	now := time.Date(2016, 1, 1, 0, 3, 0, 0, time.UTC)
	normalized, err := Normalize(raw, "15553", "", ctdf.APIVariantJSON, now, Policy{DropDeparted: true})
	require.NoError(t, err)

	route, ok := normalized.Get("14")
	assert.True(t, ok)
	assert.Empty(t, route.Arrivals)
}

func TestNormalizeLegacy(t *testing.T) {
	raw := ctdf.NewRawStopPredictions()
	raw.Set("J", []ctdf.RawArrival{{Minutes: "2"}, {Minutes: "11"}, {Minutes: "19"}})
	raw.Set("KT", []ctdf.RawArrival{{Minutes: "5"}})
	raw.Set("L", []ctdf.RawArrival{})

	normalized, err := Normalize(raw, "15731", "IB", ctdf.APIVariantLegacyXML, time.Now(), Policy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"J", "KT", "L"}, normalized.Keys())

	j, _ := normalized.Get("J")
	assert.Equal(t, []int{2, 11}, j.Arrivals)

	kt, _ := normalized.Get("KT")
	assert.Equal(t, []int{5}, kt.Arrivals)

	l, _ := normalized.Get("L")
	assert.Empty(t, l.Arrivals)
}

func TestNormalizeLegacyMalformedMinutes(t *testing.T) {
	raw := ctdf.NewRawStopPredictions()
	raw.Set("N", []ctdf.RawArrival{{Minutes: "Arriving"}})

	_, err := Normalize(raw, "15731", "", ctdf.APIVariantLegacyXML, time.Now(), Policy{})

	var response *api511.MalformedResponseError
	require.ErrorAs(t, err, &response)

	var malformed *MalformedMinutesError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "Arriving", malformed.Value)
	assert.ErrorContains(t, err, "route N")
}

func TestNormalizeEmpty(t *testing.T) {
	normalized, err := Normalize(ctdf.NewRawStopPredictions(), "70022", "SB", ctdf.APIVariantJSON, time.Now(), Policy{})
	require.NoError(t, err)
	assert.Equal(t, 0, normalized.Len())
}

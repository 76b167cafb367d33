package api511

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const AimedArrivalTimeFormat = "2006-01-02T15:04:05Z"

type StopMonitoring struct {
	ServiceDelivery *struct {
		StopMonitoringDelivery *struct {
			MonitoredStopVisit []*MonitoredStopVisit
		}
	}
}

type MonitoredStopVisit struct {
	MonitoredVehicleJourney *MonitoredVehicleJourney
}

type MonitoredVehicleJourney struct {
	LineRef *string

	MonitoredCall *struct {
		AimedArrivalTime *string
	}
}

// ParseStopMonitoring decodes a StopMonitoring JSON body into route -> arrival times, routes in
// first-seen order. Every arrival is kept; the display cap is applied when normalizing so departed
// arrivals can be dropped first. A leading byte order mark is tolerated.
func ParseStopMonitoring(body []byte) (*ctdf.RawStopPredictions, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, &MalformedResponseError{Reason: "decoding body", Err: err}
	}

	var stopMonitoring StopMonitoring
	if err := json.Unmarshal(decoded, &stopMonitoring); err != nil {
		return nil, &MalformedResponseError{Reason: "parsing json", Err: err}
	}

	if stopMonitoring.ServiceDelivery == nil {
		return nil, &MalformedResponseError{Reason: "missing ServiceDelivery"}
	}
	if stopMonitoring.ServiceDelivery.StopMonitoringDelivery == nil {
		return nil, &MalformedResponseError{Reason: "missing StopMonitoringDelivery"}
	}

	predictions := ctdf.NewRawStopPredictions()

	for _, visit := range stopMonitoring.ServiceDelivery.StopMonitoringDelivery.MonitoredStopVisit {
		if visit == nil || visit.MonitoredVehicleJourney == nil {
			return nil, &MalformedResponseError{Reason: "missing MonitoredVehicleJourney"}
		}
		journey := visit.MonitoredVehicleJourney

		if journey.LineRef == nil {
			return nil, &MalformedResponseError{Reason: "missing LineRef"}
		}
		if journey.MonitoredCall == nil || journey.MonitoredCall.AimedArrivalTime == nil {
			return nil, &MalformedResponseError{Reason: "missing MonitoredCall.AimedArrivalTime"}
		}

		arrivalTime, err := time.Parse(AimedArrivalTimeFormat, *journey.MonitoredCall.AimedArrivalTime)
		if err != nil {
			return nil, &MalformedResponseError{Reason: "parsing AimedArrivalTime", Err: err}
		}

		routeID := *journey.LineRef
		arrivals, _ := predictions.Get(routeID)
		predictions.Set(routeID, append(arrivals, ctdf.RawArrival{Time: arrivalTime}))
	}

	return predictions, nil
}

package ctdf

import "time"

// RawArrival is a single upstream arrival before normalization. The JSON feed reports an absolute
// UTC time, the legacy XML feed reports an already relative minute count.
type RawArrival struct {
	Time    time.Time
	Minutes string
}

func (r RawArrival) IsRelative() bool {
	return r.Time.IsZero()
}

// RawStopPredictions maps route id to arrivals in upstream order, routes in first-seen order.
type RawStopPredictions = OrderedMap[string, []RawArrival]

// RawServicePredictions maps stop id to that stop's raw predictions.
type RawServicePredictions = OrderedMap[string, *RawStopPredictions]

type RoutePrediction struct {
	StopID    string `json:"stop_id" groups:"detailed"`
	RouteID   string `json:"route_id" groups:"basic,detailed"`
	Direction string `json:"direction" groups:"basic,detailed"`
	Arrivals  []int  `json:"arrivals" groups:"basic,detailed"`
}

type StopPredictions = OrderedMap[string, *RoutePrediction]

type ServicePredictions = OrderedMap[string, *StopPredictions]

func NewRawStopPredictions() *RawStopPredictions {
	return NewOrderedMap[string, []RawArrival]()
}

func NewStopPredictions() *StopPredictions {
	return NewOrderedMap[string, *RoutePrediction]()
}

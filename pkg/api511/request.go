package api511

import "net/url"

// stopMonitoringRequest is built fresh for every call so no request shares parameter state.
type stopMonitoringRequest struct {
	APIKey   string
	Agency   string
	StopCode string
}

func (r stopMonitoringRequest) Values() url.Values {
	return url.Values{
		"format":   {"json"},
		"api_key":  {r.APIKey},
		"agency":   {r.Agency},
		"stopCode": {r.StopCode},
	}
}

type nextDeparturesRequest struct {
	StopCode string
	Token    string
}

func (r nextDeparturesRequest) Values() url.Values {
	return url.Values{
		"stopcode": {r.StopCode},
		"token":    {r.Token},
	}
}

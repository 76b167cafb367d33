package api511

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"golang.org/x/net/html/charset"
)

// ParseLegacyDepartures walks a GetNextDeparturesByStopCode document. Each Route element yields its
// Code and up to two DepartureTime minute strings. A transitServiceError root is returned as an
// *UpstreamReportedError.
func ParseLegacyDepartures(reader io.Reader) (*ctdf.RawStopPredictions, error) {
	limit := ctdf.APIVariantLegacyXML.ArrivalLimit()
	predictions := ctdf.NewRawStopPredictions()

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	seenRoot := false
	currentRoute := ""
	var currentArrivals []ctdf.RawArrival

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &MalformedResponseError{Reason: "decoding xml", Err: err}
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			if !seenRoot {
				seenRoot = true

				if ty.Name.Local == "transitServiceError" {
					var message string
					if err := d.DecodeElement(&message, &ty); err != nil {
						return nil, &MalformedResponseError{Reason: "decoding transitServiceError", Err: err}
					}

					return nil, &UpstreamReportedError{Message: strings.TrimSpace(message)}
				}
			}

			if ty.Name.Local == "Route" {
				currentRoute = attributeValue(ty, "Code")
				currentArrivals = []ctdf.RawArrival{}
			} else if ty.Name.Local == "DepartureTime" {
				var departureTime string
				if err := d.DecodeElement(&departureTime, &ty); err != nil {
					return nil, &MalformedResponseError{Reason: "decoding DepartureTime", Err: err}
				}

				if currentArrivals != nil && len(currentArrivals) < limit {
					currentArrivals = append(currentArrivals, ctdf.RawArrival{Minutes: strings.TrimSpace(departureTime)})
				}
			}
		case xml.EndElement:
			if ty.Name.Local == "Route" && currentArrivals != nil {
				predictions.Set(currentRoute, currentArrivals)
				currentRoute = ""
				currentArrivals = nil
			}
		}
	}

	if !seenRoot {
		return nil, &MalformedResponseError{Reason: "empty document"}
	}

	return predictions, nil
}

func attributeValue(element xml.StartElement, name string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}

	return ""
}

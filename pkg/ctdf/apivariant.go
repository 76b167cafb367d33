package ctdf

import (
	"fmt"
	"strings"
)

// APIVariant selects which upstream feed shape a service is queried with.
type APIVariant int

const (
	APIVariantJSON APIVariant = iota
	APIVariantLegacyXML
)

func (v APIVariant) String() string {
	switch v {
	case APIVariantJSON:
		return "json"
	case APIVariantLegacyXML:
		return "legacy"
	default:
		return fmt.Sprintf("APIVariant(%d)", int(v))
	}
}

func ParseAPIVariant(value string) (APIVariant, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return APIVariantJSON, nil
	case "legacy", "xml", "legacy-xml":
		return APIVariantLegacyXML, nil
	}

	return APIVariantJSON, fmt.Errorf("unknown api variant %q", value)
}

func (v *APIVariant) UnmarshalText(text []byte) error {
	parsed, err := ParseAPIVariant(string(text))
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

func (v APIVariant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ArrivalLimit is the most arrivals kept per route. The legacy feed only ever yields two.
func (v APIVariant) ArrivalLimit() int {
	if v == APIVariantLegacyXML {
		return 2
	}

	return 3
}

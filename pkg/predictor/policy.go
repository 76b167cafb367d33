package predictor

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what happens to a stop's previous data when its fetch fails during a refresh.
type FailurePolicy int

const (
	// KeepStale leaves the last successful data for the stop on the board.
	KeepStale FailurePolicy = iota
	// ClearStale removes the stop from the board until it next fetches successfully.
	ClearStale
)

func (f FailurePolicy) String() string {
	switch f {
	case KeepStale:
		return "keep"
	case ClearStale:
		return "clear"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(f))
	}
}

func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "keep":
		return KeepStale, nil
	case "clear":
		return ClearStale, nil
	}

	return KeepStale, fmt.Errorf("unknown fetch failure policy %q", value)
}

func (f *FailurePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseFailurePolicy(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

func (f FailurePolicy) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type State int

const (
	StateEmpty State = iota
	StateHasRaw
	StateHasETAs
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateHasRaw:
		return "HAS_RAW"
	case StateHasETAs:
		return "HAS_ETAS"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

package deposit

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a deposit. Transitions are driven by
// ingested filings; the scoring engine only reads the current state.
type Status int

const (
	StatusUnknown Status = iota
	StatusExploration
	StatusPermitted
	StatusAdvancing
	StatusProducing
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusExploration:
		return "Exploration"
	case StatusPermitted:
		return "Permitted"
	case StatusAdvancing:
		return "Advancing"
	case StatusProducing:
		return "Producing"
	case StatusBlocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// ParseStatus maps a source status string onto the lifecycle. Source filings
// use a looser vocabulary; early-stage labels collapse into Exploration.
// Unrecognized strings return StatusUnknown and false so the caller can emit
// a warning diagnostic.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "exploration", "prospect":
		return StatusExploration, true
	case "permitted":
		return StatusPermitted, true
	case "advancing":
		return StatusAdvancing, true
	case "producing":
		return StatusProducing, true
	case "blocked":
		return StatusBlocked, true
	default:
		return StatusUnknown, false
	}
}

// CanTransition reports whether the lifecycle permits moving from s to next:
// Exploration → Permitted → Advancing → {Producing | Blocked}. Blocked is
// also reachable from any earlier state (a ban can land at any stage).
// Self-transitions are allowed; filings often restate the current state.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	if next == StatusBlocked {
		return s != StatusProducing
	}
	switch s {
	case StatusUnknown:
		return true
	case StatusExploration:
		return next == StatusPermitted
	case StatusPermitted:
		return next == StatusAdvancing
	case StatusAdvancing:
		return next == StatusProducing
	default:
		return false
	}
}

// Value implements driver.Valuer; statuses are stored as text.
func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, _ := ParseStatus(v)
		*s = parsed
		return nil
	case []byte:
		parsed, _ := ParseStatus(string(v))
		*s = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
}

// MarshalText implements encoding.TextMarshaler for JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized input
// parses as StatusUnknown rather than failing; status is informational.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, _ := ParseStatus(string(text))
	*s = parsed
	return nil
}

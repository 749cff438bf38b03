package mode

import "fmt"

// Reason tags a mode-change request with why it was made.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonRCCommand
	ReasonGCSCommand
	ReasonInitialized
	ReasonScenario
	ReasonLoiterAltReachedQLand
	ReasonLoiterAltInVTOL
)

func (r Reason) String() string {
	switch r {
	case ReasonUnknown:
		return "UNKNOWN"
	case ReasonRCCommand:
		return "RC_COMMAND"
	case ReasonGCSCommand:
		return "GCS_COMMAND"
	case ReasonInitialized:
		return "INITIALISED"
	case ReasonScenario:
		return "SCENARIO"
	case ReasonLoiterAltReachedQLand:
		return "LOITER_ALT_REACHED_QLAND"
	case ReasonLoiterAltInVTOL:
		return "LOITER_ALT_IN_VTOL"
	default:
		return fmt.Sprintf("REASON(%d)", int(r))
	}
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Reason) UnmarshalText(b []byte) error {
	for c := ReasonUnknown; c <= ReasonLoiterAltInVTOL; c++ {
		if c.String() == string(b) {
			*r = c
			return nil
		}
	}
	return fmt.Errorf("unknown mode reason %q", b)
}

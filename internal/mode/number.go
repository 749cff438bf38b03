package mode

import (
	"fmt"
	"strings"
)

// Number identifies a flight mode. Values match the plane mode numbers used
// on the wire so they can be logged and scripted directly.
type Number int

const (
	Manual         Number = 0
	Circle         Number = 1
	Stabilize      Number = 2
	FlyByWireA     Number = 5
	Cruise         Number = 7
	Auto           Number = 10
	RTL            Number = 11
	Loiter         Number = 12
	Guided         Number = 15
	QStabilize     Number = 17
	QHover         Number = 18
	QLoiter        Number = 19
	QLand          Number = 20
	QRTL           Number = 21
	QAutotune      Number = 22
	QAcro          Number = 23
	LoiterAltQLand Number = 25
)

var numberNames = map[Number]string{
	Manual:         "MANUAL",
	Circle:         "CIRCLE",
	Stabilize:      "STABILIZE",
	FlyByWireA:     "FBWA",
	Cruise:         "CRUISE",
	Auto:           "AUTO",
	RTL:            "RTL",
	Loiter:         "LOITER",
	Guided:         "GUIDED",
	QStabilize:     "QSTABILIZE",
	QHover:         "QHOVER",
	QLoiter:        "QLOITER",
	QLand:          "QLAND",
	QRTL:           "QRTL",
	QAutotune:      "QAUTOTUNE",
	QAcro:          "QACRO",
	LoiterAltQLand: "LOITERALTQLAND",
}

func (n Number) String() string {
	if s, ok := numberNames[n]; ok {
		return s
	}
	return fmt.Sprintf("MODE(%d)", int(n))
}

// Valid reports whether n is a known mode.
func (n Number) Valid() bool {
	_, ok := numberNames[n]
	return ok
}

// IsVTOL reports whether the mode flies on the lift motors.
func (n Number) IsVTOL() bool {
	switch n {
	case QStabilize, QHover, QLoiter, QLand, QRTL, QAutotune, QAcro:
		return true
	}
	return false
}

// ParseNumber accepts a mode name (case-insensitive) as printed by String.
func ParseNumber(s string) (Number, error) {
	for n, name := range numberNames {
		if strings.EqualFold(name, s) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (n Number) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Number) UnmarshalText(b []byte) error {
	v, err := ParseNumber(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Package geo holds the small position and vector types shared by the
// mode and baro packages.
package geo

import "fmt"

// AltFrame says what an altitude is measured against.
type AltFrame int

const (
	FrameAbsolute AltFrame = iota
	FrameAboveHome
	FrameAboveTerrain
)

func (f AltFrame) String() string {
	switch f {
	case FrameAbsolute:
		return "absolute"
	case FrameAboveHome:
		return "above_home"
	case FrameAboveTerrain:
		return "above_terrain"
	default:
		return fmt.Sprintf("frame(%d)", int(f))
	}
}

// Location is a geodetic position.
//
// Lat/Lng are degrees * 1e7; altitude is centimeters in Frame.
type Location struct {
	LatE7 int32    `json:"lat_e7"`
	LngE7 int32    `json:"lng_e7"`
	AltCm int32    `json:"alt_cm"`
	Frame AltFrame `json:"frame"`
}

func (l Location) LatDeg() float64 { return float64(l.LatE7) / 1e7 }
func (l Location) LngDeg() float64 { return float64(l.LngE7) / 1e7 }

// AltM returns the altitude in meters.
func (l Location) AltM() float64 { return float64(l.AltCm) / 100.0 }

func (l Location) String() string {
	return fmt.Sprintf("lat=%.7f lng=%.7f alt_cm=%d frame=%s", l.LatDeg(), l.LngDeg(), l.AltCm, l.Frame)
}

func (f AltFrame) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *AltFrame) UnmarshalText(b []byte) error {
	for c := FrameAbsolute; c <= FrameAboveTerrain; c++ {
		if c.String() == string(b) {
			*f = c
			return nil
		}
	}
	return fmt.Errorf("unknown altitude frame %q", b)
}

// Package baro corrects barometer readings for the static pressure error
// that airflow over the airframe puts on the sensor port.
package baro

import (
	"fmt"

	"vtolpilot/internal/geo"
)

// SSLAirDensity is the ISA sea-level air density in kg/m^3.
const SSLAirDensity = 1.225

// WindCoeff is the wind compensation calibration for one baro instance.
//
// Each coefficient is the ratio of static pressure error to the dynamic
// pressure of relative wind along one body half-axis. A baro height that
// rises while flying that way wants a negative coefficient.
type WindCoeff struct {
	Enable bool    `yaml:"enable" json:"enable"`
	XP     float64 `yaml:"fwd" json:"fwd"`
	XN     float64 `yaml:"bck" json:"bck"`
	YP     float64 `yaml:"rgt" json:"rgt"`
	YN     float64 `yaml:"lft" json:"lft"`
}

// Validate checks every coefficient lies in [-1, 1].
func (c WindCoeff) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"fwd", c.XP}, {"bck", c.XN}, {"rgt", c.YP}, {"lft", c.YN}} {
		if f.v < -1 || f.v > 1 {
			return fmt.Errorf("%s=%v out of range [-1, 1]", f.name, f.v)
		}
	}
	return nil
}

// AirspeedSource is the attitude/airspeed estimator.
type AirspeedSource interface {
	// AirspeedVectorTrue returns the true airspeed vector in the body frame.
	// ok is false when no estimate is available.
	AirspeedVectorTrue() (v geo.Vector3, ok bool)
	// AirDensityRatio is the ratio of current to sea-level air density.
	AirDensityRatio() float64
}

// WindPressureCorrection returns the pressure error (Pa) for one instance.
//
// Zero means "no correction available" as much as "no error": it is
// returned when compensation is disabled or the estimator has no airspeed.
//
// The sign of each airspeed component picks which coefficient of the pair
// applies. A component of exactly zero takes the positive one; its square
// is zero anyway, but the tie-break is kept explicit.
func WindPressureCorrection(c WindCoeff, src AirspeedSource) float64 {
	if !c.Enable {
		return 0
	}
	if src == nil {
		return 0
	}
	as, ok := src.AirspeedVectorTrue()
	if !ok {
		return 0
	}

	sqx := as.X * as.X
	sqy := as.Y * as.Y

	var perr float64
	if as.X >= 0 {
		perr += c.XP * sqx
	} else {
		perr += c.XN * sqx
	}
	if as.Y >= 0 {
		perr += c.YP * sqy
	} else {
		perr += c.YN * sqy
	}

	return perr * 0.5 * SSLAirDensity * src.AirDensityRatio()
}

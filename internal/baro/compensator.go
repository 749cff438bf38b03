package baro

import "fmt"

// Compensator holds the wind coefficients for every baro instance on the
// vehicle, indexed by instance number.
//
// The table is read-only once built; reconfiguration builds a new one.
type Compensator struct {
	coeffs []WindCoeff
	src    AirspeedSource
}

// NewCompensator validates coeffs and binds them to src.
func NewCompensator(coeffs []WindCoeff, src AirspeedSource) (*Compensator, error) {
	for i, c := range coeffs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("baro: instance %d: %w", i, err)
		}
	}
	cp := make([]WindCoeff, len(coeffs))
	copy(cp, coeffs)
	return &Compensator{coeffs: cp, src: src}, nil
}

// Instances returns the number of configured baro instances.
func (c *Compensator) Instances() int {
	if c == nil {
		return 0
	}
	return len(c.coeffs)
}

// Coeff returns the calibration for instance.
func (c *Compensator) Coeff(instance int) (WindCoeff, bool) {
	if c == nil || instance < 0 || instance >= len(c.coeffs) {
		return WindCoeff{}, false
	}
	return c.coeffs[instance], true
}

// Correction returns the wind pressure correction for instance, or 0 for an
// unknown instance.
func (c *Compensator) Correction(instance int) float64 {
	wc, ok := c.Coeff(instance)
	if !ok {
		return 0
	}
	return WindPressureCorrection(wc, c.src)
}

// Apply removes the wind-induced error from a raw pressure reading (Pa).
func (c *Compensator) Apply(instance int, rawPa float64) float64 {
	return rawPa - c.Correction(instance)
}

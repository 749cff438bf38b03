package baro

import "math"

// SSLPressurePa is the ISA sea-level pressure.
const SSLPressurePa = 101325.0

// PressureAltitudeM converts static pressure to ISA pressure altitude.
func PressureAltitudeM(pressurePa float64) float64 {
	// h(m) = 44330 * (1 - (p/p0)^(1/5.255))
	return 44330.0 * (1.0 - math.Pow(pressurePa/SSLPressurePa, 1.0/5.255))
}

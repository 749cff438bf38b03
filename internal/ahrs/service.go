// Package ahrs holds the latest attitude/airspeed estimate the rest of the
// vehicle reads from. The estimator itself lives elsewhere; this service is
// the published snapshot.
package ahrs

import (
	"fmt"
	"sync"

	"vtolpilot/internal/geo"
)

type Snapshot struct {
	// AirspeedValid is false when there is no usable airspeed estimate
	// (no sensor, no wind estimate yet, or the estimator reset).
	AirspeedValid bool
	// AirspeedBody is true airspeed in the body frame, m/s.
	AirspeedBody geo.Vector3

	// AirDensityRatio is rho/rho0. Zero means no estimate has been
	// published yet; AirDensityRatio reads that as sea level.
	AirDensityRatio float64

	// LastError explains why the airspeed estimate is unavailable, when
	// the estimator said.
	LastError string
}

// Service publishes the estimator snapshot. Safe for concurrent use.
type Service struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *Service {
	return &Service{}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetAirspeed publishes a valid body-frame airspeed estimate.
func (s *Service) SetAirspeed(body geo.Vector3, densityRatio float64) error {
	if densityRatio <= 0 {
		return fmt.Errorf("ahrs: air density ratio %v must be > 0", densityRatio)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.AirspeedValid = true
	s.snap.AirspeedBody = body
	s.snap.AirDensityRatio = densityRatio
	s.snap.LastError = ""
	return nil
}

// SetAirspeedInvalid marks the airspeed estimate unavailable. The density
// ratio is kept; it does not depend on airspeed.
func (s *Service) SetAirspeedInvalid(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.AirspeedValid = false
	s.snap.AirspeedBody = geo.Vector3{}
	s.snap.LastError = ""
	if msg != "" {
		s.snap.LastError = "airspeed: " + msg
	}
}

// AirspeedVectorTrue implements baro.AirspeedSource.
func (s *Service) AirspeedVectorTrue() (geo.Vector3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.snap.AirspeedValid {
		return geo.Vector3{}, false
	}
	return s.snap.AirspeedBody, true
}

// AirDensityRatio implements baro.AirspeedSource. Before the first
// estimate it reports 1.
func (s *Service) AirDensityRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap.AirDensityRatio <= 0 {
		return 1
	}
	return s.snap.AirDensityRatio
}

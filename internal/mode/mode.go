// Package mode implements the loiter-then-land flight mode and the small
// mode vocabulary it needs.
//
// The rest of the vehicle (mode arbitration, navigation, terrain, the
// quadplane landing logic) is reached only through the Vehicle interface,
// which is passed in explicitly rather than read from global state.
package mode

import "vtolpilot/internal/geo"

// Mode is the part of a flight mode other modes may query.
type Mode interface {
	Number() Number
	Name() string
	IsVTOLMode() bool
}

// Static returns a queryable Mode for a mode this package does not
// implement.
func Static(n Number) Mode { return staticMode(n) }

type staticMode Number

func (m staticMode) Number() Number   { return Number(m) }
func (m staticMode) Name() string     { return Number(m).String() }
func (m staticMode) IsVTOLMode() bool { return Number(m).IsVTOL() }

// Vehicle is the flight context a mode runs against.
//
// All calls are synchronous loop-local queries. RequestModeChange is
// fire-and-forget: the arbiter may act on it later or not at all.
type Vehicle interface {
	// InVTOLMode reports whether the vehicle is flying in a VTOL regime
	// (including mid-transition), independent of the selected mode.
	InVTOLMode() bool
	RequestModeChange(target Number, reason Reason)

	BaseLoiterEnter() bool
	BaseLoiterNavigate()

	// LandableAltCm is the altitude at which a VTOL landing approach starts.
	LandableAltCm() int32
	// SetupTerrainTargetAlt converts loc to a terrain-relative target when
	// terrain following is in use.
	SetupTerrainTargetAlt(loc *geo.Location)
	HeightAboveTargetM() float64
	ReachedLoiterTarget() bool
	SetGuidedWaypoint(loc geo.Location)

	NextWaypoint() geo.Location
	SetNextWaypoint(loc geo.Location)
}

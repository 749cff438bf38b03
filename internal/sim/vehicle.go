package sim

import (
	"vtolpilot/internal/geo"
	"vtolpilot/internal/mode"
)

// Transition is one mode change the arbiter carried out.
type Transition struct {
	From   mode.Number `json:"from"`
	To     mode.Number `json:"to"`
	Reason mode.Reason `json:"reason"`
}

type modeRequest struct {
	target mode.Number
	reason mode.Reason
}

// Vehicle is the scripted stand-in for the rest of the autopilot. It
// implements mode.Vehicle from the current scenario State and doubles as
// the request queue for a minimal mode arbiter: requests are queued here
// and the Runner applies them after each controller call.
//
// Not safe for concurrent use; it belongs to the control loop.
type Vehicle struct {
	landableAltCm int32
	terrainFollow bool

	state   State
	current mode.Number

	next   geo.Location
	guided geo.Location
	// guidedSet is true once a guided waypoint has been set.
	guidedSet bool

	pending []modeRequest

	loiterEnters   int
	loiterNavigate int
}

func NewVehicle(initial mode.Number, landableAltCm int32, terrainFollow bool) *Vehicle {
	return &Vehicle{current: initial, landableAltCm: landableAltCm, terrainFollow: terrainFollow}
}

func (v *Vehicle) setState(st State) { v.state = st }

// Mode returns the active mode number.
func (v *Vehicle) Mode() mode.Number { return v.current }

// NextWaypoint implements mode.Vehicle.
func (v *Vehicle) NextWaypoint() geo.Location { return v.next }

// SetNextWaypoint implements mode.Vehicle.
func (v *Vehicle) SetNextWaypoint(loc geo.Location) { v.next = loc }

// GuidedWaypoint returns the last guided waypoint, if any.
func (v *Vehicle) GuidedWaypoint() (geo.Location, bool) { return v.guided, v.guidedSet }

func (v *Vehicle) InVTOLMode() bool { return v.state.InVTOLMode }

func (v *Vehicle) RequestModeChange(target mode.Number, reason mode.Reason) {
	v.pending = append(v.pending, modeRequest{target: target, reason: reason})
}

// BaseLoiterEnter starts a loiter about the current position.
func (v *Vehicle) BaseLoiterEnter() bool {
	v.loiterEnters++
	v.next = v.state.Location
	return true
}

func (v *Vehicle) BaseLoiterNavigate() { v.loiterNavigate++ }

func (v *Vehicle) LandableAltCm() int32 { return v.landableAltCm }

// SetupTerrainTargetAlt marks loc terrain-relative when terrain following
// is enabled. The altitude value is kept as given.
func (v *Vehicle) SetupTerrainTargetAlt(loc *geo.Location) {
	if v.terrainFollow {
		loc.Frame = geo.FrameAboveTerrain
	}
}

func (v *Vehicle) HeightAboveTargetM() float64 { return v.state.HeightAboveTargetM }

func (v *Vehicle) ReachedLoiterTarget() bool { return v.state.ReachedLoiterTarget }

func (v *Vehicle) SetGuidedWaypoint(loc geo.Location) {
	v.guided = loc
	v.guidedSet = true
	v.next = loc
}

// takeRequests pops the queued requests in the order they were made.
func (v *Vehicle) takeRequests() []modeRequest {
	out := v.pending
	v.pending = nil
	return out
}

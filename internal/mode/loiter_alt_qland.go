package mode

import "vtolpilot/internal/geo"

// switchHeightM is the height above the loiter target below which the
// vehicle hands over to QLand once the loiter circle has been captured.
const switchHeightM = 10.0

// ModeLoiterAltQLand loiters down to the landable altitude, then switches to
// QLand. It keeps no state between cycles; everything it looks at comes
// from the Vehicle.
type ModeLoiterAltQLand struct {
	v Vehicle
}

func NewLoiterAltQLand(v Vehicle) *ModeLoiterAltQLand {
	return &ModeLoiterAltQLand{v: v}
}

func (m *ModeLoiterAltQLand) Number() Number   { return LoiterAltQLand }
func (m *ModeLoiterAltQLand) Name() string     { return LoiterAltQLand.String() }
func (m *ModeLoiterAltQLand) IsVTOLMode() bool { return false }

// Enter sets up the mode after prev was active.
//
// Coming from a VTOL mode, or while still flying on the lift motors, there
// is nothing to loiter down to, so QLand is requested straight away.
// Enter always succeeds.
func (m *ModeLoiterAltQLand) Enter(prev Mode) bool {
	if (prev != nil && prev.IsVTOLMode()) || m.v.InVTOLMode() {
		m.v.RequestModeChange(QLand, ReasonLoiterAltInVTOL)
		return true
	}

	m.v.BaseLoiterEnter()

	loc := m.v.NextWaypoint()
	loc.AltCm = m.v.LandableAltCm()
	m.v.SetupTerrainTargetAlt(&loc)
	m.v.SetNextWaypoint(loc)

	m.switchQLand()
	return true
}

// Navigate runs once per control cycle while the mode is active.
func (m *ModeLoiterAltQLand) Navigate() {
	m.switchQLand()
	m.v.BaseLoiterNavigate()
}

// HandleGuidedRequest moves the loiter point to target, keeping the
// landable altitude whatever altitude target carries.
func (m *ModeLoiterAltQLand) HandleGuidedRequest(target geo.Location) bool {
	target.AltCm = m.v.LandableAltCm()
	m.v.SetupTerrainTargetAlt(&target)
	m.v.SetGuidedWaypoint(target)
	return true
}

func (m *ModeLoiterAltQLand) switchQLand() {
	if m.v.HeightAboveTargetM() < switchHeightM && m.v.ReachedLoiterTarget() {
		m.v.RequestModeChange(QLand, ReasonLoiterAltReachedQLand)
	}
}

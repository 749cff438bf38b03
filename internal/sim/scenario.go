package sim

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"vtolpilot/internal/geo"
	"vtolpilot/internal/mode"
)

// ScenarioScript is a deterministic, script-driven flight description.
//
// It supplies everything the mode and baro code would otherwise get from
// the rest of the autopilot: estimator outputs, navigation status and
// pilot/GCS mode commands.
//
// YAML schema (v1):
//
//	version: 1
//	duration: 60s
//	initial_mode: cruise
//	keyframes:
//	  - t: 0s
//	    lat_deg: 45.0
//	    lon_deg: -122.0
//	    alt_m: 120
//	    height_above_target_m: 105
//	    reached_loiter_target: false
//	    in_vtol_mode: false
//	    airspeed_valid: true
//	    airspeed_x: 22
//	    airspeed_y: -1
//	    airspeed_z: 0
//	    air_density_ratio: 0.98
//	    raw_pressure_pa: 99900
//	events:
//	  - t: 5s
//	    type: mode
//	    mode: loiteraltqland
//	  - t: 20s
//	    type: guided
//	    lat_deg: 45.001
//	    lon_deg: -122.0
//	    alt_m: 300
//
// Float fields are interpolated linearly between keyframes; booleans hold
// the value of the earlier keyframe until the next one is reached.
// Keyframes and events must use non-decreasing t values. A keyframe with
// airspeed_valid set must also carry air_density_ratio; there is no
// sea-level default.
type ScenarioScript struct {
	Version     int             `yaml:"version"`
	Duration    time.Duration   `yaml:"duration"`
	InitialMode string          `yaml:"initial_mode"`
	Keyframes   []Keyframe      `yaml:"keyframes"`
	Events      []ScenarioEvent `yaml:"events"`
}

// Keyframe is a time-stamped vehicle state.
type Keyframe struct {
	T      time.Duration `yaml:"t"`
	LatDeg float64       `yaml:"lat_deg"`
	LonDeg float64       `yaml:"lon_deg"`
	AltM   float64       `yaml:"alt_m"`

	HeightAboveTargetM  float64 `yaml:"height_above_target_m"`
	ReachedLoiterTarget bool    `yaml:"reached_loiter_target"`
	InVTOLMode          bool    `yaml:"in_vtol_mode"`

	AirspeedValid   bool    `yaml:"airspeed_valid"`
	AirspeedX       float64 `yaml:"airspeed_x"`
	AirspeedY       float64 `yaml:"airspeed_y"`
	AirspeedZ       float64 `yaml:"airspeed_z"`
	AirDensityRatio float64 `yaml:"air_density_ratio"`
	RawPressurePa   float64 `yaml:"raw_pressure_pa"`
}

const (
	EventMode   = "mode"
	EventGuided = "guided"
)

// ScenarioEvent is a pilot or GCS command fired once at T.
type ScenarioEvent struct {
	T      time.Duration `yaml:"t"`
	Type   string        `yaml:"type"`
	Mode   string        `yaml:"mode"`
	LatDeg float64       `yaml:"lat_deg"`
	LonDeg float64       `yaml:"lon_deg"`
	AltM   float64       `yaml:"alt_m"`
}

// Scenario is the validated, runtime representation.
type Scenario struct {
	script      ScenarioScript
	initialMode mode.Number
	eventModes  []mode.Number
	duration    time.Duration
}

// LoadScenarioScript reads and unmarshals a YAML scenario script from path.
func LoadScenarioScript(path string) (ScenarioScript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ScenarioScript{}, err
	}
	return ParseScenarioScriptYAML(b)
}

// ParseScenarioScriptYAML parses a YAML scenario script.
func ParseScenarioScriptYAML(b []byte) (ScenarioScript, error) {
	var s ScenarioScript
	if err := yaml.Unmarshal(b, &s); err != nil {
		return ScenarioScript{}, err
	}
	return s, nil
}

// NewScenario validates script and returns a runtime Scenario.
func NewScenario(script ScenarioScript) (*Scenario, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	if len(script.Keyframes) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}
	for i := range script.Keyframes {
		kf := script.Keyframes[i]
		if kf.T < 0 {
			return nil, fmt.Errorf("keyframes[%d].t must be >= 0", i)
		}
		if i > 0 && kf.T < script.Keyframes[i-1].T {
			return nil, fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
		if kf.AirDensityRatio < 0 {
			return nil, fmt.Errorf("keyframes[%d].air_density_ratio must be >= 0", i)
		}
		if kf.AirspeedValid && kf.AirDensityRatio == 0 {
			return nil, fmt.Errorf("keyframes[%d].air_density_ratio is required when airspeed_valid is true", i)
		}
	}

	initial := mode.Manual
	if script.InitialMode != "" {
		n, err := mode.ParseNumber(script.InitialMode)
		if err != nil {
			return nil, fmt.Errorf("initial_mode: %w", err)
		}
		initial = n
	}

	eventModes := make([]mode.Number, len(script.Events))
	for i, ev := range script.Events {
		if ev.T < 0 {
			return nil, fmt.Errorf("events[%d].t must be >= 0", i)
		}
		if i > 0 && ev.T < script.Events[i-1].T {
			return nil, fmt.Errorf("events must be sorted by t (index %d)", i)
		}
		switch ev.Type {
		case EventMode:
			n, err := mode.ParseNumber(ev.Mode)
			if err != nil {
				return nil, fmt.Errorf("events[%d].mode: %w", i, err)
			}
			eventModes[i] = n
		case EventGuided:
		default:
			return nil, fmt.Errorf("events[%d].type %q must be %q or %q", i, ev.Type, EventMode, EventGuided)
		}
	}

	dur := script.Duration
	if dur <= 0 {
		dur = script.Keyframes[len(script.Keyframes)-1].T
		if n := len(script.Events); n > 0 && script.Events[n-1].T > dur {
			dur = script.Events[n-1].T
		}
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration is required (or deriveable from keyframes)")
	}

	return &Scenario{script: script, initialMode: initial, eventModes: eventModes, duration: dur}, nil
}

// Duration returns the effective scenario duration.
func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// InitialMode is the mode the vehicle is in at t=0.
func (s *Scenario) InitialMode() mode.Number {
	if s == nil {
		return mode.Manual
	}
	return s.initialMode
}

// State is the sampled vehicle state at a time.
type State struct {
	Location geo.Location

	HeightAboveTargetM  float64
	ReachedLoiterTarget bool
	InVTOLMode          bool

	AirspeedValid   bool
	AirspeedBody    geo.Vector3
	AirDensityRatio float64
	RawPressurePa   float64
}

// StateAt computes the state at elapsed.
//
// If loop is true, elapsed wraps around Duration(). Otherwise elapsed is
// clamped to [0, Duration()].
func (s *Scenario) StateAt(elapsed time.Duration, loop bool) State {
	if s == nil {
		return State{}
	}
	elapsed = s.wrap(elapsed, loop)

	k0, k1, alpha := selectSegment(s.script.Keyframes, elapsed)
	return State{
		Location: locationFromDeg(
			lerp(k0.LatDeg, k1.LatDeg, alpha),
			lerp(k0.LonDeg, k1.LonDeg, alpha),
			lerp(k0.AltM, k1.AltM, alpha),
		),
		HeightAboveTargetM:  lerp(k0.HeightAboveTargetM, k1.HeightAboveTargetM, alpha),
		ReachedLoiterTarget: k0.ReachedLoiterTarget,
		InVTOLMode:          k0.InVTOLMode,
		AirspeedValid:       k0.AirspeedValid,
		AirspeedBody: geo.Vector3{
			X: lerp(k0.AirspeedX, k1.AirspeedX, alpha),
			Y: lerp(k0.AirspeedY, k1.AirspeedY, alpha),
			Z: lerp(k0.AirspeedZ, k1.AirspeedZ, alpha),
		},
		AirDensityRatio: lerp(k0.AirDensityRatio, k1.AirDensityRatio, alpha),
		RawPressurePa:   lerp(k0.RawPressurePa, k1.RawPressurePa, alpha),
	}
}

// EventsBetween returns the indices of events with from < t <= to. The
// event at t=0 is reported for from < 0.
func (s *Scenario) EventsBetween(from, to time.Duration) []int {
	if s == nil {
		return nil
	}
	var out []int
	for i, ev := range s.script.Events {
		if ev.T > from && ev.T <= to {
			out = append(out, i)
		}
	}
	return out
}

// Event returns event i together with its parsed mode (for mode events).
func (s *Scenario) Event(i int) (ScenarioEvent, mode.Number) {
	return s.script.Events[i], s.eventModes[i]
}

func (s *Scenario) wrap(elapsed time.Duration, loop bool) time.Duration {
	if elapsed < 0 {
		elapsed = 0
	}
	if s.duration > 0 {
		if loop {
			elapsed = elapsed % s.duration
		} else if elapsed > s.duration {
			elapsed = s.duration
		}
	}
	return elapsed
}

func selectSegment(kfs []Keyframe, t time.Duration) (Keyframe, Keyframe, float64) {
	if len(kfs) == 1 {
		return kfs[0], kfs[0], 0
	}
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > t })
	if idx <= 0 {
		return kfs[0], kfs[0], 0
	}
	if idx >= len(kfs) {
		last := kfs[len(kfs)-1]
		return last, last, 0
	}
	k0 := kfs[idx-1]
	k1 := kfs[idx]
	dt := k1.T - k0.T
	if dt <= 0 {
		return k1, k1, 0
	}
	alpha := float64(t-k0.T) / float64(dt)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return k0, k1, alpha
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func locationFromDeg(latDeg, lonDeg, altM float64) geo.Location {
	return geo.Location{
		LatE7: int32(math.Round(latDeg * 1e7)),
		LngE7: int32(math.Round(lonDeg * 1e7)),
		AltCm: int32(math.Round(altM * 100)),
		Frame: geo.FrameAbsolute,
	}
}

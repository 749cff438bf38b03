package sim

import (
	"context"
	"fmt"
	"log"
	"time"

	"vtolpilot/internal/ahrs"
	"vtolpilot/internal/baro"
	"vtolpilot/internal/geo"
	"vtolpilot/internal/mode"
)

// A mode entry may itself request a change (LoiterAltQLand entered from a
// VTOL mode does). Bound the chain so a misbehaving mode cannot spin.
const maxArbitrationPasses = 4

var (
	_ mode.Vehicle        = (*Vehicle)(nil)
	_ baro.AirspeedSource = (*ahrs.Service)(nil)
)

// BaroReading is one baro instance's output for a tick.
type BaroReading struct {
	Instance     int     `json:"instance"`
	CorrectionPa float64 `json:"correction_pa"`
	PressurePa   float64 `json:"pressure_pa"`
	AltitudeM    float64 `json:"altitude_m"`
}

// GuidedResult records a scripted guided request and whether the active
// mode took it.
type GuidedResult struct {
	Target   geo.Location `json:"target"`
	Accepted bool         `json:"accepted"`
}

// Tick is the observable result of one control cycle.
type Tick struct {
	Seq                uint64         `json:"seq"`
	Elapsed            time.Duration  `json:"elapsed"`
	Mode               mode.Number    `json:"mode"`
	Transitions        []Transition   `json:"transitions,omitempty"`
	Guided             []GuidedResult `json:"guided,omitempty"`
	HeightAboveTargetM float64        `json:"height_above_target_m"`
	LoiterTarget       geo.Location   `json:"loiter_target"`
	AirspeedValid      bool           `json:"airspeed_valid"`
	AirspeedMS         float64        `json:"airspeed_ms,omitempty"`
	AirspeedError      string         `json:"airspeed_error,omitempty"`
	Baro               []BaroReading  `json:"baro"`
}

type RunnerConfig struct {
	Scenario      *Scenario
	RateHz        int
	Loop          bool
	LandableAltCm int32
	TerrainFollow bool
	WindCoeffs    []baro.WindCoeff
}

// Runner steps a scenario through the mode controller and baro
// compensator at a fixed rate.
type Runner struct {
	scn    *Scenario
	period time.Duration
	loop   bool

	veh  *Vehicle
	est  *ahrs.Service
	comp *baro.Compensator
	lq   *mode.ModeLoiterAltQLand

	maxPasses int
	seq       uint64
	lastScnT  time.Duration
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Scenario == nil {
		return nil, fmt.Errorf("sim: scenario is nil")
	}
	if cfg.RateHz <= 0 {
		return nil, fmt.Errorf("sim: rate must be > 0")
	}
	est := ahrs.New()
	comp, err := baro.NewCompensator(cfg.WindCoeffs, est)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	initial := cfg.Scenario.InitialMode()
	boot := initial
	if initial == mode.LoiterAltQLand {
		// Its loiter setup needs the first tick's position, so the
		// vehicle boots in Manual and enters it through the arbiter.
		boot = mode.Manual
	}
	veh := NewVehicle(boot, cfg.LandableAltCm, cfg.TerrainFollow)
	if boot != initial {
		veh.RequestModeChange(initial, mode.ReasonInitialized)
	}
	return &Runner{
		scn:       cfg.Scenario,
		period:    time.Second / time.Duration(cfg.RateHz),
		loop:      cfg.Loop,
		veh:       veh,
		est:       est,
		comp:      comp,
		lq:        mode.NewLoiterAltQLand(veh),
		maxPasses: maxArbitrationPasses,
		lastScnT:  -1,
	}, nil
}

// Period is the control-loop period.
func (r *Runner) Period() time.Duration { return r.period }

// Vehicle exposes the scripted vehicle, mainly for inspection in tests.
func (r *Runner) Vehicle() *Vehicle { return r.veh }

// Done reports whether a non-looping scenario has run to its end.
func (r *Runner) Done() bool {
	if r.loop {
		return false
	}
	return time.Duration(r.seq)*r.period > r.scn.Duration()
}

// Step runs one control cycle.
func (r *Runner) Step() Tick {
	elapsed := time.Duration(r.seq) * r.period
	tick := Tick{Seq: r.seq, Elapsed: elapsed}
	r.seq++

	st := r.scn.StateAt(elapsed, r.loop)
	r.veh.setState(st)
	if st.AirspeedValid {
		if err := r.est.SetAirspeed(st.AirspeedBody, st.AirDensityRatio); err != nil {
			r.est.SetAirspeedInvalid(err.Error())
		}
	} else {
		r.est.SetAirspeedInvalid("")
	}

	// Events are applied in script order; a mode event takes effect before
	// the next event is looked at.
	entered := r.settle(&tick)
	for _, i := range r.dueEvents(r.scn.wrap(elapsed, r.loop)) {
		ev, n := r.scn.Event(i)
		switch ev.Type {
		case EventMode:
			r.veh.RequestModeChange(n, mode.ReasonScenario)
			entered = r.settle(&tick) || entered
		case EventGuided:
			tick.Guided = append(tick.Guided, r.handleGuided(locationFromDeg(ev.LatDeg, ev.LonDeg, ev.AltM)))
		}
	}

	if r.veh.Mode() == mode.LoiterAltQLand && !entered {
		r.lq.Navigate()
		r.settle(&tick)
	}

	tick.Mode = r.veh.Mode()
	tick.HeightAboveTargetM = st.HeightAboveTargetM
	tick.LoiterTarget = r.veh.NextWaypoint()

	snap := r.est.Snapshot()
	tick.AirspeedValid = snap.AirspeedValid
	if snap.AirspeedValid {
		tick.AirspeedMS = snap.AirspeedBody.Length()
	} else {
		tick.AirspeedError = snap.LastError
	}

	tick.Baro = make([]BaroReading, r.comp.Instances())
	for i := range tick.Baro {
		corr := r.comp.Correction(i)
		p := r.comp.Apply(i, st.RawPressurePa)
		tick.Baro[i] = BaroReading{Instance: i, CorrectionPa: corr, PressurePa: p}
		if p > 0 {
			tick.Baro[i].AltitudeM = baro.PressureAltitudeM(p)
		}
	}
	return tick
}

// Run steps until the scenario ends (or, when looping, until ctx is done).
// With realtime set, steps are paced by a ticker at the loop period.
// emit is called for every tick; an error from emit stops the run.
func (r *Runner) Run(ctx context.Context, realtime bool, emit func(Tick) error) error {
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(r.period)
		defer ticker.Stop()
	}
	for {
		if ctx.Err() != nil || r.Done() {
			return nil
		}
		t := r.Step()
		if emit != nil {
			if err := emit(t); err != nil {
				return err
			}
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}

// dueEvents returns events whose time passed since the previous step,
// including those skipped over by a loop wraparound.
func (r *Runner) dueEvents(scnT time.Duration) []int {
	prev := r.lastScnT
	r.lastScnT = scnT
	if scnT >= prev {
		return r.scn.EventsBetween(prev, scnT)
	}
	out := r.scn.EventsBetween(prev, r.scn.Duration())
	return append(out, r.scn.EventsBetween(-1, scnT)...)
}

func (r *Runner) handleGuided(target geo.Location) GuidedResult {
	switch r.veh.Mode() {
	case mode.LoiterAltQLand:
		r.lq.HandleGuidedRequest(target)
		loc, _ := r.veh.GuidedWaypoint()
		return GuidedResult{Target: loc, Accepted: true}
	case mode.Guided:
		r.veh.SetGuidedWaypoint(target)
		return GuidedResult{Target: target, Accepted: true}
	default:
		return GuidedResult{Target: target, Accepted: false}
	}
}

// settle arbitrates pending requests into tick and reports whether
// LoiterAltQLand was entered.
func (r *Runner) settle(tick *Tick) bool {
	transitions, entered := r.arbitrate()
	tick.Transitions = append(tick.Transitions, transitions...)
	return entered
}

// arbitrate applies queued mode requests. A request for the active mode is
// a no-op, which is what makes repeated switch requests harmless.
// Requests still queued after maxPasses are dropped.
func (r *Runner) arbitrate() (out []Transition, enteredLoiterAlt bool) {
	for pass := 0; pass < r.maxPasses; pass++ {
		reqs := r.veh.takeRequests()
		if len(reqs) == 0 {
			return out, enteredLoiterAlt
		}
		for _, req := range reqs {
			if !req.target.Valid() {
				log.Printf("sim: dropped mode request target=%v reason=%v: unknown mode", req.target, req.reason)
				continue
			}
			if req.target == r.veh.current {
				continue
			}
			prev := r.modeFor(r.veh.current)
			r.veh.current = req.target
			out = append(out, Transition{From: prev.Number(), To: req.target, Reason: req.reason})
			if req.target == mode.LoiterAltQLand {
				r.lq.Enter(prev)
				enteredLoiterAlt = true
			}
		}
	}
	if left := r.veh.takeRequests(); len(left) > 0 {
		log.Printf("sim: dropped %d mode requests after %d arbitration passes mode=%v", len(left), r.maxPasses, r.veh.current)
	}
	return out, enteredLoiterAlt
}

func (r *Runner) modeFor(n mode.Number) mode.Mode {
	if n == mode.LoiterAltQLand {
		return r.lq
	}
	return mode.Static(n)
}

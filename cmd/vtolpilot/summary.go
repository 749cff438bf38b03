package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"vtolpilot/internal/mode"
	"vtolpilot/internal/sim"
)

type runSummary struct {
	period time.Duration

	Ticks       int
	FinalMode   mode.Number
	Transitions []sim.Transition
	TimeInMode  map[mode.Number]time.Duration
	// MaxCorrectionPa is the largest absolute wind correction per baro
	// instance over the run.
	MaxCorrectionPa []float64
	GuidedAccepted  int
	GuidedRejected  int
}

func newRunSummary(period time.Duration) runSummary {
	return runSummary{period: period, TimeInMode: map[mode.Number]time.Duration{}}
}

func (s *runSummary) add(t sim.Tick) {
	s.Ticks++
	s.FinalMode = t.Mode
	s.TimeInMode[t.Mode] += s.period
	s.Transitions = append(s.Transitions, t.Transitions...)
	for _, g := range t.Guided {
		if g.Accepted {
			s.GuidedAccepted++
		} else {
			s.GuidedRejected++
		}
	}
	for len(s.MaxCorrectionPa) < len(t.Baro) {
		s.MaxCorrectionPa = append(s.MaxCorrectionPa, 0)
	}
	for i, b := range t.Baro {
		if c := math.Abs(b.CorrectionPa); c > s.MaxCorrectionPa[i] {
			s.MaxCorrectionPa[i] = c
		}
	}
}

func (s runSummary) write(w io.Writer) {
	fmt.Fprintf(w, "ticks: %d\n", s.Ticks)
	fmt.Fprintf(w, "final_mode: %s\n", s.FinalMode)
	fmt.Fprintf(w, "transitions:\n")
	for _, tr := range s.Transitions {
		fmt.Fprintf(w, "  %s -> %s (%s)\n", tr.From, tr.To, tr.Reason)
	}

	keys := make([]int, 0, len(s.TimeInMode))
	for k := range s.TimeInMode {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	fmt.Fprintf(w, "time_in_mode:\n")
	for _, k := range keys {
		n := mode.Number(k)
		fmt.Fprintf(w, "  %s: %s\n", n, s.TimeInMode[n])
	}

	fmt.Fprintf(w, "guided: accepted=%d rejected=%d\n", s.GuidedAccepted, s.GuidedRejected)
	fmt.Fprintf(w, "baro_max_correction_pa:\n")
	for i, c := range s.MaxCorrectionPa {
		fmt.Fprintf(w, "  %d: %.3f\n", i, c)
	}
}

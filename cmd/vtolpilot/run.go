package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"vtolpilot/internal/config"
	"vtolpilot/internal/sim"
	"vtolpilot/internal/ticklog"
	"vtolpilot/internal/udp"
)

// resolveRelative makes a relative path from the config file relative to
// the config file's directory.
func resolveRelative(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

func runScenario(ctx context.Context, cfg config.Config, configPath string, logTransitions bool) (runSummary, error) {
	path := resolveRelative(configPath, cfg.Scenario.Path)
	script, err := sim.LoadScenarioScript(path)
	if err != nil {
		return runSummary{}, fmt.Errorf("scenario load: %w", err)
	}
	scn, err := sim.NewScenario(script)
	if err != nil {
		return runSummary{}, fmt.Errorf("scenario %s: %w", path, err)
	}

	runner, err := sim.NewRunner(sim.RunnerConfig{
		Scenario:      scn,
		RateHz:        cfg.Loop.RateHz,
		Loop:          cfg.Scenario.Loop,
		LandableAltCm: cfg.Vehicle.LandableAltCm,
		TerrainFollow: cfg.Vehicle.TerrainFollow,
		WindCoeffs:    cfg.WindCoeffs(),
	})
	if err != nil {
		return runSummary{}, err
	}

	var telem *udp.Broadcaster
	if cfg.Telemetry.Enable {
		telem, err = udp.NewBroadcaster(cfg.Telemetry.Dest)
		if err != nil {
			return runSummary{}, fmt.Errorf("telemetry init failed: %w", err)
		}
		defer telem.Close()
		log.Printf("telemetry dest=%s", telem.Dest())
	}

	var rec *ticklog.Writer
	if cfg.Telemetry.Record.Enable {
		recPath := resolveRelative(configPath, cfg.Telemetry.Record.Path)
		rec, err = ticklog.CreateWriter(recPath, runner.Period())
		if err != nil {
			return runSummary{}, fmt.Errorf("record init failed: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("record close failed: %v", err)
			}
		}()
		log.Printf("recording ticks path=%s", recPath)
	}

	log.Printf("scenario start path=%s duration=%s initial_mode=%s", path, scn.Duration(), scn.InitialMode())

	sum := newRunSummary(runner.Period())
	telemFailures := 0
	err = runner.Run(ctx, cfg.Loop.Realtime, func(t sim.Tick) error {
		sum.add(t)
		if logTransitions {
			for _, tr := range t.Transitions {
				log.Printf("mode %s -> %s reason=%s t=%s", tr.From, tr.To, tr.Reason, t.Elapsed)
			}
			for _, g := range t.Guided {
				log.Printf("guided request accepted=%t target=%s t=%s", g.Accepted, g.Target, t.Elapsed)
			}
		}
		if rec != nil {
			p, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("record marshal: %w", err)
			}
			if err := rec.WriteTick(ticklog.Entry{At: t.Elapsed, Seq: t.Seq, Mode: t.Mode, Payload: p}); err != nil {
				return fmt.Errorf("record write: %w", err)
			}
		}
		if telem != nil {
			// Best-effort: a missing ground station must not stop the loop.
			if err := telem.SendJSON(t); err != nil {
				telemFailures++
				if telemFailures == 1 {
					log.Printf("telemetry send failed: %v", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return sum, err
	}
	if telemFailures > 0 {
		log.Printf("telemetry send failures=%d", telemFailures)
	}
	log.Printf("scenario done ticks=%d final_mode=%s", sum.Ticks, sum.FinalMode)
	return sum, nil
}

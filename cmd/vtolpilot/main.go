package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"vtolpilot/internal/config"
)

func main() {
	var configPath string
	var summaryOnly bool
	var logSummaryPath string
	var replayPath string
	var replayDest string
	var replaySpeed float64
	var replayLoop bool
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.BoolVar(&summaryOnly, "summary", false, "Only print the end-of-run summary, not per-transition logs")
	flag.StringVar(&logSummaryPath, "log-summary", "", "Print a summary of a recorded tick log and exit")
	flag.StringVar(&replayPath, "replay", "", "Send a recorded tick log to -replay-dest and exit")
	flag.StringVar(&replayDest, "replay-dest", "127.0.0.1:14550", "UDP destination for -replay")
	flag.Float64Var(&replaySpeed, "replay-speed", 1, "Replay speed multiplier")
	flag.BoolVar(&replayLoop, "replay-loop", false, "Loop the replay until interrupted")
	flag.Parse()

	if logSummaryPath != "" {
		if err := printLogSummary(os.Stdout, logSummaryPath); err != nil {
			log.Fatalf("log summary failed: %v", err)
		}
		return
	}
	if replayPath != "" {
		if err := replayTickLog(replayPath, replayDest, replaySpeed, replayLoop, nil); err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logCloser := setupLogging(cfg.Log, configPath)
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer cancel()

	log.Printf("vtolpilot starting")
	log.Printf("scenario=%s rate_hz=%d realtime=%t", cfg.Scenario.Path, cfg.Loop.RateHz, cfg.Loop.Realtime)

	sum, err := runScenario(ctx, cfg, configPath, !summaryOnly)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	sum.write(os.Stdout)
	log.Printf("vtolpilot stopping")
}

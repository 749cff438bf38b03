package main

import (
	"fmt"
	"log"

	"vtolpilot/internal/ticklog"
	"vtolpilot/internal/udp"
)

// replayTickLog re-sends a recorded run to a telemetry destination with
// its original timing.
func replayTickLog(path, dest string, speed float64, loop bool, sleeper ticklog.Sleeper) error {
	sessions, err := ticklog.ReadFile(path)
	if err != nil {
		return err
	}
	b, err := udp.NewBroadcaster(dest)
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}
	defer b.Close()

	log.Printf("replay path=%s dest=%s speed=%.2f loop=%t", path, dest, speed, loop)
	sent := 0
	err = ticklog.Play(sessions, speed, loop, sleeper, func(e ticklog.Entry) error {
		sent++
		return b.Send(append(append([]byte(nil), e.Payload...), '\n'))
	})
	log.Printf("replay done sent=%d", sent)
	return err
}

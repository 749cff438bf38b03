package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vtolpilot/internal/sim"
	"vtolpilot/internal/ticklog"
)

// summarizeTickLog rebuilds a run summary from recorded sessions. Each
// session is counted at the loop period in its START header; logs without
// one fall back to the spacing of their first two ticks.
func summarizeTickLog(sessions []ticklog.Session) (runSummary, error) {
	s := newRunSummary(0)
	for si, sess := range sessions {
		s.period = sess.Period
		if s.period == 0 && len(sess.Entries) >= 2 {
			s.period = sess.Entries[1].At - sess.Entries[0].At
		}
		for _, e := range sess.Entries {
			var t sim.Tick
			if err := json.Unmarshal(e.Payload, &t); err != nil {
				return runSummary{}, fmt.Errorf("session %d seq %d: %w", si, e.Seq, err)
			}
			if t.Seq != e.Seq || t.Mode != e.Mode {
				return runSummary{}, fmt.Errorf("session %d seq %d: payload says seq=%d mode=%s", si, e.Seq, t.Seq, t.Mode)
			}
			s.add(t)
		}
	}
	return s, nil
}

func printLogSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	sessions, err := ticklog.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := summarizeTickLog(sessions)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "path: %s\n", path)
	s.write(w)
	return nil
}

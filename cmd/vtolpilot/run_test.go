package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vtolpilot/internal/config"
	"vtolpilot/internal/mode"
)

const testScenario = `
initial_mode: cruise
keyframes:
  - t: 0s
    height_above_target_m: 60
    airspeed_valid: true
    airspeed_x: 20
    air_density_ratio: 1
    raw_pressure_pa: 100000
  - t: 2s
    height_above_target_m: 5
    reached_loiter_target: true
    airspeed_valid: true
    airspeed_x: 20
    air_density_ratio: 1
    raw_pressure_pa: 100000
events:
  - t: 500ms
    type: mode
    mode: loiteraltqland
`

func writeFixtures(t *testing.T, cfgBody string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "land.yaml"), []byte(testScenario), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	cfgPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return cfgPath
}

func TestResolveRelative(t *testing.T) {
	if got := resolveRelative("/etc/vtol/cfg.yaml", "land.yaml"); got != "/etc/vtol/land.yaml" {
		t.Fatalf("got=%q", got)
	}
	if got := resolveRelative("/etc/vtol/cfg.yaml", "/tmp/land.yaml"); got != "/tmp/land.yaml" {
		t.Fatalf("got=%q", got)
	}
}

func TestRunScenario_EndsInQLand(t *testing.T) {
	cfgPath := writeFixtures(t, `
loop:
  rate_hz: 10
scenario:
  path: land.yaml
baro:
  instances:
    - wind: {enable: true, fwd: -0.1}
`)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	sum, err := runScenario(context.Background(), cfg, cfgPath, false)
	if err != nil {
		t.Fatalf("runScenario() error: %v", err)
	}
	if sum.FinalMode != mode.QLand {
		t.Fatalf("final mode=%v want QLAND", sum.FinalMode)
	}
	if len(sum.Transitions) != 2 {
		t.Fatalf("transitions=%+v want 2", sum.Transitions)
	}
	if sum.Transitions[1].Reason != mode.ReasonLoiterAltReachedQLand {
		t.Fatalf("reason=%v want LOITER_ALT_REACHED_QLAND", sum.Transitions[1].Reason)
	}
	if len(sum.MaxCorrectionPa) != 1 || sum.MaxCorrectionPa[0] == 0 {
		t.Fatalf("max correction=%v want non-zero", sum.MaxCorrectionPa)
	}

	var out bytes.Buffer
	sum.write(&out)
	if !strings.Contains(out.String(), "final_mode: QLAND") {
		t.Fatalf("summary missing final mode:\n%s", out.String())
	}
}

func TestRunScenario_MissingScenario(t *testing.T) {
	cfg := config.Config{Scenario: config.ScenarioConfig{Path: "nope.yaml"}, Loop: config.LoopConfig{RateHz: 10}}
	_, err := runScenario(context.Background(), cfg, filepath.Join(t.TempDir(), "cfg.yaml"), false)
	if err == nil || !strings.HasPrefix(err.Error(), "scenario load:") {
		t.Fatalf("err=%v want scenario load error", err)
	}
}

func TestRunScenario_SendsTelemetry(t *testing.T) {
	pc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP() error: %v", err)
	}
	defer pc.Close()

	cfgPath := writeFixtures(t, "loop:\n  rate_hz: 10\nscenario:\n  path: land.yaml\ntelemetry:\n  enable: true\n  dest: '"+pc.LocalAddr().String()+"'\n")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := runScenario(context.Background(), cfg, cfgPath, true); err != nil {
		t.Fatalf("runScenario() error: %v", err)
	}

	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64*1024)
	n, _, err := pc.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP() error: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.Fatalf("Unmarshal() error: %v (payload %q)", err, buf[:n])
	}
	if msg["mode"] != "CRUISE" {
		t.Fatalf("first datagram mode=%v want CRUISE", msg["mode"])
	}
	if msg["seq"] != float64(0) {
		t.Fatalf("first datagram seq=%v want 0", msg["seq"])
	}
}

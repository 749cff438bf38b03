package ticklog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"vtolpilot/internal/mode"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(d time.Duration) {
	fs.slept = append(fs.slept, d)
}

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START period_ns=20000000
0,0,CRUISE, {"seq":0,"mode":"CRUISE"}
20000000,1,loiteraltqland,{"seq":1,"baro":[1,2]}
START
5,7,QLAND,{}
`)

	sessions, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions=%d want 2", len(sessions))
	}
	first := sessions[0]
	if first.Period != 20*time.Millisecond || len(first.Entries) != 2 {
		t.Fatalf("first session=%+v", first)
	}
	if e := first.Entries[0]; e.At != 0 || e.Seq != 0 || e.Mode != mode.Cruise || string(e.Payload) != `{"seq":0,"mode":"CRUISE"}` {
		t.Fatalf("entry 0=%+v", e)
	}
	if e := first.Entries[1]; e.At != 20*time.Millisecond || e.Mode != mode.LoiterAltQLand || string(e.Payload) != `{"seq":1,"baro":[1,2]}` {
		t.Fatalf("entry 1=%+v", e)
	}
	if second := sessions[1]; second.Period != 0 || len(second.Entries) != 1 || second.Entries[0].Mode != mode.QLand {
		t.Fatalf("second session=%+v", second)
	}
}

func TestReaderReadAll_Headerless(t *testing.T) {
	sessions, err := NewReader(strings.NewReader("0,3,FBWA,{}\n")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Period != 0 || sessions[0].Entries[0].Seq != 3 {
		t.Fatalf("sessions=%+v", sessions)
	}
}

func TestReaderReadAll_InvalidLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"MissingFields", "10,{}\n", "line 1: invalid tick line (want t_ns,seq,mode,json): \"10,{}\""},
		{"EmptyPayload", "10,1,QLAND,\n", "line 1: invalid tick line (empty field): \"10,1,QLAND,\""},
		{"NegativeTime", "-5,1,QLAND,{}\n", "line 1: invalid tick timestamp (negative): -5"},
		{"UnknownMode", "0,1,HOVER,{}\n", "line 1: invalid tick mode: unknown mode \"HOVER\""},
		{"BadPeriod", "START period_ns=abc\n", "line 1: invalid START period_ns \"abc\""},
		{"SeqNotIncreasing", "START\n0,4,QLAND,{}\n1,4,QLAND,{}\n", "line 3: seq 4 after 4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.in)).ReadAll()
			if err == nil || err.Error() != tc.want {
				t.Fatalf("err=%v want %q", err, tc.want)
			}
		})
	}
}

func TestReaderReadAll_SeqRestartsPerSession(t *testing.T) {
	in := "START\n0,5,QLAND,{}\nSTART\n0,0,CRUISE,{}\n"
	if _, err := NewReader(strings.NewReader(in)).ReadAll(); err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	for _, name := range []string{"ticks.log", "ticks.log.zst"} {
		t.Run(name, func(t *testing.T) {
			testWriterRoundTrip(t, filepath.Join(t.TempDir(), name))
		})
	}
}

func testWriterRoundTrip(t *testing.T, path string) {
	w, err := CreateWriter(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	in := []Entry{
		{At: 0, Seq: 0, Mode: mode.Cruise, Payload: []byte(`{"seq":0}`)},
		{At: 20 * time.Millisecond, Seq: 1, Mode: mode.LoiterAltQLand, Payload: []byte(`{"seq":1,"baro":[1,2]}`)},
	}
	for _, e := range in {
		if err := w.WriteTick(e); err != nil {
			_ = w.Close()
			t.Fatalf("WriteTick() error: %v", err)
		}
	}
	if err := w.WriteTick(Entry{Seq: 2, Mode: mode.QLand, Payload: []byte("a\nb")}); err == nil {
		t.Fatalf("expected multi-line payload to be rejected")
	}
	if err := w.WriteTick(Entry{Seq: 1, Mode: mode.QLand, Payload: []byte("{}")}); err == nil {
		t.Fatalf("expected repeated seq to be rejected")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteTick(Entry{Seq: 9, Payload: []byte("{}")}); err == nil {
		t.Fatalf("expected write after close to fail")
	}

	sessions, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Period != 20*time.Millisecond {
		t.Fatalf("sessions=%+v", sessions)
	}
	if !reflect.DeepEqual(sessions[0].Entries, in) {
		t.Fatalf("entries mismatch\n got: %+v\nwant: %+v", sessions[0].Entries, in)
	}
}

func TestPlay_RespectsTimingAndSessions(t *testing.T) {
	var got []uint64
	fs := &fakeSleeper{}

	sessions := []Session{
		{Entries: []Entry{{At: 0, Seq: 0}, {At: 100 * time.Millisecond, Seq: 1}}},
		{Entries: []Entry{{At: 50 * time.Millisecond, Seq: 0}}},
	}

	err := Play(sessions, 2.0, false, fs, func(e Entry) error {
		got = append(got, e.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(got, []uint64{0, 1, 0}) {
		t.Fatalf("seqs=%v", got)
	}
	// 100ms at 2x; no wait across the session boundary.
	if !reflect.DeepEqual(fs.slept, []time.Duration{50 * time.Millisecond}) {
		t.Fatalf("slept=%v want [50ms]", fs.slept)
	}
}

func TestPlay_Errors(t *testing.T) {
	sessions := []Session{{Entries: []Entry{{Payload: []byte("a")}}}}
	cb := func(Entry) error { return nil }
	if err := Play(sessions, 0, false, nil, cb); err == nil {
		t.Fatalf("expected speed error")
	}
	if err := Play(sessions, 1, false, nil, nil); err == nil {
		t.Fatalf("expected nil callback error")
	}
	if err := Play([]Session{{Period: time.Second}}, 1, false, nil, cb); err == nil {
		t.Fatalf("expected no ticks error")
	}
	boom := errors.New("boom")
	err := Play(sessions, 1, true, &fakeSleeper{}, func(Entry) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

func TestReadFile_ZstdIsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.zst")
	w, err := CreateWriter(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	payload := []byte(`{"seq":0,"mode":"LOITERALTQLAND","baro":[]}`)
	for i := 0; i < 200; i++ {
		e := Entry{At: time.Duration(i) * 20 * time.Millisecond, Seq: uint64(i), Mode: mode.LoiterAltQLand, Payload: payload}
		if err := w.WriteTick(e); err != nil {
			t.Fatalf("WriteTick() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if bytes.Contains(raw, []byte("START")) {
		t.Fatalf("expected compressed output")
	}
	sessions, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(sessions) != 1 || len(sessions[0].Entries) != 200 {
		t.Fatalf("entries=%d want 200", len(sessions[0].Entries))
	}
}

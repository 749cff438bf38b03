// Package ticklog records control-loop ticks to a line-oriented file and
// plays them back with their original timing.
package ticklog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"vtolpilot/internal/mode"
)

// Log format: line-oriented text.
//
//	START period_ns=20000000
//	0,0,CRUISE,{"seq":0,...}
//	20000000,1,CRUISE,{"seq":1,...}
//
// A START line opens a session; period_ns is the control-loop period and
// may be missing. Data lines are <t_ns>,<seq>,<mode>,<json> with t_ns the
// loop time since START. Only the first three commas split, so the JSON
// may contain commas. Seq must increase within a session. Blank lines and
// lines starting with '#' are ignored.
//
// Files named *.zst are zstd-compressed as a whole.

// Entry is one recorded tick.
type Entry struct {
	At      time.Duration
	Seq     uint64
	Mode    mode.Number
	Payload []byte
}

// Session is one run: the ticks between a START line and the next.
type Session struct {
	// Period is zero when the header did not record it.
	Period  time.Duration
	Entries []Entry
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadAll parses every session. Data lines before the first START form a
// session of their own.
func (rr *Reader) ReadAll() ([]Session, error) {
	s := bufio.NewScanner(rr.r)
	// Ticks with several baro instances can get long.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []Session
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" || strings.HasPrefix(line, "START ") {
			sess, err := parseStart(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			out = append(out, sess)
			continue
		}

		e, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(out) == 0 {
			out = append(out, Session{})
		}
		cur := &out[len(out)-1]
		if n := len(cur.Entries); n > 0 && e.Seq <= cur.Entries[n-1].Seq {
			return nil, fmt.Errorf("line %d: seq %d after %d", lineNo, e.Seq, cur.Entries[n-1].Seq)
		}
		cur.Entries = append(cur.Entries, e)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseStart(line string) (Session, error) {
	var sess Session
	for _, f := range strings.Fields(line)[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return Session{}, fmt.Errorf("invalid START field %q", f)
		}
		if k != "period_ns" {
			continue
		}
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ns < 0 {
			return Session{}, fmt.Errorf("invalid START period_ns %q", v)
		}
		sess.Period = time.Duration(ns)
	}
	return sess, nil
}

func parseEntry(line string) (Entry, error) {
	parts := strings.SplitN(line, ",", 4)
	if len(parts) != 4 {
		return Entry{}, fmt.Errorf("invalid tick line (want t_ns,seq,mode,json): %q", line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Entry{}, fmt.Errorf("invalid tick line (empty field): %q", line)
		}
	}

	ns, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid tick timestamp %q: %w", parts[0], err)
	}
	if ns < 0 {
		return Entry{}, fmt.Errorf("invalid tick timestamp (negative): %d", ns)
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid tick seq %q: %w", parts[1], err)
	}
	m, err := mode.ParseNumber(parts[2])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid tick mode: %w", err)
	}
	return Entry{At: time.Duration(ns), Seq: seq, Mode: m, Payload: []byte(parts[3])}, nil
}

func compressed(path string) bool { return filepath.Ext(path) == ".zst" }

// ReadFile reads every session in the log at path.
func ReadFile(path string) ([]Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if compressed(path) {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("tick log zstd: %w", err)
		}
		defer zr.Close()
		return NewReader(zr).ReadAll()
	}
	return NewReader(f).ReadAll()
}

type Writer struct {
	f       *os.File
	zw      *zstd.Encoder
	w       *bufio.Writer
	lastSeq uint64
	wrote   bool
	closed  bool
}

// CreateWriter starts a new log at path with one session recorded at the
// given loop period.
func CreateWriter(path string, period time.Duration) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	ww := &Writer{f: f}
	var dst io.Writer = f
	if compressed(path) {
		ww.zw, err = zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("tick log zstd: %w", err)
		}
		dst = ww.zw
	}
	ww.w = bufio.NewWriterSize(dst, 64*1024)

	header := "START\n"
	if period > 0 {
		header = fmt.Sprintf("START period_ns=%d\n", period.Nanoseconds())
	}
	if _, err := ww.w.WriteString(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return ww, nil
}

// WriteTick appends e. Seq must increase from one call to the next.
func (ww *Writer) WriteTick(e Entry) error {
	if ww.closed {
		return errors.New("tick log writer is closed")
	}
	if len(e.Payload) == 0 {
		return errors.New("payload is empty")
	}
	if bytes.ContainsAny(e.Payload, "\r\n") {
		return errors.New("payload must be a single line")
	}
	if ww.wrote && e.Seq <= ww.lastSeq {
		return fmt.Errorf("seq %d after %d", e.Seq, ww.lastSeq)
	}
	at := e.At
	if at < 0 {
		at = 0
	}
	if _, err := fmt.Fprintf(ww.w, "%d,%d,%s,%s\n", at.Nanoseconds(), e.Seq, e.Mode, e.Payload); err != nil {
		return err
	}
	ww.lastSeq = e.Seq
	ww.wrote = true
	return nil
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	if ww.zw != nil {
		if err := ww.zw.Close(); err != nil {
			_ = ww.f.Close()
			return err
		}
	}
	return ww.f.Close()
}

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Play hands every entry to cb, sleeping between entries of a session for
// their recorded spacing divided by speed. There is no wait between
// sessions.
func Play(sessions []Session, speed float64, loop bool, sleeper Sleeper, cb func(Entry) error) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	total := 0
	for _, s := range sessions {
		total += len(s.Entries)
	}
	if total == 0 {
		return errors.New("no ticks")
	}

	for {
		for _, s := range sessions {
			for i, e := range s.Entries {
				if i > 0 {
					if wait := time.Duration(float64(e.At-s.Entries[i-1].At) / speed); wait > 0 {
						sleeper.Sleep(wait)
					}
				}
				if err := cb(e); err != nil {
					return err
				}
			}
		}
		if !loop {
			return nil
		}
	}
}

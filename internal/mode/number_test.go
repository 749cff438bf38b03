package mode

import "testing"

func TestNumber_IsVTOL(t *testing.T) {
	for _, n := range []Number{QStabilize, QHover, QLoiter, QLand, QRTL, QAutotune, QAcro} {
		if !n.IsVTOL() {
			t.Fatalf("%s: expected VTOL", n)
		}
	}
	for _, n := range []Number{Manual, Cruise, Loiter, Guided, LoiterAltQLand} {
		if n.IsVTOL() {
			t.Fatalf("%s: expected fixed-wing", n)
		}
	}
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber("qland")
	if err != nil {
		t.Fatalf("ParseNumber: %v", err)
	}
	if n != QLand {
		t.Fatalf("got=%v want QLAND", n)
	}
	if _, err := ParseNumber("hover"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStrings(t *testing.T) {
	if got := Number(99).String(); got != "MODE(99)" {
		t.Fatalf("got=%q", got)
	}
	if got := ReasonLoiterAltInVTOL.String(); got != "LOITER_ALT_IN_VTOL" {
		t.Fatalf("got=%q", got)
	}
	if got := ReasonLoiterAltReachedQLand.String(); got != "LOITER_ALT_REACHED_QLAND" {
		t.Fatalf("got=%q", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	b, err := QLand.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var n Number
	if err := n.UnmarshalText(b); err != nil || n != QLand {
		t.Fatalf("n=%v err=%v", n, err)
	}

	b, _ = ReasonLoiterAltInVTOL.MarshalText()
	var r Reason
	if err := r.UnmarshalText(b); err != nil || r != ReasonLoiterAltInVTOL {
		t.Fatalf("r=%v err=%v", r, err)
	}
	if err := r.UnmarshalText([]byte("BOGUS")); err == nil {
		t.Fatalf("expected error")
	}
}

package geo

import (
	"math"
	"testing"
)

func TestLocation_Degrees(t *testing.T) {
	l := Location{LatE7: 450000000, LngE7: -1220000000, AltCm: 1550}
	if l.LatDeg() != 45 {
		t.Fatalf("lat=%v want 45", l.LatDeg())
	}
	if l.LngDeg() != -122 {
		t.Fatalf("lng=%v want -122", l.LngDeg())
	}
	if l.AltM() != 15.5 {
		t.Fatalf("alt=%v want 15.5", l.AltM())
	}
}

func TestAltFrame_String(t *testing.T) {
	if got := FrameAboveTerrain.String(); got != "above_terrain" {
		t.Fatalf("got=%q want above_terrain", got)
	}
	if got := AltFrame(9).String(); got != "frame(9)" {
		t.Fatalf("got=%q want frame(9)", got)
	}
}

func TestVector3_Length(t *testing.T) {
	v := Vector3{X: 3, Y: 4}
	if math.Abs(v.Length()-5) > 1e-12 {
		t.Fatalf("len=%v want 5", v.Length())
	}
	if got := (Vector3{}).Length(); got != 0 {
		t.Fatalf("zero len=%v want 0", got)
	}
}

func TestAltFrame_Text(t *testing.T) {
	var f AltFrame
	if err := f.UnmarshalText([]byte("above_home")); err != nil || f != FrameAboveHome {
		t.Fatalf("f=%v err=%v", f, err)
	}
	if err := f.UnmarshalText([]byte("agl")); err == nil {
		t.Fatalf("expected error")
	}
}

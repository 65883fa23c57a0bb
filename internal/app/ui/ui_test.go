package ui

import "testing"

func TestPaintHonoursColorSetting(t *testing.T) {
	prev := ColorEnabled()
	t.Cleanup(func() { SetColor(prev) })

	SetColor(false)
	if got := Paint(ColorRed, "x"); got != "x" {
		t.Fatalf("Paint with color off = %q", got)
	}

	SetColor(true)
	if got := Paint(ColorRed, "x"); got != ColorRed+"x"+ColorReset {
		t.Fatalf("Paint with color on = %q", got)
	}
	if got := Paint("", "x"); got != "x" {
		t.Fatalf("Paint without color = %q", got)
	}
}

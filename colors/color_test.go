package colors

import (
	"image/color"
	"math"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#42448A", color.NRGBA{0x42, 0x44, 0x8a, 0xff}},
		{"376281", color.NRGBA{0x37, 0x62, 0x81, 0xff}},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		{"#000000", color.NRGBA{0, 0, 0, 0xff}},
	}
	for _, tt := range tests {
		c, err := ParseHex(tt.in)
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.in, err)
			continue
		}
		got := color.NRGBAModel.Convert(c).(color.NRGBA)
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "#12", "#zzzzzz"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q): expected error", bad)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, s := range []string{"#42448a", "#376281", "#ffbea0"} {
		if got := MustParseHex(s).Hex(); got != s {
			t.Errorf("Hex(ParseHex(%q)) = %q", s, got)
		}
	}
}

func TestLuminance(t *testing.T) {
	c := From8BitRgb(100, 200, 50, 255)
	dark := c.Luminance(-0.2)
	if math.Abs(dark.R-80.0/255) > 1e-9 || math.Abs(dark.G-160.0/255) > 1e-9 || math.Abs(dark.B-40.0/255) > 1e-9 {
		t.Errorf("Luminance(-0.2) = %+v", dark)
	}
	bright := c.Luminance(1)
	if bright.G != 1 {
		t.Errorf("Luminance(1) not clamped: %+v", bright)
	}
	if got := White().RelativeLuminance(); math.Abs(got-1) > 1e-9 {
		t.Errorf("white luminance = %v", got)
	}
	if got := Black().RelativeLuminance(); got != 0 {
		t.Errorf("black luminance = %v", got)
	}
}

func TestOver(t *testing.T) {
	base := White()
	got := Black().WithAlpha(0.25).Over(base)
	if math.Abs(got.R-0.75) > 1e-9 || got.A != 1 {
		t.Errorf("Over = %+v", got)
	}
	if got := Black().WithAlpha(0).Over(base); got != base {
		t.Errorf("transparent Over = %+v", got)
	}
}

func TestMixLabEndpoints(t *testing.T) {
	a := MustParseHex("#42448a")
	b := MustParseHex("#376281")
	if got := a.MixLab(b, 0).Hex(); got != "#42448a" {
		t.Errorf("MixLab(0) = %s", got)
	}
	if got := a.MixLab(b, 1).Hex(); got != "#376281" {
		t.Errorf("MixLab(1) = %s", got)
	}
}

func TestFromStandardColor(t *testing.T) {
	c := FromStandardColor(color.NRGBA{R: 255, G: 0, B: 0, A: 128})
	if math.Abs(c.R-1) > 1e-3 || math.Abs(c.A-128.0/255) > 1e-3 {
		t.Errorf("FromStandardColor = %+v", c)
	}
	if got := FromStandardColor(color.NRGBA{}); got != (Color4{}) {
		t.Errorf("transparent = %+v", got)
	}
}

func TestFilterPreserveBrightness(t *testing.T) {
	c := New(0.5, 0.5, 0.5, 1)
	if got := c.FilterPreserveBrightness(MustParseHex("#ffbea0"), 0); got != c {
		t.Errorf("zero strength changed color: %+v", got)
	}
	got := c.FilterPreserveBrightness(MustParseHex("#ffbea0"), 1)
	if math.Abs(got.RelativeLuminance()-c.RelativeLuminance()) > 1e-6 {
		t.Errorf("luminance changed: %v -> %v", c.RelativeLuminance(), got.RelativeLuminance())
	}
	if got.R <= got.B {
		t.Errorf("warm filter did not warm: %+v", got)
	}
}

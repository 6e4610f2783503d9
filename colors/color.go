package colors

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color4 is an sRGB color with float64 components in [0,1] and straight
// (non-premultiplied) alpha.
type Color4 struct {
	R, G, B, A float64
}

func New(r, g, b, a float64) Color4 {
	return Color4{R: r, G: g, B: b, A: a}
}

func (c Color4) RGBA() (r, g, b, a uint32) {
	c = c.Clamp01()
	return uint32(c.R * c.A * 65535),
		uint32(c.G * c.A * 65535),
		uint32(c.B * c.A * 65535),
		uint32(c.A * 65535)
}

func FromStandardColor(c color.Color) Color4 {
	if c4, ok := c.(Color4); ok {
		return c4
	}

	r16, g16, b16, a16 := c.RGBA()
	if a16 == 0 {
		return Color4{}
	}

	// De-premultiply and normalize to [0,1]
	invA := float64(0xFFFF) / float64(a16)
	return Color4{
		R: float64(r16) * invA / 65535.0,
		G: float64(g16) * invA / 65535.0,
		B: float64(b16) * invA / 65535.0,
		A: float64(a16) / 65535.0,
	}
}

func From8BitRgb(r, g, b, a byte) Color4 {
	return Color4{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
		A: float64(a) / 255.0,
	}
}

// ParseHex parses "#rrggbb" or the short "#rgb" form. The leading '#' is
// optional.
func ParseHex(s string) (Color4, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color4{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color4{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

// MustParseHex is ParseHex for compile-time constants.
func MustParseHex(s string) Color4 {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", ignoring alpha.
func (c Color4) Hex() string {
	c = c.Clamp01()
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Hex()
}

func White() Color4 {
	return Color4{R: 1, G: 1, B: 1, A: 1}
}

func Black() Color4 {
	return Color4{R: 0, G: 0, B: 0, A: 1}
}

// Luminance scales every channel by (1 + lum), clamped to [0,1].
// Negative lum darkens: Luminance(-0.2) is 80% of the original.
func (c Color4) Luminance(lum float64) Color4 {
	f := 1 + lum
	return Color4{
		R: clamp01(c.R * f),
		G: clamp01(c.G * f),
		B: clamp01(c.B * f),
		A: c.A,
	}
}

// RelativeLuminance is the Rec.709 luminance of c in linear light.
func (c Color4) RelativeLuminance() float64 {
	const rY, gY, bY = 0.2126, 0.7152, 0.0722
	return rY*srgbToLinear(c.R) + gY*srgbToLinear(c.G) + bY*srgbToLinear(c.B)
}

func (c Color4) WithAlpha(a float64) Color4 {
	return Color4{
		R: c.R,
		G: c.G,
		B: c.B,
		A: a,
	}
}

// MixLab interpolates c towards o in CIE L*a*b* space, which keeps
// gradients between saturated colors from going muddy. Alpha is linear.
func (c Color4) MixLab(o Color4, t float64) Color4 {
	a := colorful.Color{R: c.R, G: c.G, B: c.B}
	b := colorful.Color{R: o.R, G: o.G, B: o.B}
	m := a.BlendLab(b, t).Clamped()
	return Color4{R: m.R, G: m.G, B: m.B, A: c.A*(1-t) + o.A*t}
}

// Over composites c with its alpha over an opaque base.
func (c Color4) Over(base Color4) Color4 {
	a := clamp01(c.A)
	return Color4{
		R: base.R*(1-a) + c.R*a,
		G: base.G*(1-a) + c.G*a,
		B: base.B*(1-a) + c.B*a,
		A: 1,
	}
}

// Clamp01 clamps each component into [0,1].
func (c Color4) Clamp01() Color4 {
	return Color4{
		R: clamp01(c.R),
		G: clamp01(c.G),
		B: clamp01(c.B),
		A: clamp01(c.A),
	}
}

// ToNRGBA rounds each component to 8 bits.
func (c Color4) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		to8bit(c.R),
		to8bit(c.G),
		to8bit(c.B),
		to8bit(c.A),
	}
}

// FilterPreserveBrightness applies a colored filter f with strength t, modulated by f.A,
// while preserving the original perceived brightness (Rec.709 luminance).
func (c Color4) FilterPreserveBrightness(f Color4, t float64) Color4 {
	w := clamp01(t * clamp01(f.A))
	if w == 0 {
		return c
	}

	cr, cg, cb := srgbToLinear(c.R), srgbToLinear(c.G), srgbToLinear(c.B)
	fr, fg, fb := srgbToLinear(f.R), srgbToLinear(f.G), srgbToLinear(f.B)

	// transmission, interpolated between 1 and the filter color in linear light
	or := cr * (1 + w*(fr-1))
	og := cg * (1 + w*(fg-1))
	ob := cb * (1 + w*(fb-1))

	const rY, gY, bY = 0.2126, 0.7152, 0.0722
	yIn := rY*cr + gY*cg + bY*cb
	yOut := rY*or + gY*og + bY*ob

	scale := 1.0
	if yOut > 1e-12 {
		scale = yIn / yOut
	}

	return Color4{
		R: linearToSrgb(clamp01(or * scale)),
		G: linearToSrgb(clamp01(og * scale)),
		B: linearToSrgb(clamp01(ob * scale)),
		A: c.A,
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to8bit(x float64) uint8 {
	return uint8(255.0*clamp01(x) + 0.5)
}

// IEC 61966-2-1 sRGB <-> linear
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
func linearToSrgb(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

package render

import (
	"image"
	"image/png"
	"io"
	"math"
	"runtime"

	"github.com/echoflaresat/daylightmap/cities"
	"github.com/echoflaresat/daylightmap/colors"
	"github.com/echoflaresat/daylightmap/config"
	"github.com/echoflaresat/daylightmap/daylight"
	"github.com/echoflaresat/daylightmap/projection"
	"github.com/echoflaresat/daylightmap/terminator"
	"golang.org/x/sync/errgroup"
)

type Theme struct {
	BgLeft  colors.Color4
	BgRight colors.Color4
	Lights  colors.Color4

	ShadowOpacity float64
	LightsOpacity float64
	SunOpacity    float64

	// SunRadius is the glow radius as a fraction of the canvas width.
	SunRadius float64
	// LightScale multiplies city radii, in pixels per unit.
	LightScale float64
	// EdgeSoftness is the half width of the day/night transition in pixels.
	EdgeSoftness float64

	// Optional textures; nil falls back to the gradient and shadow fill.
	Day   *Texture
	Night *Texture
}

// ThemeFromConfig builds a theme from cfg and loads its textures.
func ThemeFromConfig(cfg config.Config) (Theme, error) {
	left, right, lights := cfg.Colors()
	theme := Theme{
		BgLeft:        left,
		BgRight:       right,
		Lights:        lights,
		ShadowOpacity: cfg.ShadowOpacity,
		LightsOpacity: cfg.LightsOpacity,
		SunOpacity:    cfg.SunOpacity,
		SunRadius:     150.0 / 1100.0,
		LightScale:    2,
		EdgeSoftness:  1.5,
	}
	var err error
	if cfg.DayTexture != "" {
		if theme.Day, err = LoadTexture(cfg.DayTexture); err != nil {
			return Theme{}, err
		}
	}
	if cfg.NightTexture != "" {
		if theme.Night, err = LoadTexture(cfg.NightTexture); err != nil {
			return Theme{}, err
		}
	}
	return theme, nil
}

// Smoothstep performs a Hermite interpolation between 0 and 1 across [edge0, edge1].
// Returns 0 if x < edge0, 1 if x > edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	// Avoid division by zero
	if edge0 == edge1 {
		if x < edge0 {
			return 0.0
		}
		return 1.0
	}

	t := (x - edge0) / (edge1 - edge0)
	if t < 0.0 {
		t = 0.0
	} else if t > 1.0 {
		t = 1.0
	}
	return t * t * (3.0 - 2.0*t)
}

// Clip clamps x into the inclusive range [min, max].
func Clip(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// BlendNightDayEnergyConserving blends day and night colors using an
// energy-conserving root-sum-square method to ensure a smooth transition.
func BlendNightDayEnergyConserving(CDay, CNight colors.Color4, light float64) colors.Color4 {
	r := math.Sqrt((1-light)*CNight.R*CNight.R + light*CDay.R*CDay.R)
	g := math.Sqrt((1-light)*CNight.G*CNight.G + light*CDay.G*CDay.G)
	b := math.Sqrt((1-light)*CNight.B*CNight.B + light*CDay.B*CDay.B)
	return colors.Color4{R: r, G: g, B: b, A: 1.0}
}

// GaussianFade returns a smooth Gaussian falloff centered at `center`
// with standard deviation `width`.
func GaussianFade(x, center, width float64) float64 {
	return math.Exp(-((x - center) * (x - center)) / (2.0 * width * width))
}

// GenerateSupersamplingOffsets returns n×n offsets in [-0.5, +0.5] for
// supersampling, as pairs (dx, dy) with pixel-center spacing.
func GenerateSupersamplingOffsets(n int) [][2]float64 {
	if n <= 0 {
		return nil
	}
	step := 1.0 / float64(n)
	out := make([][2]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx := (float64(i)+0.5)*step - 0.5
			dy := (float64(j)+0.5)*step - 0.5
			out = append(out, [2]float64{dx, dy})
		}
	}
	return out
}

// Renderer rasterizes frames onto a Width x Height pixel canvas.
type Renderer struct {
	theme         Theme
	plane         projection.Plane
	supersampling int
	workers       int
}

// NewRenderer returns a renderer for plane. supersampling <= 0 means one
// sample per pixel; workers <= 0 means GOMAXPROCS.
func NewRenderer(theme Theme, plane projection.Plane, supersampling, workers int) *Renderer {
	if supersampling <= 0 {
		supersampling = 1
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Renderer{theme: theme, plane: plane, supersampling: supersampling, workers: workers}
}

// Light returns the daylight fraction at canvas position (x, y): 1 well
// inside the day side, 0 well inside the night fill, smooth in between.
func (r *Renderer) Light(projected []projection.Position, o terminator.Orientation, x, y float64) float64 {
	boundary := projection.BoundaryAt(projected, x)
	// Signed distance towards the night edge of the canvas.
	d := y - boundary
	if o == terminator.SouthSun {
		d = -d
	}
	return 1 - Smoothstep(-r.theme.EdgeSoftness, r.theme.EdgeSoftness, d)
}

// Render draws f. points and lit are the tracked cities and their lit state;
// lights are drawn for dark cities only.
func (r *Renderer) Render(f daylight.Frame, points []cities.Point, lit []bool) *image.NRGBA {
	W, H := int(r.plane.Width), int(r.plane.Height)
	img := image.NewNRGBA(image.Rect(0, 0, W, H))
	projected := r.plane.Project(f.Terminator)
	offsets := GenerateSupersamplingOffsets(r.supersampling)
	N := float64(len(offsets))
	sunRadius := r.theme.SunRadius * r.plane.Width

	var g errgroup.Group
	g.SetLimit(r.workers)
	for y := 0; y < H; y++ {
		g.Go(func() error {
			for x := 0; x < W; x++ {
				light := 0.0
				for _, off := range offsets {
					light += r.Light(projected, f.Orientation, float64(x)+0.5+off[0], float64(y)+0.5+off[1])
				}
				light /= N

				px := projection.Position{X: float64(x) + 0.5, Y: float64(y) + 0.5}
				c := r.surface(px, light)
				c = r.sunGlow(c, px, f.Sun, sunRadius)
				img.SetNRGBA(x, y, c.ToNRGBA())
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range points {
		if i < len(lit) && lit[i] {
			continue
		}
		r.drawLight(img, r.plane.ToPlane(p.Coord), p.Radius*r.theme.LightScale)
	}
	return img
}

func (r *Renderer) surface(px projection.Position, light float64) colors.Color4 {
	geo := r.plane.ToGeo(px)
	var day colors.Color4
	if r.theme.Day != nil {
		day = r.theme.Day.Sample(geo)
	} else {
		day = r.theme.BgLeft.MixLab(r.theme.BgRight, px.X/r.plane.Width)
	}
	if r.theme.Night != nil {
		night := r.theme.Night.Sample(geo).FilterPreserveBrightness(r.theme.Lights, r.theme.LightsOpacity)
		return BlendNightDayEnergyConserving(day, night, light)
	}
	shadow := colors.Black().WithAlpha(r.theme.ShadowOpacity * (1 - light))
	return shadow.Over(day.WithAlpha(1))
}

func (r *Renderer) sunGlow(c colors.Color4, px, sun projection.Position, radius float64) colors.Color4 {
	if radius <= 0 || r.theme.SunOpacity <= 0 {
		return c
	}
	dx := math.Abs(px.X - sun.X)
	dx = math.Min(dx, r.plane.Width-dx) // the map wraps horizontally
	d := math.Hypot(dx, px.Y-sun.Y)
	if d >= radius {
		return c
	}
	a := r.theme.SunOpacity * GaussianFade(d/radius, 0, 0.4) * (1 - d/radius)
	return colors.White().WithAlpha(a).Over(c)
}

func (r *Renderer) drawLight(img *image.NRGBA, at projection.Position, radius float64) {
	if radius <= 0 || r.theme.LightsOpacity <= 0 {
		return
	}
	b := img.Bounds()
	x0, x1 := int(math.Floor(at.X-radius-1)), int(math.Ceil(at.X+radius+1))
	y0, y1 := int(math.Floor(at.Y-radius-1)), int(math.Ceil(at.Y+radius+1))
	for y := max(y0, b.Min.Y); y < min(y1, b.Max.Y); y++ {
		for x := max(x0, b.Min.X); x < min(x1, b.Max.X); x++ {
			d := math.Hypot(float64(x)+0.5-at.X, float64(y)+0.5-at.Y)
			coverage := Clip(radius+0.5-d, 0, 1)
			if coverage == 0 {
				continue
			}
			px := img.NRGBAAt(x, y)
			base := colors.From8BitRgb(px.R, px.G, px.B, px.A)
			c := r.theme.Lights.WithAlpha(r.theme.LightsOpacity * coverage).Over(base)
			img.SetNRGBA(x, y, c.ToNRGBA())
		}
	}
}

// WritePNG encodes img favouring speed over size.
func WritePNG(w io.Writer, img image.Image) error {
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(w, img)
}

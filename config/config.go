// Package config holds the daylight map settings and loads them from, in
// increasing priority: built-in defaults, a YAML file, DAYLIGHT_* environment
// variables (optionally seeded from a .env file) and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"runtime"
	"time"

	cerrors "cloudeng.io/errors"
	"github.com/echoflaresat/daylightmap/colors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is matched by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full set of options.
type Config struct {
	TickDuration     time.Duration `yaml:"tick_duration"`
	LatStep          float64       `yaml:"lat_step"`
	LngStep          float64       `yaml:"lng_step"`
	SubsolarLatStep  float64       `yaml:"subsolar_lat_step"`
	SubsolarLngStep  float64       `yaml:"subsolar_lng_step"`
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	Refresh          bool          `yaml:"refresh"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	AnimateIncrement time.Duration `yaml:"animate_increment"`
	SkipIncrement    time.Duration `yaml:"skip_increment"`
	Workers          int           `yaml:"workers"`

	ShadowOpacity float64 `yaml:"shadow_opacity"`
	LightsOpacity float64 `yaml:"lights_opacity"`
	SunOpacity    float64 `yaml:"sun_opacity"`
	BgColorLeft   string  `yaml:"bg_color_left"`
	BgColorRight  string  `yaml:"bg_color_right"`
	LightsColor   string  `yaml:"lights_color"`

	CitiesPath   string `yaml:"cities"`
	DayTexture   string `yaml:"day_texture"`
	NightTexture string `yaml:"night_texture"`

	// Start is the initial simulated time; the zero value means now.
	Start time.Time `yaml:"start"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		TickDuration:     400 * time.Millisecond,
		LatStep:          1,
		LngStep:          10,
		SubsolarLatStep:  10,
		SubsolarLngStep:  1,
		Width:            1100,
		Height:           550,
		Refresh:          true,
		RefreshInterval:  60 * time.Second,
		AnimateIncrement: 10 * time.Minute,
		SkipIncrement:    60 * time.Minute,
		Workers:          runtime.GOMAXPROCS(0),
		ShadowOpacity:    0.16,
		LightsOpacity:    0.5,
		SunOpacity:       0.11,
		BgColorLeft:      "#42448A",
		BgColorRight:     "#376281",
		LightsColor:      "#FFBEA0",
	}
}

// RefreshIncrement is the time added by each passive refresh.
const RefreshIncrement = time.Minute

// StartTime returns Start, or now if Start is unset.
func (c Config) StartTime() time.Time {
	if c.Start.IsZero() {
		return time.Now()
	}
	return c.Start
}

// Validate reports every invalid field. The returned error matches
// ErrInvalidConfig with errors.Is.
func (c Config) Validate() error {
	errs := cerrors.M{}
	invalid := func(format string, args ...any) {
		errs.Append(fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.TickDuration <= 0 {
		invalid("tick_duration must be positive, got %v", c.TickDuration)
	}
	for _, s := range []struct {
		name       string
		step, span float64
	}{
		{"lat_step", c.LatStep, 180},
		{"lng_step", c.LngStep, 360},
		{"subsolar_lat_step", c.SubsolarLatStep, 180},
		{"subsolar_lng_step", c.SubsolarLngStep, 360},
	} {
		if math.IsNaN(s.step) || math.IsInf(s.step, 0) || s.step <= 0 || s.step > s.span {
			invalid("%s must be in (0, %v], got %v", s.name, s.span, s.step)
		}
	}
	if c.Width <= 0 || c.Height <= 0 {
		invalid("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Refresh && c.RefreshInterval <= 0 {
		invalid("refresh_interval must be positive, got %v", c.RefreshInterval)
	}
	if c.Workers < 0 {
		invalid("workers must not be negative, got %d", c.Workers)
	}
	for _, o := range []struct {
		name string
		v    float64
	}{
		{"shadow_opacity", c.ShadowOpacity},
		{"lights_opacity", c.LightsOpacity},
		{"sun_opacity", c.SunOpacity},
	} {
		if math.IsNaN(o.v) || o.v < 0 || o.v > 1 {
			invalid("%s must be in [0, 1], got %v", o.name, o.v)
		}
	}
	for _, h := range []struct{ name, v string }{
		{"bg_color_left", c.BgColorLeft},
		{"bg_color_right", c.BgColorRight},
		{"lights_color", c.LightsColor},
	} {
		if _, err := colors.ParseHex(h.v); err != nil {
			invalid("%s: %v", h.name, err)
		}
	}
	return errs.Err()
}

// Colors returns the parsed palette. It assumes Validate succeeded.
func (c Config) Colors() (left, right, lights colors.Color4) {
	return colors.MustParseHex(c.BgColorLeft), colors.MustParseHex(c.BgColorRight), colors.MustParseHex(c.LightsColor)
}

// LoadFile overlays the YAML document at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.LoadYAML(data)
}

// LoadYAML overlays a YAML document onto c.
func (c *Config) LoadYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the named files (".env" if none)
// into the process environment without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

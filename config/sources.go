package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable, e.g. DAYLIGHT_LNG_STEP.
const EnvPrefix = "DAYLIGHT_"

type field struct {
	key   string // yaml key; env and flag names are derived from it
	usage string
	set   func(c *Config, v string) error
}

func durationField(key, usage string, dst func(*Config) *time.Duration) field {
	return field{key, usage, func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}}
}

func floatField(key, usage string, dst func(*Config) *float64) field {
	return field{key, usage, func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}}
}

func intField(key, usage string, dst func(*Config) *int) field {
	return field{key, usage, func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}}
}

func stringField(key, usage string, dst func(*Config) *string) field {
	return field{key, usage, func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}}
}

var fields = []field{
	durationField("tick_duration", "animation tick period", func(c *Config) *time.Duration { return &c.TickDuration }),
	floatField("lat_step", "terminator latitude step in degrees", func(c *Config) *float64 { return &c.LatStep }),
	floatField("lng_step", "terminator longitude step in degrees", func(c *Config) *float64 { return &c.LngStep }),
	floatField("subsolar_lat_step", "sub-solar search latitude step in degrees", func(c *Config) *float64 { return &c.SubsolarLatStep }),
	floatField("subsolar_lng_step", "sub-solar search longitude step in degrees", func(c *Config) *float64 { return &c.SubsolarLngStep }),
	intField("width", "canvas width in pixels", func(c *Config) *int { return &c.Width }),
	intField("height", "canvas height in pixels", func(c *Config) *int { return &c.Height }),
	{"refresh", "advance time passively while idle", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Refresh = b
		return nil
	}},
	durationField("refresh_interval", "passive refresh period", func(c *Config) *time.Duration { return &c.RefreshInterval }),
	durationField("animate_increment", "simulated time added per animation tick", func(c *Config) *time.Duration { return &c.AnimateIncrement }),
	durationField("skip_increment", "simulated time added per skip", func(c *Config) *time.Duration { return &c.SkipIncrement }),
	intField("workers", "concurrent grid columns, 0 for GOMAXPROCS", func(c *Config) *int { return &c.Workers }),
	floatField("shadow_opacity", "night fill opacity", func(c *Config) *float64 { return &c.ShadowOpacity }),
	floatField("lights_opacity", "city light opacity", func(c *Config) *float64 { return &c.LightsOpacity }),
	floatField("sun_opacity", "sun glow opacity", func(c *Config) *float64 { return &c.SunOpacity }),
	stringField("bg_color_left", "background gradient start color", func(c *Config) *string { return &c.BgColorLeft }),
	stringField("bg_color_right", "background gradient end color", func(c *Config) *string { return &c.BgColorRight }),
	stringField("lights_color", "city light color", func(c *Config) *string { return &c.LightsColor }),
	stringField("cities", "city dataset (JSON)", func(c *Config) *string { return &c.CitiesPath }),
	stringField("day_texture", "day texture image (TIFF, PNG or JPEG)", func(c *Config) *string { return &c.DayTexture }),
	stringField("night_texture", "night texture image (TIFF, PNG or JPEG)", func(c *Config) *string { return &c.NightTexture }),
	{"start", "initial time in RFC3339, empty for now", func(c *Config, v string) error {
		if v == "" {
			c.Start = time.Time{}
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return err
		}
		c.Start = t
		return nil
	}},
}

func envName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// ApplyEnv overlays the DAYLIGHT_* variables found by lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, f := range fields {
		v, ok := lookup(envName(f.key))
		if !ok {
			continue
		}
		if err := f.set(c, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, envName(f.key), err)
		}
	}
	return nil
}

// Flags binds every option to a flag set. Flags only override the options
// that were set on the command line.
type Flags struct {
	ConfigPath string
	DotEnv     string

	fs      *flag.FlagSet
	pending []func(*Config) error
}

// RegisterFlags defines -config, -env and one flag per option on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&f.DotEnv, "env", ".env", "dotenv file loaded into the environment")
	for _, fd := range fields {
		fs.Func(flagName(fd.key), fd.usage, func(v string) error {
			// Parse now so that bad values are reported by fs.Parse.
			if err := fd.set(&Config{}, v); err != nil {
				return err
			}
			f.pending = append(f.pending, func(c *Config) error { return fd.set(c, v) })
			return nil
		})
	}
	return f
}

// Load builds the config from defaults, the -config file, the environment
// (after loading -env) and the parsed flags, then validates it.
func (f *Flags) Load() (Config, error) {
	return f.load(os.LookupEnv)
}

func (f *Flags) load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		if err := cfg.LoadFile(f.ConfigPath); err != nil {
			return Config{}, err
		}
	}
	if f.DotEnv != "" {
		if err := LoadDotEnv(f.DotEnv); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	for _, set := range f.pending {
		if err := set(&cfg); err != nil {
			return Config{}, err
		}
	}
	if cfg.Workers == 0 {
		cfg.Workers = Default().Workers
	}
	return cfg, cfg.Validate()
}

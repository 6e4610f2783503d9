package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/echoflaresat/daylightmap/cities"
	"github.com/echoflaresat/daylightmap/config"
	"github.com/echoflaresat/daylightmap/daylight"
	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/daylightmap/render"
	"github.com/echoflaresat/daylightmap/terminator"
)

type options struct {
	config      *config.Flags
	out         *string
	supersample *int
	at          *string
	verbose     *bool
	showHelp    *bool
}

func defineFlags() options {
	return options{
		config:      config.RegisterFlags(flag.CommandLine),
		out:         flag.String("out", "daylight.png", "Output PNG file path"),
		supersample: flag.Int("supersample", 2, "Supersampling factor (higher is slower but smoother)"),
		at:          flag.String("at", "", "Report daylight at lat,lng (e.g. 51.5,-0.12)"),
		verbose:     flag.Bool("v", false, "Log debug output"),
		showHelp:    flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Daylight Map - Day/Night Snapshot Generator

Usage:
  %[1]s [options]

Every option can also be set in the -config YAML file or as a DAYLIGHT_*
environment variable, e.g. DAYLIGHT_LAT_STEP.

`, os.Args[0])

	printGroup("Time", []string{"start", "tick-duration", "animate-increment", "skip-increment", "refresh", "refresh-interval"})
	printGroup("Sampling", []string{"lat-step", "lng-step", "subsolar-lat-step", "subsolar-lng-step", "workers"})
	printGroup("Rendering", []string{"width", "height", "supersample", "shadow-opacity", "lights-opacity", "sun-opacity"})
	printGroup("Theme", []string{"bg-color-left", "bg-color-right", "lights-color"})
	printGroup("Assets", []string{"cities", "day-texture", "night-texture"})
	printGroup("Output", []string{"out", "at"})
	printGroup("Misc", []string{"config", "env", "v", "h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-18s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func main() {

	opts := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *opts.showHelp {
		printHelp()
		return
	}

	cfg, err := opts.config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if *opts.verbose {
		level = slog.LevelDebug
	}
	ctx := ctxlog.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Snapshots never animate.
	cfg.Refresh = false
	m, err := daylight.New(ctx, cfg, earth.NewMeeusProvider(1024))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if cfg.CitiesPath != "" {
		points, err := cities.LoadFile(cfg.CitiesPath)
		if err != nil {
			log.Fatalf("Failed to load cities: %v", err)
		}
		if err := m.AddPoints(points); err != nil {
			log.Fatal(err)
		}
		// Recompute so that the new cities are classified.
		if err := m.SetTime(m.Now()); err != nil {
			log.Fatal(err)
		}
	}

	report(m)
	if *opts.at != "" {
		c, err := parseCoordinate(*opts.at)
		if err != nil {
			log.Fatalf("Invalid -at: %v", err)
		}
		reportAt(m, c)
	}

	if err := renderSnapshot(m, *opts.out, *opts.supersample); err != nil {
		log.Fatalf("Failed to write PNG: %v", err)
	}
}

func report(m *daylight.Map) {
	f := m.Frame()
	points, lit := m.Points()
	litCount := 0
	for _, l := range lit {
		if l {
			litCount++
		}
	}
	fmt.Printf("time:      %s\n", f.Time.Format(time.RFC3339))
	fmt.Printf("sun:       %s (%s)\n", f.Subsolar, f.Orientation)
	fmt.Printf("cities:    %d of %d in daylight\n", litCount, len(points))
}

func reportAt(m *daylight.Map, c earth.GeoCoordinate) {
	t := m.Now()
	state := "night"
	if terminator.IsLit(m.Provider(), t, c) {
		state = "day"
	}
	fmt.Printf("at %s: %s\n", c, state)
	if rise, set, ok := earth.SunTimes(c, t); ok {
		fmt.Printf("  sunrise %s  sunset %s\n", rise.Format("15:04 MST"), set.Format("15:04 MST"))
	} else {
		fmt.Println("  no sunrise or sunset on this day")
	}
}

func parseCoordinate(s string) (earth.GeoCoordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return earth.GeoCoordinate{}, fmt.Errorf("%q is not lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return earth.GeoCoordinate{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return earth.GeoCoordinate{}, err
	}
	return earth.NewGeoCoordinate(lat, lng)
}

// renderSnapshot draws the current frame of m and writes it to path.
func renderSnapshot(m *daylight.Map, path string, supersample int) error {
	cfg := m.Config()
	theme, err := render.ThemeFromConfig(cfg)
	if err != nil {
		return err
	}
	points, lit := m.Points()
	img := render.NewRenderer(theme, m.Plane(), supersample, cfg.Workers).Render(m.Frame(), points, lit)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	print("Generating " + path + "\n")
	return render.WritePNG(f, img)
}

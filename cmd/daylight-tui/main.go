// Command daylight-tui shows the animated day/night map in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/echoflaresat/daylightmap/cities"
	"github.com/echoflaresat/daylightmap/config"
	"github.com/echoflaresat/daylightmap/daylight"
	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/daylightmap/tui"
	"github.com/gdamore/tcell/v2"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	animate := flag.Bool("animate", false, "Start animating immediately")
	utc := flag.Bool("utc", false, "Show times in UTC instead of local time")
	logPath := flag.String("log", "", "Write logs to this file; the terminal is taken by the map")
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.DiscardHandler)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := run(ctx, cfg, *animate, *utc); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, animate, utc bool) error {
	m, err := daylight.New(ctx, cfg, earth.NewMeeusProvider(4096))
	if err != nil {
		return err
	}
	defer m.Close()

	if cfg.CitiesPath != "" {
		points, err := cities.LoadFile(cfg.CitiesPath)
		if err != nil {
			return err
		}
		if err := m.AddPoints(points); err != nil {
			return err
		}
		if err := m.SetTime(m.Now()); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	loc := time.Local
	if utc {
		loc = time.UTC
	}
	if animate {
		m.Start()
	}
	err = tui.NewView(ctx, screen, m, loc).Run(ctx)
	ctxlog.Logger(ctx).Info("exiting", "time", m.Now().Format(time.RFC3339), "error", err)
	return err
}

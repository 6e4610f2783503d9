package terminator

import (
	"time"

	"github.com/echoflaresat/daylightmap/earth"
	"golang.org/x/sync/errgroup"
)

// Path is the day/night boundary, one coordinate per longitude step,
// ordered by increasing longitude.
type Path []earth.GeoCoordinate

// Sampler finds the boundary latitude for every sampled longitude.
type Sampler struct {
	provider earth.Provider
	grid     Grid
	workers  int
}

// NewSampler validates grid and returns a sampler. workers bounds the number
// of longitude columns scanned concurrently; <= 0 means GOMAXPROCS.
func NewSampler(p earth.Provider, grid Grid, workers int) (*Sampler, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{provider: p, grid: grid, workers: defaultWorkers(workers)}, nil
}

// Grid returns the sampler's grid.
func (s *Sampler) Grid() Grid {
	return s.grid
}

// Terminator computes the boundary at t. For NorthSun each column is
// scanned from the south pole upwards, for SouthSun from the north pole
// downwards, so the boundary is always approached from the dark side.
func (s *Sampler) Terminator(t time.Time, o Orientation) Path {
	path := make(Path, s.grid.Longitudes())

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range path {
		g.Go(func() error {
			lng := -180 + float64(i)*s.grid.LngStep
			path[i] = earth.GeoCoordinate{Lat: s.boundaryLatitude(t, lng, o), Lng: lng}
			return nil
		})
	}
	_ = g.Wait()
	return path
}

// boundaryLatitude returns the first lit latitude met while scanning
// towards the far pole, or the far pole itself when the whole column is
// dark (polar night) or only the far pole would be lit.
func (s *Sampler) boundaryLatitude(t time.Time, lng float64, o Orientation) float64 {
	start, end, delta := -90.0, 90.0, s.grid.LatStep
	if o == SouthSun {
		start, end, delta = 90.0, -90.0, -s.grid.LatStep
	}
	steps := scanCount(180, s.grid.LatStep)
	for i := 0; i < steps; i++ {
		lat := start + float64(i)*delta
		if s.provider.Position(t, lat, lng).Altitude > 0 {
			return lat
		}
	}
	return end
}

package terminator

import (
	"math"
	"time"

	"github.com/echoflaresat/daylightmap/earth"
	"golang.org/x/sync/errgroup"
)

// Locator finds the grid point of maximum solar altitude.
type Locator struct {
	provider earth.Provider
	grid     Grid
	workers  int
}

// NewLocator validates grid and returns a locator. The outer scan runs over
// longitude in grid.LngStep steps, the inner over latitude in grid.LatStep
// steps; the cost is (360/LngStep)*(180/LatStep) provider calls.
func NewLocator(p earth.Provider, grid Grid, workers int) (*Locator, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Locator{provider: p, grid: grid, workers: defaultWorkers(workers)}, nil
}

// Grid returns the locator's grid.
func (l *Locator) Grid() Grid {
	return l.grid
}

// SubsolarPoint returns the coordinate of the highest altitude sampled at t.
// Latitudes run from -90 and longitudes from -180, both excluding the
// opposite edge. The first maximum in scan order wins.
func (l *Locator) SubsolarPoint(t time.Time) earth.GeoCoordinate {
	best := earth.Sample{Altitude: math.Inf(-1)}
	for _, col := range l.columnPeaks(t) {
		if col.Altitude > best.Altitude {
			best = col
		}
	}
	return best.Coord
}

// Samples returns every grid sample at t in scan order.
func (l *Locator) Samples(t time.Time) []earth.Sample {
	lats := scanCount(180, l.grid.LatStep)
	lngs := scanCount(360, l.grid.LngStep)
	out := make([]earth.Sample, 0, lats*lngs)
	for j := 0; j < lngs; j++ {
		lng := -180 + float64(j)*l.grid.LngStep
		for i := 0; i < lats; i++ {
			lat := -90 + float64(i)*l.grid.LatStep
			out = append(out, earth.Sample{
				Coord:    earth.GeoCoordinate{Lat: lat, Lng: lng},
				Altitude: l.provider.Position(t, lat, lng).Altitude,
			})
		}
	}
	return out
}

// columnPeaks scans each longitude column, possibly concurrently, and
// returns the per-column maxima in longitude order so that the reduction
// in SubsolarPoint preserves scan order.
func (l *Locator) columnPeaks(t time.Time) []earth.Sample {
	lats := scanCount(180, l.grid.LatStep)
	peaks := make([]earth.Sample, scanCount(360, l.grid.LngStep))

	var g errgroup.Group
	g.SetLimit(l.workers)
	for j := range peaks {
		g.Go(func() error {
			lng := -180 + float64(j)*l.grid.LngStep
			best := earth.Sample{Altitude: math.Inf(-1)}
			for i := 0; i < lats; i++ {
				lat := -90 + float64(i)*l.grid.LatStep
				if alt := l.provider.Position(t, lat, lng).Altitude; alt > best.Altitude {
					best = earth.Sample{Coord: earth.GeoCoordinate{Lat: lat, Lng: lng}, Altitude: alt}
				}
			}
			peaks[j] = best
			return nil
		})
	}
	_ = g.Wait()
	return peaks
}

// scanCount is the number of points start, start+step, ... strictly below
// start+span.
func scanCount(span, step float64) int {
	return int(math.Ceil(span/step - 1e-9))
}

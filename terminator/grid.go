// Package terminator samples solar altitude over a latitude/longitude grid
// to find the day/night boundary, the sub-solar point and the illumination
// of individual coordinates.
//
// All scans are total over a validated Grid: a missing altitude crossing is
// a legitimate polar day/night result, never an error.
package terminator

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/echoflaresat/daylightmap/earth"
)

// ErrInvalidPrecision is returned for zero, negative or non-finite steps.
var ErrInvalidPrecision = errors.New("invalid sampling precision")

// Grid holds the sampling steps, in degrees.
type Grid struct {
	LatStep float64
	LngStep float64
}

// Validate rejects steps that would make a scan non-terminating.
func (g Grid) Validate() error {
	if !validStep(g.LatStep, 180) {
		return fmt.Errorf("%w: latitude step %v", ErrInvalidPrecision, g.LatStep)
	}
	if !validStep(g.LngStep, 360) {
		return fmt.Errorf("%w: longitude step %v", ErrInvalidPrecision, g.LngStep)
	}
	return nil
}

func validStep(step, span float64) bool {
	return !math.IsNaN(step) && !math.IsInf(step, 0) && step > 0 && step <= span
}

// Longitudes returns the number of terminator samples: one per longitude
// step from -180 up to and including 180 when the step divides 360.
func (g Grid) Longitudes() int {
	return int(math.Floor(360/g.LngStep)) + 1
}

// Orientation tells which pole the sun currently lights.
type Orientation int

const (
	// NorthSun: the north pole is lit, night is anchored to the south edge.
	NorthSun Orientation = iota
	// SouthSun: the north pole is dark, night is anchored to the north edge.
	SouthSun
)

func (o Orientation) String() string {
	if o == NorthSun {
		return "north-sun"
	}
	return "south-sun"
}

// IsLit reports whether the sun is strictly above the horizon at c.
func IsLit(p earth.Provider, t time.Time, c earth.GeoCoordinate) bool {
	return p.Position(t, c.Lat, c.Lng).Altitude > 0
}

// OrientationAt derives the orientation from the altitude at the north pole.
func OrientationAt(p earth.Provider, t time.Time) Orientation {
	if IsLit(p, t, earth.GeoCoordinate{Lat: 90, Lng: 0}) {
		return NorthSun
	}
	return SouthSun
}

func defaultWorkers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

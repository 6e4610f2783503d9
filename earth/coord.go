package earth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/echoflaresat/daylightmap/vectors"
)

var (
	// ErrInvalidCoordinate is returned for non-finite or out-of-range
	// latitude/longitude values.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidTime is returned for timestamps the engine cannot sample.
	ErrInvalidTime = errors.New("invalid timestamp")
)

// GeoCoordinate is a geographic position in degrees. Latitude is north
// positive in [-90, 90], longitude east positive in [-180, 180].
type GeoCoordinate struct {
	Lat float64
	Lng float64
}

// NewGeoCoordinate returns a validated coordinate.
func NewGeoCoordinate(lat, lng float64) (GeoCoordinate, error) {
	c := GeoCoordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return GeoCoordinate{}, err
	}
	return c, nil
}

// Validate reports whether c is finite and within range.
func (c GeoCoordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// Normal returns the outward unit normal at c on a spherical Earth (ECEF).
func (c GeoCoordinate) Normal() vectors.Vec3 {
	return vectors.FromLatLng(c.Lat, c.Lng)
}

func (c GeoCoordinate) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", c.Lat, c.Lng)
}

// ValidateTime rejects the zero time and years outside the proleptic
// Gregorian range the ephemeris is defined for.
func ValidateTime(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: zero time", ErrInvalidTime)
	}
	if y := t.UTC().Year(); y < -4712 || y > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidTime, y)
	}
	return nil
}

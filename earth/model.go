package earth

import (
	"time"

	"github.com/echoflaresat/daylightmap/vectors"
	lru "github.com/hashicorp/golang-lru"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

const Radius = 6371.0 // Earth radius in km (spherical approximation)

// Position is the sun's apparent position for an observer.
type Position struct {
	Altitude float64 // radians above the horizon
}

// Provider returns the sun's position for an instant and a location given
// in degrees. Implementations must be pure and safe for concurrent use.
type Provider interface {
	Position(t time.Time, lat, lng float64) Position
}

// ProviderFunc adapts an ordinary function to a Provider.
type ProviderFunc func(t time.Time, lat, lng float64) Position

func (f ProviderFunc) Position(t time.Time, lat, lng float64) Position {
	return f(t, lat, lng)
}

// Sample is a single altitude reading taken during a grid scan.
type Sample struct {
	Coord    GeoCoordinate
	Altitude float64
}

// SunDirectionECEF returns the unit vector from the Earth's centre towards
// the sun, in the Earth-fixed frame.
func SunDirectionECEF(t time.Time) vectors.Vec3 {
	jd := julian.TimeToJD(t.UTC())

	// Apparent RA/Dec of the Sun
	ra, dec := solar.ApparentEquatorial(jd)

	// Unit vector in ECI (Earth-centered inertial)
	eci := vectors.Vec3{
		X: dec.Cos() * ra.Cos(),
		Y: dec.Cos() * ra.Sin(),
		Z: dec.Sin(),
	}

	// Rotate ECI → ECEF using apparent sidereal time at Greenwich
	gast := sidereal.Apparent(jd)
	return eci.RotateZ(gast.Angle().Rad())
}

// SubsolarPoint returns the point directly beneath the sun at t.
func SubsolarPoint(t time.Time) GeoCoordinate {
	lat, lng := SunDirectionECEF(t).LatLng()
	return GeoCoordinate{Lat: lat, Lng: lng}
}

// MeeusProvider computes geometric solar altitude from the Meeus apparent
// solar coordinates. Sun directions are cached per instant since a grid
// scan asks for the same instant thousands of times.
type MeeusProvider struct {
	cache *lru.Cache // unix nanos -> vectors.Vec3
}

// NewMeeusProvider returns a provider remembering the sun direction for the
// last size instants.
func NewMeeusProvider(size int) *MeeusProvider {
	if size <= 0 {
		size = 64
	}
	cache, _ := lru.New(size)
	return &MeeusProvider{cache: cache}
}

func (p *MeeusProvider) Position(t time.Time, lat, lng float64) Position {
	sun := p.sunDirection(t)
	return Position{Altitude: vectors.Elevation(vectors.FromLatLng(lat, lng), sun)}
}

func (p *MeeusProvider) sunDirection(t time.Time) vectors.Vec3 {
	key := t.UnixNano()
	if v, ok := p.cache.Get(key); ok {
		return v.(vectors.Vec3)
	}
	dir := SunDirectionECEF(t)
	p.cache.Add(key, dir)
	return dir
}

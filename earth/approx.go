package earth

import (
	"math"
	"time"

	"github.com/echoflaresat/daylightmap/vectors"
)

// j2000 is the J2000.0 epoch: 2000-01-01 12:00:00 UTC.
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// ApproxProvider is a low precision (arcminute level) solar model that needs
// no ephemeris tables. It is cheap enough for very fine sampling grids.
type ApproxProvider struct{}

func (ApproxProvider) Position(t time.Time, lat, lng float64) Position {
	return Position{Altitude: vectors.Elevation(vectors.FromLatLng(lat, lng), approxSunDirection(t))}
}

// approxSunDirection uses the simplified NOAA / Meeus mean elements:
//
//	g   = mean anomaly of the Sun
//	q   = mean longitude of the Sun
//	L   = ecliptic longitude of the Sun
//	eps = obliquity of the ecliptic
func approxSunDirection(t time.Time) vectors.Vec3 {
	d := t.UTC().Sub(j2000).Hours() / 24.0

	g := deg2rad(357.529 + 0.98560028*d)
	q := deg2rad(280.459 + 0.98564736*d)
	L := q + deg2rad(1.915)*math.Sin(g) + deg2rad(0.020)*math.Sin(2*g)
	eps := deg2rad(23.439 - 0.00000036*d)

	eci := vectors.Vec3{
		X: math.Cos(L),
		Y: math.Cos(eps) * math.Sin(L),
		Z: math.Sin(eps) * math.Sin(L),
	}

	gmst := math.Mod(280.46061837+360.98564736629*d, 360.0)
	return eci.RotateZ(deg2rad(gmst))
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180.0
}

package vectors

import "math"

// Vec3 is a simple 3D vector with float64 components.
type Vec3 struct {
	X, Y, Z float64
}

// FromLatLng returns the ECEF unit vector for a geodetic latitude/longitude
// given in degrees on a spherical Earth.
func FromLatLng(latDeg, lngDeg float64) Vec3 {
	lat := latDeg * math.Pi / 180.0
	lng := lngDeg * math.Pi / 180.0
	return Vec3{
		X: math.Cos(lat) * math.Cos(lng),
		Y: math.Cos(lat) * math.Sin(lng),
		Z: math.Sin(lat),
	}
}

// LatLng is the inverse of FromLatLng; v need not be normalized.
func (v Vec3) LatLng() (latDeg, lngDeg float64) {
	lat := math.Atan2(v.Z, math.Sqrt(v.X*v.X+v.Y*v.Y))
	lng := math.Atan2(v.Y, v.X)
	return lat * 180.0 / math.Pi, lng * 180.0 / math.Pi
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product v · o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length ||v||.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector v / ||v||.
// If ||v|| == 0, it returns the zero vector (0,0,0).
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1.0 / n)
}

// RotateZ rotates v about the Z axis by -theta radians, i.e. it converts an
// inertial vector into a frame that has turned by theta.
func (v Vec3) RotateZ(theta float64) Vec3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Vec3{
		X: v.X*c + v.Y*s,
		Y: -v.X*s + v.Y*c,
		Z: v.Z,
	}
}

// Elevation returns the angle in radians between v and the plane whose
// normal is n. Both vectors must be unit length.
func Elevation(n, v Vec3) float64 {
	d := n.Dot(v)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Asin(d)
}

package projection

import (
	"fmt"
	"math"

	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/daylightmap/terminator"
)

// Position is a point on the output canvas; y grows downwards.
type Position struct {
	X, Y float64
}

// Plane is a linear equirectangular canvas of Width x Height units.
type Plane struct {
	Width  float64
	Height float64
}

// NewPlane returns a plane, rejecting non-positive or non-finite sizes.
func NewPlane(width, height float64) (Plane, error) {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return Plane{}, fmt.Errorf("invalid canvas size %vx%v", width, height)
		}
	}
	return Plane{Width: width, Height: height}, nil
}

// ToPlane maps c linearly: longitude -180..180 to x 0..Width and latitude
// 90..-90 to y 0..Height.
func (p Plane) ToPlane(c earth.GeoCoordinate) Position {
	return Position{
		X: (c.Lng + 180) * (p.Width / 360),
		Y: p.Height - (c.Lat+90)*(p.Height/180),
	}
}

// ToGeo is the inverse of ToPlane.
func (p Plane) ToGeo(pos Position) earth.GeoCoordinate {
	return earth.GeoCoordinate{
		Lat: (p.Height-pos.Y)/(p.Height/180) - 90,
		Lng: pos.X/(p.Width/360) - 180,
	}
}

// Project maps every coordinate of path.
func (p Plane) Project(path terminator.Path) []Position {
	out := make([]Position, len(path))
	for i, c := range path {
		out[i] = p.ToPlane(c)
	}
	return out
}

// NightEdge is the canvas edge the night region is anchored to: the bottom
// edge when the north pole is lit, the top edge otherwise.
func (p Plane) NightEdge(o terminator.Orientation) float64 {
	if o == terminator.NorthSun {
		return p.Height
	}
	return 0
}

// NightPolygon closes the projected terminator into the night fill region:
// (0, edge), path..., (Width, edge), back to (0, edge).
func (p Plane) NightPolygon(path terminator.Path, o terminator.Orientation) []Position {
	edge := p.NightEdge(o)
	poly := make([]Position, 0, len(path)+3)
	poly = append(poly, Position{X: 0, Y: edge})
	poly = append(poly, p.Project(path)...)
	poly = append(poly,
		Position{X: p.Width, Y: edge},
		Position{X: 0, Y: edge},
	)
	return poly
}

// BoundaryAt linearly interpolates the projected terminator's y value at
// canvas column x. Outside the path's span the nearest end is used.
func BoundaryAt(projected []Position, x float64) float64 {
	n := len(projected)
	if n == 0 {
		return 0
	}
	if x <= projected[0].X {
		return projected[0].Y
	}
	if x >= projected[n-1].X {
		return projected[n-1].Y
	}
	// Binary search for the segment containing x.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if projected[mid].X <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	a, b := projected[lo], projected[hi]
	f := (x - a.X) / (b.X - a.X)
	return a.Y + f*(b.Y-a.Y)
}

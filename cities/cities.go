// Package cities tracks populated places whose lights turn on after
// sunset.
package cities

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/daylightmap/terminator"
	"golang.org/x/sync/errgroup"
)

// Point is a tracked geographic point.
type Point struct {
	ID         int
	Name       string
	Country    string
	Population int
	Coord      earth.GeoCoordinate
	Radius     float64 // light radius in canvas units
}

// Radius maps a population onto the light radius drawn for a city.
func Radius(population int) float64 {
	switch {
	case population < 200_000:
		return 0.3
	case population < 500_000:
		return 0.4
	case population < 1_000_000:
		return 0.5
	case population < 2_000_000:
		return 0.6
	case population < 4_000_000:
		return 0.8
	default:
		return 1
	}
}

// Load decodes a city dataset: a JSON array of rows
//
//	[population, name, lat, lng, <ignored>, country]
//
// Numeric fields may be encoded as JSON numbers or strings. IDs are assigned
// in row order.
func Load(r io.Reader) ([]Point, error) {
	var rows [][]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding cities: %w", err)
	}
	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		p, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("cities row %d: %w", i, err)
		}
		p.ID = i
		points = append(points, p)
	}
	return points, nil
}

// LoadFile reads a city dataset from path.
func LoadFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func parseRow(row []json.RawMessage) (Point, error) {
	if len(row) < 4 {
		return Point{}, fmt.Errorf("want at least 4 fields, got %d", len(row))
	}
	pop, err := number(row[0])
	if err != nil {
		return Point{}, fmt.Errorf("population: %w", err)
	}
	lat, err := number(row[2])
	if err != nil {
		return Point{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := number(row[3])
	if err != nil {
		return Point{}, fmt.Errorf("longitude: %w", err)
	}
	coord, err := earth.NewGeoCoordinate(lat, lng)
	if err != nil {
		return Point{}, err
	}
	p := Point{
		Name:       text(row[1]),
		Population: int(pop),
		Coord:      coord,
		Radius:     Radius(int(pop)),
	}
	if len(row) > 5 {
		p.Country = text(row[5])
	}
	return p, nil
}

func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return strconv.ParseFloat(s, 64)
}

func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

// Delta reports a point whose lit state changed.
type Delta struct {
	Point   Point
	Lit     bool
	Opacity float64 // light opacity: 0 when lit, the configured lights opacity when dark
}

// Set holds tracked points and their last known lit state. A Set is not
// safe for concurrent use.
type Set struct {
	points        []Point
	lit           []bool
	known         []bool
	lightsOpacity float64
	workers       int
}

// NewSet returns an empty set. workers bounds concurrent evaluation in
// Refresh; <= 0 means one.
func NewSet(lightsOpacity float64, workers int) *Set {
	if workers <= 0 {
		workers = 1
	}
	return &Set{lightsOpacity: lightsOpacity, workers: workers}
}

// Add appends p after validating its coordinate. Its lit state is unknown
// until the next Refresh, which always reports it.
func (s *Set) Add(p Point) error {
	if err := p.Coord.Validate(); err != nil {
		return err
	}
	if p.Radius == 0 {
		p.Radius = Radius(p.Population)
	}
	s.points = append(s.points, p)
	s.lit = append(s.lit, false)
	s.known = append(s.known, false)
	return nil
}

// Len returns the number of tracked points.
func (s *Set) Len() int {
	return len(s.points)
}

// Points returns a copy of the tracked points.
func (s *Set) Points() []Point {
	return append([]Point(nil), s.points...)
}

// Lit reports the last computed lit state of the i'th point.
func (s *Set) Lit(i int) bool {
	return s.lit[i]
}

// LitCount returns how many points were lit at the last Refresh.
func (s *Set) LitCount() int {
	n := 0
	for _, l := range s.lit {
		if l {
			n++
		}
	}
	return n
}

// Opacity returns the light opacity for a lit state.
func (s *Set) Opacity(lit bool) float64 {
	if lit {
		return 0
	}
	return s.lightsOpacity
}

const chunk = 512

// Refresh recomputes every point's lit state at t and returns the points
// whose state changed, in insertion order.
func (s *Set) Refresh(p earth.Provider, t time.Time) []Delta {
	next := make([]bool, len(s.points))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for lo := 0; lo < len(s.points); lo += chunk {
		hi := min(lo+chunk, len(s.points))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				next[i] = terminator.IsLit(p, t, s.points[i].Coord)
			}
			return nil
		})
	}
	_ = g.Wait()

	var deltas []Delta
	for i, lit := range next {
		if s.known[i] && s.lit[i] == lit {
			continue
		}
		s.lit[i], s.known[i] = lit, true
		deltas = append(deltas, Delta{Point: s.points[i], Lit: lit, Opacity: s.Opacity(lit)})
	}
	return deltas
}

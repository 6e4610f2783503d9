package cities_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/echoflaresat/daylightmap/cities"
	"github.com/echoflaresat/daylightmap/earth"
)

func TestRadius(t *testing.T) {
	tests := []struct {
		pop  int
		want float64
	}{
		{0, 0.3},
		{199_999, 0.3},
		{200_000, 0.4},
		{499_999, 0.4},
		{500_000, 0.5},
		{999_999, 0.5},
		{1_000_000, 0.6},
		{3_999_999, 0.8},
		{4_000_000, 1},
		{30_000_000, 1},
	}
	for _, tt := range tests {
		if got := cities.Radius(tt.pop); got != tt.want {
			t.Errorf("Radius(%d) = %v, want %v", tt.pop, got, tt.want)
		}
	}
}

const dataset = `[
	[8336817, "New York", 40.71, -74.01, "x", "United States"],
	["13960000", "Tokyo", "35.69", "139.69", "x", "Japan"],
	[250000, "Reykjavik", 64.15, -21.94]
]`

func TestLoad(t *testing.T) {
	points, err := cities.Load(strings.NewReader(dataset))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("len = %d, want 3", len(points))
	}
	ny := points[0]
	if ny.Name != "New York" || ny.Country != "United States" || ny.Population != 8336817 || ny.Radius != 1 {
		t.Errorf("New York = %+v", ny)
	}
	if tokyo := points[1]; tokyo.ID != 1 || tokyo.Coord != (earth.GeoCoordinate{Lat: 35.69, Lng: 139.69}) {
		t.Errorf("Tokyo = %+v", tokyo)
	}
	if r := points[2]; r.Country != "" || r.Radius != 0.4 {
		t.Errorf("Reykjavik = %+v", r)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`[[1, "short"]]`,
		`[[1, "bad", 91, 0]]`,
		`[[1, "bad", "north", 0]]`,
	} {
		if _, err := cities.Load(strings.NewReader(in)); err == nil {
			t.Errorf("Load(%s): expected error", in)
		}
	}
	_, err := cities.Load(strings.NewReader(`[[1, "bad", 0, 200]]`))
	if !errors.Is(err, earth.ErrInvalidCoordinate) {
		t.Errorf("err = %v, want ErrInvalidCoordinate", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	if err := os.WriteFile(path, []byte(dataset), 0o600); err != nil {
		t.Fatal(err)
	}
	points, err := cities.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Errorf("len = %d, want 3", len(points))
	}
	if _, err := cities.LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

// litEast lights every point with non-negative longitude.
var litEast = earth.ProviderFunc(func(_ time.Time, _, lng float64) earth.Position {
	if lng >= 0 {
		return earth.Position{Altitude: 0.5}
	}
	return earth.Position{Altitude: -0.5}
})

var litWest = earth.ProviderFunc(func(_ time.Time, _, lng float64) earth.Position {
	if lng < 0 {
		return earth.Position{Altitude: 0.5}
	}
	return earth.Position{Altitude: -0.5}
})

func TestRefreshReportsChangesOnly(t *testing.T) {
	set := cities.NewSet(0.5, 4)
	for i, lng := range []float64{-120, -10, 10, 120} {
		if err := set.Add(cities.Point{ID: i, Coord: earth.GeoCoordinate{Lat: 0, Lng: lng}}); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()

	first := set.Refresh(litEast, now)
	if len(first) != 4 {
		t.Fatalf("first refresh: %d deltas, want 4", len(first))
	}
	for i, d := range first {
		if d.Point.ID != i {
			t.Errorf("delta %d has id %d", i, d.Point.ID)
		}
		wantLit := i >= 2
		if d.Lit != wantLit {
			t.Errorf("delta %d lit = %v", i, d.Lit)
		}
		if wantLit && d.Opacity != 0 || !wantLit && d.Opacity != 0.5 {
			t.Errorf("delta %d opacity = %v", i, d.Opacity)
		}
	}
	if got := set.LitCount(); got != 2 {
		t.Errorf("LitCount = %d", got)
	}

	if again := set.Refresh(litEast, now); len(again) != 0 {
		t.Errorf("unchanged refresh reported %d deltas", len(again))
	}
	if flipped := set.Refresh(litWest, now); len(flipped) != 4 {
		t.Errorf("flip reported %d deltas, want 4", len(flipped))
	}

	if err := set.Add(cities.Point{Population: 600_000, Coord: earth.GeoCoordinate{Lat: 0, Lng: -50}}); err != nil {
		t.Fatal(err)
	}
	added := set.Refresh(litWest, now)
	if len(added) != 1 || !added[0].Lit || added[0].Point.Radius != 0.5 {
		t.Errorf("new point deltas = %+v", added)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	set := cities.NewSet(0.5, 1)
	err := set.Add(cities.Point{Coord: earth.GeoCoordinate{Lat: 100}})
	if !errors.Is(err, earth.ErrInvalidCoordinate) {
		t.Errorf("err = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len = %d", set.Len())
	}
}

func TestRefreshManyPoints(t *testing.T) {
	set := cities.NewSet(0.5, 8)
	for i := 0; i < 2000; i++ {
		lng := -180 + float64(i%360)
		if err := set.Add(cities.Point{ID: i, Coord: earth.GeoCoordinate{Lat: 0, Lng: lng}}); err != nil {
			t.Fatal(err)
		}
	}
	deltas := set.Refresh(litEast, time.Now())
	if len(deltas) != 2000 {
		t.Fatalf("deltas = %d", len(deltas))
	}
	for i := 0; i < set.Len(); i++ {
		want := -180+float64(i%360) >= 0
		if set.Lit(i) != want {
			t.Fatalf("point %d lit = %v", i, set.Lit(i))
		}
	}
}

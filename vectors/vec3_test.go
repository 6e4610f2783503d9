package vectors

import (
	"math"
	"testing"
)

func TestFromLatLngRoundTrip(t *testing.T) {
	cases := []struct{ lat, lng float64 }{
		{0, 0}, {23.5, -45}, {-60, 170}, {89, -179},
	}
	for _, c := range cases {
		v := FromLatLng(c.lat, c.lng)
		if math.Abs(v.Norm()-1) > 1e-12 {
			t.Errorf("FromLatLng(%v, %v) not unit: %v", c.lat, c.lng, v.Norm())
		}
		lat, lng := v.LatLng()
		if math.Abs(lat-c.lat) > 1e-9 || math.Abs(lng-c.lng) > 1e-9 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", c.lat, c.lng, lat, lng)
		}
	}
}

func TestElevation(t *testing.T) {
	n := FromLatLng(0, 0)
	if got := Elevation(n, n); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("overhead elevation = %v, want pi/2", got)
	}
	if got := Elevation(n, FromLatLng(0, 90)); math.Abs(got) > 1e-9 {
		t.Errorf("horizon elevation = %v, want 0", got)
	}
	if got := Elevation(n, n.Scale(-1)); math.Abs(got+math.Pi/2) > 1e-9 {
		t.Errorf("nadir elevation = %v, want -pi/2", got)
	}
}

func TestRotateZ(t *testing.T) {
	v := Vec3{X: 1}
	r := v.RotateZ(math.Pi / 2)
	if math.Abs(r.X) > 1e-12 || math.Abs(r.Y+1) > 1e-12 {
		t.Errorf("RotateZ(pi/2) = %+v, want (0,-1,0)", r)
	}
}

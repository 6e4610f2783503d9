package earth

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// SunTimes returns sunrise and sunset (UTC) at c on the calendar date of
// day. ok is false during polar day or polar night.
func SunTimes(c GeoCoordinate, day time.Time) (rise, set time.Time, ok bool) {
	rise, set = sunrise.SunriseSunset(c.Lat, c.Lng, day.Year(), day.Month(), day.Day())
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return rise, set, true
}

// Package navcalc implements the navigation arithmetic used to build flight
// plans: great-circle distance and initial course on a spherical earth, the
// wind triangle, and magnetic declination.
//
// All functions are pure and safe for concurrent use.
package navcalc

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// ErrInvalidCoordinate is returned when a latitude or longitude is outside
// its valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

func validateCoordinates(lat1, lon1, lat2, lon2 float64) error {
	// Written as negated ranges so NaN fails too.
	if !(lat1 >= -90 && lat1 <= 90 && lat2 >= -90 && lat2 <= 90) {
		return fmt.Errorf("%w: both latitudes must be in [-90, 90]", ErrInvalidCoordinate)
	}
	if !(lon1 >= -180 && lon1 <= 180 && lon2 >= -180 && lon2 <= 180) {
		return fmt.Errorf("%w: both longitudes must be in [-180, 180]", ErrInvalidCoordinate)
	}
	return nil
}

// Distance returns the great-circle distance in nautical miles between two
// lat-long coordinates given in degrees, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := validateCoordinates(lat1, lon1, lat2, lon2); err != nil {
		return 0, err
	}

	phi1, phi2 := Radians(lat1), Radians(lat2)
	dphi := phi2 - phi1
	dlambda := Radians(lon2) - Radians(lon1)

	a := sqr(math.Sin(dphi/2)) + math.Cos(phi1)*math.Cos(phi2)*sqr(math.Sin(dlambda/2))
	c := 2 * math.Asin(math.Sqrt(a))
	return c * EarthRadiusNM, nil
}

// Course returns the initial true course in degrees, in [0, 360), for the
// great circle from the first coordinate to the second. Coincident points
// give 0.
func Course(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := validateCoordinates(lat1, lon1, lat2, lon2); err != nil {
		return 0, err
	}

	phi1, phi2 := Radians(lat1), Radians(lat2)
	dlambda := Radians(lon2 - lon1)

	y := math.Sin(dlambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dlambda)
	return NormalizeDegrees(Degrees(math.Atan2(y, x))), nil
}

// NormalizeDegrees maps an angle in degrees into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -tiny + 360 rounds to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg / 180 * math.Pi
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func sqr(v float64) float64 {
	return v * v
}

package navcalc

// DefaultDeclination is the magnetic declination, in degrees, used when no
// geomagnetic model is available. It is a placeholder, not a measurement.
const DefaultDeclination = 6.0

// DeclinationFunc returns the magnetic declination in degrees at a
// position. Positive values are east declination.
type DeclinationFunc func(lat, lon float64) float64

// Declination returns override if it is non-nil, otherwise
// DefaultDeclination. The position is currently ignored.
func Declination(lat, lon float64, override *float64) float64 {
	if override != nil {
		return *override
	}
	return DefaultDeclination
}

// FixedDeclination returns a DeclinationFunc that reports deg everywhere.
func FixedDeclination(deg float64) DeclinationFunc {
	return func(lat, lon float64) float64 {
		return Declination(lat, lon, &deg)
	}
}

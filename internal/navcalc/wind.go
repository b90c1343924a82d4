package navcalc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidWindTriangle is returned when the inputs to SolveWindTriangle
// are out of range, including a wind at or above the true airspeed.
var ErrInvalidWindTriangle = errors.New("invalid wind triangle")

// SolveWindTriangle resolves ground speed (knots) and wind correction angle
// (degrees) for flying trueCourse at tas through a wind blowing from windDir
// at windSpeed. A positive WCA means the heading is to the right of the
// course.
//
// windSpeed must be strictly below tas; this keeps the crosswind ratio
// inside the domain of asin.
func SolveWindTriangle(trueCourse, tas, windDir, windSpeed float64) (groundSpeed, wca float64, err error) {
	switch {
	case !(trueCourse >= 0 && trueCourse < 360):
		return 0, 0, fmt.Errorf("%w: true course must be in [0, 360) degrees", ErrInvalidWindTriangle)
	case !(tas > 0):
		return 0, 0, fmt.Errorf("%w: TAS must be positive", ErrInvalidWindTriangle)
	case !(windDir >= 0 && windDir < 360):
		return 0, 0, fmt.Errorf("%w: wind direction must be in [0, 360) degrees", ErrInvalidWindTriangle)
	case !(windSpeed >= 0):
		return 0, 0, fmt.Errorf("%w: wind speed cannot be negative", ErrInvalidWindTriangle)
	case windSpeed >= tas:
		return 0, 0, fmt.Errorf("%w: wind speed (%s kt) >= TAS (%s kt)", ErrInvalidWindTriangle,
			formatKnots(windSpeed), formatKnots(tas))
	}

	windAngle := Radians(windDir) - Radians(trueCourse)
	crosswind := windSpeed * math.Sin(windAngle)
	wcaRad := math.Asin(crosswind / tas)
	groundSpeed = tas*math.Cos(wcaRad) - windSpeed*math.Cos(windAngle)
	return groundSpeed, Degrees(wcaRad), nil
}

func formatKnots(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

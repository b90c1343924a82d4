package flightplan

import (
	"errors"
	"fmt"
	"math"

	"flightplanner/internal/navcalc"
)

// ErrNonPositiveGroundSpeed is returned when a leg cannot be flown because
// the resolved ground speed is zero or negative.
var ErrNonPositiveGroundSpeed = errors.New("ground speed non-positive")

// Planner builds flight plans using a magnetic declination strategy.
// It holds no mutable state and may be shared between goroutines.
type Planner struct {
	declination navcalc.DeclinationFunc
}

// NewPlanner returns a Planner that uses decl for magnetic declination.
// A nil decl falls back to navcalc.DefaultDeclination.
func NewPlanner(decl navcalc.DeclinationFunc) *Planner {
	if decl == nil {
		decl = func(lat, lon float64) float64 {
			return navcalc.Declination(lat, lon, nil)
		}
	}
	return &Planner{declination: decl}
}

var defaultPlanner = NewPlanner(nil)

// NewLeg builds the leg from p1 to p2. Declination is taken at p1.
func (p *Planner) NewLeg(p1, p2 Point) (Leg, error) {
	dist, err := navcalc.Distance(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	if err != nil {
		return Leg{}, err
	}
	tc, err := navcalc.Course(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	if err != nil {
		return Leg{}, err
	}

	return Leg{
		Start:               p1,
		End:                 p2,
		DistanceNM:          dist,
		TrueCourse:          tc,
		MagneticDeclination: p.declination(p1.Lat, p1.Lon),
	}, nil
}

// NewRoute chains points into consecutive legs in the order given. Fewer
// than two points yield a route with no legs and zero distance.
func (p *Planner) NewRoute(points []Point) (Route, error) {
	pts := append([]Point(nil), points...)
	if len(pts) < 2 {
		return Route{Points: pts}, nil
	}

	legs := make([]Leg, 0, len(pts)-1)
	var total float64
	for i := 0; i+1 < len(pts); i++ {
		leg, err := p.NewLeg(pts[i], pts[i+1])
		if err != nil {
			return Route{}, err
		}
		legs = append(legs, leg)
		total += leg.DistanceNM
	}

	return Route{Points: pts, Legs: legs, TotalDistanceNM: total}, nil
}

// Compute builds the route through points and its nav log for the given
// aircraft and wind. It is the entry point used by the HTTP layer. Errors
// from navcalc and ErrNonPositiveGroundSpeed are returned as raised.
func (p *Planner) Compute(points []Point, aircraft Aircraft, wind Wind) (FlightPlan, error) {
	route, err := p.NewRoute(points)
	if err != nil {
		return FlightPlan{}, err
	}
	return NewFlightPlan(route, aircraft, wind)
}

// NewLeg builds a leg using the default declination.
func NewLeg(p1, p2 Point) (Leg, error) {
	return defaultPlanner.NewLeg(p1, p2)
}

// NewRoute builds a route using the default declination.
func NewRoute(points []Point) (Route, error) {
	return defaultPlanner.NewRoute(points)
}

// Compute builds a flight plan using the default declination.
func Compute(points []Point, aircraft Aircraft, wind Wind) (FlightPlan, error) {
	return defaultPlanner.Compute(points, aircraft, wind)
}

// NewNavLogLeg applies the wind triangle to leg. The leg time is rounded
// half-to-even to whole minutes.
func NewNavLogLeg(leg Leg, aircraft Aircraft, wind Wind) (NavLogLeg, error) {
	gs, wca, err := navcalc.SolveWindTriangle(leg.TrueCourse, aircraft.TAS, wind.Direction, wind.Speed)
	if err != nil {
		return NavLogLeg{}, err
	}
	if gs <= 0 {
		return NavLogLeg{}, fmt.Errorf("%w: %.1f kt on course %.0f", ErrNonPositiveGroundSpeed, gs, leg.TrueCourse)
	}

	th := navcalc.NormalizeDegrees(leg.TrueCourse + wca)
	mh := navcalc.NormalizeDegrees(th - leg.MagneticDeclination)
	minutes := int(math.RoundToEven(leg.DistanceNM / gs * 60))

	return NavLogLeg{
		Leg:             leg,
		Wind:            wind,
		GroundSpeed:     gs,
		WCA:             wca,
		TrueHeading:     th,
		MagneticHeading: mh,
		TimeMin:         minutes,
		FuelGal:         aircraft.GPH * float64(minutes) / 60,
	}, nil
}

// NewNavLog computes a row for every leg of route. The first leg that
// fails aborts the whole log.
func NewNavLog(route Route, aircraft Aircraft, wind Wind) (NavLog, error) {
	rows := make([]NavLogLeg, 0, len(route.Legs))
	var minutes int
	var fuel float64
	for _, leg := range route.Legs {
		row, err := NewNavLogLeg(leg, aircraft, wind)
		if err != nil {
			return NavLog{}, err
		}
		rows = append(rows, row)
		minutes += row.TimeMin
		fuel += row.FuelGal
	}

	return NavLog{
		Rows:            rows,
		TotalTimeMin:    minutes,
		TotalDistanceNM: route.TotalDistanceNM,
		TotalFuelGal:    fuel,
	}, nil
}

// NewFlightPlan packages route, aircraft and wind with the nav log computed
// from them.
func NewFlightPlan(route Route, aircraft Aircraft, wind Wind) (FlightPlan, error) {
	navLog, err := NewNavLog(route, aircraft, wind)
	if err != nil {
		return FlightPlan{}, err
	}
	return FlightPlan{
		Route:    route,
		Aircraft: aircraft,
		Wind:     wind,
		NavLog:   navLog,
	}, nil
}

package flightplan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightplanner/internal/navcalc"
)

var testAircraft = Aircraft{Registration: "SP-ABC", Model: "C172", TAS: 120, GPH: 8}

func TestNewLeg(t *testing.T) {
	p1 := Point{Lat: 50, Lon: 20, Ident: "A"}
	p2 := Point{Lat: 51, Lon: 21, Ident: "B"}

	leg, err := NewLeg(p1, p2)
	require.NoError(t, err)

	assert.Equal(t, p1, leg.Start)
	assert.Equal(t, p2, leg.End)
	assert.InDelta(t, 71.1, leg.DistanceNM, 0.1)
	assert.InDelta(t, 32, leg.TrueCourse, 1)
	assert.Equal(t, navcalc.DefaultDeclination, leg.MagneticDeclination)
}

func TestNewLeg_InvalidCoordinate(t *testing.T) {
	_, err := NewLeg(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 200})
	require.ErrorIs(t, err, navcalc.ErrInvalidCoordinate)
}

func TestPlanner_DeclinationAnchoredAtStart(t *testing.T) {
	var gotLat, gotLon float64
	p := NewPlanner(func(lat, lon float64) float64 {
		gotLat, gotLon = lat, lon
		return -2
	})

	leg, err := p.NewLeg(Point{Lat: 10, Lon: 20}, Point{Lat: 11, Lon: 21})
	require.NoError(t, err)

	assert.Equal(t, -2.0, leg.MagneticDeclination)
	assert.Equal(t, 10.0, gotLat)
	assert.Equal(t, 20.0, gotLon)
}

func TestNewRoute_FewerThanTwoPoints(t *testing.T) {
	for _, pts := range [][]Point{nil, {{Lat: 1, Lon: 2}}} {
		route, err := NewRoute(pts)
		require.NoError(t, err)
		assert.Empty(t, route.Legs)
		assert.Zero(t, route.TotalDistanceNM)
		assert.Len(t, route.Points, len(pts))
	}
}

func TestNewRoute_TotalIsSumOfLegs(t *testing.T) {
	all := []Point{
		{Lat: 52.17, Lon: 20.97, Ident: "EPWA"},
		{Lat: 51.10, Lon: 17.03, Ident: "EPWR"},
		{Lat: 50.08, Lon: 19.78, Ident: "EPKK"},
		{Lat: 49.50, Lon: 22.00},
		{Lat: 53.48, Lon: 18.00, Ident: "EPBY"},
	}

	for n := 2; n <= len(all); n++ {
		t.Run(fmt.Sprintf("%d points", n), func(t *testing.T) {
			route, err := NewRoute(all[:n])
			require.NoError(t, err)
			require.Len(t, route.Legs, n-1)

			var sum float64
			for i, leg := range route.Legs {
				assert.Equal(t, all[i], leg.Start)
				assert.Equal(t, all[i+1], leg.End)
				sum += leg.DistanceNM
			}
			assert.InDelta(t, sum, route.TotalDistanceNM, 1e-9)
		})
	}
}

func TestNewRoute_DoesNotAliasInput(t *testing.T) {
	pts := []Point{{Lat: 0, Lon: 0, Ident: "A"}, {Lat: 0, Lon: 1, Ident: "B"}}
	route, err := NewRoute(pts)
	require.NoError(t, err)

	pts[0].Ident = "changed"
	assert.Equal(t, "A", route.Points[0].Ident)
}

func TestNewRoute_FailsOnAnyBadPoint(t *testing.T) {
	pts := []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 95, Lon: 1}}
	_, err := NewRoute(pts)
	require.ErrorIs(t, err, navcalc.ErrInvalidCoordinate)
}

func TestNewNavLogLeg_Headings(t *testing.T) {
	leg := Leg{DistanceNM: 100, TrueCourse: 0, MagneticDeclination: 6}
	row, err := NewNavLogLeg(leg, Aircraft{TAS: 100, GPH: 6}, Wind{Direction: 90, Speed: 10})
	require.NoError(t, err)

	assert.InDelta(t, 99.5, row.GroundSpeed, 0.1)
	assert.InDelta(t, 5.7, row.WCA, 0.1)
	assert.InDelta(t, navcalc.NormalizeDegrees(row.WCA), row.TrueHeading, 1e-9)
	assert.InDelta(t, navcalc.NormalizeDegrees(row.TrueHeading-6), row.MagneticHeading, 1e-9)
	assert.Equal(t, 60, row.TimeMin)
	assert.InDelta(t, 6.0, row.FuelGal, 1e-9)
}

func TestNewNavLogLeg_HeadingWrapsBelowZero(t *testing.T) {
	// Wind from the left on a northerly course pushes the heading below 0.
	leg := Leg{DistanceNM: 10, TrueCourse: 2, MagneticDeclination: 6}
	row, err := NewNavLogLeg(leg, Aircraft{TAS: 100}, Wind{Direction: 270, Speed: 10})
	require.NoError(t, err)

	assert.InDelta(t, 2+row.WCA+360, row.TrueHeading, 1e-9)
	assert.Less(t, row.TrueHeading, 360.0)
	assert.GreaterOrEqual(t, row.MagneticHeading, 0.0)
	assert.Less(t, row.MagneticHeading, 360.0)
}

func TestNewNavLogLeg_WindTriangleErrorPropagates(t *testing.T) {
	leg := Leg{DistanceNM: 10, TrueCourse: 90}
	_, err := NewNavLogLeg(leg, Aircraft{TAS: 100}, Wind{Direction: 0, Speed: 100})
	require.ErrorIs(t, err, navcalc.ErrInvalidWindTriangle)
	assert.Contains(t, err.Error(), "wind speed (100 kt) >= TAS (100 kt)")
}

func TestNewNavLogLeg_GroundSpeedAlwaysPositiveBelowTAS(t *testing.T) {
	for course := 0.0; course < 360; course += 15 {
		for dir := 0.0; dir < 360; dir += 15 {
			leg := Leg{DistanceNM: 50, TrueCourse: course}
			row, err := NewNavLogLeg(leg, Aircraft{TAS: 100}, Wind{Direction: dir, Speed: 99})
			require.NoError(t, err)
			assert.Positive(t, row.GroundSpeed)
		}
	}
}

func TestNewNavLog_TotalIsSumOfRoundedLegMinutes(t *testing.T) {
	// At 60 kt with no wind each leg takes 0.4 minutes and rounds to 0;
	// the unrounded total of 1.2 minutes would round to 1.
	legs := []Leg{
		{DistanceNM: 0.4, TrueCourse: 0},
		{DistanceNM: 0.4, TrueCourse: 90},
		{DistanceNM: 0.4, TrueCourse: 180},
	}
	route := Route{Legs: legs, TotalDistanceNM: 1.2}

	log, err := NewNavLog(route, Aircraft{TAS: 60}, Wind{})
	require.NoError(t, err)

	require.Len(t, log.Rows, 3)
	for _, row := range log.Rows {
		assert.Equal(t, 0, row.TimeMin)
	}
	assert.Equal(t, 0, log.TotalTimeMin)
	assert.Equal(t, 1.2, log.TotalDistanceNM)
}

func TestNewNavLog_StopsAtFirstFailingLeg(t *testing.T) {
	route := Route{Legs: []Leg{
		{DistanceNM: 10, TrueCourse: 0},
		{DistanceNM: 10, TrueCourse: 400},
	}}
	_, err := NewNavLog(route, Aircraft{TAS: 100}, Wind{})
	require.ErrorIs(t, err, navcalc.ErrInvalidWindTriangle)
}

func TestCompute_TwoPointRoute(t *testing.T) {
	points := []Point{{Lat: 0, Lon: 0, Ident: "A"}, {Lat: 0, Lon: 1, Ident: "B"}}

	plan, err := Compute(points, testAircraft, Wind{})
	require.NoError(t, err)

	require.Len(t, plan.Route.Legs, 1)
	leg := plan.Route.Legs[0]
	assert.Equal(t, leg.DistanceNM, plan.Route.TotalDistanceNM)
	assert.Equal(t, plan.Route.TotalDistanceNM, plan.NavLog.TotalDistanceNM)

	require.Len(t, plan.NavLog.Rows, 1)
	row := plan.NavLog.Rows[0]
	assert.Equal(t, row.TimeMin, plan.NavLog.TotalTimeMin)
	assert.Equal(t, 30, row.TimeMin)
	assert.InDelta(t, 120, row.GroundSpeed, 1e-9)
	assert.InDelta(t, 90, row.TrueHeading, 1e-6)
	assert.InDelta(t, 84, row.MagneticHeading, 1e-6)
	assert.InDelta(t, 4.0, plan.NavLog.TotalFuelGal, 1e-9)

	assert.Equal(t, testAircraft, plan.Aircraft)
	assert.Equal(t, Wind{}, plan.Wind)
}

func TestCompute_MultiLegTotals(t *testing.T) {
	points := []Point{
		{Lat: 52.17, Lon: 20.97},
		{Lat: 51.10, Lon: 17.03},
		{Lat: 50.08, Lon: 19.78},
		{Lat: 52.17, Lon: 20.97},
	}
	plan, err := Compute(points, testAircraft, Wind{Direction: 250, Speed: 25})
	require.NoError(t, err)

	var minutes int
	var fuel float64
	for _, row := range plan.NavLog.Rows {
		minutes += row.TimeMin
		fuel += row.FuelGal
	}
	assert.Equal(t, minutes, plan.NavLog.TotalTimeMin)
	assert.InDelta(t, fuel, plan.NavLog.TotalFuelGal, 1e-9)
	assert.Len(t, plan.NavLog.Rows, 3)
}

func TestCompute_CustomDeclination(t *testing.T) {
	p := NewPlanner(navcalc.FixedDeclination(-10))
	points := []Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}

	plan, err := p.Compute(points, testAircraft, Wind{})
	require.NoError(t, err)
	assert.InDelta(t, 100, plan.NavLog.Rows[0].MagneticHeading, 1e-6)
}

func TestCompute_ErrorsPropagate(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		wind    Wind
		wantErr error
	}{
		{
			name:    "invalid coordinate",
			points:  []Point{{Lat: 0, Lon: 0}, {Lat: -91, Lon: 0}},
			wantErr: navcalc.ErrInvalidCoordinate,
		},
		{
			name:    "wind at TAS",
			points:  []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}},
			wind:    Wind{Direction: 0, Speed: 120},
			wantErr: navcalc.ErrInvalidWindTriangle,
		},
		{
			name:    "wind direction out of range",
			points:  []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}},
			wind:    Wind{Direction: 360, Speed: 10},
			wantErr: navcalc.ErrInvalidWindTriangle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.points, testAircraft, tt.wind)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompute_SinglePointHasEmptyNavLog(t *testing.T) {
	plan, err := Compute([]Point{{Lat: 10, Lon: 10}}, testAircraft, Wind{})
	require.NoError(t, err)
	assert.Empty(t, plan.NavLog.Rows)
	assert.Zero(t, plan.NavLog.TotalTimeMin)
}

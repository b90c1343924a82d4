// Package flightplan chains navcalc results into legs, routes, nav logs and
// flight plans.
//
// Every type here is a value built once by its constructor and never
// modified afterwards. A FlightPlan lives for a single request.
package flightplan

// Point is a route waypoint in degrees. Ident is an optional label; the
// empty string means the point has none.
type Point struct {
	Lat   float64
	Lon   float64
	Ident string
}

// Leg is the great-circle segment between two consecutive waypoints.
type Leg struct {
	Start               Point
	End                 Point
	DistanceNM          float64
	TrueCourse          float64 // [0, 360)
	MagneticDeclination float64 // at Start
}

// Route is an ordered list of waypoints and the legs joining them.
// Legs[i] connects Points[i] to Points[i+1].
type Route struct {
	Points          []Point
	Legs            []Leg
	TotalDistanceNM float64
}

// Aircraft holds the performance figures the nav log needs.
type Aircraft struct {
	Registration string
	Model        string
	TAS          float64 // knots
	GPH          float64 // gallons per hour
}

// Wind is a single wind vector applied to every leg. Direction is where
// the wind blows from, in degrees true.
type Wind struct {
	Direction float64
	Speed     float64 // knots
}

// NavLogLeg is one row of the nav log.
type NavLogLeg struct {
	Leg             Leg
	Wind            Wind
	GroundSpeed     float64
	WCA             float64
	TrueHeading     float64
	MagneticHeading float64
	TimeMin         int
	FuelGal         float64
}

// NavLog is the per-leg table for a route. TotalTimeMin is the sum of the
// already rounded row times.
type NavLog struct {
	Rows            []NavLogLeg
	TotalTimeMin    int
	TotalDistanceNM float64
	TotalFuelGal    float64
}

// FlightPlan is the complete result for one request.
type FlightPlan struct {
	Route    Route
	Aircraft Aircraft
	Wind     Wind
	NavLog   NavLog
}

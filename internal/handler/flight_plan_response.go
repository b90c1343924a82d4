package handler

import (
	"math"

	"flightplanner/internal/flightplan"
)

type pointOutput struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Ident *string `json:"ident"`
}

type legOutput struct {
	StartPoint          pointOutput `json:"start_point"`
	EndPoint            pointOutput `json:"end_point"`
	DistanceNM          float64     `json:"distance_nm"`
	TrueCourse          int         `json:"true_course"`
	MagneticDeclination int         `json:"magnetic_declination"`
}

type windOutput struct {
	Direction int `json:"direction"`
	Speed     int `json:"speed"`
}

type navLogRowOutput struct {
	Leg             legOutput  `json:"leg"`
	Wind            windOutput `json:"wind"`
	GroundSpeed     int        `json:"ground_speed"`
	WCA             int        `json:"wca"`
	TrueHeading     int        `json:"true_heading"`
	MagneticHeading int        `json:"magnetic_heading"`
	TimeMin         int        `json:"time_min"`
	FuelGal         float64    `json:"fuel_gal"`
}

type navLogOutput struct {
	Rows            []navLogRowOutput `json:"rows"`
	TotalTimeMin    int               `json:"total_time_min"`
	TotalDistanceNM float64           `json:"total_distance_nm"`
	TotalFuelGal    float64           `json:"total_fuel_gal"`
}

type routeOutput struct {
	Points          []pointOutput `json:"points"`
	Legs            []legOutput   `json:"legs"`
	TotalDistanceNM float64       `json:"total_distance_nm"`
}

type aircraftOutput struct {
	Registration string  `json:"registration"`
	Model        string  `json:"model"`
	TAS          float64 `json:"tas"`
	GPH          float64 `json:"gph"`
}

// flightPlanResponse is the rendered flight plan. Distances and fuel carry
// one decimal, angles and speeds are whole numbers.
type flightPlanResponse struct {
	Route    routeOutput    `json:"route"`
	Aircraft aircraftOutput `json:"aircraft"`
	Wind     windOutput     `json:"wind"`
	NavLog   navLogOutput   `json:"nav_log"`
}

func toFlightPlanResponse(fp flightplan.FlightPlan) flightPlanResponse {
	points := make([]pointOutput, len(fp.Route.Points))
	for i, p := range fp.Route.Points {
		points[i] = toPointOutput(p)
	}

	legs := make([]legOutput, len(fp.Route.Legs))
	for i, l := range fp.Route.Legs {
		legs[i] = toLegOutput(l)
	}

	rows := make([]navLogRowOutput, len(fp.NavLog.Rows))
	for i, row := range fp.NavLog.Rows {
		rows[i] = navLogRowOutput{
			Leg:             toLegOutput(row.Leg),
			Wind:            toWindOutput(row.Wind),
			GroundSpeed:     roundInt(row.GroundSpeed),
			WCA:             roundInt(row.WCA),
			TrueHeading:     roundInt(row.TrueHeading),
			MagneticHeading: roundInt(row.MagneticHeading),
			TimeMin:         row.TimeMin,
			FuelGal:         round1(row.FuelGal),
		}
	}

	return flightPlanResponse{
		Route: routeOutput{
			Points:          points,
			Legs:            legs,
			TotalDistanceNM: round1(fp.Route.TotalDistanceNM),
		},
		Aircraft: aircraftOutput{
			Registration: fp.Aircraft.Registration,
			Model:        fp.Aircraft.Model,
			TAS:          fp.Aircraft.TAS,
			GPH:          fp.Aircraft.GPH,
		},
		Wind: toWindOutput(fp.Wind),
		NavLog: navLogOutput{
			Rows:            rows,
			TotalTimeMin:    fp.NavLog.TotalTimeMin,
			TotalDistanceNM: round1(fp.NavLog.TotalDistanceNM),
			TotalFuelGal:    round1(fp.NavLog.TotalFuelGal),
		},
	}
}

func toPointOutput(p flightplan.Point) pointOutput {
	out := pointOutput{Lat: p.Lat, Lon: p.Lon}
	if p.Ident != "" {
		ident := p.Ident
		out.Ident = &ident
	}
	return out
}

func toLegOutput(l flightplan.Leg) legOutput {
	return legOutput{
		StartPoint:          toPointOutput(l.Start),
		EndPoint:            toPointOutput(l.End),
		DistanceNM:          round1(l.DistanceNM),
		TrueCourse:          roundInt(l.TrueCourse),
		MagneticDeclination: roundInt(l.MagneticDeclination),
	}
}

func toWindOutput(w flightplan.Wind) windOutput {
	return windOutput{Direction: roundInt(w.Direction), Speed: roundInt(w.Speed)}
}

// roundInt rounds half to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

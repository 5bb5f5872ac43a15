package stravastats

import "time"

// ActivitySummary is an entry of the athlete activities listing
type ActivitySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Activity is the detailed activity payload as returned by the api
type Activity struct {
	ID                 int64      `json:"id"`
	Name               *string    `json:"name"`
	Type               *string    `json:"type"`
	StartDateLocal     *time.Time `json:"start_date_local"`
	Distance           *float64   `json:"distance"`
	MovingTime         *int64     `json:"moving_time"`
	ElapsedTime        *int64     `json:"elapsed_time"`
	TotalElevationGain *float64   `json:"total_elevation_gain"`
	AverageSpeed       *float64   `json:"average_speed"`
	MaxSpeed           *float64   `json:"max_speed"`
	Calories           *float64   `json:"calories"`
	AverageHeartrate   *float64   `json:"average_heartrate"`
	MaxHeartrate       *float64   `json:"max_heartrate"`
}

// Record is a normalized activity, distances in kilometers and speeds in km/h
type Record struct {
	Name                *string    `json:"name,omitempty"`
	Type                *string    `json:"type"`
	StartDateLocal      *time.Time `json:"start_date_local"`
	DistanceKm          float64    `json:"distance_km"`
	MovingTimeS         *int64     `json:"moving_time_s"`
	TotalElevationGainM *float64   `json:"total_elevation_gain_m"`
	AverageSpeedKmh     float64    `json:"average_speed_kmh"`
	Calories            *float64   `json:"calories"`
	AverageHeartrate    *float64   `json:"average_heartrate"`
	MaxHeartrate        *float64   `json:"max_heartrate"`
}

// Columns are the field names of a Record in output order
var Columns = []string{
	"name",
	"type",
	"start_date_local",
	"distance_km",
	"moving_time_s",
	"total_elevation_gain_m",
	"average_speed_kmh",
	"calories",
	"average_heartrate",
	"max_heartrate",
}

type TypeSummary struct {
	Type             string  `json:"type"`
	Count            int     `json:"count"`
	AverageHeartrate float64 `json:"average_heart_rate"`
	TotalCalories    float64 `json:"total_calories"`
	TotalDistanceKm  float64 `json:"total_distance"`
	TotalElevationM  float64 `json:"total_elevation"`
}

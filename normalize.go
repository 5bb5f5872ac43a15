package stravastats

const (
	metersPerKilometer = 1000.0
	mpsToKph           = 3.6
)

// Normalize reduces an activity payload to a Record, converting distance to
// kilometers and average speed to km/h. Missing distance or speed become 0;
// other missing fields stay nil. The payload is not modified.
func Normalize(act *Activity) *Record {
	rec := &Record{
		Name:                copyOf(act.Name),
		Type:                copyOf(act.Type),
		StartDateLocal:      copyOf(act.StartDateLocal),
		MovingTimeS:         copyOf(act.MovingTime),
		TotalElevationGainM: copyOf(act.TotalElevationGain),
		Calories:            copyOf(act.Calories),
		AverageHeartrate:    copyOf(act.AverageHeartrate),
		MaxHeartrate:        copyOf(act.MaxHeartrate),
	}
	if act.Distance != nil {
		rec.DistanceKm = *act.Distance / metersPerKilometer
	}
	if act.AverageSpeed != nil {
		rec.AverageSpeedKmh = *act.AverageSpeed * mpsToKph
	}
	return rec
}

func copyOf[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

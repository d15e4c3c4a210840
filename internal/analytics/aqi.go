package analytics

// Level is one of the six ordinal AQI bands.
type Level string

const (
	LevelGood          Level = "good"
	LevelModerate      Level = "moderate"
	LevelUnhealthySens Level = "unhealthy_for_sensitive_groups"
	LevelUnhealthy     Level = "unhealthy"
	LevelVeryUnhealthy Level = "very_unhealthy"
	LevelHazardous     Level = "hazardous"
)

// AQILevel maps a numeric AQI value to its band. The classification is a
// non-decreasing step function with breakpoints at 50, 100, 150, 200 and 300.
func AQILevel(value float64) Level {
	switch {
	case value <= 50:
		return LevelGood
	case value <= 100:
		return LevelModerate
	case value <= 150:
		return LevelUnhealthySens
	case value <= 200:
		return LevelUnhealthy
	case value <= 300:
		return LevelVeryUnhealthy
	default:
		return LevelHazardous
	}
}

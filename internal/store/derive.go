package store

import "time"

// RankingDelta computes the derived AQI delta for a ranking row:
// average minus previous-day average. When either side is absent the row is
// treated as unchanged and the delta is 0. The delta is always recomputed at
// write time and never trusted from a feed.
func RankingDelta(avg, prev *float64) float64 {
	if avg == nil || prev == nil {
		return 0
	}
	return *avg - *prev
}

// ForecastClass holds the derived classification of a forecast point relative
// to the date the forecast was produced.
type ForecastClass struct {
	DaysAhead    int
	IsHistorical bool
	IsCurrent    bool
	IsForecast   bool
}

// ClassifyForecast derives days_ahead and the three exclusive booleans from
// (forecast_date - base_date). Exactly one boolean is true, matching the sign
// of DaysAhead. Both dates are compared at day granularity in UTC.
func ClassifyForecast(forecastDate, baseDate time.Time) ForecastClass {
	days := int(truncateDay(forecastDate).Sub(truncateDay(baseDate)).Hours() / 24)
	return ForecastClass{
		DaysAhead:    days,
		IsHistorical: days < 0,
		IsCurrent:    days == 0,
		IsForecast:   days > 0,
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package analytics

import (
	"context"
	"time"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// ReadingSource is the slice of the repository that trend analysis reads from.
type ReadingSource interface {
	ListReadingsSince(ctx context.Context, districtInternalID, componentID string, since time.Time) ([]store.CurrentReading, error)
}

// Direction classifies a day-over-day AQI change.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionUnchanged  Direction = "unchanged"
)

// TrendPoint is one day of a district's trend: the reading, the delta against
// the prior day's value, and its classification. The first day of a window has
// no prior day and therefore no delta.
type TrendPoint struct {
	Date      time.Time `json:"date"`
	AQIValue  *float64  `json:"aqi_value,omitempty"`
	Level     *Level    `json:"level,omitempty"`
	Delta     *float64  `json:"delta,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Trend pulls a district's AQI readings over the trailing windowDays and
// computes per-day deltas against the prior day. A delta of exactly 0
// classifies as unchanged. The returned sequence is ordered by date.
func Trend(ctx context.Context, src ReadingSource, districtInternalID string, windowDays int, now time.Time) ([]TrendPoint, error) {
	since := now.UTC().AddDate(0, 0, -windowDays)
	readings, err := src.ListReadingsSince(ctx, districtInternalID, "aqi", since)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(readings))
	var prev *float64
	for _, r := range readings {
		p := TrendPoint{Date: r.MeasurementDate, AQIValue: r.AQIValue}
		if r.AQIValue != nil {
			level := AQILevel(*r.AQIValue)
			p.Level = &level
			if prev != nil {
				delta := *r.AQIValue - *prev
				p.Delta = &delta
				switch {
				case delta > 0:
					p.Direction = DirectionIncreasing
				case delta < 0:
					p.Direction = DirectionDecreasing
				default:
					p.Direction = DirectionUnchanged
				}
			}
			prev = r.AQIValue
		}
		points = append(points, p)
	}
	return points, nil
}

package store

import (
	"context"
	"time"
)

const upsertHistoricalSQL = `
INSERT INTO historical_points (province_id, measurement_date, pm25_value, aqi_value, component_id, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (province_id, measurement_date, component_id) DO UPDATE
SET pm25_value = EXCLUDED.pm25_value,
    aqi_value = EXCLUDED.aqi_value,
    updated_at = NOW()
`

// UpsertHistoricalPoint writes one province-level daily value. The province
// must already exist; unlike districts, provinces are never auto-created.
func (s *Store) UpsertHistoricalPoint(ctx context.Context, h HistoricalPoint) error {
	_, err := s.pool.Exec(ctx, upsertHistoricalSQL,
		h.ProvinceID, h.MeasurementDate, h.PM25Value, h.AQIValue, h.ComponentID)
	return err
}

const historicalRangeSQL = `
    SELECT province_id, measurement_date, pm25_value, aqi_value, component_id, updated_at
    FROM historical_points
    WHERE province_id = $1 AND measurement_date >= $2 AND measurement_date <= $3
    ORDER BY measurement_date
`

// ListHistorical returns a province's daily series within [from, to], ordered
// by date.
func (s *Store) ListHistorical(ctx context.Context, provinceID string, from, to time.Time) ([]HistoricalPoint, error) {
	rows, err := s.pool.Query(ctx, historicalRangeSQL, provinceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]HistoricalPoint, 0)
	for rows.Next() {
		var h HistoricalPoint
		if err := rows.Scan(
			&h.ProvinceID,
			&h.MeasurementDate,
			&h.PM25Value,
			&h.AQIValue,
			&h.ComponentID,
			&h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		points = append(points, h)
	}
	return points, rows.Err()
}

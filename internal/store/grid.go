package store

import (
	"context"
	"time"
)

const upsertGridPointSQL = `
INSERT INTO grid_points (lat, lon, aqi_pm25, measurement_time, source)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (lat, lon, measurement_time) DO UPDATE
SET aqi_pm25 = EXCLUDED.aqi_pm25,
    source = EXCLUDED.source
`

// UpsertGridPoint writes one spatial grid cell value.
func (s *Store) UpsertGridPoint(ctx context.Context, g GridPoint) error {
	_, err := s.pool.Exec(ctx, upsertGridPointSQL,
		g.Lat, g.Lon, g.AQIPM25, g.MeasurementTime, g.Source)
	return err
}

// Ordering by seq keeps the snapshot in insertion order so downstream
// nearest-point ties break deterministically.
const latestGridSnapshotSQL = `
    SELECT lat, lon, aqi_pm25, measurement_time, source
    FROM grid_points
    WHERE measurement_time = (SELECT MAX(measurement_time) FROM grid_points)
    ORDER BY seq
`

// LatestGridSnapshot returns every grid point at the single most recent
// measurement timestamp, in insertion order. Empty when no grid data exists.
func (s *Store) LatestGridSnapshot(ctx context.Context) ([]GridPoint, error) {
	rows, err := s.pool.Query(ctx, latestGridSnapshotSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]GridPoint, 0)
	for rows.Next() {
		var g GridPoint
		if err := rows.Scan(&g.Lat, &g.Lon, &g.AQIPM25, &g.MeasurementTime, &g.Source); err != nil {
			return nil, err
		}
		points = append(points, g)
	}
	return points, rows.Err()
}

// DeleteGridSnapshotsBefore drops grid snapshots older than the cutoff,
// returning the number of rows removed.
func (s *Store) DeleteGridSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM grid_points WHERE measurement_time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const upsertReadingSQL = `
INSERT INTO current_readings (district_internal_id, measurement_date, measurement_time, aqi_value, pm25_value, pm10_value, component_id, source, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
ON CONFLICT (district_internal_id, measurement_time, component_id) DO UPDATE
SET measurement_date = EXCLUDED.measurement_date,
    aqi_value = EXCLUDED.aqi_value,
    pm25_value = EXCLUDED.pm25_value,
    pm10_value = EXCLUDED.pm10_value,
    source = EXCLUDED.source,
    updated_at = NOW()
`

// UpsertCurrentReading writes one reading; on conflict only the value columns
// change, the identity columns never do.
func (s *Store) UpsertCurrentReading(ctx context.Context, r CurrentReading) error {
	_, err := s.pool.Exec(ctx, upsertReadingSQL,
		r.DistrictInternalID, r.MeasurementDate, r.MeasurementTime,
		r.AQIValue, r.PM25Value, r.PM10Value, r.ComponentID, r.Source)
	return err
}

const readingColumns = `district_internal_id, measurement_date, measurement_time, aqi_value, pm25_value, pm10_value, component_id, source, updated_at`

const latestReadingSQL = `
    SELECT ` + readingColumns + `
    FROM current_readings
    WHERE district_internal_id = $1
    ORDER BY measurement_time DESC
    LIMIT 1
`

// GetLatestReading returns the reading with the maximum measurement timestamp
// for a district, or nil when the district has no readings.
func (s *Store) GetLatestReading(ctx context.Context, districtInternalID string) (*CurrentReading, error) {
	row := s.pool.QueryRow(ctx, latestReadingSQL, districtInternalID)

	var r CurrentReading
	if err := scanReading(row, &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

const readingsSinceSQL = `
    SELECT ` + readingColumns + `
    FROM current_readings
    WHERE district_internal_id = $1 AND component_id = $2 AND measurement_date >= $3
    ORDER BY measurement_date, measurement_time
`

// ListReadingsSince returns a district's readings for one component from a
// given date onward, ordered by date then timestamp. Used by trend analysis.
func (s *Store) ListReadingsSince(ctx context.Context, districtInternalID, componentID string, since time.Time) ([]CurrentReading, error) {
	rows, err := s.pool.Query(ctx, readingsSinceSQL, districtInternalID, componentID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]CurrentReading, 0)
	for rows.Next() {
		var r CurrentReading
		if err := scanReading(rows, &r); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// DeleteReadingsBefore drops readings older than the cutoff date, returning the
// number of rows removed. Retention housekeeping, not part of ingestion.
func (s *Store) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM current_readings WHERE measurement_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanReading(row pgx.Row, r *CurrentReading) error {
	return row.Scan(
		&r.DistrictInternalID,
		&r.MeasurementDate,
		&r.MeasurementTime,
		&r.AQIValue,
		&r.PM25Value,
		&r.PM10Value,
		&r.ComponentID,
		&r.Source,
		&r.UpdatedAt,
	)
}

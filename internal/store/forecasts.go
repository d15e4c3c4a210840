package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const upsertForecastSQL = `
INSERT INTO forecast_points (district_internal_id, forecast_date, base_date, pm25_value, aqi_value, component_id, days_ahead, is_historical, is_current, is_forecast, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
ON CONFLICT (district_internal_id, forecast_date, component_id) DO UPDATE
SET base_date = EXCLUDED.base_date,
    pm25_value = EXCLUDED.pm25_value,
    aqi_value = EXCLUDED.aqi_value,
    days_ahead = EXCLUDED.days_ahead,
    is_historical = EXCLUDED.is_historical,
    is_current = EXCLUDED.is_current,
    is_forecast = EXCLUDED.is_forecast,
    updated_at = NOW()
`

// UpsertForecast writes one forecast point. days_ahead and the classification
// booleans are recomputed from (forecast_date - base_date); caller-supplied
// derived fields are ignored.
func (s *Store) UpsertForecast(ctx context.Context, f ForecastPoint) error {
	class := ClassifyForecast(f.ForecastDate, f.BaseDate)
	_, err := s.pool.Exec(ctx, upsertForecastSQL,
		f.DistrictInternalID, f.ForecastDate, f.BaseDate,
		f.PM25Value, f.AQIValue, f.ComponentID,
		class.DaysAhead, class.IsHistorical, class.IsCurrent, class.IsForecast)
	return err
}

const forecastColumns = `district_internal_id, forecast_date, base_date, pm25_value, aqi_value, component_id, days_ahead, is_historical, is_current, is_forecast, updated_at`

const forecastWindowSQL = `
    SELECT ` + forecastColumns + `
    FROM forecast_points
    WHERE district_internal_id = $1 AND is_forecast AND days_ahead <= $2
    ORDER BY forecast_date
`

// GetForecastWindow returns a district's future forecast points up to
// maxDaysAhead days out, ordered by forecast date ascending.
func (s *Store) GetForecastWindow(ctx context.Context, districtInternalID string, maxDaysAhead int) ([]ForecastPoint, error) {
	rows, err := s.pool.Query(ctx, forecastWindowSQL, districtInternalID, maxDaysAhead)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectForecasts(rows)
}

const forecastsForDistrictSQL = `
    SELECT ` + forecastColumns + `
    FROM forecast_points
    WHERE district_internal_id = $1
    ORDER BY forecast_date
`

// ListForecasts returns every forecast point stored for a district, including
// historical backcasts, ordered by forecast date.
func (s *Store) ListForecasts(ctx context.Context, districtInternalID string) ([]ForecastPoint, error) {
	rows, err := s.pool.Query(ctx, forecastsForDistrictSQL, districtInternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectForecasts(rows)
}

func collectForecasts(rows pgx.Rows) ([]ForecastPoint, error) {
	points := make([]ForecastPoint, 0)
	for rows.Next() {
		var f ForecastPoint
		if err := rows.Scan(
			&f.DistrictInternalID,
			&f.ForecastDate,
			&f.BaseDate,
			&f.PM25Value,
			&f.AQIValue,
			&f.ComponentID,
			&f.DaysAhead,
			&f.IsHistorical,
			&f.IsCurrent,
			&f.IsForecast,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		points = append(points, f)
	}
	return points, rows.Err()
}

package store

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS provinces (
    id          TEXT PRIMARY KEY,
    name        TEXT,
    minx        DOUBLE PRECISION,
    miny        DOUBLE PRECISION,
    maxx        DOUBLE PRECISION,
    maxy        DOUBLE PRECISION,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS districts (
    id                 TEXT PRIMARY KEY,
    province_id        TEXT NOT NULL REFERENCES provinces(id) ON DELETE CASCADE,
    internal_id        TEXT UNIQUE,
    administrative_id  TEXT UNIQUE,
    name               TEXT NOT NULL,
    normalized_name    TEXT NOT NULL,
    type               TEXT NOT NULL DEFAULT 'district',
    minx               DOUBLE PRECISION,
    miny               DOUBLE PRECISION,
    maxx               DOUBLE PRECISION,
    maxy               DOUBLE PRECISION,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_districts_province ON districts (province_id);
CREATE INDEX IF NOT EXISTS idx_districts_normalized_name ON districts (normalized_name);

CREATE TABLE IF NOT EXISTS air_components (
    id           TEXT PRIMARY KEY,
    group_id     TEXT,
    display_name TEXT NOT NULL,
    unit         TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS current_readings (
    district_internal_id TEXT NOT NULL REFERENCES districts(internal_id) ON DELETE CASCADE,
    measurement_date     DATE NOT NULL,
    measurement_time     TIMESTAMPTZ NOT NULL,
    aqi_value            DOUBLE PRECISION,
    pm25_value           DOUBLE PRECISION,
    pm10_value           DOUBLE PRECISION,
    component_id         TEXT NOT NULL,
    source               TEXT NOT NULL DEFAULT '',
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (district_internal_id, measurement_time, component_id)
);
CREATE INDEX IF NOT EXISTS idx_current_readings_date ON current_readings (measurement_date);

CREATE TABLE IF NOT EXISTS aqi_rankings (
    district_admin_id TEXT NOT NULL REFERENCES districts(administrative_id) ON DELETE CASCADE,
    ranking_date      DATE NOT NULL,
    rank              INTEGER NOT NULL,
    aqi_avg           DOUBLE PRECISION,
    aqi_prev          DOUBLE PRECISION,
    aqi_delta         DOUBLE PRECISION NOT NULL DEFAULT 0,
    component_id      TEXT NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (district_admin_id, ranking_date, component_id)
);
CREATE INDEX IF NOT EXISTS idx_aqi_rankings_date ON aqi_rankings (ranking_date);

CREATE TABLE IF NOT EXISTS forecast_points (
    district_internal_id TEXT NOT NULL REFERENCES districts(internal_id) ON DELETE CASCADE,
    forecast_date        DATE NOT NULL,
    base_date            DATE NOT NULL,
    pm25_value           DOUBLE PRECISION,
    aqi_value            DOUBLE PRECISION,
    component_id         TEXT NOT NULL,
    days_ahead           INTEGER NOT NULL,
    is_historical        BOOLEAN NOT NULL,
    is_current           BOOLEAN NOT NULL,
    is_forecast          BOOLEAN NOT NULL,
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (district_internal_id, forecast_date, component_id)
);

CREATE TABLE IF NOT EXISTS historical_points (
    province_id      TEXT NOT NULL REFERENCES provinces(id) ON DELETE CASCADE,
    measurement_date DATE NOT NULL,
    pm25_value       DOUBLE PRECISION,
    aqi_value        DOUBLE PRECISION,
    component_id     TEXT NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (province_id, measurement_date, component_id)
);

CREATE TABLE IF NOT EXISTS grid_points (
    lat              DOUBLE PRECISION NOT NULL,
    lon              DOUBLE PRECISION NOT NULL,
    aqi_pm25         DOUBLE PRECISION,
    measurement_time TIMESTAMPTZ NOT NULL,
    source           TEXT NOT NULL DEFAULT '',
    seq              BIGINT GENERATED ALWAYS AS IDENTITY,
    PRIMARY KEY (lat, lon, measurement_time)
);
CREATE INDEX IF NOT EXISTS idx_grid_points_time ON grid_points (measurement_time);

CREATE TABLE IF NOT EXISTS ingestion_log (
    id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    endpoint        TEXT NOT NULL,
    status          TEXT NOT NULL,
    records_fetched INTEGER NOT NULL DEFAULT 0,
    error_message   TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ingestion_log_endpoint ON ingestion_log (endpoint, created_at);
`

// Seed identifiers for the single metropolitan area this deployment covers.
const (
	SeedProvinceID   = "VNM.27_1"
	seedProvinceName = "Hà Nội"
)

func (s *Store) seedProvince(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO provinces (id, name, minx, miny, maxx, maxy)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`,
		SeedProvinceID, seedProvinceName, 105.28, 20.56, 106.02, 21.39)
	return err
}

func (s *Store) seedComponents(ctx context.Context) error {
	components := []ComponentDefinition{
		{ID: "aqi", GroupID: ptr("satellite_aqi_pm25"), DisplayName: "AQI"},
		{ID: "pm25", GroupID: ptr("satellite_aqi_pm25"), DisplayName: "PM2.5", Unit: ptr("µg/m³")},
		{ID: "pm10", GroupID: ptr("satellite_aqi_pm25"), DisplayName: "PM10", Unit: ptr("µg/m³")},
	}
	for _, c := range components {
		if err := s.UpsertComponent(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

package store

import "time"

// Province is the root of the administrative hierarchy. A single seed row
// (the metropolitan area) exists after Init.
type Province struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name,omitempty"`
	MinX      *float64  `json:"minx,omitempty"`
	MinY      *float64  `json:"miny,omitempty"`
	MaxX      *float64  `json:"maxx,omitempty"`
	MaxY      *float64  `json:"maxy,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// District carries two parallel external identifiers: InternalID is the key
// used by the forecast and current feeds, AdministrativeID the key used by the
// ranking feed. Either may be absent until the corresponding feed has reported
// the district.
type District struct {
	ID               string    `json:"id"`
	ProvinceID       string    `json:"province_id"`
	InternalID       *string   `json:"internal_id,omitempty"`
	AdministrativeID *string   `json:"administrative_id,omitempty"`
	Name             string    `json:"name"`
	NormalizedName   string    `json:"normalized_name"`
	Type             string    `json:"type"`
	MinX             *float64  `json:"minx,omitempty"`
	MinY             *float64  `json:"miny,omitempty"`
	MaxX             *float64  `json:"maxx,omitempty"`
	MaxY             *float64  `json:"maxy,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ComponentDefinition describes one measurable air component (aqi, pm25, ...).
type ComponentDefinition struct {
	ID          string    `json:"id"`
	GroupID     *string   `json:"group_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Unit        *string   `json:"unit,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CurrentReading is one measured value for a district, keyed by
// (district internal id, measurement time, component).
type CurrentReading struct {
	DistrictInternalID string    `json:"district_internal_id"`
	MeasurementDate    time.Time `json:"measurement_date"`
	MeasurementTime    time.Time `json:"measurement_time"`
	AQIValue           *float64  `json:"aqi_value,omitempty"`
	PM25Value          *float64  `json:"pm25_value,omitempty"`
	PM10Value          *float64  `json:"pm10_value,omitempty"`
	ComponentID        string    `json:"component_id"`
	Source             string    `json:"source"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RankingEntry is one row of the daily province ranking. AQIDelta is derived
// from AQIAvg and AQIPrev on every write and never read from a feed.
type RankingEntry struct {
	DistrictAdminID string    `json:"district_admin_id"`
	RankingDate     time.Time `json:"ranking_date"`
	Rank            int       `json:"rank"`
	AQIAvg          *float64  `json:"aqi_avg,omitempty"`
	AQIPrev         *float64  `json:"aqi_prev,omitempty"`
	AQIDelta        float64   `json:"aqi_delta"`
	ComponentID     string    `json:"component_id"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ForecastPoint is one forecast (or backcast) value for a district. DaysAhead
// and the three classification booleans are derived from forecast_date and
// base_date on every write.
type ForecastPoint struct {
	DistrictInternalID string    `json:"district_internal_id"`
	ForecastDate       time.Time `json:"forecast_date"`
	BaseDate           time.Time `json:"base_date"`
	PM25Value          *float64  `json:"pm25_value,omitempty"`
	AQIValue           *float64  `json:"aqi_value,omitempty"`
	ComponentID        string    `json:"component_id"`
	DaysAhead          int       `json:"days_ahead"`
	IsHistorical       bool      `json:"is_historical"`
	IsCurrent          bool      `json:"is_current"`
	IsForecast         bool      `json:"is_forecast"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HistoricalPoint is one province-wide daily value.
type HistoricalPoint struct {
	ProvinceID      string    `json:"province_id"`
	MeasurementDate time.Time `json:"measurement_date"`
	PM25Value       *float64  `json:"pm25_value,omitempty"`
	AQIValue        *float64  `json:"aqi_value,omitempty"`
	ComponentID     string    `json:"component_id"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GridPoint is one cell of the fine-grained spatial snapshot. No district
// association is stored; proximity is computed on demand.
type GridPoint struct {
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	AQIPM25         *float64  `json:"aqi_pm25,omitempty"`
	MeasurementTime time.Time `json:"measurement_time"`
	Source          string    `json:"source"`
}

// IngestionLogEntry is an append-only audit record of one feed batch.
type IngestionLogEntry struct {
	ID             int64     `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Status         string    `json:"status"`
	RecordsFetched int       `json:"records_fetched"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ingestion log statuses.
const (
	LogStatusOK         = "ok"
	LogStatusPartial    = "partial"
	LogStatusError      = "error"
	LogStatusIncomplete = "incomplete"
)

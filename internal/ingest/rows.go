package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// Raw feed rows. Numeric and date fields arrive as strings from the upstream
// feeds; a field that fails to parse drops the row, never the batch.

// DistrictRow is one row of the districts feed. The feed may carry either or
// both external identifiers depending on which endpoint produced it.
type DistrictRow struct {
	InternalID       string
	AdministrativeID string
	Name             string
	Type             string
	MinX             string
	MinY             string
	MaxX             string
	MaxY             string
}

// CurrentRow is one row of the daily district AQI statistics feed.
type CurrentRow struct {
	DistrictID   string // internal id
	DistrictName string
	Date         string
	Time         string
	AQI          string
	PM25         string
	PM10         string
	Component    string
	Source       string
}

// RankingRow is one row of the province ranking feed.
type RankingRow struct {
	DistrictAdminID string
	DistrictName    string
	Date            string
	Rank            string
	AQIAvg          string
	AQIPrev         string
	Component       string
}

// ForecastRow is one row of the forecast/backcast feed.
type ForecastRow struct {
	DistrictID   string // internal id
	DistrictName string
	ForecastDate string
	BaseDate     string
	PM25         string
	AQI          string
	Component    string
}

// HistoricalRow is one row of the province-wide historical feed.
type HistoricalRow struct {
	ProvinceID string
	Date       string
	PM25       string
	AQI        string
	Component  string
}

// GridRow is one cell of the spatial grid feed.
type GridRow struct {
	Lat    string
	Lon    string
	AQI    string
	Time   string
	Source string
}

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return t, nil
}

func parseTimestamp(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %s %q: unrecognized timestamp", field, s)
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}

// parseOptionalFloat treats an empty field as absent, not malformed.
func parseOptionalFloat(field, s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloat(field, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func componentOrDefault(s string) string {
	if s == "" {
		return "aqi"
	}
	return s
}

func (r DistrictRow) parse() (store.District, error) {
	if r.Name == "" {
		return store.District{}, fmt.Errorf("district row: name is required")
	}
	id := r.InternalID
	if id == "" {
		id = r.AdministrativeID
	}
	if id == "" {
		return store.District{}, fmt.Errorf("district row %q: no external id", r.Name)
	}

	d := store.District{
		ID:         id,
		ProvinceID: store.SeedProvinceID,
		Name:       r.Name,
		Type:       r.Type,
	}
	if r.InternalID != "" {
		d.InternalID = &r.InternalID
	}
	if r.AdministrativeID != "" {
		d.AdministrativeID = &r.AdministrativeID
	}

	var err error
	if d.MinX, err = parseOptionalFloat("minx", r.MinX); err != nil {
		return store.District{}, err
	}
	if d.MinY, err = parseOptionalFloat("miny", r.MinY); err != nil {
		return store.District{}, err
	}
	if d.MaxX, err = parseOptionalFloat("maxx", r.MaxX); err != nil {
		return store.District{}, err
	}
	if d.MaxY, err = parseOptionalFloat("maxy", r.MaxY); err != nil {
		return store.District{}, err
	}
	return d, nil
}

func (r CurrentRow) parse() (store.CurrentReading, error) {
	if r.DistrictID == "" {
		return store.CurrentReading{}, fmt.Errorf("current row: district id is required")
	}

	date, err := parseDate("date", r.Date)
	if err != nil {
		return store.CurrentReading{}, err
	}
	ts := date
	if r.Time != "" {
		if ts, err = parseTimestamp("time", r.Time); err != nil {
			return store.CurrentReading{}, err
		}
	}

	reading := store.CurrentReading{
		MeasurementDate: date,
		MeasurementTime: ts,
		ComponentID:     componentOrDefault(r.Component),
		Source:          r.Source,
	}
	if reading.AQIValue, err = parseOptionalFloat("aqi", r.AQI); err != nil {
		return store.CurrentReading{}, err
	}
	if reading.PM25Value, err = parseOptionalFloat("pm25", r.PM25); err != nil {
		return store.CurrentReading{}, err
	}
	if reading.PM10Value, err = parseOptionalFloat("pm10", r.PM10); err != nil {
		return store.CurrentReading{}, err
	}
	return reading, nil
}

func (r RankingRow) parse() (store.RankingEntry, error) {
	if r.DistrictAdminID == "" {
		return store.RankingEntry{}, fmt.Errorf("ranking row: district admin id is required")
	}

	date, err := parseDate("date", r.Date)
	if err != nil {
		return store.RankingEntry{}, err
	}
	rank, err := strconv.Atoi(strings.TrimSpace(r.Rank))
	if err != nil {
		return store.RankingEntry{}, fmt.Errorf("parse rank %q: %w", r.Rank, err)
	}

	entry := store.RankingEntry{
		RankingDate: date,
		Rank:        rank,
		ComponentID: componentOrDefault(r.Component),
	}
	if entry.AQIAvg, err = parseOptionalFloat("aqi_avg", r.AQIAvg); err != nil {
		return store.RankingEntry{}, err
	}
	if entry.AQIPrev, err = parseOptionalFloat("aqi_prev", r.AQIPrev); err != nil {
		return store.RankingEntry{}, err
	}
	return entry, nil
}

func (r ForecastRow) parse() (store.ForecastPoint, error) {
	if r.DistrictID == "" {
		return store.ForecastPoint{}, fmt.Errorf("forecast row: district id is required")
	}

	forecastDate, err := parseDate("forecast_date", r.ForecastDate)
	if err != nil {
		return store.ForecastPoint{}, err
	}
	baseDate, err := parseDate("base_date", r.BaseDate)
	if err != nil {
		return store.ForecastPoint{}, err
	}

	point := store.ForecastPoint{
		ForecastDate: forecastDate,
		BaseDate:     baseDate,
		ComponentID:  componentOrDefault(r.Component),
	}
	if point.PM25Value, err = parseOptionalFloat("pm25", r.PM25); err != nil {
		return store.ForecastPoint{}, err
	}
	if point.AQIValue, err = parseOptionalFloat("aqi", r.AQI); err != nil {
		return store.ForecastPoint{}, err
	}
	return point, nil
}

func (r HistoricalRow) parse() (store.HistoricalPoint, error) {
	if r.ProvinceID == "" {
		return store.HistoricalPoint{}, fmt.Errorf("historical row: province id is required")
	}

	date, err := parseDate("date", r.Date)
	if err != nil {
		return store.HistoricalPoint{}, err
	}

	point := store.HistoricalPoint{
		ProvinceID:      r.ProvinceID,
		MeasurementDate: date,
		ComponentID:     componentOrDefault(r.Component),
	}
	if point.PM25Value, err = parseOptionalFloat("pm25", r.PM25); err != nil {
		return store.HistoricalPoint{}, err
	}
	if point.AQIValue, err = parseOptionalFloat("aqi", r.AQI); err != nil {
		return store.HistoricalPoint{}, err
	}
	return point, nil
}

func (r GridRow) parse() (store.GridPoint, error) {
	lat, err := parseFloat("lat", r.Lat)
	if err != nil {
		return store.GridPoint{}, err
	}
	lon, err := parseFloat("lon", r.Lon)
	if err != nil {
		return store.GridPoint{}, err
	}
	ts, err := parseTimestamp("time", r.Time)
	if err != nil {
		return store.GridPoint{}, err
	}

	point := store.GridPoint{
		Lat:             lat,
		Lon:             lon,
		MeasurementTime: ts,
		Source:          r.Source,
	}
	if point.AQIPM25, err = parseOptionalFloat("aqi_pm25", r.AQI); err != nil {
		return store.GridPoint{}, err
	}
	return point, nil
}

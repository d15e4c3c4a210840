package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/api"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/config"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

// fakeRepo serves canned data for handler tests.
type fakeRepo struct {
	districts  []store.District
	reading    *store.CurrentReading
	readings   []store.CurrentReading
	forecasts  []store.ForecastPoint
	ranked     []store.RankedDistrict
	historical []store.HistoricalPoint
	grid       []store.GridPoint
	logs       []store.IngestionLogEntry

	searchedFragment string
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

func (f *fakeRepo) ListProvinces(context.Context) ([]store.Province, error) {
	return []store.Province{{ID: store.SeedProvinceID}}, nil
}

func (f *fakeRepo) GetProvince(_ context.Context, id string) (*store.Province, error) {
	return nil, nil
}

func (f *fakeRepo) ListDistricts(context.Context, string) ([]store.District, error) {
	return f.districts, nil
}

func (f *fakeRepo) SearchDistrictsByName(_ context.Context, fragment string) ([]store.District, error) {
	f.searchedFragment = fragment
	return f.districts, nil
}

func (f *fakeRepo) GetDistrict(_ context.Context, id string) (*store.District, error) {
	for i := range f.districts {
		if f.districts[i].ID == id {
			return &f.districts[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetDistrictByInternalID(_ context.Context, internalID string) (*store.District, error) {
	for i := range f.districts {
		if f.districts[i].InternalID != nil && *f.districts[i].InternalID == internalID {
			return &f.districts[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetDistrictByAdminID(_ context.Context, adminID string) (*store.District, error) {
	for i := range f.districts {
		if f.districts[i].AdministrativeID != nil && *f.districts[i].AdministrativeID == adminID {
			return &f.districts[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetLatestReading(context.Context, string) (*store.CurrentReading, error) {
	return f.reading, nil
}

func (f *fakeRepo) ListReadingsSince(context.Context, string, string, time.Time) ([]store.CurrentReading, error) {
	return f.readings, nil
}

func (f *fakeRepo) CompareDistricts(context.Context, time.Time, string) ([]store.RankedDistrict, error) {
	return f.ranked, nil
}

func (f *fakeRepo) GetForecastWindow(context.Context, string, int) ([]store.ForecastPoint, error) {
	return f.forecasts, nil
}

func (f *fakeRepo) ListHistorical(context.Context, string, time.Time, time.Time) ([]store.HistoricalPoint, error) {
	return f.historical, nil
}

func (f *fakeRepo) LatestGridSnapshot(context.Context) ([]store.GridPoint, error) {
	return f.grid, nil
}

func (f *fakeRepo) ListIngestionLogs(context.Context, store.IngestionLogQuery) ([]store.IngestionLogEntry, error) {
	return f.logs, nil
}

func testConfig() config.Config {
	return config.Config{
		Port:           8080,
		TrendDays:      7,
		ForecastDays:   7,
		HistoricalDays: 7,
	}
}

func doRequest(t *testing.T, srv *api.Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if header != nil {
		req.Header = header
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cauGiay() store.District {
	return store.District{
		ID:         "ID_16472",
		ProvinceID: store.SeedProvinceID,
		InternalID: sptr("ID_16472"),
		Name:       "Cầu Giấy",
	}
}

func TestHealthz(t *testing.T) {
	srv := api.New(testConfig(), &fakeRepo{})
	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchDistricts(t *testing.T) {
	repo := &fakeRepo{districts: []store.District{cauGiay()}}
	srv := api.New(testConfig(), repo)

	rec := doRequest(t, srv, http.MethodGet, "/districts?q=cau", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cau", repo.searchedFragment)

	body := decodeBody(t, rec)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["count"])
}

func TestGetDistrictNotFound(t *testing.T) {
	srv := api.New(testConfig(), &fakeRepo{})
	rec := doRequest(t, srv, http.MethodGet, "/districts/ID_9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestReadingAnnotatesLevel(t *testing.T) {
	repo := &fakeRepo{
		districts: []store.District{cauGiay()},
		reading: &store.CurrentReading{
			DistrictInternalID: "ID_16472",
			AQIValue:           fptr(155),
		},
	}
	srv := api.New(testConfig(), repo)

	rec := doRequest(t, srv, http.MethodGet, "/districts/ID_16472/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "unhealthy", body["level"])
}

func TestForecastWindowAnnotatesLevels(t *testing.T) {
	repo := &fakeRepo{
		districts: []store.District{cauGiay()},
		forecasts: []store.ForecastPoint{
			{DistrictInternalID: "ID_16472", AQIValue: fptr(45), DaysAhead: 1, IsForecast: true},
			{DistrictInternalID: "ID_16472", AQIValue: fptr(120), DaysAhead: 2, IsForecast: true},
		},
	}
	srv := api.New(testConfig(), repo)

	rec := doRequest(t, srv, http.MethodGet, "/districts/ID_16472/forecast?days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "good", data[0].(map[string]any)["level"])
	assert.Equal(t, "unhealthy_for_sensitive_groups", data[1].(map[string]any)["level"])
}

func TestCompare(t *testing.T) {
	repo := &fakeRepo{ranked: []store.RankedDistrict{
		{District: cauGiay(), Entry: store.RankingEntry{Rank: 1, AQIAvg: fptr(180), AQIDelta: 20}},
		{District: cauGiay(), Entry: store.RankingEntry{Rank: 2, AQIAvg: fptr(90)}},
	}}
	srv := api.New(testConfig(), repo)

	rec := doRequest(t, srv, http.MethodGet, "/compare?date=2026-08-20&component=pm25", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "unhealthy", data[0].(map[string]any)["level"])
	assert.Equal(t, "moderate", data[1].(map[string]any)["level"])
}

func TestNearestGridValidation(t *testing.T) {
	srv := api.New(testConfig(), &fakeRepo{})

	rec := doRequest(t, srv, http.MethodGet, "/grid/nearest?lat=abc&lon=105.85", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearestGrid(t *testing.T) {
	repo := &fakeRepo{grid: []store.GridPoint{
		{Lat: 21.0, Lon: 105.90, AQIPM25: fptr(80)},
		{Lat: 21.0, Lon: 105.85, AQIPM25: fptr(120)},
		{Lat: 21.5, Lon: 105.85, AQIPM25: fptr(60)},
	}}
	srv := api.New(testConfig(), repo)

	rec := doRequest(t, srv, http.MethodGet, "/grid/nearest?lat=21.0&lon=105.85&k=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 2)

	first := data[0].(map[string]any)["point"].(map[string]any)
	assert.Equal(t, 105.85, first["lon"])
}

func TestAuditRequiresBearerToken(t *testing.T) {
	cfg := testConfig()
	cfg.BearerToken = "secret"
	srv := api.New(cfg, &fakeRepo{logs: []store.IngestionLogEntry{{Endpoint: "rankings", Status: store.LogStatusOK}}})

	rec := doRequest(t, srv, http.MethodGet, "/audit", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	header := http.Header{}
	header.Set("Authorization", "Bearer secret")
	rec = doRequest(t, srv, http.MethodGet, "/audit", header)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["count"])
}

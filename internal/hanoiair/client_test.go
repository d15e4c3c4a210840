package hanoiair_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/hanoiair"
)

func TestDistrictsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/administrative/administrative_province_district", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("province_id"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "ID_16472", "name": "Cầu Giấy", "type": "district", "minx": 105.76, "maxx": 105.82},
			{"id": "VNM.27_1", "name": "Hà Nội", "type": "province"},
		})
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	rows, err := c.DistrictsInternal(context.Background())
	require.NoError(t, err)

	// The province row is filtered out.
	require.Len(t, rows, 1)
	assert.Equal(t, "ID_16472", rows[0].InternalID)
	assert.Empty(t, rows[0].AdministrativeID)
	assert.Equal(t, "Cầu Giấy", rows[0].Name)
	assert.Equal(t, "105.76", rows[0].MinX)
}

func TestCurrentStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analysis/district_avg_statistic", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "2026-08-20 00:00:00", payload["from_date"])
		assert.Equal(t, "aqi", payload["component_id"])

		_, _ = w.Write([]byte(`{"Code":200,"Data":{"comps":[
			{"id":"ID_16472","name":"Cầu Giấy","val":132.5},
			{"id":"ID_16478","name":"Đống Đa","val":98}
		]}}`))
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	rows, err := c.CurrentStatistics(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "ID_16472", rows[0].DistrictID)
	assert.Equal(t, "132.5", rows[0].AQI)
	assert.Equal(t, "2026-08-20", rows[0].Date)
	assert.Equal(t, "aqi", rows[0].Component)
}

func TestRankings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "2026-08-20", payload["date_shooting"])
		assert.Equal(t, "2026-08-19", payload["date_shooting_pre"])

		_, _ = w.Write([]byte(`{"Code":200,"Data":{"comps":[
			{"administrative_id":"VNM.27.5_1","administrative_name":"Đống Đa","no":1,"avg":120,"avg_pre":100}
		]}}`))
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	rows, err := c.Rankings(context.Background(), time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "VNM.27.5_1", rows[0].DistrictAdminID)
	assert.Equal(t, "1", rows[0].Rank)
	assert.Equal(t, "120", rows[0].AQIAvg)
	assert.Equal(t, "100", rows[0].AQIPrev)
}

func TestDistrictSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ID_16472", payload["district_id"])
		assert.Equal(t, float64(7), payload["nextdays"])

		_, _ = w.Write([]byte(`{"Code":200,"Data":{"comps":[
			{"requestdate":"2026-08-21","val":45.2,"val_aqi":110},
			{"requestdate":"2026-08-22","val":38.0,"val_aqi":95}
		]}}`))
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	rows, err := c.DistrictSeries(context.Background(), "ID_16472", "Cầu Giấy", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), 3, 7)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "2026-08-21", rows[0].ForecastDate)
	assert.Equal(t, "2026-08-20", rows[0].BaseDate)
	assert.Equal(t, "45.2", rows[0].PM25)
	assert.Equal(t, "110", rows[0].AQI)
}

func TestUpstreamErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Code":500,"Data":null}`))
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	_, err := c.Rankings(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream code 500")
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	_, err := c.DistrictsInternal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGridTile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geoserver/gwc/service/wmts", r.URL.Path)
		assert.Equal(t, "GetTile", r.URL.Query().Get("REQUEST"))
		assert.Equal(t, "812", r.URL.Query().Get("TILECOL"))

		_, _ = w.Write([]byte(`{"features":[
			{"properties":{"coor_x":105.8516,"coor_y":21.0313,"aqi_pm25":95,"datetime_shooting":"2026-08-20 07:00:00"}}
		]}`))
	}))
	defer srv.Close()

	c := hanoiair.New(srv.URL, time.Second)
	rows, err := c.GridTile(context.Background(), hanoiair.Tile{Col: 812, Row: 196, Zoom: 9})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "21.0313", rows[0].Lat)
	assert.Equal(t, "105.8516", rows[0].Lon)
	assert.Equal(t, "95", rows[0].AQI)
	assert.Equal(t, "2026-08-20 07:00:00", rows[0].Time)
}

package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistrictRowParse(t *testing.T) {
	d, err := DistrictRow{
		InternalID: "ID_16472",
		Name:       "Cầu Giấy",
		Type:       "district",
		MinX:       "105.76",
		MaxX:       "105.82",
	}.parse()
	require.NoError(t, err)

	assert.Equal(t, "ID_16472", d.ID)
	require.NotNil(t, d.InternalID)
	assert.Equal(t, "ID_16472", *d.InternalID)
	assert.Nil(t, d.AdministrativeID)
	require.NotNil(t, d.MinX)
	assert.Equal(t, 105.76, *d.MinX)
	assert.Nil(t, d.MinY)
}

func TestDistrictRowParseAdminOnly(t *testing.T) {
	d, err := DistrictRow{AdministrativeID: "VNM.27.5_1", Name: "Đống Đa"}.parse()
	require.NoError(t, err)

	assert.Equal(t, "VNM.27.5_1", d.ID)
	assert.Nil(t, d.InternalID)
	require.NotNil(t, d.AdministrativeID)
}

func TestDistrictRowParseRejects(t *testing.T) {
	_, err := DistrictRow{InternalID: "ID_1"}.parse()
	assert.Error(t, err, "missing name")

	_, err = DistrictRow{Name: "Cầu Giấy"}.parse()
	assert.Error(t, err, "missing external id")

	_, err = DistrictRow{InternalID: "ID_1", Name: "x", MinX: "not-a-number"}.parse()
	assert.Error(t, err)
}

func TestCurrentRowParse(t *testing.T) {
	r, err := CurrentRow{
		DistrictID: "ID_16472",
		Date:       "2026-08-20",
		AQI:        "132.5",
		Source:     "hanoiair",
	}.parse()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), r.MeasurementDate)
	assert.Equal(t, r.MeasurementDate, r.MeasurementTime)
	require.NotNil(t, r.AQIValue)
	assert.Equal(t, 132.5, *r.AQIValue)
	assert.Nil(t, r.PM25Value)
	assert.Equal(t, "aqi", r.ComponentID)
}

func TestCurrentRowParseRejectsBadDate(t *testing.T) {
	_, err := CurrentRow{DistrictID: "ID_1", Date: "20/08/2026", AQI: "10"}.parse()
	assert.Error(t, err)
}

func TestRankingRowParse(t *testing.T) {
	e, err := RankingRow{
		DistrictAdminID: "VNM.27.5_1",
		Date:            "2026-08-20",
		Rank:            "3",
		AQIAvg:          "120",
		AQIPrev:         "100",
	}.parse()
	require.NoError(t, err)

	assert.Equal(t, 3, e.Rank)
	require.NotNil(t, e.AQIAvg)
	assert.Equal(t, 120.0, *e.AQIAvg)
	require.NotNil(t, e.AQIPrev)
	assert.Equal(t, 100.0, *e.AQIPrev)
	assert.Equal(t, "aqi", e.ComponentID)
}

func TestRankingRowParseAbsentPrev(t *testing.T) {
	e, err := RankingRow{
		DistrictAdminID: "VNM.27.5_1",
		Date:            "2026-08-20",
		Rank:            "1",
		AQIAvg:          "88",
	}.parse()
	require.NoError(t, err)
	assert.Nil(t, e.AQIPrev)
}

func TestForecastRowParse(t *testing.T) {
	f, err := ForecastRow{
		DistrictID:   "ID_16472",
		ForecastDate: "2026-08-23",
		BaseDate:     "2026-08-20",
		PM25:         "45.2",
		AQI:          "110",
		Component:    "pm25",
	}.parse()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), f.ForecastDate)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), f.BaseDate)
	assert.Equal(t, "pm25", f.ComponentID)
}

func TestGridRowParse(t *testing.T) {
	g, err := GridRow{
		Lat:    "21.0313",
		Lon:    "105.8516",
		AQI:    "95",
		Time:   "2026-08-20 07:00:00",
		Source: "hanoiair-wmts",
	}.parse()
	require.NoError(t, err)

	assert.Equal(t, 21.0313, g.Lat)
	assert.Equal(t, 105.8516, g.Lon)
	assert.Equal(t, time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC), g.MeasurementTime)

	_, err = GridRow{Lat: "abc", Lon: "105", Time: "2026-08-20"}.parse()
	assert.Error(t, err)
}

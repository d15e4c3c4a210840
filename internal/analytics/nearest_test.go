package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/analytics"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

type fakeGrid struct {
	points []store.GridPoint
}

func (f *fakeGrid) LatestGridSnapshot(context.Context) ([]store.GridPoint, error) {
	return f.points, nil
}

func gridPoint(lat, lon, aqi float64, src string) store.GridPoint {
	return store.GridPoint{
		Lat:             lat,
		Lon:             lon,
		AQIPM25:         &aqi,
		MeasurementTime: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Source:          src,
	}
}

func TestNearestGridPoints(t *testing.T) {
	// Two points (east, west) are equidistant from the query coordinate.
	src := &fakeGrid{points: []store.GridPoint{
		gridPoint(21.0, 105.90, 80, "far"),
		gridPoint(21.0, 105.86, 120, "east"),
		gridPoint(21.0, 105.84, 60, "west"),
		gridPoint(21.5, 105.85, 40, "farther"),
		gridPoint(21.0, 105.85, 155, "center"),
	}}

	got, err := analytics.NearestGridPoints(context.Background(), src, 21.0, 105.85, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "center", got[0].Point.Source)
	// Equidistant pair keeps snapshot order: east before west.
	assert.Equal(t, "east", got[1].Point.Source)
	assert.Equal(t, "west", got[2].Point.Source)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}

	require.NotNil(t, got[0].Level)
	assert.Equal(t, analytics.LevelUnhealthy, *got[0].Level)

	// Repeated calls are deterministic.
	again, err := analytics.NearestGridPoints(context.Background(), src, 21.0, 105.85, 3)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNearestGridPointsKBounds(t *testing.T) {
	src := &fakeGrid{points: []store.GridPoint{
		gridPoint(21.0, 105.85, 50, "a"),
		gridPoint(21.1, 105.85, 60, "b"),
	}}

	got, err := analytics.NearestGridPoints(context.Background(), src, 21.0, 105.85, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = analytics.NearestGridPoints(context.Background(), src, 21.0, 105.85, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHaversine(t *testing.T) {
	// Hoan Kiem lake to Noi Bai airport, roughly 22 km.
	d := analytics.Haversine(21.0285, 105.8542, 21.2187, 105.8041)
	assert.InDelta(t, 22.0, d, 1.5)

	assert.Zero(t, analytics.Haversine(21.0, 105.85, 21.0, 105.85))
}

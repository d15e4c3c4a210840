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

type fakeReadings struct {
	readings []store.CurrentReading
	gotSince time.Time
}

func (f *fakeReadings) ListReadingsSince(_ context.Context, _, _ string, since time.Time) ([]store.CurrentReading, error) {
	f.gotSince = since
	return f.readings, nil
}

func fptr(v float64) *float64 { return &v }

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestTrend(t *testing.T) {
	src := &fakeReadings{readings: []store.CurrentReading{
		{MeasurementDate: day(18), AQIValue: fptr(100)},
		{MeasurementDate: day(19), AQIValue: fptr(120)},
		{MeasurementDate: day(20), AQIValue: fptr(120)},
		{MeasurementDate: day(21), AQIValue: fptr(90)},
	}}

	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	points, err := analytics.Trend(context.Background(), src, "ID_16472", 7, now)
	require.NoError(t, err)
	require.Len(t, points, 4)

	// First day of the window carries no delta.
	assert.Nil(t, points[0].Delta)
	assert.Empty(t, points[0].Direction)
	assert.Equal(t, analytics.LevelModerate, *points[0].Level)

	require.NotNil(t, points[1].Delta)
	assert.Equal(t, 20.0, *points[1].Delta)
	assert.Equal(t, analytics.DirectionIncreasing, points[1].Direction)

	require.NotNil(t, points[2].Delta)
	assert.Equal(t, 0.0, *points[2].Delta)
	assert.Equal(t, analytics.DirectionUnchanged, points[2].Direction)

	require.NotNil(t, points[3].Delta)
	assert.Equal(t, -30.0, *points[3].Delta)
	assert.Equal(t, analytics.DirectionDecreasing, points[3].Direction)

	assert.Equal(t, now.AddDate(0, 0, -7), src.gotSince)
}

func TestTrendSkipsMissingValues(t *testing.T) {
	src := &fakeReadings{readings: []store.CurrentReading{
		{MeasurementDate: day(18), AQIValue: fptr(100)},
		{MeasurementDate: day(19)},
		{MeasurementDate: day(20), AQIValue: fptr(110)},
	}}

	points, err := analytics.Trend(context.Background(), src, "ID_16472", 7, day(21))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Nil(t, points[1].Delta)
	assert.Nil(t, points[1].Level)

	// The gap day does not reset the baseline.
	require.NotNil(t, points[2].Delta)
	assert.Equal(t, 10.0, *points[2].Delta)
	assert.Equal(t, analytics.DirectionIncreasing, points[2].Direction)
}

func TestTrendEmpty(t *testing.T) {
	points, err := analytics.Trend(context.Background(), &fakeReadings{}, "ID_16472", 7, day(21))
	require.NoError(t, err)
	assert.Empty(t, points)
}

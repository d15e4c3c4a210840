package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

// GridSource is the slice of the repository that spatial search reads from.
type GridSource interface {
	LatestGridSnapshot(ctx context.Context) ([]store.GridPoint, error)
}

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// NearbyGridPoint is one grid cell annotated with its great-circle distance
// from the query coordinate.
type NearbyGridPoint struct {
	Point      store.GridPoint `json:"point"`
	DistanceKm float64         `json:"distance_km"`
	Level      *Level          `json:"level,omitempty"`
}

// NearestGridPoints reads the most recent grid snapshot and returns the k
// points closest to (lat, lon) by haversine distance, ascending. Ties keep the
// snapshot's insertion order, so repeated calls are deterministic.
func NearestGridPoints(ctx context.Context, src GridSource, lat, lon float64, k int) ([]NearbyGridPoint, error) {
	snapshot, err := src.LatestGridSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]NearbyGridPoint, 0, len(snapshot))
	for _, p := range snapshot {
		c := NearbyGridPoint{Point: p, DistanceKm: Haversine(lat, lon, p.Lat, p.Lon)}
		if p.AQIPM25 != nil {
			level := AQILevel(*p.AQIPM25)
			c.Level = &level
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})

	if k < 0 {
		k = 0
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// Haversine computes the great-circle distance in kilometers between two
// WGS-84 coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

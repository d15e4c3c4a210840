package store

import (
	"context"
	"time"
)

const upsertRankingSQL = `
INSERT INTO aqi_rankings (district_admin_id, ranking_date, rank, aqi_avg, aqi_prev, aqi_delta, component_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (district_admin_id, ranking_date, component_id) DO UPDATE
SET rank = EXCLUDED.rank,
    aqi_avg = EXCLUDED.aqi_avg,
    aqi_prev = EXCLUDED.aqi_prev,
    aqi_delta = EXCLUDED.aqi_delta,
    updated_at = NOW()
`

// UpsertRanking writes one ranking row. The delta column is recomputed here
// from the incoming average and previous average; whatever the caller put in
// AQIDelta is ignored.
func (s *Store) UpsertRanking(ctx context.Context, r RankingEntry) error {
	delta := RankingDelta(r.AQIAvg, r.AQIPrev)
	_, err := s.pool.Exec(ctx, upsertRankingSQL,
		r.DistrictAdminID, r.RankingDate, r.Rank, r.AQIAvg, r.AQIPrev, delta, r.ComponentID)
	return err
}

// RankedDistrict pairs a ranking row with its district for comparison results.
type RankedDistrict struct {
	District District     `json:"district"`
	Entry    RankingEntry `json:"entry"`
}

const compareDistrictsSQL = `
    SELECT d.id, d.province_id, d.internal_id, d.administrative_id, d.name, d.normalized_name, d.type,
           d.minx, d.miny, d.maxx, d.maxy, d.created_at,
           r.district_admin_id, r.ranking_date, r.rank, r.aqi_avg, r.aqi_prev, r.aqi_delta, r.component_id, r.updated_at
    FROM aqi_rankings r
    JOIN districts d ON d.administrative_id = r.district_admin_id
    WHERE r.ranking_date = $1 AND r.component_id = $2
    ORDER BY r.rank
`

// CompareDistricts returns all ranking rows for one date and component joined
// with their districts, ordered by rank ascending (1 = most polluted).
func (s *Store) CompareDistricts(ctx context.Context, date time.Time, componentID string) ([]RankedDistrict, error) {
	rows, err := s.pool.Query(ctx, compareDistrictsSQL, date, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]RankedDistrict, 0)
	for rows.Next() {
		var rd RankedDistrict
		if err := rows.Scan(
			&rd.District.ID,
			&rd.District.ProvinceID,
			&rd.District.InternalID,
			&rd.District.AdministrativeID,
			&rd.District.Name,
			&rd.District.NormalizedName,
			&rd.District.Type,
			&rd.District.MinX,
			&rd.District.MinY,
			&rd.District.MaxX,
			&rd.District.MaxY,
			&rd.District.CreatedAt,
			&rd.Entry.DistrictAdminID,
			&rd.Entry.RankingDate,
			&rd.Entry.Rank,
			&rd.Entry.AQIAvg,
			&rd.Entry.AQIPrev,
			&rd.Entry.AQIDelta,
			&rd.Entry.ComponentID,
			&rd.Entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, rd)
	}
	return results, rows.Err()
}

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const getProvinceSQL = `
    SELECT id, name, minx, miny, maxx, maxy, created_at
    FROM provinces
    WHERE id = $1
`

// GetProvince returns a province by id, or nil when it does not exist.
func (s *Store) GetProvince(ctx context.Context, id string) (*Province, error) {
	row := s.pool.QueryRow(ctx, getProvinceSQL, id)

	var p Province
	if err := row.Scan(&p.ID, &p.Name, &p.MinX, &p.MinY, &p.MaxX, &p.MaxY, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

const listProvincesSQL = `
    SELECT id, name, minx, miny, maxx, maxy, created_at
    FROM provinces
    ORDER BY id
`

// ListProvinces returns all provinces ordered by id.
func (s *Store) ListProvinces(ctx context.Context) ([]Province, error) {
	rows, err := s.pool.Query(ctx, listProvincesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	provinces := make([]Province, 0)
	for rows.Next() {
		var p Province
		if err := rows.Scan(&p.ID, &p.Name, &p.MinX, &p.MinY, &p.MaxX, &p.MaxY, &p.CreatedAt); err != nil {
			return nil, err
		}
		provinces = append(provinces, p)
	}
	return provinces, rows.Err()
}

const upsertProvinceSQL = `
INSERT INTO provinces (id, name, minx, miny, maxx, maxy)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET name = COALESCE(EXCLUDED.name, provinces.name),
    minx = COALESCE(EXCLUDED.minx, provinces.minx),
    miny = COALESCE(EXCLUDED.miny, provinces.miny),
    maxx = COALESCE(EXCLUDED.maxx, provinces.maxx),
    maxy = COALESCE(EXCLUDED.maxy, provinces.maxy)
`

// UpsertProvince inserts or updates the mutable attributes of a province.
// Identity (id) is never rewritten.
func (s *Store) UpsertProvince(ctx context.Context, p Province) error {
	_, err := s.pool.Exec(ctx, upsertProvinceSQL, p.ID, p.Name, p.MinX, p.MinY, p.MaxX, p.MaxY)
	return err
}

// DeleteProvince removes a province and, via cascade, its districts and their
// measurement rows. Returns false when no row matched.
func (s *Store) DeleteProvince(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM provinces WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

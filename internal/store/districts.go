package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const districtColumns = `id, province_id, internal_id, administrative_id, name, normalized_name, type, minx, miny, maxx, maxy, created_at`

func scanDistrict(row pgx.Row) (*District, error) {
	var d District
	err := row.Scan(
		&d.ID,
		&d.ProvinceID,
		&d.InternalID,
		&d.AdministrativeID,
		&d.Name,
		&d.NormalizedName,
		&d.Type,
		&d.MinX,
		&d.MinY,
		&d.MaxX,
		&d.MaxY,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// GetDistrict returns a district by primary id, or nil when absent.
func (s *Store) GetDistrict(ctx context.Context, id string) (*District, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+districtColumns+` FROM districts WHERE id = $1`, id)
	return scanDistrict(row)
}

// GetDistrictByInternalID returns the district carrying the given forecast-feed
// identifier, or nil when absent.
func (s *Store) GetDistrictByInternalID(ctx context.Context, internalID string) (*District, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+districtColumns+` FROM districts WHERE internal_id = $1`, internalID)
	return scanDistrict(row)
}

// GetDistrictByAdminID returns the district carrying the given ranking-feed
// identifier, or nil when absent.
func (s *Store) GetDistrictByAdminID(ctx context.Context, adminID string) (*District, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+districtColumns+` FROM districts WHERE administrative_id = $1`, adminID)
	return scanDistrict(row)
}

const searchDistrictsSQL = `
    SELECT ` + districtColumns + `
    FROM districts
    WHERE name ILIKE '%' || $1 || '%' OR normalized_name LIKE '%' || $2 || '%'
    ORDER BY name
`

// SearchDistrictsByName returns districts whose name contains the fragment,
// case-insensitively (raw or diacritic-folded), ordered by name.
func (s *Store) SearchDistrictsByName(ctx context.Context, fragment string) ([]District, error) {
	rows, err := s.pool.Query(ctx, searchDistrictsSQL, fragment, NormalizeName(fragment))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDistricts(rows)
}

const listDistrictsSQL = `
    SELECT ` + districtColumns + `
    FROM districts
    WHERE province_id = $1
    ORDER BY name
`

// ListDistricts returns all districts of a province ordered by name.
func (s *Store) ListDistricts(ctx context.Context, provinceID string) ([]District, error) {
	rows, err := s.pool.Query(ctx, listDistrictsSQL, provinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDistricts(rows)
}

func collectDistricts(rows pgx.Rows) ([]District, error) {
	districts := make([]District, 0)
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, err
		}
		districts = append(districts, *d)
	}
	return districts, rows.Err()
}

const upsertDistrictSQL = `
INSERT INTO districts (id, province_id, internal_id, administrative_id, name, normalized_name, type, minx, miny, maxx, maxy)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE
SET internal_id = COALESCE(districts.internal_id, EXCLUDED.internal_id),
    administrative_id = COALESCE(districts.administrative_id, EXCLUDED.administrative_id),
    name = EXCLUDED.name,
    normalized_name = EXCLUDED.normalized_name,
    type = EXCLUDED.type,
    minx = COALESCE(EXCLUDED.minx, districts.minx),
    miny = COALESCE(EXCLUDED.miny, districts.miny),
    maxx = COALESCE(EXCLUDED.maxx, districts.maxx),
    maxy = COALESCE(EXCLUDED.maxy, districts.maxy)
`

// UpsertDistrict writes a fully-described district (districts feed). External
// ids already on the row are kept; a known id is never overwritten with a
// different one from a later batch.
func (s *Store) UpsertDistrict(ctx context.Context, d District) error {
	if d.ID == "" {
		return errors.New("district id is required")
	}
	if d.NormalizedName == "" {
		d.NormalizedName = NormalizeName(d.Name)
	}
	if d.Type == "" {
		d.Type = "district"
	}
	_, err := s.pool.Exec(ctx, upsertDistrictSQL,
		d.ID, d.ProvinceID, d.InternalID, d.AdministrativeID,
		d.Name, d.NormalizedName, d.Type,
		d.MinX, d.MinY, d.MaxX, d.MaxY)
	return err
}

// UpdateDistrict applies a manual metadata correction (name, type, bounding
// box). Identity and external ids are not touched. Returns false when the
// district does not exist.
func (s *Store) UpdateDistrict(ctx context.Context, d District) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE districts
SET name = $2, normalized_name = $3, type = $4, minx = $5, miny = $6, maxx = $7, maxy = $8
WHERE id = $1`,
		d.ID, d.Name, NormalizeName(d.Name), d.Type, d.MinX, d.MinY, d.MaxX, d.MaxY)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDistrict removes a district and, via cascade, its measurement rows.
func (s *Store) DeleteDistrict(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM districts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExternalIDKind selects which of a district's two parallel feed identifiers a
// resolve operation is keyed by.
type ExternalIDKind int

const (
	// InternalID is the identifier used by the current and forecast feeds.
	InternalID ExternalIDKind = iota
	// AdministrativeID is the identifier used by the ranking feed.
	AdministrativeID
)

// ResolveDistrict finds the district for one external id, creating a minimal
// stub when the district is not yet known. Reconciliation order:
//
//  1. a district already carrying the external id wins;
//  2. otherwise a district with the same normalized name adopts the id,
//     completing a stub created earlier by the other feed kind;
//  3. otherwise a stub is inserted with the external id as its primary id.
//
// The stub's primary id never changes afterwards.
func (s *Store) ResolveDistrict(ctx context.Context, kind ExternalIDKind, externalID, name string) (*District, error) {
	if externalID == "" {
		return nil, errors.New("external id is required")
	}

	column := "internal_id"
	if kind == AdministrativeID {
		column = "administrative_id"
	}

	var resolved *District
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+districtColumns+` FROM districts WHERE `+column+` = $1`, externalID)
		d, err := scanDistrict(row)
		if err != nil {
			return err
		}
		if d != nil {
			resolved = d
			return nil
		}

		if name != "" {
			row = tx.QueryRow(ctx, `
UPDATE districts SET `+column+` = $1
WHERE normalized_name = $2 AND `+column+` IS NULL
RETURNING `+districtColumns, externalID, NormalizeName(name))
			d, err = scanDistrict(row)
			if err != nil {
				return err
			}
			if d != nil {
				resolved = d
				return nil
			}
		}

		stubName := name
		if stubName == "" {
			stubName = externalID
		}
		row = tx.QueryRow(ctx, `
INSERT INTO districts (id, province_id, `+column+`, name, normalized_name)
VALUES ($1, $2, $1, $3, $4)
RETURNING `+districtColumns,
			externalID, SeedProvinceID, stubName, NormalizeName(stubName))
		d, err = scanDistrict(row)
		if err != nil {
			return fmt.Errorf("create district stub %s: %w", externalID, err)
		}
		resolved = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

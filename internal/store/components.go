package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const getComponentSQL = `
    SELECT id, group_id, display_name, unit, created_at
    FROM air_components
    WHERE id = $1
`

// GetComponent returns a component definition by id, or nil when absent.
func (s *Store) GetComponent(ctx context.Context, id string) (*ComponentDefinition, error) {
	row := s.pool.QueryRow(ctx, getComponentSQL, id)

	var c ComponentDefinition
	if err := row.Scan(&c.ID, &c.GroupID, &c.DisplayName, &c.Unit, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

const listComponentsSQL = `
    SELECT id, group_id, display_name, unit, created_at
    FROM air_components
    ORDER BY id
`

// ListComponents returns all component definitions ordered by id.
func (s *Store) ListComponents(ctx context.Context) ([]ComponentDefinition, error) {
	rows, err := s.pool.Query(ctx, listComponentsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	components := make([]ComponentDefinition, 0)
	for rows.Next() {
		var c ComponentDefinition
		if err := rows.Scan(&c.ID, &c.GroupID, &c.DisplayName, &c.Unit, &c.CreatedAt); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

const upsertComponentSQL = `
INSERT INTO air_components (id, group_id, display_name, unit)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET group_id = EXCLUDED.group_id,
    display_name = EXCLUDED.display_name,
    unit = EXCLUDED.unit
`

// UpsertComponent inserts or updates a component definition.
func (s *Store) UpsertComponent(ctx context.Context, c ComponentDefinition) error {
	_, err := s.pool.Exec(ctx, upsertComponentSQL, c.ID, c.GroupID, c.DisplayName, c.Unit)
	return err
}

// DeleteComponent removes a component definition.
func (s *Store) DeleteComponent(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM air_components WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

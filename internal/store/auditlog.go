package store

import (
	"context"
	"strconv"
	"time"
)

const appendLogSQL = `
INSERT INTO ingestion_log (endpoint, status, records_fetched, error_message, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

// AppendIngestionLog appends one audit record for a feed batch. Entries are
// never updated or deleted.
func (s *Store) AppendIngestionLog(ctx context.Context, e IngestionLogEntry) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := s.pool.QueryRow(ctx, appendLogSQL,
		e.Endpoint, e.Status, e.RecordsFetched, e.ErrorMessage, createdAt).Scan(&id)
	return id, err
}

// IngestionLogQuery filters the audit log.
type IngestionLogQuery struct {
	Endpoint string
	Since    *time.Time
	Until    *time.Time
	Limit    int
}

// ListIngestionLogs returns audit entries matching the query, newest first.
func (s *Store) ListIngestionLogs(ctx context.Context, q IngestionLogQuery) ([]IngestionLogEntry, error) {
	sql := `SELECT id, endpoint, status, records_fetched, error_message, created_at FROM ingestion_log`
	args := []any{}
	clause := ""

	appendCond := func(cond string, v any) {
		args = append(args, v)
		marker := "$" + strconv.Itoa(len(args))
		if clause == "" {
			clause = " WHERE " + cond + marker
		} else {
			clause += " AND " + cond + marker
		}
	}

	if q.Endpoint != "" {
		appendCond("endpoint = ", q.Endpoint)
	}
	if q.Since != nil {
		appendCond("created_at >= ", *q.Since)
	}
	if q.Until != nil {
		appendCond("created_at <= ", *q.Until)
	}

	sql += clause + " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]IngestionLogEntry, 0)
	for rows.Next() {
		var e IngestionLogEntry
		if err := rows.Scan(&e.ID, &e.Endpoint, &e.Status, &e.RecordsFetched, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package repo

import (
	"context"

	"wineinventory/internal/domain"
)

type EventFilters struct {
	Type       string
	EntityKind string
	EntityID   string
}

// LatestEvents returns up to limit events, newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, f EventFilters) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),payload_json FROM events WHERE 1=1`
	var args []any
	if f.Type != "" {
		query += ` AND type=?`
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		query += ` AND entity_kind=?`
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		query += ` AND entity_id=?`
		args = append(args, f.EntityID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

package audit

import (
	"context"
	"time"

	"fieldservice/pkg/db"
)

// Entry is one row of an entity's activity trail.
type Entry struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Metadata  any       `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// List returns an entity's audit rows oldest first.
func List(ctx context.Context, q db.Querier, entity, entityID string) ([]Entry, error) {
	const stmt = `
SELECT id, entity, entity_id, action, actor, COALESCE(metadata, '{}'::jsonb), created_at
FROM audit_logs
WHERE entity = $1 AND entity_id = $2
ORDER BY created_at ASC, id ASC
`
	rows, err := q.Query(ctx, stmt, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Action, &e.Actor, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package audit

import (
	"context"
	"encoding/json"

	"fieldservice/pkg/db"
)

const (
	ActionJobScheduled  = "JOB_SCHEDULED"
	ActionJobCompleted  = "JOB_COMPLETED"
	ActionQuoteCreated  = "QUOTE_CREATED"
	ActionInvoiceSent   = "INVOICE_SENT"
	ActionInvoiceQueued = "INVOICE_EMAIL_SCHEDULED"
)

// Insert records one audit row. q may be the pool or an open transaction.
func Insert(ctx context.Context, q db.Querier, entity, entityID, action, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO audit_logs (entity, entity_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, entity, entityID, action, actor, s)
	return err
}

package invoice

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fieldservice/pkg/db"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// MissingCustomerWarning accompanies a list that dropped invoices without a customer.
const MissingCustomerWarning = "Some invoices have missing customer data"

type CustomerRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Invoice struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Customer   CustomerRef     `json:"customer"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Status     Status          `json:"status"`
	SentAt     *time.Time      `json:"sentAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	Items      []Item          `json:"items,omitempty"`
}

type Item struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const invoiceCols = `
i.id, COALESCE(i.customer_id::text, ''), c.name, c.email, i.amount::text, to_char(i.date, 'YYYY-MM-DD'),
i.status, i.sent_at, i.created_at`

// List returns invoices newest first. Invoices whose customer is gone are left out and counted
// in dropped.
func (r *Repository) List(ctx context.Context) (items []Invoice, dropped int, err error) {
	q := `SELECT ` + invoiceCols + `
FROM invoices i
LEFT JOIN customers c ON c.id = i.customer_id
ORDER BY i.created_at DESC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		inv, ok, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			dropped++
			continue
		}
		items = append(items, *inv)
	}
	return items, dropped, rows.Err()
}

// Get returns the invoice with its items. A missing customer leaves Customer empty.
func (r *Repository) Get(ctx context.Context, id string) (*Invoice, error) {
	q := `SELECT ` + invoiceCols + `
FROM invoices i
LEFT JOIN customers c ON c.id = i.customer_id
WHERE i.id = $1`
	inv, _, err := scanInvoice(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}

	const itemsQ = `
SELECT id, description, quantity, price::text
FROM invoice_items
WHERE invoice_id = $1
ORDER BY description
`
	rows, err := r.db.Query(ctx, itemsQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inv.Items = []Item{}
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = db.ParseNumeric(price); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, rows.Err()
}

// MarkSent records a send. The status change follows StatusAfterSend.
func (r *Repository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE invoices
SET status = CASE WHEN status = 'overdue' THEN 'overdue' ELSE 'sent' END, sent_at = $2
WHERE id = $1 AND status <> 'paid'
`
	_, err := r.db.Exec(ctx, q, id, at)
	return err
}

// StatusAfterSend is the status an invoice has once it is emailed. Paid and overdue invoices
// keep their status; a reminder does not make an overdue invoice current again.
func StatusAfterSend(cur Status) Status {
	switch cur {
	case StatusPaid, StatusOverdue:
		return cur
	default:
		return StatusSent
	}
}

// SweepOverdue flips sent invoices dated before cutoff to overdue.
func (r *Repository) SweepOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `UPDATE invoices SET status = 'overdue' WHERE status = 'sent' AND date < $1::date`
	tag, err := r.db.Exec(ctx, q, cutoff.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (*Invoice, bool, error) {
	var inv Invoice
	var name, email *string
	var amount, status string
	if err := row.Scan(&inv.ID, &inv.CustomerID, &name, &email, &amount, &inv.Date, &status, &inv.SentAt, &inv.CreatedAt); err != nil {
		return nil, false, err
	}
	var err error
	if inv.Amount, err = db.ParseNumeric(amount); err != nil {
		return nil, false, err
	}
	inv.Status = Status(status)
	if name == nil {
		return &inv, false, nil
	}
	inv.Customer = CustomerRef{Name: *name}
	if email != nil {
		inv.Customer.Email = *email
	}
	return &inv, true, nil
}

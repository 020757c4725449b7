package quote

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fieldservice/pkg/db"
)

const StatusPending = "pending"

type Quote struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
	ValidUntil   time.Time       `json:"validUntil"`
	CreatedAt    time.Time       `json:"createdAt"`
	Items        []Item          `json:"items,omitempty"`
}

type Item struct {
	ID             string          `json:"id"`
	QuoteID        string          `json:"quoteId"`
	ProductID      *string         `json:"productId,omitempty"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
}

type NewQuote struct {
	CustomerID  string
	TotalAmount decimal.Decimal
	Status      string
	Notes       string
	ValidUntil  time.Time
}

type NewItem struct {
	QuoteID        string
	ProductID      string
	Description    string
	Quantity       int
	Price          decimal.Decimal
	EstimatedHours decimal.Decimal
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateQuote(ctx context.Context, in NewQuote) (*Quote, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	const q = `
INSERT INTO quotes (customer_id, total_amount, status, notes, valid_until)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`
	out := Quote{
		CustomerID:  in.CustomerID,
		TotalAmount: in.TotalAmount,
		Status:      in.Status,
		Notes:       in.Notes,
		ValidUntil:  in.ValidUntil,
	}
	if err := r.db.QueryRow(ctx, q,
		in.CustomerID, in.TotalAmount.StringFixed(2), in.Status, in.Notes, in.ValidUntil,
	).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateQuoteItems inserts every item in one batch round trip.
func (r *Repository) CreateQuoteItems(ctx context.Context, items []NewItem) error {
	if len(items) == 0 {
		return nil
	}
	const q = `
INSERT INTO quote_items (quote_id, product_id, description, quantity, price, estimated_hours)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6)
`
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(q, it.QuoteID, it.ProductID, it.Description, it.Quantity, it.Price.StringFixed(2), it.EstimatedHours.StringFixed(2))
	}
	br := r.db.SendBatch(ctx, b)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

func (r *Repository) List(ctx context.Context) ([]Quote, error) {
	const q = `
SELECT qt.id, qt.customer_id, COALESCE(c.name, ''), qt.total_amount::text, qt.status, qt.notes, qt.valid_until, qt.created_at
FROM quotes qt
LEFT JOIN customers c ON c.id = qt.customer_id
ORDER BY qt.created_at DESC
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		qt, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *qt)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Quote, error) {
	const q = `
SELECT qt.id, qt.customer_id, COALESCE(c.name, ''), qt.total_amount::text, qt.status, qt.notes, qt.valid_until, qt.created_at
FROM quotes qt
LEFT JOIN customers c ON c.id = qt.customer_id
WHERE qt.id = $1
`
	qt, err := scanQuote(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}

	const itemsQ = `
SELECT id, quote_id, product_id::text, description, quantity, price::text, estimated_hours::text
FROM quote_items
WHERE quote_id = $1
ORDER BY description
`
	rows, err := r.db.Query(ctx, itemsQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	qt.Items = []Item{}
	for rows.Next() {
		var it Item
		var price, hours string
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProductID, &it.Description, &it.Quantity, &price, &hours); err != nil {
			return nil, err
		}
		if it.Price, err = db.ParseNumeric(price); err != nil {
			return nil, err
		}
		if it.EstimatedHours, err = db.ParseNumeric(hours); err != nil {
			return nil, err
		}
		qt.Items = append(qt.Items, it)
	}
	return qt, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*Quote, error) {
	var qt Quote
	var total string
	if err := row.Scan(&qt.ID, &qt.CustomerID, &qt.CustomerName, &total, &qt.Status, &qt.Notes, &qt.ValidUntil, &qt.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if qt.TotalAmount, err = db.ParseNumeric(total); err != nil {
		return nil, err
	}
	return &qt, nil
}

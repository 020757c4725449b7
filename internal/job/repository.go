package job

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fieldservice/internal/audit"
	"fieldservice/pkg/db"
)

var ErrAlreadyCompleted = errors.New("job already completed")

type Job struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId"`
	CustomerName   string          `json:"customerName,omitempty"`
	Title          string          `json:"title"`
	Status         Status          `json:"status"`
	Date           string          `json:"date"`
	Frequency      Frequency       `json:"frequency"`
	Address        string          `json:"address"`
	Description    string          `json:"description"`
	Crew           []string        `json:"crew"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Price          decimal.Decimal `json:"price"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	InvoiceID      *string         `json:"invoiceId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewJob holds the columns a caller sets on insert. Date is YYYY-MM-DD.
type NewJob struct {
	CustomerID     string          `json:"customerId" validate:"required"`
	Title          string          `json:"title" validate:"required"`
	Status         Status          `json:"status" validate:"omitempty,oneof=scheduled in-progress completed"`
	Date           string          `json:"date" validate:"required,datetime=2006-01-02"`
	Frequency      Frequency       `json:"frequency" validate:"omitempty,oneof=once weekly biweekly monthly quarterly"`
	Address        string          `json:"address"`
	Description    string          `json:"description"`
	Crew           []string        `json:"crew"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Price          decimal.Decimal `json:"price"`
}

// Input is the job as an update form, so a partial update can start from the stored values.
func (j Job) Input() NewJob {
	return NewJob{
		CustomerID:     j.CustomerID,
		Title:          j.Title,
		Status:         j.Status,
		Date:           j.Date,
		Frequency:      j.Frequency,
		Address:        j.Address,
		Description:    j.Description,
		Crew:           append([]string(nil), j.Crew...),
		EstimatedHours: j.EstimatedHours,
		Price:          j.Price,
	}
}

type Filter struct {
	Search    string
	Frequency Frequency
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const jobCols = `
j.id, j.customer_id, COALESCE(c.name, ''), j.title, j.status, to_char(j.date, 'YYYY-MM-DD'), j.frequency,
j.address, j.description, j.crew, j.estimated_hours::text, j.price::text, j.completed_at, j.invoice_id, j.created_at`

func (r *Repository) List(ctx context.Context, f Filter) ([]Job, error) {
	q := `SELECT ` + jobCols + `
FROM jobs j
LEFT JOIN customers c ON c.id = j.customer_id
WHERE ($1 = '' OR j.title ILIKE $1 OR j.address ILIKE $1 OR c.name ILIKE $1)
  AND ($2 = '' OR j.frequency = $2)
ORDER BY j.created_at DESC`

	pattern := ""
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern = "%" + s + "%"
	}
	rows, err := r.db.Query(ctx, q, pattern, string(f.Frequency))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Job, error) {
	return getJob(ctx, r.db, id, false)
}

func (r *Repository) CreateJob(ctx context.Context, in NewJob) (*Job, error) {
	in = withDefaults(in)
	const q = `
INSERT INTO jobs (customer_id, title, status, date, frequency, address, description, crew, estimated_hours, price)
VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
RETURNING id
`
	var id string
	if err := r.db.QueryRow(ctx, q,
		in.CustomerID, in.Title, string(in.Status), in.Date, string(in.Frequency), in.Address, in.Description,
		in.Crew, in.EstimatedHours.StringFixed(2), in.Price.StringFixed(2),
	).Scan(&id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *Repository) Update(ctx context.Context, id string, in NewJob) (*Job, error) {
	in = withDefaults(in)
	var out *Job
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getJob(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !CanTransition(cur.Status, in.Status) {
			return TransitionError{From: cur.Status, To: in.Status}
		}
		const q = `
UPDATE jobs
SET customer_id = $2, title = $3, status = $4, date = $5::date, frequency = $6, address = $7,
    description = $8, crew = $9, estimated_hours = $10, price = $11
WHERE id = $1
`
		if _, err := tx.Exec(ctx, q,
			id, in.CustomerID, in.Title, string(in.Status), in.Date, string(in.Frequency), in.Address, in.Description,
			in.Crew, in.EstimatedHours.StringFixed(2), in.Price.StringFixed(2),
		); err != nil {
			return err
		}
		out, err = getJob(ctx, tx, id, false)
		return err
	})
	return out, err
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Complete marks the job completed and bills it: a draft invoice for the job price with a single
// line item, all in one transaction.
func (r *Repository) Complete(ctx context.Context, id, actor string, today time.Time) (*Job, error) {
	var out *Job
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getJob(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if cur.Status == StatusCompleted {
			return ErrAlreadyCompleted
		}

		var invoiceID string
		if err := tx.QueryRow(ctx, `
INSERT INTO invoices (customer_id, amount, date, status)
VALUES ($1, $2, $3::date, 'draft')
RETURNING id
`, cur.CustomerID, cur.Price.StringFixed(2), today.Format("2006-01-02")).Scan(&invoiceID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO invoice_items (invoice_id, description, quantity, price)
VALUES ($1, $2, 1, $3)
`, invoiceID, cur.Title, cur.Price.StringFixed(2)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
UPDATE jobs SET status = 'completed', completed_at = $2, invoice_id = $3 WHERE id = $1
`, id, today, invoiceID); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, "job", id, audit.ActionJobCompleted, actor, map[string]any{
			"invoiceId": invoiceID,
			"amount":    cur.Price.StringFixed(2),
		}); err != nil {
			return err
		}

		out, err = getJob(ctx, tx, id, false)
		return err
	})
	return out, err
}

type TransitionError struct {
	From, To Status
}

func (e TransitionError) Error() string {
	return "cannot move job from " + string(e.From) + " to " + string(e.To)
}

func withDefaults(in NewJob) NewJob {
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyOnce
	}
	if in.Crew == nil {
		in.Crew = []string{}
	}
	return in
}

func getJob(ctx context.Context, q db.Querier, id string, forUpdate bool) (*Job, error) {
	stmt := `SELECT ` + jobCols + `
FROM jobs j
LEFT JOIN customers c ON c.id = j.customer_id
WHERE j.id = $1`
	if forUpdate {
		stmt += ` FOR UPDATE OF j`
	}
	return scanJob(q.QueryRow(ctx, stmt, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var status, freq, hours, price string
	if err := row.Scan(
		&j.ID, &j.CustomerID, &j.CustomerName, &j.Title, &status, &j.Date, &freq,
		&j.Address, &j.Description, &j.Crew, &hours, &price, &j.CompletedAt, &j.InvoiceID, &j.CreatedAt,
	); err != nil {
		return nil, err
	}
	j.Status = Status(status)
	j.Frequency = Frequency(freq)
	var err error
	if j.EstimatedHours, err = db.ParseNumeric(hours); err != nil {
		return nil, err
	}
	if j.Price, err = db.ParseNumeric(price); err != nil {
		return nil, err
	}
	if j.Crew == nil {
		j.Crew = []string{}
	}
	return &j, nil
}

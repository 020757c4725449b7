package customer

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const listQuery = `
SELECT c.id, c.name, c.phone, c.email, c.address, COALESCE(c.service_frequency, ''),
       (SELECT COUNT(*) FROM jobs j WHERE j.customer_id = c.id AND j.status = 'in-progress'),
       (SELECT COUNT(*) FROM jobs j WHERE j.customer_id = c.id AND j.status = 'scheduled'),
       (SELECT COUNT(*) FROM quotes q WHERE q.customer_id = c.id AND q.status = 'pending'),
       (SELECT COUNT(*) FROM invoices i WHERE i.customer_id = c.id)
FROM customers c
WHERE ($1 = '' OR c.name ILIKE $1 OR c.email ILIKE $1 OR c.phone ILIKE $1 OR c.address ILIKE $1)
  AND ($2 = '' OR c.service_frequency = $2)
ORDER BY c.name
`

func (r *Repository) List(ctx context.Context, f Filter) ([]Customer, error) {
	pattern := ""
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern = "%" + s + "%"
	}
	rows, err := r.db.Query(ctx, listQuery, pattern, string(f.Frequency))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		var freq string
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &freq,
			&c.ActiveJobs, &c.ScheduledJobs, &c.PendingQuotes, &c.TotalInvoices,
		); err != nil {
			return nil, err
		}
		c.ServiceFrequency = Frequency(freq)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCustomers is the unfiltered, name-ordered list the booking wizard offers.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	return r.List(ctx, Filter{})
}

func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	const q = `
SELECT id, name, phone, email, address, COALESCE(service_frequency, '')
FROM customers
WHERE id = $1
`
	var c Customer
	var freq string
	if err := r.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &freq); err != nil {
		return nil, err
	}
	c.ServiceFrequency = Frequency(freq)
	return &c, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, in NewCustomerInput) (*Customer, error) {
	const q = `
INSERT INTO customers (name, email, phone, address, service_frequency)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
RETURNING id
`
	c := Customer{
		Name:             strings.TrimSpace(in.Name),
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		Address:          strings.TrimSpace(in.Address),
		ServiceFrequency: in.ServiceFrequency,
	}
	if err := r.db.QueryRow(ctx, q, c.Name, c.Email, c.Phone, c.Address, string(c.ServiceFrequency)).Scan(&c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

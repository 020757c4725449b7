package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldservice/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectCols = `id, name, description, icon, base_price::text, estimated_hours::text, category`

func (r *Repository) ListOfferings(ctx context.Context) ([]Offering, error) {
	q := `SELECT ` + selectCols + ` FROM products ORDER BY name`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Offering, error) {
	q := `SELECT ` + selectCols + ` FROM products WHERE id = $1`
	return scanOffering(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) Create(ctx context.Context, in Input) (*Offering, error) {
	q := `
INSERT INTO products (name, description, icon, base_price, estimated_hours, category)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + selectCols
	return scanOffering(r.db.QueryRow(ctx, q,
		in.Name, in.Description, in.IconKey, in.BasePrice.StringFixed(2), in.EstimatedHours.StringFixed(2), string(in.Category),
	))
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (*Offering, error) {
	q := `
UPDATE products
SET name = $2, description = $3, icon = $4, base_price = $5, estimated_hours = $6, category = $7, updated_at = NOW()
WHERE id = $1
RETURNING ` + selectCols
	return scanOffering(r.db.QueryRow(ctx, q,
		id, in.Name, in.Description, in.IconKey, in.BasePrice.StringFixed(2), in.EstimatedHours.StringFixed(2), string(in.Category),
	))
}

// Delete reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffering(row scanner) (*Offering, error) {
	var o Offering
	var price, hours, category string
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.IconKey, &price, &hours, &category); err != nil {
		return nil, err
	}
	var err error
	if o.BasePrice, err = db.ParseNumeric(price); err != nil {
		return nil, err
	}
	if o.EstimatedHours, err = db.ParseNumeric(hours); err != nil {
		return nil, err
	}
	o.Category = Category(category)
	return &o, nil
}

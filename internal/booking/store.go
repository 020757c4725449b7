package booking

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldservice/internal/api"
	"fieldservice/internal/audit"
	"fieldservice/internal/customer"
	"fieldservice/internal/job"
	"fieldservice/internal/quote"
)

// Repos is the Postgres Store.
type Repos struct {
	DB        *pgxpool.Pool
	Customers *customer.Repository
	Jobs      *job.Repository
	Quotes    *quote.Repository
}

func NewRepos(db *pgxpool.Pool) Repos {
	return Repos{
		DB:        db,
		Customers: customer.NewRepository(db),
		Jobs:      job.NewRepository(db),
		Quotes:    quote.NewRepository(db),
	}
}

func (r Repos) CreateCustomer(ctx context.Context, in customer.NewCustomerInput) (*customer.Customer, error) {
	return r.Customers.CreateCustomer(ctx, in)
}

func (r Repos) CreateJob(ctx context.Context, in job.NewJob) (*job.Job, error) {
	return r.Jobs.CreateJob(ctx, in)
}

func (r Repos) CreateQuote(ctx context.Context, in quote.NewQuote) (*quote.Quote, error) {
	return r.Quotes.CreateQuote(ctx, in)
}

func (r Repos) CreateQuoteItems(ctx context.Context, items []quote.NewItem) error {
	return r.Quotes.CreateQuoteItems(ctx, items)
}

func (r Repos) RecordAudit(ctx context.Context, entity, entityID, action string, metadata any) error {
	return audit.Insert(ctx, r.DB, entity, entityID, action, api.Actor(ctx), metadata)
}

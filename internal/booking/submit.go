package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fieldservice/internal/audit"
	"fieldservice/internal/catalog"
	"fieldservice/internal/customer"
	"fieldservice/internal/job"
	"fieldservice/internal/quote"
)

var ErrNotReady = errors.New("booking: workflow is not ready to submit")

// Store is the set of writes a submission performs.
type Store interface {
	CreateCustomer(ctx context.Context, in customer.NewCustomerInput) (*customer.Customer, error)
	CreateJob(ctx context.Context, in job.NewJob) (*job.Job, error)
	CreateQuote(ctx context.Context, in quote.NewQuote) (*quote.Quote, error)
	CreateQuoteItems(ctx context.Context, items []quote.NewItem) error
	RecordAudit(ctx context.Context, entity, entityID, action string, metadata any) error
}

// Submission is ProjectSubmit or QuoteSubmit.
type Submission interface {
	flowKind() FlowKind
}

// CustomerChoice holds exactly one of Existing or New.
type CustomerChoice struct {
	Existing *customer.Customer
	New      *customer.NewCustomerInput
}

type ProjectSubmit struct {
	Customer   CustomerChoice
	Offerings  []catalog.Offering
	TotalPrice decimal.Decimal
	TotalHours decimal.Decimal
	Date       string
	Frequency  job.Frequency
	Notes      string
}

type QuoteSubmit struct {
	Customer   CustomerChoice
	Offerings  []catalog.Offering
	TotalPrice decimal.Decimal
	TotalHours decimal.Decimal
	Notes      string
	EmailNote  string
}

func (ProjectSubmit) flowKind() FlowKind { return FlowProject }
func (QuoteSubmit) flowKind() FlowKind   { return FlowQuote }

// Assemble builds the submission payload from a ready state.
func Assemble(s WorkflowState) (Submission, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	d := s.Draft
	var choice CustomerChoice
	if d.Customer.Mode == ModeNew {
		n := d.Customer.New
		choice.New = &n
	} else {
		c := *d.Customer.Existing
		choice.Existing = &c
	}
	offerings := append([]catalog.Offering(nil), d.Selections.Items...)

	switch s.Flow {
	case FlowProject:
		return ProjectSubmit{
			Customer:   choice,
			Offerings:  offerings,
			TotalPrice: d.Selections.TotalPrice(),
			TotalHours: d.Selections.TotalHours(),
			Date:       d.Date,
			Frequency:  job.Frequency(d.Frequency),
			Notes:      d.Notes,
		}, nil
	case FlowQuote:
		return QuoteSubmit{
			Customer:   choice,
			Offerings:  offerings,
			TotalPrice: d.Selections.TotalPrice(),
			TotalHours: d.Selections.TotalHours(),
			Notes:      d.Notes,
			EmailNote:  d.EmailNote,
		}, nil
	default:
		return nil, ErrUnknownFlow
	}
}

// Dispatcher persists submissions. Writes run one after another and each uses the id returned
// by the previous one; a failure stops the chain and nothing already written is undone.
type Dispatcher struct {
	Store         Store
	Log           *zap.Logger
	Now           func() time.Time
	QuoteValidity time.Duration
}

func (d Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Submit runs the submission for s and returns the next state. On success the state carries a
// Completion. On a *WriteError the state stays on the review step with the draft intact and an
// error banner; the error is returned as well.
func (d Dispatcher) Submit(ctx context.Context, s WorkflowState) (WorkflowState, error) {
	sub, err := Assemble(s)
	if err != nil {
		return s, err
	}
	f := s.flow()
	s.Banner = nil

	var entityID, customerID string
	switch v := sub.(type) {
	case ProjectSubmit:
		entityID, customerID, err = d.submitProject(ctx, &s, v)
	case QuoteSubmit:
		entityID, customerID, err = d.submitQuote(ctx, &s, v)
	default:
		err = ErrUnknownFlow
	}
	if err != nil {
		d.Log.Error("booking submission failed",
			zap.String("flow", string(s.Flow)),
			zap.Error(err),
		)
		if s.CreatedCustomer != nil {
			d.Log.Warn("booking left a customer without a booking",
				zap.String("customer_id", s.CreatedCustomer.Customer.ID),
			)
		}
		s.Banner = &Banner{Kind: BannerError, Message: f.FailureMessage}
		return s, err
	}

	s.CreatedCustomer = nil
	s.Completion = &Completion{
		EntityID:   entityID,
		CustomerID: customerID,
		Redirect:   JobsRedirect,
		At:         d.now(),
	}
	if f.SuccessMessage != "" {
		s.Banner = &Banner{Kind: BannerSuccess, Message: f.SuccessMessage}
	}
	return s, nil
}

func (d Dispatcher) submitProject(ctx context.Context, s *WorkflowState, p ProjectSubmit) (string, string, error) {
	c, err := d.resolveCustomer(ctx, s, p.Customer, customer.Frequency(p.Frequency))
	if err != nil {
		return "", "", err
	}

	names := strings.Join(SelectionSet{Items: p.Offerings}.Names(), ", ")
	j, err := d.Store.CreateJob(ctx, job.NewJob{
		CustomerID:     c.ID,
		Title:          names,
		Status:         job.StatusScheduled,
		Date:           p.Date,
		Frequency:      p.Frequency,
		Address:        c.Address,
		Description:    strings.TrimSpace("Services: " + names + "\n" + p.Notes),
		Crew:           []string{},
		EstimatedHours: p.TotalHours,
		Price:          p.TotalPrice,
	})
	if err != nil {
		return "", c.ID, &WriteError{Stage: StageJob, Err: err}
	}

	d.audit(ctx, "job", j.ID, audit.ActionJobScheduled, map[string]any{
		"customerId": c.ID,
		"price":      p.TotalPrice.StringFixed(2),
	})
	return j.ID, c.ID, nil
}

func (d Dispatcher) submitQuote(ctx context.Context, s *WorkflowState, q QuoteSubmit) (string, string, error) {
	c, err := d.resolveCustomer(ctx, s, q.Customer, "")
	if err != nil {
		return "", "", err
	}

	validity := d.QuoteValidity
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	created, err := d.Store.CreateQuote(ctx, quote.NewQuote{
		CustomerID:  c.ID,
		TotalAmount: q.TotalPrice,
		Status:      quote.StatusPending,
		Notes:       strings.TrimSpace(q.Notes + "\n\nEmail Note: " + q.EmailNote),
		ValidUntil:  d.now().Add(validity),
	})
	if err != nil {
		return "", c.ID, &WriteError{Stage: StageQuote, Err: err}
	}

	items := make([]quote.NewItem, 0, len(q.Offerings))
	for _, o := range q.Offerings {
		items = append(items, quote.NewItem{
			QuoteID:        created.ID,
			ProductID:      o.ID,
			Description:    o.Name,
			Quantity:       1,
			Price:          o.BasePrice,
			EstimatedHours: o.EstimatedHours,
		})
	}
	if err := d.Store.CreateQuoteItems(ctx, items); err != nil {
		return "", c.ID, &WriteError{Stage: StageQuoteItems, Err: err}
	}

	d.audit(ctx, "quote", created.ID, audit.ActionQuoteCreated, map[string]any{
		"customerId":  c.ID,
		"totalAmount": q.TotalPrice.StringFixed(2),
		"items":       len(items),
	})
	return created.ID, c.ID, nil
}

// resolveCustomer returns the existing customer or creates the new one. A customer created by an
// earlier failed attempt from the same input is reused. fallbackFreq fills an empty service
// frequency on new customers.
func (d Dispatcher) resolveCustomer(ctx context.Context, s *WorkflowState, choice CustomerChoice, fallbackFreq customer.Frequency) (customer.Customer, error) {
	if choice.Existing != nil {
		return *choice.Existing, nil
	}
	in := *choice.New
	if s.CreatedCustomer != nil && s.CreatedCustomer.From == in {
		return s.CreatedCustomer.Customer, nil
	}

	if in.ServiceFrequency == "" {
		in.ServiceFrequency = fallbackFreq
	}
	c, err := d.Store.CreateCustomer(ctx, in)
	if err != nil {
		return customer.Customer{}, &WriteError{Stage: StageCustomer, Err: err}
	}
	s.CreatedCustomer = &CreatedCustomer{Customer: *c, From: *choice.New}
	return *c, nil
}

// audit failures are logged only; the booking itself already exists.
func (d Dispatcher) audit(ctx context.Context, entity, id, action string, meta any) {
	if err := d.Store.RecordAudit(ctx, entity, id, action, meta); err != nil {
		d.Log.Warn("booking audit write failed", zap.String("entity", entity), zap.String("id", id), zap.Error(err))
	}
}

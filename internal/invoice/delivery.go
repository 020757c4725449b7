package invoice

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fieldservice/internal/audit"
	"fieldservice/pkg/db"
	"fieldservice/pkg/logging"
	"fieldservice/pkg/mailer"
)

var (
	ErrNoRecipient       = errors.New("invoice has no customer email")
	ErrSchedulingOffline = errors.New("scheduled sends are not available")
)

// Store is the slice of Repository delivery and the handlers need.
type Store interface {
	List(ctx context.Context) ([]Invoice, int, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	SweepOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler queues an email for later delivery and returns the queue's task id.
type Scheduler interface {
	ScheduleInvoiceEmail(ctx context.Context, invoiceID, note string, at time.Time) (string, error)
}

// Delivery sends invoice emails and records the send.
type Delivery struct {
	Repo   Store
	Mailer mailer.Sender
	Audit  db.Querier
	Log    *zap.Logger
	Now    func() time.Time
}

func (d Delivery) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Delivery) log() *zap.Logger { return logging.OrNop(d.Log) }

// SendNow emails the invoice and marks it sent.
func (d Delivery) SendNow(ctx context.Context, invoiceID, note, actor string) (*Invoice, error) {
	inv, err := d.Repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Customer.Email == "" {
		return nil, ErrNoRecipient
	}

	now := d.now()
	if err := d.Mailer.SendInvoice(ctx, mailer.InvoiceEmail{
		InvoiceID:     inv.ID,
		To:            inv.Customer.Email,
		CustomerName:  inv.Customer.Name,
		Amount:        inv.Amount.StringFixed(2),
		ScheduledDate: now.Format("2006-01-02"),
		Note:          note,
	}); err != nil {
		return nil, err
	}
	if err := d.Repo.MarkSent(ctx, inv.ID, now); err != nil {
		return nil, err
	}
	if inv.Status != StatusPaid {
		inv.SentAt = &now
	}
	inv.Status = StatusAfterSend(inv.Status)

	if d.Audit != nil {
		if err := audit.Insert(ctx, d.Audit, "invoice", inv.ID, audit.ActionInvoiceSent, actor, map[string]any{"to": inv.Customer.Email}); err != nil {
			d.log().Warn("invoice audit write failed", zap.String("invoice_id", inv.ID), zap.Error(err))
		}
	}
	return inv, nil
}

// SweepOverdue marks sent invoices older than dueAfter as overdue.
func (d Delivery) SweepOverdue(ctx context.Context, dueAfter time.Duration) (int64, error) {
	n, err := d.Repo.SweepOverdue(ctx, d.now().Add(-dueAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.log().Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

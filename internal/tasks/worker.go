package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice/internal/invoice"
)

// InvoiceSender is the part of invoice.Delivery the worker calls.
type InvoiceSender interface {
	SendNow(ctx context.Context, invoiceID, note, actor string) (*invoice.Invoice, error)
}

const workerActor = "scheduler"

// NewMux routes queued tasks to their handlers.
func NewMux(sender InvoiceSender, log *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvoiceEmail, handleInvoiceEmail(sender, log))
	return mux
}

func handleInvoiceEmail(sender InvoiceSender, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p InvoiceEmailPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		_, err := sender.SendNow(ctx, p.InvoiceID, p.Note, workerActor)
		switch {
		case err == nil:
			log.Info("scheduled invoice email sent", zap.String("invoice_id", p.InvoiceID))
			return nil
		case errors.Is(err, pgx.ErrNoRows), errors.Is(err, invoice.ErrNoRecipient):
			log.Warn("scheduled invoice email dropped", zap.String("invoice_id", p.InvoiceID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			log.Error("scheduled invoice email failed", zap.String("invoice_id", p.InvoiceID), zap.Error(err))
			return err
		}
	}
}

// Worker runs the asynq server for queued tasks.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(opt asynq.RedisClientOpt, sender InvoiceSender, log *zap.Logger) *Worker {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"default": 1},
		Logger:      log.Sugar(),
	})
	return &Worker{srv: srv, mux: NewMux(sender, log)}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.srv.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.srv.Shutdown()
	return nil
}

package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeInvoiceEmail = "invoice:email"

type InvoiceEmailPayload struct {
	InvoiceID string `json:"invoiceId"`
	Note      string `json:"note,omitempty"`
}

func NewInvoiceEmailTask(p InvoiceEmailPayload, sendAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeInvoiceEmail, b)
	opts := []asynq.Option{
		asynq.ProcessAt(sendAt),
		asynq.MaxRetry(5),
		asynq.Queue("default"),
	}
	return task, opts, nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue schedules invoice emails on asynq.
type Queue struct {
	client enqueuer
}

func NewQueue(client *asynq.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) ScheduleInvoiceEmail(ctx context.Context, invoiceID, note string, at time.Time) (string, error) {
	task, opts, err := NewInvoiceEmailTask(InvoiceEmailPayload{InvoiceID: invoiceID, Note: note}, at)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

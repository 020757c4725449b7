package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice/pkg/mailer"
)

var now = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

type memStore struct {
	invoices map[string]*Invoice
	dropped  int
	sent     []string
	cutoff   time.Time
}

func (m *memStore) List(ctx context.Context) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		out = append(out, *inv)
	}
	return out, m.dropped, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *inv
	return &cp, nil
}

func (m *memStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	m.sent = append(m.sent, id)
	if inv, ok := m.invoices[id]; ok && inv.Status != StatusPaid {
		inv.Status = StatusAfterSend(inv.Status)
		inv.SentAt = &at
	}
	return nil
}

func (m *memStore) SweepOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return 2, nil
}

type recordingMailer struct {
	sent []mailer.InvoiceEmail
	err  error
}

func (r *recordingMailer) SendInvoice(ctx context.Context, msg mailer.InvoiceEmail) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type recordingScheduler struct {
	at []time.Time
}

func (s *recordingScheduler) ScheduleInvoiceEmail(ctx context.Context, invoiceID, note string, at time.Time) (string, error) {
	s.at = append(s.at, at)
	return "task-1", nil
}

func setup(sched Scheduler) (*memStore, *recordingMailer, http.Handler) {
	store := &memStore{invoices: map[string]*Invoice{
		"i1": {ID: "i1", Customer: CustomerRef{Name: "Alice", Email: "a@example.com"}, Amount: decimal.RequireFromString("60"), Status: StatusDraft},
		"i2": {ID: "i2", Customer: CustomerRef{Name: "Nobody"}, Amount: decimal.RequireFromString("5"), Status: StatusDraft},
	}}
	m := &recordingMailer{}
	h := Handlers{
		Delivery:  Delivery{Repo: store, Mailer: m, Log: zap.NewNop(), Now: func() time.Time { return now }},
		Scheduler: sched,
		Log:       zap.NewNop(),
	}
	r := chi.NewRouter()
	r.Get("/invoices", h.List)
	r.Post("/invoices/{id}/email", h.Email)
	r.Get("/invoices/{id}/pdf", h.PDF)
	return store, m, r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestEmail_TodaySendsNow(t *testing.T) {
	store, m, r := setup(nil)

	rec := post(r, "/invoices/i1/email", `{"scheduledDate":"2026-06-10","note":"Thanks!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "a@example.com", m.sent[0].To)
	assert.Equal(t, "60.00", m.sent[0].Amount)
	assert.Equal(t, []string{"i1"}, store.sent)

	var inv Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, StatusSent, inv.Status)
}

func TestEmail_FutureDateIsScheduled(t *testing.T) {
	sched := &recordingScheduler{}
	store, m, r := setup(sched)

	rec := post(r, "/invoices/i1/email", `{"scheduledDate":"2026-06-12"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, m.sent)
	assert.Empty(t, store.sent)
	require.Len(t, sched.at, 1)
	assert.Equal(t, time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC), sched.at[0])
}

func TestEmail_FutureDateWithoutQueue(t *testing.T) {
	_, _, r := setup(nil)
	rec := post(r, "/invoices/i1/email", `{"scheduledDate":"2026-06-12"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEmail_Errors(t *testing.T) {
	_, m, r := setup(nil)

	assert.Equal(t, http.StatusNotFound, post(r, "/invoices/zz/email", `{"scheduledDate":"2026-06-10"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, post(r, "/invoices/i2/email", `{"scheduledDate":"2026-06-10"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/invoices/i1/email", `{"scheduledDate":"tomorrow"}`).Code)

	m.err = errors.New("smtp down")
	assert.Equal(t, http.StatusBadGateway, post(r, "/invoices/i1/email", `{"scheduledDate":"2026-06-10"}`).Code)
}

func TestList_WarnsAboutDroppedInvoices(t *testing.T) {
	store, _, r := setup(nil)
	store.dropped = 1

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items   []Invoice `json:"items"`
		Warning string    `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 2)
	assert.Equal(t, MissingCustomerWarning, body.Warning)
}

func TestPDF_NotImplemented(t *testing.T) {
	_, _, r := setup(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/i1/pdf", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSweepOverdue_UsesDueWindow(t *testing.T) {
	store, _, _ := setup(nil)
	d := Delivery{Repo: store, Log: zap.NewNop(), Now: func() time.Time { return now }}

	n, err := d.SweepOverdue(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, now.Add(-30*24*time.Hour), store.cutoff)
}

func TestStatusAfterSend(t *testing.T) {
	assert.Equal(t, StatusSent, StatusAfterSend(StatusDraft))
	assert.Equal(t, StatusSent, StatusAfterSend(StatusSent))
	assert.Equal(t, StatusOverdue, StatusAfterSend(StatusOverdue))
	assert.Equal(t, StatusPaid, StatusAfterSend(StatusPaid))
}

func TestEmail_OverdueReminderStaysOverdue(t *testing.T) {
	store, m, r := setup(nil)
	store.invoices["i1"].Status = StatusOverdue

	rec := post(r, "/invoices/i1/email", `{"scheduledDate":"2026-06-10","note":"Reminder"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, m.sent, 1)

	var got Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusOverdue, got.Status)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, StatusOverdue, store.invoices["i1"].Status)
}

package invoice

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/internal/audit"
)

type Handlers struct {
	Delivery  Delivery
	Scheduler Scheduler // nil without Redis
	Log       *zap.Logger
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, dropped, err := h.Delivery.Repo.List(r.Context())
	if err != nil {
		h.Log.Error("list invoices", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load invoices")
		return
	}
	if items == nil {
		items = []Invoice{}
	}
	resp := map[string]any{"items": items}
	if dropped > 0 {
		h.Log.Warn("invoices without customer", zap.Int("count", dropped))
		resp["warning"] = MissingCustomerWarning
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inv, err := h.Delivery.Repo.Get(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "invoice not found")
		return
	}
	if err != nil {
		h.Log.Error("get invoice", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, inv)
}

type emailRequest struct {
	ScheduledDate string `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	Note          string `json:"note"`
}

// Email sends the invoice today or schedules it for a later date.
func (h Handlers) Email(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req emailRequest
	if !api.Decode(w, r, &req) {
		return
	}

	now := h.Delivery.now()
	day, _ := time.ParseInLocation("2006-01-02", req.ScheduledDate, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if !day.After(today) {
		inv, err := h.Delivery.SendNow(r.Context(), id, req.Note, api.Actor(r.Context()))
		if !h.check(w, err, id) {
			return
		}
		api.WriteJSON(w, http.StatusOK, inv)
		return
	}

	if h.Scheduler == nil {
		h.check(w, ErrSchedulingOffline, id)
		return
	}
	if _, err := h.Delivery.Repo.Get(r.Context(), id); !h.check(w, err, id) {
		return
	}
	taskID, err := h.Scheduler.ScheduleInvoiceEmail(r.Context(), id, req.Note, day)
	if !h.check(w, err, id) {
		return
	}
	if h.Delivery.Audit != nil {
		if err := audit.Insert(r.Context(), h.Delivery.Audit, "invoice", id, audit.ActionInvoiceQueued, api.Actor(r.Context()), map[string]any{
			"taskId": taskID, "scheduledDate": req.ScheduledDate,
		}); err != nil {
			h.Log.Warn("invoice audit write failed", zap.String("invoice_id", id), zap.Error(err))
		}
	}
	api.WriteJSON(w, http.StatusAccepted, map[string]any{
		"invoiceId":     id,
		"taskId":        taskID,
		"scheduledDate": req.ScheduledDate,
	})
}

// PDF rendering is not offered.
func (h Handlers) PDF(w http.ResponseWriter, r *http.Request) {
	api.WriteError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "invoice PDF download is not available")
}

func (h Handlers) check(w http.ResponseWriter, err error, id string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, pgx.ErrNoRows):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "invoice not found")
	case errors.Is(err, ErrNoRecipient):
		api.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, ErrSchedulingOffline):
		api.WriteError(w, http.StatusServiceUnavailable, "SCHEDULING_UNAVAILABLE", "future-dated sends need the task queue")
	default:
		h.Log.Error("send invoice", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusBadGateway, "INTERNAL", "Failed to send invoice")
	}
	return false
}

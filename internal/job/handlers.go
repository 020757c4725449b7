package job

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
)

type Store interface {
	List(ctx context.Context, f Filter) ([]Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	CreateJob(ctx context.Context, in NewJob) (*Job, error)
	Update(ctx context.Context, id string, in NewJob) (*Job, error)
	Delete(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id, actor string, today time.Time) (*Job, error)
}

type Handlers struct {
	Repo Store
	Log  *zap.Logger
	Now  func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	f := Filter{
		Search:    strings.TrimSpace(r.URL.Query().Get("q")),
		Frequency: Frequency(strings.TrimSpace(r.URL.Query().Get("frequency"))),
	}
	if f.Frequency == "all" {
		f.Frequency = ""
	}
	items, err := h.Repo.List(r.Context(), f)
	if err != nil {
		h.Log.Error("list jobs", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Job{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := h.Repo.Get(r.Context(), id)
	if !h.check(w, err, "get job", id) {
		return
	}
	api.WriteJSON(w, http.StatusOK, j)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in NewJob
	if !api.Decode(w, r, &in) {
		return
	}
	j, err := h.Repo.CreateJob(r.Context(), in)
	if !h.check(w, err, "create job", "") {
		return
	}
	api.WriteJSON(w, http.StatusCreated, j)
}

// Update applies a partial update: fields missing from the body keep their stored values.
func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur, err := h.Repo.Get(r.Context(), id)
	if !h.check(w, err, "get job", id) {
		return
	}
	in := cur.Input()
	if !api.Decode(w, r, &in) {
		return
	}
	if in.Status == StatusCompleted {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "use the complete action to finish a job")
		return
	}
	j, err := h.Repo.Update(r.Context(), id, in)
	if !h.check(w, err, "update job", id) {
		return
	}
	api.WriteJSON(w, http.StatusOK, j)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.Repo.Delete(r.Context(), id)
	if !h.check(w, err, "delete job", id) {
		return
	}
	if !ok {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete finishes the job and issues its draft invoice.
func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := h.Repo.Complete(r.Context(), id, api.Actor(r.Context()), h.now())
	if !h.check(w, err, "complete job", id) {
		return
	}
	api.WriteJSON(w, http.StatusOK, j)
}

// check writes the error response for err and reports whether the handler may continue.
func (h Handlers) check(w http.ResponseWriter, err error, op, id string) bool {
	if err == nil {
		return true
	}
	var te TransitionError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "job not found")
	case errors.Is(err, ErrAlreadyCompleted):
		api.WriteError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.As(err, &te):
		api.WriteError(w, http.StatusConflict, "CONFLICT", te.Error())
	default:
		h.Log.Error(op, zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
	return false
}

package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/pkg/db"
)

// Entities that write audit rows.
var Entities = map[string]bool{"job": true, "quote": true, "invoice": true}

type Lister func(ctx context.Context, entity, entityID string) ([]Entry, error)

// FromQuerier lists through q.
func FromQuerier(q db.Querier) Lister {
	return func(ctx context.Context, entity, entityID string) ([]Entry, error) {
		return List(ctx, q, entity, entityID)
	}
}

type Handlers struct {
	List Lister
	Log  *zap.Logger
}

// Activity serves GET /activity/{entity}/{id}.
func (h Handlers) Activity(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if !Entities[entity] {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "entity must be one of: job, quote, invoice")
		return
	}
	items, err := h.List(r.Context(), entity, chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("list activity", zap.String("entity", entity), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Entry{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

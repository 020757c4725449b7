package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
)

// Store is the slice of Repository the handlers use.
type Store interface {
	ListOfferings(ctx context.Context) ([]Offering, error)
	Create(ctx context.Context, in Input) (*Offering, error)
	Update(ctx context.Context, id string, in Input) (*Offering, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Handlers struct {
	Repo Store
	Log  *zap.Logger
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListOfferings(r.Context())
	if err != nil {
		h.Log.Error("list offerings", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Offering{}
	}
	for i := range items {
		items[i].IconKey = ResolveIcon(items[i].IconKey)
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items, "icons": Icons})
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	in := DefaultInput()
	if !api.Decode(w, r, &in) {
		return
	}
	in, err := in.Normalize()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	o, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		h.Log.Error("create offering", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, o)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	in := DefaultInput()
	if !api.Decode(w, r, &in) {
		return
	}
	in, err := in.Normalize()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	o, err := h.Repo.Update(r.Context(), id, in)
	if errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "offering not found")
		return
	}
	if err != nil {
		h.Log.Error("update offering", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, o)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.Repo.Delete(r.Context(), id)
	if err != nil {
		h.Log.Error("delete offering", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if !ok {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "offering not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

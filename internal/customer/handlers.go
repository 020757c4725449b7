package customer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
)

type Store interface {
	List(ctx context.Context, f Filter) ([]Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	CreateCustomer(ctx context.Context, in NewCustomerInput) (*Customer, error)
}

type Handlers struct {
	Repo Store
	Log  *zap.Logger
}

// List supports ?q= (name, email, phone, address) and ?frequency=.
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
		h.Log.Error("list customers", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Customer{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.Repo.Get(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "customer not found")
		return
	}
	if err != nil {
		h.Log.Error("get customer", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in NewCustomerInput
	if !api.Decode(w, r, &in) {
		return
	}
	c, err := h.Repo.CreateCustomer(r.Context(), in)
	if err != nil {
		h.Log.Error("create customer", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, c)
}

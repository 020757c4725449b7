package booking

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/internal/job"
)

type Handlers struct {
	Sessions   SessionStore
	Offerings  OfferingSource
	Customers  CustomerSource
	Dispatcher Dispatcher
	Log        *zap.Logger
	Now        func() time.Time
	// ResetDelay is how long a completed quote keeps its success banner.
	ResetDelay time.Duration
}

type sessionResponse struct {
	ID    string        `json:"id"`
	State WorkflowState `json:"state"`
	View  View          `json:"view"`
	Lists Lists         `json:"lists"`
}

type submitFailure struct {
	Error   api.APIError    `json:"error"`
	Session sessionResponse `json:"session"`
}

// requestError is a handler-level rejection; the session is not saved.
type requestError struct {
	status  int
	code    string
	message string
}

func (e requestError) Error() string { return e.message }

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flow string `json:"flow" validate:"required,oneof=project quote"`
	}
	if !api.Decode(w, r, &req) {
		return
	}

	st, err := Start(FlowKind(req.Flow), h.now())
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	lists := Preload(r.Context(), h.Offerings, h.Customers, h.Log)

	s := &Session{
		ID:    uuid.NewString(),
		State: WithLoadBanner(st, lists),
		Lists: lists,
	}
	h.save(w, r, s, http.StatusCreated)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	h.save(w, r, s, http.StatusOK)
}

// Delete abandons the draft. Nothing was persisted for it.
func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.Log.Error("delete booking session", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customerId" validate:"required"`
	}
	if !api.Decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(s *Session) error {
		c, ok := s.Lists.Customer(req.CustomerID)
		if !ok {
			return requestError{http.StatusNotFound, "NOT_FOUND", "customer not found"}
		}
		s.State = SelectCustomer(s.State, c)
		return nil
	})
}

func (h Handlers) SetNewCustomerMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
	if !api.Decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(s *Session) error {
		s.State = SetNewCustomerMode(s.State, *req.Enabled)
		return nil
	})
}

func (h Handlers) UpdateNewCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field" validate:"required,oneof=name email phone address serviceFrequency"`
		Value string `json:"value"`
	}
	if !api.Decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(s *Session) error {
		next, err := UpdateNewCustomerField(s.State, req.Field, req.Value)
		if err != nil {
			return requestError{http.StatusBadRequest, "VALIDATION_FAILED", err.Error()}
		}
		s.State = next
		return nil
	})
}

func (h Handlers) ToggleOffering(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "offeringId")
	h.apply(w, r, func(s *Session) error {
		o, ok := s.Lists.Offering(id)
		if !ok {
			return requestError{http.StatusNotFound, "NOT_FOUND", "offering not found"}
		}
		s.State = ToggleOffering(s.State, o)
		return nil
	})
}

func (h Handlers) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req Details
	if !api.Decode(w, r, &req) {
		return
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		if _, err := time.Parse("2006-01-02", *req.Date); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be YYYY-MM-DD")
			return
		}
	}
	if req.Frequency != nil && *req.Frequency != "" {
		if _, err := job.ParseFrequency(*req.Frequency); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
	}
	h.apply(w, r, func(s *Session) error {
		s.State = UpdateDetails(s.State, req)
		return nil
	})
}

func (h Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(s *Session) error {
		if !s.State.CanNext() {
			if s.State.OnLastStep() {
				return requestError{http.StatusConflict, "STEP_INVALID", "already on the last step; submit instead"}
			}
			return requestError{http.StatusConflict, "STEP_INVALID", "complete the current step first"}
		}
		s.State = Next(s.State)
		return nil
	})
}

func (h Handlers) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(s *Session) error {
		s.State = Back(s.State)
		return nil
	})
}

func (h Handlers) DismissError(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(s *Session) error {
		s.State = DismissBanner(s.State)
		return nil
	})
}

func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	if !s.State.Ready() {
		api.WriteError(w, http.StatusConflict, "STEP_INVALID", "booking is not ready to submit")
		return
	}

	next, err := h.Dispatcher.Submit(r.Context(), s.State)
	s.State = next

	var werr *WriteError
	if errors.As(err, &werr) {
		s.UpdatedAt = h.now()
		if perr := h.Sessions.Put(r.Context(), s); perr != nil {
			h.Log.Error("save booking session", zap.String("id", s.ID), zap.Error(perr))
		}
		api.WriteJSON(w, http.StatusBadGateway, submitFailure{
			Error:   api.APIError{Code: "SUBMIT_FAILED", Message: s.State.Banner.Message},
			Session: h.response(s),
		})
		return
	}
	if err != nil {
		h.Log.Error("submit booking", zap.String("id", s.ID), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	h.save(w, r, s, http.StatusOK)
}

func (h Handlers) apply(w http.ResponseWriter, r *http.Request, fn func(s *Session) error) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		var re requestError
		if errors.As(err, &re) {
			api.WriteError(w, re.status, re.code, re.message)
			return
		}
		h.Log.Error("booking transition", zap.String("id", s.ID), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	h.save(w, r, s, http.StatusOK)
}

// load fetches the session and applies any pending reset.
func (h Handlers) load(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	s, err := h.Sessions.Get(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking session not found")
		return nil, false
	}
	if err != nil {
		h.Log.Error("load booking session", zap.String("id", id), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return nil, false
	}
	s.State = Settle(s.State, h.now(), h.ResetDelay)
	return s, true
}

func (h Handlers) save(w http.ResponseWriter, r *http.Request, s *Session, status int) {
	s.UpdatedAt = h.now()
	if err := h.Sessions.Put(r.Context(), s); err != nil {
		h.Log.Error("save booking session", zap.String("id", s.ID), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, status, h.response(s))
}

func (h Handlers) response(s *Session) sessionResponse {
	return sessionResponse{ID: s.ID, State: s.State, View: Project(s.State), Lists: s.Lists}
}

// Routes mounts the booking session endpoints.
func (h Handlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/customer/select", h.SelectCustomer)
		r.Put("/customer/new-mode", h.SetNewCustomerMode)
		r.Patch("/customer/new", h.UpdateNewCustomer)
		r.Post("/selections/{offeringId}/toggle", h.ToggleOffering)
		r.Patch("/details", h.UpdateDetails)
		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/submit", h.Submit)
		r.Post("/dismiss-error", h.DismissError)
	})
}

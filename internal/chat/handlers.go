package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/internal/storage"
)

const maxImageBytes = 10 << 20

type Handlers struct {
	Repo   Store
	Poster Poster
	Log    *zap.Logger
}

func (h Handlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListChannels(r.Context())
	if err != nil {
		h.Log.Error("list channels", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Channel{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}
	if !api.Decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "name is required")
		return
	}
	c, err := h.Repo.CreateChannel(r.Context(), name, strings.TrimSpace(req.Description))
	if err != nil {
		h.Log.Error("create channel", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, c)
}

func (h Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("list messages", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Message{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// PostMessage accepts JSON {"content"} or a multipart form with "content" and an "image" file.
func (h Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		return
	}
	in := Post{ChannelID: chi.URLParam(r, "id"), SenderID: p.ID, SenderName: p.Name}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid form")
			return
		}
		in.Content = r.FormValue("content")
		file, _, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			in.Image = file
		case errors.Is(err, http.ErrMissingFile):
		default:
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid image")
			return
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if !api.Decode(w, r, &req) {
			return
		}
		in.Content = req.Content
	}

	m, err := h.Poster.Post(r.Context(), in)
	switch {
	case err == nil:
		api.WriteJSON(w, http.StatusCreated, m)
	case errors.Is(err, ErrEmptyMessage):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, ErrUnknownChannel):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, storage.ErrUploadsDisabled):
		api.WriteError(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", err.Error())
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to send message")
	}
}

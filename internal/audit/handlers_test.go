package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActivity(t *testing.T) {
	var gotEntity, gotID string
	h := Handlers{
		List: func(ctx context.Context, entity, entityID string) ([]Entry, error) {
			gotEntity, gotID = entity, entityID
			if entityID == "none" {
				return nil, nil
			}
			return []Entry{{ID: "a1", Entity: entity, EntityID: entityID, Action: ActionJobScheduled, Actor: "s1"}}, nil
		},
		Log: zap.NewNop(),
	}
	r := chi.NewRouter()
	r.Get("/activity/{entity}/{id}", h.Activity)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity/job/j1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "job", gotEntity)
	assert.Equal(t, "j1", gotID)
	assert.Contains(t, rec.Body.String(), `"action":"JOB_SCHEDULED"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity/quote/none", nil))
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity/customer/c1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fieldservice/internal/booking"
	"fieldservice/internal/chat"
	"fieldservice/internal/storage"
	"fieldservice/pkg/config"
)

func testRouter(appEnv string) http.Handler {
	return NewRouter(Dependencies{
		Cfg: config.Config{
			AppEnv:             appEnv,
			AllowedOrigins:     []string{"http://localhost:5173"},
			ChatPostsPerMinute: 10,
			Auth:               config.AuthConfig{JWTSecret: "s", Issuer: "fieldservice"},
		},
		Log:      zap.NewNop(),
		Sessions: booking.NewMemoryStore(time.Hour),
		Broker:   chat.NewMemoryBroker(zap.NewNop()),
		Images:   storage.Disabled{},
	})
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter("dev").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_V1RequiresStaff(t *testing.T) {
	r := testRouter("prod")
	for _, path := range []string{"/v1/jobs", "/v1/catalog", "/v1/bookings/abc", "/v1/chat/channels"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Staff-Id", "s1")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Preflight(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	testRouter("prod").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

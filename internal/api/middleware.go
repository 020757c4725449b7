package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fieldservice/pkg/authtoken"
	"fieldservice/pkg/config"
)

// StaffAuth validates staff bearer tokens.
//
// Expected header:
// - Authorization: Bearer <JWT>
// Websocket handshakes may pass the token as ?access_token= instead.
//
// Outside prod, a missing Authorization header falls back to X-Staff-Id (and optional
// X-Staff-Name) to keep local testing simple.
func StaffAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[7:])
			} else if websocket.IsWebSocketUpgrade(r) {
				// Browsers cannot set headers on a websocket handshake.
				token = strings.TrimSpace(r.URL.Query().Get("access_token"))
			}
			if token != "" {
				staff, err := authtoken.Verify(token, cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				p := &Principal{ID: staff.ID, Name: staff.Name}
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				if id := strings.TrimSpace(r.Header.Get("X-Staff-Id")); id != "" {
					name := strings.TrimSpace(r.Header.Get("X-Staff-Name"))
					if name == "" {
						name = id
					}
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), &Principal{ID: id, Name: name})))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Recoverer turns a handler panic into an INTERNAL error envelope.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("unhandled panic", zap.Any("error", rec), zap.String("path", r.URL.Path))
					WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

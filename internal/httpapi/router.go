package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/internal/audit"
	"fieldservice/internal/booking"
	"fieldservice/internal/catalog"
	"fieldservice/internal/chat"
	"fieldservice/internal/customer"
	"fieldservice/internal/invoice"
	"fieldservice/internal/job"
	"fieldservice/internal/quote"
	"fieldservice/internal/storage"
	"fieldservice/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger

	Sessions  booking.SessionStore
	Broker    chat.Broker
	Images    storage.ImageStore
	Delivery  invoice.Delivery
	Scheduler invoice.Scheduler // nil without Redis
	Now       func() time.Time
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(api.RequestLogger(deps.Log))
	r.Use(api.Recoverer(deps.Log))
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Staff-Id", "X-Staff-Name"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	catalogRepo := catalog.NewRepository(deps.DB)
	customerRepo := customer.NewRepository(deps.DB)
	chatRepo := chat.NewRepository(deps.DB)

	catalogHandlers := catalog.Handlers{Repo: catalogRepo, Log: deps.Log}
	customerHandlers := customer.Handlers{Repo: customerRepo, Log: deps.Log}
	jobHandlers := job.Handlers{Repo: job.NewRepository(deps.DB), Log: deps.Log, Now: deps.Now}
	quoteHandlers := quote.Handlers{Repo: quote.NewRepository(deps.DB), Log: deps.Log}
	invoiceHandlers := invoice.Handlers{Delivery: deps.Delivery, Scheduler: deps.Scheduler, Log: deps.Log}
	bookingHandlers := booking.Handlers{
		Sessions:  deps.Sessions,
		Offerings: catalogRepo,
		Customers: customerRepo,
		Dispatcher: booking.Dispatcher{
			Store:         booking.NewRepos(deps.DB),
			Log:           deps.Log,
			Now:           deps.Now,
			QuoteValidity: deps.Cfg.Booking.QuoteValidity,
		},
		Log:        deps.Log,
		Now:        deps.Now,
		ResetDelay: deps.Cfg.Booking.ResetDelay,
	}
	chatHandlers := chat.Handlers{
		Repo: chatRepo,
		Poster: chat.Poster{
			Repo:   chatRepo,
			Images: deps.Images,
			Broker: deps.Broker,
			Log:    deps.Log,
			Now:    deps.Now,
		},
		Log: deps.Log,
	}
	activityHandlers := audit.Handlers{List: audit.FromQuerier(deps.DB), Log: deps.Log}
	stream := chat.NewStream(chatRepo, deps.Broker, deps.Log, deps.Cfg.AllowedOrigins)
	postLimit := api.NewKeyedLimiter(deps.Cfg.ChatPostsPerMinute)

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.StaffAuth(deps.Cfg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandlers.List)
			r.Post("/", catalogHandlers.Create)
			r.Put("/{id}", catalogHandlers.Update)
			r.Delete("/{id}", catalogHandlers.Delete)
		})

		r.Get("/customers", customerHandlers.List)
		r.Post("/customers", customerHandlers.Create)
		r.Get("/customers/{id}", customerHandlers.Get)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandlers.List)
			r.Post("/", jobHandlers.Create)
			r.Get("/{id}", jobHandlers.Get)
			r.Patch("/{id}", jobHandlers.Update)
			r.Delete("/{id}", jobHandlers.Delete)
			r.Post("/{id}/complete", jobHandlers.Complete)
		})

		r.Get("/quotes", quoteHandlers.List)
		r.Get("/quotes/{id}", quoteHandlers.Get)

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", invoiceHandlers.List)
			r.Get("/{id}", invoiceHandlers.Get)
			r.Post("/{id}/email", invoiceHandlers.Email)
			r.Get("/{id}/pdf", invoiceHandlers.PDF)
		})

		r.Route("/bookings", bookingHandlers.Routes)

		r.Get("/activity/{entity}/{id}", activityHandlers.Activity)

		r.Route("/chat/channels", func(r chi.Router) {
			r.Get("/", chatHandlers.ListChannels)
			r.Post("/", chatHandlers.CreateChannel)
			r.Get("/{id}/messages", chatHandlers.ListMessages)
			r.With(api.RateLimit(postLimit)).Post("/{id}/messages", chatHandlers.PostMessage)
			r.Get("/{id}/stream", stream.ServeHTTP)
		})
	})

	return r
}

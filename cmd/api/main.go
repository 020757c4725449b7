package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fieldservice/internal/booking"
	"fieldservice/internal/chat"
	"fieldservice/internal/httpapi"
	"fieldservice/internal/invoice"
	"fieldservice/internal/storage"
	"fieldservice/internal/tasks"
	"fieldservice/pkg/config"
	"fieldservice/pkg/db"
	"fieldservice/pkg/logging"
	"fieldservice/pkg/mailer"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg, 0); err != nil {
			return err
		}
	}

	var mail mailer.Sender = mailer.LogSender{Log: logger}
	if cfg.Mailer.URL != "" {
		mail = mailer.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
			URL:        cfg.Mailer.URL,
			Secret:     cfg.Mailer.Secret,
		}
	}

	invoices := invoice.NewRepository(conn)
	delivery := invoice.Delivery{Repo: invoices, Mailer: mail, Audit: conn, Log: logger}

	var images storage.ImageStore = storage.Disabled{}
	if cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinary(cfg.CloudinaryURL, "chat")
		if err != nil {
			return err
		}
		images = cld
	}

	deps := httpapi.Dependencies{
		Cfg:      cfg,
		DB:       conn,
		Log:      logger,
		Images:   images,
		Delivery: delivery,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.SessionDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		deps.Sessions = booking.NewRedisStore(rdb, cfg.Booking.DraftTTL)
		deps.Broker = chat.NewRedisBroker(rdb, logger)

		queueOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.QueueDB,
		}
		client := asynq.NewClient(queueOpt)
		defer client.Close()
		deps.Scheduler = tasks.NewQueue(client)

		worker := tasks.NewWorker(queueOpt, delivery, logger)
		g.Go(func() error { return worker.Run(gctx) })
		logger.Info("redis enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		deps.Sessions = booking.NewMemoryStore(cfg.Booking.DraftTTL)
		deps.Broker = chat.NewMemoryBroker(logger)
		logger.Warn("REDIS_ADDR unset; drafts and chat stay in process, future invoice emails disabled")
	}

	if _, err := tasks.StartOverdueSweep(gctx, cfg.Invoices.SweepSpec, cfg.Invoices.DueAfter, delivery, logger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/assistant"
	"bookingAgent/internal/config"
	"bookingAgent/internal/http-server/handlers/chat"
	"bookingAgent/internal/http-server/handlers/event/cancelBooking"
	"bookingAgent/internal/http-server/handlers/event/createBooking"
	"bookingAgent/internal/http-server/handlers/event/createEvent"
	"bookingAgent/internal/http-server/handlers/event/getAllEvents"
	"bookingAgent/internal/http-server/handlers/event/getEventInfo"
	"bookingAgent/internal/http-server/middleware/mwlogger"
	"bookingAgent/internal/lib/logger/handlers/slogpretty"
	"bookingAgent/internal/lib/logger/sl"
	"bookingAgent/internal/llm/openai"
	"bookingAgent/internal/metrics"
	"bookingAgent/internal/models"
	"bookingAgent/internal/sms"
	"bookingAgent/internal/storage/memory"
	"bookingAgent/internal/storage/postgres"
	"bookingAgent/internal/tools"
	"bookingAgent/internal/translate"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

// bookingStore is what both storage backends provide.
type bookingStore interface {
	tools.Store
	CreateEvent(ctx context.Context, event models.Event) (*models.Event, error)
	EventBookings(ctx context.Context, eventID string) ([]models.Booking, error)
	Close() error
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting booking agent", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	store, err := setupStorage(cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	model, err := openai.New(openai.Config{
		APIKey:      cfg.Model.APIKey,
		Model:       cfg.Model.Name,
		BaseURL:     cfg.Model.BaseURL,
		Temperature: cfg.Model.Temperature,
		HTTPClient:  &http.Client{Timeout: cfg.Model.Timeout},
	})
	if err != nil {
		log.Error("failed to init model", sl.Err(err))
		os.Exit(1)
	}

	registry := tools.New(store, setupSender(cfg, log), tools.WithLogger(log))

	var recorder agent.Recorder
	m := metrics.New()
	if cfg.Metrics.Enabled {
		recorder = m
	}

	loopOpts := []agent.Option{
		agent.WithLogger(log),
		agent.WithMaxRounds(cfg.Agent.MaxRounds),
		agent.WithToolTimeout(cfg.Agent.ToolTimeout),
	}
	if recorder != nil {
		loopOpts = append(loopOpts, agent.WithRecorder(recorder))
	}

	loop, err := agent.New(model, registry, loopOpts...)
	if err != nil {
		log.Error("failed to init agent", sl.Err(err))
		os.Exit(1)
	}

	assistantOpts := []assistant.Option{
		assistant.WithLogger(log),
		assistant.WithTimeout(cfg.Agent.Timeout),
	}
	if cfg.Translation.Enabled {
		assistantOpts = append(assistantOpts, assistant.WithTranslator(translate.New(translate.Config{
			BaseURL: cfg.Translation.BaseURL,
			Timeout: cfg.Translation.Timeout,
		})))
	}

	bot, err := assistant.New(loop, assistantOpts...)
	if err != nil {
		log.Error("failed to init assistant", sl.Err(err))
		os.Exit(1)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	if cfg.Metrics.Enabled {
		router.Use(m.Middleware)
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/api/chat", chat.New(log, bot))

	router.Post("/events", createEvent.New(log, store))
	router.Post("/events/{id}/book", createBooking.New(log, store))
	router.Get("/events/{id}", getEventInfo.New(log, store))
	router.Get("/events", getAllEvents.New(log, store))
	router.Delete("/bookings/{id}", cancelBooking.New(log, store))

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, m.Handler())
	}

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop

	log.Info("application stopping", slog.String("signal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("application stopped")

	if err = store.Close(); err != nil {
		log.Error("failed to close storage", sl.Err(err))
	}

	log.Info("storage closed", slog.String("driver", cfg.Storage.Driver))
}

func setupStorage(cfg *config.Config) (bookingStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return postgres.InitDB(&cfg.Database)
	case config.StorageMemory:
		var opts []memory.Option
		if cfg.Storage.CSVDir != "" {
			opts = append(opts, memory.WithCSVDir(cfg.Storage.CSVDir))
		}
		return memory.New(opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func setupSender(cfg *config.Config, log *slog.Logger) tools.Sender {
	if cfg.SMS.Provider == config.SMSTwilio {
		return sms.NewTwilio(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From, log)
	}
	return sms.NewLog(log)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}

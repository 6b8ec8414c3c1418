package main

import (
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
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/omarshaarawi/pickem/internal/api/backend"
	"github.com/omarshaarawi/pickem/internal/bot"
	"github.com/omarshaarawi/pickem/internal/config"
	"github.com/omarshaarawi/pickem/internal/repository/memory"
	"github.com/omarshaarawi/pickem/internal/repository/sqlite"
	"github.com/omarshaarawi/pickem/internal/scheduler"
	"github.com/omarshaarawi/pickem/internal/service"
	"github.com/omarshaarawi/pickem/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("loading display timezone: %w", err)
	}

	var store session.TokenStore
	if cfg.Storage.SessionDB == "" {
		slog.Warn("SESSION_DB is empty, sessions will not survive a restart")
		store = memory.NewRepository()
	} else {
		repo, err := sqlite.Open(cfg.Storage.SessionDB)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				slog.Error("Error closing session store", "error", err)
			}
		}()
		store = repo
	}

	clock := clockwork.NewRealClock()
	client := backend.NewClient(cfg.PickemAPI)

	sched, err := scheduler.NewScheduler(cfg.Refresh, loc, clock)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	pickemService := service.NewPickemService(client, store, sched, clock, loc)
	defer pickemService.Shutdown()

	telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, pickemService)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           healthRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error starting HTTP server", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			slog.Error("Error running telegram bot", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping HTTP server", "error", err)
	}
	return nil
}

func healthRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", healthCheckHandler)
	r.Get("/healthz", healthCheckHandler)
	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

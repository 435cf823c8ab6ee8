package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dawamy/attendance-bot/internal/bot"
	"github.com/dawamy/attendance-bot/internal/config"
	appHTTP "github.com/dawamy/attendance-bot/internal/handler/http"
	"github.com/dawamy/attendance-bot/internal/pkg/clock"
	"github.com/dawamy/attendance-bot/internal/pkg/cron"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
	"github.com/dawamy/attendance-bot/internal/repository/postgresql"
	attendanceService "github.com/dawamy/attendance-bot/internal/service/attendance"
	breaksService "github.com/dawamy/attendance-bot/internal/service/breaks"
	registrationService "github.com/dawamy/attendance-bot/internal/service/registration"
	requestService "github.com/dawamy/attendance-bot/internal/service/request"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if err := database.Migrate(dsn); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	clk, err := clock.New()
	if err != nil {
		return fmt.Errorf("failed to load time zone: %w", err)
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	allowlistRepo := postgresql.NewAllowlistRepository(db)
	adminRepo := postgresql.NewAdminRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	breakRepo := postgresql.NewBreakRepository(db)
	requestRepo := postgresql.NewRequestRepository(db)

	registrationSvc := registrationService.NewService(db, employeeRepo, allowlistRepo, adminRepo)
	attendanceSvc := attendanceService.NewService(db, clk, cfg.Workday, attendanceRepo, breakRepo)
	breaksSvc := breaksService.NewService(clk, cfg.Breaks, cfg.Workday, attendanceRepo, breakRepo)
	requestSvc := requestService.NewService(db, clk, requestRepo, attendanceRepo, adminRepo)

	if err := registrationSvc.ReconcileBootstrap(ctx, cfg.Bot.SuperAdminIDs, cfg.Bot.AllowedPhones); err != nil {
		return fmt.Errorf("failed to reconcile bootstrap data: %w", err)
	}

	conversations := bot.NewConversations(clk, cfg.Bot.ConversationTimeout)
	dispatcher := bot.NewDispatcher(registrationSvc, attendanceSvc, breaksSvc, requestSvc, conversations)

	telegram, err := bot.NewTelegram(cfg.Bot.Token)
	if err != nil {
		return err
	}

	pool := bot.NewPool(ctx, dispatcher, telegram, 0)
	telegram.Attach(pool)

	scheduler := cron.NewScheduler()
	cron.NewDayRollJobs(breaksSvc).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(cfg.App.Env, telegram.WebhookHandler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	pollStopped := make(chan struct{})
	if cfg.Bot.WebhookBaseURL != "" {
		close(pollStopped)
		if err := telegram.RegisterWebhook(cfg.Bot.WebhookBaseURL); err != nil {
			return err
		}
		slog.Info("telegram webhook registered", "base_url", cfg.Bot.WebhookBaseURL)
	} else {
		go func() {
			defer close(pollStopped)
			slog.Info("telegram long polling started")
			if err := telegram.Poll(ctx); err != nil && ctx.Err() == nil {
				serverErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}

	// The poller submits to the pool, so it must stop before the queues close.
	<-pollStopped
	pool.Close()

	return nil
}

func setupLogger(level string) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)
}

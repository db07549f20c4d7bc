package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/oumpowerman/thaoshare/config"
	"github.com/oumpowerman/thaoshare/database"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/jobs"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/providers"
	_ "github.com/oumpowerman/thaoshare/providers/gcs"
	_ "github.com/oumpowerman/thaoshare/providers/local"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/oumpowerman/thaoshare/routes"
	"github.com/oumpowerman/thaoshare/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg, logger)
		},
	}
}

func openBus(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (events.Bus, error) {
	if cfg.Driver != "amqp" {
		return events.NewMemoryBus(), nil
	}
	bus, err := events.NewAMQPBus(cfg.URL, cfg.Exchange, cfg.Queue, logger)
	if err != nil {
		return nil, err
	}
	if err := bus.Run(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return bus, nil
}

func serve(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OtelEnabled {
		shutdown, err := initTracer(programName)
		if err != nil {
			return err
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = shutdown(sctx)
		}()
	}

	db, err := database.Connect(cfg.DB, database.Options{Tracing: cfg.OtelEnabled, Logger: logger})
	if err != nil {
		return err
	}

	bus, err := openBus(ctx, cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("open change feed: %w", err)
	}
	defer bus.Close()

	uploader, err := providers.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Close(uploader); err != nil {
			logger.Warn("closing slip storage", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := repository.New(db, bus).WithLogger(logger)
	notifications := services.NewNotificationService(store, m, logger)
	reports := services.NewReportService(store, m, logger)
	stopWatch := reports.Watch(bus)
	defer stopWatch()

	deps := routes.Deps{
		JWTSecret:     cfg.Auth.JWTSecret,
		Members:       store,
		Health:        store,
		Gatherer:      reg,
		Circles:       services.NewCircleService(store, m, logger),
		MemberSvc:     services.NewMemberService(store, logger),
		Settlement:    services.NewSettlementService(store, notifications, m, logger),
		Payments:      services.NewPaymentService(store, uploader, m, logger),
		Reports:       reports,
		Notifications: notifications,
	}
	if cfg.Storage.Provider == "local" {
		deps.UploadDir = cfg.Storage.Dir
		deps.UploadURL = cfg.Storage.PublicURL
	}

	app := fiber.New(fiber.Config{
		AppName:   programName,
		BodyLimit: 8 << 20,
	})
	app.Use(recover.New(), middlewares.RequestLogger(logger))
	routes.Setup(app, deps)

	scheduler := &jobs.Scheduler{
		Notifications:    notifications,
		ReminderInterval: cfg.ReminderInterval,
		CleanupInterval:  24 * time.Hour,
		Retention:        cfg.NotificationRetention,
		Logger:           logger,
	}
	scheduler.Start(ctx)

	addr := cfg.Addr()
	logger.Info("server running", "addr", addr, "currency", cfg.Currency)

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Error("failed to start server", "error", err)
			cancel()
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
	case <-ctx.Done():
	}

	logger.Info("gracefully shutting down")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	scheduler.Wait()
	logger.Info("server exited cleanly")
	return nil
}

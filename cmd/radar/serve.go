package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/audit"
	"github.com/fentz26/radar/internal/config"
	"github.com/fentz26/radar/internal/orderstore"
	"github.com/fentz26/radar/internal/reader"
	"github.com/fentz26/radar/internal/reminders"
	"github.com/fentz26/radar/internal/service"
	"github.com/fentz26/radar/internal/store"
)

var (
	listenAddr string
	dbPath     string
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon"},
	Short:   "Start the Radar daemon",
	Long:    `Starts the Radar daemon which serves the HTTP API, fires reminders and polls the configured RFID reader.`,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	log := cfg.NewLogger()
	log.WithField("db", cfg.DBPath).Info("Starting Radar daemon...")

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing database connection...")
		if err := s.Close(); err != nil {
			log.WithError(err).Error("database close error")
		}
	}()

	opts := service.Options{
		Log:             log,
		StatsTTL:        cfg.StatsTTL,
		ScanRate:        cfg.Scan.Rate,
		ScanBurst:       cfg.Scan.Burst,
		DefaultPageSize: cfg.Query.DefaultPageSize,
	}
	if cfg.OrderStore.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		orders, err := orderstore.NewRedis(ctx, cfg.OrderStore.RedisURL)
		cancel()
		if err != nil {
			return err
		}
		defer orders.Close()
		opts.Orders = orders
		log.Info("manual orders stored in redis")
	}

	rec := audit.NewRecorder(s, log)
	svc := service.NewService(s, rec, opts)
	authn := service.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if !authn.Enabled() {
		log.Warn("auth disabled: every request acts as user " + service.LocalUser)
	}
	server := service.NewServer(svc, s, authn, cfg.Listen)

	if cfg.Reminders.Enabled {
		sched := reminders.New(s, svc.ReminderFired, log, cfg.Reminders.Interval)
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Reader.Command != "" {
		rd := reader.NewCommand(cfg.Reader.Command, cfg.Reader.Args, 0)
		poller := reader.NewPoller(rd, func(ctx context.Context, tags []string) error {
			_, err := svc.Scan(ctx, cfg.Reader.User, tags, cfg.Reader.Location)
			return err
		}, cfg.Reader.Interval, log)
		poller.Start()
		defer poller.Stop()
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("server error")
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}
	log.Info("Shutdown complete")
	return nil
}

package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futureme/futureme/internal/api"
	"github.com/futureme/futureme/internal/config"
	"github.com/futureme/futureme/internal/migrations"
	"github.com/futureme/futureme/internal/notifier"
	"github.com/futureme/futureme/internal/pkg/distlock"
	"github.com/futureme/futureme/internal/pkg/timeconv"
	"github.com/futureme/futureme/internal/repository/postgres"
	"github.com/futureme/futureme/internal/service/letter"
	"github.com/futureme/futureme/internal/service/user"
	"github.com/futureme/futureme/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Postgres
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to reach database: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Println("Database migrations applied")
	}

	// Repositories
	letterRepo := postgres.NewLetterRepo(db)
	userRepo := postgres.NewUserRepo(db)

	// Display zone for user-facing email timestamps
	display := timeconv.NewZone(cfg.Display.ZoneName, cfg.Display.UTCOffsetMinutes)

	// Outbound email transport
	sender := notifier.Sender{Name: cfg.Notifier.FromName, Email: cfg.Notifier.FromEmail}
	var mail notifier.Notifier
	switch cfg.Notifier.Provider {
	case "ses":
		mail, err = notifier.NewSES(ctx, cfg.SES, sender)
		if err != nil {
			log.Fatalf("Failed to initialize SES notifier: %v", err)
		}
		log.Printf("Using SES notifier (region %s)", cfg.SES.Region)
	default:
		mail = notifier.NewSMTP(cfg.SMTP, sender)
		log.Printf("Using SMTP notifier (%s)", cfg.SMTP.Addr())
	}

	// Services
	letterSvc := letter.NewService(letterRepo, mail, display)
	userSvc := user.NewService(userRepo)

	// Background delivery poller
	poller := worker.NewDeliveryPoller(letterRepo, mail, display, worker.DeliveryPollerConfig{
		PollInterval: cfg.Poller.Interval(),
		BatchSize:    cfg.Poller.BatchSize,
		SendTimeout:  cfg.Poller.SendTimeout(),
		Lock:         distlock.NewPGAdvisoryLock(db, "letter-delivery-sweep"),
	})
	poller.Start()

	// HTTP server
	handlers := api.NewHandlers(letterSvc, userSvc, api.NewHealthChecker(letterRepo, poller))
	server := api.NewServer(handlers, cfg.Server.AllowedOrigins)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(cfg.Server.Addr()); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	poller.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

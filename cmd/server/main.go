// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/torbook/torbook/internal/api/appointments"
	"github.com/torbook/torbook/internal/api/availability"
	"github.com/torbook/torbook/internal/booking"
	"github.com/torbook/torbook/internal/config"
	"github.com/torbook/torbook/internal/db"
	"github.com/torbook/torbook/internal/email"
	"github.com/torbook/torbook/internal/ratelimit"
	"github.com/torbook/torbook/internal/scheduler"
	"github.com/torbook/torbook/internal/store"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	sender, err := email.NewSESClientFromConfig(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email client")
	}
	if sender == nil {
		log.Warn().Msg("Email delivery disabled")
	}

	repo := store.New(database)
	bookingService := booking.NewService(repo, emailSender(sender))

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	defer limiter.Close()

	availability.InitHandlers(repo)
	appointments.InitHandlers(bookingService, limiter)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := scheduler.RegisterReminderJob(sched, repo, emailSender(sender), cfg.Booking.ReminderCron, cfg.Booking.ReminderHoursBefore); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reminder job")
	}
	sched.Start()

	server := newServer(cfg)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

// emailSender converts the concrete client to the interface while
// keeping a typed nil from masquerading as a live sender.
func emailSender(client *email.SESClient) email.EmailSender {
	if client == nil {
		return nil
	}
	return client
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"crane-booking-backend/internal/api"
	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/db"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/notification"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			settings, err := cfg.Schedule.Settings()
			if err != nil {
				return err
			}

			// Initialize database
			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			logger.Println("database initialized successfully")

			appStore := store.NewGormStore(gormDB)
			m := metrics.New("crane")

			var sinks []notification.Sink
			webpushOptions := webpush.Options{
				VAPIDPublicKey:  cfg.Push.PublicKey,
				VAPIDPrivateKey: cfg.Push.PrivateKey,
				Subscriber:      cfg.Push.Subject,
				TTL:             cfg.Push.TTL,
			}
			if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
				logger.Println("VAPID keys are not configured; web push is disabled")
			} else {
				sinks = append(sinks, notification.NewPushSink(appStore, &webpushOptions))
			}
			if cfg.AMQP.URL != "" {
				conn, err := notification.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
				if err != nil {
					return err
				}
				defer conn.Close()
				sinks = append(sinks, notification.NewAMQPSink(conn.Channel, cfg.AMQP.Exchange))
				logger.Printf("publishing reservation events to exchange %s", cfg.AMQP.Exchange)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			dispatcher := notification.NewDispatcher(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, m, sinks...)
			dispatcher.Start(ctx)

			engine := booking.New(appStore, schedule.Static(settings), dispatcher, booking.WithMetrics(m))

			router := api.NewRouter(api.Deps{
				Engine:        engine,
				Subscriptions: appStore,
				Auth:          mw.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
				Metrics:       m,
				WebPush:       &webpushOptions,
				RateLimit:     rate.Limit(cfg.Server.RateLimitPerSec),
				RateBurst:     cfg.Server.RateLimitBurst,
				CacheTTL:      time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
				Ping:          sqlDB.PingContext,
			})
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: router,
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
				logger.Println("Shutdown signal received, stopping services...")
			case err := <-serveErr:
				cancel()
				return fmt.Errorf("HTTP server ListenAndServe: %w", err)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}
			dispatcher.Wait()

			logger.Println("Server gracefully stopped")
			return nil
		},
	}
}

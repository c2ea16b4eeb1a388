package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/outbox"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the event worker",
	Long: `The worker relays outbox events to the message broker, consumes
them back and retrains priority models on the retraining cadence. It also
prunes published outbox messages past the retention window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		container, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()
		cfg := container.Config
		if cfg.RabbitMQURL == "" {
			return fmt.Errorf("worker requires RABBITMQ_URL to be set")
		}

		if err := container.Processor.Start(ctx); err != nil {
			return err
		}
		defer container.Processor.Stop()

		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, eventbus.NewConsumerRegistry(logger))
		if err != nil {
			return err
		}
		defer func() { _ = consumer.Close() }()
		consumer.RegisterConsumer(container.Training)

		consumerErr := make(chan error, 1)
		go func() {
			consumerErr <- consumer.Start(ctx)
		}()

		// Outbox retention cleanup.
		cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
		defer cleanupTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-cleanupTicker.C:
					deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
					if err != nil {
						logger.Error("outbox cleanup failed", "error", err)
						continue
					}
					if deleted > 0 {
						logger.Info("outbox cleanup complete", "deleted", deleted)
					}
				}
			}
		}()

		healthServer := workerHealthServer(cfg.WorkerHealthAddr, container.Processor)
		go func() {
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("worker health server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = healthServer.Shutdown(shutdownCtx)
		}()

		logger.Info("worker running",
			"health_addr", cfg.WorkerHealthAddr,
			"retrain_every", cfg.RetrainEvery,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-consumerErr:
			return err
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig.String())
			cancel()
		}
		return nil
	},
}

// workerHealthServer exposes liveness plus outbox processor stats.
func workerHealthServer(addr string, processor *outbox.Processor) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"running":   stats.IsRunning,
			"published": stats.PublishedCount,
			"failed":    stats.FailedCount,
			"dead":      stats.DeadCount,
		})
	})
	return &http.Server{Addr: addr, Handler: mux}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afrovod/afrovod/adapters/event"
	"github.com/afrovod/afrovod/adapters/media_storage"
	"github.com/afrovod/afrovod/adapters/persistence"
	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/application/usecase/orderflow"
	"github.com/afrovod/afrovod/internal/application/usecase/selection"
	"github.com/afrovod/afrovod/internal/config"
	"github.com/afrovod/afrovod/pkg/logger"
)

const expirySweepInterval = time.Hour

func main() {
	fmt.Println("Starting AfroVOD Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	// Cloudinary poster store for mirror sync
	posterStore, err := media_storage.NewCloudinaryAdapter(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize poster store: %v", err)
	}

	// Repositories
	memberRepo := persistence.NewPostgresMemberRepo(dbPool)
	categoryRepo := persistence.NewPostgresCategoryRepo(dbPool)
	movieRepo := persistence.NewPostgresMovieRepo(dbPool)
	seriesRepo := persistence.NewPostgresSeriesRepo(dbPool)
	episodeRepo := persistence.NewPostgresEpisodeRepo(dbPool)
	prepaymentRepo := persistence.NewPostgresPrepaymentRepo(dbPool)
	bundleRepo := persistence.NewPostgresBundleRepo(dbPool)
	updateRepo := persistence.NewPostgresUpdateRepo(dbPool)
	mirrorRepo := persistence.NewPostgresMirrorRepo(dbPool)

	// Worker Use Cases
	collector := selection.NewCollector(movieRepo, seriesRepo, episodeRepo, categoryRepo, appLogger)
	runSelectUseCase := selection.NewRunAutoSelectUseCase(collector, updateRepo, appLogger)
	runSyncUseCase := orderflow.NewRunSyncUseCase(updateRepo, memberRepo, movieRepo, seriesRepo, episodeRepo, mirrorRepo, posterStore, appLogger)
	checkoutUseCase := ledger.NewCheckoutUseCase(prepaymentRepo, bundleRepo, cfg.Sales, appLogger)

	ctx := context.Background()

	go sweepExpiredBalances(ctx, checkoutUseCase)
	go consumeSelectionJobs(ctx, cfg, runSelectUseCase)

	consumeSyncJobs(ctx, cfg, runSyncUseCase)
}

func consumeSelectionJobs(ctx context.Context, cfg config.Config, uc *selection.RunAutoSelectUseCase) {
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicSelectionJobs,
		GroupID:  "selection-worker-group",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	log.Printf("Worker listening on topic '%s'...", event.TopicSelectionJobs)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			log.Printf("ERROR: Failed to read message from Kafka: %v", err)
			continue
		}

		log.Printf("Received message from [Topic: %s], [Key: %s]", msg.Topic, string(msg.Key))

		var payload event.SelectionJobPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			log.Printf("ERROR: Failed to unmarshal selection job: %v. Skipping.", err)
			commitMessage(consumer, msg)
			continue
		}

		if err := uc.Execute(ctx, payload); err != nil {
			log.Printf("ERROR: Selection run failed for update %s: %v", payload.UpdateID, err)
			// The update is marked failed in storage; nothing to retry.
		}
		commitMessage(consumer, msg)
	}
}

func consumeSyncJobs(ctx context.Context, cfg config.Config, uc *orderflow.RunSyncUseCase) {
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicSyncJobs,
		GroupID:  "sync-worker-group",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	log.Printf("Worker listening on topic '%s'...", event.TopicSyncJobs)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			log.Printf("ERROR: Failed to read message from Kafka: %v", err)
			continue
		}

		log.Printf("Received message from [Topic: %s], [Key: %s]", msg.Topic, string(msg.Key))

		var payload event.SyncJobPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			log.Printf("ERROR: Failed to unmarshal sync job: %v. Skipping.", err)
			commitMessage(consumer, msg)
			continue
		}

		if err := uc.Execute(ctx, payload); err != nil {
			log.Printf("ERROR: Sync run failed for update %s: %v", payload.UpdateID, err)
		}
		commitMessage(consumer, msg)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Printf("ERROR: Failed to commit message: %v", err)
	}
}

// sweepExpiredBalances periodically zeroes prepayment balances past expiry.
func sweepExpiredBalances(ctx context.Context, uc *ledger.CheckoutUseCase) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		n, err := uc.ZeroExpired(ctx)
		if err != nil {
			log.Printf("ERROR: Expiry sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("Expiry sweep zeroed %d balances", n)
		}
	}
}

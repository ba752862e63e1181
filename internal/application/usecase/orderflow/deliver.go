package orderflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/adapters/event"
	"github.com/afrovod/afrovod/internal/application/service"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// StartDeliveryUseCase enqueues the catalog sync of an authorized update.
// Mirroring copies rows and poster assets across stores and can run long, so
// it always goes through the worker.
type StartDeliveryUseCase struct {
	updateRepo  order.Repository
	kafkaClient *event.KafkaProducerClient
	logger      logger.Logger
}

func NewStartDeliveryUseCase(uRepo order.Repository, kClient *event.KafkaProducerClient, log logger.Logger) *StartDeliveryUseCase {
	return &StartDeliveryUseCase{updateRepo: uRepo, kafkaClient: kClient, logger: log}
}

func (uc *StartDeliveryUseCase) Execute(ctx context.Context, updateID uuid.UUID) error {
	update, err := uc.updateRepo.FindByID(ctx, updateID)
	if err != nil {
		return err
	}
	if update.Status != order.StatusAuthorized {
		return apperror.NewStateConflict("content update", string(update.Status), string(order.StatusAuthorized))
	}
	err = uc.kafkaClient.PublishSyncJob(ctx, event.SyncJobPayload{
		UpdateID:   update.ID,
		OperatorID: update.OperatorID,
	})
	if err != nil {
		return apperror.NewInternal("failed to enqueue sync job", err)
	}
	return nil
}

// RunSyncUseCase is the worker side of delivery: it mirrors the add list
// into the operator's catalog, copies poster assets, soft-hides the delete
// list and bumps the provider-side order counters, then closes the update.
type RunSyncUseCase struct {
	updateRepo  order.Repository
	memberRepo  member.Repository
	movieRepo   catalog.MovieRepository
	seriesRepo  catalog.SeriesRepository
	episodeRepo catalog.EpisodeRepository
	mirrorRepo  catalog.MirrorRepository
	posterStore service.PosterStore
	logger      logger.Logger
}

func NewRunSyncUseCase(
	uRepo order.Repository,
	mRepo member.Repository,
	movieRepo catalog.MovieRepository,
	seriesRepo catalog.SeriesRepository,
	episodeRepo catalog.EpisodeRepository,
	mirrorRepo catalog.MirrorRepository,
	posterStore service.PosterStore,
	log logger.Logger,
) *RunSyncUseCase {
	return &RunSyncUseCase{
		updateRepo:  uRepo,
		memberRepo:  mRepo,
		movieRepo:   movieRepo,
		seriesRepo:  seriesRepo,
		episodeRepo: episodeRepo,
		mirrorRepo:  mirrorRepo,
		posterStore: posterStore,
		logger:      log,
	}
}

func (uc *RunSyncUseCase) Execute(ctx context.Context, payload event.SyncJobPayload) error {
	update, err := uc.updateRepo.FindByID(ctx, payload.UpdateID)
	if err != nil {
		return err
	}
	if update.Status != order.StatusAuthorized {
		uc.logger.Warn("Skipping sync job for non-authorized update",
			zap.String("update_id", update.ID.String()),
			zap.String("status", string(update.Status)))
		return nil
	}

	operator, err := uc.memberRepo.FindByID(ctx, payload.OperatorID)
	if err != nil {
		return uc.fail(ctx, update, "unknown operator", err)
	}
	if !operator.IsOperator() {
		return uc.fail(ctx, update, "member has no storefront", nil)
	}
	siteID := *operator.OperatorSiteID

	if err := uc.mirrorAddList(ctx, siteID, update); err != nil {
		return uc.fail(ctx, update, "mirroring add list failed", err)
	}
	if err := uc.hideDeleteList(ctx, siteID, update); err != nil {
		return uc.fail(ctx, update, "hiding delete list failed", err)
	}

	if err := update.MarkDelivered(time.Now().UTC()); err != nil {
		return err
	}
	if err := uc.updateRepo.Update(ctx, update); err != nil {
		return err
	}
	uc.logger.Info("Content update delivered",
		zap.String("update_id", update.ID.String()),
		zap.String("operator", operator.Username))
	return nil
}

func (uc *RunSyncUseCase) mirrorAddList(ctx context.Context, siteID string, update *order.ContentUpdate) error {
	for _, it := range update.AddList {
		switch it.Kind {
		case catalog.KindMovie:
			m, err := uc.movieRepo.FindByID(ctx, it.MediaID)
			if err != nil {
				return err
			}
			uc.copyPoster(ctx, siteID, &m.Poster, fmt.Sprintf("movie-%d", m.ID))
			if err := uc.mirrorRepo.UpsertMovie(ctx, siteID, m); err != nil {
				return err
			}
			if err := uc.movieRepo.IncrementOrders(ctx, m.ID); err != nil {
				return err
			}
		case catalog.KindSeries:
			s, err := uc.seriesRepo.FindByID(ctx, it.MediaID)
			if err != nil {
				return err
			}
			uc.copyPoster(ctx, siteID, &s.Poster, fmt.Sprintf("series-%d", s.ID))
			if err := uc.mirrorRepo.UpsertSeries(ctx, siteID, s); err != nil {
				return err
			}
		case catalog.KindEpisode:
			ep, err := uc.episodeRepo.FindByID(ctx, it.MediaID)
			if err != nil {
				return err
			}
			if err := uc.mirrorRepo.UpsertEpisode(ctx, siteID, ep); err != nil {
				return err
			}
			if err := uc.episodeRepo.IncrementOrders(ctx, ep.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (uc *RunSyncUseCase) hideDeleteList(ctx context.Context, siteID string, update *order.ContentUpdate) error {
	for _, it := range update.DeleteList {
		switch it.Kind {
		case catalog.KindMovie:
			if err := uc.mirrorRepo.HideMovie(ctx, siteID, it.MediaID); err != nil {
				return err
			}
		case catalog.KindSeries:
			if err := uc.mirrorRepo.HideSeries(ctx, siteID, it.MediaID); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyPoster duplicates the poster into the operator's folder. A failed copy
// keeps the provider URL, so it never blocks the sync.
func (uc *RunSyncUseCase) copyPoster(ctx context.Context, siteID string, poster *catalog.Poster, publicID string) {
	if poster.URL == "" {
		return
	}
	folder := fmt.Sprintf("operators/%s/posters", siteID)
	url, err := uc.posterStore.Copy(ctx, poster.URL, folder, publicID)
	if err != nil {
		uc.logger.Warn("Poster copy failed", zap.String("public_id", publicID), zap.Error(err))
		return
	}
	poster.URL = url
}

func (uc *RunSyncUseCase) fail(ctx context.Context, update *order.ContentUpdate, reason string, cause error) error {
	uc.logger.Error("Catalog sync failed", cause, zap.String("update_id", update.ID.String()))
	update.MarkFailed(reason)
	return uc.updateRepo.Update(ctx, update)
}

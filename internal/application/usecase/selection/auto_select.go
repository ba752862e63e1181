package selection

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/adapters/event"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// StartAutoSelectUseCase kicks off auto-selection in the background. The
// category sweep is many database round trips, so the request only creates
// the running update and enqueues the job; callers poll the update status.
type StartAutoSelectUseCase struct {
	updateRepo  order.Repository
	kafkaClient *event.KafkaProducerClient
	logger      logger.Logger
}

func NewStartAutoSelectUseCase(uRepo order.Repository, kClient *event.KafkaProducerClient, log logger.Logger) *StartAutoSelectUseCase {
	return &StartAutoSelectUseCase{
		updateRepo:  uRepo,
		kafkaClient: kClient,
		logger:      log,
	}
}

type StartAutoSelectInput struct {
	OperatorID           uuid.UUID
	MaxLoad              int64
	Unit                 catalog.LoadUnit
	BaseCategoryIDs      []int64
	PreferredCategoryIDs []int64
}

type StartAutoSelectOutput struct {
	UpdateID uuid.UUID
}

func (uc *StartAutoSelectUseCase) Execute(ctx context.Context, input StartAutoSelectInput) (*StartAutoSelectOutput, error) {
	if input.MaxLoad <= 0 {
		return nil, apperror.NewInvalidInput("max load must be positive", nil)
	}

	// A new run supersedes any stale running update of the same operator.
	stale, err := uc.updateRepo.FindRunning(ctx, input.OperatorID)
	if err != nil && !errors.Is(err, order.ErrContentUpdateNotFound) {
		return nil, err
	}
	if stale != nil {
		if err := uc.updateRepo.Delete(ctx, stale.ID); err != nil {
			return nil, err
		}
		uc.logger.Info("Superseded stale running update", zap.String("update_id", stale.ID.String()))
	}

	update := order.New(input.OperatorID)
	if err := uc.updateRepo.Save(ctx, update); err != nil {
		return nil, err
	}

	err = uc.kafkaClient.PublishSelectionJob(ctx, event.SelectionJobPayload{
		UpdateID:             update.ID,
		OperatorID:           input.OperatorID,
		MaxLoad:              input.MaxLoad,
		Unit:                 string(input.Unit),
		BaseCategoryIDs:      input.BaseCategoryIDs,
		PreferredCategoryIDs: input.PreferredCategoryIDs,
	})
	if err != nil {
		update.MarkFailed("could not enqueue selection job")
		if uErr := uc.updateRepo.Update(ctx, update); uErr != nil {
			uc.logger.Error("Failed to persist failed update", uErr, zap.String("update_id", update.ID.String()))
		}
		return nil, apperror.NewInternal("failed to enqueue selection job", err)
	}

	return &StartAutoSelectOutput{UpdateID: update.ID}, nil
}

// RunAutoSelectUseCase is the worker side: it executes the collection and
// writes the result into the running update. A crash mid-run leaves the
// update failed with a reason, never silently stuck in running.
type RunAutoSelectUseCase struct {
	collector  *Collector
	updateRepo order.Repository
	logger     logger.Logger
}

func NewRunAutoSelectUseCase(collector *Collector, uRepo order.Repository, log logger.Logger) *RunAutoSelectUseCase {
	return &RunAutoSelectUseCase{
		collector:  collector,
		updateRepo: uRepo,
		logger:     log,
	}
}

func (uc *RunAutoSelectUseCase) Execute(ctx context.Context, payload event.SelectionJobPayload) error {
	update, err := uc.updateRepo.FindByID(ctx, payload.UpdateID)
	if err != nil {
		return err
	}
	if update.Status != order.StatusRunning {
		// Superseded or already committed while the job waited in the queue.
		uc.logger.Warn("Skipping selection job for non-running update",
			zap.String("update_id", update.ID.String()),
			zap.String("status", string(update.Status)))
		return nil
	}

	unit, err := catalog.ParseLoadUnit(payload.Unit)
	if err != nil {
		update.MarkFailed(err.Error())
		return uc.updateRepo.Update(ctx, update)
	}

	movies, err := uc.collector.CollectMovies(ctx, CollectMoviesInput{
		MaxLoad:              payload.MaxLoad,
		Unit:                 unit,
		BaseCategoryIDs:      payload.BaseCategoryIDs,
		PreferredCategoryIDs: payload.PreferredCategoryIDs,
	})
	if err != nil {
		return uc.fail(ctx, update, "movie collection failed", err)
	}
	for _, m := range movies.Movies {
		update.AddItem(MovieItem(m))
	}

	series, err := uc.collector.CollectSeries(ctx, CollectSeriesInput{
		MaxLoad: payload.MaxLoad - movies.TotalLoad,
		Unit:    unit,
	})
	if err != nil {
		return uc.fail(ctx, update, "series collection failed", err)
	}
	for _, sel := range series.Series {
		for _, it := range SeriesItems(sel) {
			update.AddItem(it)
		}
	}

	if err := uc.updateRepo.Update(ctx, update); err != nil {
		return err
	}
	uc.logger.Info("Auto-selection completed",
		zap.String("update_id", update.ID.String()),
		zap.Int("items", len(update.AddList)),
		zap.Int64("total_cost", update.TotalCost))
	return nil
}

func (uc *RunAutoSelectUseCase) fail(ctx context.Context, update *order.ContentUpdate, reason string, cause error) error {
	uc.logger.Error("Auto-selection failed", cause, zap.String("update_id", update.ID.String()))
	update.MarkFailed(reason)
	return uc.updateRepo.Update(ctx, update)
}

// MovieItem snapshots a movie into an order item.
func MovieItem(m *catalog.Movie) order.Item {
	return order.Item{
		Kind:        catalog.KindMovie,
		MediaID:     m.ID,
		Title:       m.Title,
		Filename:    m.Resource,
		SizeMB:      float64(m.SizeMB),
		DurationMin: int(m.DurationMin),
		Price:       m.Price,
	}
}

// SeriesItems snapshots a selected series: one priced header item for the
// series itself, then one item per episode carrying the sizes. The series
// price is counted once regardless of episode count.
func SeriesItems(sel SelectedSeries) []order.Item {
	items := make([]order.Item, 0, len(sel.Episodes)+1)
	items = append(items, order.Item{
		Kind:    catalog.KindSeries,
		MediaID: sel.Series.ID,
		Title:   sel.Series.FullTitle(),
		Price:   sel.Series.Price,
	})
	for _, ep := range sel.Episodes {
		items = append(items, order.Item{
			Kind:        catalog.KindEpisode,
			MediaID:     ep.ID,
			SeriesID:    sel.Series.ID,
			Title:       ep.Title,
			Filename:    ep.Resource,
			SizeMB:      float64(ep.SizeMB),
			DurationMin: int(ep.DurationMin),
		})
	}
	return items
}

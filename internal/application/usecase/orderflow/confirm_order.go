package orderflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/application/usecase/selection"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/order"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// ConfirmOrderUseCase commits a selection into a pending order. Two paths
// feed it: the auto-selection result, and titles an operator picked by hand.
// Either way the retail balance must cover the full load before anything is
// written; the debit itself only happens at authorization.
type ConfirmOrderUseCase struct {
	updateRepo  order.Repository
	movieRepo   catalog.MovieRepository
	seriesRepo  catalog.SeriesRepository
	episodeRepo catalog.EpisodeRepository
	debitRetail *ledger.DebitRetailUseCase
	unit        catalog.LoadUnit
	logger      logger.Logger
}

func NewConfirmOrderUseCase(
	uRepo order.Repository,
	mRepo catalog.MovieRepository,
	sRepo catalog.SeriesRepository,
	eRepo catalog.EpisodeRepository,
	debitRetail *ledger.DebitRetailUseCase,
	unit catalog.LoadUnit,
	log logger.Logger,
) *ConfirmOrderUseCase {
	return &ConfirmOrderUseCase{
		updateRepo:  uRepo,
		movieRepo:   mRepo,
		seriesRepo:  sRepo,
		episodeRepo: eRepo,
		debitRetail: debitRetail,
		unit:        unit,
		logger:      log,
	}
}

// CommitAutoSelection turns the operator's running update into a pending one
// once its total load fits the retail balance.
func (uc *ConfirmOrderUseCase) CommitAutoSelection(ctx context.Context, operatorID uuid.UUID) (*order.ContentUpdate, error) {
	update, err := uc.updateRepo.FindRunning(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.debitRetail.Check(ctx, ledger.DebitRetailInput{
		MemberID: operatorID,
		Load:     addListLoad(update, uc.unit),
	}); err != nil {
		return nil, err
	}
	if err := update.Complete(); err != nil {
		return nil, err
	}
	if err := uc.updateRepo.Update(ctx, update); err != nil {
		return nil, err
	}
	uc.logger.Info("Auto-selection committed",
		zap.String("update_id", update.ID.String()),
		zap.Int("items", len(update.AddList)))
	return update, nil
}

type ManualItemRef struct {
	Kind    catalog.MediaKind
	MediaID int64
	Delete  bool
}

// AddManualItems extends the operator's pending update, creating one if
// needed, from hand-picked title references. The incremental load of the
// added titles must fit the remaining balance.
func (uc *ConfirmOrderUseCase) AddManualItems(ctx context.Context, operatorID uuid.UUID, refs []ManualItemRef) (*order.ContentUpdate, error) {
	update, err := uc.updateRepo.FindPending(ctx, operatorID)
	created := false
	if err != nil {
		if !errors.Is(err, order.ErrContentUpdateNotFound) {
			return nil, err
		}
		update = order.New(operatorID)
		update.Status = order.StatusPending
		created = true
	}

	var addItems, deleteItems []order.Item
	var incrementalLoad int64
	for _, ref := range refs {
		items, load, err := uc.resolveRef(ctx, ref)
		if err != nil {
			return nil, err
		}
		if ref.Delete {
			deleteItems = append(deleteItems, items...)
			continue
		}
		addItems = append(addItems, items...)
		incrementalLoad += load
	}

	if incrementalLoad > 0 {
		if _, err := uc.debitRetail.Check(ctx, ledger.DebitRetailInput{
			MemberID: operatorID,
			Load:     addListLoad(update, uc.unit) + incrementalLoad,
		}); err != nil {
			return nil, err
		}
	}

	for _, it := range addItems {
		update.AddItem(it)
	}
	for _, it := range deleteItems {
		update.MarkForDeletion(it)
	}

	if created {
		err = uc.updateRepo.Save(ctx, update)
	} else {
		err = uc.updateRepo.Update(ctx, update)
	}
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (uc *ConfirmOrderUseCase) resolveRef(ctx context.Context, ref ManualItemRef) ([]order.Item, int64, error) {
	switch ref.Kind {
	case catalog.KindMovie:
		m, err := uc.movieRepo.FindByID(ctx, ref.MediaID)
		if err != nil {
			return nil, 0, err
		}
		return []order.Item{selection.MovieItem(m)}, m.Load(uc.unit), nil
	case catalog.KindSeries:
		s, err := uc.seriesRepo.FindByID(ctx, ref.MediaID)
		if err != nil {
			return nil, 0, err
		}
		episodes, err := uc.episodeRepo.ListBySeries(ctx, s.ID)
		if err != nil {
			return nil, 0, err
		}
		stats := catalog.ComputeSeriesStats(episodes)
		items := selection.SeriesItems(selection.SelectedSeries{Series: s, Episodes: episodes, Stats: stats})
		return items, stats.Load(uc.unit), nil
	default:
		return nil, 0, apperror.NewInvalidInput("only movies and series can be ordered", nil)
	}
}

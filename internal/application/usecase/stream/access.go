package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afrovod/afrovod/internal/domain/billing"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/member"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/logger"
)

// CheckAccessUseCase runs the gate chain in front of playback: login, then a
// single-item purchase covering the title, then the member's VOD bundle
// (presence, expiry, balance, adult gating). The first failed gate produces
// the user-facing error; nothing past it runs.
type CheckAccessUseCase struct {
	memberRepo     member.Repository
	prepaymentRepo billing.PrepaymentRepository
	bundleRepo     billing.BundleRepository
	movieRepo      catalog.MovieRepository
	seriesRepo     catalog.SeriesRepository
	episodeRepo    catalog.EpisodeRepository
	resolver       *ResolveUseCase
	logRepo        InterestLogger
	logger         logger.Logger
}

// InterestLogger appends the zero-byte click entry that feeds the watch
// history before any bytes flow.
type InterestLogger interface {
	LogInterest(ctx context.Context, memberID uuid.UUID, kind catalog.MediaKind, mediaID int64) error
}

func NewCheckAccessUseCase(
	mRepo member.Repository,
	pRepo billing.PrepaymentRepository,
	bRepo billing.BundleRepository,
	movieRepo catalog.MovieRepository,
	seriesRepo catalog.SeriesRepository,
	episodeRepo catalog.EpisodeRepository,
	resolver *ResolveUseCase,
	logRepo InterestLogger,
	log logger.Logger,
) *CheckAccessUseCase {
	return &CheckAccessUseCase{
		memberRepo:     mRepo,
		prepaymentRepo: pRepo,
		bundleRepo:     bRepo,
		movieRepo:      movieRepo,
		seriesRepo:     seriesRepo,
		episodeRepo:    episodeRepo,
		resolver:       resolver,
		logRepo:        logRepo,
		logger:         log,
	}
}

type CheckAccessInput struct {
	MemberID uuid.UUID
	LoggedIn bool
	Kind     catalog.MediaKind
	MediaID  int64
	Mobile   bool
	// IsCheck probes access without counting a view.
	IsCheck bool
}

type CheckAccessOutput struct {
	MediaURL string `json:"media_url,omitempty"`
	HTML     string `json:"html,omitempty"`
}

func (uc *CheckAccessUseCase) Execute(ctx context.Context, input CheckAccessInput) (*CheckAccessOutput, error) {
	if !input.LoggedIn {
		return nil, apperror.NewUnauthorized("you must be logged in to watch", nil)
	}
	m, err := uc.memberRepo.FindByID(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	target, err := uc.loadTarget(ctx, input.Kind, input.MediaID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	covered, err := uc.coveredByUnitPurchase(ctx, m.ID, input.Kind, input.MediaID, target.seriesID, now)
	if err != nil {
		return nil, err
	}
	if !covered {
		if err := uc.checkBundle(ctx, m, target, now); err != nil {
			return nil, err
		}
	}

	if !input.IsCheck {
		uc.countView(ctx, m.ID, input.Kind, input.MediaID)
	}
	return uc.resolver.Execute(ctx, ResolveInput{
		Resource:    target.resource,
		ResourceMob: target.resourceMob,
		Mobile:      input.Mobile,
	})
}

// Download runs the same gate chain as Execute and, on success, returns a
// signed expiring link to the first file of the title. Downloads never count
// as views.
func (uc *CheckAccessUseCase) Download(ctx context.Context, input CheckAccessInput) (string, error) {
	if !input.LoggedIn {
		return "", apperror.NewUnauthorized("you must be logged in to download", nil)
	}
	m, err := uc.memberRepo.FindByID(ctx, input.MemberID)
	if err != nil {
		return "", err
	}
	target, err := uc.loadTarget(ctx, input.Kind, input.MediaID)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()

	covered, err := uc.coveredByUnitPurchase(ctx, m.ID, input.Kind, input.MediaID, target.seriesID, now)
	if err != nil {
		return "", err
	}
	if !covered {
		if err := uc.checkBundle(ctx, m, target, now); err != nil {
			return "", err
		}
	}

	filenames := splitResource(target.resource)
	if len(filenames) == 0 {
		return "", apperror.NewNotFound("media resource", target.resource)
	}
	return uc.resolver.DownloadLink(filenames[0]), nil
}

func splitResource(resource string) []string {
	var out []string
	for _, p := range strings.Split(resource, ",") {
		if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "http") && !strings.Contains(p, "<") {
			out = append(out, p)
		}
	}
	return out
}

type accessTarget struct {
	resource    string
	resourceMob string
	isAdult     bool
	seriesID    int64
}

func (uc *CheckAccessUseCase) loadTarget(ctx context.Context, kind catalog.MediaKind, mediaID int64) (accessTarget, error) {
	switch kind {
	case catalog.KindMovie:
		m, err := uc.movieRepo.FindByID(ctx, mediaID)
		if err != nil {
			return accessTarget{}, err
		}
		return accessTarget{resource: m.Resource, resourceMob: m.ResourceMob, isAdult: m.IsAdult}, nil
	case catalog.KindEpisode:
		ep, err := uc.episodeRepo.FindByID(ctx, mediaID)
		if err != nil {
			return accessTarget{}, err
		}
		return accessTarget{resource: ep.Resource, resourceMob: ep.ResourceMob, isAdult: ep.IsAdult, seriesID: ep.SeriesID}, nil
	default:
		return accessTarget{}, apperror.NewInvalidInput("series are watched by episode", nil)
	}
}

func (uc *CheckAccessUseCase) coveredByUnitPurchase(ctx context.Context, memberID uuid.UUID, kind catalog.MediaKind, mediaID, seriesID int64, now time.Time) (bool, error) {
	units, err := uc.prepaymentRepo.ListActiveUnits(ctx, memberID, now)
	if err != nil {
		return false, err
	}
	for _, u := range units {
		if u.Covers(kind, mediaID, seriesID) {
			return true, nil
		}
	}
	return false, nil
}

func (uc *CheckAccessUseCase) checkBundle(ctx context.Context, m *member.Member, target accessTarget, now time.Time) error {
	prepayment, err := uc.prepaymentRepo.LastVOD(ctx, m.ID, billing.StatusConfirmed)
	if err != nil {
		if errors.Is(err, billing.ErrPrepaymentNotFound) {
			return apperror.NewInsufficient("you have no bundle, please buy one to continue")
		}
		return err
	}
	if prepayment.Expiry(now).Before(now) {
		return apperror.NewInsufficient("your bundle is expired, please buy a new one")
	}
	if prepayment.BalanceBytes <= 0 {
		return apperror.NewInsufficient("your bundle balance is empty, please refill")
	}
	if target.isAdult && !prepayment.AdultAuthorized {
		bundle, err := uc.bundleRepo.CheapestAdultVODBundle(ctx)
		if err != nil {
			if errors.Is(err, billing.ErrBundleNotFound) {
				return apperror.NewPermissionDenied("this content is restricted")
			}
			return err
		}
		return apperror.NewPermissionDenied(fmt.Sprintf(
			"this content requires a bundle of at least %d %s", bundle.Cost, prepayment.Currency))
	}
	return nil
}

// countView bumps the click counter and drops the interest entry. Both are
// best effort: a miss costs a data point, not the stream.
func (uc *CheckAccessUseCase) countView(ctx context.Context, memberID uuid.UUID, kind catalog.MediaKind, mediaID int64) {
	if kind == catalog.KindMovie {
		if err := uc.movieRepo.IncrementClicks(ctx, mediaID); err != nil {
			uc.logger.Warn("Failed to count click", zap.Int64("media_id", mediaID), zap.Error(err))
		}
	}
	if err := uc.logRepo.LogInterest(ctx, memberID, kind, mediaID); err != nil {
		uc.logger.Warn("Failed to log interest", zap.Int64("media_id", mediaID), zap.Error(err))
	}
}

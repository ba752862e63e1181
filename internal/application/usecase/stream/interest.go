package stream

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/internal/domain/streamlog"
)

type interestLogger struct {
	repo streamlog.Repository
}

// NewInterestLogger records zero-byte single entries: the title was opened,
// even if no bytes ever got billed.
func NewInterestLogger(repo streamlog.Repository) InterestLogger {
	return &interestLogger{repo: repo}
}

func (l *interestLogger) LogInterest(ctx context.Context, memberID uuid.UUID, kind catalog.MediaKind, mediaID int64) error {
	return l.repo.Append(ctx, &streamlog.Entry{
		ID:        uuid.New(),
		MemberID:  memberID,
		Kind:      kind,
		MediaID:   mediaID,
		Status:    streamlog.StatusSingle,
		CreatedAt: time.Now().UTC(),
	})
}

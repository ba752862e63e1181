package service

import (
	"context"
	"time"
)

// RecommendCache stores per-member recommendation artifacts. Entries carry no
// TTL unless one is passed; invalidation is explicit. Every exclude-list key
// written for a member must be registered so ClearMember can find and drop
// all of them in one pass.
type RecommendCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// RegisterExcludeKey appends key to the member's exclude-list-keys index.
	RegisterExcludeKey(ctx context.Context, username string, key string) error
	// ExcludeKeys returns every registered exclude-list key for the member.
	ExcludeKeys(ctx context.Context, username string) ([]string, error)
}

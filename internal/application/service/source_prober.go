package service

import "context"

// SourceProber checks whether a media file is reachable on a mirror source.
// The stream resolver walks the configured sources and serves from the first
// one that answers.
type SourceProber interface {
	Exists(ctx context.Context, url string) bool
}

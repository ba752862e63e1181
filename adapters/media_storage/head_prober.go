package media_storage

import (
	"context"
	"net/http"
	"time"

	"github.com/afrovod/afrovod/internal/application/service"
)

type headProber struct {
	client *http.Client
}

// NewHeadProber checks mirror sources with HEAD requests. Anything but a 200
// within the timeout counts as absent; the resolver just tries the next
// source.
func NewHeadProber(timeout time.Duration) service.SourceProber {
	return &headProber{client: &http.Client{Timeout: timeout}}
}

func (p *headProber) Exists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

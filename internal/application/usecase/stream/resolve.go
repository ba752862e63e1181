package stream

import (
	"context"
	"strings"
	"time"

	"github.com/afrovod/afrovod/internal/application/service"
	"github.com/afrovod/afrovod/internal/config"
	"github.com/afrovod/afrovod/pkg/apperror"
	"github.com/afrovod/afrovod/pkg/securelink"
)

// ResolveUseCase turns a stored resource locator into something a player can
// open. A resource is one of: a filename hosted on the mirror sources, a
// full URL, or an embed snippet pasted by the catalog team.
type ResolveUseCase struct {
	cfg    config.MediaConfig
	prober service.SourceProber
	signer *securelink.Signer
}

func NewResolveUseCase(cfg config.MediaConfig, prober service.SourceProber, signer *securelink.Signer) *ResolveUseCase {
	return &ResolveUseCase{cfg: cfg, prober: prober, signer: signer}
}

type ResolveInput struct {
	Resource    string
	ResourceMob string
	Mobile      bool
}

func (uc *ResolveUseCase) Execute(ctx context.Context, input ResolveInput) (*CheckAccessOutput, error) {
	resource := input.Resource
	if input.Mobile && input.ResourceMob != "" {
		resource = input.ResourceMob
	}
	if resource == "" {
		return nil, apperror.NewNotFound("media resource", resource)
	}

	if strings.Contains(resource, "<iframe") {
		return &CheckAccessOutput{HTML: resource}, nil
	}
	if strings.HasPrefix(resource, "http://") || strings.HasPrefix(resource, "https://") {
		return &CheckAccessOutput{MediaURL: resource}, nil
	}

	// Multi-part resources play their first file; the player advances
	// through the rest itself.
	filename := resource
	if i := strings.Index(resource, ","); i >= 0 {
		filename = strings.TrimSpace(resource[:i])
	}
	for _, source := range uc.cfg.DataSources {
		url := strings.TrimRight(source, "/") + "/" + uc.cfg.BaseFolder + filename
		if uc.prober.Exists(ctx, url) {
			return &CheckAccessOutput{MediaURL: url}, nil
		}
	}
	return nil, apperror.NewNotFound("media resource", filename)
}

// DownloadLink signs a time-boxed download URL for a filename.
func (uc *ResolveUseCase) DownloadLink(filename string) string {
	expires := time.Now().Add(time.Duration(uc.cfg.LinkTimeout) * time.Minute).Unix()
	return uc.signer.DownloadLink(filename, expires)
}

// Package source defines the provider-neutral interface the orchestrator
// uses to list releases, resolve one release, and download an asset. The
// only implementation today is internal/source/github.
package source

import (
	"context"

	"github.com/rokit-build/rokit/internal/model"
)

// Source is the neutral release-hosting interface. A provider's
// implementation owns its own auth, rate limiting, and retry policy.
type Source interface {
	// ListReleases returns id's releases newest-first, paginating
	// transparently.
	ListReleases(ctx context.Context, id model.ToolId) ([]model.Release, error)
	// GetRelease resolves a single concrete version.
	GetRelease(ctx context.Context, id model.ToolId, version string) (model.Release, error)
	// Download fetches one asset's bytes.
	Download(ctx context.Context, asset model.Asset) ([]byte, error)
}

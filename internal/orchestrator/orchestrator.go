// Package orchestrator wires the manifest, source, selector, extractor,
// store, and link manager together into the top-level flows: install-all,
// add, update, list, self-install, and remove. It owns bounded-parallelism
// fan-out for batch installs and isolates one tool's failure from the
// rest of the batch.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rokit-build/rokit/internal/hostdescriptor"
	"github.com/rokit-build/rokit/internal/linkmgr"
	"github.com/rokit-build/rokit/internal/manifest"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/internal/selector"
	"github.com/rokit-build/rokit/internal/source"
	"github.com/rokit-build/rokit/internal/store"
)

// DefaultConcurrency bounds simultaneous tool installations in a batch,
// per §5's "default 4, configurable."
const DefaultConcurrency = 4

// Phase tags one point in a tool's install lifecycle for the progress sink.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseDone  Phase = "done"
	PhaseError Phase = "error"
)

// ProgressEvent is one per-tool lifecycle notification. Orchestrator.Progress
// is an external collaborator (§6); a nil Progress makes every flow silent
// but otherwise fully functional.
type ProgressEvent struct {
	Alias model.ToolAlias
	Spec  model.ToolSpec
	Phase Phase
	Err   error
}

// TrustPrompt asks the caller whether ToolId should be trusted. It is an
// external collaborator with a no-op default (always deny) so the core
// never blocks on stdin by itself.
type TrustPrompt func(id model.ToolId) bool

// Orchestrator holds every collaborator a flow needs. Built fresh per
// invocation by cmd/rokit; nothing here is process-wide state.
type Orchestrator struct {
	Source      source.Source
	Store       *store.Store
	Link        *linkmgr.Manager
	Concurrency int
	Progress    func(ProgressEvent)
	Trust       TrustPrompt
}

func (o *Orchestrator) emit(e ProgressEvent) {
	if o.Progress != nil {
		o.Progress(e)
	}
}

func (o *Orchestrator) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

// BatchResult summarizes a multi-tool flow for the CLI's exit-code and
// summary-line rendering (§4.9's failure policy: isolate, continue, report).
type BatchResult struct {
	Installed []model.ToolSpec
	Failed    map[model.ToolAlias]error
}

func (r BatchResult) HasFailures() bool { return len(r.Failed) > 0 }

// installOne resolves trust, downloads, and commits one spec to the
// store. It is shared by InstallAll's worker pool, Add, Update, and the
// dispatcher's on-demand EnsureInstalled callback.
func (o *Orchestrator) installOne(ctx context.Context, id model.ToolId, spec model.ToolSpec) error {
	if o.Store.Has(spec) {
		return nil
	}

	if o.Store.Trust != nil && !o.Store.Trust.Contains(id) {
		if o.Trust == nil || !o.Trust(id) {
			return rerr.New(rerr.KindUntrustedTool, "orchestrator.installOne",
				fmt.Errorf("%s is not trusted", id))
		}
		if err := o.Store.Trust.Add(id); err != nil {
			return err
		}
	}

	release, err := o.Source.GetRelease(ctx, id, spec.Version)
	if err != nil {
		return err
	}

	host := hostdescriptor.Current()
	artifact, err := selector.Select(release.Assets, host, id.Name)
	if err != nil {
		return err
	}

	data, err := o.Source.Download(ctx, artifact.Asset)
	if err != nil {
		return err
	}

	return o.Store.Install(spec, data, artifact.Format, artifact.Asset.DownloadURL)
}

// EnsureInstalled adapts installOne to the shape dispatcher.Runner needs,
// letting cmd/rokit wire an Orchestrator in without dispatcher importing
// this package (it would otherwise be circular: orchestrator already
// depends on nothing dispatcher-shaped, but dispatcher must not depend on
// the flow layer above it).
func (o *Orchestrator) EnsureInstalled(ctx context.Context, spec model.ToolSpec) error {
	return o.installOne(ctx, spec.Id, spec)
}

// installBatch runs installOne over specs with bounded parallelism,
// isolating each tool's failure and emitting start/done/error progress
// events for every one.
func (o *Orchestrator) installBatch(ctx context.Context, specs map[model.ToolAlias]model.ToolSpec) BatchResult {
	type job struct {
		alias model.ToolAlias
		spec  model.ToolSpec
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	result := BatchResult{Failed: make(map[model.ToolAlias]error)}

	workers := o.concurrency()
	if workers > len(specs) && len(specs) > 0 {
		workers = len(specs)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				o.emit(ProgressEvent{Alias: j.alias, Spec: j.spec, Phase: PhaseStart})
				err := o.installOne(ctx, j.spec.Id, j.spec)
				mu.Lock()
				if err != nil {
					result.Failed[j.alias] = err
				} else {
					result.Installed = append(result.Installed, j.spec)
				}
				mu.Unlock()
				if err != nil {
					o.emit(ProgressEvent{Alias: j.alias, Spec: j.spec, Phase: PhaseError, Err: err})
				} else {
					o.emit(ProgressEvent{Alias: j.alias, Spec: j.spec, Phase: PhaseDone})
				}
			}
		}()
	}

	for alias, spec := range specs {
		select {
		case jobs <- job{alias: alias, spec: spec}:
		case <-ctx.Done():
			mu.Lock()
			result.Failed[alias] = ctx.Err()
			mu.Unlock()
		}
	}
	close(jobs)
	wg.Wait()
	return result
}

// refreshLinks syncs the bin directory to the union of aliases across
// every discoverable manifest at cwd, run once per batch per §4.9.
func (o *Orchestrator) refreshLinks(cwd string) error {
	if o.Link == nil {
		return nil
	}
	effective, _, err := manifest.Effective(cwd)
	if err != nil {
		return err
	}
	aliases := make([]model.ToolAlias, 0, len(effective))
	for a := range effective {
		aliases = append(aliases, a)
	}
	return o.Link.Sync(aliases)
}

package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/rokit-build/rokit/internal/ident"
	"github.com/rokit-build/rokit/internal/manifest"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/pkg/update"
)

// InstallAll loads the effective manifest at cwd, partitions its specs
// into store hits and misses, installs the misses with bounded
// parallelism, and refreshes the bin directory once at the end.
func (o *Orchestrator) InstallAll(ctx context.Context, cwd string) (BatchResult, error) {
	effective, _, err := manifest.Effective(cwd)
	if err != nil {
		return BatchResult{}, err
	}

	misses := make(map[model.ToolAlias]model.ToolSpec)
	for alias, spec := range effective {
		if !o.Store.Has(spec) {
			misses[alias] = spec
		}
	}

	result := o.installBatch(ctx, misses)
	if err := o.refreshLinks(cwd); err != nil {
		return result, err
	}
	return result, nil
}

// Add resolves specOrShorthand to a concrete ToolSpec (querying the
// source for the latest release when no version was given), installs it,
// writes the manifest entry at manifestPath (creating rokit.toml there if
// it doesn't exist), and refreshes links.
func (o *Orchestrator) Add(ctx context.Context, cwd, manifestPath, aliasOverride, specOrShorthand string) (model.ToolSpec, error) {
	spec, err := ident.ParseSpecOrShorthand(specOrShorthand)
	if err != nil {
		return model.ToolSpec{}, rerr.New(rerr.KindSpecParse, "orchestrator.Add", err)
	}

	if spec.Version == "" {
		release, err := o.latestRelease(ctx, spec.Id)
		if err != nil {
			return model.ToolSpec{}, err
		}
		spec.Version = release.Version
	}

	alias := model.ToolAlias(aliasOverride)
	if alias == "" {
		alias = ident.DefaultAlias(spec.Id)
	}

	o.emit(ProgressEvent{Alias: alias, Spec: spec, Phase: PhaseStart})
	if err := o.installOne(ctx, spec.Id, spec); err != nil {
		o.emit(ProgressEvent{Alias: alias, Spec: spec, Phase: PhaseError, Err: err})
		return model.ToolSpec{}, err
	}
	o.emit(ProgressEvent{Alias: alias, Spec: spec, Phase: PhaseDone})

	m, _, err := manifest.Load(manifestPath)
	if err != nil {
		m = manifest.NewEmpty(manifestPath)
	}
	if err := m.Add(alias, spec); err != nil {
		return model.ToolSpec{}, err
	}
	if err := m.Save(); err != nil {
		return model.ToolSpec{}, err
	}

	if err := o.refreshLinks(cwd); err != nil {
		return spec, err
	}
	return spec, nil
}

// latestRelease returns id's newest release, newest-first per
// source.Source.ListReleases's contract.
func (o *Orchestrator) latestRelease(ctx context.Context, id model.ToolId) (model.Release, error) {
	releases, err := o.Source.ListReleases(ctx, id)
	if err != nil {
		return model.Release{}, err
	}
	if len(releases) == 0 {
		return model.Release{}, rerr.New(rerr.KindSourceTerminal, "orchestrator.latestRelease",
			fmt.Errorf("%s has no releases", id))
	}
	return releases[0], nil
}

// latestReleaseOnMajorLine returns the newest release sharing
// currentVersion's major version, so Update only ever considers advancing
// within the currently pinned major line. currentVersion that doesn't
// parse as semver (a dev build, a first install) or a release list with no
// match on that major falls back to the single global-latest release,
// leaving DecideUpdate's cross-major refusal in charge as before.
func (o *Orchestrator) latestReleaseOnMajorLine(ctx context.Context, id model.ToolId, currentVersion string) (model.Release, error) {
	releases, err := o.Source.ListReleases(ctx, id)
	if err != nil {
		return model.Release{}, err
	}
	if len(releases) == 0 {
		return model.Release{}, rerr.New(rerr.KindSourceTerminal, "orchestrator.latestReleaseOnMajorLine",
			fmt.Errorf("%s has no releases", id))
	}

	currentMajor, ok := update.MajorVersion(currentVersion)
	if !ok {
		return releases[0], nil
	}
	for _, r := range releases {
		if major, ok := update.MajorVersion(r.Version); ok && major == currentMajor {
			return r, nil
		}
	}
	return releases[0], nil
}

// UpdateResult reports what Update decided and did for one alias.
type UpdateResult struct {
	Alias    model.ToolAlias
	Before   model.ToolSpec
	After    model.ToolSpec
	Decision update.Decision
	Message  string
}

// Update re-queries releases for aliases (or every manifest entry when
// aliases is empty), computes the latest release on the same major-version
// line as the currently pinned version, installs it when the decision
// proceeds, and rewrites the manifest entry. checkOnly skips the install
// and manifest write, for `update --check`.
func (o *Orchestrator) Update(ctx context.Context, manifestPath string, aliases []model.ToolAlias, checkOnly, force bool) ([]UpdateResult, error) {
	m, _, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	targets := aliases
	if len(targets) == 0 {
		targets = m.Aliases()
	}

	var results []UpdateResult
	dirty := false
	for _, alias := range targets {
		current, ok := m.Get(string(alias))
		if !ok {
			results = append(results, UpdateResult{Alias: alias, Message: fmt.Sprintf("alias %q is not in the manifest", alias)})
			continue
		}

		latest, err := o.latestReleaseOnMajorLine(ctx, current.Id, current.Version)
		if err != nil {
			results = append(results, UpdateResult{Alias: alias, Before: current, Message: err.Error()})
			continue
		}

		decision, msg, _ := update.DecideUpdate(string(alias), current.Version, latest.Version, false, force)
		after := current
		if decision == update.DecisionProceed || decision == update.DecisionReinstall {
			after = model.ToolSpec{Id: current.Id, Version: latest.Version}
		}

		res := UpdateResult{Alias: alias, Before: current, After: after, Decision: decision, Message: msg}
		if checkOnly || (decision != update.DecisionProceed && decision != update.DecisionReinstall) {
			results = append(results, res)
			continue
		}

		o.emit(ProgressEvent{Alias: alias, Spec: after, Phase: PhaseStart})
		if err := o.installOne(ctx, after.Id, after); err != nil {
			o.emit(ProgressEvent{Alias: alias, Spec: after, Phase: PhaseError, Err: err})
			res.Message = err.Error()
			results = append(results, res)
			continue
		}
		o.emit(ProgressEvent{Alias: alias, Spec: after, Phase: PhaseDone})

		m.Remove(alias)
		if err := m.Add(alias, after); err != nil {
			return results, err
		}
		dirty = true
		results = append(results, res)
	}

	if dirty && !checkOnly {
		if err := m.Save(); err != nil {
			return results, err
		}
	}
	return results, nil
}

// ListedTool pairs a manifest entry with whether it is present in the store.
type ListedTool struct {
	Alias     model.ToolAlias
	Spec      model.ToolSpec
	Installed bool
}

// List enumerates the effective manifest at cwd alongside each entry's
// store presence, sorted by alias for stable output.
func (o *Orchestrator) List(cwd string) ([]ListedTool, error) {
	effective, _, err := manifest.Effective(cwd)
	if err != nil {
		return nil, err
	}
	out := make([]ListedTool, 0, len(effective))
	for alias, spec := range effective {
		out = append(out, ListedTool{Alias: alias, Spec: spec, Installed: o.Store.Has(spec)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias.Lower() < out[j].Alias.Lower() })
	return out, nil
}

// Remove drops alias from the manifest at manifestPath (failing if that
// manifest does not declare it), uninstalls its tool from the store (if
// installed), then refreshes links.
func (o *Orchestrator) Remove(cwd, manifestPath string, alias model.ToolAlias) error {
	m, _, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	spec, ok := m.Get(string(alias))
	if !ok {
		return rerr.New(rerr.KindNoToolForAlias, "orchestrator.Remove",
			fmt.Errorf("alias %q is not in %s", alias, manifestPath))
	}

	if !m.Remove(alias) {
		return rerr.New(rerr.KindNoToolForAlias, "orchestrator.Remove",
			fmt.Errorf("alias %q could not be removed from %s", alias, manifestPath))
	}
	if err := m.Save(); err != nil {
		return err
	}

	if err := o.Store.Remove(spec); err != nil {
		return err
	}
	return o.refreshLinks(cwd)
}

package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rokit-build/rokit/internal/linkmgr"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/store"
	"github.com/rokit-build/rokit/pkg/update"
)

// fakeSource serves canned releases/assets from memory, so orchestrator
// tests never touch the network.
type fakeSource struct {
	releases map[string][]model.Release // keyed by "scope/name"
	assets   map[string][]byte          // keyed by asset Name
}

func (f *fakeSource) key(id model.ToolId) string { return id.Scope + "/" + id.Name }

func (f *fakeSource) ListReleases(ctx context.Context, id model.ToolId) ([]model.Release, error) {
	return f.releases[f.key(id)], nil
}

func (f *fakeSource) GetRelease(ctx context.Context, id model.ToolId, version string) (model.Release, error) {
	for _, r := range f.releases[f.key(id)] {
		if r.Version == version {
			return r, nil
		}
	}
	return model.Release{}, errNotFound{version}
}

type errNotFound struct{ version string }

func (e errNotFound) Error() string { return "no release " + e.version }

func (f *fakeSource) Download(ctx context.Context, asset model.Asset) ([]byte, error) {
	return f.assets[asset.Name], nil
}

func elfZip(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write(append([]byte("\x7fELF"), body...)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

// testOrchestrator wires a fresh Store+TrustCache+Orchestrator against
// t.TempDir, pre-trusting rojoID so installs don't need a prompt.
func testOrchestrator(t *testing.T, src *fakeSource) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()

	trust, err := store.LoadTrustCache(filepath.Join(root, "trust.json"))
	if err != nil {
		t.Fatalf("LoadTrustCache: %v", err)
	}
	if err := trust.Add(model.ToolId{Provider: model.ProviderGithub, Scope: "rojo-rbx", Name: "rojo"}); err != nil {
		t.Fatalf("trust.Add: %v", err)
	}

	st := store.New(filepath.Join(root, "tool-storage"), trust)

	binDir := filepath.Join(root, "bin")
	dispatcherPath := filepath.Join(root, "rokit-bin")
	if err := os.WriteFile(dispatcherPath, []byte("fake dispatcher"), 0o755); err != nil {
		t.Fatalf("write fake dispatcher: %v", err)
	}

	o := &Orchestrator{
		Source: src,
		Store:  st,
		Link:   linkmgr.New(binDir, dispatcherPath),
	}
	return o, root
}

func rojoID() model.ToolId {
	return model.ToolId{Provider: model.ProviderGithub, Scope: "rojo-rbx", Name: "rojo"}
}

func TestInstallAllInstallsOnlyManifestMisses(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.4.1", Version: "7.4.1", Assets: []model.Asset{{Name: "rojo.zip"}}}},
		},
		assets: map[string][]byte{
			"rojo.zip": elfZip(t, "rojo", []byte("body")),
		},
	}
	o, root := testOrchestrator(t, src)

	cwd := filepath.Join(root, "project")
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}
	manifestBody := "[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"
	if err := os.WriteFile(filepath.Join(cwd, "rokit.toml"), []byte(manifestBody), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	var events []ProgressEvent
	o.Progress = func(e ProgressEvent) { events = append(events, e) }

	result, err := o.InstallAll(context.Background(), cwd)
	if err != nil {
		t.Fatalf("InstallAll: %v", err)
	}
	if result.HasFailures() {
		t.Fatalf("unexpected failures: %v", result.Failed)
	}
	if len(result.Installed) != 1 {
		t.Fatalf("installed = %d, want 1", len(result.Installed))
	}
	if !o.Store.Has(result.Installed[0]) {
		t.Fatalf("spec not present in store after InstallAll")
	}
	if len(events) != 2 {
		t.Fatalf("expected start+done events, got %d: %+v", len(events), events)
	}
}

func TestInstallAllSkipsAlreadyInstalledSpecs(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.4.1", Version: "7.4.1", Assets: []model.Asset{{Name: "rojo.zip"}}}},
		},
		assets: map[string][]byte{"rojo.zip": elfZip(t, "rojo", []byte("body"))},
	}
	o, root := testOrchestrator(t, src)

	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	os.WriteFile(filepath.Join(cwd, "rokit.toml"), []byte("[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"), 0o644)

	ctx := context.Background()
	if _, err := o.InstallAll(ctx, cwd); err != nil {
		t.Fatalf("first InstallAll: %v", err)
	}

	var calls int
	o.Source = &countingSource{fakeSource: src, calls: &calls}

	result, err := o.InstallAll(ctx, cwd)
	if err != nil {
		t.Fatalf("second InstallAll: %v", err)
	}
	if len(result.Installed) != 0 {
		t.Fatalf("expected no new installs, got %d", len(result.Installed))
	}
	if calls != 0 {
		t.Fatalf("expected GetRelease not to be called for an already-installed spec, got %d calls", calls)
	}
}

type countingSource struct {
	*fakeSource
	calls *int
}

func (c *countingSource) GetRelease(ctx context.Context, id model.ToolId, version string) (model.Release, error) {
	*c.calls++
	return c.fakeSource.GetRelease(ctx, id, version)
}

func TestAddResolvesLatestAndWritesManifest(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.5.0", Version: "7.5.0", Assets: []model.Asset{{Name: "rojo-750.zip"}}}},
		},
		assets: map[string][]byte{"rojo-750.zip": elfZip(t, "rojo", []byte("new"))},
	}
	o, root := testOrchestrator(t, src)
	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	manifestPath := filepath.Join(cwd, "rokit.toml")

	spec, err := o.Add(context.Background(), cwd, manifestPath, "", "rojo-rbx/rojo")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if spec.Version != "7.5.0" {
		t.Fatalf("resolved version = %q, want 7.5.0", spec.Version)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !bytes.Contains(data, []byte(`rojo = "rojo-rbx/rojo@7.5.0"`)) {
		t.Fatalf("manifest does not contain the new entry: %s", data)
	}
}

func TestUpdateCheckOnlyDoesNotInstallOrWrite(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.5.0", Version: "7.5.0", Assets: []model.Asset{{Name: "rojo.zip"}}}},
		},
		assets: map[string][]byte{"rojo.zip": elfZip(t, "rojo", []byte("body"))},
	}
	o, root := testOrchestrator(t, src)
	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	manifestPath := filepath.Join(cwd, "rokit.toml")
	original := "[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"
	os.WriteFile(manifestPath, []byte(original), 0o644)

	results, err := o.Update(context.Background(), manifestPath, nil, true, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(results) != 1 || results[0].After.Version != "7.5.0" {
		t.Fatalf("unexpected update result: %+v", results)
	}

	data, _ := os.ReadFile(manifestPath)
	if string(data) != original {
		t.Fatalf("check-only update must not rewrite the manifest, got: %s", data)
	}
	if o.Store.Has(model.ToolSpec{Id: rojoID(), Version: "7.5.0"}) {
		t.Fatalf("check-only update must not install anything")
	}
}

func TestUpdatePicksLatestWithinCurrentMajorLine(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			// Newest-first, per ListReleases's contract: a major-9 release
			// exists upstream, but rojo is pinned to the 7.x line and an
			// update within that line (7.4.1 -> 7.4.2) is also available.
			"rojo-rbx/rojo": {
				{Tag: "v9.0.0", Version: "9.0.0", Assets: []model.Asset{{Name: "rojo-900.zip"}}},
				{Tag: "v7.4.2", Version: "7.4.2", Assets: []model.Asset{{Name: "rojo-742.zip"}}},
				{Tag: "v7.4.1", Version: "7.4.1", Assets: []model.Asset{{Name: "rojo-741.zip"}}},
			},
		},
		assets: map[string][]byte{
			"rojo-900.zip": elfZip(t, "rojo", []byte("v9")),
			"rojo-742.zip": elfZip(t, "rojo", []byte("v742")),
			"rojo-741.zip": elfZip(t, "rojo", []byte("v741")),
		},
	}
	o, root := testOrchestrator(t, src)
	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	manifestPath := filepath.Join(cwd, "rokit.toml")
	os.WriteFile(manifestPath, []byte("[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"), 0o644)

	results, err := o.Update(context.Background(), manifestPath, nil, true, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1 entry", results)
	}
	if results[0].After.Version != "7.4.2" {
		t.Fatalf("After.Version = %q, want 7.4.2 (the latest release on the pinned 7.x line), not the 9.0.0 global latest", results[0].After.Version)
	}
	if results[0].Decision != update.DecisionProceed {
		t.Fatalf("Decision = %q, want proceed", results[0].Decision)
	}
}

func TestListReportsStoreState(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.4.1", Version: "7.4.1", Assets: []model.Asset{{Name: "rojo.zip"}}}},
		},
		assets: map[string][]byte{"rojo.zip": elfZip(t, "rojo", []byte("body"))},
	}
	o, root := testOrchestrator(t, src)
	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	os.WriteFile(filepath.Join(cwd, "rokit.toml"), []byte("[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"), 0o644)

	listed, err := o.List(cwd)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].Installed {
		t.Fatalf("expected one uninstalled entry before InstallAll, got %+v", listed)
	}

	if _, err := o.InstallAll(context.Background(), cwd); err != nil {
		t.Fatalf("InstallAll: %v", err)
	}
	listed, err = o.List(cwd)
	if err != nil {
		t.Fatalf("List after install: %v", err)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Alias < listed[j].Alias })
	if !listed[0].Installed {
		t.Fatalf("expected installed entry after InstallAll, got %+v", listed)
	}
}

func TestRemoveDropsManifestEntryAndStoreDir(t *testing.T) {
	src := &fakeSource{
		releases: map[string][]model.Release{
			"rojo-rbx/rojo": {{Tag: "v7.4.1", Version: "7.4.1", Assets: []model.Asset{{Name: "rojo.zip"}}}},
		},
		assets: map[string][]byte{"rojo.zip": elfZip(t, "rojo", []byte("body"))},
	}
	o, root := testOrchestrator(t, src)
	cwd := filepath.Join(root, "project")
	os.MkdirAll(cwd, 0o755)
	manifestPath := filepath.Join(cwd, "rokit.toml")
	os.WriteFile(manifestPath, []byte("[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\n"), 0o644)

	if _, err := o.InstallAll(context.Background(), cwd); err != nil {
		t.Fatalf("InstallAll: %v", err)
	}

	if err := o.Remove(cwd, manifestPath, "rojo"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	data, _ := os.ReadFile(manifestPath)
	if bytes.Contains(data, []byte("rojo")) {
		t.Fatalf("manifest should no longer mention rojo: %s", data)
	}
	if o.Store.Has(model.ToolSpec{Id: rojoID(), Version: "7.4.1"}) {
		t.Fatalf("store should no longer have rojo installed")
	}
}

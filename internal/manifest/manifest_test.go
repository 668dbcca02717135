package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rokit-build/rokit/internal/ident"
	"github.com/rokit-build/rokit/internal/model"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rokit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp manifest: %v", err)
	}
	return path
}

func TestLoadPlainEntries(t *testing.T) {
	path := writeTemp(t, `# project tools
[tools]
rojo   = "rojo-rbx/rojo@7.4.1"
selene = "kampfkarren/selene@0.27.1"
`)

	m, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(m.Entries))
	}
	spec, ok := m.Get("Rojo")
	if !ok {
		t.Fatalf("Get(%q) not found", "Rojo")
	}
	if spec.Version != "7.4.1" {
		t.Fatalf("version = %q, want 7.4.1", spec.Version)
	}
}

func TestLoadMissingToolsTableIsEmpty(t *testing.T) {
	path := writeTemp(t, "# nothing here\n")
	m, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Entries) != 0 {
		t.Fatalf("expected empty manifest, got %d entries", len(m.Entries))
	}
}

func TestLoadForemanInlineTable(t *testing.T) {
	path := writeTemp(t, `[tools]
rojo = { source = "rojo-rbx/rojo", version = "7.4.1" }
`)
	m, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	spec, ok := m.Get("rojo")
	if !ok || spec.Version != "7.4.1" {
		t.Fatalf("Get(rojo) = %+v, %v", spec, ok)
	}
}

func TestLoadDropsNonGithubProviderWithWarning(t *testing.T) {
	path := writeTemp(t, `[tools]
rojo = { source = "rojo-rbx/rojo", version = "7.4.1" }
other = { source = "gitlab#someone/something", version = "1.0.0" }
`)
	m, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (gitlab entry dropped)", len(m.Entries))
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
}

func TestLoadDuplicateAliasCaseInsensitiveIsError(t *testing.T) {
	path := writeTemp(t, `[tools]
Rojo = "rojo-rbx/rojo@7.4.1"
rojo = "rojo-rbx/rojo@7.4.2"
`)
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected duplicate-alias error, got nil")
	}
}

func TestAddPreservesFormattingAndComments(t *testing.T) {
	path := writeTemp(t, `# project tools
[tools]
rojo = "rojo-rbx/rojo@7.4.1"
`)
	m, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	id, err := ident.ParseToolId("kampfkarren/selene")
	if err != nil {
		t.Fatalf("ParseToolId: %v", err)
	}
	spec := model.ToolSpec{Id: id, Version: "0.27.1"}
	if err := m.Add("selene", spec); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := string(m.Serialize())
	want := "# project tools\n[tools]\nrojo = \"rojo-rbx/rojo@7.4.1\"\nselene = \"kampfkarren/selene@0.27.1\"\n"
	if got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestAddRejectsDuplicateAliasCaseInsensitive(t *testing.T) {
	path := writeTemp(t, `[tools]
Rojo = "rojo-rbx/rojo@7.4.1"
`)
	m, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	id, _ := ident.ParseToolId("rojo-rbx/rojo")
	if err := m.Add("rojo", model.ToolSpec{Id: id, Version: "7.4.1"}); err == nil {
		t.Fatalf("expected error adding duplicate alias")
	}
}

func TestRemovePreservesRemainingLines(t *testing.T) {
	path := writeTemp(t, `[tools]
rojo   = "rojo-rbx/rojo@7.4.1"
selene = "kampfkarren/selene@0.27.1"
`)
	m, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.Remove("rojo") {
		t.Fatalf("Remove(rojo) = false, want true")
	}
	if m.HasAlias("rojo") {
		t.Fatalf("rojo still present after Remove")
	}
	got := string(m.Serialize())
	want := "[tools]\nselene = \"kampfkarren/selene@0.27.1\"\n"
	if got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestDiscoverNearestFirst(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "rokit.toml"), []byte("[tools]\n"), 0o644); err != nil {
		t.Fatalf("write root manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "rokit.toml"), []byte("[tools]\n"), 0o644); err != nil {
		t.Fatalf("write mid manifest: %v", err)
	}

	found, err := Discover(sub)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) < 2 {
		t.Fatalf("got %d manifests, want at least 2", len(found))
	}
	if found[0] != filepath.Join(root, "a", "rokit.toml") {
		t.Fatalf("nearest manifest = %q, want the one under a/", found[0])
	}
}

func TestEffectiveNearerWinsOnCollision(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "rokit.toml"),
		[]byte(`[tools]
rojo = "rojo-rbx/rojo@7.4.0"
`), 0o644); err != nil {
		t.Fatalf("write root manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "rokit.toml"),
		[]byte(`[tools]
rojo = "rojo-rbx/rojo@7.4.1"
`), 0o644); err != nil {
		t.Fatalf("write nested manifest: %v", err)
	}

	effective, _, err := Effective(sub)
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	spec, ok := effective["rojo"]
	if !ok {
		t.Fatalf("rojo missing from effective manifest")
	}
	if spec.Version != "7.4.1" {
		t.Fatalf("version = %q, want nearer manifest's 7.4.1", spec.Version)
	}
}

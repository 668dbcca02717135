package manifest

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rokit-build/rokit/internal/model"
)

// manifestNames is checked in priority order at each directory: rokit.toml
// first, then the read-only-compatible Foreman/Aftman names. The open
// question of foreman/aftman precedence alongside rokit.toml in the same
// directory is resolved in favor of historical behavior: rokit.toml wins.
var manifestNames = []string{"rokit.toml", "aftman.toml", "foreman.toml"}

// Discover walks from cwd up to the filesystem root, returning the path of
// the first manifest file found at each directory level, nearest first.
// Name matching is case-sensitive on Linux and case-insensitive elsewhere,
// matching the host filesystem's own semantics.
func Discover(cwd string) ([]string, error) {
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}

	caseInsensitive := runtime.GOOS == "windows" || runtime.GOOS == "darwin"
	var found []string
	for {
		if path := findManifestInDir(dir, caseInsensitive); path != "" {
			found = append(found, path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found, nil
}

func findManifestInDir(dir string, caseInsensitive bool) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, want := range manifestNames {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if caseInsensitive {
				if strings.EqualFold(name, want) {
					return filepath.Join(dir, name)
				}
			} else if name == want {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}

// Effective loads every manifest Discover finds from cwd and unions them
// alias -> spec, nearer manifests winning on collision.
func Effective(cwd string) (map[model.ToolAlias]model.ToolSpec, []string, error) {
	paths, err := Discover(cwd)
	if err != nil {
		return nil, nil, err
	}

	effective := make(map[model.ToolAlias]model.ToolSpec)
	seenLower := make(map[string]bool)
	var warnings []string

	for _, path := range paths {
		m, warn, err := Load(path)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		warnings = append(warnings, warn...)
		for _, e := range m.Entries {
			lower := e.Alias.Lower()
			if seenLower[lower] {
				continue // a nearer manifest already claimed this alias
			}
			seenLower[lower] = true
			effective[e.Alias] = e.Spec
		}
	}
	return effective, warnings, nil
}

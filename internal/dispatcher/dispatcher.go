// Package dispatcher implements Rokit's shim-invocation mode: when the
// running binary's own name isn't "rokit", it resolves that name against
// the effective manifest (or a PATH fallback) and replaces itself with
// the resolved tool.
package dispatcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rokit-build/rokit/internal/manifest"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/internal/store"
)

// Runner carries everything Dispatch needs, per the explicit-context
// design rule: no package-level singletons, tests build their own Runner
// against a scratch store.
type Runner struct {
	Store         *store.Store
	BinDir        string
	EnsureInstalled func(ctx context.Context, spec model.ToolSpec) error
	PathEnv       string // defaults to os.Getenv("PATH") when empty
}

// NormalizeInvocation lowercases an invocation name and strips a trailing
// ".exe", the form aliases and manifest keys are compared in.
func NormalizeInvocation(name string) string {
	base := filepath.Base(name)
	lower := strings.ToLower(base)
	return strings.TrimSuffix(lower, ".exe")
}

// IsDispatchInvocation reports whether invocationName differs from the
// canonical dispatcher name, i.e. Rokit was invoked as a shim.
func IsDispatchInvocation(invocationName string) bool {
	return NormalizeInvocation(invocationName) != "rokit"
}

// Dispatch resolves alias A (derived from invocationName) and either execs
// the resolved tool (never returning on success on Unix) or returns an
// exit code (Windows, and every failure path). stderr receives the
// NoToolForAlias message; stdout is never written to directly, per §7's
// rule against corrupting downstream tooling.
func (r *Runner) Dispatch(ctx context.Context, cwd, invocationName string, args []string, stderr io.Writer) int {
	alias := model.ToolAlias(NormalizeInvocation(invocationName))

	spec, found, err := r.resolveFromManifests(cwd, alias)
	if err != nil {
		fmt.Fprintf(stderr, "rokit: %v\n", err)
		return 1
	}

	if !found {
		if path, ok := r.findOnPath(string(alias)); ok {
			return execPath(path, args)
		}
		fmt.Fprintf(stderr, "rokit: no tool for alias %q\n", alias)
		return 127
	}

	if !r.Store.Has(spec) {
		if r.EnsureInstalled == nil {
			fmt.Fprintf(stderr, "rokit: %s is not installed and no installer is configured\n", spec)
			return 1
		}
		if err := r.EnsureInstalled(ctx, spec); err != nil {
			fmt.Fprintf(stderr, "rokit: installing %s: %v\n", spec, err)
			return 1
		}
	}

	binPath, err := r.Store.Path(spec)
	if err != nil {
		fmt.Fprintf(stderr, "rokit: %v\n", err)
		return 1
	}
	return execPath(binPath, args)
}

func (r *Runner) resolveFromManifests(cwd string, alias model.ToolAlias) (model.ToolSpec, bool, error) {
	effective, _, err := manifest.Effective(cwd)
	if err != nil {
		return model.ToolSpec{}, false, rerr.New(rerr.KindManifestIO, "dispatcher.resolveFromManifests", err)
	}
	for a, spec := range effective {
		if a.Lower() == alias.Lower() {
			return spec, true, nil
		}
	}
	return model.ToolSpec{}, false, nil
}

// findOnPath searches PATH for name, skipping r.BinDir so the dispatcher
// never resolves back to its own shim directory.
func (r *Runner) findOnPath(name string) (string, bool) {
	pathEnv := r.PathEnv
	if pathEnv == "" {
		pathEnv = os.Getenv("PATH")
	}
	execName := name
	if os.PathSeparator == '\\' {
		execName += ".exe"
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" || samePath(dir, r.BinDir) {
			continue
		}
		candidate := filepath.Join(dir, execName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func samePath(a, b string) bool {
	if b == "" {
		return false
	}
	ca, errA := filepath.Abs(a)
	cb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ca == cb
}

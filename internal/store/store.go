// Package store manages the content-addressed, case-insensitive
// filesystem layout under tool-storage/: one directory per ToolSpec,
// installed atomically via a temp-dir-plus-rename, serialized per spec by
// an advisory lockfile.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rokit-build/rokit/internal/extractor"
	"github.com/rokit-build/rokit/internal/hostdescriptor"
	"github.com/rokit-build/rokit/internal/hostenv"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/internal/trustkey"
)

// Store is the tool-storage root plus the trust cache every Install
// checks before writing a byte. It carries no other process-wide state,
// per the explicit-context design rule: callers construct their own
// Store pointed at a scratch directory in tests.
type Store struct {
	Root  string
	Trust *TrustCache
}

// New opens (without creating) a Store whose Root is root, the tool-storage
// directory itself.
func New(root string, trust *TrustCache) *Store {
	return &Store{Root: root, Trust: trust}
}

// specDir returns the lowercased, canonical directory for spec. Scope and
// Name retain user-supplied casing on ToolId itself (for display), so this
// must fold case explicitly rather than join the fields as-is - two specs
// differing only in casing must resolve to the same directory.
func (s *Store) specDir(spec model.ToolSpec) string {
	return filepath.Join(s.Root,
		strings.ToLower(string(spec.Id.Provider)),
		strings.ToLower(spec.Id.Scope),
		strings.ToLower(spec.Id.Name),
		strings.ToLower(spec.Version),
	)
}

func binaryFilename(host model.HostDescriptor) string {
	if host.OS == model.OSWindows {
		return "bin.exe"
	}
	return "bin"
}

// Has reports whether spec's binary is present on disk.
func (s *Store) Has(spec model.ToolSpec) bool {
	_, err := os.Stat(filepath.Join(s.specDir(spec), binaryFilename(hostdescriptor.Current())))
	return err == nil
}

// InstalledMetadataPath resolves spec to its installed.json sidecar path,
// for callers (the list --verbose command) that want metadata without
// reaching into the store's internal layout.
func (s *Store) InstalledMetadataPath(spec model.ToolSpec) string {
	return filepath.Join(s.specDir(spec), "installed.json")
}

// Path resolves spec to its stored binary, failing if not installed.
func (s *Store) Path(spec model.ToolSpec) (string, error) {
	p := filepath.Join(s.specDir(spec), binaryFilename(hostdescriptor.Current()))
	if _, err := os.Stat(p); err != nil {
		return "", rerr.New(rerr.KindStoreIO, "store.Path", fmt.Errorf("%s is not installed: %w", spec, err))
	}
	return p, nil
}

// Install extracts artifactData (in format) and commits the selected
// binary to spec's directory atomically. A concurrent Install for the
// same spec blocks on the per-version lockfile; the loser observes the
// winner's already-committed result and returns without extracting.
func (s *Store) Install(spec model.ToolSpec, artifactData []byte, format model.Format, sourceURL string) error {
	if s.Trust == nil || !s.Trust.Contains(spec.Id) {
		return rerr.New(rerr.KindUntrustedTool, "store.Install",
			fmt.Errorf("%s is not in the trust cache", spec.Id))
	}

	dir := s.specDir(spec)
	if hostenv.IsNoExecMount(s.Root) {
		return rerr.New(rerr.KindStoreIO, "store.Install",
			fmt.Errorf("%s is mounted noexec; point ROKIT_HOME at an executable filesystem", s.Root))
	}

	// The lockfile lives as dir's sibling, not inside it: the final
	// renameWithRetry below replaces dir wholesale, and POSIX rename(2)
	// refuses to replace a non-empty directory, so a lock entry left
	// inside dir would make every install fail its own rename.
	release, err := acquireLock(dir+".lock", 10*time.Minute)
	if err != nil {
		return err
	}
	defer release()

	if s.Has(spec) {
		return nil // another process already completed this install
	}

	host := hostdescriptor.Current()
	binary, kind, err := extractor.Extract(artifactData, format, spec.Id.Name, host)
	if err != nil {
		return err
	}
	if err := validateBinaryKind(kind, host); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(s.Root, ".tmp"), 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.Install", fmt.Errorf("create temp root: %w", err))
	}
	tmpDir, err := os.MkdirTemp(filepath.Join(s.Root, ".tmp"), "install-*")
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "store.Install", fmt.Errorf("create temp dir: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	binPath := filepath.Join(tmpDir, binaryFilename(host))
	mode := os.FileMode(0o644)
	if host.OS != model.OSWindows {
		mode = 0o755
	}
	if err := os.WriteFile(binPath, binary, mode); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.Install", fmt.Errorf("write binary: %w", err))
	}

	meta := InstalledMetadata{
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
		SourceURL:   sourceURL,
		Digest:      "blake2b-256:" + trustkey.ContentDigest(binary),
	}
	if err := writeInstalledMetadata(filepath.Join(tmpDir, "installed.json"), meta); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.Install", fmt.Errorf("create parent dirs: %w", err))
	}
	return renameWithRetry(tmpDir, dir)
}

// Remove deletes spec's stored directory entirely.
func (s *Store) Remove(spec model.ToolSpec) error {
	if err := os.RemoveAll(s.specDir(spec)); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.Remove", err)
	}
	return nil
}

// List enumerates every installed ToolSpec under the store root.
func (s *Store) List() ([]model.ToolSpec, error) {
	var specs []model.ToolSpec
	providers, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, rerr.New(rerr.KindStoreIO, "store.List", err)
	}
	for _, p := range providers {
		if !p.IsDir() || p.Name() == ".tmp" {
			continue
		}
		scopes, err := os.ReadDir(filepath.Join(s.Root, p.Name()))
		if err != nil {
			continue
		}
		for _, scope := range scopes {
			names, err := os.ReadDir(filepath.Join(s.Root, p.Name(), scope.Name()))
			if err != nil {
				continue
			}
			for _, name := range names {
				versions, err := os.ReadDir(filepath.Join(s.Root, p.Name(), scope.Name(), name.Name()))
				if err != nil {
					continue
				}
				for _, v := range versions {
					if !v.IsDir() {
						continue
					}
					specs = append(specs, model.ToolSpec{
						Id: model.ToolId{
							Provider: model.Provider(p.Name()),
							Scope:    scope.Name(),
							Name:     name.Name(),
						},
						Version: v.Name(),
					})
				}
			}
		}
	}
	return specs, nil
}

func validateBinaryKind(kind model.BinaryKind, host model.HostDescriptor) error {
	want := expectedBinaryKindFor(host)
	if kind == want || kind == model.BinaryKindScript {
		return nil
	}
	return rerr.New(rerr.KindWrongBinaryKind, "store.Install",
		fmt.Errorf("selected binary is %s, host expects %s", kind, want))
}

func expectedBinaryKindFor(host model.HostDescriptor) model.BinaryKind {
	switch host.OS {
	case model.OSWindows:
		return model.BinaryKindPE
	case model.OSMacOS:
		return model.BinaryKindMachO
	default:
		return model.BinaryKindELF
	}
}

// renameWithRetry renames src onto dst, retrying for a short bounded
// window on Windows to tolerate files still held open by a recently
// exited child process.
func renameWithRetry(src, dst string) error {
	if runtime.GOOS != "windows" {
		if err := os.Rename(src, dst); err != nil {
			return rerr.New(rerr.KindStoreIO, "store.renameWithRetry", err)
		}
		return nil
	}

	deadline := time.Now().Add(5 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		if err := os.Rename(src, dst); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return rerr.New(rerr.KindStoreIO, "store.renameWithRetry", lastErr)
}

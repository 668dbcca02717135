// Package linkmgr maintains the bin directory on PATH: one executable per
// known alias, each pointing at the dispatcher binary, plus the dispatcher
// itself under its own canonical name. The orphan-detection idiom (walk
// the directory, decide per-entry whether its target is still current) is
// adapted from a symlink manager's CleanupOrphanedSymlinks; the link
// mechanism itself is generalized from symlinks to hard-links/copies
// because shim invocation needs argv[0] to equal the shim's own name,
// which a symlink on Windows cannot guarantee across all consumers.
package linkmgr

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

// DispatcherAlias is the shim name reserved for the dispatcher binary
// itself, never removed by Sync even if absent from the alias union.
const DispatcherAlias = "rokit"

// Manager rewrites BinDir's shim set to match a known-alias set.
type Manager struct {
	BinDir         string
	DispatcherPath string // the currently-running rokit binary
}

func New(binDir, dispatcherPath string) *Manager {
	return &Manager{BinDir: binDir, DispatcherPath: dispatcherPath}
}

func shimName(alias string) string {
	if runtime.GOOS == "windows" {
		return alias + ".exe"
	}
	return alias
}

// Sync ensures BinDir contains exactly one shim per alias in aliases, plus
// the dispatcher under DispatcherAlias, removing shims whose alias is no
// longer in the union. Existing shims that already point at the current
// dispatcher are left untouched, making repeated calls idempotent.
func (m *Manager) Sync(aliases []model.ToolAlias) error {
	if err := os.MkdirAll(m.BinDir, 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "linkmgr.Sync", fmt.Errorf("create bin dir: %w", err))
	}

	wanted := make(map[string]bool, len(aliases)+1)
	wanted[shimName(DispatcherAlias)] = true
	for _, a := range aliases {
		wanted[shimName(string(a))] = true
	}

	for name := range wanted {
		if err := m.ensureShim(name); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(m.BinDir)
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "linkmgr.Sync", err)
	}
	for _, e := range entries {
		if e.IsDir() || wanted[e.Name()] {
			continue
		}
		if isStaleShim(filepath.Join(m.BinDir, e.Name()), m.DispatcherPath) {
			os.Remove(filepath.Join(m.BinDir, e.Name()))
		}
	}
	return nil
}

// ensureShim creates or refreshes one shim, skipping the work entirely if
// an up-to-date one is already in place.
func (m *Manager) ensureShim(name string) error {
	dst := filepath.Join(m.BinDir, name)
	if upToDate(dst, m.DispatcherPath) {
		return nil
	}
	os.Remove(dst)

	// On Windows the dispatcher is always copied, never hard-linked, so
	// self-update can replace the running binary without a locked link
	// pinning the old inode in place.
	if runtime.GOOS != "windows" && sameVolume(m.BinDir, filepath.Dir(m.DispatcherPath)) {
		if err := os.Link(m.DispatcherPath, dst); err == nil {
			return nil
		}
	}
	return copyFile(m.DispatcherPath, dst)
}

// upToDate reports whether dst already points at the same file as src,
// via same-inode-or-identical-size-and-mtime, cheap enough to run on
// every Sync without re-copying unchanged shims.
func upToDate(dst, src string) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	if os.SameFile(dstInfo, srcInfo) {
		return true
	}
	return dstInfo.Size() == srcInfo.Size() && dstInfo.ModTime().Equal(srcInfo.ModTime())
}

// isStaleShim reports whether path still targets the dispatcher (and so is
// safe to remove as an orphan) as opposed to some other executable a user
// dropped into the bin directory by hand.
func isStaleShim(path, dispatcherPath string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true // broken entry, safe to drop
	}
	dispInfo, err := os.Stat(dispatcherPath)
	if err != nil {
		return false
	}
	if os.SameFile(info, dispInfo) {
		return true
	}
	return info.Size() == dispInfo.Size() && info.ModTime().Equal(dispInfo.ModTime())
}

func sameVolume(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}
	return sameDevice(infoA, infoB)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "linkmgr.copyFile", fmt.Errorf("read %s: %w", src, err))
	}
	mode := os.FileMode(0o755)
	if err := os.WriteFile(dst, data, mode); err != nil {
		return rerr.New(rerr.KindStoreIO, "linkmgr.copyFile", fmt.Errorf("write %s: %w", dst, err))
	}
	return nil
}

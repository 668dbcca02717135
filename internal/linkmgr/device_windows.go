//go:build windows

package linkmgr

import "os"

// sameDevice is never consulted on Windows: ensureShim always copies the
// dispatcher there instead of hard-linking it, to avoid pinning the old
// binary's inode during self-update.
func sameDevice(a, b os.FileInfo) bool {
	return false
}

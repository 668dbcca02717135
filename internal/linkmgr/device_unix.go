//go:build !windows

package linkmgr

import (
	"os"
	"syscall"
)

// sameDevice compares the Unix device number, the same signal os.Link
// itself relies on to succeed cross-directory.
func sameDevice(a, b os.FileInfo) bool {
	sa, ok := a.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	sb, ok := b.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return sa.Dev == sb.Dev
}

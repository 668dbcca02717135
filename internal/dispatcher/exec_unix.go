//go:build !windows

package dispatcher

import (
	"fmt"
	"os"
	"syscall"
)

// execPath replaces the current process image with path, so no dispatcher
// process lingers and the child inherits stdio, argv[0], and the
// controlling TTY directly. It only returns on failure.
func execPath(path string, args []string) int {
	argv := append([]string{path}, args...)
	err := syscall.Exec(path, argv, os.Environ())
	fmt.Fprintf(os.Stderr, "rokit: exec %s: %v\n", path, err)
	return 1
}

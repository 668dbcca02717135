package store

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rokit-build/rokit/internal/rerr"
)

// acquireLock implements the per-ToolSpec install lockfile with a plain
// create-exclusive file: no flock-style library appears anywhere in the
// retrieval pack, and the lock only needs to exclude other Rokit
// processes, not arbitrary tools, so a lockfile-presence check suffices.
// It polls with jittered backoff until acquired or timeout elapses.
func acquireLock(path string, timeout time.Duration) (release func(), err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, rerr.New(rerr.KindStoreIO, "store.acquireLock", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "pid=%d acquired=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, rerr.New(rerr.KindStoreIO, "store.acquireLock", err)
		}
		if time.Now().After(deadline) {
			return nil, rerr.New(rerr.KindStoreLockTimeout, "store.acquireLock",
				fmt.Errorf("timed out waiting for lock %s after %s", path, timeout))
		}
		time.Sleep(time.Duration(100+rand.Intn(150)) * time.Millisecond)
	}
}

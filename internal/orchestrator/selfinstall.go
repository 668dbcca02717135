package orchestrator

import (
	"fmt"
	"os"

	"github.com/rokit-build/rokit/internal/rerr"
)

// ShellProfileEditor is the external collaborator that ensures binDir is
// on PATH by editing the user's shell profile files; shell-profile editing
// itself is out of this module's scope (§1), so a nil editor just skips
// that step and self-install still leaves bin/ populated.
type ShellProfileEditor func(binDir string) error

// SelfInstall creates dataDir/bin if missing, copies the running
// dispatcher binary into it under its canonical name, and invokes editor
// to add bin/ to PATH. Idempotent: re-running with the same binary is a
// no-op past the copy (linkmgr.Sync already short-circuits unchanged
// targets).
func (o *Orchestrator) SelfInstall(binDir string, editor ShellProfileEditor) error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "orchestrator.SelfInstall", fmt.Errorf("create bin dir: %w", err))
	}

	if err := o.Link.Sync(nil); err != nil {
		return err
	}

	if editor != nil {
		if err := editor(binDir); err != nil {
			return rerr.New(rerr.KindStoreIO, "orchestrator.SelfInstall", fmt.Errorf("edit shell profile: %w", err))
		}
	}
	return nil
}

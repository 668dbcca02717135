package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rokit-build/rokit/internal/extractor"
	"github.com/rokit-build/rokit/internal/hostdescriptor"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/rokit-build/rokit/internal/selector"
	"github.com/rokit-build/rokit/internal/selfupdate"
	"github.com/rokit-build/rokit/pkg/update"
)

// SelfUpdateID is rokit's own release repository, queried the same way as
// any managed tool's: via o.Source.
var SelfUpdateID = model.ToolId{Provider: model.ProviderGithub, Scope: "rokit-build", Name: "rokit"}

// SelfUpdate compares currentVersion against SelfUpdateID's latest (or
// explicitTag, when non-empty) release and, if the decision proceeds,
// downloads the matching dispatcher asset and replaces the running binary
// in place via a temp-file-plus-rename.
func (o *Orchestrator) SelfUpdate(ctx context.Context, currentVersion, explicitTag string, force bool) (update.Decision, string, error) {
	var release model.Release
	var err error
	if explicitTag != "" {
		release, err = o.Source.GetRelease(ctx, SelfUpdateID, explicitTag)
	} else {
		release, err = o.latestRelease(ctx, SelfUpdateID)
	}
	if err != nil {
		return "", "", err
	}

	decision, msg, _ := update.DecideUpdate("rokit", currentVersion, release.Version, explicitTag != "", force)
	if decision != update.DecisionProceed && decision != update.DecisionReinstall && decision != update.DecisionDowngrade && decision != update.DecisionDevInstall {
		return decision, msg, nil
	}

	artifact, err := selector.Select(release.Assets, hostdescriptor.Current(), SelfUpdateID.Name)
	if err != nil {
		return decision, msg, err
	}
	data, err := o.Source.Download(ctx, artifact.Asset)
	if err != nil {
		return decision, msg, err
	}

	exePath, err := selfupdate.ComputeTargetPath("")
	if err != nil {
		return decision, msg, rerr.New(rerr.KindStoreIO, "orchestrator.SelfUpdate", err)
	}
	binary, _, err := extractor.Extract(data, artifact.Format, SelfUpdateID.Name, hostdescriptor.Current())
	if err != nil {
		return decision, msg, err
	}
	if err := replaceSelf(exePath, binary); err != nil {
		return decision, msg, err
	}
	return decision, msg, nil
}

// replaceSelf writes newBinary to a temp file beside exePath and renames
// it into place, the same temp-plus-rename discipline the store uses so a
// self-update can never leave a half-written dispatcher behind.
func replaceSelf(exePath string, newBinary []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(exePath), ".rokit-update-*")
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "orchestrator.replaceSelf", fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(newBinary); err != nil {
		tmp.Close()
		return rerr.New(rerr.KindStoreIO, "orchestrator.replaceSelf", fmt.Errorf("write new binary: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return rerr.New(rerr.KindStoreIO, "orchestrator.replaceSelf", err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return rerr.New(rerr.KindStoreIO, "orchestrator.replaceSelf", err)
	}
	if err := os.Rename(tmpPath, exePath); err != nil {
		return rerr.New(rerr.KindStoreIO, "orchestrator.replaceSelf", fmt.Errorf("rename into place: %w", err))
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rokit-build/rokit/internal/auth"
	"github.com/rokit-build/rokit/internal/linkmgr"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/orchestrator"
	"github.com/rokit-build/rokit/internal/rlog"
	"github.com/rokit-build/rokit/internal/rpaths"
	"github.com/rokit-build/rokit/internal/selfupdate"
	"github.com/rokit-build/rokit/internal/source"
	"github.com/rokit-build/rokit/internal/source/github"
	"github.com/rokit-build/rokit/internal/store"
	"github.com/spf13/cobra"
)

var verbose bool

// appContext bundles everything a subcommand needs; each subcommand's RunE
// builds one via newAppContext so commands stay thin.
type appContext struct {
	dirs   rpaths.Dirs
	source source.Source
	store  *store.Store
	orch   *orchestrator.Orchestrator
	log    *rlog.Logger
	cwd    string
}

func newAppContext(stderr io.Writer) (*appContext, error) {
	dirs, err := rpaths.Resolve()
	if err != nil {
		return nil, err
	}

	trust, err := store.LoadTrustCache(dirs.TrustFile)
	if err != nil {
		return nil, err
	}
	st := store.New(dirs.ToolStorage, trust)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	min := rlog.LevelInfo
	if verbose {
		min = rlog.LevelDebug
	}
	logger := rlog.New(stderr, min)

	dispatcherPath, err := selfupdate.ComputeTargetPath("")
	if err != nil {
		return nil, err
	}

	src := github.New(version)
	if token, err := auth.Load(dirs.Root); err == nil && token != "" {
		src.SetFallbackToken(token)
	}
	o := &orchestrator.Orchestrator{
		Source: src,
		Store:  st,
		Link:   linkmgr.New(dirs.Bin, dispatcherPath),
		Progress: func(e orchestrator.ProgressEvent) {
			switch e.Phase {
			case orchestrator.PhaseStart:
				logger.Infof("installing %s (%s)", e.Alias, e.Spec)
			case orchestrator.PhaseDone:
				logger.Infof("installed %s (%s)", e.Alias, e.Spec)
			case orchestrator.PhaseError:
				logger.Errorf("%s: %v", e.Alias, e.Err)
			}
		},
		Trust: func(id model.ToolId) bool { return promptTrust(stderr, id) },
	}

	return &appContext{dirs: dirs, source: src, store: st, orch: o, log: logger, cwd: cwd}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rokit",
		Short:         "Per-project toolchain manager for GitHub-released CLIs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newListCmd(),
		newInstallCmd(),
		newUpdateCmd(),
		newAuthenticateCmd(),
		newSelfInstallCmd(),
		newSelfUpdateCmd(),
		newSystemInfoCmd(),
		newTrustCmd(),
		newUntrustCmd(),
		newGetTrustedToolsCmd(),
		newRemoveCmd(),
		newVerifyCmd(),
	)
	return root
}

// Run is the internal, test-friendly entrypoint main() delegates to.
func Run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "rokit: %v\n", err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks a cobra-surfaced error as a CLI-usage mistake (exit 2)
// rather than an operational failure (exit 1), per §6's exit-code contract.
type usageError struct{ error }

func isUsageError(err error) bool {
	_, ok := err.(usageError)
	return ok
}

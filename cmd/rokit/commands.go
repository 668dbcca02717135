package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rokit-build/rokit/internal/manifest"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/store"
	"github.com/rokit-build/rokit/pkg/update"
	"github.com/spf13/cobra"
)

// nearestManifestPath picks the manifest Add/Update/Remove should edit:
// the nearest one Discover finds, or a new rokit.toml at cwd if none
// exists yet.
func nearestManifestPath(cwd string) (string, error) {
	found, err := manifest.Discover(cwd)
	if err != nil {
		return "", err
	}
	if len(found) > 0 {
		return found[0], nil
	}
	return filepath.Join(cwd, "rokit.toml"), nil
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new rokit.toml in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(cwd, "rokit.toml")
			if _, err := os.Stat(path); err == nil {
				return usageError{fmt.Errorf("%s already exists", path)}
			}
			m := manifest.NewEmpty(path)
			if err := m.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "add <scope/name[@version]>",
		Short: "Add a tool to the nearest manifest and install it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			manifestPath, err := nearestManifestPath(app.cwd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			spec, err := app.orch.Add(ctx, app.cwd, manifestPath, alias, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", spec)
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "manifest alias to use instead of the tool's default name")
	return cmd
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install every tool in the effective manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			result, err := app.orch.InstallAll(ctx, app.cwd)
			if err != nil {
				return err
			}
			for alias, ferr := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", alias, ferr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d installed, %d failed\n", len(result.Installed), len(result.Failed))
			if result.HasFailures() {
				return fmt.Errorf("%d tool(s) failed to install", len(result.Failed))
			}
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var checkOnly, force bool
	cmd := &cobra.Command{
		Use:   "update [alias ...]",
		Short: "Update tools to the latest release on their current major version",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			manifestPath, err := nearestManifestPath(app.cwd)
			if err != nil {
				return err
			}
			aliases := make([]model.ToolAlias, len(args))
			for i, a := range args {
				aliases[i] = model.ToolAlias(a)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			results, err := app.orch.Update(ctx, manifestPath, aliases, checkOnly, force)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Alias, r.Message)
				if r.Decision == update.DecisionRefuse {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d update(s) refused", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "report available updates without installing them")
	cmd.Flags().BoolVar(&force, "force", false, "allow a cross-major-version update or downgrade")
	return cmd
}

func newListCmd() *cobra.Command {
	var listVerbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools declared by the effective manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tools, err := app.orch.List(app.cwd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tools {
				state := "missing"
				if t.Installed {
					state = "installed"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", t.Alias, t.Spec, state)
				if listVerbose && t.Installed {
					meta, err := store.ReadInstalledMetadata(app.store.InstalledMetadataPath(t.Spec))
					if err == nil {
						fmt.Fprintf(out, "\tinstalled at %s from %s (%s)\n", meta.InstalledAt, meta.SourceURL, meta.Digest)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&listVerbose, "verbose", false, "show installed.json metadata for each installed tool")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall <alias>",
		Aliases: []string{"remove"},
		Short:   "Remove a tool from the manifest and delete it from storage",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			manifestPath, err := nearestManifestPath(app.cwd)
			if err != nil {
				return err
			}
			if err := app.orch.Remove(app.cwd, manifestPath, model.ToolAlias(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
	return cmd
}

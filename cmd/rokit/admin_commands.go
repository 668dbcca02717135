package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rokit-build/rokit/internal/auth"
	"github.com/rokit-build/rokit/internal/hostdescriptor"
	"github.com/rokit-build/rokit/internal/ident"
	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rpaths"
	"github.com/spf13/cobra"
)

func newAuthenticateCmd() *cobra.Command {
	var skipParse bool
	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Store a GitHub token for release API requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			token := os.Getenv("GITHUB_TOKEN")
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "GitHub token: ")
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &token); err != nil {
					return usageError{fmt.Errorf("no token provided: %w", err)}
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := auth.Authenticate(ctx, app.dirs.Root, token, skipParse, app.source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token stored")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipParse, "skip-parse", false, "store the token without validating it against the release API")
	return cmd
}

func newSelfInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-install",
		Short: "Install the rokit dispatcher into its bin directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := app.orch.SelfInstall(app.dirs.Bin, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed rokit into %s\n", app.dirs.Bin)
			fmt.Fprintf(cmd.OutOrStdout(), "add %s to your PATH if it isn't already\n", app.dirs.Bin)
			return nil
		},
	}
}

func newSelfUpdateCmd() *cobra.Command {
	var tag string
	var force bool
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update the rokit dispatcher itself",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			decision, msg, err := app.orch.SelfUpdate(ctx, version, tag, force)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			_ = decision
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "install this exact release tag instead of the latest")
	cmd.Flags().BoolVar(&force, "force", false, "allow a cross-major-version update or downgrade")
	return cmd
}

func newSystemInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system-info",
		Short: "Print host platform detection and data directory layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := rpaths.Resolve()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", version)
			fmt.Fprintf(out, "host: %s\n", hostdescriptor.Describe())
			fmt.Fprintf(out, "data dir: %s\n", dirs.Root)
			fmt.Fprintf(out, "bin dir: %s\n", dirs.Bin)
			fmt.Fprintf(out, "tool storage: %s\n", dirs.ToolStorage)
			return nil
		},
	}
}

func newTrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trust <scope/name>",
		Short: "Trust a tool so it may be installed without an interactive prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := resolveToolId(args[0])
			if err != nil {
				return usageError{err}
			}
			if app.store.Trust == nil {
				return fmt.Errorf("trust cache unavailable")
			}
			if err := app.store.Trust.Add(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trusted %s\n", id)
			return nil
		},
	}
}

func newUntrustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrust <scope/name>",
		Short: "Remove a tool from the trust cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := resolveToolId(args[0])
			if err != nil {
				return usageError{err}
			}
			if app.store.Trust == nil {
				return fmt.Errorf("trust cache unavailable")
			}
			if err := app.store.Trust.Remove(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "untrusted %s\n", id)
			return nil
		},
	}
}

func newGetTrustedToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-trusted-tools",
		Short: "List every tool id in the trust cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if app.store.Trust == nil {
				return nil
			}
			for _, id := range app.store.Trust.List() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// resolveToolId accepts a bare shorthand or "scope/name" the same way
// add's positional argument does, without requiring a version.
func resolveToolId(s string) (model.ToolId, error) {
	if id, ok := ident.LookupShortcut(s); ok {
		return id, nil
	}
	return ident.ParseToolId(s)
}

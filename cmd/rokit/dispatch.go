package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rokit-build/rokit/internal/auth"
	"github.com/rokit-build/rokit/internal/dispatcher"
	"github.com/rokit-build/rokit/internal/orchestrator"
	"github.com/rokit-build/rokit/internal/rpaths"
	"github.com/rokit-build/rokit/internal/source/github"
	"github.com/rokit-build/rokit/internal/store"
)

// runDispatch builds a dispatcher.Runner against the real filesystem and
// network and replaces this process with the resolved tool.
func runDispatch(invocationName string) int {
	dirs, err := rpaths.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rokit: %v\n", err)
		return 1
	}

	trust, err := store.LoadTrustCache(dirs.TrustFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rokit: %v\n", err)
		return 1
	}
	st := store.New(dirs.ToolStorage, trust)

	src := github.New(version)
	if token, err := auth.Load(dirs.Root); err == nil && token != "" {
		src.SetFallbackToken(token)
	}
	o := &orchestrator.Orchestrator{
		Source: src,
		Store:  st,
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rokit: %v\n", err)
		return 1
	}

	runner := &dispatcher.Runner{
		Store:           st,
		BinDir:          dirs.Bin,
		EnsureInstalled: o.EnsureInstalled,
	}
	return runner.Dispatch(context.Background(), cwd, invocationName, os.Args[1:], os.Stderr)
}

// Command rokit is both the management CLI and, when invoked under a
// shim name, the dispatcher that execs the resolved tool. Mirrors the
// teacher's root-package main.go/cli_entry.go split: main only wires
// os.Args/stdio to an internal Run, keeping every real decision out of
// package main.
package main

import (
	"os"
	"path/filepath"

	"github.com/rokit-build/rokit/internal/cli"
	"github.com/rokit-build/rokit/internal/dispatcher"
)

var version = "dev"

func init() {
	cli.Handler = Run
}

func main() {
	invocationName := filepath.Base(os.Args[0])
	if dispatcher.IsDispatchInvocation(invocationName) {
		os.Exit(runDispatch(invocationName))
	}
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rokit-build/rokit/internal/model"
)

// promptTrust is the default TrustPrompt collaborator for interactive CLI
// use: it asks on stderr and reads a yes/no answer from stdin. Dispatcher
// invocations never use this - an untrusted on-demand install simply fails
// with a KindUntrustedTool error instead of blocking a shim on stdin.
func promptTrust(stderr io.Writer, id model.ToolId) bool {
	fmt.Fprintf(stderr, "%s is not yet trusted. Trust it and continue? [y/N] ", id)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

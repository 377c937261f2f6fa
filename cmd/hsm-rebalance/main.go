// Command hsm-rebalance is the CLI entry point wiring configuration,
// adapters, the fetch/planner core, and output rendering together.
package main

import (
	"fmt"
	"os"

	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Build information, set via ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = logging.Sync()
		os.Exit(1)
	}
	_ = logging.Sync()
}

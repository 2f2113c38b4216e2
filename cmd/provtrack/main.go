// Command provtrack fits ML pipelines with provenance tracking.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/provtrack/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

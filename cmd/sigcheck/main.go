// Command sigcheck grades signal-handling exercises traced with strace.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sigcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command pipeflow computes pipe-flow experiment tables, draws their
// friction-factor chart and serves the calculator over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

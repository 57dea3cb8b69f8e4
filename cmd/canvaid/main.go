// Command canvaid runs the canvas server and its board tools.
//
// The main package stays minimal: all commands live in internal/cli.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/canvaid/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

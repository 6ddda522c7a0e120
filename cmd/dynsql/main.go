// Command dynsql compiles JSON query documents into SQL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/dynsql/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		// Subcommands report their own errors; only flag and argument
		// problems reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

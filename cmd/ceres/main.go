// Command ceres scaffolds, patches and packages collector-verifier projects
// for the Mercury Protocol.
package main

import (
	"os"

	"github.com/mercury-protocol/ceres/internal/cli"
	"github.com/mercury-protocol/ceres/internal/errors"
)

func main() {
	err := cli.Run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

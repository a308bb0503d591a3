package main

import (
	"os"

	"github.com/ariel-frischer/fragnote/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

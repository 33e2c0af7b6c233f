// Package main is the entry point for the blz CLI tool.
package main

import (
	"os"

	"github.com/blz-dev/blz/internal/cli"
)

func main() {
	err := cli.Execute()
	os.Exit(cli.ExitCode(err))
}

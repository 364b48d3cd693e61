// Package main is the entry point of the sqlrepl CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlrepl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

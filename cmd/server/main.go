/*
Package main is the entry point for the pricelens backend.

Usage:

	pricelens [command]

Available Commands:

	serve       Run the price resolution HTTP API (default)
	import      Load historical prices from CSV files
	resolve     Resolve a price for one item and print the JSON result
	vocab       Print the vocabulary size of each attribute
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pricelens/backend/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s)", version, commit))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

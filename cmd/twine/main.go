// Package main provides the twine CLI: link lifecycle, migration, audit,
// and suggestion commands over a local SQLite store, plus an HTTP server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

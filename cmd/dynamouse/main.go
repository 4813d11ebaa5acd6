// Package main is the DynaMouse command line.
package main

import (
	"fmt"
	"os"
)

// main is the entrypoint for the DynaMouse command line.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dynamouse: %v\n", err)
		os.Exit(exitCode(err))
	}
}

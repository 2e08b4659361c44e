// Package main provides the goapsim binary, a headless simulator that runs
// GOAP agents from declarative behaviors against a minimal world.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "goapsim:", err)
		os.Exit(1)
	}
}

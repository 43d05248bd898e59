// Package main provides the bpsim command, a trace-driven branch predictor
// simulator.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

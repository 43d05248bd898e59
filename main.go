// Package main provides the entry point for bpsim.
// bpsim is a trace-driven branch direction predictor simulator.
//
// For the full CLI, use: go run ./cmd/bpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("bpsim - Branch Predictor Simulator")
	fmt.Println("Static, gshare, tournament and TAGE direction predictors")
	fmt.Println("")
	fmt.Println("Usage: bpsim [flags] [trace-file|-]")
	fmt.Println("       bpsim bench [--predictors LIST] [--format text|csv|json]")
	fmt.Println("       bpsim config [predictor-spec]")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  -p, --predictor   static, gshare[:g], tournament[:p:l:pc] or custom")
	fmt.Println("  -c, --config      Path to predictor configuration JSON file")
	fmt.Println("      --btb-sets    Branch target buffer sets (0 disables)")
	fmt.Println("      --btb-ways    Branch target buffer ways")
	fmt.Println("  -s, --synthetic   Run a built-in synthetic workload")
	fmt.Println("  -v, --verbose     Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bpsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bpsim' instead.")
	}
}

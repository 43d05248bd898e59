package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/predictor"
)

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare predictors on the built-in synthetic workloads",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}

	flags := cmd.Flags()
	flags.StringSlice("predictors", []string{"static", "gshare", "tournament", "custom"},
		"predictor specs to compare")
	flags.StringSlice("workloads", nil, "workloads to run (default: all)")
	flags.String("format", "text", "output format: text, csv or json")
	flags.Int("btb-sets", btb.DefaultConfig().Sets, "branch target buffer sets (0 disables the buffer)")
	flags.Int("btb-ways", btb.DefaultConfig().Ways, "branch target buffer ways")
	flags.CountP("verbose", "v", "log verbosity")

	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}

	config := benchmarks.DefaultConfig()
	config.Output = cmd.OutOrStdout()
	config.Log = newLogger(cmd.ErrOrStderr(), v.GetInt("verbose"))
	config.Verbose = v.GetInt("verbose") > 0
	config.Predictors = nil
	for _, spec := range v.GetStringSlice("predictors") {
		pc, err := predictor.ParseVariantSpec(spec)
		if err != nil {
			return err
		}
		config.Predictors = append(config.Predictors, pc)
	}
	if sets := v.GetInt("btb-sets"); sets == 0 {
		config.EnableBTB = false
	} else {
		config.BTB = btb.Config{Sets: sets, Ways: v.GetInt("btb-ways")}
	}

	harness, err := benchmarks.NewHarness(config)
	if err != nil {
		return err
	}

	names := v.GetStringSlice("workloads")
	if len(names) == 0 {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}
	for _, name := range names {
		b, ok := benchmarks.Find(name)
		if !ok {
			return fmt.Errorf("unknown workload %q (have %s)",
				name, strings.Join(benchmarks.Names(), ", "))
		}
		harness.AddBenchmark(b)
	}

	results, err := harness.RunAll()
	if err != nil {
		return err
	}

	switch format := v.GetString("format"); format {
	case "text":
		harness.PrintResults(results)
	case "csv":
		harness.PrintCSV(results)
	case "json":
		return harness.PrintJSON(results)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

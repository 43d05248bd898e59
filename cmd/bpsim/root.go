package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

const envPrefix = "BPSIM"

// newSettings returns a viper instance that resolves flags first, then
// BPSIM_* environment variables, then flag defaults.
func newSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("bpsim")
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bpsim [flags] [trace-file|-]",
		Short: "Replay a branch trace through a branch direction predictor",
		Long: `bpsim replays a branch trace through one of the static, gshare,
tournament or custom (TAGE) predictors and reports its accuracy.

Trace lines are either "pc taken" or
"pc target taken conditional call return direct". Files ending in .gz or
.bz2 are decompressed. Use "-" to read standard input.

Every flag can also be given as a BPSIM_<FLAG> environment variable, for
example BPSIM_PREDICTOR=tournament:14:15:13.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSimulate,
	}

	flags := cmd.Flags()
	flags.StringP("predictor", "p", "gshare", "predictor spec: static, gshare[:g], tournament[:p:l:pc] or custom")
	flags.StringP("config", "c", "", "path to a predictor configuration JSON file (overrides --predictor)")
	flags.Int("btb-sets", btb.DefaultConfig().Sets, "branch target buffer sets (0 disables the buffer)")
	flags.Int("btb-ways", btb.DefaultConfig().Ways, "branch target buffer ways")
	flags.StringP("synthetic", "s", "", "run a built-in synthetic workload instead of a trace file")
	flags.CountP("verbose", "v", "log verbosity; repeat for per-branch detail")
	flags.String("cpuprofile", "", "write a CPU profile to this file")

	cmd.AddCommand(newBenchCommand(), newConfigCommand())

	return cmd
}

// resolvePredictor picks the predictor configuration from --config or
// --predictor.
func resolvePredictor(v *viper.Viper) (predictor.Config, error) {
	if path := v.GetString("config"); path != "" {
		config, err := predictor.LoadConfig(path)
		if err != nil {
			return predictor.Config{}, err
		}
		return config, config.Validate()
	}
	return predictor.ParseVariantSpec(v.GetString("predictor"))
}

func resolveTargetBuffer(v *viper.Viper) (*btb.Buffer, error) {
	sets := v.GetInt("btb-sets")
	if sets == 0 {
		return nil, nil
	}
	return btb.New(btb.Config{Sets: sets, Ways: v.GetInt("btb-ways")})
}

func runSimulate(cmd *cobra.Command, args []string) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), v.GetInt("verbose"))

	if path := v.GetString("cpuprofile"); path != "" {
		stop, err := startCPUProfile(path)
		if err != nil {
			return err
		}
		defer stop()
	}

	config, err := resolvePredictor(v)
	if err != nil {
		return err
	}

	dispatcher, err := predictor.NewDispatcher(config)
	if err != nil {
		return err
	}
	defer dispatcher.Shutdown()

	opts := []trace.Option{trace.WithLogger(log)}
	buffer, err := resolveTargetBuffer(v)
	if err != nil {
		return err
	}
	if buffer != nil {
		opts = append(opts, trace.WithTargetBuffer(buffer))
	}
	driver := trace.NewDriver(dispatcher, opts...)

	var stats trace.Stats
	synthetic := v.GetString("synthetic")
	switch {
	case synthetic != "":
		if len(args) > 0 {
			return errors.New("--synthetic and a trace file are mutually exclusive")
		}
		bench, ok := benchmarks.Find(synthetic)
		if !ok {
			return fmt.Errorf("unknown synthetic workload %q (have %s)",
				synthetic, strings.Join(benchmarks.Names(), ", "))
		}
		log.Info("running synthetic workload", "name", bench.Name)
		stats = driver.RunBranches(bench.Branches())
	case len(args) == 1:
		stats, err = runTraceFile(cmd, driver, args[0])
		if err != nil {
			return err
		}
	default:
		return errors.New("a trace file or --synthetic is required")
	}

	printReport(cmd.OutOrStdout(), dispatcher.Name(), stats, buffer)
	return nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func runTraceFile(cmd *cobra.Command, driver *trace.Driver, path string) (trace.Stats, error) {
	if path == "-" {
		return driver.Run(trace.NewReader(cmd.InOrStdin()))
	}

	f, err := trace.Open(path)
	if err != nil {
		return trace.Stats{}, err
	}
	stats, runErr := driver.Run(f)
	return stats, errors.Join(runErr, f.Close())
}

func printReport(w io.Writer, name string, stats trace.Stats, buffer *btb.Buffer) {
	_, _ = fmt.Fprintf(w, "Predictor:          %s\n", name)
	_, _ = fmt.Fprintf(w, "Branches:           %d\n", stats.Branches)
	_, _ = fmt.Fprintf(w, "Conditional:        %d\n", stats.Predictions)
	_, _ = fmt.Fprintf(w, "Mispredictions:     %d\n", stats.Mispredictions)
	_, _ = fmt.Fprintf(w, "Misprediction Rate: %.3f%%\n", stats.MispredictionRate())
	if buffer != nil {
		_, _ = fmt.Fprintf(w, "BTB Hit Rate:       %.3f%%\n", stats.TargetHitRate())
	}
}

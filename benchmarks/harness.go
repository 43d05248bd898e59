// Package benchmarks provides synthetic branch workloads and a harness that
// compares predictor accuracy across them.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// BenchmarkResult holds the accuracy of one predictor on one benchmark.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Predictor is the predictor's Name()
	Predictor string `json:"predictor"`

	// Branches is the number of trace records processed
	Branches uint64 `json:"branches"`

	// Predictions is the number of conditional branches predicted
	Predictions uint64 `json:"predictions"`

	// Mispredictions is the number of wrong direction predictions
	Mispredictions uint64 `json:"mispredictions"`

	// AccuracyPercent is the direction accuracy
	AccuracyPercent float64 `json:"accuracy_percent"`

	// TargetHitPercent is the BTB hit rate on taken branches
	TargetHitPercent float64 `json:"target_hit_percent,omitempty"`

	// WallTime is the actual time taken to replay the trace
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single synthetic workload.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Branches generates the trace. It is called once per predictor so
	// every run sees an identical sequence.
	Branches func() []trace.Branch
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Predictors lists the predictor configurations to compare
	Predictors []predictor.Config

	// EnableBTB attaches a branch target buffer to every run
	EnableBTB bool

	// BTB sizes the target buffer when EnableBTB is set
	BTB btb.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Log receives per-run progress (default: discard)
	Log logr.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a harness that compares every variant at its
// default sizes.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Predictors: []predictor.Config{
			predictor.DefaultConfig(predictor.Static),
			predictor.DefaultConfig(predictor.Gshare),
			predictor.DefaultConfig(predictor.Tournament),
			predictor.DefaultConfig(predictor.Custom),
		},
		EnableBTB: true,
		BTB:       btb.DefaultConfig(),
		Output:    os.Stdout,
		Log:       logr.Discard(),
	}
}

// Harness runs benchmarks against each configured predictor.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness. It fails if any predictor or
// BTB configuration is invalid.
func NewHarness(config HarnessConfig) (*Harness, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Log.GetSink() == nil {
		config.Log = logr.Discard()
	}
	for i, pc := range config.Predictors {
		if err := pc.Validate(); err != nil {
			return nil, fmt.Errorf("predictor %d: %w", i, err)
		}
	}
	if config.EnableBTB {
		if err := config.BTB.Validate(); err != nil {
			return nil, err
		}
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}, nil
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark against every predictor. Results are
// ordered by benchmark, then by predictor.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Predictors))

	for _, bench := range h.benchmarks {
		for _, pc := range h.config.Predictors {
			result, err := h.runBenchmark(bench, pc)
			if err != nil {
				return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

// runBenchmark replays one benchmark through a fresh predictor.
func (h *Harness) runBenchmark(bench Benchmark, config predictor.Config) (BenchmarkResult, error) {
	p, err := predictor.New(config)
	if err != nil {
		return BenchmarkResult{}, err
	}

	opts := []trace.Option{trace.WithLogger(h.config.Log)}
	if h.config.EnableBTB {
		buf, err := btb.New(h.config.BTB)
		if err != nil {
			return BenchmarkResult{}, err
		}
		opts = append(opts, trace.WithTargetBuffer(buf))
	}
	driver := trace.NewDriver(p, opts...)

	branches := bench.Branches()
	start := time.Now()
	stats := driver.RunBranches(branches)
	wallTime := time.Since(start)

	h.config.Log.V(1).Info("benchmark finished",
		"benchmark", bench.Name, "predictor", p.Name(),
		"accuracy", stats.Accuracy())

	result := BenchmarkResult{
		Name:            bench.Name,
		Description:     bench.Description,
		Predictor:       p.Name(),
		Branches:        stats.Branches,
		Predictions:     stats.Predictions,
		Mispredictions:  stats.Mispredictions,
		AccuracyPercent: stats.Accuracy(),
		WallTime:        wallTime,
	}
	if h.config.EnableBTB {
		result.TargetHitPercent = stats.TargetHitRate()
	}

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Branch Predictor Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	last := ""
	for _, r := range results {
		if r.Name != last {
			if last != "" {
				_, _ = fmt.Fprintln(h.config.Output, "")
			}
			_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
			if h.config.Verbose {
				_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
			}
			last = r.Name
		}

		_, _ = fmt.Fprintf(h.config.Output, "  %-28s accuracy %6.2f%%  (%d/%d mispredicted)\n",
			r.Predictor, r.AccuracyPercent, r.Mispredictions, r.Predictions)
		if h.config.Verbose {
			if h.config.EnableBTB {
				_, _ = fmt.Fprintf(h.config.Output, "    BTB Hit Rate: %.2f%%\n", r.TargetHitPercent)
			}
			_, _ = fmt.Fprintf(h.config.Output, "    Wall Time:    %v\n", r.WallTime)
		}
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,predictor,branches,predictions,mispredictions,accuracy,target_hit_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%.3f,%.3f\n",
			r.Name,
			r.Predictor,
			r.Branches,
			r.Predictions,
			r.Mispredictions,
			r.AccuracyPercent,
			r.TargetHitPercent,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics per predictor
	Summary []ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Predictors are the configurations compared
	Predictors []predictor.Config `json:"predictors"`

	// BTB is the target buffer geometry, if one was attached
	BTB *btb.Config `json:"btb,omitempty"`
}

// ReportSummary aggregates one predictor's results across all benchmarks.
type ReportSummary struct {
	// Predictor is the predictor's Name()
	Predictor string `json:"predictor"`

	// TotalPredictions is the sum of all predictions
	TotalPredictions uint64 `json:"total_predictions"`

	// TotalMispredictions is the sum of all mispredictions
	TotalMispredictions uint64 `json:"total_mispredictions"`

	// AccuracyPercent is the pooled accuracy across benchmarks
	AccuracyPercent float64 `json:"accuracy_percent"`
}

// Summarize pools results per predictor, in first-seen order.
func Summarize(results []BenchmarkResult) []ReportSummary {
	var summaries []ReportSummary
	index := map[string]int{}

	for _, r := range results {
		i, ok := index[r.Predictor]
		if !ok {
			i = len(summaries)
			index[r.Predictor] = i
			summaries = append(summaries, ReportSummary{Predictor: r.Predictor})
		}
		summaries[i].TotalPredictions += r.Predictions
		summaries[i].TotalMispredictions += r.Mispredictions
	}

	for i := range summaries {
		s := &summaries[i]
		if s.TotalPredictions > 0 {
			s.AccuracyPercent = float64(s.TotalPredictions-s.TotalMispredictions) /
				float64(s.TotalPredictions) * 100
		}
	}

	return summaries
}

// PrintJSON outputs benchmark results as an indented JSON report.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Predictors: h.config.Predictors,
		},
		Results: results,
		Summary: Summarize(results),
	}
	if h.config.EnableBTB {
		b := h.config.BTB
		report.Metadata.BTB = &b
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

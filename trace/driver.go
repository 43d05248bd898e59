package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/predictor"
)

// Stats holds the accuracy counters of a run.
type Stats struct {
	// Branches is the number of branches of any kind seen.
	Branches uint64
	// Predictions is the number of conditional branches predicted.
	Predictions uint64
	// Mispredictions is the number of wrong direction predictions.
	Mispredictions uint64
	// TargetHits counts taken branches whose target the buffer knew.
	TargetHits uint64
	// TargetMisses counts taken branches whose target was absent or stale.
	TargetMisses uint64
}

// Accuracy returns the direction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Predictions-s.Mispredictions) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// TargetHitRate returns the target buffer hit rate as a percentage.
func (s Stats) TargetHitRate() float64 {
	total := s.TargetHits + s.TargetMisses
	if total == 0 {
		return 0
	}
	return float64(s.TargetHits) / float64(total) * 100
}

// Source yields branches in trace order until io.EOF.
type Source interface {
	Next() (Branch, error)
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. Mispredictions are logged at V(1).
func WithLogger(log logr.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// WithTargetBuffer attaches a branch target buffer.
func WithTargetBuffer(b *btb.Buffer) Option {
	return func(d *Driver) {
		d.btb = b
	}
}

// Driver feeds branches to a predictor and accumulates statistics.
type Driver struct {
	predictor predictor.Predictor
	btb       *btb.Buffer
	log       logr.Logger
	stats     Stats
}

// NewDriver creates a Driver for p.
func NewDriver(p predictor.Predictor, opts ...Option) *Driver {
	d := &Driver{
		predictor: p,
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Step processes one branch: the target buffer sees every taken branch,
// while only conditional branches are predicted and then trained.
func (d *Driver) Step(b Branch) {
	d.stats.Branches++

	if d.btb != nil && b.Taken {
		target, hit := d.btb.Lookup(b.PC)
		if hit && target == b.Target {
			d.stats.TargetHits++
		} else {
			d.stats.TargetMisses++
		}
		d.btb.Update(b.PC, b.Target)
	}

	if !b.Conditional {
		return
	}

	actual := predictor.OutcomeOf(b.Taken)
	predicted := d.predictor.Predict(b.PC)

	d.stats.Predictions++
	if predicted != actual {
		d.stats.Mispredictions++
		if log := d.log.V(1); log.Enabled() {
			log.Info("mispredict",
				"pc", fmt.Sprintf("%#x", b.PC),
				"predicted", predicted.String(),
				"actual", actual.String())
		}
	}

	d.predictor.Train(b.PC, actual)
}

// Run processes every branch from src.
func (d *Driver) Run(src Source) (Stats, error) {
	d.log.Info("run started", "predictor", d.predictor.Name())

	for {
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.stats, fmt.Errorf("trace aborted after %d branches: %w", d.stats.Branches, err)
		}
		d.Step(b)
	}

	d.log.Info("run finished",
		"branches", d.stats.Branches,
		"predictions", d.stats.Predictions,
		"mispredictions", d.stats.Mispredictions)

	return d.stats, nil
}

// RunBranches processes an in-memory trace.
func (d *Driver) RunBranches(branches []Branch) Stats {
	for _, b := range branches {
		d.Step(b)
	}
	return d.stats
}

// Stats returns the statistics so far.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Reset clears statistics and restores the predictor and target buffer.
func (d *Driver) Reset() {
	d.predictor.Reset()
	if d.btb != nil {
		d.btb.Reset()
	}
	d.stats = Stats{}
}

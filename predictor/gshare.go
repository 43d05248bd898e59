package predictor

import "fmt"

// GsharePredictor indexes a single table of 2-bit counters with the low PC
// bits XORed with the low global history bits.
type GsharePredictor struct {
	historyBits int
	bht         counterTable
	history     History
}

// NewGshare creates a gshare predictor with 2^historyBits counters.
// historyBits must already be validated.
func NewGshare(historyBits int) *GsharePredictor {
	return &GsharePredictor{
		historyBits: historyBits,
		bht:         newCounterTable(historyBits),
	}
}

// index folds the PC and the current history. It is evaluated before the
// history absorbs the branch being trained.
func (g *GsharePredictor) index(pc uint32) uint64 {
	mask := lowMask(g.historyBits)
	return (uint64(pc) & mask) ^ g.history.Low(g.historyBits)
}

// Predict looks up the counter for pc.
func (g *GsharePredictor) Predict(pc uint32) Outcome {
	return g.bht.predict(g.index(pc))
}

// Train updates the counter for pc, then shifts the outcome into history.
func (g *GsharePredictor) Train(pc uint32, outcome Outcome) {
	g.bht.train(g.index(pc), outcome)
	g.history = g.history.Push(outcome)
}

// Reset restores the table to Weakly Not Taken and clears history.
func (g *GsharePredictor) Reset() {
	g.bht.reset()
	g.history = 0
}

// Name returns the variant name with its history width.
func (g *GsharePredictor) Name() string {
	return fmt.Sprintf("%s:%d", Gshare, g.historyBits)
}

// History returns the global history register.
func (g *GsharePredictor) History() History {
	return g.history
}

// CounterAt returns the counter the given PC currently maps to.
func (g *GsharePredictor) CounterAt(pc uint32) Counter {
	return g.bht[g.index(pc)&g.bht.mask()]
}

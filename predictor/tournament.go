package predictor

import "fmt"

// TournamentPredictor chooses between a two-level local predictor and a
// global-history predictor with a table of choice counters.
//
// Choice counters reuse the 2-bit state machine: the not-taken half selects
// the local prediction and the taken half selects the global prediction.
type TournamentPredictor struct {
	pcIndexBits  int
	lhistoryBits int
	phistoryBits int

	// Local history per PC bucket, kept to lhistoryBits.
	lht []uint32
	// Local counters indexed by local history.
	localBHT counterTable
	// Global counters indexed by path history.
	globalBHT counterTable
	// Choice counters indexed by path history.
	choice counterTable

	pathHistory History
}

// TournamentLookup is the full set of intermediate values of one probe.
type TournamentLookup struct {
	LocalIndex  uint64
	BHTIndex    uint64
	GlobalIndex uint64

	Local     Outcome
	Global    Outcome
	UseGlobal bool
}

// Prediction returns the outcome the choice counter selected.
func (l TournamentLookup) Prediction() Outcome {
	if l.UseGlobal {
		return l.Global
	}
	return l.Local
}

// NewTournament creates a tournament predictor. Widths must already be
// validated.
func NewTournament(pcIndexBits, lhistoryBits, phistoryBits int) *TournamentPredictor {
	t := &TournamentPredictor{
		pcIndexBits:  pcIndexBits,
		lhistoryBits: lhistoryBits,
		phistoryBits: phistoryBits,
		lht:          make([]uint32, 1<<pcIndexBits),
		localBHT:     newCounterTable(lhistoryBits),
		globalBHT:    newCounterTable(phistoryBits),
		choice:       newCounterTable(phistoryBits),
	}
	return t
}

// Lookup probes every table for pc without changing state.
func (t *TournamentPredictor) Lookup(pc uint32) TournamentLookup {
	l := TournamentLookup{}

	l.LocalIndex = uint64(pc) & lowMask(t.pcIndexBits)
	l.BHTIndex = uint64(t.lht[l.LocalIndex]) & lowMask(t.lhistoryBits)
	l.GlobalIndex = t.pathHistory.Low(t.phistoryBits)

	l.Local = t.localBHT.predict(l.BHTIndex)
	l.Global = t.globalBHT.predict(l.GlobalIndex)
	l.UseGlobal = t.choice.predict(l.GlobalIndex) == Taken

	return l
}

// Predict returns the prediction of whichever component the choice counter
// currently trusts.
func (t *TournamentPredictor) Predict(pc uint32) Outcome {
	return t.Lookup(pc).Prediction()
}

// Train updates the local history, both component counters and the choice
// counter, then shifts the outcome into path history. All indices come from
// the state before this branch.
func (t *TournamentPredictor) Train(pc uint32, outcome Outcome) {
	l := t.Lookup(pc)

	hist := uint64(t.lht[l.LocalIndex])<<1 | outcome.Bit()
	t.lht[l.LocalIndex] = uint32(hist & lowMask(t.lhistoryBits))

	t.localBHT.train(l.BHTIndex, outcome)
	t.globalBHT.train(l.GlobalIndex, outcome)

	idx := l.GlobalIndex & t.choice.mask()
	t.choice[idx] = updateChoice(t.choice[idx], l.Local == outcome, l.Global == outcome)

	t.pathHistory = t.pathHistory.Push(outcome)
}

// updateChoice moves the choice counter toward the component that was right
// when exactly one of them was.
func updateChoice(c Counter, localCorrect, globalCorrect bool) Counter {
	switch {
	case globalCorrect && !localCorrect:
		return c.Update(Taken)
	case localCorrect && !globalCorrect:
		return c.Update(NotTaken)
	default:
		return c
	}
}

// Reset clears local and path history and resets all counters.
func (t *TournamentPredictor) Reset() {
	for i := range t.lht {
		t.lht[i] = 0
	}
	t.localBHT.reset()
	t.globalBHT.reset()
	t.choice.reset()
	t.pathHistory = 0
}

// Name returns the variant name with its widths in command-line order.
func (t *TournamentPredictor) Name() string {
	return fmt.Sprintf("%s:%d:%d:%d", Tournament, t.phistoryBits, t.lhistoryBits, t.pcIndexBits)
}

// ChoiceAt returns the choice counter consulted for the next prediction.
func (t *TournamentPredictor) ChoiceAt() Counter {
	return t.choice[t.pathHistory.Low(t.phistoryBits)&t.choice.mask()]
}

// PathHistory returns the global history register.
func (t *TournamentPredictor) PathHistory() History {
	return t.pathHistory
}

// Package predictor implements conditional branch direction predictors for
// trace-driven simulation.
//
// Every engine follows the same two-phase contract: Predict reads the tables
// for a PC without changing them, and Train folds the real outcome back in
// once it is known. Train must be called exactly once per conditional branch,
// with the PC that was predicted.
package predictor

// Outcome is the resolved or predicted direction of a conditional branch.
type Outcome uint8

const (
	// NotTaken means the branch falls through.
	NotTaken Outcome = iota
	// Taken means the branch jumps to its target.
	Taken
)

// OutcomeOf converts a taken flag into an Outcome.
func OutcomeOf(taken bool) Outcome {
	if taken {
		return Taken
	}
	return NotTaken
}

// Bit returns the value shifted into history registers: 1 for taken.
func (o Outcome) Bit() uint64 {
	return uint64(o)
}

// IsTaken reports whether the outcome is Taken.
func (o Outcome) IsTaken() bool {
	return o == Taken
}

func (o Outcome) String() string {
	if o == Taken {
		return "Taken"
	}
	return "NotTaken"
}

// Counter is a 2-bit saturating counter.
// States: 0=Strongly Not Taken, 1=Weakly Not Taken, 2=Weakly Taken,
// 3=Strongly Taken. The only ways to obtain a Counter are the four constants
// and Update, so a value outside these states is never produced.
type Counter uint8

const (
	StronglyNotTaken Counter = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// Predict returns Taken for the two taken-biased states.
func (c Counter) Predict() Outcome {
	if c >= WeaklyTaken {
		return Taken
	}
	return NotTaken
}

// Update moves the counter one step toward the outcome, saturating at both
// ends.
func (c Counter) Update(o Outcome) Counter {
	if o == Taken {
		if c < StronglyTaken {
			return c + 1
		}
		return StronglyTaken
	}

	if c > StronglyNotTaken {
		return c - 1
	}
	return StronglyNotTaken
}

// IsStrong reports whether the counter sits at either saturation point.
func (c Counter) IsStrong() bool {
	return c == StronglyNotTaken || c == StronglyTaken
}

// WeakToward returns the weak state biased toward o. Fresh tagged entries
// start there.
func WeakToward(o Outcome) Counter {
	if o == Taken {
		return WeaklyTaken
	}
	return WeaklyNotTaken
}

func (c Counter) String() string {
	switch c {
	case StronglyNotTaken:
		return "StronglyNotTaken"
	case WeaklyNotTaken:
		return "WeaklyNotTaken"
	case WeaklyTaken:
		return "WeaklyTaken"
	default:
		return "StronglyTaken"
	}
}

// counterTable is a flat power-of-two table of counters.
type counterTable []Counter

func newCounterTable(bits int) counterTable {
	t := make(counterTable, 1<<bits)
	t.reset()
	return t
}

func (t counterTable) mask() uint64 {
	return uint64(len(t) - 1)
}

// reset puts every entry back to Weakly Not Taken.
func (t counterTable) reset() {
	for i := range t {
		t[i] = WeaklyNotTaken
	}
}

func (t counterTable) predict(idx uint64) Outcome {
	return t[idx&t.mask()].Predict()
}

func (t counterTable) train(idx uint64, o Outcome) {
	i := idx & t.mask()
	t[i] = t[i].Update(o)
}

package predictor

import (
	"math/rand/v2"
)

// TAGEPredictor is a tagged geometric-history predictor: an untagged
// bimodal base table backed by a cascade of tagged tables whose history
// lengths grow from one table to the next.
//
// The longest-history table whose tag matches provides the prediction. When
// no tagged table matches, the base table does.
type TAGEPredictor struct {
	config  Config
	base    counterTable
	tables  []*taggedTable
	history History

	rng     *rand.Rand
	trained uint64
}

// TAGELookup holds the intermediate values of one probe.
type TAGELookup struct {
	BaseIndex uint64
	Base      Outcome

	// Indices and Tags have one element per tagged table, shortest history
	// first.
	Indices []uint64
	Tags    []uint16

	// Provider is the longest matching table, or -1 for the base table.
	Provider int
	// Alternate is the next shorter matching table, or -1 for the base
	// table.
	Alternate int

	Prediction    Outcome
	AltPrediction Outcome
}

// NewTAGE creates a custom predictor from a validated configuration.
func NewTAGE(config Config) *TAGEPredictor {
	config = config.Clone()

	p := &TAGEPredictor{
		config: config,
		base:   newCounterTable(config.BaseBits),
		tables: make([]*taggedTable, len(config.TaggedTables)),
		rng:    newAllocRand(config.Seed),
	}

	for i, tc := range config.TaggedTables {
		p.tables[i] = newTaggedTable(tc)
	}

	return p
}

func newAllocRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Lookup probes the base table and every tagged table for pc.
func (p *TAGEPredictor) Lookup(pc uint32) TAGELookup {
	n := len(p.tables)
	l := TAGELookup{
		BaseIndex: uint64(pc) & p.base.mask(),
		Indices:   make([]uint64, n),
		Tags:      make([]uint16, n),
		Provider:  -1,
		Alternate: -1,
	}
	l.Base = p.base.predict(l.BaseIndex)
	l.Prediction = l.Base
	l.AltPrediction = l.Base

	for i, t := range p.tables {
		l.Indices[i] = t.index(pc, p.history)
		l.Tags[i] = t.tag(pc, p.history, p.config.TagShift)
	}

	for i := n - 1; i >= 0; i-- {
		e := p.tables[i].load(l.Indices[i])
		if !e.Valid || e.Tag != l.Tags[i] {
			continue
		}

		if l.Provider < 0 {
			l.Provider = i
			l.Prediction = e.Counter.Predict()
			continue
		}

		l.Alternate = i
		l.AltPrediction = e.Counter.Predict()
		break
	}

	return l
}

// Predict returns the provider's prediction for pc.
func (p *TAGEPredictor) Predict(pc uint32) Outcome {
	return p.Lookup(pc).Prediction
}

// BasePredict returns what the base table alone predicts for pc.
func (p *TAGEPredictor) BasePredict(pc uint32) Outcome {
	return p.base.predict(uint64(pc))
}

// Train updates the base table, the provider entry and its usefulness,
// allocates longer-history entries on a misprediction, and finally shifts
// the outcome into history.
func (p *TAGEPredictor) Train(pc uint32, outcome Outcome) {
	l := p.Lookup(pc)

	p.base.train(l.BaseIndex, outcome)

	if l.Provider >= 0 {
		t := p.tables[l.Provider]
		idx := l.Indices[l.Provider]
		e := t.load(idx)

		if l.Prediction == outcome {
			if e.Useful < t.maxUseful() {
				e.Useful++
			}
		} else if e.Useful > 0 {
			e.Useful--
		}
		e.Counter = e.Counter.Update(outcome)

		t.store(idx, e)
	}

	if l.Prediction != outcome {
		p.allocate(l, outcome)
	}

	p.history = p.history.Push(outcome)

	p.trained++
	if p.config.UsefulResetPeriod > 0 && p.trained%p.config.UsefulResetPeriod == 0 {
		p.decayUseful()
	}
}

// allocate claims one slot in a table with longer history than the
// provider. The least useful candidate wins; ties go to the shorter table,
// with an even chance of passing over to the next tied candidate. If every
// candidate was useful, all of them age by one.
func (p *TAGEPredictor) allocate(l TAGELookup, outcome Outcome) {
	start := l.Provider + 1
	if start >= len(p.tables) {
		return
	}

	minUseful := uint8(255)
	for i := start; i < len(p.tables); i++ {
		if u := p.tables[i].usefulAt(l.Indices[i]); u < minUseful {
			minUseful = u
		}
	}

	victim := -1
	for i := start; i < len(p.tables); i++ {
		if p.tables[i].usefulAt(l.Indices[i]) != minUseful {
			continue
		}
		victim = i
		if p.rng.IntN(2) == 0 {
			break
		}
	}

	if minUseful > 0 {
		for i := start; i < len(p.tables); i++ {
			t := p.tables[i]
			e := t.load(l.Indices[i])
			e.Useful--
			t.store(l.Indices[i], e)
		}
	}

	p.tables[victim].store(l.Indices[victim], TaggedEntry{
		Valid:   true,
		Counter: WeakToward(outcome),
		Tag:     l.Tags[victim],
	})
}

// decayUseful halves every usefulness counter.
func (p *TAGEPredictor) decayUseful() {
	for _, t := range p.tables {
		for i := range t.slots {
			e := t.load(uint64(i))
			if e.Useful == 0 {
				continue
			}
			e.Useful >>= 1
			t.store(uint64(i), e)
		}
	}
}

// Reset restores every table, the history and the allocation generator.
func (p *TAGEPredictor) Reset() {
	p.base.reset()
	for _, t := range p.tables {
		t.reset()
	}
	p.history = 0
	p.trained = 0
	p.rng = newAllocRand(p.config.Seed)
}

// Name returns "custom".
func (p *TAGEPredictor) Name() string {
	return Custom.String()
}

// NumTables returns the number of tagged tables.
func (p *TAGEPredictor) NumTables() int {
	return len(p.tables)
}

// Entry returns the slot of tagged table i that pc maps to under the current
// history.
func (p *TAGEPredictor) Entry(i int, pc uint32) TaggedEntry {
	t := p.tables[i]
	return t.load(t.index(pc, p.history))
}

// History returns the global history register.
func (p *TAGEPredictor) History() History {
	return p.history
}

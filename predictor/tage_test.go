package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

// loopPattern is a loop branch taken n-1 times and then falling through.
func loopPattern(pc uint32, n, periods int) []step {
	var steps []step
	for p := 0; p < periods; p++ {
		for i := 0; i < n; i++ {
			steps = append(steps, step{pc, predictor.OutcomeOf(i != n-1)})
		}
	}
	return steps
}

var _ = Describe("TAGEPredictor", func() {
	var (
		config predictor.Config
		p      *predictor.TAGEPredictor
	)

	BeforeEach(func() {
		config = predictor.DefaultConfig(predictor.Custom)
		p = predictor.NewTAGE(config)
	})

	It("should fall back to the base table when every tagged table misses", func() {
		for _, pc := range []uint32{0, 0x10, 0x400123, 0xDEADBEEF, 0xFFFFFFFF} {
			l := p.Lookup(pc)
			Expect(l.Provider).To(Equal(-1))
			Expect(l.Alternate).To(Equal(-1))
			Expect(p.Predict(pc)).To(Equal(p.BasePredict(pc)))
		}
	})

	It("should seed tagged entries empty with a mid-range counter", func() {
		for i := 0; i < p.NumTables(); i++ {
			e := p.Entry(i, 0x1234)
			Expect(e.Valid).To(BeFalse())
			Expect(e.Counter).To(Equal(predictor.WeaklyNotTaken))
			Expect(e.Tag).To(BeZero())
			Expect(e.Useful).To(BeZero())
		}
	})

	It("should allocate a tagged entry after a misprediction", func() {
		pc := uint32(0x8000)
		before := p.Lookup(pc)
		Expect(before.Prediction).To(Equal(predictor.NotTaken))

		p.Train(pc, predictor.Taken)

		Expect(p.History()).To(Equal(predictor.History(1)))
		Expect(p.BasePredict(pc)).To(Equal(predictor.Taken))
	})

	It("should not allocate when the base table was right", func() {
		pc := uint32(0x8000)
		p.Train(pc, predictor.NotTaken)

		// History is zero again, so the probe sees the same slots.
		l := p.Lookup(pc)
		Expect(l.Provider).To(Equal(-1))
	})

	It("should learn a loop exit through long history", func() {
		steps := loopPattern(0x4010, 8, 220)
		preds := replay(p, steps)

		misses := 0
		for i := len(steps) - 160; i < len(steps); i++ {
			if preds[i] != steps[i].outcome {
				misses++
			}
		}
		Expect(misses).To(BeZero())
	})

	It("should be deterministic across replays and resets", func() {
		steps := loopPattern(0x100, 5, 40)
		steps = append(steps, pairPattern(0x200, 0x300, 40)...)

		first := replay(predictor.NewTAGE(config), steps)
		Expect(replay(predictor.NewTAGE(config), steps)).To(Equal(first))

		replay(p, steps)
		p.Reset()
		Expect(p.History()).To(BeZero())
		Expect(replay(p, steps)).To(Equal(first))
	})

	It("should work with a single tagged table", func() {
		config.TaggedTables = []predictor.TaggedTableConfig{
			{PCBits: 6, HistoryBits: 8, TagBits: 7, UsefulBits: 1},
		}
		p = predictor.NewTAGE(config)

		steps := loopPattern(0x77, 4, 100)
		preds := replay(p, steps)
		for i := len(steps) - 16; i < len(steps); i++ {
			Expect(preds[i]).To(Equal(steps[i].outcome))
		}
	})

	It("should be named custom", func() {
		Expect(p.Name()).To(Equal("custom"))
	})
})

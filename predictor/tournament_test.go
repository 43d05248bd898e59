package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

// pairPattern repeats A, A, B, B where A is always taken and B never is.
func pairPattern(a, b uint32, periods int) []step {
	var steps []step
	for i := 0; i < periods; i++ {
		steps = append(steps,
			step{a, predictor.Taken},
			step{a, predictor.Taken},
			step{b, predictor.NotTaken},
			step{b, predictor.NotTaken},
		)
	}
	return steps
}

var _ = Describe("TournamentPredictor", func() {
	var t *predictor.TournamentPredictor

	BeforeEach(func() {
		t = predictor.NewTournament(4, 4, 4)
	})

	It("should start by trusting the local predictor", func() {
		l := t.Lookup(0x1000)
		Expect(l.UseGlobal).To(BeFalse())
		Expect(t.ChoiceAt()).To(Equal(predictor.WeaklyNotTaken))
		Expect(t.Predict(0x1000)).To(Equal(predictor.NotTaken))
	})

	It("should learn an always-taken branch through local history", func() {
		pc := uint32(0x5)
		for i := 0; i < 8; i++ {
			t.Train(pc, predictor.Taken)
		}
		Expect(t.Predict(pc)).To(Equal(predictor.Taken))
		Expect(t.PathHistory().Low(4)).To(Equal(uint64(0xF)))
	})

	It("should converge on local when only local is right", func() {
		// One bit of path history cannot separate A from B, so the global
		// table is wrong every time; per-PC local history separates them.
		t = predictor.NewTournament(4, 4, 1)
		steps := pairPattern(0x1, 0x2, 20)

		preds := replay(t, steps)

		for i := len(steps) - 8; i < len(steps); i++ {
			Expect(preds[i]).To(Equal(steps[i].outcome), "branch %d", i)
		}
		for _, pc := range []uint32{0x1, 0x2} {
			Expect(t.Lookup(pc).UseGlobal).To(BeFalse())
		}
		Expect(t.ChoiceAt()).To(Equal(predictor.StronglyNotTaken))
	})

	It("should switch to global when only global is right", func() {
		// Both PCs share one local bucket with a single bit of history, so
		// the local side is wrong every time; two bits of path history
		// identify each position.
		t = predictor.NewTournament(1, 1, 2)
		steps := pairPattern(0x0, 0x2, 20)

		preds := replay(t, steps)

		for i := len(steps) - 8; i < len(steps); i++ {
			Expect(preds[i]).To(Equal(steps[i].outcome), "branch %d", i)
		}
		Expect(t.Lookup(0x0).UseGlobal).To(BeTrue())
		Expect(t.ChoiceAt()).To(Equal(predictor.StronglyTaken))
	})

	It("should be deterministic across replays", func() {
		steps := pairPattern(0x10, 0x24, 30)
		Expect(replay(predictor.NewTournament(5, 6, 7), steps)).
			To(Equal(replay(predictor.NewTournament(5, 6, 7), steps)))
	})

	It("should reset every table", func() {
		replay(t, pairPattern(0x1, 0x2, 10))
		t.Reset()

		Expect(t.PathHistory()).To(BeZero())
		Expect(t.ChoiceAt()).To(Equal(predictor.WeaklyNotTaken))
		l := t.Lookup(0x1)
		Expect(l.BHTIndex).To(BeZero())
		Expect(l.Local).To(Equal(predictor.NotTaken))
		Expect(l.Global).To(Equal(predictor.NotTaken))
	})

	It("should report its geometry in command-line order", func() {
		t = predictor.NewTournament(13, 15, 14)
		Expect(t.Name()).To(Equal("tournament:14:15:13"))
	})
})

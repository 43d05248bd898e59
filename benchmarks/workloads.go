package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/bpsim/trace"
)

// GetMicrobenchmarks returns the standard set of synthetic branch workloads.
// Each one isolates a behavior a predictor either captures or not.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		alwaysTaken(),
		alternating(),
		loopExit(),
		nestedLoops(),
		correlated(),
		aliasing(),
		noise(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick comparisons.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		alternating(),
		loopExit(),
		correlated(),
	}
}

// Find returns the microbenchmark with the given name.
func Find(name string) (Benchmark, bool) {
	for _, b := range GetMicrobenchmarks() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Names lists the microbenchmark names.
func Names() []string {
	all := GetMicrobenchmarks()
	names := make([]string, len(all))
	for i, b := range all {
		names[i] = b.Name
	}
	return names
}

func cond(pc uint32, taken bool) trace.Branch {
	return trace.Branch{PC: pc, Target: pc + 0x40, Taken: taken, Conditional: true, Direct: true}
}

func alwaysTaken() Benchmark {
	return Benchmark{
		Name:        "always_taken",
		Description: "one branch, always taken - every predictor should be near 100%",
		Branches: func() []trace.Branch {
			return Repeat([]trace.Branch{cond(0x1000, true)}, 4000)
		},
	}
}

func alternating() Benchmark {
	return Benchmark{
		Name:        "alternating",
		Description: "one branch, T/N alternation - needs history",
		Branches: func() []trace.Branch {
			return Repeat([]trace.Branch{cond(0x1100, true), cond(0x1100, false)}, 2000)
		},
	}
}

func loopExit() Benchmark {
	return Benchmark{
		Name:        "loop_exit",
		Description: "loop back-edge with trip count 8 - exit needs 8 outcomes of history",
		Branches: func() []trace.Branch {
			return Loop(0x1200, 8, 500)
		},
	}
}

func nestedLoops() Benchmark {
	return Benchmark{
		Name:        "nested_loops",
		Description: "inner loop of 4 inside outer loop of 3, with a data branch",
		Branches: func() []trace.Branch {
			var period []trace.Branch
			for outer := 0; outer < 3; outer++ {
				for inner := 0; inner < 4; inner++ {
					period = append(period, cond(0x1300, inner%2 == 0))
					period = append(period, cond(0x1304, inner != 3))
				}
				period = append(period, cond(0x1308, outer != 2))
			}
			return Repeat(period, 200)
		},
	}
}

func correlated() Benchmark {
	return Benchmark{
		Name:        "correlated",
		Description: "second branch repeats the first - only global history links them",
		Branches: func() []trace.Branch {
			pattern := []bool{true, true, false}
			var period []trace.Branch
			for _, t := range pattern {
				period = append(period, cond(0x1400, t), cond(0x1480, t))
			}
			return Repeat(period, 700)
		},
	}
}

func aliasing() Benchmark {
	return Benchmark{
		Name:        "aliasing",
		Description: "two opposite-bias branches whose low PC bits collide",
		Branches: func() []trace.Branch {
			return Repeat([]trace.Branch{
				cond(0x0001_1500, true),
				cond(0x0021_1500, false),
				cond(0x0001_1500, true),
			}, 1500)
		},
	}
}

func noise() Benchmark {
	return Benchmark{
		Name:        "noise",
		Description: "seeded random outcomes over 16 branches - no predictor beats ~50%",
		Branches: func() []trace.Branch {
			rng := rand.New(rand.NewPCG(7, 11))
			out := make([]trace.Branch, 4000)
			for i := range out {
				out[i] = cond(0x1600+uint32(rng.IntN(16))*4, rng.IntN(2) == 0)
			}
			return out
		},
	}
}

// Repeat concatenates n copies of period.
func Repeat(period []trace.Branch, n int) []trace.Branch {
	out := make([]trace.Branch, 0, len(period)*n)
	for i := 0; i < n; i++ {
		out = append(out, period...)
	}
	return out
}

// Loop emits a loop back-edge taken trip-1 times then not taken, for the
// given number of loop executions.
func Loop(pc uint32, trip, executions int) []trace.Branch {
	period := make([]trace.Branch, trip)
	for i := range period {
		period[i] = cond(pc, i != trip-1)
	}
	return Repeat(period, executions)
}

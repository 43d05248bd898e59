// Package trace reads branch traces and drives a predictor through them,
// one branch at a time, in trace order.
package trace

// Branch is one resolved branch from a trace.
type Branch struct {
	PC     uint32
	Target uint32
	Taken  bool

	// Conditional branches are the only ones predicted and trained.
	Conditional bool
	Call        bool
	Return      bool
	Direct      bool
}

package predictor

// History is a shift register of branch outcomes, most recent in bit 0.
// Only the low bits are ever read, so the register is allowed to overflow.
type History uint64

// Push shifts an outcome into bit 0.
func (h History) Push(o Outcome) History {
	return h<<1 | History(o.Bit())
}

// Low returns the low n bits of the register.
func (h History) Low(n int) uint64 {
	return uint64(h) & lowMask(n)
}

// lowMask returns a mask of the low n bits. n >= 64 yields all ones.
func lowMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<n - 1
}

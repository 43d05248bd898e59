package predictor

// StaticPredictor always predicts taken and keeps no state.
type StaticPredictor struct{}

// NewStatic creates a static always-taken predictor.
func NewStatic() *StaticPredictor {
	return &StaticPredictor{}
}

// Predict always returns Taken.
func (*StaticPredictor) Predict(uint32) Outcome { return Taken }

// Train is a no-op.
func (*StaticPredictor) Train(uint32, Outcome) {}

// Reset is a no-op.
func (*StaticPredictor) Reset() {}

// Name returns "static".
func (*StaticPredictor) Name() string { return Static.String() }

package predictor

// Predictor is the two-phase contract shared by every engine.
type Predictor interface {
	// Predict returns the predicted direction of the branch at pc. It does
	// not change any state.
	Predict(pc uint32) Outcome

	// Train folds the actual outcome of the branch at pc into the tables
	// and history. Only conditional branches may be trained.
	Train(pc uint32, outcome Outcome)

	// Reset restores every table and register to its initial state.
	Reset()

	// Name identifies the engine and its geometry for reports.
	Name() string
}

// New validates the configuration and builds the selected engine.
func New(config Config) (Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Variant {
	case Gshare:
		return NewGshare(config.GHistoryBits), nil
	case Tournament:
		return NewTournament(config.PCIndexBits, config.LHistoryBits, config.PHistoryBits), nil
	case Custom:
		return NewTAGE(config), nil
	default:
		return NewStatic(), nil
	}
}

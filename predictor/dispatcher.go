package predictor

// Dispatcher owns the active engine for a run and forwards the two-phase
// calls to it. A Dispatcher that was never initialized, or has been shut
// down, behaves like the static predictor.
type Dispatcher struct {
	config Config
	active Predictor
}

// NewDispatcher creates and initializes a dispatcher.
func NewDispatcher(config Config) (*Dispatcher, error) {
	d := &Dispatcher{}
	if err := d.Init(config); err != nil {
		return nil, err
	}
	return d, nil
}

// Init validates the configuration and allocates fresh tables for the
// selected variant. Any previously active engine is discarded, so no state
// survives a reconfiguration. On error the previous engine is kept.
func (d *Dispatcher) Init(config Config) error {
	p, err := New(config)
	if err != nil {
		return err
	}

	d.config = config.Clone()
	d.active = p
	return nil
}

// Predict forwards to the active engine.
func (d *Dispatcher) Predict(pc uint32) Outcome {
	if d.active == nil {
		return Taken
	}
	return d.active.Predict(pc)
}

// Train forwards to the active engine.
func (d *Dispatcher) Train(pc uint32, outcome Outcome) {
	if d.active == nil {
		return
	}
	d.active.Train(pc, outcome)
}

// Reset restores the active engine to its initial state.
func (d *Dispatcher) Reset() {
	if d.active != nil {
		d.active.Reset()
	}
}

// Shutdown releases the active engine's tables.
func (d *Dispatcher) Shutdown() {
	d.active = nil
}

// Name returns the active engine's name.
func (d *Dispatcher) Name() string {
	if d.active == nil {
		return Static.String()
	}
	return d.active.Name()
}

// Variant returns the variant of the active engine.
func (d *Dispatcher) Variant() Variant {
	if d.active == nil {
		return Static
	}
	return d.config.Variant
}

// Active returns the active engine, or nil after Shutdown.
func (d *Dispatcher) Active() Predictor {
	return d.active
}

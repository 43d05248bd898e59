package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid predictor config")

// ErrUnknownVariant is wrapped when a variant name cannot be resolved.
var ErrUnknownVariant = errors.New("unknown predictor variant")

// Table width limits.
const (
	MaxIndexBits   = 28
	MaxHistoryBits = 64
	MaxTagBits     = 16
	MaxUsefulBits  = 4
	maxTagShift    = 31
)

// Variant selects one of the predictor engines.
type Variant int

const (
	// Static always predicts taken.
	Static Variant = iota
	// Gshare indexes one counter table by PC XOR global history.
	Gshare
	// Tournament arbitrates between a local and a global predictor.
	Tournament
	// Custom is the tagged geometric-history predictor.
	Custom
)

var variantNames = [...]string{"static", "gshare", "tournament", "custom"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "Variant(" + strconv.Itoa(int(v)) + ")"
	}
	return variantNames[v]
}

// ParseVariant resolves a variant name, case-insensitively.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, vn := range variantNames {
		if n == vn {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// MarshalText encodes the variant by name.
func (v Variant) MarshalText() ([]byte, error) {
	if v < 0 || int(v) >= len(variantNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return []byte(variantNames[v]), nil
}

// UnmarshalText decodes a variant name.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// TaggedTableConfig describes one table of the custom predictor.
type TaggedTableConfig struct {
	// PCBits is the number of PC bits used for the index. The table holds
	// 2^PCBits entries.
	PCBits int `json:"pc_bits"`

	// HistoryBits is the number of global history bits folded into the
	// index and tag.
	HistoryBits int `json:"history_bits"`

	// TagBits is the width of the partial tag stored per entry.
	TagBits int `json:"tag_bits"`

	// UsefulBits is the width of the usefulness counter.
	UsefulBits int `json:"useful_bits"`
}

// Config holds the table geometry of every predictor variant. Only the
// fields of the selected Variant are validated and used.
type Config struct {
	// Variant selects the engine.
	Variant Variant `json:"variant"`

	// GHistoryBits is the gshare global history width. The gshare table
	// holds 2^GHistoryBits counters. Default: 17.
	GHistoryBits int `json:"ghistory_bits"`

	// PCIndexBits is the number of PC bits indexing the tournament local
	// history table. Default: 13.
	PCIndexBits int `json:"pc_index_bits"`

	// LHistoryBits is the tournament local history width, which also sizes
	// the local counter table. Default: 15.
	LHistoryBits int `json:"lhistory_bits"`

	// PHistoryBits is the tournament global (path) history width, which
	// sizes both the global and the choice tables. Default: 14.
	PHistoryBits int `json:"phistory_bits"`

	// BaseBits sizes the custom predictor's untagged bimodal table.
	// Default: 14.
	BaseBits int `json:"base_bits"`

	// TaggedTables lists the custom predictor's tagged tables, shortest
	// history first.
	TaggedTables []TaggedTableConfig `json:"tagged_tables"`

	// TagShift is how far the PC is shifted before being folded into a
	// tag. Default: 5.
	TagShift int `json:"tag_shift"`

	// UsefulResetPeriod is the number of trained branches between halvings
	// of every usefulness counter. Zero disables the reset.
	UsefulResetPeriod uint64 `json:"useful_reset_period"`

	// Seed drives the allocation coin flips of the custom predictor.
	Seed uint64 `json:"seed"`
}

// DefaultTaggedTables returns the default four-table geometric cascade.
func DefaultTaggedTables() []TaggedTableConfig {
	return []TaggedTableConfig{
		{PCBits: 13, HistoryBits: 2, TagBits: 8, UsefulBits: 2},
		{PCBits: 12, HistoryBits: 4, TagBits: 9, UsefulBits: 2},
		{PCBits: 11, HistoryBits: 8, TagBits: 10, UsefulBits: 2},
		{PCBits: 10, HistoryBits: 16, TagBits: 11, UsefulBits: 2},
	}
}

// DefaultConfig returns a configuration for the given variant with every
// width set to its default.
func DefaultConfig(v Variant) Config {
	return Config{
		Variant:           v,
		GHistoryBits:      17,
		PCIndexBits:       13,
		LHistoryBits:      15,
		PHistoryBits:      14,
		BaseBits:          14,
		TaggedTables:      DefaultTaggedTables(),
		TagShift:          5,
		UsefulResetPeriod: 256 * 1024,
		Seed:              1,
	}
}

// ParseVariantSpec parses the command-line form of a predictor selection:
//
//	static
//	gshare:<ghistory>
//	tournament:<phistory>:<lhistory>:<pcindex>
//	custom
//
// Omitted widths keep their defaults.
func ParseVariantSpec(spec string) (Config, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")

	v, err := ParseVariant(parts[0])
	if err != nil {
		return Config{}, err
	}

	config := DefaultConfig(v)
	args := parts[1:]

	var fields []*int
	switch v {
	case Gshare:
		fields = []*int{&config.GHistoryBits}
	case Tournament:
		fields = []*int{&config.PHistoryBits, &config.LHistoryBits, &config.PCIndexBits}
	}

	if len(args) > len(fields) {
		return Config{}, fmt.Errorf("%w: %s takes at most %d widths, got %q",
			ErrInvalidConfig, v, len(fields), spec)
	}

	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return Config{}, fmt.Errorf("%w: bad width %q in %q", ErrInvalidConfig, a, spec)
		}
		*fields[i] = n
	}

	return config, config.Validate()
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig(Gshare)
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// Validate checks the widths used by the selected variant.
func (c Config) Validate() error {
	switch c.Variant {
	case Static:
		return nil
	case Gshare:
		return checkIndexBits("ghistory_bits", c.GHistoryBits)
	case Tournament:
		if err := checkIndexBits("pc_index_bits", c.PCIndexBits); err != nil {
			return err
		}
		if err := checkIndexBits("lhistory_bits", c.LHistoryBits); err != nil {
			return err
		}
		return checkIndexBits("phistory_bits", c.PHistoryBits)
	case Custom:
		return c.validateCustom()
	default:
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownVariant, int(c.Variant))
	}
}

func (c Config) validateCustom() error {
	if err := checkIndexBits("base_bits", c.BaseBits); err != nil {
		return err
	}
	if len(c.TaggedTables) == 0 {
		return fmt.Errorf("%w: custom predictor needs at least one tagged table", ErrInvalidConfig)
	}
	if c.TagShift < 0 || c.TagShift > maxTagShift {
		return fmt.Errorf("%w: tag_shift must be in [0, %d]", ErrInvalidConfig, maxTagShift)
	}

	for i, t := range c.TaggedTables {
		name := fmt.Sprintf("tagged_tables[%d]", i)
		if err := checkIndexBits(name+".pc_bits", t.PCBits); err != nil {
			return err
		}
		if err := checkRange(name+".history_bits", t.HistoryBits, MaxHistoryBits); err != nil {
			return err
		}
		if err := checkRange(name+".tag_bits", t.TagBits, MaxTagBits); err != nil {
			return err
		}
		if err := checkRange(name+".useful_bits", t.UsefulBits, MaxUsefulBits); err != nil {
			return err
		}
		if i > 0 && t.HistoryBits <= c.TaggedTables[i-1].HistoryBits {
			return fmt.Errorf("%w: %s must be longer than the previous table's history",
				ErrInvalidConfig, name+".history_bits")
		}
	}

	return nil
}

func checkIndexBits(name string, bits int) error {
	return checkRange(name, bits, MaxIndexBits)
}

func checkRange(name string, bits, limit int) error {
	if bits <= 0 {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidConfig, name)
	}
	if bits > limit {
		return fmt.Errorf("%w: %s must be <= %d", ErrInvalidConfig, name, limit)
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c Config) Clone() Config {
	clone := c
	clone.TaggedTables = append([]TaggedTableConfig(nil), c.TaggedTables...)
	return clone
}

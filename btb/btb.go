// Package btb provides a set-associative branch target buffer built on the
// Akita cache directory.
package btb

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// slotBytes is the address granule mapped to one directory block. Branch
// PCs are matched exactly; the granule only spreads neighbouring
// instructions across sets.
const slotBytes = 4

// Config holds target buffer geometry.
type Config struct {
	// Sets is the number of sets. Must be a power of 2.
	Sets int `json:"sets"`
	// Ways is the associativity.
	Ways int `json:"ways"`
}

// DefaultConfig returns a 512-entry, 4-way buffer.
func DefaultConfig() Config {
	return Config{
		Sets: 128,
		Ways: 4,
	}
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.Sets <= 0 || c.Sets&(c.Sets-1) != 0 {
		return fmt.Errorf("btb sets must be a power of 2, got %d", c.Sets)
	}
	if c.Ways <= 0 {
		return fmt.Errorf("btb ways must be > 0, got %d", c.Ways)
	}
	return nil
}

// Entries returns the total capacity.
func (c Config) Entries() int {
	return c.Sets * c.Ways
}

// Statistics holds target buffer statistics.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Updates   uint64
	Evictions uint64
}

// HitRate returns the hit rate as a percentage.
func (s Statistics) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}

// Buffer maps branch PCs to their last taken target.
type Buffer struct {
	config Config

	// Akita directory for tag/LRU management
	directory *akitacache.DirectoryImpl

	// Targets indexed by (setID * ways + wayID)
	targets []uint32

	stats Statistics
}

// New creates a target buffer.
func New(config Config) (*Buffer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Buffer{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			slotBytes,
			akitacache.NewLRUVictimFinder(),
		),
		targets: make([]uint32, config.Entries()),
	}, nil
}

// Config returns the buffer geometry.
func (b *Buffer) Config() Config {
	return b.config
}

// Stats returns target buffer statistics.
func (b *Buffer) Stats() Statistics {
	return b.stats
}

func (b *Buffer) slot(block *akitacache.Block) int {
	return block.SetID*b.config.Ways + block.WayID
}

// Lookup returns the cached target of the branch at pc.
func (b *Buffer) Lookup(pc uint32) (target uint32, hit bool) {
	b.stats.Lookups++

	block := b.directory.Lookup(0, uint64(pc))
	if block == nil || !block.IsValid {
		b.stats.Misses++
		return 0, false
	}

	b.stats.Hits++
	b.directory.Visit(block)
	return b.targets[b.slot(block)], true
}

// Update records target as the destination of the branch at pc, replacing
// the least recently used way of the set if pc is not yet present.
func (b *Buffer) Update(pc uint32, target uint32) {
	b.stats.Updates++
	key := uint64(pc)

	block := b.directory.Lookup(0, key)
	if block == nil || !block.IsValid {
		block = b.directory.FindVictim(key)
		if block == nil {
			return
		}
		if block.IsValid {
			b.stats.Evictions++
		}
		block.Tag = key
		block.IsValid = true
	}

	b.targets[b.slot(block)] = target
	b.directory.Visit(block)
}

// Invalidate drops the entry for pc, if any.
func (b *Buffer) Invalidate(pc uint32) {
	block := b.directory.Lookup(0, uint64(pc))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates every entry and clears statistics.
func (b *Buffer) Reset() {
	b.directory.Reset()
	for i := range b.targets {
		b.targets[i] = 0
	}
	b.stats = Statistics{}
}

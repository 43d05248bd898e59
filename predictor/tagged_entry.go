package predictor

// TaggedEntry is one slot of a tagged table.
//
// In the table it is packed into a uint32, high bits first:
//
//	[valid:1][counter:2][tag:TagBits][useful:UsefulBits]
//
// Only taggedTable.load and taggedTable.store see the packed form.
type TaggedEntry struct {
	// Valid is false until the slot is allocated. Invalid slots never match.
	Valid bool
	// Counter is the direction confidence.
	Counter Counter
	// Tag is the partial tag, TagBits wide.
	Tag uint16
	// Useful is the usefulness counter, UsefulBits wide.
	Useful uint8
}

const counterBits = 2

// emptyEntry is the state of every slot after initialization: mid-range
// counter, no tag, no usefulness.
var emptyEntry = TaggedEntry{Counter: WeaklyNotTaken}

type taggedTable struct {
	config TaggedTableConfig
	slots  []uint32
}

func newTaggedTable(config TaggedTableConfig) *taggedTable {
	t := &taggedTable{
		config: config,
		slots:  make([]uint32, 1<<config.PCBits),
	}
	t.reset()
	return t
}

func (t *taggedTable) reset() {
	empty := t.pack(emptyEntry)
	for i := range t.slots {
		t.slots[i] = empty
	}
}

func (t *taggedTable) pack(e TaggedEntry) uint32 {
	useful := uint32(e.Useful) & uint32(lowMask(t.config.UsefulBits))
	tag := uint32(e.Tag) & uint32(lowMask(t.config.TagBits))

	w := useful
	w |= tag << t.config.UsefulBits
	w |= uint32(e.Counter&StronglyTaken) << (t.config.UsefulBits + t.config.TagBits)
	if e.Valid {
		w |= 1 << (t.config.UsefulBits + t.config.TagBits + counterBits)
	}
	return w
}

func (t *taggedTable) unpack(w uint32) TaggedEntry {
	u := t.config.UsefulBits
	tb := t.config.TagBits

	return TaggedEntry{
		Valid:   (w>>(u+tb+counterBits))&1 == 1,
		Counter: Counter((w >> (u + tb)) & uint32(StronglyTaken)),
		Tag:     uint16((w >> u) & uint32(lowMask(tb))),
		Useful:  uint8(w & uint32(lowMask(u))),
	}
}

func (t *taggedTable) load(idx uint64) TaggedEntry {
	return t.unpack(t.slots[idx&uint64(len(t.slots)-1)])
}

func (t *taggedTable) store(idx uint64, e TaggedEntry) {
	t.slots[idx&uint64(len(t.slots)-1)] = t.pack(e)
}

// index XORs the low PC bits with the low history bits, masked to the
// table size.
func (t *taggedTable) index(pc uint32, h History) uint64 {
	pcBits := uint64(pc) & lowMask(t.config.PCBits)
	return (pcBits ^ h.Low(t.config.HistoryBits)) & lowMask(t.config.PCBits)
}

// tag hashes the low PC bits, the shifted PC and the history bits, truncated
// to the tag width.
func (t *taggedTable) tag(pc uint32, h History, shift int) uint16 {
	pcBits := uint64(pc) & lowMask(t.config.PCBits)
	hash := pcBits ^ uint64(pc>>shift) ^ h.Low(t.config.HistoryBits)
	return uint16(hash & lowMask(t.config.TagBits))
}

func (t *taggedTable) maxUseful() uint8 {
	return uint8(lowMask(t.config.UsefulBits))
}

// usefulAt returns the eviction priority of a slot; invalid slots count as
// useless.
func (t *taggedTable) usefulAt(idx uint64) uint8 {
	e := t.load(idx)
	if !e.Valid {
		return 0
	}
	return e.Useful
}

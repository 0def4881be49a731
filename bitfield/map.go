// Package bitfield implements the Availability Map: the piece-availability
// and selection core of a segmented download engine. It tracks, for a
// download of known length split into fixed-size blocks, which blocks the
// local peer has, which are reserved by outstanding requests, and an
// optional filter narrowing interest to a subset of blocks — then answers
// which block to request next given a remote peer's advertised bitfield.
//
// The map is a passive, non-thread-safe data structure; callers serialize
// access externally.
package bitfield

import (
	"math/rand"
	"time"

	"github.com/xurujie/aria2/internal/xmetrics"
)

// Map is the Availability Map described by the package doc. Zero value is
// not usable; construct with New or NewWithSource.
type Map struct {
	blockLength      int64
	totalLength      int64
	blocks           int
	lastBlockLength  int64

	have   *bitVector
	inUse  *bitVector
	filter *bitVector

	filterEnabled bool

	rng *rand.Rand
}

// New constructs a Map for a download of totalLength bytes split into
// blocks of blockLength bytes (the final block may be shorter). Both
// arguments must be > 0.
func New(blockLength, totalLength int64) *Map {
	return NewWithSource(blockLength, totalLength, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource is like New but takes an explicit randomness source, so
// random selection (§4.3.1) is reproducible under test. Production callers
// may use New's clock-seeded default; tests should inject a fixed seed.
func NewWithSource(blockLength, totalLength int64, src rand.Source) *Map {
	if blockLength <= 0 || totalLength <= 0 {
		// A misconfigured caller gets a harmless, always-empty map rather
		// than a panic: every operation below degrades to its quiet-failure
		// sentinel when blocks == 0.
		return &Map{
			have:  newBitVector(0),
			inUse: newBitVector(0),
			rng:   rand.New(src),
		}
	}
	blocks := int((totalLength + blockLength - 1) / blockLength)
	last := totalLength - int64(blocks-1)*blockLength

	return &Map{
		blockLength:     blockLength,
		totalLength:     totalLength,
		blocks:          blocks,
		lastBlockLength: last,
		have:            newBitVector(blocks),
		inUse:           newBitVector(blocks),
		rng:             rand.New(src),
	}
}

// Clone returns a deep copy: all three bit vectors are duplicated.
func (m *Map) Clone() *Map {
	out := &Map{
		blockLength:     m.blockLength,
		totalLength:     m.totalLength,
		blocks:          m.blocks,
		lastBlockLength: m.lastBlockLength,
		filterEnabled:   m.filterEnabled,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if m.have != nil {
		out.have = m.have.clone()
	}
	if m.inUse != nil {
		out.inUse = m.inUse.clone()
	}
	if m.filter != nil {
		out.filter = m.filter.clone()
	}
	return out
}

// BlockLength returns the configured full-block size in bytes.
func (m *Map) BlockLength() int64 { return m.blockLength }

// TotalLength returns the configured total payload size in bytes.
func (m *Map) TotalLength() int64 { return m.totalLength }

// BlockCount returns B, the number of blocks.
func (m *Map) BlockCount() int { return m.blocks }

// LastBlockLength returns the number of bytes in the final block.
func (m *Map) LastBlockLength() int64 { return m.lastBlockLength }

// byteLength returns the peer-wire bitfield length in bytes, ceil(B/8).
func (m *Map) byteLength() int {
	return byteLen(m.blocks)
}

// --- have / in-use mutators and queries -----------------------------------

// SetHave marks block i as locally present and verified. Returns false
// (no effect) if i is out of [0, B).
func (m *Map) SetHave(i int) bool { return m.have.set(i) }

// UnsetHave clears block i from the have set.
func (m *Map) UnsetHave(i int) bool { return m.have.unset(i) }

// IsHave reports whether block i is present. Out-of-range reads false.
func (m *Map) IsHave(i int) bool { return m.have.get(i) }

// SetInUse marks block i as reserved by an outstanding request.
func (m *Map) SetInUse(i int) bool { return m.inUse.set(i) }

// UnsetInUse clears block i's reservation.
func (m *Map) UnsetInUse(i int) bool { return m.inUse.unset(i) }

// IsInUse reports whether block i is currently reserved.
func (m *Map) IsInUse(i int) bool { return m.inUse.get(i) }

// SetAllHave marks every block as present, iterating blocks (not bytes) so
// padding bits in the final byte of the underlying vector stay zero.
func (m *Map) SetAllHave() { m.have.setAll() }

// ClearAllHave clears the entire have set.
func (m *Map) ClearAllHave() { m.have.clear() }

// ClearAllInUse clears the entire in-use set.
func (m *Map) ClearAllInUse() { m.inUse.clear() }

// LoadHave replaces the have vector with buf when its length matches the
// internal byte length exactly, and clears in-use as a side effect.
// Mismatched length is a silent no-op returning false.
func (m *Map) LoadHave(buf []byte) bool {
	if !m.have.loadFrom(buf) {
		return false
	}
	m.inUse.clear()
	return true
}

// Serialize returns the peer-wire byte representation of the have set, for
// use with LoadHave (§8 property 6's round-trip).
func (m *Map) Serialize() []byte {
	out := make([]byte, len(m.have.bytes))
	copy(out, m.have.bytes)
	return out
}

// --- filter ----------------------------------------------------------------

// AddFilter marks every block overlapping the byte range [offset, offset+length)
// as of-interest, allocating the filter vector on first use.
func (m *Map) AddFilter(offset, length int64) {
	if m.blockLength <= 0 || length <= 0 {
		return
	}
	if m.filter == nil {
		m.filter = newBitVector(m.blocks)
	}
	startBlock := int(offset / m.blockLength)
	endBlock := int((offset + length - 1) / m.blockLength)
	if endBlock >= m.blocks {
		endBlock = m.blocks - 1
	}
	for i := startBlock; i <= endBlock && i < m.blocks; i++ {
		m.filter.set(i)
	}
}

// EnableFilter restricts selection and accounting operations to the
// filter's domain.
func (m *Map) EnableFilter() { m.filterEnabled = true }

// DisableFilter lifts the restriction without deallocating the filter, so
// it can be re-enabled later.
func (m *Map) DisableFilter() { m.filterEnabled = false }

// ClearFilter deallocates the filter vector and disables it.
func (m *Map) ClearFilter() {
	m.filter = nil
	m.filterEnabled = false
}

// IsFilterEnabled reports whether the filter currently restricts
// operations.
func (m *Map) IsFilterEnabled() bool { return m.filterEnabled }

// --- counting and length accounting ----------------------------------------

// CountBlocks returns popcount(filter) when the filter is enabled, else B.
func (m *Map) CountBlocks() int {
	if m.filterEnabled && m.filter != nil {
		return countSetBits(m.filter.bytes)
	}
	return m.blocks
}

// CountMissingBlocks returns the number of blocks not yet had, within the
// filter's domain when enabled.
func (m *Map) CountMissingBlocks() int {
	start := time.Now()
	defer func() { xmetrics.ObservePopcount(time.Since(start)) }()

	if m.filterEnabled && m.filter != nil {
		have := andVectors(m.have.bytes, m.filter.bytes)
		return countSetBits(m.filter.bytes) - countSetBits(have)
	}
	return m.blocks - countSetBits(m.have.bytes)
}

// FilteredTotalLength returns the byte length covered by the filter, or 0
// if no filter has ever been allocated or it is empty. The last block
// contributes LastBlockLength, not BlockLength, when it falls in the
// filter.
func (m *Map) FilteredTotalLength() int64 {
	if m.filter == nil {
		return 0
	}
	k := countSetBits(m.filter.bytes)
	if k == 0 {
		return 0
	}
	if m.filter.get(m.blocks - 1) {
		return int64(k-1)*m.blockLength + m.lastBlockLength
	}
	return int64(k) * m.blockLength
}

// CompletedLength returns the byte length of blocks had so far, restricted
// to the filter's domain when enabled, accounting the last block as
// LastBlockLength.
func (m *Map) CompletedLength() int64 {
	start := time.Now()
	defer func() { xmetrics.ObservePopcount(time.Since(start)) }()

	haveBytes := m.have.bytes
	if m.filterEnabled && m.filter != nil {
		haveBytes = andVectors(haveBytes, m.filter.bytes)
	}
	completed := countSetBits(haveBytes)
	if completed == 0 {
		return 0
	}
	lastSet := (haveBytes[(m.blocks-1)/8] & bitMask(m.blocks-1)) != 0
	if lastSet {
		return int64(completed-1)*m.blockLength + m.lastBlockLength
	}
	return int64(completed) * m.blockLength
}

// IsAllSet reports whether every live block is had: intersected with the
// filter when enabled, else every block bit including the exact tail mask
// of the final byte.
func (m *Map) IsAllSet() bool {
	if m.filterEnabled && m.filter != nil {
		for i, fb := range m.filter.bytes {
			if m.have.bytes[i]&fb != fb {
				return false
			}
		}
		return true
	}
	n := len(m.have.bytes)
	if n == 0 {
		return m.blocks == 0
	}
	for i := 0; i < n-1; i++ {
		if m.have.bytes[i] != 0xff {
			return false
		}
	}
	want := tailMask(m.blocks)
	return m.have.bytes[n-1] == want
}

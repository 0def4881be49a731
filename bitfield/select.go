package bitfield

import (
	"github.com/xurujie/aria2/internal/xmetrics"
)

// peerCandidateSet derives one of the four pointwise candidate sets of
// §4.2 against a remote peer's bitfield, restricted by the filter when
// enabled. ok is false on a peer-bitfield length mismatch; the caller must
// not touch state or fall back to any other set in that case.
func (m *Map) peerCandidateSet(peerBits []byte, wantUnused bool) (set []byte, ok bool) {
	if len(peerBits) != m.byteLength() {
		return nil, false
	}
	out := andNotVectors(peerBits, m.have.bytes)
	if wantUnused {
		out = andVectors(out, notVector(m.inUse.bytes))
	}
	if m.filterEnabled && m.filter != nil {
		out = andVectors(out, m.filter.bytes)
	}
	return out, true
}

// globalCandidateSet derives missing_global / missing_unused_global (no
// peer bitfield, i.e. "anything I don't have").
func (m *Map) globalCandidateSet(wantUnused bool) []byte {
	out := notVector(m.have.bytes)
	if wantUnused {
		out = andVectors(out, notVector(m.inUse.bytes))
	}
	if m.filterEnabled && m.filter != nil {
		out = andVectors(out, m.filter.bytes)
	}
	return out
}

// HasMissing reports whether missing_from_peer(peerBits) is non-empty.
// False on length mismatch.
func (m *Map) HasMissing(peerBits []byte) bool {
	set, ok := m.peerCandidateSet(peerBits, false)
	if !ok {
		return false
	}
	for _, b := range set {
		if b != 0 {
			return true
		}
	}
	return false
}

// MissingIndex returns a uniformly-selected (by byte) index from
// missing_from_peer(peerBits), or -1 if none exists or the length
// mismatches.
func (m *Map) MissingIndex(peerBits []byte) int {
	set, ok := m.peerCandidateSet(peerBits, false)
	if !ok {
		return -1
	}
	return m.randomIndexFrom(set, "missing_index")
}

// MissingUnusedIndex is MissingIndex further restricted to blocks not
// currently in use.
func (m *Map) MissingUnusedIndex(peerBits []byte) int {
	set, ok := m.peerCandidateSet(peerBits, true)
	if !ok {
		return -1
	}
	return m.randomIndexFrom(set, "missing_unused_index")
}

// GlobalMissingIndex is MissingIndex with no peer bitfield: selects from
// every block not yet had.
func (m *Map) GlobalMissingIndex() int {
	set := m.globalCandidateSet(false)
	return m.randomIndexFrom(set, "missing_index")
}

// GlobalMissingUnusedIndex is MissingUnusedIndex with no peer bitfield.
func (m *Map) GlobalMissingUnusedIndex() int {
	set := m.globalCandidateSet(true)
	return m.randomIndexFrom(set, "missing_unused_index")
}

// randomIndexFrom implements §4.3.1: pick a uniformly-random starting
// byte, scan cyclically, and on the first byte with any candidate bit
// return the index of its highest-order set bit.
func (m *Map) randomIndexFrom(set []byte, strategy string) int {
	n := len(set)
	if n == 0 {
		xmetrics.ObserveSelection(strategy, false)
		return -1
	}
	mask := tailMask(m.blocks)
	start := m.rng.Intn(n)
	byteIdx := start
	for i := 0; i < n; i++ {
		b := set[byteIdx]
		if byteIdx == n-1 {
			b &= mask
		}
		if b != 0 {
			idx := byteIdx*8 + highestSetBitPos(b)
			xmetrics.ObserveSelection(strategy, true)
			return idx
		}
		byteIdx++
		if byteIdx == n {
			byteIdx = 0
		}
	}
	xmetrics.ObserveSelection(strategy, false)
	return -1
}

// highestSetBitPos returns the bit position (0 = MSB) of the first set bit
// in b, scanning from the most significant bit. Caller guarantees b != 0.
func highestSetBitPos(b byte) int {
	for pos := 0; pos < 8; pos++ {
		if b&(0x80>>uint(pos)) != 0 {
			return pos
		}
	}
	return 0 // unreachable given the caller's guarantee
}

// FirstMissingUnusedIndex scans bytes in order and, within each byte, bit
// positions from MSB to LSB (stopping before padding), returning the first
// candidate index of missing_unused_from_peer(peerBits). -1 on length
// mismatch or no candidate.
func (m *Map) FirstMissingUnusedIndex(peerBits []byte) int {
	set, ok := m.peerCandidateSet(peerBits, true)
	if !ok {
		return -1
	}
	idx := m.firstSetIndex(set)
	xmetrics.ObserveSelection("first_missing_unused_index", idx >= 0)
	return idx
}

// GlobalFirstMissingUnusedIndex is FirstMissingUnusedIndex with no peer
// bitfield.
func (m *Map) GlobalFirstMissingUnusedIndex() int {
	set := m.globalCandidateSet(true)
	idx := m.firstSetIndex(set)
	xmetrics.ObserveSelection("first_missing_unused_index", idx >= 0)
	return idx
}

func (m *Map) firstSetIndex(set []byte) int {
	for i, b := range set {
		for bs := 7; bs >= 0 && i*8+7-bs < m.blocks; bs-- {
			if b&(1<<uint(bs)) != 0 {
				return i*8 + 7 - bs
			}
		}
	}
	return -1
}

// AllMissingIndexes returns, in ascending order, every index where
// missing_from_peer(peerBits) is 1. nil on length mismatch.
func (m *Map) AllMissingIndexes(peerBits []byte) []int {
	set, ok := m.peerCandidateSet(peerBits, false)
	if !ok {
		return nil
	}
	return m.allSetIndexes(set)
}

// GlobalAllMissingIndexes is AllMissingIndexes with no peer bitfield.
func (m *Map) GlobalAllMissingIndexes() []int {
	return m.allSetIndexes(m.globalCandidateSet(false))
}

func (m *Map) allSetIndexes(set []byte) []int {
	var out []int
	for i, b := range set {
		for bs := 7; bs >= 0 && i*8+7-bs < m.blocks; bs-- {
			if b&(1<<uint(bs)) != 0 {
				out = append(out, i*8+7-bs)
			}
		}
	}
	return out
}

// SparseMissingUnusedIndex implements §4.3.3: bias toward the midpoint of
// the widest contiguous run of not-have/not-in-use blocks, returning 0 when
// that run starts at the beginning of the file. It does not consult the
// filter even when filtering is enabled — this is upstream aria2's
// documented behavior (spec §4.3.3/§9), preserved here deliberately. Use
// SparseMissingUnusedIndexFiltered for the filter-aware variant.
func (m *Map) SparseMissingUnusedIndex() int {
	idx := m.sparseIndex(false)
	xmetrics.ObserveSelection("sparse_missing_unused_index", idx >= 0)
	return idx
}

// SparseMissingUnusedIndexFiltered is SparseMissingUnusedIndex but also
// excludes blocks outside the filter when it is enabled. Added per spec
// §9's suggestion to expose a flag rather than silently diverge from
// upstream's filter-blind default.
func (m *Map) SparseMissingUnusedIndexFiltered() int {
	idx := m.sparseIndex(true)
	xmetrics.ObserveSelection("sparse_missing_unused_index_filtered", idx >= 0)
	return idx
}

func (m *Map) sparseIndex(respectFilter bool) int {
	inDomain := func(i int) bool {
		if respectFilter && m.filterEnabled && m.filter != nil {
			return m.filter.get(i)
		}
		return true
	}
	clear := func(i int) bool {
		return !m.have.get(i) && !m.inUse.get(i) && inDomain(i)
	}

	bestStart, bestEnd := -1, -1
	index := 0
	for index < m.blocks {
		start := index
		for start < m.blocks && !clear(start) {
			start++
		}
		if start >= m.blocks {
			break
		}
		end := start
		for end < m.blocks && clear(end) {
			end++
		}
		if bestStart == -1 || (end-start) > (bestEnd-bestStart) {
			bestStart, bestEnd = start, end
		}
		index = end
	}

	if bestStart == -1 {
		return -1
	}
	if bestStart == 0 {
		return 0
	}
	return bestStart + (bestEnd-bestStart)/2
}

package bitfield

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(seed int64) rand.Source { return rand.NewSource(seed) }

func TestConstruction(t *testing.T) {
	m := New(1024, 1024*10+100)
	assert.Equal(t, 11, m.BlockCount())
	assert.Equal(t, 2, m.byteLength())
	assert.EqualValues(t, 100, m.LastBlockLength())
	assert.Equal(t, 11, m.CountMissingBlocks())
	assert.EqualValues(t, 0, m.CompletedLength())
}

func TestLastBlockCompletion(t *testing.T) {
	m := New(1024, 1024*10+100)
	require.True(t, m.SetHave(10))
	assert.EqualValues(t, 100, m.CompletedLength())

	for i := 0; i < 10; i++ {
		require.True(t, m.SetHave(i))
	}
	assert.EqualValues(t, 10340, m.CompletedLength())
	assert.EqualValues(t, m.TotalLength(), m.CompletedLength())
	assert.True(t, m.IsAllSet())
}

func TestPeerIntersection(t *testing.T) {
	m := NewWithSource(1, 8, fixedSource(1))
	// B=8 fits exactly in one byte: blockLength doesn't matter for layout,
	// only block count does, so pick 8 single-byte blocks directly.
	require.True(t, m.SetHave(0))

	peer := []byte{0b10110000}
	idx := m.MissingIndex(peer)
	assert.Contains(t, []int{2, 3}, idx)

	all := m.AllMissingIndexes(peer)
	assert.Equal(t, []int{2, 3}, all)
}

func TestLengthMismatch(t *testing.T) {
	m := New(1, 8) // byteLength == 1
	before := m.Serialize()

	idx := m.MissingIndex([]byte{0, 0}) // wrong length (2 bytes)
	assert.Equal(t, -1, idx)
	assert.Equal(t, before, m.Serialize())
	assert.False(t, m.HasMissing([]byte{0, 0}))
	assert.Nil(t, m.AllMissingIndexes([]byte{0, 0}))
}

func TestFilter(t *testing.T) {
	m := New(100, 1000) // B = 10
	m.AddFilter(250, 300)
	m.EnableFilter()

	assert.Equal(t, 4, m.CountBlocks())
	assert.EqualValues(t, 400, m.FilteredTotalLength())

	require.True(t, m.SetHave(2))
	assert.EqualValues(t, 100, m.CompletedLength())
	assert.Equal(t, 3, m.CountMissingBlocks())
}

func TestSparseSelection(t *testing.T) {
	m := New(1, 10)
	for _, i := range []int{0, 1, 2} {
		require.True(t, m.SetHave(i))
	}
	require.True(t, m.SetInUse(7))

	assert.Equal(t, 5, m.SparseMissingUnusedIndex())
}

func TestSparseSelectionBeginningBias(t *testing.T) {
	m := New(1, 10)
	// Widest run starts at 0: [0,6), narrower run [8,10).
	require.True(t, m.SetHave(6))
	require.True(t, m.SetHave(7))

	assert.Equal(t, 0, m.SparseMissingUnusedIndex())
}

func TestSparseSelectionNoRun(t *testing.T) {
	m := New(1, 4)
	m.SetAllHave()
	assert.Equal(t, -1, m.SparseMissingUnusedIndex())
}

func TestFirstMissingUnusedIndex(t *testing.T) {
	m := NewWithSource(1, 8, fixedSource(1))
	peer := []byte{0b11110000}
	require.True(t, m.SetHave(0))
	require.True(t, m.SetInUse(1))

	assert.Equal(t, 2, m.FirstMissingUnusedIndex(peer))
}

func TestOutOfRangeIndicesAreNoOps(t *testing.T) {
	m := New(1, 4)
	assert.False(t, m.SetHave(-1))
	assert.False(t, m.SetHave(4))
	assert.False(t, m.IsHave(-1))
	assert.False(t, m.IsHave(4))
	assert.False(t, m.SetInUse(100))
	assert.False(t, m.IsInUse(100))
}

func TestClearAllHaveResetsMissingCount(t *testing.T) {
	m := New(1, 5)
	m.SetAllHave()
	require.Equal(t, 0, m.CountMissingBlocks())
	m.ClearAllHave()
	assert.Equal(t, m.CountBlocks(), m.CountMissingBlocks())
}

func TestHasMissingMatchesAllMissingIndexes(t *testing.T) {
	m := New(1, 8)
	peer := []byte{0b00000000}
	assert.False(t, m.HasMissing(peer))
	assert.Empty(t, m.AllMissingIndexes(peer))

	peer = []byte{0b00000001}
	assert.True(t, m.HasMissing(peer))
	assert.NotEmpty(t, m.AllMissingIndexes(peer))
}

func TestLoadHaveRoundTripClearsInUse(t *testing.T) {
	m := New(1, 16)
	require.True(t, m.SetHave(3))
	require.True(t, m.SetInUse(5))

	buf := m.Serialize()
	ok := m.LoadHave(buf)
	require.True(t, ok)
	assert.False(t, m.IsInUse(5))
	assert.Equal(t, buf, m.Serialize())
}

func TestMissingUnusedIndexRespectsAllThreeSets(t *testing.T) {
	m := NewWithSource(1, 16, fixedSource(42))
	m.AddFilter(4, 4) // blocks 4..7
	m.EnableFilter()
	require.True(t, m.SetHave(5))
	require.True(t, m.SetInUse(6))

	peer := make([]byte, m.byteLength())
	for i := 0; i < 16; i++ {
		byteIdx, mask := i/8, bitMask(i)
		peer[byteIdx] |= mask
	}

	for i := 0; i < 200; i++ {
		idx := m.MissingUnusedIndex(peer)
		if idx == -1 {
			continue
		}
		assert.True(t, peer[idx/8]&bitMask(idx) != 0)
		assert.False(t, m.IsHave(idx))
		assert.False(t, m.IsInUse(idx))
		assert.True(t, idx == 4 || idx == 7)
	}
}

func TestIsAllSetWithoutFilter(t *testing.T) {
	m := New(1, 13) // B=13, last byte has 5 live bits
	assert.False(t, m.IsAllSet())
	m.SetAllHave()
	assert.True(t, m.IsAllSet())
}

func TestCloneIsIndependent(t *testing.T) {
	m := New(1, 8)
	require.True(t, m.SetHave(1))
	c := m.Clone()
	require.True(t, c.SetHave(2))

	assert.False(t, m.IsHave(2))
	assert.True(t, c.IsHave(1))
}

func TestAllMissingIndexesAscending(t *testing.T) {
	m := New(1, 17)
	peer := make([]byte, m.byteLength())
	for i := range peer {
		peer[i] = 0xff
	}
	all := m.AllMissingIndexes(peer)
	assert.True(t, sort.IntsAreSorted(all))
	assert.Len(t, all, 17)
}

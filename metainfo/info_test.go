package metainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumPieces(t *testing.T) {
	i := Info{PieceLength: 1024, TotalLength: 1024*10 + 100}
	n, err := i.NumPieces()
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestNumPiecesRejectsBadGeometry(t *testing.T) {
	_, err := Info{PieceLength: 0, TotalLength: 10}.NumPieces()
	assert.Error(t, err)
	_, err = Info{PieceLength: 10, TotalLength: 0}.NumPieces()
	assert.Error(t, err)
}

func TestFilterRangeFor(t *testing.T) {
	e := Entry{Files: []FileEntry{
		{Path: "a.bin", Offset: 0, Length: 250},
		{Path: "b.bin", Offset: 250, Length: 300},
	}}
	off, length, err := e.FilterRangeFor("b.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 250, off)
	assert.EqualValues(t, 300, length)

	_, _, err = e.FilterRangeFor("missing.bin")
	assert.Error(t, err)

	assert.EqualValues(t, 550, e.TotalLength())
}

package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountSetBitsAcrossWordBoundary(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0x0f} // 4-byte word + 1-byte tail
	assert.Equal(t, 36, countSetBits(buf))
}

func TestTailMask(t *testing.T) {
	assert.Equal(t, byte(0xff), tailMask(8))
	assert.Equal(t, byte(0b11100000), tailMask(3))
	assert.Equal(t, byte(0), tailMask(0))
}

func TestBitVectorOutOfRange(t *testing.T) {
	v := newBitVector(4)
	assert.False(t, v.set(-1))
	assert.False(t, v.set(4))
	assert.False(t, v.get(4))
}

func TestBitVectorLoadFromRejectsMismatchedLength(t *testing.T) {
	v := newBitVector(16)
	ok := v.loadFrom([]byte{0xff})
	assert.False(t, ok)
}

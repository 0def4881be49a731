package bittorrent

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitfieldMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := BitfieldMessage{Bitfield: []byte{0b10110000, 0xff}}
	require.NoError(t, msg.Encode(&buf))

	var length uint32
	require.NoError(t, binary.Read(&buf, binary.BigEndian, &length))

	got, err := DecodeBitfieldMessage(&buf, length)
	require.NoError(t, err)
	assert.Equal(t, msg.Bitfield, got.Bitfield)
}

func TestCancelMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := CancelMessage{Index: 3, Begin: 16384, Length: 16384}
	require.NoError(t, msg.Encode(&buf))

	var length uint32
	require.NoError(t, binary.Read(&buf, binary.BigEndian, &length))

	got, err := DecodeCancelMessage(&buf, length)
	require.NoError(t, err)
	assert.Equal(t, msg, *got)
}

func TestCancelMessageRejectsBadLength(t *testing.T) {
	var buf bytes.Buffer
	_, err := DecodeCancelMessage(&buf, 12)
	assert.Error(t, err)
}

func TestCancelMessageCheckBounds(t *testing.T) {
	msg := CancelMessage{Index: 5, Begin: 0, Length: 100}
	assert.NoError(t, msg.CheckBounds(10, 100))
	assert.Error(t, msg.CheckBounds(5, 100))
	assert.Error(t, msg.CheckBounds(10, 50))
}

func TestHaveNoneMessageRequiresFastExtension(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HaveNoneMessage{}.Encode(&buf))

	var length uint32
	require.NoError(t, binary.Read(&buf, binary.BigEndian, &length))
	bufCopy := bytes.NewBuffer(buf.Bytes())

	_, err := DecodeHaveNoneMessage(&buf, length, false)
	assert.Error(t, err)

	_, err = DecodeHaveNoneMessage(bufCopy, length, true)
	assert.NoError(t, err)
}

func TestHandshakeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := Handshake{}
	copy(h.Infohash[:], bytes.Repeat([]byte{0xAB}, 20))
	copy(h.PeerID[:], bytes.Repeat([]byte{0xCD}, 20))
	require.NoError(t, h.Send(&buf))

	var got Handshake
	require.NoError(t, got.Recv(&buf))
	assert.Equal(t, h, got)
}

package bittorrent

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// cancelPayloadLength is the fixed payload size of a cancel message: id
// (1 byte) + index + begin + length (4 bytes each) = 13, matching
// original_source/CancelMessage.cc's documented layout.
const cancelPayloadLength = 13

// CancelMessage withdraws a previously sent block request. Grounded on
// original_source/CancelMessage.cc.
type CancelMessage struct {
	Index  uint32
	Begin  uint32
	Length uint32
}

// Encode writes the 4-byte length prefix (13), id, and the three fields.
func (c CancelMessage) Encode(w io.Writer) error {
	buf := make([]byte, 4+cancelPayloadLength)
	binary.BigEndian.PutUint32(buf, cancelPayloadLength)
	buf[4] = idCancel
	binary.BigEndian.PutUint32(buf[5:], c.Index)
	binary.BigEndian.PutUint32(buf[9:], c.Begin)
	binary.BigEndian.PutUint32(buf[13:], c.Length)
	_, err := w.Write(buf)
	return errors.Wrap(err, "bittorrent: write cancel message")
}

// DecodeCancelMessage reads a cancel message whose length header (length)
// has already been consumed by the caller.
func DecodeCancelMessage(r io.Reader, length uint32) (*CancelMessage, error) {
	if length != cancelPayloadLength {
		return nil, errors.Errorf("bittorrent: invalid payload size for cancel, size = %d, want %d", length, cancelPayloadLength)
	}
	buf := make([]byte, cancelPayloadLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "bittorrent: read cancel payload")
	}
	if buf[0] != idCancel {
		return nil, errors.Errorf("bittorrent: invalid ID=%d for cancel, expected %d", buf[0], idCancel)
	}
	return &CancelMessage{
		Index:  binary.BigEndian.Uint32(buf[1:5]),
		Begin:  binary.BigEndian.Uint32(buf[5:9]),
		Length: binary.BigEndian.Uint32(buf[9:13]),
	}, nil
}

// CheckBounds validates the cancel against the torrent's geometry, mirroring
// CancelMessage::check() in the original: index against piece count,
// begin/length against piece length.
func (c CancelMessage) CheckBounds(pieceCount int, pieceLength uint32) error {
	if c.Index >= uint32(pieceCount) {
		return errors.Errorf("bittorrent: cancel index %d out of range [0,%d)", c.Index, pieceCount)
	}
	if c.Begin >= pieceLength {
		return errors.Errorf("bittorrent: cancel begin %d out of range [0,%d)", c.Begin, pieceLength)
	}
	if c.Begin+c.Length > pieceLength {
		return errors.Errorf("bittorrent: cancel range [%d,%d) exceeds piece length %d", c.Begin, c.Begin+c.Length, pieceLength)
	}
	return nil
}

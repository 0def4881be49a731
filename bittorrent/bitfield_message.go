// Package bittorrent implements the peer-wire message framing that the
// Availability Map treats as an external collaborator (spec §1): it
// encodes and decodes the handful of messages that carry bitfield-shaped
// data, but performs no I/O of its own beyond reading/writing an
// io.ReadWriter the caller supplies.
package bittorrent

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Message IDs, per the BitTorrent peer-wire protocol and aria2's
// PeerMessageUtil constants (original_source/BitfieldMessage.h, etc).
const (
	idHaveNone = 15
	idCancel   = 8
	idBitfield = 5
)

// BitfieldMessage carries a peer's complete have-set in the bit-exact wire
// format described by spec §6: MSB-first bit order within each byte,
// padding bits zero. Grounded on original_source/BitfieldMessage.h.
type BitfieldMessage struct {
	Bitfield []byte
}

// Encode writes the length-prefixed wire message: 4-byte big-endian length
// (1 + len(payload)), 1-byte id, then the raw bitfield bytes.
func (m BitfieldMessage) Encode(w io.Writer) error {
	buf := make([]byte, 5+len(m.Bitfield))
	binary.BigEndian.PutUint32(buf, uint32(1+len(m.Bitfield)))
	buf[4] = idBitfield
	copy(buf[5:], m.Bitfield)
	_, err := w.Write(buf)
	return errors.Wrap(err, "bittorrent: write bitfield message")
}

// DecodeBitfieldMessage reads a length-prefixed bitfield message whose
// length header has already been consumed by the caller (length is the
// payload length including the 1-byte id, as read off the wire).
func DecodeBitfieldMessage(r io.Reader, length uint32) (*BitfieldMessage, error) {
	if length < 1 {
		return nil, errors.Errorf("bittorrent: invalid payload size for bitfield, size = %d", length)
	}
	header := make([]byte, 1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "bittorrent: read bitfield id")
	}
	if header[0] != idBitfield {
		return nil, errors.Errorf("bittorrent: invalid ID=%d for bitfield, expected %d", header[0], idBitfield)
	}
	payload := make([]byte, length-1)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "bittorrent: read bitfield payload")
	}
	return &BitfieldMessage{Bitfield: payload}, nil
}

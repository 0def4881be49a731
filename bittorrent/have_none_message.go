package bittorrent

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// HaveNoneMessage is the BEP-6 fast-extension "I have nothing" message:
// id 15, zero-length payload. Grounded on original_source/HaveNoneMessage.cc.
type HaveNoneMessage struct{}

// Encode writes the 4-byte length prefix (1) and the id byte.
func (HaveNoneMessage) Encode(w io.Writer) error {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf, 1)
	buf[4] = idHaveNone
	_, err := w.Write(buf)
	return errors.Wrap(err, "bittorrent: write have-none message")
}

// DecodeHaveNoneMessage reads a have-none message. fastExtensionEnabled
// mirrors the original's receivedAction: a have-none arriving while fast
// extension is disabled is a protocol violation on the sender's part, so
// this returns an error instead of applying any state change.
func DecodeHaveNoneMessage(r io.Reader, length uint32, fastExtensionEnabled bool) (*HaveNoneMessage, error) {
	if length != 1 {
		return nil, errors.Errorf("bittorrent: invalid payload size for have-none, size = %d, want 1", length)
	}
	header := make([]byte, 1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "bittorrent: read have-none id")
	}
	if header[0] != idHaveNone {
		return nil, errors.Errorf("bittorrent: invalid ID=%d for have-none, expected %d", header[0], idHaveNone)
	}
	if !fastExtensionEnabled {
		return nil, errors.New("bittorrent: have-none received while fast extension is disabled")
	}
	return &HaveNoneMessage{}, nil
}

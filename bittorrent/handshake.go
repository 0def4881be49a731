package bittorrent

import (
	"io"

	"github.com/pkg/errors"
)

const protocolID = "BitTorrent protocol"

// Handshake is the fixed-length peer-wire handshake a transport exchanges
// before any bitfield or block traffic. Send/Recv operate on io.Reader/
// io.Writer rather than net.Conn directly, so the type is testable without
// a real socket.
type Handshake struct {
	Infohash [20]byte
	PeerID   [20]byte
}

// Send writes the 68-byte handshake: pstrlen, pstr, 8 reserved bytes,
// infohash, peer id.
func (h Handshake) Send(w io.Writer) error {
	buf := make([]byte, 49+len(protocolID))
	buf[0] = byte(len(protocolID))
	copy(buf[1:], protocolID)
	// buf[1+len(protocolID) : 1+len(protocolID)+8] stays zero: no extensions.
	off := 1 + len(protocolID) + 8
	copy(buf[off:], h.Infohash[:])
	copy(buf[off+20:], h.PeerID[:])
	_, err := w.Write(buf)
	return errors.Wrap(err, "bittorrent: write handshake")
}

// Recv reads and parses a handshake from r, populating h in place.
func (h *Handshake) Recv(r io.Reader) error {
	lenBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return errors.Wrap(err, "bittorrent: read handshake pstrlen")
	}
	rest := make([]byte, int(lenBuf[0])+48)
	if _, err := io.ReadFull(r, rest); err != nil {
		return errors.Wrap(err, "bittorrent: read handshake body")
	}
	off := int(lenBuf[0]) + 8
	copy(h.Infohash[:], rest[off:off+20])
	copy(h.PeerID[:], rest[off+20:off+40])
	return nil
}

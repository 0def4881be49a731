// Package metainfo supplies the static block geometry and file-layout data
// that the Availability Map's constructor and AddFilter consume. It
// performs no I/O: parsing a .torrent or metalink file into this shape is
// left to a caller (out of scope per spec §1).
package metainfo

import "github.com/pkg/errors"

// Info mirrors the teacher's t.MetaInfo().Info access pattern
// (swarm/torrent.go: t.MetaInfo().Info.NumPieces()).
type Info struct {
	PieceLength int64
	TotalLength int64
}

// NumPieces reproduces the same ceiling-division bitfield.New uses, so a
// caller can cross-check Info against a constructed bitfield.Map's
// BlockCount without depending on the bitfield package.
func (i Info) NumPieces() (int, error) {
	if i.PieceLength <= 0 {
		return 0, errors.New("metainfo: piece length must be > 0")
	}
	if i.TotalLength <= 0 {
		return 0, errors.New("metainfo: total length must be > 0")
	}
	return int((i.TotalLength + i.PieceLength - 1) / i.PieceLength), nil
}

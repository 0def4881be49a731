// Package swarm schedules block requests for a single torrent, deciding
// who to ask for what by delegating to the Availability Map
// (github.com/xurujie/aria2/bitfield). It keeps the teacher's Torrent
// shape (a mutex-guarded map of pending blocks, per-peer bookkeeping) but drives it from bitfield.Map instead
// of a bespoke byte-per-byte progress array, and performs no network I/O
// of its own: PeerSession is a narrow contract a real transport
// implements.
package swarm

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/xurujie/aria2/bitfield"
	"github.com/xurujie/aria2/internal/xlog"
	"github.com/xurujie/aria2/metainfo"
)

// BlockSize is the standard BitTorrent request size (16KiB).
const BlockSize = 1024 * 16

// PeerSession is the contract the scheduler needs from a connected peer.
// A real transport (out of scope for this module, per spec §1) implements
// it over a socket; tests implement it over an in-memory stub.
type PeerSession interface {
	ID() string
	Bitfield() []byte
	Send(msg []byte) error
	Close() error
}

// Torrent schedules block requests for one download. It is not safe for
// concurrent use except through the methods below, which serialize access
// to the pending map the same way the teacher's Torrent did.
type Torrent struct {
	name string
	info metainfo.Info

	avail *bitfield.Map

	mtx     sync.RWMutex
	pending map[int]PeerSession // block index -> peer currently fetching it
	peers   map[string]PeerSession
}

// New builds a Torrent scheduler over a fresh Availability Map sized from
// info.
func New(name string, info metainfo.Info) (*Torrent, error) {
	if _, err := info.NumPieces(); err != nil {
		return nil, errors.Wrap(err, "swarm: build torrent")
	}
	return &Torrent{
		name:    name,
		info:    info,
		avail:   bitfield.New(info.PieceLength, info.TotalLength),
		pending: make(map[int]PeerSession),
		peers:   make(map[string]PeerSession),
	}, nil
}

// Name returns the torrent's display name, mirroring the teacher's
// Torrent.Name (t.MetaInfo().TorrentName()).
func (t *Torrent) Name() string { return t.name }

// Bitfield exposes the Availability Map, replacing the teacher's
// t.st.Bitfield().
func (t *Torrent) Bitfield() *bitfield.Map { return t.avail }

// Done reports whether the download is complete, replacing the teacher's
// Done (used to implement a choking/scheduling Algorithm interface).
func (t *Torrent) Done() bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.avail.IsAllSet()
}

// OnPeerConnected registers a peer and logs the connection the way the
// teacher's onNewPeer did, sans the actual bitfield wire send (left to the
// transport layer that owns the PeerSession).
func (t *Torrent) OnPeerConnected(p PeerSession) {
	t.mtx.Lock()
	t.peers[p.ID()] = p
	t.mtx.Unlock()
	xlog.Infof("new peer (%s) for %s", p.ID(), t.name)
}

// OnPeerDisconnected releases any blocks the peer had reserved, so they
// become selectable again.
func (t *Torrent) OnPeerDisconnected(p PeerSession) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	delete(t.peers, p.ID())
	for idx, owner := range t.pending {
		if owner == p {
			delete(t.pending, idx)
			t.avail.UnsetInUse(idx)
		}
	}
}

// NextRequest picks the next block to request from p, using
// MissingUnusedIndex (uniform random among what p has that we don't and
// nobody else is fetching), marks it in-use and pending, and returns it.
// ok is false when there's nothing left to ask this peer for.
func (t *Torrent) NextRequest(p PeerSession) (index int, ok bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	idx := t.avail.MissingUnusedIndex(p.Bitfield())
	if idx < 0 {
		return 0, false
	}
	t.avail.SetInUse(idx)
	t.pending[idx] = p
	return idx, true
}

// NextSparseRequest is NextRequest's streaming-friendly sibling: it
// ignores the peer's bitfield and asks for the midpoint of the widest
// still-missing run, for callers that want to diversify progress across
// the file rather than satisfy one peer's availability (spec §4.3.3).
func (t *Torrent) NextSparseRequest() (index int, ok bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	idx := t.avail.SparseMissingUnusedIndex()
	if idx < 0 {
		return 0, false
	}
	t.avail.SetInUse(idx)
	t.pending[idx] = nil
	return idx, true
}

// OnBlockStored marks a block as had and clears its reservation, replacing
// the teacher's storePiece/cancelPiece pair. Verification (hashing the
// assembled block) is the caller's responsibility, same as spec §1's "hash
// verification" being out of this core's scope.
func (t *Torrent) OnBlockStored(index int) {
	t.mtx.Lock()
	delete(t.pending, index)
	t.avail.SetHave(index)
	t.avail.UnsetInUse(index)
	t.mtx.Unlock()

	xlog.Infof("stored block %d of %d for %s", index, t.avail.BlockCount(), t.name)
}

// CancelRequest releases a block's reservation without marking it had,
// replacing the teacher's cachedPiece.cancel for the whole-block case this
// scheduler operates at.
func (t *Torrent) CancelRequest(index int) {
	t.mtx.Lock()
	delete(t.pending, index)
	t.avail.UnsetInUse(index)
	t.mtx.Unlock()
}

// IsPending reports whether a block currently has an outstanding request,
// replacing the teacher's pieceRequested.
func (t *Torrent) IsPending(index int) bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	_, ok := t.pending[index]
	return ok
}

// Status summarizes the scheduler's view of the torrent for display,
// replacing the teacher's GetStatus/TorrentStatus pair.
type Status struct {
	Name            string
	BlockCount      int
	CompletedLength int64
	TotalLength     int64
	PendingBlocks   int
	PeerCount       int
}

func (t *Torrent) Status() Status {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return Status{
		Name:            t.name,
		BlockCount:      t.avail.BlockCount(),
		CompletedLength: t.avail.CompletedLength(),
		TotalLength:     t.avail.TotalLength(),
		PendingBlocks:   len(t.pending),
		PeerCount:       len(t.peers),
	}
}

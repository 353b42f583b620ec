package stream

import (
	"sort"
	"sync"

	"github.com/Neumenon/mathtex/mathtex"
)

// Sessions tracks per-SID state for one connection.
type Sessions struct {
	mu    sync.RWMutex
	bySID map[uint64]*Session
}

// Session holds state for a single stream ID.
type Session struct {
	SID       uint64
	LastSeq   uint64
	Started   bool        // a frame has been accepted
	Env       mathtex.Env // nil until an env frame arrives
	Converted int
	Failed    int
	Final     bool

	// pending maps request seq to its source hash on the sending side.
	pending map[uint64][32]byte
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{bySID: make(map[uint64]*Session)}
}

// Get returns the state for a SID, creating it if needed.
func (s *Sessions) Get(sid uint64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.bySID[sid]
	if !ok {
		state = &Session{SID: sid}
		s.bySID[sid] = state
	}
	return state
}

// Lookup returns the state for a SID without creating it.
func (s *Sessions) Lookup(sid uint64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySID[sid]
}

// Delete removes state for a SID.
func (s *Sessions) Delete(sid uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySID, sid)
}

// SIDs returns all tracked SIDs in ascending order.
func (s *Sessions) SIDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sids := make([]uint64, 0, len(s.bySID))
	for sid := range s.bySID {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })
	return sids
}

// Accept checks frame ordering and records its seq. The first frame on a
// SID may carry any seq; later ones must follow it by exactly one. A
// duplicate reports ok=false with no error so the caller can drop it.
func (s *Sessions) Accept(frame *Frame) (state *Session, ok bool, err error) {
	state = s.Get(frame.SID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Final {
		return state, false, &ParseError{Reason: "frame after final", Offset: -1}
	}
	if state.Started {
		if frame.Seq <= state.LastSeq {
			return state, false, nil
		}
		if frame.Seq != state.LastSeq+1 {
			err := &SequenceError{SID: frame.SID, Expected: state.LastSeq + 1, Got: frame.Seq}
			state.LastSeq = frame.Seq
			state.Final = frame.IsFinal()
			return state, true, err
		}
	}
	state.Started = true
	state.LastSeq = frame.Seq
	if frame.IsFinal() {
		state.Final = true
	}
	return state, true, nil
}

// Expect records that a request with hash src was sent as sid/seq.
func (s *Sessions) Expect(sid, seq uint64, src [32]byte) {
	state := s.Get(sid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if state.pending == nil {
		state.pending = make(map[uint64][32]byte)
	}
	state.pending[seq] = src
}

// Resolve matches a reply against its recorded request. Replies without a
// source hash are accepted as-is.
func (s *Sessions) Resolve(frame *Frame) error {
	state := s.Lookup(frame.SID)
	if state == nil {
		return &ParseError{Reason: "reply for unknown sid", Offset: -1}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := state.pending[frame.Seq]
	if !ok {
		return &ParseError{Reason: "unsolicited reply", Offset: -1}
	}
	delete(state.pending, frame.Seq)
	if frame.Source != nil && *frame.Source != want {
		return &SourceMismatchError{SID: frame.SID, Seq: frame.Seq, Expected: want, Got: *frame.Source}
	}
	return nil
}

// Pending returns request seqs on sid still waiting for a reply.
func (s *Sessions) Pending(sid uint64) []uint64 {
	state := s.Lookup(sid)
	if state == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	seqs := make([]uint64, 0, len(state.pending))
	for seq := range state.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}

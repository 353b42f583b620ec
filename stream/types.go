// Package stream implements the line-framed envelope used to push many
// conversions through a single pipe.
//
// Each frame carries:
//   - Message boundaries and resync
//   - Multiplexing via stream IDs (sid)
//   - Ordering via sequence numbers (seq)
//   - Integrity via optional CRC-32
//   - Request correlation via an optional source hash (src)
//
// Headers are not part of the payload. An ast payload is dump text handed to
// mathtex.Read unchanged; a tex payload is the emitted LaTeX.
package stream

import (
	"fmt"
)

// Version is the frame protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindAST  FrameKind = 0 // Expression dump to convert
	KindTeX  FrameKind = 1 // Converted LaTeX
	KindEnv  FrameKind = 2 // Comma-separated environment flags for the SID
	KindAck  FrameKind = 4 // Acknowledgement
	KindErr  FrameKind = 5 // Conversion or protocol error
	KindPing FrameKind = 6 // Keepalive
	KindPong FrameKind = 7 // Ping response
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindAST:
		return "ast"
	case KindTeX:
		return "tex"
	case KindEnv:
		return "env"
	case KindAck:
		return "ack"
	case KindErr:
		return "err"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind string or numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "ast", "0":
		return KindAST, true
	case "tex", "1":
		return KindTeX, true
	case "env", "2":
		return KindEnv, true
	case "ack", "4":
		return KindAck, true
	case "err", "5":
		return KindErr, true
	case "ping", "6":
		return KindPing, true
	case "pong", "7":
		return KindPong, true
	default:
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n <= 255 {
			return FrameKind(n), true
		}
		return 0, false
	}
}

// Flags for frames.
type Flags uint8

const (
	FlagHasCRC    Flags = 0x01
	FlagHasSource Flags = 0x02
	FlagFinal     Flags = 0x04 // End-of-stream for this SID
)

// Frame is a single envelope.
type Frame struct {
	Version uint8
	SID     uint64
	Seq     uint64 // per-SID, monotonic
	Kind    FrameKind
	Payload []byte

	CRC    *uint32   // CRC-32 of payload
	Source *[32]byte // SHA-256 of the ast payload a reply answers
	Flags  Flags
	Final  bool
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasSource returns true if the source hash is present.
func (f *Frame) HasSource() bool {
	return f.Source != nil
}

// IsFinal returns true if this is the final frame for this SID.
func (f *Frame) IsFinal() bool {
	return f.Final || f.Flags&FlagFinal != 0
}

// MaxPayloadSize is the default maximum payload size (16 MiB).
const MaxPayloadSize = 16 * 1024 * 1024

// ParseError reports a malformed header.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("stream: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// SourceMismatchError is returned when a reply's source hash does not match
// the request it claims to answer.
type SourceMismatchError struct {
	SID, Seq uint64
	Expected [32]byte
	Got      [32]byte
}

func (e *SourceMismatchError) Error() string {
	return fmt.Sprintf("stream: sid %d seq %d: source hash mismatch: expected %s, got %s",
		e.SID, e.Seq, HashToHex(e.Expected)[:12], HashToHex(e.Got)[:12])
}

// SequenceError is returned when a frame arrives out of order.
type SequenceError struct {
	SID      uint64
	Expected uint64
	Got      uint64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("stream: sid %d: expected seq %d, got %d", e.SID, e.Expected, e.Got)
}

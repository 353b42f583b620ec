package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Writer writes frames to an io.Writer. It is safe for concurrent use; each
// frame is written whole.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	withCRC bool
}

// NewWriter creates a frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterWithCRC creates a writer that computes CRC for each frame.
func NewWriterWithCRC(w io.Writer) *Writer {
	return &Writer{w: w, withCRC: true}
}

// WriteFrame writes a single frame.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [src=sha256:X] [final=true]}\n
//	<payload bytes>\n
func (w *Writer) WriteFrame(f *Frame) error {
	var buf strings.Builder
	buf.WriteString("@frame{v=")
	if f.Version == 0 {
		buf.WriteString(strconv.Itoa(int(Version)))
	} else {
		buf.WriteString(strconv.Itoa(int(f.Version)))
	}

	buf.WriteString(" sid=")
	buf.WriteString(strconv.FormatUint(f.SID, 10))
	buf.WriteString(" seq=")
	buf.WriteString(strconv.FormatUint(f.Seq, 10))
	buf.WriteString(" kind=")
	buf.WriteString(f.Kind.String())
	buf.WriteString(" len=")
	buf.WriteString(strconv.Itoa(len(f.Payload)))

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := Checksum(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&buf, " crc=%08x", *crc)
	}
	if f.Source != nil {
		buf.WriteString(" src=sha256:")
		buf.WriteString(HashToHex(*f.Source))
	}
	if f.IsFinal() {
		buf.WriteString(" final=true")
	}
	buf.WriteString("}\n")
	buf.Write(f.Payload)
	buf.WriteByte('\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.w, buf.String()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteAST writes a conversion request.
func (w *Writer) WriteAST(sid, seq uint64, dump []byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindAST, Payload: dump})
}

// WriteEnv sets the environment flags for later ast frames on sid.
func (w *Writer) WriteEnv(sid, seq uint64, flags string) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindEnv, Payload: []byte(flags)})
}

// WriteTeX writes a conversion result answering the ast payload src.
func (w *Writer) WriteTeX(sid, seq uint64, tex []byte, src *[32]byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindTeX, Payload: tex, Source: src})
}

// WriteErr writes an error frame.
func (w *Writer) WriteErr(sid, seq uint64, msg []byte, src *[32]byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindErr, Payload: msg, Source: src})
}

// WriteAck writes an acknowledgement frame.
func (w *Writer) WriteAck(sid, seq uint64, final bool) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindAck, Final: final})
}

// WritePing writes a ping frame.
func (w *Writer) WritePing(sid, seq uint64) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindPing})
}

// WritePong writes a pong frame.
func (w *Writer) WritePong(sid, seq uint64) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: KindPong})
}

// WriteFinal writes a final frame for a stream.
func (w *Writer) WriteFinal(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{SID: sid, Seq: seq, Kind: kind, Payload: payload, Final: true})
}

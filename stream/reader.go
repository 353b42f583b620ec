package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader reads frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	offset     int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 16 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithoutCRCVerification accepts frames whose CRC does not match.
func WithoutCRCVerification() ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = false
	}
}

// NewReader creates a frame reader. CRCs are verified when present.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	headerLine, err := r.readHeaderLine()
	if err != nil {
		return nil, err
	}
	start := r.offset
	r.offset += len(headerLine)

	frame, payloadLen, err := parseHeader(headerLine, start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", payloadLen, r.maxPayload), Offset: start}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r.r, frame.Payload); err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		r.offset += payloadLen
	}

	// Trailing newline is optional at EOF.
	if b, err := r.r.ReadByte(); err == nil {
		if b != '\n' {
			r.r.UnreadByte()
		} else {
			r.offset++
		}
	}

	if r.verifyCRC && frame.CRC != nil {
		computed := Checksum(frame.Payload)
		if computed != *frame.CRC {
			return nil, &CRCMismatchError{Expected: *frame.CRC, Got: computed}
		}
	}

	return frame, nil
}

// readHeaderLine skips blank lines between frames.
func (r *Reader) readHeaderLine() (string, error) {
	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
				return "", io.EOF
			}
			if !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("read header: %w", err)
			}
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
		r.offset += len(line)
		if err != nil {
			return "", io.EOF
		}
	}
}

// parseHeader parses the @frame{...} header line.
func parseHeader(line string, offset int) (*Frame, int, error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	endIdx := strings.LastIndex(line, "}")
	if endIdx < 0 {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset + len(line)}
	}
	content := line[len("@frame{"):endIdx]

	frame := &Frame{Version: Version}
	payloadLen := -1
	seenKind := false

	for _, pair := range tokenize(content) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid version", Offset: offset}
			}
			if uint8(v) != Version {
				return nil, 0, &ParseError{Reason: "unsupported version " + val, Offset: offset}
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid sid", Offset: offset}
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind
			seenKind = true

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: offset}
			}
			payloadLen = int(l)

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			frame.CRC = &crc
			frame.Flags |= FlagHasCRC

		case "src":
			src, ok := HexToHash(strings.TrimPrefix(val, "sha256:"))
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid src: " + val, Offset: offset}
			}
			frame.Source = &src
			frame.Flags |= FlagHasSource

		case "final":
			frame.Final = val == "true" || val == "1"
			if frame.Final {
				frame.Flags |= FlagFinal
			}
		}
	}

	if !seenKind {
		return nil, 0, &ParseError{Reason: "missing kind", Offset: offset}
	}
	if payloadLen < 0 {
		return nil, 0, &ParseError{Reason: "missing len", Offset: offset}
	}
	return frame, payloadLen, nil
}

// tokenize splits key=value pairs separated by spaces or commas.
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			current.WriteByte(c)
		case (c == ' ' || c == ',' || c == '\t') && !inQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseCRC parses "crc32:XXXXXXXX" or "XXXXXXXX".
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	if len(val) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

package stream

import (
	"fmt"
	"io"
)

// Reply is a tex or err frame matched to its request.
type Reply struct {
	SID   uint64
	Seq   uint64
	TeX   string
	Err   string
	Final bool
	Frame *Frame
}

// OK reports whether the request converted.
func (r *Reply) OK() bool { return r.Frame.Kind == KindTeX }

// Client sends conversion requests on one SID and matches the replies.
type Client struct {
	SID      uint64
	out      *Writer
	in       *Reader
	sessions *Sessions
	seq      uint64
}

// NewClient writes requests to w and reads replies from r.
func NewClient(sid uint64, w io.Writer, r io.Reader) *Client {
	return &Client{
		SID:      sid,
		out:      NewWriterWithCRC(w),
		in:       NewReader(r),
		sessions: NewSessions(),
	}
}

func (c *Client) next() uint64 {
	c.seq++
	return c.seq
}

// SetEnv sends an env frame. Its ack is returned by Receive.
func (c *Client) SetEnv(flags string) (uint64, error) {
	seq := c.next()
	c.sessions.Expect(c.SID, seq, SourceHash([]byte(flags)))
	return seq, c.out.WriteEnv(c.SID, seq, flags)
}

// Send writes one dump and returns its seq.
func (c *Client) Send(dump string) (uint64, error) {
	seq := c.next()
	payload := []byte(dump)
	c.sessions.Expect(c.SID, seq, SourceHash(payload))
	return seq, c.out.WriteAST(c.SID, seq, payload)
}

// Close sends a final ping; the peer answers with a pong and a final ack.
func (c *Client) Close() error {
	seq := c.next()
	return c.out.WriteFrame(&Frame{SID: c.SID, Seq: seq, Kind: KindPing, Final: true})
}

// Receive returns the next reply. Pongs and acks are returned too with
// neither TeX nor Err set. io.EOF means the peer is done.
func (c *Client) Receive() (*Reply, error) {
	frame, err := c.in.Next()
	if err != nil {
		return nil, err
	}
	reply := &Reply{SID: frame.SID, Seq: frame.Seq, Final: frame.IsFinal(), Frame: frame}
	switch frame.Kind {
	case KindTeX:
		reply.TeX = string(frame.Payload)
	case KindErr:
		reply.Err = string(frame.Payload)
	case KindAck:
		if frame.IsFinal() {
			return reply, nil
		}
	case KindPong:
		return reply, nil
	default:
		return nil, fmt.Errorf("stream: unexpected %s reply", frame.Kind)
	}
	if frame.SID != c.SID {
		return nil, fmt.Errorf("stream: reply for sid %d on client %d", frame.SID, c.SID)
	}
	if err := c.sessions.Resolve(frame); err != nil {
		return nil, err
	}
	return reply, nil
}

// Outstanding returns the seqs still waiting for a reply.
func (c *Client) Outstanding() []uint64 {
	return c.sessions.Pending(c.SID)
}

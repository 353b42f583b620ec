package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/mathtex/logging"
	"github.com/Neumenon/mathtex/mathtex"
)

// Converter answers ast frames with tex or err frames.
type Converter struct {
	Renderer *mathtex.Renderer
	Env      mathtex.Env // used until a SID sends its own env frame
	Log      logging.Printer
	WithCRC  bool
}

// Stats summarizes one Serve call.
type Stats struct {
	Frames    int
	Converted int
	Failed    int
	Dropped   int
}

// Serve reads frames from r until EOF or ctx is done and writes replies to
// w. Replies reuse the request's sid and seq. Header errors end the call;
// everything else is reported in an err frame and the stream continues.
func (c *Converter) Serve(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	renderer := c.Renderer
	if renderer == nil {
		renderer = mathtex.NewRenderer(nil)
	}
	log := c.Log
	if log == nil {
		log = logging.Discard
	}
	out := NewWriter(w)
	if c.WithCRC {
		out = NewWriterWithCRC(w)
	}
	in := NewReader(r)
	sessions := NewSessions()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := in.Next()
		if err == io.EOF {
			return stats, nil
		}
		var crcErr *CRCMismatchError
		if errors.As(err, &crcErr) {
			stats.Frames++
			stats.Failed++
			log.Printf("stream: %v", err)
			if werr := out.WriteErr(0, 0, []byte(err.Error()), nil); werr != nil {
				return stats, werr
			}
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Frames++

		state, ok, err := sessions.Accept(frame)
		if err != nil {
			log.Printf("stream: %v", err)
			if werr := out.WriteErr(frame.SID, frame.Seq, []byte(err.Error()), nil); werr != nil {
				return stats, werr
			}
		}
		if !ok {
			stats.Dropped++
			continue
		}

		if err := c.handle(renderer, out, frame, state, &stats); err != nil {
			return stats, err
		}

		if frame.IsFinal() {
			log.Printf("stream: sid %d closed: %d converted, %d failed", frame.SID, state.Converted, state.Failed)
			if err := out.WriteAck(frame.SID, frame.Seq, true); err != nil {
				return stats, err
			}
		}
	}
}

// handle dispatches one accepted frame. Only write failures are returned.
func (c *Converter) handle(renderer *mathtex.Renderer, out *Writer, frame *Frame, state *Session, stats *Stats) error {
	switch frame.Kind {
	case KindAST:
		src := SourceHash(frame.Payload)
		env := state.Env
		if env == nil {
			env = c.Env
		}
		tex, err := convertPayload(renderer, frame.Payload, env)
		if err != nil {
			state.Failed++
			stats.Failed++
			return out.WriteErr(frame.SID, frame.Seq, []byte(err.Error()), &src)
		}
		state.Converted++
		stats.Converted++
		return out.WriteTeX(frame.SID, frame.Seq, []byte(tex), &src)

	case KindEnv:
		state.Env = mathtex.ParseEnv(string(frame.Payload))
		if frame.IsFinal() {
			return nil
		}
		return out.WriteAck(frame.SID, frame.Seq, false)

	case KindPing:
		return out.WritePong(frame.SID, frame.Seq)

	case KindAck:
		return nil

	default:
		stats.Failed++
		msg := fmt.Sprintf("unexpected %s frame", frame.Kind)
		return out.WriteErr(frame.SID, frame.Seq, []byte(msg), nil)
	}
}

// convertPayload reads and renders a dump, labelling the failing stage the
// same way the HTTP service does.
func convertPayload(renderer *mathtex.Renderer, payload []byte, env mathtex.Env) (string, error) {
	exps, err := mathtex.Read(string(payload))
	if err != nil {
		return "", fmt.Errorf("read_ast: %w", err)
	}
	tex, err := renderer.Render(exps, env)
	if err != nil {
		return "", fmt.Errorf("write_tex: %w", err)
	}
	return tex, nil
}

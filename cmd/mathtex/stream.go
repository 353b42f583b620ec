package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Neumenon/mathtex/stream"
)

// cmdBatch: ast frames on input -> tex/err frames on stdout
func cmdBatch(opts options) {
	cfg, renderer, logger := opts.setup()
	defer logger.Close()

	in := opts.input()
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv := &stream.Converter{Renderer: renderer, Env: cfg.Env(), Log: logger, WithCRC: true}
	stats, err := conv.Serve(ctx, in, os.Stdout)
	if err != nil {
		fatal("batch: %v", err)
	}
	logger.Printf("batch: %d frames, %d converted, %d failed, %d dropped",
		stats.Frames, stats.Converted, stats.Failed, stats.Dropped)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func cmdStream(opts options) {
	if len(opts.args) == 0 {
		fatal("stream: missing subcommand (decode, encode)")
	}
	sub := opts.args[0]
	opts.args = opts.args[1:]

	switch sub {
	case "decode":
		in := opts.input()
		defer in.Close()
		cmdStreamDecode(in)
	case "encode":
		cmdStreamEncode(opts.args)
	default:
		fatal("stream: unknown subcommand: %s", sub)
	}
}

// cmdStreamDecode: print frames one by one
func cmdStreamDecode(r io.Reader) {
	reader := stream.NewReader(r)
	frameNum := 0

	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fatal("frame %d: %v", frameNum+1, err)
		}

		frameNum++
		printFrame(frameNum, frame)
	}

	fmt.Fprintln(os.Stderr, noteStyle().Render(fmt.Sprintf("--- %d frames decoded ---", frameNum)))
}

func printFrame(n int, f *stream.Frame) {
	fmt.Printf("--- Frame %d ---\n", n)
	fmt.Printf("  sid=%d seq=%d kind=%s len=%d\n", f.SID, f.Seq, f.Kind, len(f.Payload))

	if f.CRC != nil {
		fmt.Printf("  crc=%08x\n", *f.CRC)
	}
	if f.Source != nil {
		fmt.Printf("  src=%s\n", stream.HashToHex(*f.Source))
	}
	if f.IsFinal() {
		fmt.Printf("  final=true\n")
	}

	payload := string(f.Payload)
	if len(payload) > 200 {
		payload = payload[:200] + "..."
	}
	if len(payload) > 0 {
		fmt.Printf("  payload: %s\n", payload)
	}
}

// cmdStreamEncode: one ast frame per file on SID 1, the last marked final
func cmdStreamEncode(files []string) {
	if len(files) == 0 {
		fatal("stream encode: no files")
	}
	w := stream.NewWriterWithCRC(os.Stdout)
	for i, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			fatal("read %s: %v", name, err)
		}
		f := &stream.Frame{SID: 1, Seq: uint64(i + 1), Kind: stream.KindAST, Payload: data, Final: i == len(files)-1}
		if err := w.WriteFrame(f); err != nil {
			fatal("write frame: %v", err)
		}
	}
}

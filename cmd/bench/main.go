// bench - mathtex benchmark runner
//
// Converts every case of a corpus directory and reports:
//   - Dump size vs LaTeX size (bytes and approximate tokens)
//   - Average direct render time
//   - Average round trip through the frame stream
//
// Output: CSV and markdown summary
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Neumenon/mathtex/harness"
	"github.com/Neumenon/mathtex/mathtex"
	"github.com/Neumenon/mathtex/stream"
)

const defaultIterations = 200

type CaseResult struct {
	Name       string
	DumpBytes  int
	TeXBytes   int
	DumpTokens int
	TeXTokens  int
	Ratio      float64 // tex bytes / dump bytes
	Render     time.Duration
	Stream     time.Duration
	Err        string
}

func main() {
	dir := ""
	iterations := defaultIterations
	for _, arg := range os.Args[1:] {
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			iterations = n
			continue
		}
		dir = arg
	}
	if dir == "" {
		dir = findTestdata()
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "Cannot find mathtex/testdata directory")
		os.Exit(1)
	}

	cases, err := harness.Discover(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "mathtex Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "========================\n")
	fmt.Fprintf(os.Stderr, "Corpus: %s (%d cases, %d iterations)\n\n", dir, len(cases), iterations)

	renderer := mathtex.NewRenderer(nil)
	env := mathtex.DefaultEnv()

	var results []CaseResult
	var totalDump, totalTeX, totalDumpTok, totalTeXTok int
	var totalRender, totalStream time.Duration

	for _, c := range cases {
		exps, err := mathtex.Read(c.Dump)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.Name, err)
			results = append(results, CaseResult{Name: c.Name, Err: err.Error()})
			continue
		}
		tex, err := renderer.Render(exps, env)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.Name, err)
			results = append(results, CaseResult{Name: c.Name, Err: err.Error()})
			continue
		}

		start := time.Now()
		for i := 0; i < iterations; i++ {
			exps, _ := mathtex.Read(c.Dump)
			_, _ = renderer.Render(exps, env)
		}
		render := time.Since(start) / time.Duration(iterations)

		streamAvg, err := streamRoundTrip(renderer, c.Dump, iterations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stream %s: %v\n", c.Name, err)
		}

		r := CaseResult{
			Name:       c.Name,
			DumpBytes:  len(c.Dump),
			TeXBytes:   len(tex),
			DumpTokens: estimateTokens(c.Dump),
			TeXTokens:  estimateTokens(tex),
			Render:     render,
			Stream:     streamAvg,
		}
		if r.DumpBytes > 0 {
			r.Ratio = float64(r.TeXBytes) / float64(r.DumpBytes)
		}
		results = append(results, r)

		totalDump += r.DumpBytes
		totalTeX += r.TeXBytes
		totalDumpTok += r.DumpTokens
		totalTeXTok += r.TeXTokens
		totalRender += r.Render
		totalStream += r.Stream
	}

	csvPath := "bench_results.csv"
	csvFile, err := os.Create(csvPath)
	if err == nil {
		writeCSV(csvFile, results)
		csvFile.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", csvPath)
	}

	mdPath := "BENCH.md"
	mdFile, err := os.Create(mdPath)
	if err == nil {
		writeMarkdown(mdFile, results, dir, iterations)
		mdFile.Close()
		fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
	}

	n := 0
	for _, r := range results {
		if r.Err == "" {
			n++
		}
	}
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:        %d (%d failed)\n", len(results), len(results)-n)
	fmt.Printf("Dump total:   %d bytes, ~%d tokens\n", totalDump, totalDumpTok)
	fmt.Printf("LaTeX total:  %d bytes, ~%d tokens\n", totalTeX, totalTeXTok)
	if totalDump > 0 {
		fmt.Printf("Size ratio:   %.2f\n", float64(totalTeX)/float64(totalDump))
	}
	if n > 0 {
		fmt.Printf("Render avg:   %s\n", totalRender/time.Duration(n))
		fmt.Printf("Stream avg:   %s\n", totalStream/time.Duration(n))
	}
}

// streamRoundTrip pushes the dump through a Converter over in-memory pipes
// and returns the average time per request.
func streamRoundTrip(renderer *mathtex.Renderer, dump string, iterations int) (time.Duration, error) {
	reqR, reqW := io.Pipe()
	repR, repW := io.Pipe()

	go func() {
		c := &stream.Converter{Renderer: renderer, Env: mathtex.DefaultEnv(), WithCRC: true}
		_, err := c.Serve(context.Background(), reqR, repW)
		repW.CloseWithError(err)
	}()

	client := stream.NewClient(1, reqW, repR)
	sendErr := make(chan error, 1)
	start := time.Now()
	go func() {
		for i := 0; i < iterations; i++ {
			if _, err := client.Send(dump); err != nil {
				sendErr <- err
				return
			}
		}
		sendErr <- client.Close()
		reqW.Close()
	}()

	for {
		reply, err := client.Receive()
		if err == io.EOF {
			break
		}
		if err != nil {
			reqR.CloseWithError(err)
			repR.Close()
			return 0, err
		}
		if reply.Err != "" {
			reqR.CloseWithError(io.ErrClosedPipe)
			repR.Close()
			return 0, fmt.Errorf("seq %d: %s", reply.Seq, reply.Err)
		}
	}
	elapsed := time.Since(start)
	if err := <-sendErr; err != nil {
		return 0, err
	}
	return elapsed / time.Duration(iterations), nil
}

// estimateTokens provides a rough token count approximation. Control words
// and digit runs count as one token per ~4 chars; punctuation gets its own.
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}

	tokens := 0
	i := 0
	for i < len(s) {
		c := s[i]

		if isPunctuation(c) {
			tokens++
			i++
			continue
		}

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		if c >= '0' && c <= '9' {
			numLen := 0
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				numLen++
				i++
			}
			tokens += (numLen + 3) / 4
			continue
		}

		// A control word keeps its backslash.
		if c == '\\' || isAlpha(c) {
			wordLen := 1
			i++
			for i < len(s) && isAlpha(s[i]) {
				wordLen++
				i++
			}
			tokens += (wordLen + 3) / 4
			continue
		}

		tokens++
		i++
	}

	return max(1, tokens)
}

func isPunctuation(c byte) bool {
	return c == '{' || c == '}' || c == '[' || c == ']' ||
		c == '(' || c == ')' || c == '^' || c == '_' ||
		c == '"' || c == '&' || c == '=' || c == ',' ||
		c == '+' || c == '-'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func findTestdata() string {
	paths := []string{
		"mathtex/testdata",
		"../mathtex/testdata",
		"../../mathtex/testdata",
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,dump_bytes,tex_bytes,ratio,dump_tokens,tex_tokens,render_ns,stream_ns,error")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%.2f,%d,%d,%d,%d,%s\n",
			r.Name, r.DumpBytes, r.TeXBytes, r.Ratio, r.DumpTokens, r.TeXTokens,
			r.Render.Nanoseconds(), r.Stream.Nanoseconds(), strconv.Quote(r.Err))
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, dir string, iterations int) {
	fmt.Fprintf(w, "# mathtex Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "**Corpus:** %s (%d cases)  \n", filepath.ToSlash(dir), len(results))
	fmt.Fprintf(w, "**Iterations:** %d per case  \n\n", iterations)

	var ok []CaseResult
	var failed []CaseResult
	for _, r := range results {
		if r.Err == "" {
			ok = append(ok, r)
		} else {
			failed = append(failed, r)
		}
	}

	sorted := make([]CaseResult, len(ok))
	copy(sorted, ok)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Render > sorted[j].Render
	})

	fmt.Fprintf(w, "## Slowest Cases (direct render)\n\n")
	fmt.Fprintf(w, "| Case | Render | Stream | Dump | LaTeX |\n")
	fmt.Fprintf(w, "|------|--------|--------|------|-------|\n")
	for i := 0; i < min(5, len(sorted)); i++ {
		r := sorted[i]
		fmt.Fprintf(w, "| %s | %s | %s | %d | %d |\n", r.Name, r.Render, r.Stream, r.DumpBytes, r.TeXBytes)
	}

	fmt.Fprintf(w, "\n## Failures\n\n")
	if len(failed) == 0 {
		fmt.Fprintf(w, "_None - every case converted._\n\n")
	} else {
		fmt.Fprintf(w, "| Case | Error |\n")
		fmt.Fprintf(w, "|------|-------|\n")
		for _, r := range failed {
			fmt.Fprintf(w, "| %s | %s |\n", r.Name, harness.Truncate(r.Err, 60))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "## Methodology\n\n")
	fmt.Fprintf(w, "- **Render:** `mathtex.Read` plus `Renderer.Render` with amsmath, amssymb and mathbb\n")
	fmt.Fprintf(w, "- **Stream:** ast frames with CRC through `stream.Converter` over `io.Pipe`, averaged per request\n")
	fmt.Fprintf(w, "- **Tokens:** Estimated (~4 chars/token for words, punctuation as separate tokens)\n\n")

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Dump Bytes | LaTeX Bytes | Ratio | Dump Tok | LaTeX Tok | Render | Stream |\n")
	fmt.Fprintf(w, "|------|------------|-------------|-------|----------|-----------|--------|--------|\n")
	for _, r := range ok {
		fmt.Fprintf(w, "| %s | %d | %d | %.2f | %d | %d | %s | %s |\n",
			harness.Truncate(r.Name, 25), r.DumpBytes, r.TeXBytes, r.Ratio,
			r.DumpTokens, r.TeXTokens, r.Render, r.Stream)
	}
}

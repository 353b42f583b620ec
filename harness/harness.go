// Package harness runs a directory of dump/LaTeX pairs through the
// converter and reports how the output compares with the expected text.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/mathtex/judge"
	"github.com/Neumenon/mathtex/logging"
	"github.com/Neumenon/mathtex/mathtex"
)

// Extensions of the input and expected files.
const (
	ASTExt = ".ast"
	TeXExt = ".tex"
)

// Case is one corpus entry.
type Case struct {
	Name        string
	Dump        string
	Expected    string
	HasExpected bool
}

// Discover loads every *.ast under dir, recursively, with its sibling
// *.tex when present. Cases are sorted by name.
func Discover(dir string) ([]Case, error) {
	var cases []Case
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ASTExt) {
			return nil
		}
		dump, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		c := Case{
			Name: filepath.ToSlash(strings.TrimSuffix(rel, ASTExt)),
			Dump: string(dump),
		}
		want, err := os.ReadFile(strings.TrimSuffix(path, ASTExt) + TeXExt)
		switch {
		case err == nil:
			c.Expected = string(want)
			c.HasExpected = true
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
		cases = append(cases, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("harness: discover %s: %w", dir, err)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// Status classifies one outcome.
type Status uint8

const (
	Pass       Status = iota // output matches, exactly or by judgement
	Fail                     // output differs
	Converted                // no expected text to compare with
	Error                    // the dump did not convert
	JudgeError               // the normalizer could not decide
)

var statusNames = [...]string{
	Pass:       "pass",
	Fail:       "fail",
	Converted:  "converted",
	Error:      "error",
	JudgeError: "judge-error",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", s)
}

// Outcome is the result of one case.
type Outcome struct {
	Case     string
	Status   Status
	Verdict  judge.Verdict
	Judged   bool
	Got      string
	Want     string
	Err      string
	Duration time.Duration
}

// Judge decides equivalence. *judge.Client satisfies it.
type Judge interface {
	Judge(ctx context.Context, want, got string) (judge.Result, error)
}

// Runner converts cases concurrently.
type Runner struct {
	Renderer *mathtex.Renderer
	Env      mathtex.Env
	Judge    Judge // nil compares exactly
	Workers  int
	Log      logging.Printer

	// NewID names the run; uuid.NewString by default.
	NewID func() string
	Clock func() time.Time
}

// Run converts every case. Conversion failures become outcomes; only a
// cancelled context ends the run early.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	renderer := r.Renderer
	if renderer == nil {
		renderer = mathtex.NewRenderer(nil)
	}
	log := r.Log
	if log == nil {
		log = logging.Discard
	}
	newID := r.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	clock := r.Clock
	if clock == nil {
		clock = time.Now
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	report := &Report{
		RunID:    newID(),
		Started:  clock(),
		Env:      r.Env.Names(),
		Outcomes: make([]Outcome, len(cases)),
	}
	log.Printf("harness: run %s: %d cases, %d workers", report.RunID, len(cases), workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cases {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := clock()
			out := r.runCase(gctx, renderer, cases[i])
			out.Duration = clock().Sub(start)
			report.Outcomes[i] = out
			if out.Status == Fail || out.Status == Error || out.Status == JudgeError {
				log.Printf("harness: run %s: %s: %s %s", report.RunID, out.Case, out.Status, out.Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("harness: run %s: %w", report.RunID, err)
	}
	report.Elapsed = clock().Sub(report.Started)

	s := report.Summary()
	log.Printf("harness: run %s: %d passed, %d failed, %d errors in %s",
		report.RunID, s.Passed, s.Failed, s.Errors, report.Elapsed)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, renderer *mathtex.Renderer, c Case) Outcome {
	out := Outcome{Case: c.Name, Want: judge.Clean(c.Expected)}

	exps, err := mathtex.Read(c.Dump)
	if err != nil {
		out.Status = Error
		out.Err = "read_ast: " + err.Error()
		return out
	}
	got, err := renderer.Render(exps, r.Env)
	if err != nil {
		out.Status = Error
		out.Err = "write_tex: " + err.Error()
		return out
	}
	out.Got = got

	switch {
	case !c.HasExpected:
		out.Status = Converted
	case judge.Clean(got) == out.Want:
		out.Status = Pass
		out.Verdict = judge.Same
		out.Judged = true
	case r.Judge == nil:
		out.Status = Fail
		out.Verdict = judge.Different
		out.Judged = true
	default:
		res, err := r.Judge.Judge(ctx, c.Expected, got)
		out.Verdict = res.Verdict
		out.Judged = true
		switch {
		case err != nil:
			out.Status = JudgeError
			out.Err = err.Error()
		case res.Verdict.Passed():
			out.Status = Pass
		default:
			out.Status = Fail
		}
	}
	return out
}

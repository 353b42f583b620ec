package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// Report collects the outcomes of one run in case order.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Elapsed  time.Duration `json:"elapsed"`
	Env      []string      `json:"env"`
	Outcomes []Outcome     `json:"outcomes"`
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int
	Passed    int
	Failed    int
	Converted int
	Errors    int // conversion and judge errors
}

// Summary tallies the report.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case Pass:
			s.Passed++
		case Fail:
			s.Failed++
		case Converted:
			s.Converted++
		default:
			s.Errors++
		}
	}
	return s
}

// OK reports whether nothing failed or errored.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d cases: %d passed, %d failed, %d converted, %d errors",
		s.Total, s.Passed, s.Failed, s.Converted, s.Errors)
}

// RenderOptions controls the text report.
type RenderOptions struct {
	// FailuresOnly hides passing and converted cases.
	FailuresOnly bool
	// OutputWidth truncates the output column; zero means 48 cells.
	OutputWidth int
}

var (
	statusColors = map[Status]lipgloss.Color{
		Pass:       lipgloss.Color("#4CAF50"),
		Fail:       lipgloss.Color("#FF6B6B"),
		Converted:  lipgloss.Color("#5B8DEF"),
		Error:      lipgloss.Color("#FF6B6B"),
		JudgeError: lipgloss.Color("#F7B801"),
	}
	mutedColor = lipgloss.Color("#888888")
)

// Render writes a table of outcomes followed by the summary line. Colors
// follow the capabilities of w.
func (r *Report) Render(w io.Writer, opts RenderOptions) error {
	width := opts.OutputWidth
	if width <= 0 {
		width = 48
	}
	re := lipgloss.NewRenderer(w)
	header := re.NewStyle().Bold(true).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)

	var shown []Outcome
	for _, o := range r.Outcomes {
		if opts.FailuresOnly && (o.Status == Pass || o.Status == Converted) {
			continue
		}
		shown = append(shown, o)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(mutedColor)).
		Headers("CASE", "STATUS", "VERDICT", "OUTPUT")
	for _, o := range shown {
		verdict := "-"
		if o.Judged {
			verdict = o.Verdict.String()
		}
		detail := o.Got
		if o.Err != "" {
			detail = o.Err
		}
		t.Row(o.Case, o.Status.String(), verdict, Truncate(detail, width))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return header
		}
		if col == 1 && row >= 0 && row < len(shown) {
			return cell.Foreground(statusColors[shown[row].Status])
		}
		return cell
	})

	title := re.NewStyle().Bold(true).Render("run " + r.RunID)
	if len(r.Env) > 0 {
		title += re.NewStyle().Foreground(mutedColor).Render("  env " + strings.Join(r.Env, ","))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n%s in %s\n", title, t.Render(), r.Summary(), r.Elapsed.Round(time.Millisecond))
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Truncate flattens s to one line and cuts it to width display cells.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

package mathtex

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatOptions configures the dump printer.
type FormatOptions struct {
	// Pretty breaks lists with more than one element over several lines.
	Pretty bool

	// Indent string for pretty mode (default: "  ")
	Indent string
}

// DefaultFormatOptions returns single-line output.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{Indent: "  "}
}

// PrettyFormatOptions returns indented, multi-line output.
func PrettyFormatOptions() FormatOptions {
	return FormatOptions{Pretty: true, Indent: "  "}
}

// Format prints a document in the form Read accepts. String fields are
// written verbatim, so a tree produced by Read prints back to an
// equivalent dump.
func Format(exps []Exp) string {
	return FormatWithOptions(exps, DefaultFormatOptions())
}

// FormatExp prints a single bare expression.
func FormatExp(x Exp) string {
	p := &printer{opts: DefaultFormatOptions()}
	p.exp(x, 0)
	return p.sb.String()
}

// FormatWithOptions prints a document with custom options.
func FormatWithOptions(exps []Exp, opts FormatOptions) string {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	p := &printer{opts: opts}
	p.list(exps, 0)
	return p.sb.String()
}

// Quote encodes a plain string as dump string content: backslash and
// double quote are escaped, and non-ASCII runes become decimal escapes.
// Decode(Quote(s)) == s.
func Quote(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < utf8.RuneSelf && r >= 0x20:
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteString(strconv.Itoa(int(r)))
			// A following digit would extend the code point.
			sb.WriteString(`\&`)
		}
	}
	return sb.String()
}

type printer struct {
	sb   strings.Builder
	opts FormatOptions
}

func (p *printer) str(s string) {
	p.sb.WriteByte('"')
	p.sb.WriteString(s)
	p.sb.WriteByte('"')
}

func (p *printer) arg(x Exp, depth int) {
	p.sb.WriteString(" (")
	p.exp(x, depth)
	p.sb.WriteByte(')')
}

func (p *printer) newline(depth int) {
	p.sb.WriteByte('\n')
	p.sb.WriteString(strings.Repeat(p.opts.Indent, depth))
}

// seq writes "[" elem {"," elem} "]", one element per line in pretty mode.
func (p *printer) seq(n int, depth int, elem func(i int)) {
	p.sb.WriteByte('[')
	multi := p.opts.Pretty && n > 1
	for i := 0; i < n; i++ {
		if i > 0 {
			p.sb.WriteByte(',')
			if !multi {
				p.sb.WriteByte(' ')
			}
		}
		if multi {
			p.newline(depth + 1)
		}
		elem(i)
	}
	if multi {
		p.newline(depth)
	}
	p.sb.WriteByte(']')
}

func (p *printer) list(items []Exp, depth int) {
	p.seq(len(items), depth, func(i int) { p.exp(items[i], depth+1) })
}

func (p *printer) exp(x Exp, depth int) {
	if x == nil {
		p.sb.WriteString("<nil>")
		return
	}
	p.sb.WriteString(x.Keyword())

	switch n := x.(type) {
	case Number:
		p.sb.WriteByte(' ')
		p.str(n.Text)
	case Identifier:
		p.sb.WriteByte(' ')
		p.str(n.Text)
	case MathOperator:
		p.sb.WriteByte(' ')
		p.str(n.Name)
	case Symbol:
		fmt.Fprintf(&p.sb, " %s ", n.Class)
		p.str(n.Text)
	case Space:
		p.sb.WriteString(" " + n.Width.String())
	case Text:
		fmt.Fprintf(&p.sb, " %s ", n.Style)
		p.str(n.Text)

	case Grouped:
		p.sb.WriteByte(' ')
		p.list(n.Items, depth)
	case Styled:
		fmt.Fprintf(&p.sb, " %s ", n.Style)
		p.list(n.Items, depth)

	case Delimited:
		p.sb.WriteByte(' ')
		p.str(n.Open)
		p.sb.WriteByte(' ')
		p.str(n.Close)
		p.sb.WriteByte(' ')
		p.seq(len(n.Items), depth, func(i int) {
			switch it := n.Items[i].(type) {
			case Separator:
				p.sb.WriteString("Left ")
				p.str(it.Text)
			case Content:
				p.sb.WriteString("Right")
				p.arg(it.Exp, depth+1)
			}
		})

	case Boxed:
		p.arg(n.Body, depth)
	case Phantom:
		p.arg(n.Body, depth)
	case Sqrt:
		p.arg(n.Body, depth)
	case Root:
		p.arg(n.Index, depth)
		p.arg(n.Radicand, depth)
	case Fraction:
		p.sb.WriteString(" " + n.Kind.String())
		p.arg(n.Num, depth)
		p.arg(n.Den, depth)
	case Sub:
		p.arg(n.Base, depth)
		p.arg(n.Sub, depth)
	case Super:
		p.arg(n.Base, depth)
		p.arg(n.Sup, depth)
	case Subsup:
		p.arg(n.Base, depth)
		p.arg(n.Sub, depth)
		p.arg(n.Sup, depth)
	case Over:
		p.sb.WriteString(" " + boolName(n.Convertible))
		p.arg(n.Base, depth)
		p.arg(n.Over, depth)
	case Under:
		p.sb.WriteString(" " + boolName(n.Convertible))
		p.arg(n.Base, depth)
		p.arg(n.Under, depth)
	case UnderOver:
		p.sb.WriteString(" " + boolName(n.Convertible))
		p.arg(n.Base, depth)
		p.arg(n.Under, depth)
		p.arg(n.Over, depth)
	case Scaled:
		p.sb.WriteString(" " + n.Size.String())
		p.arg(n.Body, depth)

	case Array:
		p.sb.WriteByte(' ')
		p.seq(len(n.Aligns), depth, func(i int) { p.sb.WriteString(n.Aligns[i].String()) })
		p.sb.WriteByte(' ')
		p.seq(len(n.Rows), depth, func(i int) {
			row := n.Rows[i]
			p.seq(len(row), depth+1, func(j int) { p.list(row[j], depth+2) })
		})
	}
}

func boolName(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

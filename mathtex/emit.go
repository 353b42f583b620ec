package mathtex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Neumenon/mathtex/symtab"
)

// RenderError reports a node the emitter could not write.
type RenderError struct {
	Node   Exp
	Reason string
}

func (e *RenderError) Error() string {
	if e.Node == nil {
		return "render: " + e.Reason
	}
	return fmt.Sprintf("render %s: %s", e.Node.Keyword(), e.Reason)
}

// Renderer writes expression trees as LaTeX using one symbol table.
// It holds no per-call state and is safe for concurrent use.
type Renderer struct {
	table *symtab.Table
}

// NewRenderer returns a Renderer backed by table. A nil table selects the
// embedded default.
func NewRenderer(table *symtab.Table) *Renderer {
	if table == nil {
		table = symtab.Default()
	}
	return &Renderer{table: table}
}

// Render writes exps in order. On error no partial output is returned.
func (r *Renderer) Render(exps []Exp, env Env) (string, error) {
	e := &emitter{
		env:        env,
		envNames:   env.Names(),
		table:      r.table,
		groupStart: true,
	}
	for _, x := range exps {
		e.walk(x)
	}
	if e.err != nil {
		return "", e.err
	}
	return e.sb.String(), nil
}

// Render writes exps with the default symbol table.
func Render(exps []Exp, env Env) (string, error) {
	return NewRenderer(nil).Render(exps, env)
}

// Convert reads an AST dump and renders it.
func Convert(input string, env Env) (string, error) {
	exps, err := Read(input)
	if err != nil {
		return "", err
	}
	return Render(exps, env)
}

// emitter carries the state of one Render call.
type emitter struct {
	sb       strings.Builder
	env      Env
	envNames []string
	table    *symtab.Table
	err      error

	pendingCS    bool // last write ended in an alphabetic control word
	pendingSpace bool // a separating space was requested
	groupStart   bool // nothing written since the last { or cell boundary
	braced       bool // the next node is the only child of a group

	unstyle *TextStyle // inside Styled: letters of this style are written plain
	valid   map[string]bool
}

func (e *emitter) fail(node Exp, format string, args ...any) {
	if e.err == nil {
		e.err = &RenderError{Node: node, Reason: fmt.Sprintf(format, args...)}
	}
}

func (e *emitter) ams() bool { return e.env.Has("amsmath") }

// ============================================================
// Output primitives
// ============================================================

// write appends s, honoring any pending control-word or space separator.
func (e *emitter) write(s string) {
	if s == "" {
		return
	}
	if e.pendingSpace {
		e.pendingSpace = false
		if !e.groupStart && !suppressesSpace(s) {
			e.sb.WriteByte(' ')
			e.pendingCS = false
		}
	}
	if e.pendingCS {
		e.pendingCS = false
		if startsWord(s) {
			e.sb.WriteByte(' ')
		}
	}
	e.sb.WriteString(s)
	e.groupStart = false
	e.pendingCS = endsInControlWord(s)
}

// space requests a separating space before the next write.
func (e *emitter) space() {
	e.pendingSpace = true
}

// raw appends a layout separator such as " & " and starts a new run.
func (e *emitter) raw(s string) {
	e.pendingCS = false
	e.pendingSpace = false
	e.sb.WriteString(s)
	e.groupStart = true
}

func (e *emitter) open() {
	e.write("{")
	e.groupStart = true
}

func (e *emitter) close() {
	e.pendingCS = false
	e.pendingSpace = false
	e.sb.WriteByte('}')
	e.groupStart = false
}

// group writes items inside braces. A lone item knows it is already
// braced and does not add a second pair.
func (e *emitter) group(items ...Exp) {
	e.open()
	for _, x := range items {
		e.braced = len(items) == 1
		e.walk(x)
	}
	e.braced = false
	e.close()
}

// groupFunc writes whatever fn emits inside braces.
func (e *emitter) groupFunc(fn func()) {
	e.open()
	fn()
	e.close()
}

func suppressesSpace(s string) bool {
	switch s[0] {
	case '}', '^', '_', ' ':
		return true
	}
	return strings.HasPrefix(s, `\limits`)
}

func startsWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// endsInControlWord reports whether s ends with a control word such as
// \alpha, which would swallow a following letter.
func endsInControlWord(s string) bool {
	i := strings.LastIndexByte(s, '\\')
	if i < 0 || i == len(s)-1 {
		return false
	}
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// ============================================================
// Characters
// ============================================================

// ignoredRune reports characters that produce no output: the variation
// selector U+FE00 and the invisible operators U+2061..U+2064.
func ignoredRune(r rune) bool {
	return r == 0xFE00 || (r >= 0x2061 && r <= 0x2064)
}

// texTokens decodes s and maps each character to its LaTeX spelling.
func (e *emitter) texTokens(node Exp, s string) []string {
	decoded, err := Decode(s)
	if err != nil {
		e.fail(node, "%v", err)
		return nil
	}
	toks := make([]string, 0, len(decoded))
	for _, r := range decoded {
		if ignoredRune(r) {
			continue
		}
		toks = append(toks, e.texRune(r))
	}
	return toks
}

// texRune looks r up in the command table, then the styled-letter table,
// then the escaper, and falls back to the character itself.
func (e *emitter) texRune(r rune) string {
	if ent, ok := e.table.Lookup(r, e.envNames); ok {
		if ent.Category.NeedsArgument() {
			return ent.Command + "{}"
		}
		return ent.Command
	}
	if st, ok := e.table.Styled(r); ok {
		if e.unstyle != nil && st.Style == e.unstyle.String() {
			return string(st.Letter)
		}
		if style, ok := parseStyleName(st.Style); ok {
			return wrapCommands(e.mathStyle(style), string(st.Letter))
		}
		return st.Macro
	}
	if esc, ok := EscapeRune(r); ok {
		return esc
	}
	return string(r)
}

// texString renders s to a single string, for fences and comparisons.
func (e *emitter) texString(node Exp, s string) string {
	return strings.Join(e.texTokens(node, s), "")
}

func (e *emitter) writeTokens(toks []string, braced bool) {
	if len(toks) > 1 && !braced {
		e.groupFunc(func() {
			for _, t := range toks {
				e.write(t)
			}
		})
		return
	}
	for _, t := range toks {
		e.write(t)
	}
}

// ============================================================
// Nodes
// ============================================================

func (e *emitter) walk(x Exp) {
	braced := e.braced
	e.braced = false
	if x == nil {
		e.fail(nil, "missing expression")
		return
	}

	switch n := x.(type) {
	case Number:
		for _, t := range e.texTokens(n, n.Text) {
			e.write(t)
		}

	case Identifier:
		e.writeTokens(e.texTokens(n, n.Text), braced)

	case MathOperator:
		e.writeOperator(n)

	case Symbol:
		e.writeSymbol(n, braced)

	case Space:
		e.writeSpace(n)

	case Text:
		e.writeText(n)

	case Grouped:
		if braced {
			for _, it := range n.Items {
				e.walk(it)
			}
		} else {
			e.group(n.Items...)
		}

	case Styled:
		e.writeStyled(n)

	case Delimited:
		e.writeDelimited(n)

	case Boxed:
		if e.ams() {
			e.write(`\boxed`)
			e.group(n.Body)
		} else {
			e.walk(n.Body)
		}

	case Phantom:
		e.write(`\phantom`)
		e.group(n.Body)

	case Sqrt:
		e.write(`\sqrt`)
		e.group(n.Body)

	case Root:
		e.write(`\sqrt`)
		e.write("[")
		e.walk(n.Index)
		e.write("]")
		e.group(n.Radicand)

	case Fraction:
		e.writeFraction(n)

	case Sub:
		e.writeBase(n.Base)
		e.write("_")
		e.group(n.Sub)

	case Super:
		e.writeBase(n.Base)
		e.write("^")
		e.group(n.Sup)

	case Subsup:
		e.writeBase(n.Base)
		e.write("_")
		e.group(n.Sub)
		e.write("^")
		e.group(n.Sup)

	case Over:
		e.writeScript(scriptOver, n.Convertible, n.Base, n.Over)

	case Under:
		e.writeScript(scriptUnder, n.Convertible, n.Base, n.Under)

	case UnderOver:
		e.writeUnderOver(n)

	case Scaled:
		e.writeScaled(n)

	case Array:
		e.writeArray(n)

	default:
		e.fail(x, "unsupported node %T", x)
	}
}

// writeBase writes the base of a script, bracing it when it carries
// scripts of its own.
func (e *emitter) writeBase(b Exp) {
	if isFancy(b) {
		e.group(b)
		return
	}
	e.walk(b)
}

func isFancy(x Exp) bool {
	switch x.(type) {
	case Sub, Super, Subsup, Over, Under, UnderOver, Root, Sqrt, Phantom:
		return true
	}
	return false
}

func (e *emitter) writeOperator(n MathOperator) {
	name, err := Decode(n.Name)
	if err != nil {
		e.fail(n, "%v", err)
		return
	}
	if isMathOperator(name) {
		e.write(`\` + name)
		return
	}
	toks := e.texTokens(n, n.Name)
	if e.ams() {
		e.write(`\operatorname`)
		e.groupFunc(func() { e.writeTokens(toks, true) })
		return
	}
	e.write(`\mathop`)
	e.groupFunc(func() {
		e.write(`\mathrm`)
		e.groupFunc(func() { e.writeTokens(toks, true) })
	})
}

func (e *emitter) writeSymbol(n Symbol, braced bool) {
	if !n.Class.valid() {
		e.fail(n, "unknown symbol class %d", n.Class)
		return
	}
	toks := e.texTokens(n, n.Text)
	if len(toks) == 0 {
		return
	}
	// The leading space is dropped by write when the symbol opens a group.
	spaced := n.Class == Bin || n.Class == Rel
	if spaced {
		e.space()
	}
	e.writeTokens(toks, braced)
	if spaced {
		e.space()
	}
}

func (e *emitter) writeSpace(n Space) {
	if n.Width.Den == 0 {
		e.fail(n, "zero denominator")
		return
	}
	width := floorDiv(int64(n.Width.Num)*18, int64(n.Width.Den))
	switch width {
	case -3:
		e.write(`\!`)
	case 0:
	case 3:
		e.write(`\,`)
	case 4:
		e.write(`\ `)
	case 5:
		e.write(`\;`)
	case 18:
		e.write(`\quad`)
	case 36:
		e.write(`\qquad`)
	default:
		cmd := `\mskip`
		if e.ams() {
			cmd = `\mspace`
		}
		e.write(fmt.Sprintf("%s{%dmu}", cmd, width))
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (e *emitter) writeFraction(n Fraction) {
	if !n.Kind.valid() {
		e.fail(n, "unknown fraction kind %d", n.Kind)
		return
	}
	switch n.Kind {
	case NormalFrac:
		e.write(`\frac`)
	case DisplayFrac:
		e.write(e.pick(`\dfrac`, `\frac`))
	case InlineFrac:
		e.write(e.pick(`\tfrac`, `\frac`))
	case NoLineFrac:
		if !e.ams() {
			e.groupFunc(func() {
				e.walk(n.Num)
				e.space()
				e.write(`\atop`)
				e.space()
				e.walk(n.Den)
			})
			return
		}
		e.write(`\genfrac{}{}{0pt}{}`)
	}
	e.group(n.Num)
	e.group(n.Den)
}

// pick returns ams when amsmath is enabled, plain otherwise.
func (e *emitter) pick(ams, plain string) string {
	if e.ams() {
		return ams
	}
	return plain
}

func (e *emitter) writeText(n Text) {
	if !n.Style.valid() {
		e.fail(n, "unknown text style %d", n.Style)
		return
	}
	decoded, err := Decode(n.Text)
	if err != nil {
		e.fail(n, "%v", err)
		return
	}
	if decoded == "" {
		return
	}
	e.write(wrapCommands(textCommands(n.Style), escapeTextArg(decoded)))
}

func (e *emitter) writeStyled(n Styled) {
	if !n.Style.valid() {
		e.fail(n, "unknown text style %d", n.Style)
		return
	}
	cmds := e.mathStyle(n.Style)
	prev := e.unstyle
	style := n.Style
	e.unstyle = &style
	for _, cmd := range cmds[:len(cmds)-1] {
		e.write(cmd)
		e.open()
	}
	e.write(cmds[len(cmds)-1])
	e.group(n.Items...)
	for range cmds[:len(cmds)-1] {
		e.close()
	}
	e.unstyle = prev
}

func (e *emitter) writeScaled(n Scaled) {
	if n.Size.Den == 0 {
		e.fail(n, "zero denominator")
		return
	}
	if sym, ok := n.Body.(Symbol); ok && (sym.Class == Open || sym.Class == Close) {
		if cmd := scalerCommand(n.Size); cmd != "" {
			e.write(cmd)
		}
	}
	e.walk(n.Body)
}

// scalerCommand picks the smallest \big variant at least as large as size.
func scalerCommand(size Rational) string {
	num, den := int64(size.Num), int64(size.Den)
	if den < 0 {
		num, den = -num, -den
	}
	scalers := []struct {
		cmd      string
		num, den int64
	}{
		{`\big`, 6, 5},
		{`\Big`, 9, 5},
		{`\bigg`, 12, 5},
		{`\Bigg`, 3, 1},
	}
	for _, s := range scalers {
		if num*s.den <= s.num*den {
			return s.cmd
		}
	}
	return ""
}

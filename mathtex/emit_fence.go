package mathtex

import "github.com/Neumenon/mathtex/symtab"

// Fence codepoints that need to be named in code.
const (
	runeLAngle   = 0x27E8 // mathematical left angle bracket
	runeRAngle   = 0x27E9
	runeDivides  = 0x2223 // divides, used as a single bar
	runeParallel = 0x2225
	runeDblBar   = 0x2016 // double vertical line
)

// delimiterSources are the fences \left and \right accept. They are
// compared after rendering, so any spelling of the same glyph matches.
var delimiterSources = []string{
	".", "(", ")", "[", "]", "|", string(rune(runeDblBar)), "{", "}",
	string(rune(0x2309)), string(rune(0x2308)),
	string(rune(0x2329)), string(rune(0x232A)),
	string(rune(0x230B)), string(rune(0x230A)),
	string(rune(0x231C)), string(rune(0x231D)),
}

type fenceKind uint8

const (
	fenceLeft fenceKind = iota
	fenceMiddle
	fenceRight
)

// isDelimiter reports whether tex is a valid \left/\right argument.
func (e *emitter) isDelimiter(tex string) bool {
	if e.valid == nil {
		e.valid = make(map[string]bool, len(delimiterSources))
		for _, src := range delimiterSources {
			if t := e.texString(nil, src); t != "" {
				e.valid[t] = true
			}
		}
	}
	return e.valid[tex]
}

// isFenceRune reports whether delim is a single character the symbol
// table classes as an opening or closing fence.
func (e *emitter) isFenceRune(delim string) bool {
	s, err := Decode(delim)
	if err != nil {
		return false
	}
	rs := []rune(s)
	if len(rs) != 1 {
		return false
	}
	ent, ok := e.table.Lookup(rs[0], e.envNames)
	return ok && (ent.Category == symtab.Open || ent.Category == symtab.Close)
}

// writeFence writes one \left, \middle or \right fence. A glyph that is
// not a valid delimiter becomes the null fence followed by the glyph.
func (e *emitter) writeFence(node Exp, kind fenceKind, delim string) {
	tex := e.texString(node, delim)
	valid := tex != "" && (e.isDelimiter(tex) || e.isFenceRune(delim))
	arg := "."
	if valid {
		arg = tex
	}
	switch kind {
	case fenceLeft:
		e.write(`\left`)
		e.write(arg)
		e.space()
	case fenceMiddle:
		e.space()
		e.write(`\middle`)
		e.write(arg)
		e.space()
	case fenceRight:
		e.space()
		e.write(`\right`)
		e.write(arg)
	}
	if !valid {
		e.write(tex)
	}
}

func (e *emitter) writeDelimited(n Delimited) {
	open, err := Decode(n.Open)
	if err != nil {
		e.fail(n, "%v", err)
		return
	}
	closing, err := Decode(n.Close)
	if err != nil {
		e.fail(n, "%v", err)
		return
	}

	if len(n.Items) == 1 {
		if c, ok := n.Items[0].(Content); ok {
			switch body := c.Exp.(type) {
			case Fraction:
				if body.Kind == NoLineFrac && e.writeBinomial(open, closing, body) {
					return
				}
			case Array:
				e.writeFencedArray(n, open, closing, body)
				return
			}
		}
	}

	if isBareFence(open, closing, n.Items) {
		e.write(e.texString(n, n.Open))
		e.writeItems(n)
		e.write(e.texString(n, n.Close))
		return
	}

	e.writeFence(n, fenceLeft, n.Open)
	e.writeItems(n)
	e.writeFence(n, fenceRight, n.Close)
}

func (e *emitter) writeItems(n Delimited) {
	for _, it := range n.Items {
		switch it := it.(type) {
		case Separator:
			e.writeFence(n, fenceMiddle, it.Text)
		case Content:
			e.walk(it.Exp)
		default:
			e.fail(n, "unsupported fenced item %T", it)
		}
	}
}

// isBareFence reports whether plain fences are tall enough: round, square
// or bar fences around standard-height content with no separators.
func isBareFence(open, closing string, items []Fenced) bool {
	switch open {
	case "(", "[", "|":
	default:
		return false
	}
	switch closing {
	case ")", "]", "|":
	default:
		return false
	}
	for _, it := range items {
		c, ok := it.(Content)
		if !ok || !isStandardHeight(c.Exp) {
			return false
		}
	}
	return true
}

func isStandardHeight(x Exp) bool {
	switch x := x.(type) {
	case Number, Identifier, Space:
		return true
	case Symbol:
		switch x.Class {
		case Ord, Op, Bin, Rel, Pun:
			return true
		}
	}
	return false
}

// writeBinomial handles a fenced line-less fraction. It returns false when
// the fences have no binomial form.
func (e *emitter) writeBinomial(open, closing string, f Fraction) bool {
	pair := open + closing
	angles := pair == string([]rune{runeLAngle, runeRAngle})

	if e.ams() {
		switch {
		case pair == "()":
			e.write(`\binom`)
		case pair == "[]":
			e.write(`\genfrac{[}{]}{0pt}{}`)
		case pair == "{}":
			e.write(`\genfrac{\{}{\}}{0pt}{}`)
		case angles:
			e.write(`\genfrac{\langle}{\rangle}{0pt}{}`)
		default:
			return false
		}
		e.group(f.Num)
		e.group(f.Den)
		return true
	}

	var cmd string
	switch pair {
	case "()":
		cmd = `\choose`
	case "[]":
		cmd = `\brack`
	case "{}":
		cmd = `\brace`
	default:
		return false
	}
	e.groupFunc(func() {
		e.walk(f.Num)
		e.space()
		e.write(cmd)
		e.space()
		e.walk(f.Den)
	})
	return true
}

// writeFencedArray writes an array that is the only content of a
// Delimited, using a fenced matrix environment when one fits.
func (e *emitter) writeFencedArray(n Delimited, open, closing string, a Array) {
	if e.ams() {
		if open == "{" && closing == "" && len(a.Aligns) == 2 &&
			a.Aligns[0] == AlignLeft && a.Aligns[1] == AlignLeft {
			e.writeTable(a, "cases", nil)
			return
		}
		if allCenter(a.Aligns) {
			if env := matrixEnv(open, closing); env != "" {
				e.writeTable(a, env, nil)
				return
			}
		}
	}
	e.writeFence(n, fenceLeft, n.Open)
	e.writeArray(a)
	e.writeFence(n, fenceRight, n.Close)
}

func matrixEnv(open, close string) string {
	bar := string(rune(runeDivides))
	dbl := string(rune(runeDblBar))
	par := string(rune(runeParallel))
	switch {
	case open == "(" && close == ")":
		return "pmatrix"
	case open == "[" && close == "]":
		return "bmatrix"
	case open == "{" && close == "}":
		return "Bmatrix"
	case (open == "|" || open == bar) && (close == "|" || close == bar):
		return "vmatrix"
	case (open == dbl || open == par) && (close == dbl || close == par):
		return "Vmatrix"
	}
	return ""
}

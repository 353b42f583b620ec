package mathtex

type scriptPos uint8

const (
	scriptOver scriptPos = iota
	scriptUnder
)

// arrowCommands maps arrow glyphs to their extensible amsmath form.
var arrowCommands = map[rune]string{
	0x2192: `\xrightarrow`,
	0x27F6: `\xrightarrow`,
	0x2190: `\xleftarrow`,
	0x27F5: `\xleftarrow`,
}

// arrowCommand returns the extensible arrow for base, or "".
func arrowCommand(base Exp) string {
	sym, ok := base.(Symbol)
	if !ok {
		return ""
	}
	s, err := Decode(sym.Text)
	if err != nil {
		return ""
	}
	rs := []rune(s)
	if len(rs) != 1 {
		return ""
	}
	return arrowCommands[rs[0]]
}

func isOperator(x Exp) bool {
	switch x := x.(type) {
	case MathOperator:
		return true
	case Symbol:
		return x.Class == Op
	}
	return false
}

// accentText returns the decoded text of an accent-like script symbol.
func accentText(x Exp) (string, bool) {
	sym, ok := x.(Symbol)
	if !ok {
		return "", false
	}
	switch sym.Class {
	case Accent, TOver, TUnder:
	default:
		return "", false
	}
	s, err := Decode(sym.Text)
	if err != nil {
		return "", false
	}
	return s, true
}

func isAccent(x Exp) bool {
	sym, ok := x.(Symbol)
	return ok && sym.Class == Accent
}

// writeScript writes an Over or Under node.
func (e *emitter) writeScript(pos scriptPos, convertible bool, base, script Exp) {
	if cmd := arrowCommand(base); cmd != "" && e.ams() {
		e.write(cmd)
		if pos == scriptUnder {
			e.write("[")
			e.walk(script)
			e.write("]")
			e.write("{}")
			return
		}
		e.group(script)
		return
	}

	if s, ok := accentText(script); ok {
		if cmd := e.diacriticalCommand(pos, s); cmd != "" {
			e.write(cmd)
			e.group(base)
			return
		}
	}

	if isOperator(base) {
		e.writeBase(base)
		if !convertible {
			e.write(`\limits`)
		}
		if pos == scriptOver {
			e.write("^")
		} else {
			e.write("_")
		}
		e.writeLimit(script)
		return
	}

	switch {
	case e.ams() && pos == scriptOver:
		e.write(`\overset`)
		e.group(script)
		e.group(base)
	case e.ams():
		e.write(`\underset`)
		e.group(script)
		e.group(base)
	case pos == scriptOver:
		e.write(`\stackrel`)
		e.group(script)
		e.group(base)
	default:
		e.write(`\mathop`)
		e.group(base)
		e.write(`\limits_`)
		e.group(script)
	}
}

func (e *emitter) writeUnderOver(n UnderOver) {
	switch {
	case isAccent(n.Under):
		e.walk(Under{
			Convertible: n.Convertible,
			Base:        Over{Convertible: false, Base: n.Base, Over: n.Over},
			Under:       n.Under,
		})

	case isAccent(n.Over):
		e.walk(Over{
			Convertible: n.Convertible,
			Base:        Under{Convertible: false, Base: n.Base, Under: n.Under},
			Over:        n.Over,
		})

	case arrowCommand(n.Base) != "" && e.ams():
		e.write(arrowCommand(n.Base))
		e.write("[")
		e.walk(n.Under)
		e.write("]")
		e.group(n.Over)

	case isOperator(n.Base):
		e.writeBase(n.Base)
		if !n.Convertible {
			e.write(`\limits`)
		}
		e.write("_")
		e.writeLimit(n.Under)
		e.write("^")
		e.writeLimit(n.Over)

	default:
		e.walk(Under{
			Convertible: n.Convertible,
			Base:        Over{Convertible: n.Convertible, Base: n.Base, Over: n.Over},
			Under:       n.Under,
		})
	}
}

// writeLimit writes an operator limit. A single centered column becomes
// \substack under amsmath.
func (e *emitter) writeLimit(x Exp) {
	a, ok := x.(Array)
	if !ok || !e.ams() || len(a.Aligns) != 1 || a.Aligns[0] != AlignCenter {
		e.group(x)
		return
	}
	e.groupFunc(func() {
		e.write(`\substack`)
		e.groupFunc(func() {
			for i, row := range a.Rows {
				if i > 0 {
					e.raw(` \\ `)
				}
				for _, cell := range row {
					for _, c := range cell {
						e.walk(c)
					}
				}
			}
		})
	})
}

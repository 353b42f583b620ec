package mathtex

import "strings"

func (e *emitter) writeArray(a Array) {
	for _, al := range a.Aligns {
		if !al.valid() {
			e.fail(a, "unknown alignment %d", al)
			return
		}
	}
	switch {
	case isRLSequence(a.Aligns):
		if e.ams() {
			e.writeTable(a, "aligned", nil)
		} else {
			e.writeTable(a, "array", a.Aligns)
		}
	case allCenter(a.Aligns) && e.ams():
		e.writeTable(a, "matrix", nil)
	default:
		e.writeTable(a, "array", a.Aligns)
	}
}

// writeTable writes \begin{name}{aligns}, the rows, and \end{name}. Cells
// are joined by " & ", rows by " \\" and a newline; the last row has no
// row terminator.
func (e *emitter) writeTable(a Array, name string, aligns []Alignment) {
	e.write(`\begin{` + name + `}`)
	if len(aligns) > 0 {
		var sb strings.Builder
		for _, al := range aligns {
			sb.WriteByte(al.Letter())
		}
		e.write("{" + sb.String() + "}")
	}
	e.raw("\n")
	for i, row := range a.Rows {
		if i > 0 {
			e.raw(" \\\\\n")
		}
		for j, cell := range row {
			if j > 0 {
				e.raw(" & ")
			}
			for _, x := range cell {
				e.walk(x)
			}
		}
	}
	e.raw("\n")
	e.write(`\end{` + name + `}`)
}

// isRLSequence reports alignments of the form (Right, Left)+.
func isRLSequence(aligns []Alignment) bool {
	if len(aligns) == 0 || len(aligns)%2 != 0 {
		return false
	}
	for i := 0; i < len(aligns); i += 2 {
		if aligns[i] != AlignRight || aligns[i+1] != AlignLeft {
			return false
		}
	}
	return true
}

func allCenter(aligns []Alignment) bool {
	for _, a := range aligns {
		if a != AlignCenter {
			return false
		}
	}
	return true
}

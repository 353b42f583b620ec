package mathtex

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

// ============================================================
// Printer Tests
// ============================================================

func TestFormat_Canonical(t *testing.T) {
	input := `[ESub (EIdentifier "x") (ENumber "2"), ESpace ((-1) % 6), EOver True (EMathOperator "lim") (EText TextNormal "n")]`
	exps, err := Read(input)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := Format(exps); got != input {
		t.Errorf("Format\n  got:  %s\n  want: %s", got, input)
	}
}

func TestFormat_Pretty(t *testing.T) {
	exps, err := Read(`[EIdentifier "x", EGrouped [ENumber "1", ENumber "2"]]`)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	got := FormatWithOptions(exps, PrettyFormatOptions())
	want := "[\n  EIdentifier \"x\",\n  EGrouped [\n    ENumber \"1\",\n    ENumber \"2\"\n  ]\n]"
	if got != want {
		t.Errorf("pretty\n  got:  %q\n  want: %q", got, want)
	}
	again, err := Read(got)
	if err != nil {
		t.Fatalf("Read(pretty) failed: %v", err)
	}
	if !reflect.DeepEqual(again, exps) {
		t.Error("pretty output does not read back to the same tree")
	}
}

func TestFormatExp(t *testing.T) {
	x := UnderOver{Base: Symbol{Class: Op, Text: `\8721`}, Under: Identifier{Text: "i"}, Over: Identifier{Text: "n"}}
	want := `EUnderover False (ESymbol Op "\8721") (EIdentifier "i") (EIdentifier "n")`
	if got := FormatExp(x); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestQuote(t *testing.T) {
	tests := []string{"", "x", `a"b`, `back\slash`, "tab\there", string(rune(0x3B1)) + "1", string(rune(0x1D400))}
	for _, s := range tests {
		q := Quote(s)
		got, err := Decode(q)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", q, err)
		}
		if got != s {
			t.Errorf("Decode(Quote(%q)) = %q via %q", s, got, q)
		}
		if strings.ContainsFunc(q, func(r rune) bool { return r >= 0x80 }) {
			t.Errorf("Quote(%q) = %q is not ASCII", s, q)
		}
	}
}

// ============================================================
// Random trees
// ============================================================

var (
	randLeafTexts = []string{"x", "y", "12", `\945`, `\8722`, "+", "=", "(", "{", `\8594`, `\175`, "^", "_", `\119808`, `\8488`, "%", ""}
	randFences    = []string{"(", ")", "[", "]", "{", "}", "|", "", `\10216`, `\10217`, `\8739`, `\8214`}
	randEnvs      = []string{"amsmath", "amssymb", "mathtools", "unicode-math"}
)

type treeGen struct {
	r *rand.Rand
}

func (g treeGen) text() string { return randLeafTexts[g.r.Intn(len(randLeafTexts))] }

func (g treeGen) rational() Rational {
	den := int32(g.r.Intn(18) + 1)
	if g.r.Intn(4) == 0 {
		den = -den
	}
	return Rational{Num: int32(g.r.Intn(80) - 20), Den: den}
}

func (g treeGen) list(depth int) []Exp {
	items := []Exp{}
	for i, n := 0, g.r.Intn(4); i < n; i++ {
		items = append(items, g.exp(depth+1))
	}
	return items
}

func (g treeGen) exp(depth int) Exp {
	n := 6
	if depth < 5 {
		n = 22
	}
	switch g.r.Intn(n) {
	case 0:
		return Number{Text: g.text()}
	case 1:
		return Identifier{Text: g.text()}
	case 2:
		return MathOperator{Name: []string{"sin", "lim", "sgn", "x"}[g.r.Intn(4)]}
	case 3:
		return Symbol{Class: SymbolClass(g.r.Intn(len(symbolClassNames))), Text: g.text()}
	case 4:
		return Space{Width: g.rational()}
	case 5:
		return Text{Style: TextStyle(g.r.Intn(len(textStyleNames))), Text: g.text()}
	case 6:
		return Grouped{Items: g.list(depth)}
	case 7:
		return Styled{Style: TextStyle(g.r.Intn(len(textStyleNames))), Items: g.list(depth)}
	case 8:
		items := []Fenced{}
		for i, n := 0, g.r.Intn(3)+1; i < n; i++ {
			if g.r.Intn(4) == 0 {
				items = append(items, Separator{Text: randFences[g.r.Intn(len(randFences))]})
			} else {
				items = append(items, Content{Exp: g.exp(depth + 1)})
			}
		}
		return Delimited{
			Open:  randFences[g.r.Intn(len(randFences))],
			Close: randFences[g.r.Intn(len(randFences))],
			Items: items,
		}
	case 9:
		return Boxed{Body: g.exp(depth + 1)}
	case 10:
		return Phantom{Body: g.exp(depth + 1)}
	case 11:
		return Sqrt{Body: g.exp(depth + 1)}
	case 12:
		return Root{Index: g.exp(depth + 1), Radicand: g.exp(depth + 1)}
	case 13:
		return Fraction{Kind: FractionKind(g.r.Intn(len(fractionKindNames))), Num: g.exp(depth + 1), Den: g.exp(depth + 1)}
	case 14:
		return Sub{Base: g.exp(depth + 1), Sub: g.exp(depth + 1)}
	case 15:
		return Super{Base: g.exp(depth + 1), Sup: g.exp(depth + 1)}
	case 16:
		return Subsup{Base: g.exp(depth + 1), Sub: g.exp(depth + 1), Sup: g.exp(depth + 1)}
	case 17:
		return Over{Convertible: g.r.Intn(2) == 0, Base: g.exp(depth + 1), Over: g.exp(depth + 1)}
	case 18:
		return Under{Convertible: g.r.Intn(2) == 0, Base: g.exp(depth + 1), Under: g.exp(depth + 1)}
	case 19:
		return UnderOver{Convertible: g.r.Intn(2) == 0, Base: g.exp(depth + 1), Under: g.exp(depth + 1), Over: g.exp(depth + 1)}
	case 20:
		return Scaled{Size: g.rational(), Body: g.exp(depth + 1)}
	default:
		cols := g.r.Intn(3) + 1
		aligns := make([]Alignment, cols)
		for i := range aligns {
			aligns[i] = Alignment(g.r.Intn(len(alignmentNames)))
		}
		rows := [][][]Exp{}
		for r, n := 0, g.r.Intn(3)+1; r < n; r++ {
			row := [][]Exp{}
			for c := 0; c < cols; c++ {
				row = append(row, g.list(depth))
			}
			rows = append(rows, row)
		}
		return Array{Aligns: aligns, Rows: rows}
	}
}

// bracesBalanced reports whether every unescaped { has a matching }.
func bracesBalanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func TestRandomTrees(t *testing.T) {
	g := treeGen{r: rand.New(rand.NewSource(1))}
	for i := 0; i < 500; i++ {
		exps := g.list(0)
		exps = append(exps, g.exp(0))

		dump := Format(exps)
		again, err := Read(dump)
		if err != nil {
			t.Fatalf("tree %d: Read(Format) failed: %v\n%s", i, err, dump)
		}
		if !reflect.DeepEqual(again, exps) {
			t.Fatalf("tree %d: round trip mismatch\n%s", i, dump)
		}

		for mask := 0; mask < 1<<len(randEnvs); mask++ {
			var flags []string
			for b, name := range randEnvs {
				if mask&(1<<b) != 0 {
					flags = append(flags, name)
				}
			}
			out, err := Render(exps, NewEnv(flags...))
			if err != nil {
				t.Fatalf("tree %d env %v: Render failed: %v\n%s", i, flags, err, dump)
			}
			if !bracesBalanced(out) {
				t.Fatalf("tree %d env %v: unbalanced braces in %q\n%s", i, flags, out, dump)
			}
		}
	}
}

func FuzzRead(f *testing.F) {
	f.Add(`[ESub (EIdentifier "x") (ENumber "2")]`)
	f.Add(`[EDelimited "(" ")" [Right (EFraction NoLineFrac (EIdentifier "n") (EIdentifier "k"))]]`)
	f.Add(`[EArray [AlignCenter] [[[ENumber "1"]], [[ENumber "2"]]]]`)
	f.Add(`[ESpace ((-1) % 6), EText TextBold "a\"b"]`)
	f.Add(`[EUnderOver true (ESymbol Op "\8721") (EIdentifier "i") (EIdentifier "n")]`)

	f.Fuzz(func(t *testing.T, input string) {
		exps, err := Read(input)
		if err != nil {
			return
		}
		dump := Format(exps)
		again, err := Read(dump)
		if err != nil {
			t.Fatalf("Read(Format) failed: %v\n%s", err, dump)
		}
		if !reflect.DeepEqual(again, exps) {
			t.Fatalf("round trip mismatch\n%s", dump)
		}
		if out, err := Render(exps, DefaultEnv()); err == nil && !bracesBalanced(out) {
			t.Fatalf("unbalanced braces in %q", out)
		}
	})
}

package mathtex

import (
	"errors"
	"strings"
	"testing"

	"github.com/Neumenon/mathtex/symtab"
)

var (
	amsEnv   = NewEnv("amsmath", "amssymb")
	plainEnv = NewEnv()
)

type renderCase struct {
	name  string
	input string
	env   Env
	want  string
}

func runRenderCases(t *testing.T, tests []renderCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.input, tt.env)
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert(%s)\n  got:  %q\n  want: %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================
// Leaves
// ============================================================

func TestRender_Leaves(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"number", `[ENumber "3.14"]`, amsEnv, `3.14`},
		{"identifier", `[EIdentifier "x"]`, amsEnv, `x`},
		{"greek", `[EIdentifier "\945"]`, amsEnv, `\alpha`},
		{"multi-letter identifier", `[EIdentifier "\945x"]`, amsEnv, `{\alpha x}`},
		{"control word then letter", `[EIdentifier "\945", EIdentifier "x"]`, amsEnv, `\alpha x`},
		{"control word then digit", `[EIdentifier "\945", ENumber "2"]`, amsEnv, `\alpha 2`},
		{"control word then punct", `[EIdentifier "\945", ESymbol Pun ","]`, amsEnv, `\alpha,`},
		{"binary", `[ENumber "1", ESymbol Bin "+", ENumber "2"]`, amsEnv, `1 + 2`},
		{"minus sign", `[EIdentifier "a", ESymbol Bin "\8722", EIdentifier "b"]`, amsEnv, `a - b`},
		{"relation", `[EIdentifier "a", ESymbol Rel "=", EIdentifier "b"]`, amsEnv, `a = b`},
		{"leading relation", `[ESymbol Rel "="]`, amsEnv, `=`},
		{"accent symbol alone", `[ESymbol Accent "\710"]`, amsEnv, `\hat{}`},
		{"invisible times", `[EIdentifier "a", ESymbol Ord "\8290", EIdentifier "b"]`, amsEnv, `ab`},
		{"escaped", `[EIdentifier "\37"]`, amsEnv, `\%`},
		{"styled letter", `[EIdentifier "\8488"]`, amsEnv, `\mathfrak{Z}`},
		{"bold letter ams", `[EIdentifier "\119808"]`, amsEnv, `\mathbf{A}`},
		{"bold letter plain", `[EIdentifier "\119808"]`, plainEnv, `\mathbf{A}`},
		{"known operator", `[EMathOperator "sin", EIdentifier "x"]`, amsEnv, `\sin x`},
		{"unknown operator ams", `[EMathOperator "sgn"]`, amsEnv, `\operatorname{sgn}`},
		{"unknown operator plain", `[EMathOperator "sgn"]`, plainEnv, `\mathop{\mathrm{sgn}}`},
	})
}

func TestRender_Space(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"quad", `[ESpace (1 % 1)]`, amsEnv, `\quad`},
		{"qquad", `[ESpace (2 % 1)]`, amsEnv, `\qquad`},
		{"negative thin", `[ESpace ((-1) % 6)]`, amsEnv, `\!`},
		{"thin", `[ESpace (1 % 6)]`, amsEnv, `\,`},
		{"medium", `[ESpace (2 % 9)]`, amsEnv, `\ `},
		{"thick", `[ESpace (5 % 18)]`, amsEnv, `\;`},
		{"zero", `[ESpace (0 % 1)]`, amsEnv, ``},
		{"mspace", `[ESpace (1 % 3)]`, amsEnv, `\mspace{6mu}`},
		{"mskip", `[ESpace (1 % 3)]`, plainEnv, `\mskip{6mu}`},
		{"floor", `[ESpace ((-1) % 9)]`, amsEnv, `\mspace{-2mu}`},
		{"quad then letter", `[ESpace (1 % 1), EIdentifier "x"]`, amsEnv, `\quad x`},
	})
}

func TestRender_Text(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"normal", `[EText TextNormal "if x"]`, amsEnv, `\text{if x}`},
		{"bold", `[EText TextBold "a"]`, amsEnv, `\textbf{a}`},
		{"bold italic", `[EText TextBoldItalic "a"]`, amsEnv, `\textit{\textbf{a}}`},
		{"sans bold italic", `[EText TextSansSerifBoldItalic "a"]`, amsEnv, `\textbf{\textit{\textsf{a}}}`},
		{"escapes", `[EText TextNormal "50% & $"]`, amsEnv, `\text{50\% \& \$}`},
		{"empty", `[EText TextNormal ""]`, amsEnv, ``},
	})
}

// ============================================================
// Scripts and fractions
// ============================================================

func TestRender_Scripts(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"sub", `[ESub (EIdentifier "x") (ENumber "2")]`, amsEnv, `x_{2}`},
		{"super", `[ESuper (EIdentifier "x") (ENumber "2")]`, amsEnv, `x^{2}`},
		{"subsup", `[ESubsup (EIdentifier "x") (EIdentifier "i") (ENumber "2")]`, amsEnv, `x_{i}^{2}`},
		{"greek base", `[ESub (EIdentifier "\945") (EIdentifier "i")]`, amsEnv, `\alpha_{i}`},
		{"scripted base", `[ESuper (ESub (EIdentifier "x") (ENumber "1")) (ENumber "2")]`, amsEnv, `{x_{1}}^{2}`},
		{"multi-token script", `[ESub (EIdentifier "x") (EIdentifier "ij")]`, amsEnv, `x_{ij}`},
		{"sqrt", `[ESqrt (EIdentifier "x")]`, amsEnv, `\sqrt{x}`},
		{"root", `[ERoot (ENumber "3") (EIdentifier "x")]`, amsEnv, `\sqrt[3]{x}`},
		{"phantom", `[EPhantom (EIdentifier "x")]`, amsEnv, `\phantom{x}`},
		{"boxed ams", `[EBoxed (EIdentifier "x")]`, amsEnv, `\boxed{x}`},
		{"boxed plain", `[EBoxed (EIdentifier "x")]`, plainEnv, `x`},
		{"grouped", `[EGrouped [EIdentifier "x", ESymbol Bin "+", ENumber "1"]]`, amsEnv, `{x + 1}`},
		{"signed script", `[ESub (EIdentifier "x") (EGrouped [ESymbol Bin "\8722", ENumber "1"])]`, amsEnv, `x_{- 1}`},
		{"leading binary", `[ESymbol Bin "\8722", ENumber "1"]`, amsEnv, `- 1`},
		{"group opening relation", `[EGrouped [ESymbol Rel "=", ENumber "1"]]`, amsEnv, `{= 1}`},
	})
}

func TestRender_Fractions(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"normal", `[EFraction NormalFrac (ENumber "1") (ENumber "2")]`, amsEnv, `\frac{1}{2}`},
		{"display ams", `[EFraction DisplayFrac (ENumber "1") (ENumber "2")]`, amsEnv, `\dfrac{1}{2}`},
		{"display plain", `[EFraction DisplayFrac (ENumber "1") (ENumber "2")]`, plainEnv, `\frac{1}{2}`},
		{"inline ams", `[EFraction InlineFrac (ENumber "1") (ENumber "2")]`, amsEnv, `\tfrac{1}{2}`},
		{"noline ams", `[EFraction NoLineFrac (EIdentifier "a") (EIdentifier "b")]`, amsEnv, `\genfrac{}{}{0pt}{}{a}{b}`},
		{"noline plain", `[EFraction NoLineFrac (EIdentifier "a") (EIdentifier "b")]`, plainEnv, `{a \atop b}`},
	})
}

// ============================================================
// Fences
// ============================================================

func TestRender_Delimited(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"bare parens", `[EDelimited "(" ")" [Right (EIdentifier "x")]]`, amsEnv, `(x)`},
		{"bare mixed", `[EDelimited "[" ")" [Right (ENumber "0"), Right (ESymbol Pun ","), Right (ENumber "1")]]`, amsEnv, `[0,1)`},
		{"tall content", `[EDelimited "(" ")" [Right (EFraction NormalFrac (ENumber "1") (ENumber "2"))]]`, amsEnv,
			`\left( \frac{1}{2} \right)`},
		{"braces", `[EDelimited "{" "}" [Right (EIdentifier "x")]]`, amsEnv, `\left\{ x \right\}`},
		{"separator", `[EDelimited "{" "}" [Right (EIdentifier "x"), Left "|", Right (EIdentifier "y")]]`, amsEnv,
			`\left\{ x \middle| y \right\}`},
		{"angles", `[EDelimited "\10216" "\10217" [Right (EIdentifier "x")]]`, amsEnv, `\left\langle x \right\rangle`},
		{"invalid fence", `[EDelimited "(" "\8739" [Right (EFraction NormalFrac (ENumber "1") (ENumber "2"))]]`, amsEnv,
			`\left( \frac{1}{2} \right.\mid`},
		{"empty close", `[EDelimited "(" "" [Right (EIdentifier "x")]]`, amsEnv, `\left( x \right.`},
		{"binom ams", `[EDelimited "(" ")" [Right (EFraction NoLineFrac (EIdentifier "n") (EIdentifier "k"))]]`, amsEnv,
			`\binom{n}{k}`},
		{"binom plain", `[EDelimited "(" ")" [Right (EFraction NoLineFrac (EIdentifier "n") (EIdentifier "k"))]]`, plainEnv,
			`{n \choose k}`},
		{"genfrac brackets", `[EDelimited "[" "]" [Right (EFraction NoLineFrac (EIdentifier "n") (EIdentifier "k"))]]`, amsEnv,
			`\genfrac{[}{]}{0pt}{}{n}{k}`},
		{"brace plain", `[EDelimited "{" "}" [Right (EFraction NoLineFrac (EIdentifier "n") (EIdentifier "k"))]]`, plainEnv,
			`{n \brace k}`},
	})
}

func TestRender_Scaled(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"big", `[EScaled (6 % 5) (ESymbol Open "(")]`, amsEnv, `\big(`},
		{"Big", `[EScaled (9 % 5) (ESymbol Open "[")]`, amsEnv, `\Big[`},
		{"bigg", `[EScaled (2 % 1) (ESymbol Close ")")]`, amsEnv, `\bigg)`},
		{"Bigg", `[EScaled (3 % 1) (ESymbol Close ")")]`, amsEnv, `\Bigg)`},
		{"too large", `[EScaled (4 % 1) (ESymbol Close ")")]`, amsEnv, `)`},
		{"non-fence body", `[EScaled (6 % 5) (EIdentifier "x")]`, amsEnv, `x`},
	})
}

// ============================================================
// Over / Under
// ============================================================

func TestRender_OverUnder(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"hat", `[EOver False (EIdentifier "x") (ESymbol Accent "^")]`, amsEnv, `\hat{x}`},
		{"overline", `[EOver False (EIdentifier "x") (ESymbol TOver "\175")]`, amsEnv, `\overline{x}`},
		{"underline", `[EUnder False (EIdentifier "x") (ESymbol TUnder "_")]`, amsEnv, `\underline{x}`},
		{"overbrace", `[EOver False (EIdentifier "x") (ESymbol TOver "\9182")]`, amsEnv, `\overbrace{x}`},
		{"overbracket needs mathtools", `[EOver False (EIdentifier "x") (ESymbol TOver "\9140")]`,
			NewEnv("amsmath", "mathtools"), `\overbracket{x}`},
		{"arrow over", `[EOver False (ESymbol Rel "\8594") (EIdentifier "f")]`, amsEnv, `\xrightarrow{f}`},
		{"arrow under", `[EUnder False (ESymbol Rel "\8592") (EIdentifier "f")]`, amsEnv, `\xleftarrow[f]{}`},
		{"arrow both", `[EUnderover False (ESymbol Rel "\8594") (EIdentifier "a") (EIdentifier "b")]`, amsEnv,
			`\xrightarrow[a]{b}`},
		{"overset", `[EOver False (EIdentifier "x") (EIdentifier "y")]`, amsEnv, `\overset{y}{x}`},
		{"underset", `[EUnder False (EIdentifier "x") (EIdentifier "y")]`, amsEnv, `\underset{y}{x}`},
		{"stackrel", `[EOver False (EIdentifier "x") (EIdentifier "y")]`, plainEnv, `\stackrel{y}{x}`},
		{"mathop limits", `[EUnder False (EIdentifier "x") (EIdentifier "y")]`, plainEnv, `\mathop{x}\limits_{y}`},
		{"sum limits", `[EUnderover False (ESymbol Op "\8721") (EIdentifier "i") (EIdentifier "n")]`, amsEnv,
			`\sum\limits_{i}^{n}`},
		{"sum convertible", `[EUnderover True (ESymbol Op "\8721") (EIdentifier "i") (EIdentifier "n")]`, amsEnv,
			`\sum_{i}^{n}`},
		{"lim", `[EUnder True (EMathOperator "lim") (EIdentifier "n")]`, amsEnv, `\lim_{n}`},
		{"substack", `[EUnder True (ESymbol Op "\8721") (EArray [AlignCenter] [[[EIdentifier "i"]], [[EIdentifier "j"]]])]`,
			amsEnv, `\sum_{\substack{i \\ j}}`},
		{"underover accent", `[EUnderover False (EIdentifier "x") (ESymbol Accent "\818") (EIdentifier "y")]`, amsEnv,
			`\underline{\overset{y}{x}}`},
		{"underover plain base", `[EUnderover False (EIdentifier "x") (EIdentifier "a") (EIdentifier "b")]`, amsEnv,
			`\underset{a}{\overset{b}{x}}`},
	})
}

// ============================================================
// Arrays
// ============================================================

func TestRender_Arrays(t *testing.T) {
	matrix := `EArray [AlignCenter, AlignCenter] [[[ENumber "1"], [ENumber "2"]], [[ENumber "3"], [ENumber "4"]]]`
	fenced := func(open, close string) string {
		return `[EDelimited "` + open + `" "` + close + `" [Right (` + matrix + `)]]`
	}
	runRenderCases(t, []renderCase{
		{"bmatrix", fenced("[", "]"), amsEnv,
			"\\begin{bmatrix}\n1 & 2 \\\\\n3 & 4\n\\end{bmatrix}"},
		{"array plain", fenced("[", "]"), plainEnv,
			"\\left[ \\begin{array}{cc}\n1 & 2 \\\\\n3 & 4\n\\end{array} \\right]"},
		{"pmatrix", fenced("(", ")"), amsEnv,
			"\\begin{pmatrix}\n1 & 2 \\\\\n3 & 4\n\\end{pmatrix}"},
		{"vmatrix", fenced("|", "|"), amsEnv,
			"\\begin{vmatrix}\n1 & 2 \\\\\n3 & 4\n\\end{vmatrix}"},
		{"bare matrix", "[" + matrix + "]", amsEnv, "\\begin{matrix}\n1 & 2 \\\\\n3 & 4\n\\end{matrix}"},
		{"aligned", `[EArray [AlignRight, AlignLeft] [[[EIdentifier "x"], [ESymbol Rel "=", ENumber "1"]]]]`, amsEnv,
			"\\begin{aligned}\nx & = 1\n\\end{aligned}"},
		{"aligned plain", `[EArray [AlignRight, AlignLeft] [[[EIdentifier "x"], [ESymbol Rel "=", ENumber "1"]]]]`, plainEnv,
			"\\begin{array}{rl}\nx & = 1\n\\end{array}"},
		{"mixed", `[EArray [AlignLeft, AlignCenter] [[[EIdentifier "a"], [EIdentifier "b"]]]]`, amsEnv,
			"\\begin{array}{lc}\na & b\n\\end{array}"},
		{"cases", `[EDelimited "{" "" [Right (EArray [AlignLeft, AlignLeft] [[[ENumber "1"], [EText TextNormal "if"]], [[ENumber "0"], [EText TextNormal "else"]]])]]`,
			amsEnv, "\\begin{cases}\n1 & \\text{if} \\\\\n0 & \\text{else}\n\\end{cases}"},
	})
}

// ============================================================
// Styles
// ============================================================

func TestRender_Styled(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"bold ams", `[EStyled TextBold [EIdentifier "x"]]`, amsEnv, `\mathbf{x}`},
		{"bold plain", `[EStyled TextBold [EIdentifier "x"]]`, plainEnv, `\mathbf{x}`},
		{"double struck", `[EStyled TextDoubleStruck [EIdentifier "R"]]`, amsEnv, `\mathbb{R}`},
		{"double struck fallback", `[EStyled TextDoubleStruck [EIdentifier "R"]]`, plainEnv, `\mathbf{R}`},
		{"bold italic", `[EStyled TextBoldItalic [EIdentifier "x"]]`, amsEnv, `\boldsymbol{\mathit{x}}`},
		{"unicode-math", `[EStyled TextBoldItalic [EIdentifier "x"]]`, NewEnv("unicode-math"), `\mathbfit{x}`},
		{"same-style letter is plain", `[EStyled TextBold [EIdentifier "\119808"]]`, amsEnv, `\mathbf{A}`},
		{"fraktur", `[EStyled TextFraktur [EIdentifier "g"]]`, amsEnv, `\mathfrak{g}`},
	})
}

// ============================================================
// Errors
// ============================================================

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		exps []Exp
	}{
		{"nil child", []Exp{Sub{Base: Identifier{Text: "x"}}}},
		{"zero space", []Exp{Space{Width: Rational{1, 0}}}},
		{"zero scale", []Exp{Scaled{Size: Rational{1, 0}, Body: Identifier{Text: "x"}}}},
		{"bad escape", []Exp{Identifier{Text: `\99999999`}}},
		{"control escape", []Exp{Identifier{Text: `\0`}}},
		{"control escape in text", []Exp{Text{Style: TextNormal, Text: `a\27b`}}},
		{"bad class", []Exp{Symbol{Class: SymbolClass(99), Text: "x"}}},
		{"bad style", []Exp{Text{Style: TextStyle(99), Text: "x"}}},
		{"bad kind", []Exp{Fraction{Kind: FractionKind(9), Num: Number{"1"}, Den: Number{"2"}}}},
		{"bad alignment", []Exp{Array{Aligns: []Alignment{Alignment(7)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.exps, amsEnv)
			if err == nil {
				t.Fatalf("expected error, got %q", out)
			}
			if out != "" {
				t.Errorf("partial output %q returned with error", out)
			}
			var re *RenderError
			if !errors.As(err, &re) {
				t.Errorf("expected *RenderError, got %T", err)
			}
		})
	}
}

func TestConvert_ParseErrorStopsRender(t *testing.T) {
	_, err := Convert(`[ESub (EIdentifier "x")]`, amsEnv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestRenderer_CustomTable(t *testing.T) {
	cmd := "env,codepoint,category,command\nbase,x,Ord,\\chi\n"
	styled := "style,letter,codepoint\n"
	table, err := symtab.Load(strings.NewReader(cmd), strings.NewReader(styled))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	exps, err := Read(`[EIdentifier "x", EIdentifier "y"]`)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	got, err := NewRenderer(table).Render(exps, amsEnv)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != `\chi y` {
		t.Errorf("got %q, want %q", got, `\chi y`)
	}
}

func TestInlineMarkdown(t *testing.T) {
	exps, err := Read(`[EText TextNormal "cost $5: ", EIdentifier "x", ESymbol Rel "=", ENumber "5", EText TextNormal " #1"]`)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	got, err := InlineMarkdown(exps, amsEnv)
	if err != nil {
		t.Fatalf("InlineMarkdown failed: %v", err)
	}
	want := `cost \$5: \(x = 5\) \#1`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

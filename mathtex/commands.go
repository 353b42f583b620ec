package mathtex

import (
	"strings"

	"github.com/Neumenon/mathtex/symtab"
)

// mathOperators are the operator names LaTeX defines as \name.
var mathOperators = map[string]bool{
	"arccos": true, "arcsin": true, "arctan": true, "arg": true,
	"cos": true, "cosh": true, "cot": true, "coth": true, "csc": true,
	"deg": true, "det": true, "dim": true, "exp": true, "gcd": true,
	"hom": true, "inf": true, "ker": true, "lg": true, "lim": true,
	"liminf": true, "limsup": true, "ln": true, "log": true, "max": true,
	"min": true, "Pr": true, "sec": true, "sin": true, "sinh": true,
	"sup": true, "tan": true, "tanh": true,
}

func isMathOperator(name string) bool {
	return mathOperators[name]
}

// diacriticals maps accent characters to the command that places them
// over (or under) a base.
var diacriticals = map[string]string{
	"\u00B4": `\acute`,
	"\u0301": `\acute`,
	"`":      `\grave`,
	"\u0300": `\grave`,
	"\u02D8": `\breve`,
	"\u0306": `\breve`,
	"\u02C7": `\check`,
	"\u030C": `\check`,
	".":      `\dot`,
	"\u02D9": `\dot`,
	"\u0307": `\dot`,
	"\u00A8": `\ddot`,
	"\u0308": `\ddot`,
	"\u20DB": `\dddot`,
	"\u20DC": `\ddddot`,
	"\u00B0": `\mathring`,
	"\u030A": `\mathring`,
	"\u20D7": `\vec`,
	"\u2192": `\overrightarrow`,
	"\u20D6": `\overleftarrow`,
	"\u2190": `\overleftarrow`,
	"^":      `\hat`,
	"\u02C6": `\widehat`,
	"\u0302": `\widehat`,
	"~":      `\tilde`,
	"\u02DC": `\widetilde`,
	"\u0303": `\widetilde`,
	"\u0304": `\bar`,
	"\u203E": `\bar`,
	"\u23DE": `\overbrace`,
	"\u23B4": `\overbracket`,
	"\u00AF": `\overline`,
	"\u0305": `\overline`,
	"\u23DF": `\underbrace`,
	"\u23B5": `\underbracket`,
	"\u0332": `\underline`,
	"_":      `\underline`,
	"\u0333": `\underbar`,
}

// belowCommands are the diacritical commands that go under the base.
var belowCommands = map[string]bool{
	`\underbrace`:   true,
	`\underline`:    true,
	`\underbar`:     true,
	`\underbracket`: true,
}

// packageCommands lists diacritical commands that need an extra package.
var packageCommands = map[string]string{
	`\overbracket`:  "mathtools",
	`\underbracket`: "mathtools",
}

// diacriticalCommand returns the command for accent s at the given
// position, or "" if none applies.
func (e *emitter) diacriticalCommand(pos scriptPos, s string) string {
	cmd, ok := diacriticals[s]
	if !ok {
		return ""
	}
	if pkg, ok := packageCommands[cmd]; ok && !e.env.Has(pkg) {
		return ""
	}
	below := belowCommands[cmd]
	if below != (pos == scriptUnder) {
		return ""
	}
	return cmd
}

// textCommands returns the nested text-mode commands for a style, outer
// first.
func textCommands(style TextStyle) []string {
	switch style {
	case TextBold, TextBoldScript, TextBoldFraktur:
		return []string{`\textbf`}
	case TextItalic:
		return []string{`\textit`}
	case TextMonospace:
		return []string{`\texttt`}
	case TextSansSerif:
		return []string{`\textsf`}
	case TextBoldItalic:
		return []string{`\textit`, `\textbf`}
	case TextSansSerifBold:
		return []string{`\textbf`, `\textsf`}
	case TextSansSerifItalic:
		return []string{`\textit`, `\textsf`}
	case TextSansSerifBoldItalic:
		return []string{`\textbf`, `\textit`, `\textsf`}
	default:
		return []string{`\text`}
	}
}

// mathStyle returns the nested math-alphabet commands for a style, outer
// first. With unicode-math every style has a single command; otherwise
// combined styles are built from the classic alphabets.
func (e *emitter) mathStyle(style TextStyle) []string {
	if e.env.Has("unicode-math") {
		return []string{symtab.StyleCommand(style.String())}
	}
	bold := e.pick(`\boldsymbol`, `\mathbf`)
	switch style {
	case TextDoubleStruck:
		if e.env.Has("amssymb") || e.env.Has("amsfonts") || e.env.Has("mathbb") {
			return []string{`\mathbb`}
		}
		return []string{`\mathbf`}
	case TextBoldItalic:
		return []string{bold, `\mathit`}
	case TextSansSerifBold:
		return []string{bold, `\mathsf`}
	case TextSansSerifItalic:
		return []string{`\mathsf`, `\mathit`}
	case TextSansSerifBoldItalic:
		return []string{bold, `\mathsf`, `\mathit`}
	case TextBoldScript:
		return []string{bold, `\mathcal`}
	case TextBoldFraktur:
		return []string{bold, `\mathfrak`}
	default:
		return []string{symtab.StyleCommand(style.String())}
	}
}

// wrapCommands nests body inside each command: \a{\b{body}}.
func wrapCommands(cmds []string, body string) string {
	var sb strings.Builder
	for _, c := range cmds {
		sb.WriteString(c)
		sb.WriteByte('{')
	}
	sb.WriteString(body)
	sb.WriteString(strings.Repeat("}", len(cmds)))
	return sb.String()
}

func parseStyleName(name string) (TextStyle, bool) {
	for i, n := range textStyleNames {
		if n == name {
			return TextStyle(i), true
		}
	}
	return 0, false
}

package mathtex

import "fmt"

// Exp is a node of the expression tree. The set of node types is closed:
// every implementation lives in this file.
type Exp interface {
	// Keyword returns the dump keyword of the node, e.g. "ESub".
	Keyword() string
	exp()
}

// ============================================================
// Enumerations
// ============================================================

// SymbolClass is the TeX atom class of a symbol.
type SymbolClass uint8

const (
	Ord SymbolClass = iota
	Op
	Bin
	Rel
	Open
	Close
	Pun
	Accent
	Fence
	TOver
	TUnder
	Alpha
	BotAccent
	Rad
)

var symbolClassNames = [...]string{
	Ord: "Ord", Op: "Op", Bin: "Bin", Rel: "Rel", Open: "Open",
	Close: "Close", Pun: "Pun", Accent: "Accent", Fence: "Fence",
	TOver: "TOver", TUnder: "TUnder", Alpha: "Alpha",
	BotAccent: "BotAccent", Rad: "Rad",
}

// String returns the dump name of the class.
func (c SymbolClass) String() string {
	if int(c) < len(symbolClassNames) {
		return symbolClassNames[c]
	}
	return fmt.Sprintf("SymbolClass(%d)", c)
}

func (c SymbolClass) valid() bool { return int(c) < len(symbolClassNames) }

// TextStyle selects a math alphabet or text font.
type TextStyle uint8

const (
	TextNormal TextStyle = iota
	TextBold
	TextItalic
	TextMonospace
	TextSansSerif
	TextDoubleStruck
	TextScript
	TextFraktur
	TextBoldItalic
	TextSansSerifBold
	TextSansSerifBoldItalic
	TextBoldScript
	TextBoldFraktur
	TextSansSerifItalic
)

var textStyleNames = [...]string{
	TextNormal:              "TextNormal",
	TextBold:                "TextBold",
	TextItalic:              "TextItalic",
	TextMonospace:           "TextMonospace",
	TextSansSerif:           "TextSansSerif",
	TextDoubleStruck:        "TextDoubleStruck",
	TextScript:              "TextScript",
	TextFraktur:             "TextFraktur",
	TextBoldItalic:          "TextBoldItalic",
	TextSansSerifBold:       "TextSansSerifBold",
	TextSansSerifBoldItalic: "TextSansSerifBoldItalic",
	TextBoldScript:          "TextBoldScript",
	TextBoldFraktur:         "TextBoldFraktur",
	TextSansSerifItalic:     "TextSansSerifItalic",
}

// String returns the dump name of the style.
func (s TextStyle) String() string {
	if int(s) < len(textStyleNames) {
		return textStyleNames[s]
	}
	return fmt.Sprintf("TextStyle(%d)", s)
}

func (s TextStyle) valid() bool { return int(s) < len(textStyleNames) }

// FractionKind selects the fraction form.
type FractionKind uint8

const (
	NormalFrac FractionKind = iota
	DisplayFrac
	InlineFrac
	NoLineFrac
)

var fractionKindNames = [...]string{
	NormalFrac:  "NormalFrac",
	DisplayFrac: "DisplayFrac",
	InlineFrac:  "InlineFrac",
	NoLineFrac:  "NoLineFrac",
}

func (k FractionKind) String() string {
	if int(k) < len(fractionKindNames) {
		return fractionKindNames[k]
	}
	return fmt.Sprintf("FractionKind(%d)", k)
}

func (k FractionKind) valid() bool { return int(k) < len(fractionKindNames) }

// Alignment is a column alignment of an Array.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var alignmentNames = [...]string{
	AlignLeft:   "AlignLeft",
	AlignRight:  "AlignRight",
	AlignCenter: "AlignCenter",
}

func (a Alignment) String() string {
	if int(a) < len(alignmentNames) {
		return alignmentNames[a]
	}
	return fmt.Sprintf("Alignment(%d)", a)
}

// Letter returns the array column letter (l, r or c).
func (a Alignment) Letter() byte {
	switch a {
	case AlignLeft:
		return 'l'
	case AlignRight:
		return 'r'
	default:
		return 'c'
	}
}

func (a Alignment) valid() bool { return int(a) < len(alignmentNames) }

// Rational is an exact width or scale factor. Den is never zero in a tree
// produced by the reader.
type Rational struct {
	Num int32
	Den int32
}

// String returns the dump form, e.g. "(1 % 2)" or "((-1) % 2)".
func (q Rational) String() string {
	return fmt.Sprintf("(%s %% %s)", ratPart(q.Num), ratPart(q.Den))
}

func ratPart(n int32) string {
	if n < 0 {
		return fmt.Sprintf("(%d)", n)
	}
	return fmt.Sprintf("%d", n)
}

// Float returns the value as a float64.
func (q Rational) Float() float64 {
	return float64(q.Num) / float64(q.Den)
}

// ============================================================
// Leaves
// ============================================================

// Number is a numeric literal.
type Number struct{ Text string }

// Identifier is a variable name or other ordinary letters.
type Identifier struct{ Text string }

// MathOperator is a named operator such as sin or lim.
type MathOperator struct{ Name string }

// Symbol is a single symbol with its atom class.
type Symbol struct {
	Class SymbolClass
	Text  string
}

// Space is horizontal space measured in em.
type Space struct{ Width Rational }

// Text is text content in the given style.
type Text struct {
	Style TextStyle
	Text  string
}

// ============================================================
// Composites
// ============================================================

// Grouped is a list of expressions emitted as one TeX group.
type Grouped struct{ Items []Exp }

// Styled applies a math alphabet to its children.
type Styled struct {
	Style TextStyle
	Items []Exp
}

// Fenced is an item inside a Delimited: either a Separator or Content.
type Fenced interface {
	fenced()
}

// Separator is a middle fence such as | in a set-builder.
type Separator struct{ Text string }

// Content is an ordinary expression between the fences.
type Content struct{ Exp Exp }

// Delimited is a fenced sequence.
type Delimited struct {
	Open  string
	Close string
	Items []Fenced
}

// Boxed draws a box around its body.
type Boxed struct{ Body Exp }

// Phantom takes up the space of its body without drawing it.
type Phantom struct{ Body Exp }

// Sqrt is a square root.
type Sqrt struct{ Body Exp }

// Root is an n-th root.
type Root struct {
	Index    Exp
	Radicand Exp
}

// Fraction is a fraction of the given kind.
type Fraction struct {
	Kind FractionKind
	Num  Exp
	Den  Exp
}

// Sub is a subscript.
type Sub struct {
	Base Exp
	Sub  Exp
}

// Super is a superscript.
type Super struct {
	Base Exp
	Sup  Exp
}

// Subsup carries both scripts.
type Subsup struct {
	Base Exp
	Sub  Exp
	Sup  Exp
}

// Over places a script above the base. Convertible means the script may
// be rendered as a superscript in inline style.
type Over struct {
	Convertible bool
	Base        Exp
	Over        Exp
}

// Under places a script below the base.
type Under struct {
	Convertible bool
	Base        Exp
	Under       Exp
}

// UnderOver places scripts below and above the base.
type UnderOver struct {
	Convertible bool
	Base        Exp
	Under       Exp
	Over        Exp
}

// Scaled resizes its body, typically a fence.
type Scaled struct {
	Size Rational
	Body Exp
}

// Array is a matrix-like layout. Rows hold cells; a cell is a sequence of
// expressions.
type Array struct {
	Aligns []Alignment
	Rows   [][][]Exp
}

func (Number) exp()       {}
func (Identifier) exp()   {}
func (MathOperator) exp() {}
func (Symbol) exp()       {}
func (Space) exp()        {}
func (Text) exp()         {}
func (Grouped) exp()      {}
func (Styled) exp()       {}
func (Delimited) exp()    {}
func (Boxed) exp()        {}
func (Phantom) exp()      {}
func (Sqrt) exp()         {}
func (Root) exp()         {}
func (Fraction) exp()     {}
func (Sub) exp()          {}
func (Super) exp()        {}
func (Subsup) exp()       {}
func (Over) exp()         {}
func (Under) exp()        {}
func (UnderOver) exp()    {}
func (Scaled) exp()       {}
func (Array) exp()        {}

func (Separator) fenced() {}
func (Content) fenced()   {}

func (Number) Keyword() string       { return "ENumber" }
func (Identifier) Keyword() string   { return "EIdentifier" }
func (MathOperator) Keyword() string { return "EMathOperator" }
func (Symbol) Keyword() string       { return "ESymbol" }
func (Space) Keyword() string        { return "ESpace" }
func (Text) Keyword() string         { return "EText" }
func (Grouped) Keyword() string      { return "EGrouped" }
func (Styled) Keyword() string       { return "EStyled" }
func (Delimited) Keyword() string    { return "EDelimited" }
func (Boxed) Keyword() string        { return "EBoxed" }
func (Phantom) Keyword() string      { return "EPhantom" }
func (Sqrt) Keyword() string         { return "ESqrt" }
func (Root) Keyword() string         { return "ERoot" }
func (Fraction) Keyword() string     { return "EFraction" }
func (Sub) Keyword() string          { return "ESub" }
func (Super) Keyword() string        { return "ESuper" }
func (Subsup) Keyword() string       { return "ESubsup" }
func (Over) Keyword() string         { return "EOver" }
func (Under) Keyword() string        { return "EUnder" }
func (UnderOver) Keyword() string    { return "EUnderover" }
func (Scaled) Keyword() string       { return "EScaled" }
func (Array) Keyword() string        { return "EArray" }

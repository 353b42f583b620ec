package mathtex

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError represents a reader error with location.
type ParseError struct {
	Message    string
	Pos        Position
	Near       string // input slice at the failure point
	Suggestion string // closest keyword, when the failure is an unknown keyword
	Incomplete bool   // input ended before the expression was complete
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %s", e.Message, e.Pos)
	if e.Near != "" {
		fmt.Fprintf(&sb, " near %q", e.Near)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, " (did you mean %s?)", e.Suggestion)
	}
	return sb.String()
}

// IsIncomplete reports whether err is a ParseError caused by running out of
// input. Interactive readers use it to keep collecting lines.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

// Parser reads the AST dump.
type Parser struct {
	input  string
	stream *TokenStream
}

// Read parses a document: a bracketed, comma-separated list of
// expressions.
func Read(input string) ([]Exp, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	exps, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return exps, nil
}

// ReadExp parses a single bare expression.
func ReadExp(input string) (Exp, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExp()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e, nil
}

func newParser(input string) (*Parser, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	return &Parser{input: input, stream: NewTokenStream(tokens)}, nil
}

// ============================================================
// Errors
// ============================================================

func (p *Parser) errorAt(tok Token, format string, args ...any) *ParseError {
	return &ParseError{
		Message:    fmt.Sprintf(format, args...),
		Pos:        tok.Pos,
		Near:       excerpt(p.input, tok.Pos.Offset),
		Incomplete: tok.Type == TokenEOF,
	}
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.stream.Peek()
	if tok.Type != typ {
		return tok, p.errorAt(tok, "expected %s, got %s", typ, tok)
	}
	p.stream.Advance()
	return tok, nil
}

func (p *Parser) expectEnd() error {
	if tok := p.stream.Peek(); tok.Type != TokenEOF {
		return p.errorAt(tok, "unexpected trailing input %s", tok)
	}
	return nil
}

// ============================================================
// Expressions
// ============================================================

// parseExp dispatches on the leading keyword.
func (p *Parser) parseExp() (Exp, error) {
	tok := p.stream.Peek()
	if tok.Type != TokenWord {
		return nil, p.errorAt(tok, "expected expression keyword, got %s", tok)
	}
	p.stream.Advance()

	switch tok.Value {
	case "ENumber":
		s, err := p.parseString()
		return Number{Text: s}, err

	case "EIdentifier":
		s, err := p.parseString()
		return Identifier{Text: s}, err

	case "EMathOperator":
		s, err := p.parseString()
		return MathOperator{Name: s}, err

	case "ESymbol":
		class, err := p.parseSymbolClass()
		if err != nil {
			return nil, err
		}
		s, err := p.parseString()
		return Symbol{Class: class, Text: s}, err

	case "ESpace":
		q, err := p.parseRational()
		return Space{Width: q}, err

	case "EText":
		style, err := p.parseTextStyle()
		if err != nil {
			return nil, err
		}
		s, err := p.parseString()
		return Text{Style: style, Text: s}, err

	case "EStyled":
		style, err := p.parseTextStyle()
		if err != nil {
			return nil, err
		}
		items, err := p.parseList()
		return Styled{Style: style, Items: items}, err

	case "EGrouped":
		items, err := p.parseList()
		return Grouped{Items: items}, err

	case "EDelimited":
		return p.parseDelimited()

	case "EBoxed":
		e, err := p.parseArg()
		return Boxed{Body: e}, err

	case "EPhantom":
		e, err := p.parseArg()
		return Phantom{Body: e}, err

	case "ESqrt":
		e, err := p.parseArg()
		return Sqrt{Body: e}, err

	case "ERoot":
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Root{Index: args[0], Radicand: args[1]}, nil

	case "ESub":
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Sub{Base: args[0], Sub: args[1]}, nil

	case "ESuper":
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Super{Base: args[0], Sup: args[1]}, nil

	case "ESubsup":
		args, err := p.parseArgs(3)
		if err != nil {
			return nil, err
		}
		return Subsup{Base: args[0], Sub: args[1], Sup: args[2]}, nil

	case "EFraction":
		kind, err := p.parseFractionKind()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Fraction{Kind: kind, Num: args[0], Den: args[1]}, nil

	case "EScaled":
		q, err := p.parseRational()
		if err != nil {
			return nil, err
		}
		e, err := p.parseArg()
		return Scaled{Size: q, Body: e}, err

	case "EOver":
		conv, err := p.parseBool()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Over{Convertible: conv, Base: args[0], Over: args[1]}, nil

	case "EUnder":
		conv, err := p.parseBool()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		return Under{Convertible: conv, Base: args[0], Under: args[1]}, nil

	case "EUnderover", "EUnderOver":
		conv, err := p.parseBool()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs(3)
		if err != nil {
			return nil, err
		}
		return UnderOver{Convertible: conv, Base: args[0], Under: args[1], Over: args[2]}, nil

	case "EArray":
		return p.parseArray()
	}

	pe := p.errorAt(tok, "unknown expression keyword %q", tok.Value)
	pe.Suggestion = suggest(tok.Value, expKeywords)
	return nil, pe
}

// parseArg parses a parenthesized expression.
func (p *Parser) parseArg() (Exp, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	e, err := p.parseExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseArgs(n int) ([]Exp, error) {
	args := make([]Exp, n)
	for i := 0; i < n; i++ {
		e, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return args, nil
}

// parseList parses [Exp, Exp, ...].
func (p *Parser) parseList() ([]Exp, error) {
	items := []Exp{}
	err := p.parseBracketed(func() error {
		e, err := p.parseExp()
		if err != nil {
			return err
		}
		items = append(items, e)
		return nil
	})
	return items, err
}

// parseBracketed parses "[" [elem {"," elem}] "]".
func (p *Parser) parseBracketed(elem func() error) error {
	if _, err := p.expect(TokenLBracket); err != nil {
		return err
	}
	if p.stream.Match(TokenRBracket) {
		return nil
	}
	for {
		if err := elem(); err != nil {
			return err
		}
		if p.stream.Match(TokenComma) {
			continue
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return err
		}
		return nil
	}
}

func (p *Parser) parseDelimited() (Exp, error) {
	open, err := p.parseString()
	if err != nil {
		return nil, err
	}
	closing, err := p.parseString()
	if err != nil {
		return nil, err
	}
	items := []Fenced{}
	err = p.parseBracketed(func() error {
		tok := p.stream.Peek()
		if tok.Type == TokenWord {
			switch tok.Value {
			case "Left":
				p.stream.Advance()
				s, err := p.parseString()
				if err != nil {
					return err
				}
				items = append(items, Separator{Text: s})
				return nil
			case "Right":
				p.stream.Advance()
				e, err := p.parseArg()
				if err != nil {
					return err
				}
				items = append(items, Content{Exp: e})
				return nil
			}
		}
		pe := p.errorAt(tok, "expected Left or Right, got %s", tok)
		if tok.Type == TokenWord {
			pe.Suggestion = suggest(tok.Value, []string{"Left", "Right"})
		}
		return pe
	})
	if err != nil {
		return nil, err
	}
	return Delimited{Open: open, Close: closing, Items: items}, nil
}

func (p *Parser) parseArray() (Exp, error) {
	aligns := []Alignment{}
	err := p.parseBracketed(func() error {
		a, err := p.parseAlignment()
		if err != nil {
			return err
		}
		aligns = append(aligns, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := [][][]Exp{}
	err = p.parseBracketed(func() error {
		row := [][]Exp{}
		err := p.parseBracketed(func() error {
			cell, err := p.parseList()
			if err != nil {
				return err
			}
			row = append(row, cell)
			return nil
		})
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Array{Aligns: aligns, Rows: rows}, nil
}

// ============================================================
// Scalars
// ============================================================

func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(TokenString)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (p *Parser) parseBool() (bool, error) {
	tok := p.stream.Peek()
	if tok.Type == TokenWord {
		switch tok.Value {
		case "True", "true":
			p.stream.Advance()
			return true, nil
		case "False", "false":
			p.stream.Advance()
			return false, nil
		}
	}
	return false, p.errorAt(tok, "expected True or False, got %s", tok)
}

// parseRational parses (N % D). Either part may be negative and may carry
// its own parentheses: ((-1) % 2), (-1 % 2), (1 % (-2)).
func (p *Parser) parseRational() (Rational, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return Rational{}, err
	}
	num, err := p.parseInt()
	if err != nil {
		return Rational{}, err
	}
	if _, err := p.expect(TokenPercent); err != nil {
		return Rational{}, err
	}
	denTok := p.stream.Peek()
	den, err := p.parseInt()
	if err != nil {
		return Rational{}, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return Rational{}, err
	}
	if den == 0 {
		return Rational{}, p.errorAt(denTok, "zero denominator")
	}
	return Rational{Num: num, Den: den}, nil
}

func (p *Parser) parseInt() (int32, error) {
	paren := p.stream.Match(TokenLParen)
	neg := p.stream.Match(TokenMinus)
	tok, err := p.expect(TokenInt)
	if err != nil {
		return 0, err
	}
	if paren {
		if _, err := p.expect(TokenRParen); err != nil {
			return 0, err
		}
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if neg {
		n = -n
	}
	if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, p.errorAt(tok, "integer %s out of range", tok.Value)
	}
	return int32(n), nil
}

func (p *Parser) parseSymbolClass() (SymbolClass, error) {
	i, err := p.parseEnum("symbol class", symbolClassNames[:])
	return SymbolClass(i), err
}

func (p *Parser) parseTextStyle() (TextStyle, error) {
	i, err := p.parseEnum("text style", textStyleNames[:])
	return TextStyle(i), err
}

func (p *Parser) parseFractionKind() (FractionKind, error) {
	i, err := p.parseEnum("fraction kind", fractionKindNames[:])
	return FractionKind(i), err
}

func (p *Parser) parseAlignment() (Alignment, error) {
	i, err := p.parseEnum("alignment", alignmentNames[:])
	return Alignment(i), err
}

// parseEnum matches a whole word against names and returns its index.
func (p *Parser) parseEnum(what string, names []string) (int, error) {
	tok := p.stream.Peek()
	if tok.Type == TokenWord {
		for i, name := range names {
			if tok.Value == name {
				p.stream.Advance()
				return i, nil
			}
		}
	}
	pe := p.errorAt(tok, "expected %s, got %s", what, tok)
	if tok.Type == TokenWord {
		pe.Suggestion = suggest(tok.Value, names)
	}
	return 0, pe
}

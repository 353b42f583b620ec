package mathtex

import (
	"fmt"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	TokenWord   // ESub, Ord, True, Left, AlignCenter ...
	TokenString // "quoted", escapes kept verbatim
	TokenInt    // 123 (sign is a separate token)

	TokenLBracket // [
	TokenRBracket // ]
	TokenLParen   // (
	TokenRParen   // )
	TokenComma    // ,
	TokenMinus    // -
	TokenPercent  // %
)

var tokenNames = [...]string{
	TokenEOF:      "EOF",
	TokenError:    "ERROR",
	TokenWord:     "WORD",
	TokenString:   "STRING",
	TokenInt:      "INT",
	TokenLBracket: "[",
	TokenRBracket: "]",
	TokenLParen:   "(",
	TokenRParen:   ")",
	TokenComma:    ",",
	TokenMinus:    "-",
	TokenPercent:  "%",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// punctuation maps the single-byte tokens to their types.
var punctuation = map[byte]TokenType{
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'-': TokenMinus,
	'%': TokenPercent,
}

// Position is a location in the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexeme with the position it started at.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Lexer tokenizes the AST dump.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []Token
	err    *ParseError
}

// NewLexer returns a lexer positioned at line 1, column 1.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Tokenize returns all tokens from the input. The last token is always
// TokenEOF or TokenError.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok := l.nextToken()
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	if l.err != nil {
		return l.tokens, l.err
	}
	return l.tokens, nil
}

func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	startPos := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: startPos}
	}

	ch := l.peek()
	if typ, ok := punctuation[ch]; ok {
		l.advance()
		return Token{Type: typ, Value: string(ch), Pos: startPos}
	}
	if ch == '"' {
		return l.scanString()
	}

	if isDigit(ch) {
		start := l.pos
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
		}
		return Token{Type: TokenInt, Value: l.input[start:l.pos], Pos: startPos}
	}

	if isWordStart(ch) {
		start := l.pos
		for l.pos < len(l.input) && isWordContinue(l.peek()) {
			l.advance()
		}
		return Token{Type: TokenWord, Value: l.input[start:l.pos], Pos: startPos}
	}

	l.advance()
	l.err = &ParseError{
		Message: fmt.Sprintf("unexpected character %q", ch),
		Pos:     startPos,
		Near:    excerpt(l.input, startPos.Offset),
	}
	return Token{Type: TokenError, Value: string(ch), Pos: startPos}
}

// scanString scans a quoted string. A backslash and the character after it
// are kept as-is; decoding happens when the string is written out.
func (l *Lexer) scanString() Token {
	startPos := l.currentPos()
	l.advance() // opening "
	start := l.pos

	for {
		if l.pos >= len(l.input) {
			l.err = &ParseError{
				Message:    "unterminated string",
				Pos:        startPos,
				Near:       excerpt(l.input, startPos.Offset),
				Incomplete: true,
			}
			return Token{Type: TokenError, Value: l.input[start:], Pos: startPos}
		}
		ch := l.peek()
		if ch == '"' {
			value := l.input[start:l.pos]
			l.advance()
			return Token{Type: TokenString, Value: value, Pos: startPos}
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				continue
			}
		}
		l.advance()
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isWordContinue(ch byte) bool {
	return isWordStart(ch) || isDigit(ch) || ch == '\''
}

// excerpt returns a short slice of input starting at offset.
func excerpt(input string, offset int) string {
	const max = 24
	if offset >= len(input) {
		return ""
	}
	end := offset + max
	if end > len(input) {
		end = len(input)
	}
	return input[offset:end]
}

// TokenStream is the parser's cursor over a token slice.
type TokenStream struct {
	tokens []Token
	pos    int
}

func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[ts.pos]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Match returns true and advances if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}


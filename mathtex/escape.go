package mathtex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// escapes maps characters that cannot appear literally in LaTeX math to
// their safe spelling.
var escapes = map[rune]string{
	'~':      `\textasciitilde`,
	'^':      `\textasciicircum`,
	'\\':     `\textbackslash`,
	'\u200B': `\!`,
	'\u200A': `\,`,
	'\u2006': `\,`,
	'\u00A0': `~`,
	'\u2005': `\:`,
	'\u2004': `\;`,
	'\u2001': `\quad`,
	'\u2003': `\quad`,
	'\u2032': `'`,
	'\u2033': `''`,
	'\u2034': `'''`,
	'#':      `\#`,
	'$':      `\$`,
	'%':      `\%`,
	'&':      `\&`,
	'_':      `\_`,
	'{':      `\{`,
	'}':      `\}`,
	' ':      `\ `,
}

// EscapeRune returns the LaTeX-safe spelling of r and true, or r unchanged
// and false if it needs no escaping.
func EscapeRune(r rune) (string, bool) {
	if s, ok := escapes[r]; ok {
		return s, true
	}
	return string(r), false
}

// EscapeText escapes every character of s.
func EscapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		esc, _ := EscapeRune(r)
		sb.WriteString(esc)
	}
	return sb.String()
}

// escapeTextArg escapes the content of a \text{} argument. Spaces stay
// literal there.
func escapeTextArg(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == ' ' {
			sb.WriteByte(' ')
			continue
		}
		esc, _ := EscapeRune(r)
		sb.WriteString(esc)
	}
	return sb.String()
}

// Decode resolves the escapes kept verbatim by the reader: decimal code
// points (\8722), \" \\ \n \t \r, and the empty escape \&. Any other
// escaped character stands for itself. Decimal escapes of C0 controls other
// than newline and tab are rejected.
func Decode(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			i++
			continue
		}
		next := s[i+1]
		if isDigit(next) {
			j := i + 1
			n := 0
			for j < len(s) && isDigit(s[j]) {
				n = n*10 + int(s[j]-'0')
				if n > utf8.MaxRune {
					return "", fmt.Errorf("code point escape %q out of range", s[i:j+1])
				}
				j++
			}
			r := rune(n)
			if !utf8.ValidRune(r) {
				return "", fmt.Errorf("invalid code point escape %q", s[i:j])
			}
			if r < 0x20 && r != '\n' && r != '\t' {
				return "", fmt.Errorf("control character escape %q", s[i:j])
			}
			sb.WriteRune(r)
			i = j
			continue
		}
		switch next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '&':
		default:
			sb.WriteByte(next)
		}
		i += 2
	}
	return sb.String(), nil
}

// Package mathtex converts math expression trees to LaTeX.
//
// The input is the textual dump of a tagged-union expression tree, as
// produced by an upstream OCR or layout model. The package has two halves:
//   - Read parses the dump into a tree of Exp values
//   - Render walks the tree and writes LaTeX source
//
// # Dump Syntax
//
// A document is a bracketed list of expressions. Each expression starts
// with its keyword; arguments are quoted strings, enum names, rationals,
// parenthesized sub-expressions or bracketed lists:
//
//	[ESub (EIdentifier "x") (ENumber "2")]
//	[EDelimited "(" ")" [Right (EIdentifier "x"), Left "|", Right (ENumber "1")]]
//	[ESpace ((-1) % 6), EText TextNormal "if"]
//
// Strings keep their escapes verbatim. A decimal escape such as \8722 names
// a code point and is resolved when the string is rendered.
//
// # Environments
//
// The output depends on which LaTeX packages the caller can load. An Env
// names them; commands that need a missing package fall back to a plain
// LaTeX form:
//
//	Render(exps, NewEnv("amsmath"))   // \binom{n}{k}
//	Render(exps, NewEnv())            // {n \choose k}
//
// # Spacing
//
// The emitter inserts a space only where LaTeX needs one: after a control
// word that is followed by a letter (\alpha x), and around binary and
// relation symbols. Output is otherwise compact.
package mathtex

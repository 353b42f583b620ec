package mathtex

import (
	"github.com/sahilm/fuzzy"
)

// expKeywords lists every expression keyword the reader accepts.
var expKeywords = []string{
	"ENumber", "EGrouped", "EDelimited", "EIdentifier", "EMathOperator",
	"ESymbol", "ESpace", "ESub", "ESuper", "ESubsup", "EOver", "EUnder",
	"EUnderover", "EPhantom", "EBoxed", "EFraction", "ERoot", "ESqrt",
	"EScaled", "EArray", "EText", "EStyled",
}

// Keywords returns the expression keywords, e.g. for completion.
func Keywords() []string {
	return append([]string(nil), expKeywords...)
}

// suggest returns the best fuzzy match for word among candidates. If the
// whole word matches nothing, progressively shorter prefixes are tried so
// that a typo near the end still finds its keyword.
func suggest(word string, candidates []string) string {
	for n := len(word); n >= 3; n-- {
		matches := fuzzy.Find(word[:n], candidates)
		if len(matches) > 0 {
			if matches[0].Str == word {
				return ""
			}
			return matches[0].Str
		}
	}
	return ""
}

package symtab

// styleCommands maps a text style to the math-alphabet command that
// produces it.
var styleCommands = map[string]string{
	"TextNormal":              `\mathrm`,
	"TextBold":                `\mathbf`,
	"TextItalic":              `\mathit`,
	"TextMonospace":           `\mathtt`,
	"TextSansSerif":           `\mathsf`,
	"TextDoubleStruck":        `\mathbb`,
	"TextScript":              `\mathcal`,
	"TextFraktur":             `\mathfrak`,
	"TextBoldItalic":          `\mathbfit`,
	"TextSansSerifBold":       `\mathbfsfup`,
	"TextSansSerifBoldItalic": `\mathbfsfit`,
	"TextBoldScript":          `\mathbfscr`,
	"TextBoldFraktur":         `\mathbffrak`,
	"TextSansSerifItalic":     `\mathsfit`,
}

// StyleCommand returns the math-alphabet command for a style name, or ""
// if the style is unknown.
func StyleCommand(style string) string {
	return styleCommands[style]
}


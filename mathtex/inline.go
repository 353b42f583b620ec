package mathtex

import "strings"

// InlineMarkdown renders a document for a markdown page. Top-level Text
// nodes become plain text with $ # % escaped; each run of other nodes is
// rendered as math and wrapped in one \( ... \).
func (r *Renderer) InlineMarkdown(exps []Exp, env Env) (string, error) {
	var sb strings.Builder
	var run []Exp
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		tex, err := r.Render(run, env)
		if err != nil {
			return err
		}
		run = run[:0]
		if tex == "" {
			return nil
		}
		sb.WriteString(`\(`)
		sb.WriteString(tex)
		sb.WriteString(`\)`)
		return nil
	}

	for _, x := range exps {
		t, ok := x.(Text)
		if !ok {
			run = append(run, x)
			continue
		}
		if err := flush(); err != nil {
			return "", err
		}
		s, err := Decode(t.Text)
		if err != nil {
			return "", &RenderError{Node: t, Reason: err.Error()}
		}
		sb.WriteString(EscapeMarkdown(s))
	}
	if err := flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// InlineMarkdown uses the default symbol table.
func InlineMarkdown(exps []Exp, env Env) (string, error) {
	return NewRenderer(nil).InlineMarkdown(exps, env)
}

// EscapeMarkdown escapes the characters a markdown math extension would
// otherwise treat as markup.
func EscapeMarkdown(s string) string {
	if !strings.ContainsAny(s, "$#%") {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '$', '#', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

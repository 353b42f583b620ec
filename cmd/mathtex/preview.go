package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Neumenon/mathtex/mathtex"
)

// previewModel edits a dump and shows its LaTeX, updated on every keystroke.
type previewModel struct {
	input    textarea.Model
	renderer *mathtex.Renderer
	env      mathtex.Env
	inline   bool

	output string
	err    error
	width  int
}

func newPreviewModel(renderer *mathtex.Renderer, env mathtex.Env, inline bool, initial string) previewModel {
	ta := textarea.New()
	ta.Placeholder = `[EFraction NormalFrac (ENumber "1") (ENumber "2")]`
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)
	ta.SetValue(initial)
	ta.Focus()

	m := previewModel{input: ta, renderer: renderer, env: env, inline: inline}
	m.refresh()
	return m
}

func (m previewModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(msg.Width - 2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+f":
			if exps, err := mathtex.Read(m.input.Value()); err == nil {
				m.input.SetValue(mathtex.FormatWithOptions(exps, mathtex.PrettyFormatOptions()))
			}
			return m, nil
		case "ctrl+t":
			m.inline = !m.inline
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refresh()
	}
	return m, cmd
}

func (m *previewModel) refresh() {
	m.output, m.err = "", nil
	src := m.input.Value()
	if strings.TrimSpace(src) == "" {
		return
	}
	exps, err := mathtex.Read(src)
	if err != nil {
		m.err = err
		return
	}
	if m.inline {
		m.output, m.err = m.renderer.InlineMarkdown(exps, m.env)
	} else {
		m.output, m.err = m.renderer.Render(exps, m.env)
	}
}

var (
	previewTitle = keywordStyle.MarginBottom(1)
	previewHelp  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	previewBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m previewModel) View() string {
	mode := "display"
	if m.inline {
		mode = "inline"
	}
	var result string
	switch {
	case m.err != nil:
		result = errorStyle().Render(m.err.Error())
	case m.output == "":
		result = previewHelp.Render("(empty)")
	default:
		result = texStyle.Render(m.output)
	}
	box := previewBox
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}

	var b strings.Builder
	b.WriteString(previewTitle.Render(fmt.Sprintf("mathtex preview  env: %s  mode: %s", envLabel(m.env), mode)))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(box.Render(result))
	b.WriteString("\n")
	b.WriteString(previewHelp.Render("ctrl+f format  ctrl+t inline/display  esc quit"))
	return b.String()
}

// cmdPreview starts the live editor. The optional file argument seeds it.
func cmdPreview(opts options) {
	if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
		fatal("preview: needs an interactive terminal")
	}
	cfg, renderer, logger := opts.setup()
	defer logger.Close()

	var initial string
	if len(opts.args) > 0 {
		data, err := os.ReadFile(opts.args[0])
		if err != nil {
			fatal("read %s: %v", opts.args[0], err)
		}
		initial = strings.TrimRight(string(data), "\n")
	}

	p := tea.NewProgram(newPreviewModel(renderer, cfg.Env(), opts.inline, initial), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal("preview: %v", err)
	}
}

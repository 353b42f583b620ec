package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var stderrRenderer = lipgloss.NewRenderer(os.Stderr)

func errorStyle() lipgloss.Style {
	return stderrRenderer.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
}

func noteStyle() lipgloss.Style {
	return stderrRenderer.NewStyle().Foreground(lipgloss.Color("#888888"))
}

var (
	texStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

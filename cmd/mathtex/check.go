package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Neumenon/mathtex/harness"
	"github.com/Neumenon/mathtex/judge"
	"github.com/Neumenon/mathtex/symtab"
)

// cmdCheck runs a corpus directory and prints the report. Exit status 1
// means at least one case failed.
func cmdCheck(opts options) int {
	if len(opts.args) != 1 {
		fatal("check: expected one directory")
	}
	cfg, renderer, logger := opts.setup()
	defer logger.Close()

	cases, err := harness.Discover(opts.args[0])
	if err != nil {
		fatal("%v", err)
	}
	if len(cases) == 0 {
		fatal("check: no %s files under %s", harness.ASTExt, opts.args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &harness.Runner{
		Renderer: renderer,
		Env:      cfg.Env(),
		Workers:  cfg.Harness.Workers,
		Log:      logger,
	}
	if cfg.Judge.Endpoint != "" {
		runner.Judge = judge.New(cfg.Judge.Endpoint,
			judge.WithTimeout(cfg.Judge.Timeout),
			judge.WithLogger(logger))
	}

	report, err := runner.Run(ctx, cases)
	if err != nil {
		fatal("%v", err)
	}
	if opts.json {
		err = report.WriteJSON(os.Stdout)
	} else {
		err = report.Render(os.Stdout, harness.RenderOptions{FailuresOnly: opts.failures})
	}
	if err != nil {
		fatal("write report: %v", err)
	}
	if !report.Summary().OK() {
		return 1
	}
	return 0
}

// cmdJudge compares two LaTeX files. Exit status 1 means they differ.
func cmdJudge(opts options) int {
	if len(opts.args) != 2 {
		fatal("judge: expected want.tex and got.tex")
	}
	cfg, _, logger := opts.setup()
	defer logger.Close()

	want, err := os.ReadFile(opts.args[0])
	if err != nil {
		fatal("read %s: %v", opts.args[0], err)
	}
	got, err := os.ReadFile(opts.args[1])
	if err != nil {
		fatal("read %s: %v", opts.args[1], err)
	}

	client := judge.New(cfg.Judge.Endpoint, judge.WithTimeout(cfg.Judge.Timeout), judge.WithLogger(logger))
	res, err := client.Judge(context.Background(), string(want), string(got))
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(res.Verdict)
	if !res.Verdict.Passed() {
		return 1
	}
	return 0
}

// cmdSym lists the table rows for one character.
func cmdSym(opts options) {
	if len(opts.args) != 1 {
		fatal("sym: expected a character, \\NNNN or U+XXXX")
	}
	cfg, _, logger := opts.setup()
	defer logger.Close()

	r, err := parseRune(opts.args[0])
	if err != nil {
		fatal("sym: %v", err)
	}
	tab, err := cfg.Table()
	if err != nil {
		fatal("%v", err)
	}

	entries := tab.Find(r)
	styled, isStyled := tab.Styled(r)
	if len(entries) == 0 && !isStyled {
		fmt.Printf("%U: no entries\n", r)
		return
	}

	re := lipgloss.NewRenderer(os.Stdout)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ENV", "CATEGORY", "COMMAND")
	for _, e := range entries {
		t.Row(e.Env, string(e.Category), e.Command)
	}
	if isStyled {
		t.Row(styled.Style, "styled", styled.Macro)
	}
	fmt.Println(re.NewStyle().Bold(true).Render(fmt.Sprintf("%U", r)))
	fmt.Println(t.Render())
}

// parseRune accepts U+XXXX in addition to the forms symtab understands.
func parseRune(s string) (rune, error) {
	if strings.HasPrefix(s, "U+") || strings.HasPrefix(s, "u+") {
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, fmt.Errorf("bad codepoint %q", s)
		}
		return rune(n), nil
	}
	return symtab.ParseCodepoint(s)
}

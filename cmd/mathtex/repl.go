package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/Neumenon/mathtex/mathtex"
)

const (
	historyFile = ".mathtex_history"
	promptMain  = "ast> "
	promptCont  = "...> "
)

// cmdRepl reads dumps interactively and prints their LaTeX. Input that
// stops mid-expression continues on the next line.
func cmdRepl(opts options) {
	cfg, renderer, logger := opts.setup()
	defer logger.Close()
	env := cfg.Env()

	fmt.Printf("mathtex %s  env: %s  (:help for commands)\n", version, envLabel(env))

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeKeyword)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		src, ok := readDump(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if !replCommand(trimmed, &env) {
				return
			}
			continue
		}

		exps, err := mathtex.Read(src)
		if err != nil {
			fmt.Println(errorStyle().Render(err.Error()))
			continue
		}
		var out string
		if opts.inline {
			out, err = renderer.InlineMarkdown(exps, env)
		} else {
			out, err = renderer.Render(exps, env)
		}
		if err != nil {
			fmt.Println(errorStyle().Render(err.Error()))
			continue
		}
		fmt.Println(out)
	}
}

// replCommand handles a colon command. It returns false to leave the loop.
func replCommand(line string, env *mathtex.Env) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return false
	case ":env":
		if arg = strings.TrimSpace(arg); arg != "" {
			if arg == "none" {
				arg = ""
			}
			*env = mathtex.ParseEnv(arg)
		}
		fmt.Println(noteStyle().Render("env: " + envLabel(*env)))
	case ":help":
		fmt.Println(noteStyle().Render(":env [a,b|none]  show or set environment flags\n:quit            leave"))
	default:
		fmt.Println(errorStyle().Render("unknown command " + cmd))
	}
	return true
}

// readDump prompts until the accumulated text is either a complete dump or
// an error other than running out of input.
func readDump(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := mathtex.Read(src); perr != nil && mathtex.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// completeKeyword completes the word under the cursor against the
// expression keywords.
func completeKeyword(line string) []string {
	start := strings.LastIndexAny(line, " \t[(") + 1
	word := line[start:]
	if word == "" {
		return nil
	}
	var out []string
	for _, kw := range mathtex.Keywords() {
		if strings.HasPrefix(kw, word) {
			out = append(out, line[:start]+kw)
		}
	}
	sort.Strings(out)
	return out
}

func envLabel(env mathtex.Env) string {
	if s := env.String(); s != "" {
		return s
	}
	return "(none)"
}

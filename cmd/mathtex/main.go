// mathtex - convert expression-tree dumps to LaTeX
//
// Usage:
//
//	mathtex convert [--env=a,b] [--inline] [file]   Dump to LaTeX
//	mathtex fmt [--pretty] [file]                   Print the dump canonically
//	mathtex batch [file]                            Convert ast frames to tex frames
//	mathtex stream decode [file]                    Print frames readably
//	mathtex stream encode file...                   Wrap dump files in ast frames
//	mathtex serve                                   Run the HTTP service
//	mathtex repl                                    Interactive converter
//	mathtex preview                                 Live-converting editor
//	mathtex check [--failures] [--json] dir         Run a corpus directory
//	mathtex judge want.tex got.tex                  Compare two LaTeX files
//	mathtex sym char|U+XXXX                         Show table rows for a character
//	mathtex init [path]                             Write a default mathtex.yaml
//	mathtex version                                 Print version info
//
// Every command accepts --config=path. If no file is given, reads from stdin.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Neumenon/mathtex/config"
	"github.com/Neumenon/mathtex/logging"
	"github.com/Neumenon/mathtex/mathtex"
)

const version = "0.3.0"

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	env        string
	envSet     bool
	inline     bool
	pretty     bool
	failures   bool
	json       bool
	args       []string
}

func parseOptions(argv []string) options {
	var o options
	for _, arg := range argv {
		switch {
		case strings.HasPrefix(arg, "--config="):
			o.configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--env="):
			o.env = strings.TrimPrefix(arg, "--env=")
			o.envSet = true
		case arg == "--inline":
			o.inline = true
		case arg == "--pretty":
			o.pretty = true
		case arg == "--failures":
			o.failures = true
		case arg == "--json":
			o.json = true
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			o.args = append(o.args, arg)
		default:
			fatal("unknown flag: %s", arg)
		}
	}
	return o
}

// input opens the first positional argument, or stdin.
func (o options) input() io.ReadCloser {
	if len(o.args) == 0 || o.args[0] == "-" {
		return io.NopCloser(os.Stdin)
	}
	f, err := os.Open(o.args[0])
	if err != nil {
		fatal("open file: %v", err)
	}
	return f
}

// setup loads the config, the symbol table and a logger. The logger writes
// to the configured log directory, or stderr.
func (o options) setup() (*config.Config, *mathtex.Renderer, *logging.Logger) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		fatal("%v", err)
	}
	if o.envSet {
		cfg.Envs = mathtex.ParseEnv(o.env).Names()
	}
	table, err := cfg.Table()
	if err != nil {
		fatal("%v", err)
	}
	logger := logging.NewWriter(os.Stderr)
	if cfg.LogDir != "" {
		if logger, err = logging.New(cfg.LogDir); err != nil {
			fatal("%v", err)
		}
	}
	return cfg, mathtex.NewRenderer(table), logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	opts := parseOptions(os.Args[2:])

	switch cmd {
	case "convert":
		cmdConvert(opts)
	case "fmt":
		cmdFmt(opts)
	case "batch":
		cmdBatch(opts)
	case "stream":
		cmdStream(opts)
	case "serve":
		cmdServe(opts)
	case "repl":
		cmdRepl(opts)
	case "preview":
		cmdPreview(opts)
	case "check":
		os.Exit(cmdCheck(opts))
	case "judge":
		os.Exit(cmdJudge(opts))
	case "sym":
		cmdSym(opts)
	case "init":
		cmdInit(opts)
	case "version", "-v", "--version":
		fmt.Printf("mathtex %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `mathtex - expression-tree dump to LaTeX converter

Usage:
  mathtex convert [--env=a,b] [--inline] [file]   Dump to LaTeX
  mathtex fmt [--pretty] [file]                   Print the dump canonically
  mathtex batch [file]                            Convert ast frames to tex frames
  mathtex stream decode [file]                    Print frames readably
  mathtex stream encode file...                   Wrap dump files in ast frames
  mathtex serve                                   Run the HTTP service
  mathtex repl                                    Interactive converter
  mathtex preview                                 Live-converting editor
  mathtex check [--failures] [--json] dir         Run a corpus directory
  mathtex judge want.tex got.tex                  Compare two LaTeX files
  mathtex sym char|U+XXXX                         Show table rows for a character
  mathtex init [path]                             Write a default mathtex.yaml
  mathtex version                                 Print version info

Options:
  --config=path   Config file (default: ./mathtex.yaml)
  --env=a,b       Enabled packages, overriding the config (empty for none)
  --inline        Keep top-level text as markdown and wrap math in \( \)
  --pretty        Indent nested lists (fmt)
  --failures      Only list failing cases (check)
  --json          Print the report as JSON (check)

If no file is given, reads from stdin.

Examples:
  echo '[ESub (EIdentifier "x") (ENumber "2")]' | mathtex convert
  # Output: x_{2}

  mathtex convert --env= formula.ast
  mathtex stream encode a.ast b.ast | mathtex batch
  mathtex check --failures testdata/cases
`)
}

// cmdConvert: dump -> LaTeX
func cmdConvert(opts options) {
	cfg, renderer, logger := opts.setup()
	defer logger.Close()
	env := cfg.Env()

	in := opts.input()
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		fatal("read input: %v", err)
	}

	exps, err := mathtex.Read(string(data))
	if err != nil {
		fatal("read_ast: %v", err)
	}
	var out string
	if opts.inline {
		out, err = renderer.InlineMarkdown(exps, env)
	} else {
		out, err = renderer.Render(exps, env)
	}
	if err != nil {
		fatal("write_tex: %v", err)
	}
	fmt.Println(out)
}

// cmdFmt: dump -> canonical dump
func cmdFmt(opts options) {
	in := opts.input()
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		fatal("read input: %v", err)
	}
	exps, err := mathtex.Read(string(data))
	if err != nil {
		fatal("read_ast: %v", err)
	}
	fo := mathtex.DefaultFormatOptions()
	if opts.pretty {
		fo = mathtex.PrettyFormatOptions()
	}
	fmt.Println(mathtex.FormatWithOptions(exps, fo))
}

// cmdInit writes a commented default config.
func cmdInit(opts options) {
	path := config.FileName
	if len(opts.args) > 0 {
		path = opts.args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
}

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle().Render("error: "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}

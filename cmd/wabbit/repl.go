package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"wabbit/internal/config"
	"wabbit/internal/diag"
	"wabbit/internal/lexer"
	"wabbit/internal/pipeline"
	"wabbit/internal/token"

	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// session holds the source accepted so far. Every entry is run together
// with it from a clean state, so definitions persist across entries while
// a failing entry leaves no trace.
type session struct {
	p        *pipeline.Pipeline
	accepted strings.Builder
	printed  int // bytes of output the accepted source produces
}

// eval runs the accepted source followed by entry. On success the entry is
// kept and only the output it added is returned.
func (s *session) eval(entry string) (string, error) {
	source := s.accepted.String() + entry
	var out bytes.Buffer
	if _, err := s.p.Run(source, "<repl>", &out); err != nil {
		return "", &replError{source: source, err: err}
	}

	s.accepted.WriteString(entry)
	fresh := out.String()[s.printed:]
	s.printed = out.Len()
	return fresh, nil
}

// replError keeps the source a failure was reported against so spans can
// be rendered.
type replError struct {
	source string
	err    error
}

func (e *replError) Error() string { return e.err.Error() }

// ---- repl command ----

func cmdRepl(cfg config.Config, p *pipeline.Pipeline) {
	color := func(code, s string) string {
		if !cfg.Color {
			return s
		}
		return code + s + colorReset
	}
	prompt := color(colorGreen, "wabbit> ")
	more := color(colorGray, "...     ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		color(colorBold+colorCyan, "wabbit REPL"), color(colorGray, "(type 'exit' or Ctrl+D to quit)"))

	s := &session{p: p}
	var pending strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(more)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					pending.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintln(rl.Stdout(), color(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		braceDepth = openBraces(pending.String())
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		entry := pending.String()
		pending.Reset()
		if strings.TrimSpace(entry) == "" {
			continue
		}

		out, err := s.eval(entry)
		if err != nil {
			printReplError(rl.Stderr(), cfg, err)
			continue
		}
		fmt.Fprint(rl.Stdout(), out)
		if out != "" && !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(rl.Stdout())
		}
	}
}

// openBraces reports how many braces src leaves open. Braces are counted on
// tokens, so ones inside char literals and comments do not count. An
// unterminated block comment keeps the entry open as well.
func openBraces(src string) int {
	tokens, diags := lexer.New(src, "<repl>").Tokenize()
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	for _, d := range diags {
		if d.Kind == diag.UnterminatedComment && depth <= 0 {
			return 1
		}
	}
	return depth
}

func printReplError(w io.Writer, cfg config.Config, err error) {
	source := ""
	if re, ok := err.(*replError); ok {
		source, err = re.source, re.err
	}
	diags := pipeline.Diagnostics(err)
	if len(diags) == 0 {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	for _, d := range diags {
		diag.Render(w, source, "<repl>", d, cfg.Color)
	}
}

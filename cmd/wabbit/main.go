// Command wabbit is the CLI entry point for the Wabbit toolchain.
//
// Usage:
//
//	wabbit tokens <file>               Print tokens
//	wabbit tokens <file> --json        Print tokens as JSON
//	wabbit parse  <file>               Print AST as JSON
//	wabbit fmt    <file>               Print the program in canonical form
//	wabbit check  <file>               Typecheck a source file
//	wabbit run    <file> [--skip-check] Run a source file
//	wabbit llvm   <file> [-o out.ll]   Emit LLVM IR
//	wabbit repl                        Start interactive REPL
package main

import (
	"fmt"
	"os"

	"wabbit/internal/ast"
	"wabbit/internal/config"
	"wabbit/internal/diag"
	"wabbit/internal/lexer"
	"wabbit/internal/pipeline"

	"github.com/chzyer/readline"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	cfg.Color = cfg.Color && readline.IsTerminal(int(os.Stderr.Fd()))
	logger := cfg.Logger()
	logger.Debug("configuration loaded", "max_call_depth", cfg.MaxCallDepth, "skip_check", cfg.SkipCheck)

	command := os.Args[1]
	if command == "repl" {
		cmdRepl(cfg, pipeline.New(cfg, logger))
		return
	}

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		os.Exit(1)
	}
	filename := os.Args[2]
	source := readFile(filename)

	switch command {
	case "tokens":
		cmdTokens(source, filename, hasFlag("--json"))
	case "parse":
		cmdParse(pipeline.New(cfg, logger), source, filename)
	case "fmt":
		cmdFmt(cfg, pipeline.New(cfg, logger), source, filename)
	case "check":
		cmdCheck(cfg, pipeline.New(cfg, logger), source, filename)
	case "run":
		if hasFlag("--skip-check") {
			cfg.SkipCheck = true
		}
		cmdRun(cfg, pipeline.New(cfg, logger), source, filename)
	case "llvm":
		cmdLLVM(cfg, pipeline.New(cfg, logger), source, filename, flagValue("-o"))
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  wabbit tokens <file> [--json]       Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  wabbit parse  <file>                Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  wabbit fmt    <file>                Print the program in canonical form")
	fmt.Fprintln(os.Stderr, "  wabbit check  <file>                Typecheck a source file")
	fmt.Fprintln(os.Stderr, "  wabbit run    <file> [--skip-check] Run a source file")
	fmt.Fprintln(os.Stderr, "  wabbit llvm   <file> [-o out.ll]    Emit LLVM IR (stdout by default)")
	fmt.Fprintln(os.Stderr, "  wabbit repl                         Start interactive REPL")
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// flagValue returns the argument following flag, or "" when absent.
func flagValue(flag string) string {
	args := os.Args[3:]
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// fail renders every diagnostic carried by err and exits.
func fail(cfg config.Config, source, filename string, err error) {
	diags := pipeline.Diagnostics(err)
	if len(diags) == 0 {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	for _, d := range diags {
		diag.Render(os.Stderr, source, filename, d, cfg.Color)
	}
	os.Exit(1)
}

// ---- tokens command ----

func cmdTokens(source, filename string, jsonMode bool) {
	tokens, diags := lexer.New(source, filename).Tokenize()

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(tokens, diags)
	}

	if len(diags) > 0 {
		os.Exit(1)
	}
}

// ---- parse command ----

func cmdParse(p *pipeline.Pipeline, source, filename string) {
	prog, err := p.Compile(source, filename)
	if err != nil {
		printJSON(map[string]interface{}{
			"ast":         nil,
			"diagnostics": diagsToJSON(pipeline.Diagnostics(err)),
		})
		os.Exit(1)
	}
	printJSON(map[string]interface{}{
		"ast":         ast.ProgramToMap(prog),
		"diagnostics": diagsToJSON(nil),
	})
}

// ---- fmt command ----

func cmdFmt(cfg config.Config, p *pipeline.Pipeline, source, filename string) {
	prog, err := p.Compile(source, filename)
	if err != nil {
		fail(cfg, source, filename, err)
	}
	fmt.Print(ast.Format(prog))
}

// ---- check command ----

func cmdCheck(cfg config.Config, p *pipeline.Pipeline, source, filename string) {
	prog, err := p.Compile(source, filename)
	if err != nil {
		fail(cfg, source, filename, err)
	}
	if err := p.Check(prog); err != nil {
		fail(cfg, source, filename, err)
	}
	fmt.Printf("%s: ok\n", filename)
}

// ---- run command ----

func cmdRun(cfg config.Config, p *pipeline.Pipeline, source, filename string) {
	if _, err := p.Run(source, filename, os.Stdout); err != nil {
		fail(cfg, source, filename, err)
	}
}

// ---- llvm command ----

func cmdLLVM(cfg config.Config, p *pipeline.Pipeline, source, filename, out string) {
	ir, err := p.EmitLLVM(source, filename)
	if err != nil {
		fail(cfg, source, filename, err)
	}
	if out == "" {
		fmt.Print(ir)
		return
	}
	if err := os.WriteFile(out, []byte(ir), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot write %s: %v\n", out, err)
		os.Exit(1)
	}
}

// Package pipeline chains lexing, parsing, typechecking and interpretation,
// or lowering to LLVM IR in place of interpretation.
package pipeline

import (
	"io"
	"log/slog"
	"time"

	"wabbit/internal/ast"
	"wabbit/internal/config"
	"wabbit/internal/diag"
	"wabbit/internal/lexer"
	"wabbit/internal/llvm"
	"wabbit/internal/parser"
	"wabbit/internal/runtime"
	"wabbit/internal/typecheck"
)

// Pipeline runs source through every phase with shared settings.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates a pipeline. A nil logger discards operational messages.
func New(cfg config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Compile lexes and parses source. Lexical errors are returned together as
// a diag.List; a syntax error is returned as a *diag.Diagnostic.
func (p *Pipeline) Compile(source, filename string) (*ast.Program, error) {
	start := time.Now()
	tokens, errs := lexer.New(source, filename).Tokenize()
	p.logger.Debug("lexed", "file", filename, "tokens", len(tokens), "elapsed", time.Since(start))
	if len(errs) > 0 {
		return nil, diag.List(errs)
	}

	start = time.Now()
	prog, err := parser.New(tokens).ParseProgram()
	p.logger.Debug("parsed", "file", filename, "elapsed", time.Since(start))
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// Check typechecks prog.
func (p *Pipeline) Check(prog *ast.Program) error {
	start := time.Now()
	err := typecheck.Check(prog)
	p.logger.Debug("checked", "ok", err == nil, "elapsed", time.Since(start))
	return err
}

// Execute interprets prog, writing printed values to out, and returns the
// values printed in order.
func (p *Pipeline) Execute(prog *ast.Program, out io.Writer) ([]runtime.Value, error) {
	interp := runtime.NewInterpreter(out)
	interp.SetLimits(runtime.Limits{MaxCallDepth: p.cfg.MaxCallDepth})
	interp.SetLogger(p.logger)

	start := time.Now()
	err := interp.Run(prog)
	p.logger.Debug("executed", "ok", err == nil, "elapsed", time.Since(start))
	return interp.Output(), err
}

// Run compiles, checks unless SkipCheck is set, and executes source. It
// returns the printed values rendered as strings.
func (p *Pipeline) Run(source, filename string, out io.Writer) ([]string, error) {
	prog, err := p.Compile(source, filename)
	if err != nil {
		return nil, err
	}
	if !p.cfg.SkipCheck {
		if err := p.Check(prog); err != nil {
			return nil, err
		}
	}
	values, err := p.Execute(prog, out)
	trace := make([]string, len(values))
	for i, v := range values {
		trace[i] = v.String()
	}
	return trace, err
}

// EmitLLVM compiles and typechecks source, then lowers it to textual LLVM
// IR. The check runs even when SkipCheck is set, since the generator relies
// on a well-typed program.
func (p *Pipeline) EmitLLVM(source, filename string) (string, error) {
	prog, err := p.Compile(source, filename)
	if err != nil {
		return "", err
	}
	if err := p.Check(prog); err != nil {
		return "", err
	}

	start := time.Now()
	ir, err := llvm.Generate(prog, filename)
	p.logger.Debug("lowered", "file", filename, "bytes", len(ir), "elapsed", time.Since(start))
	return ir, err
}

// Diagnostics flattens an error returned by the pipeline into the
// diagnostics it carries. Other errors yield nil.
func Diagnostics(err error) []diag.Diagnostic {
	switch e := err.(type) {
	case nil:
		return nil
	case diag.List:
		return e
	case *diag.Diagnostic:
		return []diag.Diagnostic{*e}
	case diag.Diagnostic:
		return []diag.Diagnostic{e}
	}
	return nil
}

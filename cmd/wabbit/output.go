package main

import (
	"encoding/json"
	"fmt"
	"os"

	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/span"
	"wabbit/internal/token"
)

// ---- output helpers ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printDiagsText(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d)
	}
}

// diagJSON is the machine-readable form of a diagnostic. Positions carry
// both ends of the range so editors can underline the whole node.
type diagJSON struct {
	Code     string        `json:"code"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Start    span.Position `json:"start"`
	End      span.Position `json:"end"`
	Hint     string        `json:"hint,omitempty"`
}

func diagsToJSON(diags []diag.Diagnostic) []diagJSON {
	out := make([]diagJSON, 0, len(diags))
	for _, d := range diags {
		out = append(out, diagJSON{
			Code:     d.Code,
			Severity: d.Severity.String(),
			Message:  d.Message,
			Start:    d.Span.Start,
			End:      d.Span.End,
			Hint:     d.Hint,
		})
	}
	return out
}

// ---- token output helpers ----

// lexemeText shows char literals quoted so control bytes stay readable.
func lexemeText(tok token.Token) string {
	if tok.Kind == token.CHAR && len(tok.Lexeme) == 1 {
		return ast.QuoteChar(tok.Lexeme[0])
	}
	return tok.Lexeme
}

func printTokensText(tokens []token.Token, diags []diag.Diagnostic) {
	for _, tok := range tokens {
		fmt.Printf("%-12s %-20s %d:%d\n", tok.Kind, lexemeText(tok), tok.Span.Start.Line, tok.Span.Start.Column)
	}
	printDiagsText(diags)
}

func printTokensJSON(tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind   string    `json:"kind"`
		Lexeme string    `json:"lexeme"`
		Span   span.Span `json:"span"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{Kind: tok.Kind.String(), Lexeme: tok.Lexeme, Span: tok.Span})
	}

	printJSON(struct {
		Tokens      []tokenJSON `json:"tokens"`
		Diagnostics []diagJSON  `json:"diagnostics"`
	}{toks, diagsToJSON(diags)})
}

// Package diag provides diagnostic types for the toolchain.
package diag

import (
	"fmt"
	"strings"
	"wabbit/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

// Error is the only severity the toolchain reports: every diagnostic stops
// the phase that raised it.
const Error Severity = 0

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "unknown"
}

// Diagnostic represents a toolchain diagnostic message.
type Diagnostic struct {
	Code     string    `json:"code"`           // stable error code, e.g. "E3001"
	Kind     Kind      `json:"-"`              // catalog entry
	Severity Severity  `json:"severity"`       // always Error
	Message  string    `json:"message"`        // human-readable description
	Span     span.Span `json:"span"`           // source location
	Hint     string    `json:"hint,omitempty"` // optional hint
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	prefix := d.Severity.String()
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, prefix, loc, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Error makes a Diagnostic usable as an error value.
func (d Diagnostic) Error() string {
	return d.String()
}

// New creates an error diagnostic for a catalog entry, formatting the
// entry's template with args.
func New(kind Kind, s span.Span, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:     kind.Code(),
		Kind:     kind,
		Severity: Error,
		Message:  kind.Format(args...),
		Span:     s,
	}
}

// List is a batch of diagnostics reported together, as the lexer does.
type List []Diagnostic

func (l List) Error() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

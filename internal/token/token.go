// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"
	"wabbit/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT // identifiers: x, foo, my_var
	INT   // integer literals: 123
	FLOAT // float literals: 3.14, .5
	CHAR  // character literals: 'a', '\n'

	// Operators
	ASSIGN // =
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	BANG   // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	AND // &&
	OR  // ||

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;

	// Keywords
	KW_CONST
	KW_VAR
	KW_PRINT
	KW_BREAK
	KW_CONTINUE
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FUNC
	KW_RETURN
	KW_TRUE
	KW_FALSE

	// Type names
	TY_INT
	TY_FLOAT
	TY_CHAR
	TY_BOOL
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT: "IDENT",
	INT:   "INT",
	FLOAT: "FLOAT",
	CHAR:  "CHAR",

	ASSIGN: "=",
	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	BANG:   "!",
	EQ:     "==",
	NEQ:    "!=",
	LT:     "<",
	LTE:    "<=",
	GT:     ">",
	GTE:    ">=",
	AND:    "&&",
	OR:     "||",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	SEMICOLON: ";",

	KW_CONST:    "const",
	KW_VAR:      "var",
	KW_PRINT:    "print",
	KW_BREAK:    "break",
	KW_CONTINUE: "continue",
	KW_IF:       "if",
	KW_ELSE:     "else",
	KW_WHILE:    "while",
	KW_FUNC:     "func",
	KW_RETURN:   "return",
	KW_TRUE:     "true",
	KW_FALSE:    "false",

	TY_INT:   "int",
	TY_FLOAT: "float",
	TY_CHAR:  "char",
	TY_BOOL:  "bool",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_CONST && k <= KW_FALSE
}

// IsTypeName returns true if the kind names one of the builtin types.
func (k Kind) IsTypeName() bool {
	return k >= TY_INT && k <= TY_BOOL
}

// IsLiteral returns true if the kind is a literal (ident/int/float/char).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= CHAR
}

var keywords = map[string]Kind{
	"const":    KW_CONST,
	"var":      KW_VAR,
	"print":    KW_PRINT,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"if":       KW_IF,
	"else":     KW_ELSE,
	"while":    KW_WHILE,
	"func":     KW_FUNC,
	"return":   KW_RETURN,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
	"int":      TY_INT,
	"float":    TY_FLOAT,
	"char":     TY_CHAR,
	"bool":     TY_BOOL,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token represents a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}

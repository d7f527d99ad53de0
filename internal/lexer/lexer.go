// Package lexer implements the lexical analysis (tokenization) for wabbit.
package lexer

import (
	"strconv"
	"unicode/utf8"
	"wabbit/internal/diag"
	"wabbit/internal/span"
	"wabbit/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// Scanning continues past errors so every lexical problem is reported at once.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok, ok := l.nextToken()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.source)
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) makeToken(kind token.Kind, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: l.source[start.Offset:l.pos], Span: l.makeSpan(start)}
}

// skipWhitespace skips spaces, tabs and newlines.
func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// skipLineComment skips from // to end of line.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment skips a /* ... */ comment. Comments do not nest.
func (l *Lexer) skipBlockComment(start span.Position) {
	l.advance() // '/'
	l.advance() // '*'
	for !l.atEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.addError(diag.UnterminatedComment, l.makeSpan(start))
}

// addError records a catalog diagnostic.
func (l *Lexer) addError(kind diag.Kind, s span.Span, args ...interface{}) {
	l.diags = append(l.diags, *diag.New(kind, s, args...))
}

// ---- token reading ----

// nextToken reads one token. It returns false when the input consumed
// produced no token (comments, or an erroneous character that was reported).
func (l *Lexer) nextToken() (token.Token, bool) {
	l.skipWhitespace()

	start := l.curPos()
	if l.atEnd() {
		return token.Token{Kind: token.EOF, Lexeme: "", Span: l.makeSpan(start)}, true
	}

	ch := l.peek()

	// Comments
	if ch == '/' && l.peekNext() == '/' {
		l.skipLineComment()
		return token.Token{}, false
	}
	if ch == '/' && l.peekNext() == '*' {
		l.skipBlockComment(start)
		return token.Token{}, false
	}

	// Character literal
	if ch == '\'' {
		return l.readChar(start)
	}

	// Number literal
	if isDigit(ch) || (ch == '.' && isDigit(l.peekNext())) {
		return l.readNumber(start)
	}

	// Identifier, keyword or type name
	if isIdentStart(ch) {
		return l.readIdentifier(start), true
	}

	// Operators and delimiters
	return l.readOperator(start)
}

// readChar reads a character literal: 'c' or an escape such as '\n'.
func (l *Lexer) readChar(start span.Position) (token.Token, bool) {
	l.advance() // opening '

	var value byte
	valid := true
	switch ch := l.peek(); {
	case l.atEnd() || ch == '\n' || ch == '\'':
		valid = false
	case ch == '\\':
		l.advance()
		esc, ok := unescape(l.peek())
		if !ok || l.atEnd() {
			valid = false
		} else {
			value = esc
			l.advance()
		}
	case ch >= utf8.RuneSelf:
		// a char holds one byte, so only U+0080..U+00FF fit
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		if r == utf8.RuneError || r > 0xFF {
			valid = false
		} else {
			value = byte(r)
		}
	default:
		value = ch
		l.advance()
	}

	if !valid || l.peek() != '\'' {
		// resynchronize at the closing quote if it is on this line
		for !l.atEnd() && l.peek() != '\'' && l.peek() != '\n' {
			l.advance()
		}
		if l.peek() == '\'' {
			l.advance()
		}
		l.addError(diag.InvalidChar, l.makeSpan(start))
		return token.Token{}, false
	}
	l.advance() // closing '

	return token.Token{Kind: token.CHAR, Lexeme: string([]byte{value}), Span: l.makeSpan(start)}, true
}

func unescape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '0':
		return 0, true
	}
	return 0, false
}

// readNumber reads an integer or float literal. Trailing letters, digits or
// dots that cannot continue the literal make the whole run invalid.
func (l *Lexer) readNumber(start span.Position) (token.Token, bool) {
	isFloat := false

	for isDigit(l.peek()) {
		l.advance()
	}

	// Check for decimal point
	if l.peek() == '.' && (isDigit(l.peekNext()) || l.pos > start.Offset) {
		isFloat = true
		l.advance() // skip '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	bad := false
	for isIdentPart(l.peek()) || l.peek() == '.' {
		l.advance()
		bad = true
	}

	lexeme := l.source[start.Offset:l.pos]
	if !bad {
		if isFloat {
			_, err := strconv.ParseFloat(lexeme, 64)
			bad = err != nil
		} else {
			_, err := strconv.ParseInt(lexeme, 10, 32)
			bad = err != nil
		}
	}
	if bad {
		l.addError(diag.InvalidNumber, l.makeSpan(start), lexeme)
		return token.Token{}, false
	}

	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}, true
}

// readIdentifier reads an identifier, keyword or type name.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[start.Offset:l.pos]
	return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) (token.Token, bool) {
	ch := l.peek()
	if ch >= utf8.RuneSelf {
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		l.addError(diag.UnexpectedChar, l.makeSpan(start), r)
		return token.Token{}, false
	}
	l.advance()

	// one or two character operators
	pick := func(next byte, double, single token.Kind) (token.Token, bool) {
		if l.peek() == next {
			l.advance()
			return l.makeToken(double, start), true
		}
		return l.makeToken(single, start), true
	}
	// operators that only exist doubled
	pair := func(kind token.Kind) (token.Token, bool) {
		if l.peek() == ch {
			l.advance()
			return l.makeToken(kind, start), true
		}
		d := diag.New(diag.DoubleToken, l.makeSpan(start), ch, ch)
		d.Hint = "use '" + string([]byte{ch, ch}) + "'"
		l.diags = append(l.diags, *d)
		return token.Token{}, false
	}

	switch ch {
	case '(':
		return l.makeToken(token.LPAREN, start), true
	case ')':
		return l.makeToken(token.RPAREN, start), true
	case '{':
		return l.makeToken(token.LBRACE, start), true
	case '}':
		return l.makeToken(token.RBRACE, start), true
	case ',':
		return l.makeToken(token.COMMA, start), true
	case ';':
		return l.makeToken(token.SEMICOLON, start), true
	case '+':
		return l.makeToken(token.PLUS, start), true
	case '-':
		return l.makeToken(token.MINUS, start), true
	case '*':
		return l.makeToken(token.STAR, start), true
	case '/':
		return l.makeToken(token.SLASH, start), true
	case '=':
		return pick('=', token.EQ, token.ASSIGN)
	case '!':
		return pick('=', token.NEQ, token.BANG)
	case '<':
		return pick('=', token.LTE, token.LT)
	case '>':
		return pick('=', token.GTE, token.GT)
	case '&':
		return pair(token.AND)
	case '|':
		return pair(token.OR)
	default:
		l.addError(diag.UnexpectedChar, l.makeSpan(start), rune(ch))
		return token.Token{}, false
	}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

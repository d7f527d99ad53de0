// Package parser implements the syntax analysis for wabbit.
// It uses Pratt parsing for expressions and recursive descent for statements.
//
// Parsing stops at the first syntax error. Every node receives a fresh
// ast.NodeID and its source span is recorded in the program's range map.
package parser

import (
	"strconv"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/span"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone     = 0
	bpOr       = 10 // ||
	bpAnd      = 20 // &&
	bpCompare  = 30 // == != < <= > >=
	bpAdditive = 50 // + -
	bpMultiply = 60 // * /
	bpPrefix   = 70 // ! - +
	bpPostfix  = 80 // ()
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.OR:
		return bpOr
	case token.AND:
		return bpAnd
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		return bpCompare
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH:
		return bpMultiply
	case token.LPAREN:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int

	lastID ast.NodeID
	ranges ast.Ranges
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0, ranges: make(ast.Ranges)}
}

// ParseProgram parses the whole token stream. The returned error is a
// *diag.Diagnostic describing the first syntax error.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{Ranges: p.ranges}
	for {
		p.skipEmpty()
		if p.isAtEnd() {
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF, Span: p.prevSpan()}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) peekAt(n int) token.Kind {
	if p.pos+n >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[p.pos+n].Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(diag.ParserExpect, p.peek().Span, kind.String())
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipEmpty skips empty statements.
func (p *Parser) skipEmpty() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) errorAt(kind diag.Kind, s span.Span, args ...interface{}) error {
	return diag.New(kind, s, args...)
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.LBRACE:
		return p.parseBlock()
	case token.KW_VAR:
		return p.parseVarDef()
	case token.KW_CONST:
		return p.parseConstDef()
	case token.KW_FUNC:
		return p.parseFuncDef()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_BREAK, token.KW_CONTINUE:
		return p.parseLoopControl()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_PRINT:
		return p.parsePrintStmt()
	case token.IDENT:
		if p.peekAt(1) == token.ASSIGN {
			return p.parseAssign()
		}
	}
	return p.parseExprStmt()
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() (*ast.Block, error) {
	start, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}

	block := &ast.Block{}
	for {
		p.skipEmpty()
		if p.check(token.RBRACE) || p.isAtEnd() {
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	block.ID = p.finish(start.Span.Start)
	return block, nil
}

// parseVarDef parses: var IDENT [type] [= expr] ;
func (p *Parser) parseVarDef() (*ast.VarDef, error) {
	start := p.advance() // consume 'var'
	stmt := &ast.VarDef{}

	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if t, ok := types.FromToken(p.peekKind()); ok {
		p.advance()
		stmt.Type = t
	}
	if p.check(token.ASSIGN) {
		p.advance()
		if stmt.Value, err = p.parseExpr(bpNone); err != nil {
			return nil, err
		}
	}
	if !stmt.Type.Valid() && stmt.Value == nil {
		return nil, p.errorAt(diag.VarDefEmpty, p.makeSpan(start.Span.Start))
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	stmt.ID = p.finish(start.Span.Start)
	return stmt, nil
}

// parseConstDef parses: const IDENT [type] = expr ;
func (p *Parser) parseConstDef() (*ast.ConstDef, error) {
	start := p.advance() // consume 'const'
	stmt := &ast.ConstDef{}

	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if t, ok := types.FromToken(p.peekKind()); ok {
		p.advance()
		stmt.Type = t
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	if stmt.Value, err = p.parseExpr(bpNone); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	stmt.ID = p.finish(start.Span.Start)
	return stmt, nil
}

// parseFuncDef parses: func IDENT ( [IDENT type {, IDENT type}] ) type block
func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	start := p.advance() // consume 'func'
	decl := &ast.FuncDef{}

	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	decl.Name = name

	if decl.Params, err = p.parseParamList(); err != nil {
		return nil, err
	}
	if decl.Return, err = p.expectType(); err != nil {
		return nil, err
	}
	if decl.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	decl.ID = p.finish(start.Span.Start)
	return decl, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	var params []ast.Param

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	for !p.check(token.RPAREN) {
		if len(params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		t, err := p.expectType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: name, Type: t})
	}

	p.advance() // consume ')'
	return params, nil
}

// parseIfStmt parses: if expr block [else (block | if ...)]
func (p *Parser) parseIfStmt() (*ast.IfStmt, error) {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	var err error
	if stmt.Condition, err = p.parseExpr(bpNone); err != nil {
		return nil, err
	}
	if stmt.Then, err = p.parseBlock(); err != nil {
		return nil, err
	}

	if p.check(token.KW_ELSE) {
		elseTok := p.advance()
		if p.check(token.KW_IF) {
			// else if: wrap the nested if in its own block
			nested, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			stmt.Else = &ast.Block{Stmts: []ast.Stmt{nested}}
			stmt.Else.ID = p.finish(elseTok.Span.Start)
		} else if stmt.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}

	stmt.ID = p.finish(start.Span.Start)
	return stmt, nil
}

// parseWhileStmt parses: while expr block
func (p *Parser) parseWhileStmt() (*ast.WhileStmt, error) {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	var err error
	if stmt.Condition, err = p.parseExpr(bpNone); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	stmt.ID = p.finish(start.Span.Start)
	return stmt, nil
}

// parseLoopControl parses: break ; | continue ;
func (p *Parser) parseLoopControl() (ast.Stmt, error) {
	start := p.advance()
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	id := p.finish(start.Span.Start)
	if start.Kind == token.KW_BREAK {
		return &ast.BreakStmt{StmtBase: stmtBase(id)}, nil
	}
	return &ast.ContinueStmt{StmtBase: stmtBase(id)}, nil
}

// parseReturnStmt parses: return expr ;
func (p *Parser) parseReturnStmt() (*ast.ReturnStmt, error) {
	start := p.advance() // consume 'return'
	value, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{StmtBase: stmtBase(p.finish(start.Span.Start)), Value: value}, nil
}

// parsePrintStmt parses: print expr ;
func (p *Parser) parsePrintStmt() (*ast.PrintStmt, error) {
	start := p.advance() // consume 'print'
	value, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{StmtBase: stmtBase(p.finish(start.Span.Start)), Value: value}, nil
}

// parseAssign parses: IDENT = expr ;
func (p *Parser) parseAssign() (*ast.AssignStmt, error) {
	name := p.advance()
	p.advance() // consume '='
	value, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.AssignStmt{
		StmtBase: stmtBase(p.finish(name.Span.Start)),
		Name:     name.Lexeme,
		Value:    value,
	}, nil
}

// parseExprStmt parses: expr ;
func (p *Parser) parseExprStmt() (*ast.ExprStmt, error) {
	start := p.peek()
	expr, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{StmtBase: stmtBase(p.finish(start.Span.Start)), Expr: expr}, nil
}

func (p *Parser) expectName() (string, error) {
	if !p.check(token.IDENT) {
		return "", p.errorAt(diag.ExpectVarName, p.peek().Span)
	}
	return p.advance().Lexeme, nil
}

func (p *Parser) expectType() (types.Type, error) {
	t, ok := types.FromToken(p.peekKind())
	if !ok {
		return types.None, p.errorAt(diag.ExpectTypeName, p.peek().Span)
	}
	p.advance()
	return t, nil
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) (ast.Expr, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			break
		}
		if left, err = p.led(left); err != nil {
			return nil, err
		}
	}

	return left, nil
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, p.errorAt(diag.InvalidNumber, tok.Span, tok.Lexeme)
		}
		return &ast.IntLiteral{ExprBase: p.exprNode(tok.Span.Start), Value: int32(val)}, nil

	case token.FLOAT:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(diag.InvalidNumber, tok.Span, tok.Lexeme)
		}
		return &ast.FloatLiteral{ExprBase: p.exprNode(tok.Span.Start), Value: val}, nil

	case token.CHAR:
		p.advance()
		return &ast.CharLiteral{ExprBase: p.exprNode(tok.Span.Start), Value: tok.Lexeme[0]}, nil

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: p.exprNode(tok.Span.Start), Value: tok.Kind == token.KW_TRUE}, nil

	case token.IDENT:
		p.advance()
		return &ast.Name{ExprBase: p.exprNode(tok.Span.Start), Name: tok.Lexeme}, nil

	case token.TY_INT, token.TY_FLOAT, token.TY_CHAR, token.TY_BOOL:
		p.advance()
		t, _ := types.FromToken(tok.Kind)
		return &ast.TypeName{ExprBase: p.exprNode(tok.Span.Start), Type: t}, nil

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		inner, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.Grouping{ExprBase: p.exprNode(tok.Span.Start), Inner: inner}, nil

	case token.BANG, token.MINUS, token.PLUS:
		// Unary: !expr, -expr, +expr
		p.advance()
		operand, err := p.parseExpr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{ExprBase: p.exprNode(tok.Span.Start), Op: tok.Kind, Operand: operand}, nil

	default:
		return nil, p.errorAt(diag.ExpectExpr, tok.Span)
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) (ast.Expr, error) {
	tok := p.peek()
	start := p.startOf(left)

	switch tok.Kind {
	case token.AND, token.OR:
		p.advance()
		right, err := p.parseExpr(infixBP(tok.Kind))
		if err != nil {
			return nil, err
		}
		return &ast.LogicalExpr{ExprBase: p.exprNode(start), Op: tok.Kind, Left: left, Right: right}, nil

	case token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		// Binary infix operator (left-associative)
		p.advance()
		right, err := p.parseExpr(infixBP(tok.Kind))
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{ExprBase: p.exprNode(start), Op: tok.Kind, Left: left, Right: right}, nil

	case token.LPAREN:
		return p.parseCall(left)

	default:
		return left, nil
	}
}

// parseCall parses: callee ( args ). Only function names and type names
// may be called; the latter is a conversion.
func (p *Parser) parseCall(callee ast.Expr) (ast.Expr, error) {
	start := p.startOf(callee)
	open := p.advance() // consume '('

	var args []ast.Expr
	for !p.check(token.RPAREN) {
		if len(args) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // consume ')'

	switch c := callee.(type) {
	case *ast.Name:
		return &ast.CallExpr{ExprBase: p.exprNode(start), Callee: c.Name, Args: args}, nil
	case *ast.TypeName:
		return &ast.ConversionExpr{ExprBase: p.exprNode(start), Target: c.Type, Args: args}, nil
	default:
		return nil, p.errorAt(diag.BadCallee, open.Span)
	}
}

// ============================================================
// Id and span helpers
// ============================================================

// finish assigns the next node id and records the span from start to the
// end of the last consumed token.
func (p *Parser) finish(start span.Position) ast.NodeID {
	p.lastID++
	p.ranges[p.lastID] = p.makeSpan(start)
	return p.lastID
}

func (p *Parser) startOf(n ast.Node) span.Position {
	return p.ranges[n.GetID()].Start
}

func (p *Parser) prevSpan() span.Span {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span
	}
	return span.Span{}
}

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func (p *Parser) exprNode(start span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{ID: p.finish(start)}}
}

func stmtBase(id ast.NodeID) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{ID: id}}
}

// Package ast defines the abstract syntax tree for wabbit.
//
// Nodes carry no positions themselves. Every node has a NodeID, unique
// within its Program, and Program.Ranges maps ids to source spans for
// diagnostics.
package ast

import (
	"wabbit/internal/span"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

// ============================================================
// Node identifiers and ranges
// ============================================================

// NodeID identifies a node within one Program. Zero is never assigned.
type NodeID int

// IsValid reports whether id was assigned by a parser.
func (id NodeID) IsValid() bool { return id > 0 }

// Ranges maps node ids to their source spans.
type Ranges map[NodeID]span.Span

// Lookup returns the span recorded for id.
func (r Ranges) Lookup(id NodeID) (span.Span, bool) {
	s, ok := r[id]
	return s, ok
}

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetID() NodeID
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common ID field for all AST nodes.
type NodeBase struct {
	ID NodeID
}

func (n NodeBase) nodeNode()     {}
func (n NodeBase) GetID() NodeID { return n.ID }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program is a parsed source file together with its range map.
type Program struct {
	Stmts  []Stmt
	Ranges Ranges
}

// ============================================================
// Expressions
// ============================================================

// Name is a reference to a variable or constant.
type Name struct {
	ExprBase
	Name string
}

// TypeName is a bare type name appearing where a value was expected.
type TypeName struct {
	ExprBase
	Type types.Type
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	ExprBase
	Value int32
}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// CharLiteral represents a character literal.
type CharLiteral struct {
	ExprBase
	Value byte
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// Grouping is a parenthesized expression.
type Grouping struct {
	ExprBase
	Inner Expr
}

// UnaryExpr represents a unary operation: !x, -x, +x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents an arithmetic or comparison operation.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// LogicalExpr represents a short-circuiting && or ||.
type LogicalExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// CallExpr represents a function call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee string
	Args   []Expr
}

// ConversionExpr represents a type conversion: int(x).
type ConversionExpr struct {
	ExprBase
	Target types.Type
	Args   []Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt represents: print expr;
type PrintStmt struct {
	StmtBase
	Value Expr
}

// VarDef represents: var name [type] [= value];
// Type is types.None when omitted and Value is nil when omitted.
type VarDef struct {
	StmtBase
	Name  string
	Type  types.Type
	Value Expr
}

// ConstDef represents: const name [type] = value;
type ConstDef struct {
	StmtBase
	Name  string
	Type  types.Type
	Value Expr
}

// Param is a single function parameter.
type Param struct {
	Name string
	Type types.Type
}

// FuncDef represents: func name(params) type { body }
type FuncDef struct {
	StmtBase
	Name   string
	Params []Param
	Return types.Type
	Body   *Block
}

// AssignStmt represents: name = value;
type AssignStmt struct {
	StmtBase
	Name  string
	Value Expr
}

// Block represents a braced statement list.
type Block struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents: if cond { then } [else { else }]
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      *Block
	Else      *Block // nil when absent
}

// WhileStmt represents: while cond { body }
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *Block
}

// BreakStmt represents: break;
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents: continue;
type ContinueStmt struct {
	StmtBase
}

// ReturnStmt represents: return value;
type ReturnStmt struct {
	StmtBase
	Value Expr
}

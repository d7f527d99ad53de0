package ast

import (
	"fmt"
	"strconv"
	"strings"
	"wabbit/internal/token"
)

const indentUnit = "    "

// Format renders prog as canonical source text. Parentheses appear exactly
// where the source had a Grouping, so formatting a re-parsed result yields
// the same text.
func Format(prog *Program) string {
	var f formatter
	for _, s := range prog.Stmts {
		f.stmt(s)
	}
	return f.sb.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var f formatter
	f.expr(e)
	return f.sb.String()
}

type formatter struct {
	sb    strings.Builder
	depth int
}

func (f *formatter) line(format string, args ...interface{}) {
	f.sb.WriteString(strings.Repeat(indentUnit, f.depth))
	fmt.Fprintf(&f.sb, format, args...)
	f.sb.WriteByte('\n')
}

func (f *formatter) exprString(e Expr) string {
	var sub formatter
	sub.expr(e)
	return sub.sb.String()
}

func (f *formatter) stmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		f.line("%s;", f.exprString(n.Expr))
	case *PrintStmt:
		f.line("print %s;", f.exprString(n.Value))
	case *VarDef:
		decl := "var " + n.Name
		if n.Type.Valid() {
			decl += " " + n.Type.String()
		}
		if n.Value != nil {
			decl += " = " + f.exprString(n.Value)
		}
		f.line("%s;", decl)
	case *ConstDef:
		decl := "const " + n.Name
		if n.Type.Valid() {
			decl += " " + n.Type.String()
		}
		f.line("%s = %s;", decl, f.exprString(n.Value))
	case *FuncDef:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name + " " + p.Type.String()
		}
		f.line("func %s(%s) %s {", n.Name, strings.Join(params, ", "), n.Return)
		f.body(n.Body)
		f.line("}")
	case *AssignStmt:
		f.line("%s = %s;", n.Name, f.exprString(n.Value))
	case *Block:
		f.line("{")
		f.body(n)
		f.line("}")
	case *IfStmt:
		f.line("if %s {", f.exprString(n.Condition))
		f.ifTail(n)
	case *WhileStmt:
		f.line("while %s {", f.exprString(n.Condition))
		f.body(n.Body)
		f.line("}")
	case *BreakStmt:
		f.line("break;")
	case *ContinueStmt:
		f.line("continue;")
	case *ReturnStmt:
		f.line("return %s;", f.exprString(n.Value))
	}
}

// ifTail writes the then-block and any else chain of an if whose header
// has already been written.
func (f *formatter) ifTail(n *IfStmt) {
	f.body(n.Then)
	if n.Else == nil {
		f.line("}")
		return
	}
	if len(n.Else.Stmts) == 1 {
		if inner, ok := n.Else.Stmts[0].(*IfStmt); ok {
			f.line("} else if %s {", f.exprString(inner.Condition))
			f.ifTail(inner)
			return
		}
	}
	f.line("} else {")
	f.body(n.Else)
	f.line("}")
}

func (f *formatter) body(b *Block) {
	f.depth++
	for _, s := range b.Stmts {
		f.stmt(s)
	}
	f.depth--
}

func (f *formatter) expr(e Expr) {
	switch n := e.(type) {
	case *Name:
		f.sb.WriteString(n.Name)
	case *TypeName:
		f.sb.WriteString(n.Type.String())
	case *IntLiteral:
		f.sb.WriteString(strconv.FormatInt(int64(n.Value), 10))
	case *FloatLiteral:
		s := strconv.FormatFloat(n.Value, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		f.sb.WriteString(s)
	case *CharLiteral:
		f.sb.WriteString(QuoteChar(n.Value))
	case *BoolLiteral:
		f.sb.WriteString(strconv.FormatBool(n.Value))
	case *Grouping:
		f.sb.WriteByte('(')
		f.expr(n.Inner)
		f.sb.WriteByte(')')
	case *UnaryExpr:
		f.sb.WriteString(n.Op.String())
		f.expr(n.Operand)
	case *BinaryExpr:
		f.infix(n.Left, n.Op, n.Right)
	case *LogicalExpr:
		f.infix(n.Left, n.Op, n.Right)
	case *CallExpr:
		f.sb.WriteString(n.Callee)
		f.args(n.Args)
	case *ConversionExpr:
		f.sb.WriteString(n.Target.String())
		f.args(n.Args)
	}
}

func (f *formatter) infix(left Expr, op token.Kind, right Expr) {
	f.expr(left)
	f.sb.WriteString(" " + op.String() + " ")
	f.expr(right)
}

func (f *formatter) args(args []Expr) {
	f.sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			f.sb.WriteString(", ")
		}
		f.expr(a)
	}
	f.sb.WriteByte(')')
}

// QuoteChar returns the source form of a character literal.
func QuoteChar(c byte) string {
	switch c {
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\\':
		return `'\\'`
	case '\'':
		return `'\''`
	case 0:
		return `'\0'`
	}
	return "'" + string(rune(c)) + "'"
}

package ast

import (
	"wabbit/internal/span"
	"wabbit/internal/token"
)

// ProgramToMap converts a program to a map suitable for JSON serialization.
func ProgramToMap(prog *Program) map[string]interface{} {
	stmts := make([]interface{}, len(prog.Stmts))
	for i, s := range prog.Stmts {
		stmts[i] = NodeToMap(s, prog.Ranges)
	}
	return map[string]interface{}{
		"kind":  "Program",
		"stmts": stmts,
	}
}

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has "kind" and "id"
// fields, plus "span" when ranges knows the node.
func NodeToMap(node Node, ranges Ranges) map[string]interface{} {
	if node == nil {
		return nil
	}
	e := encoder{ranges: ranges}
	return e.node(node)
}

type encoder struct {
	ranges Ranges
}

func (e encoder) node(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	// ---- Expressions ----
	case *Name:
		return e.m("Name", n, "name", n.Name)
	case *TypeName:
		return e.m("TypeName", n, "type", n.Type.String())
	case *IntLiteral:
		return e.m("IntLiteral", n, "value", n.Value)
	case *FloatLiteral:
		return e.m("FloatLiteral", n, "value", n.Value)
	case *CharLiteral:
		return e.m("CharLiteral", n, "value", string(rune(n.Value)))
	case *BoolLiteral:
		return e.m("BoolLiteral", n, "value", n.Value)
	case *Grouping:
		return e.m("Grouping", n, "inner", e.node(n.Inner))
	case *UnaryExpr:
		return e.m("UnaryExpr", n, "op", opStr(n.Op), "operand", e.node(n.Operand))
	case *BinaryExpr:
		return e.m("BinaryExpr", n,
			"op", opStr(n.Op),
			"left", e.node(n.Left),
			"right", e.node(n.Right))
	case *LogicalExpr:
		return e.m("LogicalExpr", n,
			"op", opStr(n.Op),
			"left", e.node(n.Left),
			"right", e.node(n.Right))
	case *CallExpr:
		return e.m("CallExpr", n, "callee", n.Callee, "args", e.exprs(n.Args))
	case *ConversionExpr:
		return e.m("ConversionExpr", n, "target", n.Target.String(), "args", e.exprs(n.Args))

	// ---- Statements ----
	case *ExprStmt:
		return e.m("ExprStmt", n, "expr", e.node(n.Expr))
	case *PrintStmt:
		return e.m("PrintStmt", n, "value", e.node(n.Value))
	case *VarDef:
		result := e.m("VarDef", n, "name", n.Name)
		if n.Type.Valid() {
			result["type"] = n.Type.String()
		}
		if n.Value != nil {
			result["value"] = e.node(n.Value)
		}
		return result
	case *ConstDef:
		result := e.m("ConstDef", n, "name", n.Name, "value", e.node(n.Value))
		if n.Type.Valid() {
			result["type"] = n.Type.String()
		}
		return result
	case *FuncDef:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			params[i] = map[string]interface{}{"name": p.Name, "type": p.Type.String()}
		}
		return e.m("FuncDef", n,
			"name", n.Name,
			"params", params,
			"return", n.Return.String(),
			"body", e.node(n.Body))
	case *AssignStmt:
		return e.m("AssignStmt", n, "name", n.Name, "value", e.node(n.Value))
	case *Block:
		return e.m("Block", n, "stmts", e.stmts(n.Stmts))
	case *IfStmt:
		result := e.m("IfStmt", n,
			"condition", e.node(n.Condition),
			"then", e.node(n.Then))
		if n.Else != nil {
			result["else"] = e.node(n.Else)
		}
		return result
	case *WhileStmt:
		return e.m("WhileStmt", n,
			"condition", e.node(n.Condition),
			"body", e.node(n.Body))
	case *BreakStmt:
		return e.m("BreakStmt", n)
	case *ContinueStmt:
		return e.m("ContinueStmt", n)
	case *ReturnStmt:
		return e.m("ReturnStmt", n, "value", e.node(n.Value))

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, id, span, and extra key-value pairs.
func (e encoder) m(kind string, n Node, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"id":   int(n.GetID()),
	}
	if s, ok := e.ranges.Lookup(n.GetID()); ok {
		result["span"] = spanToMap(s)
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func (e encoder) stmts(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = e.node(s)
	}
	return result
}

func (e encoder) exprs(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, x := range exprs {
		result[i] = e.node(x)
	}
	return result
}

func opStr(kind token.Kind) string {
	return kind.String()
}

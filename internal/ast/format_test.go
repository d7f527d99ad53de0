package ast

import (
	"testing"
	"wabbit/internal/span"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

func TestFormatExprLiterals(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{&IntLiteral{Value: 42}, "42"},
		{&FloatLiteral{Value: 2}, "2.0"},
		{&FloatLiteral{Value: 0.25}, "0.25"},
		{&BoolLiteral{Value: true}, "true"},
		{&CharLiteral{Value: 'a'}, "'a'"},
		{&TypeName{Type: types.Char}, "char"},
		{&UnaryExpr{Op: token.MINUS, Operand: &Name{Name: "x"}}, "-x"},
		{&ConversionExpr{Target: types.Float, Args: []Expr{&Name{Name: "n"}}}, "float(n)"},
		{&CallExpr{Callee: "f", Args: []Expr{&IntLiteral{Value: 1}, &Name{Name: "y"}}}, "f(1, y)"},
		{&Grouping{Inner: &LogicalExpr{Op: token.OR, Left: &Name{Name: "a"}, Right: &Name{Name: "b"}}}, "(a || b)"},
	}
	for _, tt := range tests {
		if got := FormatExpr(tt.expr); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestQuoteChar(t *testing.T) {
	tests := map[byte]string{
		'x':  `'x'`,
		'\n': `'\n'`,
		'\t': `'\t'`,
		'\\': `'\\'`,
		'\'': `'\''`,
		0:    `'\0'`,
	}
	for c, want := range tests {
		if got := QuoteChar(c); got != want {
			t.Errorf("QuoteChar(%d): expected %s, got %s", c, want, got)
		}
	}
}

func TestNodeToMapSpan(t *testing.T) {
	ranges := Ranges{1: span.Span{Start: span.Position{Line: 1, Column: 7}, End: span.Position{Line: 1, Column: 8}}}
	n := &Name{ExprBase: ExprBase{NodeBase{ID: 1}}, Name: "y"}

	m := NodeToMap(n, ranges)
	if m["kind"] != "Name" || m["name"] != "y" || m["id"] != 1 {
		t.Errorf("unexpected map %v", m)
	}
	if _, ok := m["span"]; !ok {
		t.Error("expected a span for a known node")
	}

	m = NodeToMap(&Name{ExprBase: ExprBase{NodeBase{ID: 2}}, Name: "z"}, ranges)
	if _, ok := m["span"]; ok {
		t.Error("unknown node should have no span")
	}
}

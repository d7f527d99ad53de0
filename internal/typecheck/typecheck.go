// Package typecheck proves, without running the program, that every
// expression has a well-defined type and every statement obeys the
// scoping, arity and return rules.
//
// Unlike the interpreter it analyzes both branches of every if and the body
// of every while, so a returned Signal describes what a statement may do
// rather than what it did.
package typecheck

import (
	"wabbit/internal/analysis"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/scope"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

type signal = analysis.Signal[types.Type]

// Checker is one typechecking pass over a program.
type Checker struct {
	*analysis.Core[types.Type]
}

// NewChecker creates a checker with fresh tables for prog.
func NewChecker(prog *ast.Program) *Checker {
	return &Checker{Core: analysis.NewCore[types.Type](prog)}
}

// Check typechecks prog and returns the first diagnostic found.
func Check(prog *ast.Program) error {
	return NewChecker(prog).Check()
}

// Check walks every top-level statement. The returned error is a
// *diag.Diagnostic.
func (c *Checker) Check() error {
	for _, s := range c.Program.Stmts {
		if _, err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Statements
// ============================================================

func (c *Checker) stmt(s ast.Stmt) (signal, error) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := c.expr(n.Expr)
		return signal{}, err
	case *ast.PrintStmt:
		_, err := c.expr(n.Value)
		return signal{}, err
	case *ast.VarDef:
		return signal{}, c.varDef(n)
	case *ast.ConstDef:
		return signal{}, c.constDef(n)
	case *ast.FuncDef:
		return signal{}, c.funcDef(n)
	case *ast.AssignStmt:
		return signal{}, c.assign(n)
	case *ast.Block:
		c.Push()
		sig, err := c.block(n)
		if err != nil {
			return signal{}, err
		}
		return sig, c.Pop(n.ID)
	case *ast.IfStmt:
		return c.ifStmt(n)
	case *ast.WhileStmt:
		return c.whileStmt(n)
	case *ast.BreakStmt:
		return signal{Kind: analysis.Break}, c.CheckLoop(n.ID)
	case *ast.ContinueStmt:
		return signal{Kind: analysis.Continue}, c.CheckLoop(n.ID)
	case *ast.ReturnStmt:
		if err := c.CheckReturn(n.ID); err != nil {
			return signal{}, err
		}
		t, err := c.expr(n.Value)
		if err != nil {
			return signal{}, err
		}
		return analysis.Returned(t), nil
	default:
		return signal{}, c.Internalf(s.GetID(), "unexpected statement %T", s)
	}
}

func (c *Checker) varDef(n *ast.VarDef) error {
	if err := c.DeclareVar(n); err != nil {
		return err
	}
	if n.Value == nil {
		if !n.Type.Valid() {
			return c.Internalf(n.ID, "variable '%s' has neither type nor value", n.Name)
		}
		c.Env.DefineUninit(n.Name, n.Type)
		return nil
	}
	t, err := c.expr(n.Value)
	if err != nil {
		return err
	}
	if n.Type.Valid() && n.Type != t {
		return c.Errorf(diag.InitType, n.ID)
	}
	c.Env.DefineInit(n.Name, t)
	return nil
}

func (c *Checker) constDef(n *ast.ConstDef) error {
	if err := c.DeclareConst(n); err != nil {
		return err
	}
	t, err := c.expr(n.Value)
	if err != nil {
		return err
	}
	if n.Type.Valid() && n.Type != t {
		return c.Errorf(diag.InitType, n.ID)
	}
	c.Consts[n.Name] = t
	return nil
}

// funcDef registers fn before analyzing its body so the body may recurse.
// A function whose body fails analysis is unregistered again.
func (c *Checker) funcDef(fn *ast.FuncDef) error {
	if err := c.DeclareFunc(fn); err != nil {
		return err
	}
	c.Funcs[fn.Name] = fn
	if err := c.funcBody(fn); err != nil {
		delete(c.Funcs, fn.Name)
		c.unwind()
		return err
	}
	return nil
}

// unwind drops every frame left open by a body that failed part way.
func (c *Checker) unwind() {
	for !c.Env.InGlobal() {
		_ = c.Env.Pop()
	}
}

func (c *Checker) funcBody(fn *ast.FuncDef) error {
	params := make([]scope.Param[types.Type], len(fn.Params))
	for i, p := range fn.Params {
		params[i] = scope.Param[types.Type]{Name: p.Name, Value: p.Type}
	}

	c.PushCall(params)
	c.CallDepth++
	sig, err := c.block(fn.Body)
	c.CallDepth--
	if err != nil {
		return err
	}
	if err := c.Pop(fn.ID); err != nil {
		return err
	}

	if sig.Kind != analysis.Return {
		return c.Errorf(diag.NoReturn, fn.ID)
	}
	if sig.Value != fn.Return {
		return c.Errorf(diag.ReturnType, fn.ID, fn.Name, fn.Return, sig.Value)
	}
	return nil
}

func (c *Checker) assign(n *ast.AssignStmt) error {
	if err := c.CheckAssignTarget(n); err != nil {
		return err
	}
	t, err := c.expr(n.Value)
	if err != nil {
		return err
	}
	slot, ok := c.Env.Lookup(n.Name)
	if !ok {
		return c.Errorf(diag.AssignUndefined, n.ID)
	}
	if slot.Value != t {
		return c.Errorf(diag.AssignRetype, n.ID, n.Name, slot.Value, t)
	}
	return c.Assign(n.Name, t, n.ID)
}

// block analyzes the statements of b in the current frame and folds the
// return types they may produce.
//
// A Return counts as guaranteed when its Definite bit is set. Collecting
// return types without any guaranteed one is an error outside loops, where
// the path that falls through has nothing to return.
func (c *Checker) block(b *ast.Block) (signal, error) {
	var found []types.Type
	definite := false
	for _, s := range b.Stmts {
		sig, err := c.stmt(s)
		if err != nil {
			return signal{}, err
		}
		if sig.Kind != analysis.Return {
			continue
		}
		found = append(found, sig.Value)
		definite = definite || sig.Definite
	}

	if len(found) == 0 {
		return signal{}, nil
	}
	if !definite && c.LoopDepth == 0 {
		return signal{}, c.Errorf(diag.AltBranch, b.ID)
	}
	for _, t := range found[1:] {
		if t != found[0] {
			return signal{}, c.Errorf(diag.ReturnDiverge, b.ID)
		}
	}
	return signal{Kind: analysis.Return, Value: found[0], Definite: definite}, nil
}

// ifStmt analyzes both branches, each in its own frame.
func (c *Checker) ifStmt(n *ast.IfStmt) (signal, error) {
	if err := c.expectBool(n.Condition); err != nil {
		return signal{}, err
	}

	then, err := c.branch(n.Then, n.ID)
	if err != nil {
		return signal{}, err
	}
	if n.Else == nil {
		if then.Kind == analysis.Return {
			return analysis.MayReturn(then.Value), nil
		}
		return signal{}, nil
	}

	other, err := c.branch(n.Else, n.ID)
	if err != nil {
		return signal{}, err
	}

	switch {
	case then.Kind == analysis.Return && other.Kind == analysis.Return:
		if then.Value != other.Value {
			return signal{}, c.Errorf(diag.ReturnDiverge, n.ID)
		}
		return signal{Kind: analysis.Return, Value: then.Value, Definite: then.Definite && other.Definite}, nil
	case then.Kind == analysis.Return:
		return analysis.MayReturn(then.Value), nil
	case other.Kind == analysis.Return:
		return analysis.MayReturn(other.Value), nil
	}
	return signal{}, nil
}

func (c *Checker) branch(b *ast.Block, owner ast.NodeID) (signal, error) {
	c.Push()
	sig, err := c.block(b)
	if err != nil {
		return signal{}, err
	}
	return sig, c.Pop(owner)
}

// whileStmt analyzes the body once. A return inside it is never
// guaranteed since the body may run zero times.
func (c *Checker) whileStmt(n *ast.WhileStmt) (signal, error) {
	if err := c.expectBool(n.Condition); err != nil {
		return signal{}, err
	}

	c.LoopDepth++
	sig, err := c.branch(n.Body, n.ID)
	c.LoopDepth--
	if err != nil {
		return signal{}, err
	}
	if sig.Kind == analysis.Return {
		return analysis.MayReturn(sig.Value), nil
	}
	return signal{}, nil
}

// ============================================================
// Expressions
// ============================================================

func (c *Checker) expr(e ast.Expr) (types.Type, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return types.Int, nil
	case *ast.FloatLiteral:
		return types.Float, nil
	case *ast.CharLiteral:
		return types.Char, nil
	case *ast.BoolLiteral:
		return types.Bool, nil
	case *ast.Name:
		return c.Lookup(n.Name, n.ID)
	case *ast.TypeName:
		return types.None, c.Errorf(diag.TypeEval, n.ID)
	case *ast.Grouping:
		return c.expr(n.Inner)
	case *ast.UnaryExpr:
		return c.unary(n)
	case *ast.BinaryExpr:
		return c.binary(n)
	case *ast.LogicalExpr:
		// both operands are analyzed; only evaluation short-circuits
		if err := c.expectBool(n.Left); err != nil {
			return types.None, err
		}
		if err := c.expectBool(n.Right); err != nil {
			return types.None, err
		}
		return types.Bool, nil
	case *ast.CallExpr:
		return c.call(n)
	case *ast.ConversionExpr:
		return c.conversion(n)
	default:
		return types.None, c.Internalf(e.GetID(), "unexpected expression %T", e)
	}
}

func (c *Checker) expectBool(e ast.Expr) error {
	t, err := c.expr(e)
	if err != nil {
		return err
	}
	if t != types.Bool {
		return c.Errorf(diag.ExpectType, e.GetID(), types.List(types.Bool))
	}
	return nil
}

func (c *Checker) unary(n *ast.UnaryExpr) (types.Type, error) {
	t, err := c.expr(n.Operand)
	if err != nil {
		return types.None, err
	}
	switch n.Op {
	case token.BANG:
		if t != types.Bool {
			return types.None, c.Errorf(diag.ExpectType, n.Operand.GetID(), types.List(types.Bool))
		}
	case token.PLUS, token.MINUS:
		if !t.IsNumeric() {
			return types.None, c.Errorf(diag.ExpectType, n.Operand.GetID(), types.List(types.Int, types.Float))
		}
	default:
		return types.None, c.Internalf(n.ID, "unknown unary operator %s", n.Op)
	}
	return t, nil
}

func (c *Checker) binary(n *ast.BinaryExpr) (types.Type, error) {
	left, err := c.expr(n.Left)
	if err != nil {
		return types.None, err
	}
	right, err := c.expr(n.Right)
	if err != nil {
		return types.None, err
	}
	if left != right {
		return types.None, c.Errorf(diag.TypeMatch, n.ID)
	}

	switch n.Op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		if !left.IsNumeric() {
			return types.None, c.Errorf(diag.ExpectType, n.ID, types.List(types.Int, types.Float))
		}
		return left, nil
	case token.LT, token.LTE, token.GT, token.GTE:
		if !left.IsOrdered() {
			return types.None, c.Errorf(diag.ExpectType, n.ID, types.List(types.Int, types.Float, types.Char))
		}
		return types.Bool, nil
	case token.EQ, token.NEQ:
		return types.Bool, nil
	default:
		return types.None, c.Internalf(n.ID, "unknown binary operator %s", n.Op)
	}
}

func (c *Checker) call(n *ast.CallExpr) (types.Type, error) {
	fn, ok := c.Funcs[n.Callee]
	if !ok {
		return types.None, c.Errorf(diag.FuncUndefined, n.ID)
	}
	if len(fn.Params) != len(n.Args) {
		return types.None, c.Errorf(diag.FuncArity, n.ID, fn.Name, len(fn.Params), len(n.Args))
	}
	for i, arg := range n.Args {
		t, err := c.expr(arg)
		if err != nil {
			return types.None, err
		}
		if p := fn.Params[i]; t != p.Type {
			return types.None, c.Errorf(diag.ParamType, arg.GetID(), p.Name, p.Type, t)
		}
	}
	return fn.Return, nil
}

func (c *Checker) conversion(n *ast.ConversionExpr) (types.Type, error) {
	if len(n.Args) != 1 {
		return types.None, c.Errorf(diag.ConvertArity, n.ID)
	}
	from, err := c.expr(n.Args[0])
	if err != nil {
		return types.None, err
	}
	if !types.CanConvert(n.Target, from) {
		return types.None, c.Errorf(diag.TypeConvert, n.ID)
	}
	return n.Target, nil
}

package runtime

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"wabbit/internal/analysis"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/scope"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

// ============================================================
// Control flow signals
// ============================================================

type signal = analysis.Signal[Value]

var resultNone = signal{}

// ============================================================
// Limits
// ============================================================

// Limits bounds the resources one run may use.
type Limits struct {
	MaxCallDepth int // nested function calls allowed before CallDepth is raised
}

// DefaultLimits is used unless SetLimits is called.
var DefaultLimits = Limits{
	MaxCallDepth: 10000,
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. Each Run starts from fresh
// scope, constant and function tables.
type Interpreter struct {
	*analysis.Core[Value]

	output io.Writer
	trace  []Value
	limits Limits
	logger *slog.Logger
}

// NewInterpreter creates an interpreter that prints to output.
func NewInterpreter(output io.Writer) *Interpreter {
	return &Interpreter{
		output: output,
		limits: DefaultLimits,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLimits replaces the resource limits for subsequent runs.
func (i *Interpreter) SetLimits(l Limits) {
	i.limits = l
}

// SetLogger sets the logger used for operational messages.
func (i *Interpreter) SetLogger(l *slog.Logger) {
	if l != nil {
		i.logger = l
	}
}

// Run executes the program. The returned error is a *diag.Diagnostic for
// the first failure.
func (i *Interpreter) Run(prog *ast.Program) error {
	i.Core = analysis.NewCore[Value](prog)
	i.trace = nil

	for _, s := range prog.Stmts {
		sig, err := i.execStmt(s)
		if err != nil {
			return err
		}
		if !sig.IsUnit() {
			return i.Internalf(s.GetID(), "%s signal escaped to the top level", sig.Kind)
		}
	}
	i.logger.Debug("run finished", "printed", len(i.trace))
	return nil
}

// Output returns every value printed by the last run, in order.
func (i *Interpreter) Output() []Value {
	return i.trace
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (signal, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return resultNone, err
		}
		i.print(v)
		return resultNone, nil

	case *ast.VarDef:
		return resultNone, i.execVarDef(s)

	case *ast.ConstDef:
		return resultNone, i.execConstDef(s)

	case *ast.FuncDef:
		if err := i.DeclareFunc(s); err != nil {
			return resultNone, err
		}
		i.Funcs[s.Name] = s
		return resultNone, nil

	case *ast.AssignStmt:
		return resultNone, i.execAssign(s)

	case *ast.Block:
		i.Push()
		sig, err := i.execBlock(s)
		if err != nil {
			return resultNone, err
		}
		return sig, i.Pop(s.ID)

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.BreakStmt:
		if err := i.CheckLoop(s.ID); err != nil {
			return resultNone, err
		}
		return signal{Kind: analysis.Break}, nil

	case *ast.ContinueStmt:
		if err := i.CheckLoop(s.ID); err != nil {
			return resultNone, err
		}
		return signal{Kind: analysis.Continue}, nil

	case *ast.ReturnStmt:
		if err := i.CheckReturn(s.ID); err != nil {
			return resultNone, err
		}
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return resultNone, err
		}
		return analysis.Returned(v), nil

	default:
		return resultNone, i.Internalf(stmt.GetID(), "unexpected statement %T", stmt)
	}
}

// print writes v and records it in the trace. Characters are written
// without a trailing newline so strings can be spelled out char by char.
func (i *Interpreter) print(v Value) {
	if _, ok := v.(CharVal); ok {
		fmt.Fprint(i.output, v.String())
	} else {
		fmt.Fprintln(i.output, v.String())
	}
	i.trace = append(i.trace, v)
}

func (i *Interpreter) execVarDef(s *ast.VarDef) error {
	if err := i.DeclareVar(s); err != nil {
		return err
	}
	if s.Value == nil {
		if !s.Type.Valid() {
			return i.Internalf(s.ID, "variable '%s' has neither type nor value", s.Name)
		}
		i.Env.DefineUninit(s.Name, Zero(s.Type))
		return nil
	}
	v, err := i.evalExpr(s.Value)
	if err != nil {
		return err
	}
	if s.Type.Valid() && s.Type != v.Type() {
		return i.Errorf(diag.InitType, s.ID)
	}
	i.Env.DefineInit(s.Name, v)
	return nil
}

func (i *Interpreter) execConstDef(s *ast.ConstDef) error {
	if err := i.DeclareConst(s); err != nil {
		return err
	}
	v, err := i.evalExpr(s.Value)
	if err != nil {
		return err
	}
	if s.Type.Valid() && s.Type != v.Type() {
		return i.Errorf(diag.InitType, s.ID)
	}
	i.Consts[s.Name] = v
	return nil
}

func (i *Interpreter) execAssign(s *ast.AssignStmt) error {
	if err := i.CheckAssignTarget(s); err != nil {
		return err
	}
	v, err := i.evalExpr(s.Value)
	if err != nil {
		return err
	}
	slot, ok := i.Env.Lookup(s.Name)
	if !ok {
		return i.Errorf(diag.AssignUndefined, s.ID)
	}
	if old := slot.Value.Type(); old != v.Type() {
		return i.Errorf(diag.AssignRetype, s.ID, s.Name, old, v.Type())
	}
	return i.Assign(s.Name, v, s.ID)
}

// execBlock runs statements in the current frame until one yields a
// signal other than Unit.
func (i *Interpreter) execBlock(block *ast.Block) (signal, error) {
	for _, stmt := range block.Stmts {
		sig, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if !sig.IsUnit() {
			return sig, nil
		}
	}
	return resultNone, nil
}

// execIf runs only the taken branch, in a frame of its own.
func (i *Interpreter) execIf(s *ast.IfStmt) (signal, error) {
	cond, err := i.evalBool(s.Condition)
	if err != nil {
		return resultNone, err
	}

	body := s.Then
	if !cond {
		body = s.Else
	}
	if body == nil {
		return resultNone, nil
	}

	i.Push()
	sig, err := i.execBlock(body)
	if err != nil {
		return resultNone, err
	}
	return sig, i.Pop(s.ID)
}

// execWhile gives every iteration a fresh frame, popped however the
// iteration ends.
func (i *Interpreter) execWhile(s *ast.WhileStmt) (signal, error) {
	for {
		cond, err := i.evalBool(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !cond {
			return resultNone, nil
		}

		i.LoopDepth++
		i.Push()
		sig, err := i.execBlock(s.Body)
		i.LoopDepth--
		if err != nil {
			return resultNone, err
		}
		if err := i.Pop(s.ID); err != nil {
			return resultNone, err
		}

		switch sig.Kind {
		case analysis.Break:
			return resultNone, nil
		case analysis.Return:
			return sig, nil
		}
	}
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return IntVal(e.Value), nil
	case *ast.FloatLiteral:
		return FloatVal(e.Value), nil
	case *ast.CharLiteral:
		return CharVal(e.Value), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.Name:
		return i.Lookup(e.Name, e.ID)
	case *ast.TypeName:
		return nil, i.Errorf(diag.TypeEval, e.ID)
	case *ast.Grouping:
		return i.evalExpr(e.Inner)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.LogicalExpr:
		return i.evalLogical(e)
	case *ast.CallExpr:
		return i.callFunc(e)
	case *ast.ConversionExpr:
		if len(e.Args) != 1 {
			return nil, i.Errorf(diag.ConvertArity, e.ID)
		}
		v, err := i.evalExpr(e.Args[0])
		if err != nil {
			return nil, err
		}
		out, ok := Convert(e.Target, v)
		if !ok {
			return nil, i.Errorf(diag.TypeConvert, e.ID)
		}
		return out, nil
	default:
		return nil, i.Internalf(expr.GetID(), "unexpected expression %T", expr)
	}
}

func (i *Interpreter) evalBool(expr ast.Expr) (bool, error) {
	v, err := i.evalExpr(expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(BoolVal)
	if !ok {
		return false, i.Errorf(diag.ExpectType, expr.GetID(), types.List(types.Bool))
	}
	return bool(b), nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	v, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.BANG:
		if b, ok := v.(BoolVal); ok {
			return !b, nil
		}
		return nil, i.Errorf(diag.ExpectType, e.Operand.GetID(), types.List(types.Bool))
	case token.MINUS:
		switch x := v.(type) {
		case IntVal:
			return -x, nil
		case FloatVal:
			return -x, nil
		}
	case token.PLUS:
		if v.Type().IsNumeric() {
			return v, nil
		}
	default:
		return nil, i.Internalf(e.ID, "unknown unary operator %s", e.Op)
	}
	return nil, i.Errorf(diag.ExpectType, e.Operand.GetID(), types.List(types.Int, types.Float))
}

// evalLogical evaluates the right operand only when the left one does not
// decide the result.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evalBool(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.AND && !left {
		return BoolVal(false), nil
	}
	if e.Op == token.OR && left {
		return BoolVal(true), nil
	}
	right, err := i.evalBool(e.Right)
	if err != nil {
		return nil, err
	}
	return BoolVal(right), nil
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	if left.Type() != right.Type() {
		return nil, i.Errorf(diag.TypeMatch, e.ID)
	}

	switch e.Op {
	case token.EQ:
		return BoolVal(left == right), nil
	case token.NEQ:
		return BoolVal(left != right), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		if !left.Type().IsOrdered() {
			return nil, i.Errorf(diag.ExpectType, e.ID, types.List(types.Int, types.Float, types.Char))
		}
		return BoolVal(compare(e.Op, left, right)), nil
	}

	switch l := left.(type) {
	case IntVal:
		r := right.(IntVal)
		switch e.Op {
		case token.PLUS:
			return l + r, nil
		case token.MINUS:
			return l - r, nil
		case token.STAR:
			return l * r, nil
		case token.SLASH:
			if r == 0 {
				return nil, i.Errorf(diag.DivideByZero, e.ID)
			}
			return l / r, nil
		}
	case FloatVal:
		r := right.(FloatVal)
		switch e.Op {
		case token.PLUS:
			return l + r, nil
		case token.MINUS:
			return l - r, nil
		case token.STAR:
			return l * r, nil
		case token.SLASH:
			return l / r, nil
		}
	default:
		return nil, i.Errorf(diag.ExpectType, e.ID, types.List(types.Int, types.Float))
	}
	return nil, i.Internalf(e.ID, "unknown binary operator %s", e.Op)
}

// compare orders two values of the same ordered type.
func compare(op token.Kind, left, right Value) bool {
	var cmp int
	switch l := left.(type) {
	case IntVal:
		cmp = order(l, right.(IntVal))
	case FloatVal:
		r := right.(FloatVal)
		if math.IsNaN(float64(l)) || math.IsNaN(float64(r)) {
			return false
		}
		cmp = order(l, r)
	case CharVal:
		cmp = order(l, right.(CharVal))
	}

	switch op {
	case token.LT:
		return cmp < 0
	case token.LTE:
		return cmp <= 0
	case token.GT:
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func order[T IntVal | FloatVal | CharVal](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ============================================================
// Function calls
// ============================================================

// callFunc evaluates arguments left to right, then runs the body in a
// call frame that sees only its parameters and the globals.
func (i *Interpreter) callFunc(e *ast.CallExpr) (Value, error) {
	fn, ok := i.Funcs[e.Callee]
	if !ok {
		return nil, i.Errorf(diag.FuncUndefined, e.ID)
	}
	if len(fn.Params) != len(e.Args) {
		return nil, i.Errorf(diag.FuncArity, e.ID, fn.Name, len(fn.Params), len(e.Args))
	}

	params := make([]scope.Param[Value], len(fn.Params))
	for idx, arg := range e.Args {
		v, err := i.evalExpr(arg)
		if err != nil {
			return nil, err
		}
		p := fn.Params[idx]
		if v.Type() != p.Type {
			return nil, i.Errorf(diag.ParamType, arg.GetID(), p.Name, p.Type, v.Type())
		}
		params[idx] = scope.Param[Value]{Name: p.Name, Value: v}
	}

	if i.CallDepth >= i.limits.MaxCallDepth {
		i.logger.Warn("call depth limit reached", "function", fn.Name, "limit", i.limits.MaxCallDepth)
		return nil, i.Errorf(diag.CallDepth, e.ID, i.limits.MaxCallDepth)
	}

	// loops of the caller do not license break/continue in the callee
	savedLoops := i.LoopDepth
	i.LoopDepth = 0
	i.PushCall(params)
	i.CallDepth++
	sig, err := i.execBlock(fn.Body)
	i.CallDepth--
	i.LoopDepth = savedLoops
	if err != nil {
		return nil, err
	}
	if err := i.Pop(e.ID); err != nil {
		return nil, err
	}

	if sig.Kind != analysis.Return {
		return nil, i.Errorf(diag.NoReturn, fn.ID)
	}
	if got := sig.Value.Type(); got != fn.Return {
		return nil, i.Errorf(diag.ReturnType, fn.ID, fn.Name, fn.Return, got)
	}
	return sig.Value, nil
}

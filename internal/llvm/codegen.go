// Package llvm lowers a typechecked program to textual LLVM IR.
//
// The module holds a small print runtime, one internal function per Wabbit
// function, and an i32 @main running the top-level statements, so the
// output can be handed to clang or lli as is. Globals are named
// @var.<name> and @const.<name>, functions @fn.<name>; the dot keeps them
// apart from the runtime and from each other.
package llvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"wabbit/internal/analysis"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/scope"
	"wabbit/internal/token"
	"wabbit/internal/types"
)

// slot is what a name is bound to during lowering: the address of its
// storage and its static type.
type slot struct {
	ptr string
	typ types.Type
}

// operand is a lowered expression.
type operand struct {
	ref string
	typ types.Type
}

// Generator is one lowering pass over a program.
type Generator struct {
	*analysis.Core[slot]

	filename string
	globals  []string
	funcs    []*function
	main     *function
	cur      *function
}

// Generate lowers prog, which must already have passed typecheck.Check.
// Scope and namespace rules are enforced again through the shared analyzer
// core, so an unchecked program fails with the same diagnostics for those;
// type errors are not looked for.
func Generate(prog *ast.Program, filename string) (string, error) {
	g := &Generator{
		Core:     analysis.NewCore[slot](prog),
		filename: filename,
		main:     newFunction("define i32 @main()"),
	}
	g.cur = g.main

	for _, s := range prog.Stmts {
		if err := g.stmt(s); err != nil {
			return "", err
		}
	}
	g.main.terminate("ret i32 0")
	return g.module(), nil
}

func (g *Generator) module() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; ModuleID = '%s'\n", g.filename)
	fmt.Fprintf(&b, "source_filename = %s\n", strconv.Quote(g.filename))
	b.WriteString(runtimeIR)
	if len(g.globals) > 0 {
		b.WriteByte('\n')
		for _, line := range g.globals {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	for _, f := range g.funcs {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	b.WriteByte('\n')
	b.WriteString(g.main.String())
	return b.String()
}

// ============================================================
// Statements
// ============================================================

func (g *Generator) stmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := g.expr(n.Expr)
		return err

	case *ast.PrintStmt:
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.cur.emit("call void @print.%s(%s %s)", v.typ, irType(v.typ), v.ref)
		return nil

	case *ast.VarDef:
		return g.varDef(n)

	case *ast.ConstDef:
		return g.constDef(n)

	case *ast.FuncDef:
		return g.funcDef(n)

	case *ast.AssignStmt:
		return g.assign(n)

	case *ast.Block:
		return g.branch(n, n.ID)

	case *ast.IfStmt:
		return g.ifStmt(n)

	case *ast.WhileStmt:
		return g.whileStmt(n)

	case *ast.BreakStmt:
		l, err := g.innermostLoop(n.ID)
		if err != nil {
			return err
		}
		g.cur.terminate("br label %%%s", l.exit)
		return nil

	case *ast.ContinueStmt:
		l, err := g.innermostLoop(n.ID)
		if err != nil {
			return err
		}
		g.cur.terminate("br label %%%s", l.cont)
		return nil

	case *ast.ReturnStmt:
		if err := g.CheckReturn(n.ID); err != nil {
			return err
		}
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.cur.terminate("ret %s %s", irType(v.typ), v.ref)
		return nil

	default:
		return g.Internalf(s.GetID(), "unexpected statement %T", s)
	}
}

func (g *Generator) innermostLoop(id ast.NodeID) (loop, error) {
	if err := g.CheckLoop(id); err != nil {
		return loop{}, err
	}
	loops := g.cur.loops
	if len(loops) == 0 {
		return loop{}, g.Internalf(id, "loop depth %d without a loop target", g.LoopDepth)
	}
	return loops[len(loops)-1], nil
}

func (g *Generator) store(v operand, ptr string) {
	g.cur.emit("store %s %s, ptr %s", irType(v.typ), v.ref, ptr)
}

// varDef binds a global for a top-level variable and a stack slot for any
// other.
func (g *Generator) varDef(n *ast.VarDef) error {
	if err := g.DeclareVar(n); err != nil {
		return err
	}

	t := n.Type
	var init *operand
	if n.Value != nil {
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		init = &v
		if !t.Valid() {
			t = v.typ
		}
	}
	if !t.Valid() {
		return g.Internalf(n.ID, "variable '%s' has neither type nor value", n.Name)
	}

	var ptr string
	if g.Env.InGlobal() {
		ptr = "@var." + n.Name
		g.globals = append(g.globals, fmt.Sprintf("%s = internal global %s %s", ptr, irType(t), zeroValue(t)))
	} else {
		ptr = g.cur.alloca(n.Name, t)
	}
	if init != nil {
		g.store(*init, ptr)
	}
	g.Env.DefineInit(n.Name, slot{ptr: ptr, typ: t})
	return nil
}

func (g *Generator) constDef(n *ast.ConstDef) error {
	if err := g.DeclareConst(n); err != nil {
		return err
	}
	v, err := g.expr(n.Value)
	if err != nil {
		return err
	}
	ptr := "@const." + n.Name
	g.globals = append(g.globals, fmt.Sprintf("%s = internal global %s %s", ptr, irType(v.typ), zeroValue(v.typ)))
	g.store(v, ptr)
	g.Consts[n.Name] = slot{ptr: ptr, typ: v.typ}
	return nil
}

// funcDef lowers the body into a function of its own. Parameters are
// copied into stack slots so they can be assigned like any local.
func (g *Generator) funcDef(fn *ast.FuncDef) error {
	if err := g.DeclareFunc(fn); err != nil {
		return err
	}
	g.Funcs[fn.Name] = fn

	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		args[i] = fmt.Sprintf("%s %%arg.%s", irType(p.Type), p.Name)
	}
	f := newFunction(fmt.Sprintf("define internal %s @fn.%s(%s)", irType(fn.Return), fn.Name, strings.Join(args, ", ")))

	params := make([]scope.Param[slot], len(fn.Params))
	for i, p := range fn.Params {
		ptr := f.alloca(p.Name, p.Type)
		f.emit("store %s %%arg.%s, ptr %s", irType(p.Type), p.Name, ptr)
		params[i] = scope.Param[slot]{Name: p.Name, Value: slot{ptr: ptr, typ: p.Type}}
	}

	caller := g.cur
	g.cur = f
	g.PushCall(params)
	g.CallDepth++
	err := g.block(fn.Body)
	g.CallDepth--
	g.cur = caller
	if err != nil {
		return err
	}
	if err := g.Pop(fn.ID); err != nil {
		return err
	}

	// every path returned already; a checked body cannot fall off the end
	if !f.done {
		f.terminate("unreachable")
	}
	g.funcs = append(g.funcs, f)
	return nil
}

func (g *Generator) assign(n *ast.AssignStmt) error {
	if err := g.CheckAssignTarget(n); err != nil {
		return err
	}
	v, err := g.expr(n.Value)
	if err != nil {
		return err
	}
	s, ok := g.Env.Lookup(n.Name)
	if !ok {
		return g.Errorf(diag.AssignUndefined, n.ID)
	}
	if s.Value.typ != v.typ {
		return g.Errorf(diag.AssignRetype, n.ID, n.Name, s.Value.typ, v.typ)
	}
	g.store(v, s.Value.ptr)
	return nil
}

func (g *Generator) block(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// branch lowers b in a frame of its own.
func (g *Generator) branch(b *ast.Block, owner ast.NodeID) error {
	g.Push()
	if err := g.block(b); err != nil {
		return err
	}
	return g.Pop(owner)
}

func (g *Generator) ifStmt(n *ast.IfStmt) error {
	cond, err := g.expr(n.Condition)
	if err != nil {
		return err
	}

	f := g.cur
	then, end := f.labelName("if.then"), f.labelName("if.end")
	other := end
	if n.Else != nil {
		other = f.labelName("if.else")
	}
	f.terminate("br i1 %s, label %%%s, label %%%s", cond.ref, then, other)

	f.startBlock(then)
	if err := g.branch(n.Then, n.ID); err != nil {
		return err
	}
	f.jump(end)

	if n.Else != nil {
		f.startBlock(other)
		if err := g.branch(n.Else, n.ID); err != nil {
			return err
		}
		f.jump(end)
	}

	f.startBlock(end)
	return nil
}

func (g *Generator) whileStmt(n *ast.WhileStmt) error {
	f := g.cur
	cond, body, end := f.labelName("while.cond"), f.labelName("while.body"), f.labelName("while.end")

	f.label(cond)
	c, err := g.expr(n.Condition)
	if err != nil {
		return err
	}
	f.terminate("br i1 %s, label %%%s, label %%%s", c.ref, body, end)

	f.startBlock(body)
	f.loops = append(f.loops, loop{cont: cond, exit: end})
	g.LoopDepth++
	err = g.branch(n.Body, n.ID)
	g.LoopDepth--
	f.loops = f.loops[:len(f.loops)-1]
	if err != nil {
		return err
	}
	f.jump(cond)

	f.startBlock(end)
	return nil
}

// ============================================================
// Expressions
// ============================================================

func (g *Generator) expr(e ast.Expr) (operand, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return operand{strconv.FormatInt(int64(n.Value), 10), types.Int}, nil
	case *ast.FloatLiteral:
		return operand{floatConst(n.Value), types.Float}, nil
	case *ast.CharLiteral:
		return operand{strconv.Itoa(int(int8(n.Value))), types.Char}, nil
	case *ast.BoolLiteral:
		return operand{strconv.FormatBool(n.Value), types.Bool}, nil
	case *ast.Name:
		s, err := g.Lookup(n.Name, n.ID)
		if err != nil {
			return operand{}, err
		}
		return operand{g.cur.value("load %s, ptr %s", irType(s.typ), s.ptr), s.typ}, nil
	case *ast.TypeName:
		return operand{}, g.Errorf(diag.TypeEval, n.ID)
	case *ast.Grouping:
		return g.expr(n.Inner)
	case *ast.UnaryExpr:
		return g.unary(n)
	case *ast.BinaryExpr:
		return g.binary(n)
	case *ast.LogicalExpr:
		return g.logical(n)
	case *ast.CallExpr:
		return g.call(n)
	case *ast.ConversionExpr:
		return g.conversion(n)
	default:
		return operand{}, g.Internalf(e.GetID(), "unexpected expression %T", e)
	}
}

func (g *Generator) unary(n *ast.UnaryExpr) (operand, error) {
	v, err := g.expr(n.Operand)
	if err != nil {
		return operand{}, err
	}
	switch {
	case n.Op == token.PLUS && v.typ.IsNumeric():
		return v, nil
	case n.Op == token.MINUS && v.typ == types.Int:
		return operand{g.cur.value("sub i32 0, %s", v.ref), v.typ}, nil
	case n.Op == token.MINUS && v.typ == types.Float:
		return operand{g.cur.value("fneg double %s", v.ref), v.typ}, nil
	case n.Op == token.BANG && v.typ == types.Bool:
		return operand{g.cur.value("xor i1 %s, true", v.ref), v.typ}, nil
	}
	return operand{}, g.Internalf(n.ID, "unary %s on %s", n.Op, v.typ)
}

var arithmetic = map[token.Kind][2]string{
	token.PLUS:  {"add", "fadd"},
	token.MINUS: {"sub", "fsub"},
	token.STAR:  {"mul", "fmul"},
	token.SLASH: {"", "fdiv"},
}

// predicates maps a comparison to its instruction per operand type. Chars
// compare unsigned; float != is unordered so NaN != NaN holds.
var predicates = map[types.Type]map[token.Kind]string{
	types.Int: {
		token.EQ: "icmp eq", token.NEQ: "icmp ne",
		token.LT: "icmp slt", token.LTE: "icmp sle", token.GT: "icmp sgt", token.GTE: "icmp sge",
	},
	types.Char: {
		token.EQ: "icmp eq", token.NEQ: "icmp ne",
		token.LT: "icmp ult", token.LTE: "icmp ule", token.GT: "icmp ugt", token.GTE: "icmp uge",
	},
	types.Float: {
		token.EQ: "fcmp oeq", token.NEQ: "fcmp une",
		token.LT: "fcmp olt", token.LTE: "fcmp ole", token.GT: "fcmp ogt", token.GTE: "fcmp oge",
	},
	types.Bool: {
		token.EQ: "icmp eq", token.NEQ: "icmp ne",
	},
}

func (g *Generator) binary(n *ast.BinaryExpr) (operand, error) {
	l, err := g.expr(n.Left)
	if err != nil {
		return operand{}, err
	}
	r, err := g.expr(n.Right)
	if err != nil {
		return operand{}, err
	}
	if l.typ != r.typ {
		return operand{}, g.Errorf(diag.TypeMatch, n.ID)
	}
	t := irType(l.typ)

	if pred, ok := predicates[l.typ][n.Op]; ok {
		return operand{g.cur.value("%s %s %s, %s", pred, t, l.ref, r.ref), types.Bool}, nil
	}
	if ops, ok := arithmetic[n.Op]; ok && l.typ.IsNumeric() {
		if l.typ == types.Float {
			return operand{g.cur.value("%s %s %s, %s", ops[1], t, l.ref, r.ref), l.typ}, nil
		}
		if n.Op == token.SLASH {
			return operand{g.cur.value("call i32 @div.int(i32 %s, i32 %s)", l.ref, r.ref), l.typ}, nil
		}
		return operand{g.cur.value("%s %s %s, %s", ops[0], t, l.ref, r.ref), l.typ}, nil
	}
	return operand{}, g.Internalf(n.ID, "binary %s on %s", n.Op, l.typ)
}

// logical evaluates the right operand only on the path where it decides
// the result, joining both paths with a phi.
func (g *Generator) logical(n *ast.LogicalExpr) (operand, error) {
	left, err := g.expr(n.Left)
	if err != nil {
		return operand{}, err
	}

	f := g.cur
	rhs, end := f.labelName("logic.rhs"), f.labelName("logic.end")
	f.open()
	from := f.block
	short := "false"
	if n.Op == token.AND {
		f.terminate("br i1 %s, label %%%s, label %%%s", left.ref, rhs, end)
	} else {
		short = "true"
		f.terminate("br i1 %s, label %%%s, label %%%s", left.ref, end, rhs)
	}

	f.startBlock(rhs)
	right, err := g.expr(n.Right)
	if err != nil {
		return operand{}, err
	}
	tail := f.block
	f.jump(end)

	f.startBlock(end)
	ref := f.value("phi i1 [ %s, %%%s ], [ %s, %%%s ]", short, from, right.ref, tail)
	return operand{ref, types.Bool}, nil
}

// call evaluates arguments left to right, as the interpreter does.
func (g *Generator) call(n *ast.CallExpr) (operand, error) {
	fn, ok := g.Funcs[n.Callee]
	if !ok {
		return operand{}, g.Errorf(diag.FuncUndefined, n.ID)
	}
	if len(fn.Params) != len(n.Args) {
		return operand{}, g.Errorf(diag.FuncArity, n.ID, fn.Name, len(fn.Params), len(n.Args))
	}

	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		v, err := g.expr(arg)
		if err != nil {
			return operand{}, err
		}
		p := fn.Params[i]
		if v.typ != p.Type {
			return operand{}, g.Errorf(diag.ParamType, arg.GetID(), p.Name, p.Type, v.typ)
		}
		args[i] = irType(v.typ) + " " + v.ref
	}
	ref := g.cur.value("call %s @fn.%s(%s)", irType(fn.Return), fn.Name, strings.Join(args, ", "))
	return operand{ref, fn.Return}, nil
}

// conversions holds the instruction for each legal non-identity
// conversion, keyed by {target, source}. float to int saturates and maps
// NaN to 0, int to bool tests for exactly 1.
var conversions = map[[2]types.Type]string{
	{types.Int, types.Char}:  "zext i8 %s to i32",
	{types.Int, types.Bool}:  "zext i1 %s to i32",
	{types.Int, types.Float}: "call i32 @llvm.fptosi.sat.i32.f64(double %s)",
	{types.Float, types.Int}: "sitofp i32 %s to double",
	{types.Char, types.Int}:  "trunc i32 %s to i8",
	{types.Bool, types.Int}:  "icmp eq i32 %s, 1",
}

func (g *Generator) conversion(n *ast.ConversionExpr) (operand, error) {
	if len(n.Args) != 1 {
		return operand{}, g.Errorf(diag.ConvertArity, n.ID)
	}
	v, err := g.expr(n.Args[0])
	if err != nil {
		return operand{}, err
	}
	if !types.CanConvert(n.Target, v.typ) {
		return operand{}, g.Errorf(diag.TypeConvert, n.ID)
	}
	if v.typ == n.Target {
		return v, nil
	}
	ins, ok := conversions[[2]types.Type{n.Target, v.typ}]
	if !ok {
		return operand{}, g.Internalf(n.ID, "no lowering for %s(%s)", n.Target, v.typ)
	}
	return operand{g.cur.value(ins, v.ref), n.Target}, nil
}

// ============================================================
// Types and constants
// ============================================================

func irType(t types.Type) string {
	switch t {
	case types.Int:
		return "i32"
	case types.Float:
		return "double"
	case types.Char:
		return "i8"
	case types.Bool:
		return "i1"
	}
	return "void"
}

func zeroValue(t types.Type) string {
	switch t {
	case types.Float:
		return "0.0"
	case types.Bool:
		return "false"
	}
	return "0"
}

// floatConst spells f as the hex bit pattern LLVM accepts for any double.
func floatConst(f float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(f))
}

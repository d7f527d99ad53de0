// Package analysis holds the traversal scaffolding shared by the
// typechecker and the interpreter: scope and symbol tables, the nesting
// counters that gate return/break/continue, the redeclaration guards, and
// the control-flow Signal type.
//
// Core is generic over the semantic value T tracked per name: a static type
// for the typechecker, a runtime value for the interpreter. Both passes run
// their declarations through the same Declare* methods so namespace and
// scope rules cannot drift apart.
package analysis

import (
	"errors"
	"fmt"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/scope"
)

// Core is the per-pass state of one tree walk.
type Core[T any] struct {
	Program *ast.Program
	Env     *scope.Environment[T]
	Consts  map[string]T
	Funcs   map[string]*ast.FuncDef

	CallDepth int // > 0 inside a function body
	LoopDepth int // > 0 inside a while body

	reporter Reporter
}

// NewCore creates fresh tables for one pass over prog.
func NewCore[T any](prog *ast.Program) *Core[T] {
	return &Core[T]{
		Program:  prog,
		Env:      scope.New[T](),
		Consts:   make(map[string]T),
		Funcs:    make(map[string]*ast.FuncDef),
		reporter: NewReporter(prog.Ranges),
	}
}

// Errorf returns the diagnostic for kind positioned at node id.
func (c *Core[T]) Errorf(kind diag.Kind, id ast.NodeID, args ...interface{}) error {
	return c.reporter.Report(kind, id, args...)
}

// Internalf reports a condition earlier phases should have ruled out.
func (c *Core[T]) Internalf(id ast.NodeID, format string, args ...interface{}) error {
	return c.reporter.Report(diag.Internal, id, fmt.Sprintf(format, args...))
}

// ============================================================
// Redeclaration guards
// ============================================================

// CheckConst fails if name is a constant.
func (c *Core[T]) CheckConst(name string, id ast.NodeID) error {
	if _, ok := c.Consts[name]; ok {
		return c.Errorf(diag.RedeclareConst, id, name)
	}
	return nil
}

// CheckVar fails if the current frame already binds name. Outer frames
// may be shadowed.
func (c *Core[T]) CheckVar(name string, id ast.NodeID) error {
	if c.Env.TopContains(name) {
		return c.Errorf(diag.RedeclareVar, id, name)
	}
	return nil
}

// CheckFunc fails if name is a function.
func (c *Core[T]) CheckFunc(name string, id ast.NodeID) error {
	if _, ok := c.Funcs[name]; ok {
		return c.Errorf(diag.RedeclareFunc, id, name)
	}
	return nil
}

// CheckRedeclare runs all three guards in the fixed order constant,
// variable, function.
func (c *Core[T]) CheckRedeclare(name string, id ast.NodeID) error {
	if err := c.CheckConst(name, id); err != nil {
		return err
	}
	if err := c.CheckVar(name, id); err != nil {
		return err
	}
	return c.CheckFunc(name, id)
}

// ============================================================
// Declarations and scope rules
// ============================================================

// DeclareVar validates a variable definition before it is bound.
func (c *Core[T]) DeclareVar(def *ast.VarDef) error {
	return c.CheckRedeclare(def.Name, def.ID)
}

// DeclareConst validates a constant definition before it is bound.
func (c *Core[T]) DeclareConst(def *ast.ConstDef) error {
	if err := c.CheckRedeclare(def.Name, def.ID); err != nil {
		return err
	}
	if !c.Env.InGlobal() {
		return c.Errorf(diag.ConstScope, def.ID)
	}
	return nil
}

// DeclareFunc validates a function definition and its parameter list
// before the function is registered.
func (c *Core[T]) DeclareFunc(fn *ast.FuncDef) error {
	if !c.Env.InGlobal() {
		return c.Errorf(diag.FuncDefScope, fn.ID)
	}
	if err := c.CheckRedeclare(fn.Name, fn.ID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if seen[p.Name] {
			return c.Errorf(diag.DupArgs, fn.ID)
		}
		seen[p.Name] = true
	}
	for _, p := range fn.Params {
		if p.Name == fn.Name {
			return c.Errorf(diag.RedeclareFunc, fn.ID, p.Name)
		}
		if err := c.CheckConst(p.Name, fn.ID); err != nil {
			return err
		}
		if err := c.CheckFunc(p.Name, fn.ID); err != nil {
			return err
		}
	}
	return nil
}

// CheckAssignTarget rejects assignment to a constant or function name.
func (c *Core[T]) CheckAssignTarget(stmt *ast.AssignStmt) error {
	if err := c.CheckConst(stmt.Name, stmt.ID); err != nil {
		return err
	}
	return c.CheckFunc(stmt.Name, stmt.ID)
}

// CheckReturn requires an enclosing function body.
func (c *Core[T]) CheckReturn(id ast.NodeID) error {
	if c.CallDepth == 0 {
		return c.Errorf(diag.ReturnScope, id)
	}
	return nil
}

// CheckLoop requires an enclosing while body.
func (c *Core[T]) CheckLoop(id ast.NodeID) error {
	if c.LoopDepth == 0 {
		return c.Errorf(diag.LoopReq, id)
	}
	return nil
}

// ============================================================
// Scope helpers
// ============================================================

// Push enters a block frame.
func (c *Core[T]) Push() {
	c.Env.Push()
}

// PushCall enters a function-call frame seeded with params.
func (c *Core[T]) PushCall(params []scope.Param[T]) {
	c.Env.PushCall(params)
}

// Pop exits the current frame. Popping the global frame is an internal
// error reported at node id.
func (c *Core[T]) Pop(id ast.NodeID) error {
	if err := c.Env.Pop(); err != nil {
		if errors.Is(err, scope.ErrPopGlobal) {
			return c.Internalf(id, "%v", err)
		}
		return err
	}
	return nil
}

// Lookup resolves a name read as a value: constants first, then the scope
// chain.
func (c *Core[T]) Lookup(name string, id ast.NodeID) (T, error) {
	if v, ok := c.Consts[name]; ok {
		return v, nil
	}
	slot, ok := c.Env.Lookup(name)
	if !ok {
		var zero T
		return zero, c.Errorf(diag.VarUndefined, id)
	}
	if !slot.Assigned {
		var zero T
		return zero, c.Errorf(diag.AccessUninit, id, name)
	}
	return slot.Value, nil
}

// Assign writes through to the frame owning name. Callers look the name up
// first, so a missing owner means the tables are inconsistent.
func (c *Core[T]) Assign(name string, v T, id ast.NodeID) error {
	if !c.Env.Assign(name, v) {
		return c.Internalf(id, "assignment to '%s' found no owning scope", name)
	}
	return nil
}

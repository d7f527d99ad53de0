package scope

import (
	"errors"
	"testing"
)

func TestDefineAndLookup(t *testing.T) {
	env := New[int]()
	env.DefineInit("x", 1)
	env.DefineUninit("y", 0)

	slot, ok := env.Lookup("x")
	if !ok || slot.Value != 1 || !slot.Assigned {
		t.Errorf("x: got %+v, %v", slot, ok)
	}
	slot, ok = env.Lookup("y")
	if !ok || slot.Assigned {
		t.Errorf("y: expected unassigned slot, got %+v, %v", slot, ok)
	}
	if _, ok := env.Lookup("z"); ok {
		t.Error("z: expected lookup to fail")
	}
}

func TestShadowingAndPop(t *testing.T) {
	env := New[string]()
	env.DefineInit("x", "outer")

	env.Push()
	if env.TopContains("x") {
		t.Error("fresh frame should not contain x")
	}
	env.DefineInit("x", "inner")
	if slot, _ := env.Lookup("x"); slot.Value != "inner" {
		t.Errorf("expected inner, got %q", slot.Value)
	}

	if err := env.Pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if slot, _ := env.Lookup("x"); slot.Value != "outer" {
		t.Errorf("expected outer after pop, got %q", slot.Value)
	}
}

func TestAssignWritesOwner(t *testing.T) {
	env := New[int]()
	env.DefineUninit("x", 0)

	env.Push()
	env.Push()
	if !env.Assign("x", 7) {
		t.Fatal("assign to outer x failed")
	}
	if env.TopContains("x") {
		t.Error("assign must not create a binding in the current frame")
	}
	env.Pop()
	env.Pop()

	slot, _ := env.Lookup("x")
	if slot.Value != 7 || !slot.Assigned {
		t.Errorf("expected assigned 7 in global frame, got %+v", slot)
	}

	if env.Assign("missing", 1) {
		t.Error("assign to an unbound name should report false")
	}
}

func TestPushCallHidesCallerLocals(t *testing.T) {
	env := New[int]()
	env.DefineInit("g", 1)

	env.Push()
	env.DefineInit("local", 2)

	env.PushCall([]Param[int]{{Name: "p", Value: 3}})
	if _, ok := env.Lookup("local"); ok {
		t.Error("call frame must not see the caller's locals")
	}
	if slot, ok := env.Lookup("g"); !ok || slot.Value != 1 {
		t.Errorf("call frame should see globals, got %+v, %v", slot, ok)
	}
	if slot, ok := env.Lookup("p"); !ok || slot.Value != 3 || !slot.Assigned {
		t.Errorf("param p: got %+v, %v", slot, ok)
	}

	if err := env.Pop(); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Lookup("local"); !ok {
		t.Error("caller's local should be visible again after the call")
	}
	if _, ok := env.Lookup("p"); ok {
		t.Error("param should be gone after the call")
	}
}

func TestPopGlobal(t *testing.T) {
	env := New[int]()
	if err := env.Pop(); !errors.Is(err, ErrPopGlobal) {
		t.Errorf("expected ErrPopGlobal, got %v", err)
	}
	if env.Depth() != 1 {
		t.Errorf("global frame must survive, depth %d", env.Depth())
	}
}

func TestDepthAndInGlobal(t *testing.T) {
	env := New[int]()
	if !env.InGlobal() || env.Depth() != 1 {
		t.Fatalf("new env: InGlobal %v depth %d", env.InGlobal(), env.Depth())
	}
	env.Push()
	env.PushCall(nil)
	if env.InGlobal() || env.Depth() != 3 {
		t.Errorf("nested: InGlobal %v depth %d", env.InGlobal(), env.Depth())
	}
	env.Pop()
	env.Pop()
	if !env.InGlobal() {
		t.Error("expected to be back in the global frame")
	}
}

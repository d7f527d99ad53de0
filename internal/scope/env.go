// Package scope implements the lexical scope environment shared by the
// typechecker and the interpreter.
//
// Frames live in an arena and refer to their parent by index. The frame
// being populated is always the last one in the arena, so push and pop are
// strictly LIFO; a function-call frame simply points its parent at the
// global frame, which hides the caller's locals without copying anything.
package scope

import "errors"

// ErrPopGlobal is returned when Pop is called with only the global frame left.
var ErrPopGlobal = errors.New("cannot exit the global scope")

// FrameID indexes a frame in the arena. The global frame is always 0.
type FrameID int

// NoFrame is the parent of the global frame.
const NoFrame FrameID = -1

// Global is the id of the outermost frame.
const Global FrameID = 0

// Slot is a single binding. A slot defined without a value carries a
// placeholder of the declared type and Assigned is false until the first
// assignment.
type Slot[T any] struct {
	Value    T
	Assigned bool
}

// Param is a binding used to seed a call frame.
type Param[T any] struct {
	Name  string
	Value T
}

type frame[T any] struct {
	vars   map[string]Slot[T]
	parent FrameID
}

// Environment is a chain of frames mapping names to slots of type T.
type Environment[T any] struct {
	frames []frame[T]
}

// New creates an environment holding only the global frame.
func New[T any]() *Environment[T] {
	e := &Environment[T]{}
	e.frames = append(e.frames, frame[T]{vars: make(map[string]Slot[T]), parent: NoFrame})
	return e
}

// current returns the id of the frame new bindings go into.
func (e *Environment[T]) current() FrameID {
	return FrameID(len(e.frames) - 1)
}

// Push enters a child frame of the current frame.
func (e *Environment[T]) Push() {
	e.frames = append(e.frames, frame[T]{vars: make(map[string]Slot[T]), parent: e.current()})
}

// PushCall enters a function-call frame holding only params. Its parent is
// the global frame, so lookups skip every frame of the caller.
func (e *Environment[T]) PushCall(params []Param[T]) {
	vars := make(map[string]Slot[T], len(params))
	for _, p := range params {
		vars[p.Name] = Slot[T]{Value: p.Value, Assigned: true}
	}
	e.frames = append(e.frames, frame[T]{vars: vars, parent: Global})
}

// Pop exits the current frame.
func (e *Environment[T]) Pop() error {
	if len(e.frames) <= 1 {
		return ErrPopGlobal
	}
	e.frames[len(e.frames)-1] = frame[T]{}
	e.frames = e.frames[:len(e.frames)-1]
	return nil
}

// DefineInit binds name to an assigned value in the current frame.
func (e *Environment[T]) DefineInit(name string, value T) {
	e.frames[e.current()].vars[name] = Slot[T]{Value: value, Assigned: true}
}

// DefineUninit binds name in the current frame without assigning it.
// placeholder records what the slot holds until assignment (the declared
// type, or a zero value of it).
func (e *Environment[T]) DefineUninit(name string, placeholder T) {
	e.frames[e.current()].vars[name] = Slot[T]{Value: placeholder}
}

// owner returns the innermost frame on the chain that binds name.
func (e *Environment[T]) owner(name string) (FrameID, bool) {
	for id := e.current(); id != NoFrame; id = e.frames[id].parent {
		if _, ok := e.frames[id].vars[name]; ok {
			return id, true
		}
	}
	return NoFrame, false
}

// Assign stores value in the frame that owns name and marks the slot
// assigned. It performs no type check. It reports false when no frame on
// the chain binds name.
func (e *Environment[T]) Assign(name string, value T) bool {
	id, ok := e.owner(name)
	if !ok {
		return false
	}
	e.frames[id].vars[name] = Slot[T]{Value: value, Assigned: true}
	return true
}

// Lookup finds name on the chain, innermost frame first, and returns a copy
// of its slot.
func (e *Environment[T]) Lookup(name string) (Slot[T], bool) {
	id, ok := e.owner(name)
	if !ok {
		return Slot[T]{}, false
	}
	return e.frames[id].vars[name], true
}

// TopContains reports whether the current frame itself binds name.
func (e *Environment[T]) TopContains(name string) bool {
	_, ok := e.frames[e.current()].vars[name]
	return ok
}

// InGlobal reports whether the current frame is the global frame.
func (e *Environment[T]) InGlobal() bool {
	return len(e.frames) == 1
}

// Depth returns the number of live frames, including the global frame.
func (e *Environment[T]) Depth() int {
	return len(e.frames)
}

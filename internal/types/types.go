// Package types defines the static types of the language and the legal
// conversions between them.
package types

import (
	"fmt"
	"strings"
	"wabbit/internal/token"
)

// Type is one of the four builtin types. The zero value means "not given",
// e.g. a variable declared without a type annotation.
type Type int

const (
	None Type = iota
	Int
	Float
	Char
	Bool
)

var typeNames = [...]string{
	None:  "none",
	Int:   "int",
	Float: "float",
	Char:  "char",
	Bool:  "bool",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a real type and not None.
func (t Type) Valid() bool {
	return t >= Int && t <= Bool
}

// IsNumeric reports whether arithmetic is defined on t.
func (t Type) IsNumeric() bool {
	return t == Int || t == Float
}

// IsOrdered reports whether relational comparison is defined on t.
func (t Type) IsOrdered() bool {
	return t == Int || t == Float || t == Char
}

// FromToken maps a type-name token kind to its Type.
func FromToken(k token.Kind) (Type, bool) {
	switch k {
	case token.TY_INT:
		return Int, true
	case token.TY_FLOAT:
		return Float, true
	case token.TY_CHAR:
		return Char, true
	case token.TY_BOOL:
		return Bool, true
	}
	return None, false
}

// conversions lists, for each target, the source types it accepts besides itself.
var conversions = map[Type][]Type{
	Int:   {Char, Bool, Float},
	Float: {Int},
	Char:  {Int},
	Bool:  {Int},
}

// CanConvert reports whether a value of type from may be converted to to.
func CanConvert(to, from Type) bool {
	if to == from {
		return to.Valid()
	}
	for _, t := range conversions[to] {
		if t == from {
			return true
		}
	}
	return false
}

// List renders a set of accepted types, as used in expected-type
// diagnostics: "int, float".
func List(ts ...Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

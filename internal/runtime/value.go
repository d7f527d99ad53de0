// Package runtime implements the interpreter and runtime value system for wabbit.
package runtime

import (
	"math"
	"strconv"
	"wabbit/internal/types"
)

// Value is the interface for all runtime values.
type Value interface {
	Type() types.Type
	String() string
}

// IntVal represents a 32-bit integer value. Arithmetic wraps.
type IntVal int32

func (v IntVal) Type() types.Type { return types.Int }
func (v IntVal) String() string   { return strconv.FormatInt(int64(v), 10) }

// FloatVal represents a floating-point value.
type FloatVal float64

func (v FloatVal) Type() types.Type { return types.Float }
func (v FloatVal) String() string {
	f := float64(v)
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CharVal represents a single-byte character.
type CharVal byte

func (v CharVal) Type() types.Type { return types.Char }
func (v CharVal) String() string   { return string(rune(v)) }

// BoolVal represents true or false.
type BoolVal bool

func (v BoolVal) Type() types.Type { return types.Bool }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// Zero returns the placeholder stored for a variable declared with type t
// but no value. It is never observable: reading the slot fails first.
func Zero(t types.Type) Value {
	switch t {
	case types.Int:
		return IntVal(0)
	case types.Float:
		return FloatVal(0)
	case types.Char:
		return CharVal(0)
	case types.Bool:
		return BoolVal(false)
	}
	return nil
}

// Convert applies a type conversion. It reports false for pairs the
// language does not allow.
func Convert(to types.Type, v Value) (Value, bool) {
	if !types.CanConvert(to, v.Type()) {
		return nil, false
	}
	if v.Type() == to {
		return v, true
	}

	switch x := v.(type) {
	case IntVal:
		switch to {
		case types.Float:
			return FloatVal(x), true
		case types.Char:
			return CharVal(byte(x)), true
		case types.Bool:
			return BoolVal(x == 1), true
		}
	case CharVal:
		return IntVal(x), true
	case BoolVal:
		if x {
			return IntVal(1), true
		}
		return IntVal(0), true
	case FloatVal:
		return IntVal(truncate(float64(x))), true
	}
	return nil, false
}

// truncate converts toward zero, saturating at the int32 bounds. NaN
// becomes 0.
func truncate(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

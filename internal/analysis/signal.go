package analysis

// SignalKind is the control-flow outcome of one statement.
type SignalKind int

const (
	Unit     SignalKind = iota // completed normally
	Break                      // break out of the enclosing loop
	Continue                   // start the next loop iteration
	Return                     // return from the enclosing function
)

func (k SignalKind) String() string {
	switch k {
	case Unit:
		return "unit"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Return:
		return "return"
	default:
		return "unknown"
	}
}

// Signal carries a SignalKind and, for Return, the returned value or type.
//
// Definite only matters to static analysis: it is set when every path
// through the statement ends in a return. A Return produced at run time
// always has it set.
type Signal[T any] struct {
	Kind     SignalKind
	Value    T
	Definite bool
}

// Returned builds a definite Return signal.
func Returned[T any](v T) Signal[T] {
	return Signal[T]{Kind: Return, Value: v, Definite: true}
}

// MayReturn builds a Return signal that does not cover every path.
func MayReturn[T any](v T) Signal[T] {
	return Signal[T]{Kind: Return, Value: v}
}

// IsUnit reports whether the statement completed normally.
func (s Signal[T]) IsUnit() bool { return s.Kind == Unit }

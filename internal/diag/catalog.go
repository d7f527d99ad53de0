package diag

import "fmt"

// Kind identifies a message in the diagnostic catalog.
type Kind int

const (
	NoKind Kind = iota // zero value, not in the catalog

	// Lexical
	InvalidNumber
	InvalidChar
	DoubleToken
	UnexpectedChar
	UnterminatedComment

	// Syntax
	VarDefEmpty
	ExpectExpr
	ExpectTypeName
	ExpectVarName
	ParserExpect
	BadCallee

	// Redeclaration
	RedeclareVar
	RedeclareConst
	RedeclareFunc

	// Scope
	FuncDefScope
	ConstScope
	ReturnScope
	LoopReq

	// Types
	InitType
	AssignRetype
	ParamType
	ReturnType
	TypeMatch
	TypeConvert
	ConvertArity
	ExpectType
	TypeEval
	ReturnDiverge
	AltBranch
	NoReturn

	// Names
	VarUndefined
	FuncUndefined
	AssignUndefined
	AccessUninit

	// Arity
	FuncArity
	DupArgs

	// Runtime
	DivideByZero
	CallDepth

	Internal
)

type entry struct {
	code   string
	format string
}

var catalog = map[Kind]entry{
	InvalidNumber:       {"E1001", "invalid number: '%s'"},
	InvalidChar:         {"E1002", "invalid character"},
	DoubleToken:         {"E1003", "character '%c' is invalid, maybe you meant to follow with '%c'?"},
	UnexpectedChar:      {"E1004", "unexpected character '%c'"},
	UnterminatedComment: {"E1005", "unterminated block comment"},

	VarDefEmpty:    {"E2001", "variable definitions must contain either a type or expression."},
	ExpectExpr:     {"E2002", "expected an expression"},
	ExpectTypeName: {"E2003", "expected a type name (int, float, bool, or char)"},
	ExpectVarName:  {"E2004", "expected a variable name"},
	ParserExpect:   {"E2005", "expected '%s'"},
	BadCallee:      {"E2006", "only functions and type names can be called"},

	RedeclareVar:   {"E3001", "'%s' is previously declared as a variable"},
	RedeclareConst: {"E3002", "'%s' is previously declared as a constant"},
	RedeclareFunc:  {"E3003", "'%s' is previously declared as a function"},

	FuncDefScope: {"E3010", "functions must be declared in the global scope"},
	ConstScope:   {"E3011", "constants must be declared in global scope"},
	ReturnScope:  {"E3012", "must be inside a function"},
	LoopReq:      {"E3013", "must be inside a while block"},

	InitType:      {"E3020", "initial value and type declaration do not match"},
	AssignRetype:  {"E3021", "'%s' previously defined with type '%s', cannot assign a new value with type '%s'"},
	ParamType:     {"E3022", "parameter '%s' defined with type '%s', but called with type '%s'"},
	ReturnType:    {"E3023", "'%s' defined with return type '%s', but returned type '%s'"},
	TypeMatch:     {"E3024", "differing argument types"},
	TypeConvert:   {"E3025", "invalid type conversion"},
	ConvertArity:  {"E3026", "type conversions take a single argument"},
	ExpectType:    {"E3027", "expected types: %s"},
	TypeEval:      {"E3028", "type names cannot be used as values"},
	ReturnDiverge: {"E3029", "multiple return types"},
	AltBranch:     {"E3030", "some branches do not have a return value"},
	NoReturn:      {"E3031", "function did not return a value"},

	VarUndefined:    {"E3040", "undefined variable"},
	FuncUndefined:   {"E3041", "undefined function"},
	AssignUndefined: {"E3042", "assignment to undefined variable"},
	AccessUninit:    {"E3043", "cannot read uninitialized variable, %s"},

	FuncArity: {"E3050", "'%s' defined with %d parameters, but called with %d"},
	DupArgs:   {"E3051", "function arguments must have unique names"},

	DivideByZero: {"E4001", "integer division by zero"},
	CallDepth:    {"E4002", "maximum call depth of %d exceeded"},

	Internal: {"E9000", "This is an internal error! %s"},
}

// Code returns the stable code of the catalog entry.
func (k Kind) Code() string {
	if e, ok := catalog[k]; ok {
		return e.code
	}
	return "E0000"
}

// Format renders the catalog template with args.
func (k Kind) Format(args ...interface{}) string {
	e, ok := catalog[k]
	if !ok {
		return fmt.Sprint(args...)
	}
	if len(args) == 0 {
		return e.format
	}
	return fmt.Sprintf(e.format, args...)
}

func (k Kind) String() string {
	if k == NoKind {
		return "none"
	}
	return k.Code()
}

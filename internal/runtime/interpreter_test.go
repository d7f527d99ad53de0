package runtime

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/lexer"
	"wabbit/internal/parser"
	"wabbit/internal/types"
)

func parseSource(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, diags := lexer.New(source, "test.wb").Tokenize()
	if len(diags) > 0 {
		t.Fatalf("lex errors: %v", diags)
	}
	prog, err := parser.New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

// runSource parses and executes source code without typechecking,
// returning captured stdout and any error.
func runSource(t *testing.T, source string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	err := interp.Run(parseSource(t, source))
	return buf.String(), err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(t, source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

func expectError(t *testing.T, source, contains string) *diag.Diagnostic {
	t.Helper()
	_, err := runSource(t, source)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("expected *diag.Diagnostic, got %T", err)
	}
	return d
}

// ---- Values and printing ----

func TestPrintLiterals(t *testing.T) {
	expectOutput(t, `print 42;`, "42\n")
	expectOutput(t, `print 4.2;`, "4.2\n")
	expectOutput(t, `print 1.0;`, "1\n")
	expectOutput(t, `print true; print false;`, "true\nfalse\n")
}

func TestPrintCharsWithoutNewline(t *testing.T) {
	expectOutput(t, `print 'a'; print 'b'; print 1;`, "ab1\n")
	expectOutput(t, `print 'h'; print 'i'; print '\n';`, "hi\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print 1 + 2 * 3;`, "7\n")
	expectOutput(t, `print (1 + 2) * 3;`, "9\n")
	expectOutput(t, `print 7 / 2;`, "3\n")
	expectOutput(t, `print -7 / 2;`, "-3\n")
	expectOutput(t, `print 10.0 / 4.0;`, "2.5\n")
	expectOutput(t, `print -(2 - 5); print +3;`, "3\n3\n")
}

func TestIntegerWraps(t *testing.T) {
	expectOutput(t, `print 2147483647 + 1;`, "-2147483648\n")
}

func TestFloatDivisionByZero(t *testing.T) {
	expectOutput(t, `print 1.0 / 0.0; print -1.0 / 0.0;`, "inf\n-inf\n")
}

func TestIntegerDivisionByZero(t *testing.T) {
	d := expectError(t, `var z = 0; print 1 / z;`, "integer division by zero")
	if d.Kind != diag.DivideByZero {
		t.Errorf("expected DivideByZero, got %s", d.Code)
	}
}

func TestComparisons(t *testing.T) {
	expectOutput(t, `print 1 < 2; print 2 <= 2; print 3 > 4; print 4 >= 5;`, "true\ntrue\nfalse\nfalse\n")
	expectOutput(t, `print 1.5 < 2.5; print 'a' < 'b'; print 'a' == 'a'; print true != false;`, "true\ntrue\ntrue\ntrue\n")
}

func TestMismatchedOperands(t *testing.T) {
	expectError(t, `print 1 + 1.5;`, "differing argument types")
	expectError(t, `print true + false;`, "expected types: int, float")
	expectError(t, `print -'a';`, "expected types: int, float")
	expectError(t, `print !1;`, "expected types: bool")
	expectError(t, `if 1 { print 1; }`, "expected types: bool")
	expectError(t, `print int;`, "type names cannot be used as values")
}

// ---- Variables and constants ----

func TestVariables(t *testing.T) {
	expectOutput(t, `
var x = 10;
x = x + 1;
print x;
`, "11\n")
}

func TestConstants(t *testing.T) {
	expectOutput(t, `
const pi = 3.14;
print pi;
`, "3.14\n")
	expectError(t, `const k = 1; k = 2;`, "'k' is previously declared as a constant")
	expectError(t, `{ const k = 1; }`, "constants must be declared in global scope")
}

func TestUninitializedVariable(t *testing.T) {
	expectOutput(t, `var x int; x = 5; print x;`, "5\n")
	d := expectError(t, `var x int; print x;`, "cannot read uninitialized variable, x")
	if d.Kind != diag.AccessUninit {
		t.Errorf("expected AccessUninit, got %s", d.Code)
	}
}

func TestAssignRetype(t *testing.T) {
	expectError(t, `var x = 1; x = 'a';`, "'x' previously defined with type 'int', cannot assign a new value with type 'char'")
	expectError(t, `var x float; x = 1;`, "cannot assign a new value with type 'int'")
	expectError(t, `var x int = 1.5;`, "initial value and type declaration do not match")
}

func TestAssignUndefined(t *testing.T) {
	expectError(t, `y = 1;`, "assignment to undefined variable")
}

func TestRedeclaration(t *testing.T) {
	expectError(t, `var x = 1; var x = 2;`, "'x' is previously declared as a variable")
	expectOutput(t, `var x = 1; { var x = 2; print x; } print x;`, "2\n1\n")
}

func TestBlockScopeEnds(t *testing.T) {
	expectError(t, `{ var inner = 1; } print inner;`, "undefined variable")
}

// ---- Control flow ----

func TestIfElse(t *testing.T) {
	expectOutput(t, `
var x = 0;
if x > 0 {
    print 1;
} else if x == 0 {
    print 0;
} else {
    print -1;
}
`, "0\n")
}

func TestWhileFreshFrames(t *testing.T) {
	expectOutput(t, `
var i = 0;
while i < 3 {
    var t = i * 10;
    print t;
    i = i + 1;
}
`, "0\n10\n20\n")
}

func TestBreakContinue(t *testing.T) {
	expectOutput(t, `
var i = 0;
while i < 6 {
    i = i + 1;
    if i == 2 {
        continue;
    }
    if i == 5 {
        break;
    }
    print i;
}
`, "1\n3\n4\n")
}

func TestLoopControlOutsideLoop(t *testing.T) {
	expectError(t, `break;`, "must be inside a while block")
	expectError(t, `if true { continue; }`, "must be inside a while block")
}

func TestLoopDoesNotLicenseCallee(t *testing.T) {
	expectError(t, `
func f() int {
    break;
    return 1;
}
while true {
    print f();
}
`, "must be inside a while block")
}

func TestShortCircuit(t *testing.T) {
	expectOutput(t, `print true || missing; print false && missing;`, "true\nfalse\n")
	expectError(t, `print false || missing;`, "undefined variable")
}

func TestFramesBalanced(t *testing.T) {
	prog := parseSource(t, `
func f(n int) int {
    var i = 0;
    while i < n {
        {
            var t = i;
            if t == 3 {
                return t;
            }
        }
        i = i + 1;
        if i == 1 {
            continue;
        }
    }
    return -1;
}
var j = 0;
while j < 4 {
    j = j + 1;
    {
        if j == 2 {
            continue;
        }
    }
    if j == 3 {
        break;
    }
}
print f(5);
print f(2);
`)
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	if err := interp.Run(prog); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if buf.String() != "3\n-1\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if depth := interp.Env.Depth(); depth != 1 {
		t.Errorf("expected only the global frame after run, got %d", depth)
	}
	if interp.CallDepth != 0 || interp.LoopDepth != 0 {
		t.Errorf("counters not restored: call %d loop %d", interp.CallDepth, interp.LoopDepth)
	}
}

// ---- Functions ----

func TestFunctionCall(t *testing.T) {
	expectOutput(t, `
func add(a int, b int) int {
    return a + b;
}
print add(2, 3);
`, "5\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
func fact(n int) int {
    if n < 2 {
        return 1;
    }
    return n * fact(n - 1);
}
print fact(10);
`, "3628800\n")
}

func TestCallFrameHidesCallerLocals(t *testing.T) {
	expectError(t, `
func f() int {
    return local;
}
{
    var local = 1;
    print f();
}
`, "undefined variable")
}

func TestFunctionsShareGlobals(t *testing.T) {
	expectOutput(t, `
var count = 0;
func bump() int {
    count = count + 1;
    return count;
}
bump();
bump();
print count;
`, "2\n")
}

func TestCallErrors(t *testing.T) {
	expectError(t, `print nope(1);`, "undefined function")
	expectError(t, `func f(a int) int { return a; } print f(1, 2);`, "'f' defined with 1 parameters, but called with 2")
	expectError(t, `func f(a int) int { return a; } print f('c');`, "parameter 'a' defined with type 'int', but called with type 'char'")
	expectError(t, `func f() int { return 1.5; } print f();`, "'f' defined with return type 'int', but returned type 'float'")
	expectError(t, `{ func f() int { return 1; } }`, "functions must be declared in the global scope")
	expectError(t, `func f(a int, a int) int { return a; }`, "function arguments must have unique names")
	expectError(t, `return 1;`, "must be inside a function")
}

func TestArityCheckedBeforeArguments(t *testing.T) {
	d := expectError(t, `func f(a int) int { return a; } print f(1, 1 / 0);`, "defined with 1 parameters")
	if d.Kind != diag.FuncArity {
		t.Errorf("expected FuncArity, got %s", d.Code)
	}
}

func TestMissingReturn(t *testing.T) {
	src := `
func f(x int) int {
    if x > 0 {
        return 1;
    }
}
`
	expectOutput(t, src+`print f(1);`, "1\n")
	expectError(t, src+`print f(0);`, "function did not return a value")
}

func TestCallDepthLimit(t *testing.T) {
	prog := parseSource(t, `
func down(n int) int {
    return down(n + 1);
}
print down(0);
`)
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetLimits(Limits{MaxCallDepth: 50})
	err := interp.Run(prog)

	var d *diag.Diagnostic
	if !errors.As(err, &d) || d.Kind != diag.CallDepth {
		t.Fatalf("expected CallDepth diagnostic, got %v", err)
	}
	if d.Message != "maximum call depth of 50 exceeded" {
		t.Errorf("unexpected message %q", d.Message)
	}
}

// ---- Conversions ----

func TestConversions(t *testing.T) {
	expectOutput(t, `print int(2.9); print int(-2.9);`, "2\n-2\n")
	expectOutput(t, `print float(3); print int('A'); print int(true); print int(false);`, "3\n65\n1\n0\n")
	expectOutput(t, `print bool(1); print bool(2); print bool(0);`, "true\nfalse\nfalse\n")
	expectOutput(t, `print char(321);`, "A")
	expectError(t, `print bool(1.5);`, "invalid type conversion")
	expectError(t, `print int(1, 2);`, "type conversions take a single argument")
}

func TestConvertSaturates(t *testing.T) {
	tests := []struct {
		in   float64
		want IntVal
	}{
		{1e12, IntVal(2147483647)},
		{-1e12, IntVal(-2147483648)},
		{0.99, IntVal(0)},
	}
	for _, tt := range tests {
		got, ok := Convert(types.Int, FloatVal(tt.in))
		if !ok || got != tt.want {
			t.Errorf("int(%v): expected %v, got %v (%v)", tt.in, tt.want, got, ok)
		}
	}
}

// ---- Interpreter state ----

func TestOutputTrace(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	if err := interp.Run(parseSource(t, `print 1; print 2.5; print 'c'; print true;`)); err != nil {
		t.Fatal(err)
	}
	want := []Value{IntVal(1), FloatVal(2.5), CharVal('c'), BoolVal(true)}
	got := interp.Output()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d]: expected %v (%s), got %v (%s)", i, want[i], want[i].Type(), got[i], got[i].Type())
		}
	}
}

func TestRunResetsState(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	prog := parseSource(t, `var x = 1; func f() int { return x; } print f();`)
	for i := 0; i < 2; i++ {
		if err := interp.Run(prog); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	if buf.String() != "1\n1\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if len(interp.Output()) != 1 {
		t.Errorf("trace should hold only the last run, got %v", interp.Output())
	}
}

func TestErrorPosition(t *testing.T) {
	d := expectError(t, "var x = 1;\nvar y = 0;\nprint x / y;", "integer division by zero")
	if d.Span.Start.Line != 3 || d.Span.Start.Column != 7 {
		t.Errorf("expected 3:7, got %d:%d", d.Span.Start.Line, d.Span.Start.Column)
	}
}

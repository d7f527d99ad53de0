package llvm

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/lexer"
	"wabbit/internal/parser"
	"wabbit/internal/typecheck"
)

func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.wb").Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	prog, err := parser.New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

// generate typechecks and lowers source, and verifies the block structure
// of the result.
func generate(t *testing.T, source string) string {
	t.Helper()
	prog := parseOK(t, source)
	if err := typecheck.Check(prog); err != nil {
		t.Fatalf("typecheck error: %v\nsource:\n%s", err, source)
	}
	ir, err := Generate(prog, "test.wb")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	checkBlocks(t, ir)
	return ir
}

func expectIR(t *testing.T, ir string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(ir, f) {
			t.Errorf("expected IR to contain %q\n%s", f, ir)
		}
	}
}

func expectGenError(t *testing.T, source string, kind diag.Kind) {
	t.Helper()
	_, err := Generate(parseOK(t, source), "test.wb")
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("expected %s, got %v", kind.Code(), err)
	}
	if d.Kind != kind {
		t.Errorf("expected %s, got %s: %s", kind.Code(), d.Code, d.Message)
	}
}

var (
	labelRef = regexp.MustCompile(`label %([\w.]+)`)
	phiRef   = regexp.MustCompile(`\[ [^,\]]+, %([\w.]+) \]`)
)

// checkBlocks verifies, for every function in ir, that each block ends in
// exactly one terminator, that labels are unique, and that every branch or
// phi names a block of the same function.
func checkBlocks(t *testing.T, ir string) {
	t.Helper()
	var (
		name       string
		labels     map[string]bool
		refs       []string
		terminated bool
	)
	for _, line := range strings.Split(ir, "\n") {
		switch {
		case strings.HasPrefix(line, "define "):
			name, labels, refs, terminated = line, map[string]bool{}, nil, true
		case name == "":
		case line == "}":
			if !terminated {
				t.Errorf("%s: last block has no terminator", name)
			}
			for _, r := range refs {
				if !labels[r] {
					t.Errorf("%s: reference to unknown block %s", name, r)
				}
			}
			name = ""
		case strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " "):
			label := strings.TrimSuffix(line, ":")
			if labels[label] {
				t.Errorf("%s: duplicate label %s", name, label)
			}
			if !terminated {
				t.Errorf("%s: block before %s falls through without a branch", name, label)
			}
			labels[label] = true
			terminated = false
		default:
			ins := strings.TrimSpace(line)
			if terminated {
				t.Errorf("%s: instruction after terminator: %s", name, ins)
			}
			for _, m := range labelRef.FindAllStringSubmatch(ins, -1) {
				refs = append(refs, m[1])
			}
			for _, m := range phiRef.FindAllStringSubmatch(ins, -1) {
				refs = append(refs, m[1])
			}
			if strings.HasPrefix(ins, "br ") || strings.HasPrefix(ins, "ret ") || ins == "unreachable" {
				terminated = true
			}
		}
	}
}

func TestGenerateModuleLayout(t *testing.T) {
	ir := generate(t, `print 1;`)
	if !strings.HasPrefix(ir, "; ModuleID = 'test.wb'\nsource_filename = \"test.wb\"\n") {
		t.Errorf("unexpected module header:\n%s", ir)
	}
	main := ir[strings.Index(ir, "define i32 @main()"):]
	want := "define i32 @main() {\nentry:\n  call void @print.int(i32 1)\n  ret i32 0\n}\n"
	if main != want {
		t.Errorf("expected main:\n%s\ngot:\n%s", want, main)
	}
}

func TestGenerateGlobals(t *testing.T) {
	ir := generate(t, `var x int = 6; const k = 2.5; var late bool; late = true; print x;`)
	expectIR(t, ir,
		"@var.x = internal global i32 0",
		"@const.k = internal global double 0.0",
		"@var.late = internal global i1 false",
		"  store i32 6, ptr @var.x",
		"  store double 0x4004000000000000, ptr @const.k",
		"  store i1 true, ptr @var.late",
		"  %t1 = load i32, ptr @var.x",
		"  call void @print.int(i32 %t1)",
	)
}

func TestGenerateLocalsUseEntryAllocas(t *testing.T) {
	ir := generate(t, `var n = 0; while n < 3 { var y = n; print y; n = n + 1; }`)
	main := ir[strings.Index(ir, "define i32 @main()"):]
	if !strings.HasPrefix(main, "define i32 @main() {\nentry:\n  %y.5 = alloca i32\n") {
		t.Errorf("expected the loop local in the entry block:\n%s", main)
	}
	if strings.Count(main, "alloca") != 1 {
		t.Errorf("expected exactly one alloca:\n%s", main)
	}
}

func TestGenerateFunction(t *testing.T) {
	ir := generate(t, `func sq(n int) int { return n * n; } print sq(3);`)
	expectIR(t, ir,
		"define internal i32 @fn.sq(i32 %arg.n) {\n"+
			"entry:\n"+
			"  %n.1 = alloca i32\n"+
			"  store i32 %arg.n, ptr %n.1\n"+
			"  %t2 = load i32, ptr %n.1\n"+
			"  %t3 = load i32, ptr %n.1\n"+
			"  %t4 = mul i32 %t2, %t3\n"+
			"  ret i32 %t4\n"+
			"}\n",
		"  %t1 = call i32 @fn.sq(i32 3)",
	)
}

func TestGenerateControlFlow(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"if without else", `var x = 1; if x > 0 { print x; } print 0;`},
		{"if else", `var x = 1; if x > 0 { print 1; } else { print 2; }`},
		{"else if", `var x = 1; if x > 1 { print 1; } else if x > 0 { print 2; } else { print 3; }`},
		{"both branches return", `func sign(x int) int { if x < 0 { return -1; } else { return 1; } } print sign(4);`},
		{"return in loop", `func first(n int) int { while true { if n > 2 { return n; } n = n + 1; } return 0; } print first(0);`},
		{"break and continue", `var i = 0; while i < 10 { i = i + 1; if i == 3 { continue; } if i == 6 { break; } print i; }`},
		{"nested loops", `var i = 0; while i < 3 { var j = 0; while j < 3 { j = j + 1; if j == 2 { break; } } i = i + 1; }`},
		{"code after return", `func f() int { return 1; print 2; } print f();`},
		{"code after break", `while true { break; print 1; }`},
		{"recursion", `func fib(n int) int { if n < 2 { return n; } return fib(n - 1) + fib(n - 2); } print fib(10);`},
		{"nested logical", `var a = true; var b = false; print (a && b) || (!a && (b || a));`},
		{"logical in condition", `var i = 0; while i < 5 && i != 3 { i = i + 1; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generate(t, tt.src)
		})
	}
}

func TestGenerateBreakContinueTargets(t *testing.T) {
	ir := generate(t, `var i = 0; while i < 10 { i = i + 1; if i == 3 { continue; } break; }`)
	expectIR(t, ir,
		"br label %while.cond.1",
		"br label %while.end.3",
	)
}

func TestGenerateShortCircuit(t *testing.T) {
	ir := generate(t, `var a = true; print a && false;`)
	expectIR(t, ir,
		"  br i1 %t1, label %logic.rhs.2, label %logic.end.3",
		"  %t4 = phi i1 [ false, %entry ], [ false, %logic.rhs.2 ]",
		"  call void @print.bool(i1 %t4)",
	)

	ir = generate(t, `var a = true; print a || false;`)
	expectIR(t, ir,
		"  br i1 %t1, label %logic.end.3, label %logic.rhs.2",
		"  %t4 = phi i1 [ true, %entry ], [ false, %logic.rhs.2 ]",
	)
}

func TestGenerateOperators(t *testing.T) {
	ir := generate(t, `
print 7 / 2;
print 7.0 / 2.0;
print 1 - 2;
print 1.5 * 2.0;
print -3;
print -1.5;
print !true;
print +4;
print 'a' < 'b';
print 1 < 2;
print 1.0 != 2.0;
print true == false;
`)
	expectIR(t, ir,
		"call i32 @div.int(i32 7, i32 2)",
		"fdiv double 0x401C000000000000, 0x4000000000000000",
		"sub i32 1, 2",
		"fmul double 0x3FF8000000000000, 0x4000000000000000",
		"sub i32 0, 3",
		"fneg double 0x3FF8000000000000",
		"xor i1 true, true",
		"call void @print.int(i32 4)",
		"icmp ult i8 97, 98",
		"icmp slt i32 1, 2",
		"fcmp une double 0x3FF0000000000000, 0x4000000000000000",
		"icmp eq i1 true, false",
	)
}

func TestGenerateConversions(t *testing.T) {
	ir := generate(t, `
print int(2.7);
print char(65);
print int('a');
print bool(1);
print float(2);
print int(true);
print int(5);
`)
	expectIR(t, ir,
		"call i32 @llvm.fptosi.sat.i32.f64(double 0x400599999999999A)",
		"trunc i32 65 to i8",
		"zext i8 97 to i32",
		"icmp eq i32 1, 1",
		"sitofp i32 2 to double",
		"zext i1 true to i32",
		"call void @print.int(i32 5)",
	)
}

func TestGenerateCharLiterals(t *testing.T) {
	ir := generate(t, `print '\n'; print 'é';`)
	expectIR(t, ir,
		"call void @print.char(i8 10)",
		"call void @print.char(i8 -23)",
	)
}

func TestGenerateShadowing(t *testing.T) {
	ir := generate(t, `var x = 1; { var x = 2.5; print x; } print x;`)
	expectIR(t, ir,
		"@var.x = internal global i32 0",
		"%x.1 = alloca double",
		"load double, ptr %x.1",
		"load i32, ptr @var.x",
	)
}

func TestGenerateScopeErrors(t *testing.T) {
	expectGenError(t, `print y;`, diag.VarUndefined)
	expectGenError(t, `break;`, diag.LoopReq)
	expectGenError(t, `return 1;`, diag.ReturnScope)
	expectGenError(t, `print f();`, diag.FuncUndefined)
	expectGenError(t, `func f() int { return 1; } func f() int { return 2; }`, diag.RedeclareFunc)
	expectGenError(t, `var x = 1; const x = 2;`, diag.RedeclareVar)
	expectGenError(t, `{ const k = 1; }`, diag.ConstScope)
}

package diag

import (
	"bytes"
	"strings"
	"testing"
	"wabbit/internal/span"
)

func TestCatalogCodesUnique(t *testing.T) {
	seen := make(map[string]Kind)
	for k := InvalidNumber; k <= Internal; k++ {
		code := k.Code()
		if code == "E0000" {
			t.Errorf("kind %d has no catalog entry", k)
			continue
		}
		if prev, ok := seen[code]; ok {
			t.Errorf("code %s used by kinds %d and %d", code, prev, k)
		}
		seen[code] = k
	}
}

func TestFormat(t *testing.T) {
	if got := RedeclareVar.Format("x"); got != "'x' is previously declared as a variable" {
		t.Errorf("unexpected message %q", got)
	}
	if got := FuncArity.Format("f", 1, 2); got != "'f' defined with 1 parameters, but called with 2" {
		t.Errorf("unexpected message %q", got)
	}
	if got := TypeMatch.Format(); got != "differing argument types" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := New(AltBranch, span.Span{Start: span.Position{Line: 3, Column: 5}})
	want := "[E3030] error at 3:5: some branches do not have a return value"
	if d.String() != want || d.Error() != want {
		t.Errorf("expected %q, got %q", want, d.String())
	}
}

func TestListError(t *testing.T) {
	l := List{
		*New(InvalidChar, span.Span{Start: span.Position{Line: 1, Column: 1}}),
		*New(UnterminatedComment, span.Span{Start: span.Position{Line: 2, Column: 4}}),
	}
	lines := strings.Split(l.Error(), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "E1005") {
		t.Errorf("unexpected list rendering %q", l.Error())
	}
}

func TestRender(t *testing.T) {
	source := "var x = 1;\nprint x + 2.0;\n"
	d := New(TypeMatch, span.Span{
		Start: span.Position{Offset: 17, Line: 2, Column: 7},
		End:   span.Position{Offset: 24, Line: 2, Column: 14},
	})

	var buf bytes.Buffer
	Render(&buf, source, "main.wb", *d, false)
	want := strings.Join([]string{
		"error[E3024]: differing argument types",
		" --> main.wb:2:7",
		"  |",
		"2 | print x + 2.0;",
		"  |       ^^^^^^^",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("render mismatch:\n--- got ---\n%s--- want ---\n%s", buf.String(), want)
	}
}

func TestRenderColor(t *testing.T) {
	d := New(VarUndefined, span.Span{Start: span.Position{Line: 1, Column: 7}, End: span.Position{Line: 1, Column: 8}})
	var buf bytes.Buffer
	Render(&buf, "print y;", "main.wb", *d, true)
	if !strings.Contains(buf.String(), colorRed) || !strings.Contains(buf.String(), colorReset) {
		t.Errorf("expected ANSI colors in %q", buf.String())
	}
}

func TestRenderWithoutSource(t *testing.T) {
	d := New(Internal, span.Span{}, "boom")
	var buf bytes.Buffer
	Render(&buf, "", "main.wb", *d, false)
	if buf.String() != "error[E9000]: This is an internal error! boom\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRenderHint(t *testing.T) {
	d := New(DoubleToken, span.Span{
		Start: span.Position{Offset: 8, Line: 1, Column: 9},
		End:   span.Position{Offset: 9, Line: 1, Column: 10},
	}, '&', '&')
	d.Hint = "use '&&'"

	var buf bytes.Buffer
	Render(&buf, "print a & b;", "main.wb", *d, false)
	if !strings.HasSuffix(buf.String(), "  |         ^ use '&&'\n") {
		t.Errorf("expected the hint after the marker, got %q", buf.String())
	}
	if !strings.HasSuffix(d.String(), "(hint: use '&&')") {
		t.Errorf("expected the hint in String, got %q", d.String())
	}
}

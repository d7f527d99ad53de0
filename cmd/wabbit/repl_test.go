package main

import (
	"errors"
	"testing"

	"wabbit/internal/config"
	"wabbit/internal/diag"
	"wabbit/internal/pipeline"
)

func TestOpenBraces(t *testing.T) {
	tests := map[string]int{
		"print 1;\n":                     0,
		"while true {\n":                 1,
		"func f() int {\nif x {\n":       2,
		"func f() int {\nreturn 1;\n}\n": 0,
		"print '{';\n":                   0,
		"print '}';\n":                   0,
		"var x = 1; // }\n":              0,
		"while true { // {\n":            1,
		"/* { */ print 1;\n":             0,
		"/* still open\n":                1,
		"}\n":                            -1,
	}
	for src, want := range tests {
		if got := openBraces(src); got != want {
			t.Errorf("openBraces(%q): expected %d, got %d", src, want, got)
		}
	}
}

func TestSessionKeepsDefinitions(t *testing.T) {
	s := &session{p: pipeline.New(config.Config{MaxCallDepth: config.DefaultMaxCallDepth}, nil)}

	out, err := s.eval("var x = 2;\n")
	if err != nil || out != "" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	out, err = s.eval("func sq(n int) int {\nreturn n * n;\n}\nprint sq(x);\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "4\n" {
		t.Errorf("expected only the new output, got %q", out)
	}

	_, err = s.eval("print y;\n")
	var re *replError
	if !errors.As(err, &re) {
		t.Fatalf("expected a replError, got %v", err)
	}
	var d *diag.Diagnostic
	if !errors.As(re.err, &d) || d.Kind != diag.VarUndefined {
		t.Errorf("expected VarUndefined, got %v", re.err)
	}

	out, err = s.eval("print x + 1;\n")
	if err != nil || out != "3\n" {
		t.Errorf("failed entry should be discarded, got %q, %v", out, err)
	}
}

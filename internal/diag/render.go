package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// Render writes d as an annotated source snippet:
//
//	error[E3001]: 'x' is previously declared as a variable
//	  --> main.wb:3:5
//	   |
//	 3 | var x = 2;
//	   |     ^^^^^^^^^^
func Render(w io.Writer, source, filename string, d Diagnostic, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + colorReset
	}

	title := fmt.Sprintf("%s[%s]", d.Severity, d.Code)
	fmt.Fprintf(w, "%s: %s\n", paint(colorBold+colorRed, title), paint(colorBold, d.Message))

	line := d.Span.Start.Line
	if line <= 0 {
		return
	}
	gutter := strings.Repeat(" ", len(strconv.Itoa(line)))
	fmt.Fprintf(w, "%s%s %s:%d:%d\n", gutter, paint(colorCyan, "-->"), filename, line, d.Span.Start.Column)

	text, ok := sourceLine(source, line)
	if !ok {
		return
	}
	bar := paint(colorCyan, "|")
	fmt.Fprintf(w, "%s %s\n", gutter, bar)
	fmt.Fprintf(w, "%s %s %s\n", paint(colorCyan, strconv.Itoa(line)), bar, text)

	start := d.Span.Start.Column - 1
	if start > len(text) {
		start = len(text)
	}
	var width int
	if d.Span.End.Line == line {
		width = d.Span.End.Column - d.Span.Start.Column
	} else {
		width = len(text) - start
	}
	if width < 1 {
		width = 1
	}
	marker := strings.Repeat(" ", start) + strings.Repeat("^", width)
	if d.Hint != "" {
		marker += " " + d.Hint
	}
	fmt.Fprintf(w, "%s %s %s\n", gutter, bar, paint(colorRed, marker))
}

// sourceLine returns the 1-based line n of source without its newline.
func sourceLine(source string, n int) (string, bool) {
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

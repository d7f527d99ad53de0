package analysis

import (
	"fmt"
	"wabbit/internal/ast"
	"wabbit/internal/diag"
	"wabbit/internal/span"
)

// Reporter turns a node id into a diagnostic positioned at that node.
type Reporter struct {
	ranges ast.Ranges
}

// NewReporter creates a reporter over a program's range map.
func NewReporter(ranges ast.Ranges) Reporter {
	return Reporter{ranges: ranges}
}

// Report builds a diagnostic for kind at the source range of id. An id with
// no recorded range is itself an internal error.
func (r Reporter) Report(kind diag.Kind, id ast.NodeID, args ...interface{}) *diag.Diagnostic {
	s, ok := r.ranges.Lookup(id)
	if !ok {
		return diag.New(diag.Internal, span.Span{}, fmt.Sprintf("no source range for node %d", id))
	}
	return diag.New(kind, s, args...)
}

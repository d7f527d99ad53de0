package llvm

import (
	"fmt"
	"strings"
	"wabbit/internal/types"
)

// loop holds the branch targets of one enclosing while.
type loop struct {
	cont string // condition block
	exit string // block after the loop
}

// function collects the IR of one function body, block by block.
//
// Allocas are gathered separately and placed in the entry block so a
// variable declared inside a loop does not grow the stack per iteration.
// Once the current block has a terminator, the next instruction opens a
// fresh block that nothing branches to; code after a return or break
// lands there.
type function struct {
	header  string
	allocas []string
	body    []string
	block   string // label of the block being filled
	done    bool   // the current block is terminated
	next    int    // counter for temporaries, slots and labels
	loops   []loop
}

func newFunction(header string) *function {
	return &function{header: header, block: "entry"}
}

func (f *function) tmp() string {
	f.next++
	return fmt.Sprintf("%%t%d", f.next)
}

func (f *function) labelName(prefix string) string {
	f.next++
	return fmt.Sprintf("%s.%d", prefix, f.next)
}

// alloca reserves a stack slot for a local and returns its address.
func (f *function) alloca(name string, t types.Type) string {
	f.next++
	ptr := fmt.Sprintf("%%%s.%d", name, f.next)
	f.allocas = append(f.allocas, fmt.Sprintf("  %s = alloca %s", ptr, irType(t)))
	return ptr
}

// open makes sure the current block can take another instruction.
func (f *function) open() {
	if f.done {
		f.startBlock(f.labelName("dead"))
	}
}

func (f *function) emit(format string, args ...interface{}) {
	f.open()
	f.body = append(f.body, "  "+fmt.Sprintf(format, args...))
}

// value emits an instruction producing a result and returns its name.
func (f *function) value(format string, args ...interface{}) string {
	t := f.tmp()
	f.emit("%s = %s", t, fmt.Sprintf(format, args...))
	return t
}

func (f *function) terminate(format string, args ...interface{}) {
	f.emit(format, args...)
	f.done = true
}

// jump branches to target unless the current block already ended.
func (f *function) jump(target string) {
	if !f.done {
		f.terminate("br label %%%s", target)
	}
}

// label starts block name, falling through into it from an open block.
func (f *function) label(name string) {
	f.jump(name)
	f.startBlock(name)
}

func (f *function) startBlock(name string) {
	f.body = append(f.body, name+":")
	f.block = name
	f.done = false
}

func (f *function) String() string {
	var b strings.Builder
	b.WriteString(f.header)
	b.WriteString(" {\nentry:\n")
	for _, line := range f.allocas {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range f.body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

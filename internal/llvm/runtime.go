package llvm

// runtimeIR is prepended to every module. The print helpers write the same
// text the interpreter prints, except that floats go through C's %g:
// chars are UTF-8 encoded so bytes above 0x7f print as their Latin-1
// character. div.int reports a zero divisor on stderr and exits with
// status 1, and wraps INT_MIN / -1 instead of trapping.
const runtimeIR = `
@.fmt.int = private unnamed_addr constant [4 x i8] c"%d\0A\00"
@.fmt.float = private unnamed_addr constant [4 x i8] c"%g\0A\00"
@.str.true = private unnamed_addr constant [5 x i8] c"true\00"
@.str.false = private unnamed_addr constant [6 x i8] c"false\00"
@.str.divzero = private unnamed_addr constant [25 x i8] c"integer division by zero\0A"

declare i32 @printf(ptr, ...)
declare i32 @puts(ptr)
declare i32 @putchar(i32)
declare i64 @write(i32, ptr, i64)
declare void @exit(i32)
declare i32 @llvm.fptosi.sat.i32.f64(double)

define private void @print.int(i32 %v) {
entry:
  %r = call i32 (ptr, ...) @printf(ptr @.fmt.int, i32 %v)
  ret void
}

define private void @print.float(double %v) {
entry:
  %r = call i32 (ptr, ...) @printf(ptr @.fmt.float, double %v)
  ret void
}

define private void @print.bool(i1 %v) {
entry:
  %s = select i1 %v, ptr @.str.true, ptr @.str.false
  %r = call i32 @puts(ptr %s)
  ret void
}

define private void @print.char(i8 %v) {
entry:
  %c = zext i8 %v to i32
  %ascii = icmp ult i32 %c, 128
  br i1 %ascii, label %one, label %two
one:
  %r1 = call i32 @putchar(i32 %c)
  ret void
two:
  %hi = lshr i32 %c, 6
  %lead = or i32 %hi, 192
  %r2 = call i32 @putchar(i32 %lead)
  %lo = and i32 %c, 63
  %cont = or i32 %lo, 128
  %r3 = call i32 @putchar(i32 %cont)
  ret void
}

define private i32 @div.int(i32 %a, i32 %b) {
entry:
  %zero = icmp eq i32 %b, 0
  br i1 %zero, label %fail, label %check
fail:
  %w = call i64 @write(i32 2, ptr @.str.divzero, i64 25)
  call void @exit(i32 1)
  unreachable
check:
  %neg = icmp eq i32 %b, -1
  br i1 %neg, label %negate, label %divide
negate:
  %n = sub i32 0, %a
  ret i32 %n
divide:
  %q = sdiv i32 %a, %b
  ret i32 %q
}
`

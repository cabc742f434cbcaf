// Package proc is a low-level package that provides methods to manipulate
// a traced process independently of the tracing backend.
//
// proc implements:
// * the register snapshot abstraction (Registers)
// * word-granular memory transfers with partial word splicing
// * control flow redirection (Jump) and call frame injection (Push, Call)
// * the error kinds shared by every backend
//
// The ptrace backend lives in proc/native, process name resolution in
// proc/procfs.
package proc

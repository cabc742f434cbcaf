// Package procfs reads the process information pseudo directory (usually
// /proc) to map program names to process ids and to describe processes.
//
// All access goes through an afero.Fs so the directory can be replaced by
// an in-memory tree.
package procfs

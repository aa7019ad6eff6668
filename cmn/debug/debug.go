//go:build !debug

// Package debug provides build-tag gated invariant checks. Only the
// default (!debug) variant exists, in which every check is a no-op; the
// package ships no debug-tagged file.
package debug

// Assert is a no-op in this build: cond is never checked.
func Assert(cond bool, msg ...any) {}

// Assertf is the Printf-style variant of Assert.
func Assertf(cond bool, format string, args ...any) {}

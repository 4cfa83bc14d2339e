package ir

import "github.com/pkg/errors"

// InvariantError reports a violated internal invariant of the IR itself:
// a type mismatch between an operator and its operands, a malformed
// node, or any other condition the tree-building API should have made
// unreachable. It is the "internal invariant" error kind surfaced to
// callers that cross the ir/intrin/spirv/emit boundary.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

// NewInvariantError builds an InvariantError wrapped with a stack trace.
func NewInvariantError(op, msg string) error {
	return errors.WithStack(&InvariantError{Op: op, Msg: msg})
}

// NewInvariantErrorf is like NewInvariantError with formatted message text.
func NewInvariantErrorf(op, format string, args ...any) error {
	return errors.WithStack(&InvariantError{Op: op, Msg: errors.Errorf(format, args...).Error()})
}

package spirv

import "github.com/pkg/errors"

// InvariantError reports a violation of one of the builder's structural
// invariants (spec.md §7). The builder produces it for one check only
// (CheckMemberIndex): a member decoration on an id that is not a
// declared struct, or with a member index out of range. Decoration
// targets and entry-point interface lists are not checked.
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return "spirv: " + e.Op + ": " + e.Err.Error()
}

func (e *InvariantError) Unwrap() error { return e.Err }

func newInvariantError(op string, format string, args ...interface{}) error {
	return &InvariantError{Op: op, Err: errors.Errorf(format, args...)}
}

// CheckMemberIndex validates member against the recorded member count of
// structID, returning an *InvariantError if out of range or structID was
// never declared by DeclareStructType.
func (b *Builder) CheckMemberIndex(structID, member uint32) error {
	members, ok := b.structMembers[structID]
	if !ok {
		return newInvariantError("MemberDecorate", "id %d is not a declared struct type", structID)
	}
	if int(member) >= len(members) {
		return newInvariantError("MemberDecorate", "member index %d out of range for struct %d with %d members", member, structID, len(members))
	}
	return nil
}

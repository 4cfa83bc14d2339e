package spirv

// IDKind tags what an allocated id denotes, so a forward reference (e.g. a
// block terminator naming a loop's not-yet-emitted merge label) can be
// reserved before its defining instruction exists (spec.md §4.3
// "Identifier allocation").
type IDKind int

const (
	IDKindUnknown IDKind = iota
	IDKindType
	IDKindConstant
	IDKindVariable
	IDKindFunction
	IDKindLabel
	IDKindValue
	IDKindExtInstImport
	IDKindString
)

// idAllocator is a single monotone counter; every allocation records the
// kind of the id it handed out.
type idAllocator struct {
	next  uint32
	kinds map[uint32]IDKind
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: 1, kinds: make(map[uint32]IDKind)}
}

// alloc reserves a fresh id of the given kind.
func (a *idAllocator) alloc(kind IDKind) uint32 {
	id := a.next
	a.next++
	a.kinds[id] = kind
	return id
}

// kindOf reports the kind an id was allocated with, or IDKindUnknown if it
// was never allocated by this allocator.
func (a *idAllocator) kindOf(id uint32) IDKind {
	return a.kinds[id]
}

// bound is one past the highest id ever allocated (spec.md §4.3 "Finalize:
// sets binding_count = next_id").
func (a *idAllocator) bound() uint32 {
	return a.next
}

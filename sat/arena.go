package sat

import "sync"

// arenaSlot is one stored clause plus the bookkeeping the arena needs to
// support logical deletion and, later, compaction.
type arenaSlot struct {
	clause  Clause
	deleted bool
}

// Arena is the contiguous allocator for learned and permanent clauses
// described in spec.md §4.1. References handed out by Allocate stay valid
// until the next Compact, at which point every reference held by the
// collections passed to Compact is rewritten; no other reference may be
// dereferenced afterwards.
type Arena struct {
	slots []arenaSlot

	// deadLiterals is the running count of literal slots occupied by
	// tombstoned clauses, used to decide when Compact is worth running.
	deadLiterals int
	liveLiterals int

	// GarbageTolerance is the fraction of dead literal slots that
	// triggers a compaction (default 0.2, see spec.md §4.1).
	GarbageTolerance float64

	// MaxLiterals bounds how large the arena may grow; Allocate returns
	// ErrArenaExhausted past this point.
	MaxLiterals int

	litBufPool *sync.Pool // reused []Lit buffers for Allocate's callers
}

const defaultMaxArenaLiterals = 64 << 20 // 64M literal slots

// NewArena creates an empty clause arena with default tolerances.
func NewArena() *Arena {
	return &Arena{
		slots:            []arenaSlot{{}}, // index 0 reserved as RefNull
		GarbageTolerance: 0.2,
		MaxLiterals:      defaultMaxArenaLiterals,
		litBufPool: &sync.Pool{
			New: func() interface{} { return make([]Lit, 0, 8) },
		},
	}
}

// GetLitBuf borrows a reusable literal slice from the arena's pool; the
// caller must return it with PutLitBuf once it has been copied into a
// clause (or discarded). This mirrors the teacher's sat/pool.go approach of
// pooling short-lived slices to cut GC pressure in the propagation loop,
// retargeted at the arena's own allocation traffic instead of the
// string-keyed solver's maps.
func (a *Arena) GetLitBuf() []Lit {
	return a.litBufPool.Get().([]Lit)[:0]
}

// PutLitBuf returns a buffer obtained from GetLitBuf.
func (a *Arena) PutLitBuf(buf []Lit) {
	a.litBufPool.Put(buf) //nolint:staticcheck // intentionally retaining capacity
}

// Allocate copies literals into the arena and returns a stable reference.
func (a *Arena) Allocate(literals []Lit, permanent bool) (ClauseRef, error) {
	if a.liveLiterals+len(literals) > a.MaxLiterals {
		return RefNull, &Error{Kind: ErrArenaExhausted, Op: "Arena.Allocate", Message: "clause arena growth exceeds hard cap"}
	}
	lits := make([]Lit, len(literals))
	copy(lits, literals)
	ref := ClauseRef(len(a.slots))
	a.slots = append(a.slots, arenaSlot{clause: Clause{Literals: lits, Permanent: permanent}})
	a.liveLiterals += len(lits)
	return ref, nil
}

// Get dereferences a clause reference in O(1). The caller must not hold
// onto the returned pointer across a Compact call.
func (a *Arena) Get(ref ClauseRef) *Clause {
	return &a.slots[ref].clause
}

// MarkDeleted tombstones a clause without reclaiming its space; the clause
// must not be dereferenced again except via Compact's bookkeeping.
func (a *Arena) MarkDeleted(ref ClauseRef) {
	slot := &a.slots[ref]
	if slot.deleted {
		return
	}
	slot.deleted = true
	slot.clause.Deleted = true
	a.deadLiterals += len(slot.clause.Literals)
	a.liveLiterals -= len(slot.clause.Literals)
}

// NeedsCompaction reports whether the dead-literal fraction has crossed
// GarbageTolerance.
func (a *Arena) NeedsCompaction() bool {
	total := a.deadLiterals + a.liveLiterals
	if total == 0 {
		return false
	}
	return float64(a.deadLiterals)/float64(total) > a.GarbageTolerance
}

// CompactStats reports arena utilisation after a Compact call.
type CompactStats struct {
	ClausesBefore int
	ClausesAfter  int
	LiteralsFreed int
}

// Compact copies every non-deleted clause into a fresh backing slice and
// rewrites every reference inside refCollections to the clause's new
// location. No reference escapes this call's knowledge: any reference held
// elsewhere (e.g. stashed in a local variable outside the passed
// collections) is invalidated and must not be used again — see spec.md §9
// "Clause references under compaction".
func (a *Arena) Compact(refCollections ...[]*ClauseRef) CompactStats {
	before := len(a.slots) - 1
	freedLits := a.deadLiterals

	remap := make([]ClauseRef, len(a.slots))
	newSlots := make([]arenaSlot, 1, len(a.slots))

	for old := 1; old < len(a.slots); old++ {
		if a.slots[old].deleted {
			continue
		}
		remap[old] = ClauseRef(len(newSlots))
		newSlots = append(newSlots, a.slots[old])
	}

	for _, coll := range refCollections {
		for _, ref := range coll {
			if *ref == RefNull {
				continue
			}
			*ref = remap[*ref]
		}
	}

	a.slots = newSlots
	a.deadLiterals = 0

	return CompactStats{
		ClausesBefore: before,
		ClausesAfter:  len(a.slots) - 1,
		LiteralsFreed: freedLits,
	}
}

// Len returns the number of live clause slots (excluding tombstoned ones
// that haven't been compacted away yet, and excluding the reserved index
// 0).
func (a *Arena) Len() int {
	n := 0
	for _, s := range a.slots[1:] {
		if !s.deleted {
			n++
		}
	}
	return n
}

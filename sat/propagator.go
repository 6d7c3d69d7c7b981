package sat

import "sort"

// watcher is a clause attached to one literal's watch list, with a blocker
// literal used to skip a clause without touching it when the blocker is
// already satisfied — the same optimisation rhartert/yass calls a "guard"
// literal in its watcher type.
type watcher struct {
	ref     ClauseRef
	blocker Lit
}

// Propagator is the two-watched-literal clausal constraint engine of
// spec.md §4.2 (C4). It owns the clause arena and the watch-list index, and
// performs propagation, conflict analysis, and first-UIP clause learning.
type Propagator struct {
	arena  *Arena
	trail  *Trail
	watch  [][]watcher // indexed by Lit.Index()
	qHead  int         // cursor into trail.lits: literals before this are already propagated

	permanent []ClauseRef
	learned   []ClauseRef

	// LBDThreshold: learned clauses with LBD <= this are kept forever
	// (spec.md §4.2 add_learned).
	LBDThreshold int
	// TempPoolLimit bounds the temporary (non-glue) learned pool
	// (spec.md §5, limit-num-temporary-clauses).
	TempPoolLimit int
	// SortEvictionByLBD chooses the eviction metric for the temporary
	// pool: true sorts by LBD, false by activity.
	SortEvictionByLBD bool
	// EnableMinimisation turns on recursive self-subsumption clause
	// minimisation during learning (spec.md §4.2).
	EnableMinimisation bool

	// minimise scratch state, memoised per variable across one
	// analyse-conflict call so recursive self-subsumption doesn't
	// re-derive the same variable's provability repeatedly.
	seen     []bool // indexed by Var
	seenBuf  []Var  // variables touched this analysis, for O(1) reset
	minCache []int8 // 0 unknown, 1 redundant, -1 not redundant; indexed by Var

	onLiteralFalsified func(Lit) // test hook; nil in normal operation
}

// NewPropagator creates a propagator attached to the given arena and trail.
func NewPropagator(arena *Arena, trail *Trail) *Propagator {
	return &Propagator{
		arena:             arena,
		trail:             trail,
		watch:             make([][]watcher, 2),
		LBDThreshold:      2,
		TempPoolLimit:     20000,
		SortEvictionByLBD: true,
		seen:              make([]bool, 2),
		minCache:          make([]int8, 2),
	}
}

// Grow extends per-literal and per-variable scratch arrays to cover newly
// allocated variables.
func (p *Propagator) Grow(nVars int) {
	for len(p.watch) < 2*nVars {
		p.watch = append(p.watch, nil)
	}
	for len(p.seen) < nVars {
		p.seen = append(p.seen, false)
		p.minCache = append(p.minCache, 0)
	}
}

func (p *Propagator) watchLit(l Lit, ref ClauseRef, blocker Lit) {
	p.watch[l.Index()] = append(p.watch[l.Index()], watcher{ref: ref, blocker: blocker})
}

func (p *Propagator) unwatchLit(l Lit, ref ClauseRef) {
	ws := p.watch[l.Index()]
	for i, w := range ws {
		if w.ref == ref {
			ws[i] = ws[len(ws)-1]
			p.watch[l.Index()] = ws[:len(ws)-1]
			return
		}
	}
}

func (p *Propagator) attach(ref ClauseRef) {
	c := p.arena.Get(ref)
	if len(c.Literals) == 1 {
		p.watchLit(c.Literals[0].Not(), ref, c.Literals[0])
		return
	}
	if len(c.Literals) >= 2 {
		p.watchLit(c.Literals[0].Not(), ref, c.Literals[1])
		p.watchLit(c.Literals[1].Not(), ref, c.Literals[0])
	}
}

// sortDedupTautology sorts lits, drops duplicates, and reports whether the
// clause is a tautology (contains both a literal and its negation).
func sortDedupTautology(lits []Lit) ([]Lit, bool) {
	sort.Slice(lits, func(i, j int) bool { return lits[i] < lits[j] })
	out := lits[:0:0]
	for i, l := range lits {
		if i > 0 && lits[i-1] == l {
			continue
		}
		out = append(out, l)
	}
	for i := 0; i+1 < len(out); i++ {
		if out[i].Not() == out[i+1] {
			return out, true
		}
	}
	return out, false
}

// AddPermanent preprocesses and installs a permanent (original/hard)
// clause: sorts, drops duplicates, detects tautology, and propagates a
// unit clause at the root immediately. Returns an error iff the clause is
// falsified at the root (spec.md §4.2).
func (p *Propagator) AddPermanent(lits []Lit) error {
	clean, taut := sortDedupTautology(append([]Lit(nil), lits...))
	if taut {
		return nil // trivially satisfied, nothing to store
	}
	return p.addClause(clean, true, 0)
}

// AddLearned installs a learned clause with its computed LBD, classifying
// it into the keep-forever or temporary pool per spec.md §4.2.
func (p *Propagator) AddLearned(lits []Lit, lbd int) error {
	return p.addClause(lits, false, lbd)
}

func (p *Propagator) addClause(lits []Lit, permanent bool, lbd int) error {
	if len(lits) == 0 {
		return NewError(ErrRootUnsat, "Propagator.AddPermanent", "empty clause at the root")
	}
	if len(lits) == 1 {
		return p.enqueueRoot(lits[0], RefNull)
	}
	ref, err := p.arena.Allocate(lits, permanent)
	if err != nil {
		return err
	}
	c := p.arena.Get(ref)
	c.LBD = lbd
	p.attach(ref)
	if permanent || lbd <= p.LBDThreshold {
		p.permanent = append(p.permanent, ref)
	} else {
		p.learned = append(p.learned, ref)
	}
	return nil
}

// AddConflictClause installs a clause already known to be fully falsified
// by the current trail (e.g. the bound-violation clause a CounterPropagator
// reports) and returns its reference so the caller can run ordinary
// first-UIP analysis over it, the same as a clause found falsified during
// Propagate.
func (p *Propagator) AddConflictClause(lits []Lit) (ClauseRef, error) {
	if len(lits) < 2 {
		return RefNull, NewError(ErrInvalidOption, "Propagator.AddConflictClause", "conflict clause must have at least two literals")
	}
	ref, err := p.arena.Allocate(lits, true)
	if err != nil {
		return RefNull, err
	}
	p.attach(ref)
	p.permanent = append(p.permanent, ref)
	return ref, nil
}

func (p *Propagator) enqueueRoot(l Lit, ref ClauseRef) error {
	switch p.trail.ValueOf(l) {
	case True:
		return nil
	case False:
		return NewError(ErrRootUnsat, "Propagator.enqueueRoot", "unit clause falsified at root")
	default:
		reason := DecisionReason
		if ref != RefNull {
			reason = Reason{Kind: ReasonClause, Ref: ref}
		}
		p.trail.Enqueue(l, reason)
		return nil
	}
}

// Enqueue records l as a decision or propagated literal without checking
// whether it's already falsified — the caller (CDCLCore) must have
// verified that first. Used for ordinary (non-root) propagation.
func (p *Propagator) Enqueue(l Lit, reason Reason) {
	p.trail.Enqueue(l, reason)
}

// Propagate advances the propagation cursor to a fixpoint, returning the
// clause reference that became conflicted, or RefNull if none did.
func (p *Propagator) Propagate() ClauseRef {
	for p.qHead < p.trail.Len() {
		l := p.trail.At(p.qHead)
		p.qHead++
		falseLit := l.Not()

		ws := p.watch[l.Index()]
		keep := ws[:0]
		conflict := RefNull

	watchLoop:
		for i := 0; i < len(ws); i++ {
			w := ws[i]
			if p.trail.ValueOf(w.blocker) == True {
				keep = append(keep, w)
				continue
			}
			c := p.arena.Get(w.ref)

			// Normalise so lits[0] is the blocker / other watch and
			// lits[1] is the literal that just became false.
			if c.Literals[0] == falseLit {
				c.Literals[0], c.Literals[1] = c.Literals[1], c.Literals[0]
			}
			other := c.Literals[0]
			if other != w.blocker && p.trail.ValueOf(other) == True {
				keep = append(keep, watcher{ref: w.ref, blocker: other})
				continue
			}

			for j := 2; j < len(c.Literals); j++ {
				cand := c.Literals[j]
				if p.trail.ValueOf(cand) != False {
					c.Literals[1], c.Literals[j] = c.Literals[j], c.Literals[1]
					p.watchLit(cand.Not(), w.ref, other)
					continue watchLoop
				}
			}

			// No replacement watch: clause is unit or conflicting on `other`.
			keep = append(keep, w)
			if p.trail.ValueOf(other) == False {
				conflict = w.ref
				// Copy the remaining untouched watchers back, mirroring
				// minisat-family propagate loops that stop scanning a
				// literal's watch list as soon as a conflict is found.
				keep = append(keep, ws[i+1:]...)
				p.watch[l.Index()] = keep
				p.qHead = p.trail.Len() // drain: nothing more to propagate
				return conflict
			}
			p.trail.Enqueue(other, Reason{Kind: ReasonClause, Ref: w.ref})
		}
		p.watch[l.Index()] = keep
	}
	return RefNull
}

// ResetQueue rewinds the propagation cursor to match a trail that has been
// backtracked; callers must call this (or SyncQueue) after BacktrackTo.
func (p *Propagator) ResetQueue() { p.qHead = p.trail.Len() }

// AnalyseConflict performs first-UIP conflict-driven clause learning,
// returning the learned clause, the level to backjump to, and its LBD.
// The learned clause always contains exactly one literal from the current
// decision level (the asserting literal, placed at index 0) — spec.md §8
// property 6.
func (p *Propagator) AnalyseConflict(conflict ClauseRef) (learned []Lit, backjumpLevel int, lbd int) {
	currentLevel := p.trail.CurrentLevel()
	p.resetSeen()

	counter := 0 // literals from the current level not yet resolved
	outLits := []Lit{LitNull} // slot 0 reserved for the asserting literal
	pathLit := LitNull
	idx := p.trail.Len() - 1
	reasonRef := conflict

	for {
		reasonLits := p.arena.Get(reasonRef).Literals
		for _, q := range reasonLits {
			if q == pathLit {
				continue
			}
			v := q.Var()
			if p.seen[v] {
				continue
			}
			p.mark(v)
			if p.trail.LevelOf(v) == currentLevel {
				counter++
			} else if p.trail.LevelOf(v) > 0 {
				outLits = append(outLits, q)
			}
		}

		// Walk the trail backwards to the next seen, current-level literal.
		for !p.seen[p.trail.At(idx).Var()] {
			idx--
		}
		pathLit = p.trail.At(idx)
		v := pathLit.Var()
		idx--
		counter--
		if counter == 0 {
			break
		}
		reasonRef = p.trail.ReasonOf(v).Ref
	}
	outLits[0] = pathLit.Not()

	if p.EnableMinimisation {
		outLits = p.minimise(outLits)
	}

	lbd = p.computeLBD(outLits)
	backjumpLevel = p.computeBackjumpLevel(outLits, currentLevel)
	return outLits, backjumpLevel, lbd
}

func (p *Propagator) resetSeen() {
	for _, v := range p.seenBuf {
		p.seen[v] = false
	}
	p.seenBuf = p.seenBuf[:0]
}

func (p *Propagator) mark(v Var) {
	p.seen[v] = true
	p.seenBuf = append(p.seenBuf, v)
}

func (p *Propagator) computeBackjumpLevel(lits []Lit, currentLevel int) int {
	if len(lits) == 1 {
		return 0
	}
	best := 0
	bestIdx := 1
	for i := 1; i < len(lits); i++ {
		lv := p.trail.LevelOf(lits[i].Var())
		if lv > best {
			best = lv
			bestIdx = i
		}
	}
	lits[1], lits[bestIdx] = lits[bestIdx], lits[1]
	_ = currentLevel
	return best
}

// computeLBD returns the number of distinct decision levels represented in
// lits (spec.md §4.2 / GLOSSARY).
func (p *Propagator) computeLBD(lits []Lit) int {
	seenLevel := make(map[int]struct{}, len(lits))
	for _, l := range lits {
		seenLevel[p.trail.LevelOf(l.Var())] = struct{}{}
	}
	return len(seenLevel)
}

// minimise drops non-asserting literals provable redundant by recursive
// self-subsumption: a literal l is redundant if every literal in l's
// reason clause (other than l itself) is already in the learned clause or
// is itself recursively redundant. Results are memoised per variable
// (spec.md §4.2 "Clause minimisation").
func (p *Propagator) minimise(lits []Lit) []Lit {
	for i := range p.minCache {
		p.minCache[i] = 0
	}
	inClause := make(map[Var]bool, len(lits))
	for _, l := range lits {
		inClause[l.Var()] = true
	}

	out := make([]Lit, 1, len(lits))
	out[0] = lits[0]
	for _, l := range lits[1:] {
		if p.isRedundant(l, inClause, 0) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (p *Propagator) isRedundant(l Lit, inClause map[Var]bool, depth int) bool {
	v := l.Var()
	if depth > 64 {
		return false // conservative bound on recursion
	}
	if c := p.minCache[v]; c != 0 {
		return c == 1
	}
	reason := p.trail.ReasonOf(v)
	if reason.Kind != ReasonClause || p.trail.LevelOf(v) == 0 {
		if p.trail.LevelOf(v) == 0 {
			p.minCache[v] = 1
			return true
		}
		p.minCache[v] = -1
		return false
	}
	for _, q := range p.arena.Get(reason.Ref).Literals {
		if q.Var() == v {
			continue
		}
		if inClause[q.Var()] {
			continue
		}
		if !p.isRedundant(q, inClause, depth+1) {
			p.minCache[v] = -1
			return false
		}
	}
	p.minCache[v] = 1
	return true
}

// DetachAll removes every clause from the watch-list index without
// freeing anything, so the preprocessor can rewrite clause literals in
// place (spec.md §4.2 detach_all / reattach_all).
func (p *Propagator) DetachAll() {
	for i := range p.watch {
		p.watch[i] = nil
	}
}

// ReattachAll rebuilds the watch-list index from the current permanent and
// learned clause reference lists.
func (p *Propagator) ReattachAll() {
	for _, ref := range p.permanent {
		if !p.arena.Get(ref).Deleted {
			p.attach(ref)
		}
	}
	for _, ref := range p.learned {
		if !p.arena.Get(ref).Deleted {
			p.attach(ref)
		}
	}
}

// SimplifyAtRoot removes clauses satisfied at the root and shortens
// clauses by dropping root-falsified literals, triggering arena
// compaction if the garbage tolerance is exceeded (spec.md §4.2).
func (p *Propagator) SimplifyAtRoot() error {
	if p.trail.CurrentLevel() != 0 {
		return NewError(ErrInvalidOption, "Propagator.SimplifyAtRoot", "must be called at decision level 0")
	}
	p.DetachAll()

	simplifyList := func(refs []ClauseRef) []ClauseRef {
		out := refs[:0]
		for _, ref := range refs {
			c := p.arena.Get(ref)
			if c.Deleted {
				continue
			}
			satisfied := false
			kept := c.Literals[:0:0]
			for _, l := range c.Literals {
				switch p.trail.ValueOf(l) {
				case True:
					satisfied = true
				case False:
					// drop
				default:
					kept = append(kept, l)
				}
			}
			if satisfied {
				p.arena.MarkDeleted(ref)
				continue
			}
			c.Literals = kept
			out = append(out, ref)
		}
		return out
	}

	p.permanent = simplifyList(p.permanent)
	p.learned = simplifyList(p.learned)
	p.ReattachAll()

	if p.arena.NeedsCompaction() {
		p.arena.Compact(refSlicePtrs(p.permanent), refSlicePtrs(p.learned))
	}
	return nil
}

func refSlicePtrs(refs []ClauseRef) []*ClauseRef {
	ptrs := make([]*ClauseRef, len(refs))
	for i := range refs {
		ptrs[i] = &refs[i]
	}
	return ptrs
}

// ReduceLearnedClauses evicts the least useful half of the temporary
// (non-glue) learned-clause pool once it exceeds TempPoolLimit, sorting by
// LBD or activity per SortEvictionByLBD (spec.md §5).
func (p *Propagator) ReduceLearnedClauses() {
	temp := make([]ClauseRef, 0, len(p.learned))
	keep := make([]ClauseRef, 0, len(p.learned))
	for _, ref := range p.learned {
		c := p.arena.Get(ref)
		if c.LBD <= p.LBDThreshold {
			keep = append(keep, ref)
		} else {
			temp = append(temp, ref)
		}
	}
	if len(temp) <= p.TempPoolLimit {
		return
	}
	sort.Slice(temp, func(i, j int) bool {
		ci, cj := p.arena.Get(temp[i]), p.arena.Get(temp[j])
		if p.SortEvictionByLBD {
			return ci.LBD > cj.LBD
		}
		return ci.Activity < cj.Activity
	})
	cut := len(temp) / 2
	for _, ref := range temp[:cut] {
		p.removeClause(ref)
	}
	p.learned = append(keep, temp[cut:]...)
}

func (p *Propagator) removeClause(ref ClauseRef) {
	c := p.arena.Get(ref)
	if len(c.Literals) >= 2 {
		p.unwatchLit(c.Literals[0].Not(), ref)
		p.unwatchLit(c.Literals[1].Not(), ref)
	} else if len(c.Literals) == 1 {
		p.unwatchLit(c.Literals[0].Not(), ref)
	}
	p.arena.MarkDeleted(ref)
}

// Permanent and Learned expose the clause reference lists for components
// (preprocessor, arena compaction callers) that must pass every live
// reference collection to Arena.Compact.
func (p *Propagator) Permanent() []ClauseRef { return p.permanent }
func (p *Propagator) Learned() []ClauseRef   { return p.learned }

// SetPermanent/SetLearned let the preprocessor install a rewritten clause
// reference list after SCC merging or deduplication.
func (p *Propagator) SetPermanent(refs []ClauseRef) { p.permanent = refs }
func (p *Propagator) SetLearned(refs []ClauseRef)   { p.learned = refs }

// Arena exposes the backing arena, e.g. for the preprocessor to allocate
// rewritten clauses directly.
func (p *Propagator) Arena() *Arena { return p.arena }

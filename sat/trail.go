package sat

// Trail is the append-only record of literals as they're set true, with a
// parallel list of delimiters marking where each decision level begins.
// Unlike the teacher's string-keyed DecisionTrailImpl, assignment state is
// stored in flat arrays indexed by Var/Lit so lookups never touch a map in
// the propagation hot path.
type Trail struct {
	lits []Lit // literals in the order they became true

	// Per-variable state, indexed by Var.
	value  []Value  // current truth value of each variable's positive literal
	level  []int32  // decision level at which the variable was assigned, -1 if unassigned
	reason []Reason // why the variable was assigned
	trailPos []int32 // index into lits, -1 if unassigned

	levelStarts []int32 // levelStarts[d] = index into lits where level d begins
}

// NewTrail creates a trail sized for nVars variables (indices 0..nVars-1
// must be valid Var values).
func NewTrail(nVars int) *Trail {
	t := &Trail{
		lits:        make([]Lit, 0, nVars),
		value:       make([]Value, nVars),
		level:       make([]int32, nVars),
		reason:      make([]Reason, nVars),
		trailPos:    make([]int32, nVars),
		levelStarts: []int32{0},
	}
	for i := range t.level {
		t.level[i] = -1
		t.trailPos[i] = -1
	}
	return t
}

// Grow extends the trail's per-variable arrays to cover newly allocated
// variables up to (but not including) upTo.
func (t *Trail) Grow(upTo int) {
	for len(t.value) < upTo {
		t.value = append(t.value, Unassigned)
		t.level = append(t.level, -1)
		t.reason = append(t.reason, Reason{})
		t.trailPos = append(t.trailPos, -1)
	}
}

// CurrentLevel returns the current decision level (0 = root).
func (t *Trail) CurrentLevel() int { return len(t.levelStarts) - 1 }

// Len returns the number of literals currently on the trail.
func (t *Trail) Len() int { return len(t.lits) }

// At returns the i-th literal pushed onto the trail.
func (t *Trail) At(i int) Lit { return t.lits[i] }

// ValueOf returns the current value of a literal: True if it's satisfied by
// the current assignment, False if falsified, Unassigned otherwise.
func (t *Trail) ValueOf(l Lit) Value {
	v := t.value[l.Var()]
	if v == Unassigned {
		return Unassigned
	}
	if l.Negated() {
		return v.Flip()
	}
	return v
}

// LevelOf returns the decision level a variable was assigned at, or -1 if
// it's unassigned.
func (t *Trail) LevelOf(v Var) int { return int(t.level[v]) }

// ReasonOf returns the reason a variable was assigned.
func (t *Trail) ReasonOf(v Var) Reason { return t.reason[v] }

// IsDecision reports whether v's assignment was a decision (no reason),
// given that it is currently assigned.
func (t *Trail) IsDecision(v Var) bool {
	return t.trailPos[v] >= 0 && t.reason[v].Kind == ReasonDecision
}

// NewDecisionLevel opens a new decision level without assigning anything;
// the caller pushes the decision literal itself via Enqueue.
func (t *Trail) NewDecisionLevel() {
	t.levelStarts = append(t.levelStarts, int32(len(t.lits)))
}

// Enqueue records l as newly true with the given reason at the current
// decision level. The caller must have already checked l isn't falsified.
func (t *Trail) Enqueue(l Lit, reason Reason) {
	v := l.Var()
	if l.Negated() {
		t.value[v] = False
	} else {
		t.value[v] = True
	}
	t.level[v] = int32(t.CurrentLevel())
	t.reason[v] = reason
	t.trailPos[v] = int32(len(t.lits))
	t.lits = append(t.lits, l)
}

// BacktrackTo undoes every assignment made at a decision level greater than
// level, returning those variables to Unassigned. Trail monotonicity
// (spec.md §8 property 5) is maintained because levelStarts always cuts the
// trail at a level boundary.
func (t *Trail) BacktrackTo(level int) {
	if level >= t.CurrentLevel() {
		return
	}
	cut := int(t.levelStarts[level+1])
	for i := len(t.lits) - 1; i >= cut; i-- {
		v := t.lits[i].Var()
		t.value[v] = Unassigned
		t.level[v] = -1
		t.reason[v] = Reason{}
		t.trailPos[v] = -1
	}
	t.lits = t.lits[:cut]
	t.levelStarts = t.levelStarts[:level+1]
}

// PosOf returns the trail index of an assigned variable, or -1.
func (t *Trail) PosOf(v Var) int { return int(t.trailPos[v]) }

// LevelStart returns the trail index at which decision level d begins. It
// panics if d was never opened and is still active; callers should guard
// with d <= CurrentLevel().
func (t *Trail) LevelStart(d int) int { return int(t.levelStarts[d]) }

// Reset clears the trail back to an empty, level-0 state without shrinking
// the underlying per-variable arrays (used by restarts, which reuse them).
func (t *Trail) Reset() {
	for _, l := range t.lits {
		v := l.Var()
		t.value[v] = Unassigned
		t.level[v] = -1
		t.reason[v] = Reason{}
		t.trailPos[v] = -1
	}
	t.lits = t.lits[:0]
	t.levelStarts = t.levelStarts[:1]
}

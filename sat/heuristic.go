package sat

// PolarityPolicy selects how VariableHeuristic picks a literal's sign once
// its variable has been chosen as the next decision (spec.md §4.3, C7).
type PolarityPolicy int

const (
	// PolarityPhaseSaving reuses the polarity the variable last held
	// before being unassigned (the VSIDS/minisat default).
	PolarityPhaseSaving PolarityPolicy = iota
	// PolaritySolutionGuided prefers the polarity the variable held in
	// the best solution found so far, falling back to phase-saving for
	// variables absent from it.
	PolaritySolutionGuided
	// PolarityOptimistic always decides the negative literal (the
	// variable false), the value under which a positive objective-term
	// literal costs nothing.
	PolarityOptimistic
	// PolarityOptimisticAux is PolarityOptimistic restricted to the
	// variables registered through MarkObjectiveLinked; other variables
	// fall back to phase-saving.
	PolarityOptimisticAux
)

// VariableHeuristic is the VSIDS decision heuristic: an activity-ordered
// binary heap of variables plus the configured polarity policy.
type VariableHeuristic struct {
	activity []float64
	bumpInc  float64
	decay    float64

	phase  []bool // saved polarity, true = positive literal was last set
	frozen []bool // excluded from decision (e.g. totaliser auxiliaries)

	heap     []Var   // binary max-heap over activity, 0-indexed
	heapPos  []int32 // heapPos[v] = index into heap, -1 if not present

	policy        PolarityPolicy
	optimisticSet map[Var]bool // variables treated as objective-linked for PolarityOptimisticAux
	bestSolution  []Value      // indexed by Var, from the solution tracker
}

// NewVariableHeuristic creates a heuristic for nVars variables with the
// given polarity policy. All variables start active and unfrozen.
func NewVariableHeuristic(nVars int, policy PolarityPolicy) *VariableHeuristic {
	h := &VariableHeuristic{
		bumpInc:       1.0,
		decay:         0.95,
		policy:        policy,
		optimisticSet: make(map[Var]bool),
	}
	h.Grow(nVars)
	return h
}

// Grow extends the heuristic's per-variable arrays and inserts the newly
// covered variables into the decision heap.
func (h *VariableHeuristic) Grow(nVars int) {
	for len(h.activity) < nVars {
		v := Var(len(h.activity))
		h.activity = append(h.activity, 0)
		h.phase = append(h.phase, false)
		h.frozen = append(h.frozen, v < firstFreeVar) // reserved ids never decided
		h.heapPos = append(h.heapPos, -1)
		if v >= firstFreeVar {
			h.push(v)
		}
	}
}

// Bump increases v's activity, rescaling the whole array if it grows
// unbounded, and rebalances the heap (spec.md §4.3 VSIDS bump).
func (h *VariableHeuristic) Bump(v Var) {
	h.activity[v] += h.bumpInc
	if h.activity[v] > 1e100 {
		for i := range h.activity {
			h.activity[i] *= 1e-100
		}
		h.bumpInc *= 1e-100
	}
	if h.heapPos[v] >= 0 {
		h.siftUp(int(h.heapPos[v]))
	}
}

// Decay grows the bump increment, implementing exponential activity decay
// without rescaling every variable on every conflict.
func (h *VariableHeuristic) Decay() {
	h.bumpInc /= h.decay
}

// Freeze excludes v from ever being chosen as a decision variable (used
// for totaliser/cardinality-network auxiliary variables, spec.md §9).
func (h *VariableHeuristic) Freeze(v Var) {
	if !h.frozen[v] {
		h.frozen[v] = true
		h.remove(v)
	}
}

// Unfreeze makes v eligible for decision again.
func (h *VariableHeuristic) Unfreeze(v Var) {
	if h.frozen[v] {
		h.frozen[v] = false
		h.push(v)
	}
}

// MarkObjectiveLinked records v as objective-linked for PolarityOptimisticAux.
func (h *VariableHeuristic) MarkObjectiveLinked(v Var) { h.optimisticSet[v] = true }

// SetBestSolution installs the current incumbent's assignment for
// PolaritySolutionGuided.
func (h *VariableHeuristic) SetBestSolution(values []Value) { h.bestSolution = values }

// NextDecision pops the highest-activity unassigned, unfrozen variable and
// returns the literal to decide on, per the configured polarity policy.
// ok is false once every variable is assigned or frozen.
func (h *VariableHeuristic) NextDecision(trail *Trail) (lit Lit, ok bool) {
	for len(h.heap) > 0 {
		v := h.heap[0]
		if trail.LevelOf(v) >= 0 {
			// Assigned despite being in the heap (can happen after a
			// propagation without an explicit Remove call): drop it.
			h.pop()
			continue
		}
		h.pop()
		return MkLit(v, !h.polarity(v)), true
	}
	return LitNull, false
}

func (h *VariableHeuristic) polarity(v Var) bool {
	switch h.policy {
	case PolaritySolutionGuided:
		if int(v) < len(h.bestSolution) && h.bestSolution[v] != Unassigned {
			return h.bestSolution[v] == True
		}
		return h.phase[v]
	case PolarityOptimistic:
		return false
	case PolarityOptimisticAux:
		if h.optimisticSet[v] {
			return false
		}
		return h.phase[v]
	default:
		return h.phase[v]
	}
}

// SavePhase records the polarity a variable held just before becoming
// unassigned (call from Trail.BacktrackTo's caller, once per undone var).
func (h *VariableHeuristic) SavePhase(v Var, positive bool) {
	h.phase[v] = positive
}

// Restore reinserts a variable into the decision heap after it becomes
// unassigned (called by the CDCL core after backtracking).
func (h *VariableHeuristic) Restore(v Var) {
	if !h.frozen[v] && h.heapPos[v] < 0 {
		h.push(v)
	}
}

// --- binary max-heap over activity ---

func (h *VariableHeuristic) push(v Var) {
	h.heap = append(h.heap, v)
	h.heapPos[v] = int32(len(h.heap) - 1)
	h.siftUp(len(h.heap) - 1)
}

func (h *VariableHeuristic) pop() Var {
	top := h.heap[0]
	last := len(h.heap) - 1
	h.heap[0] = h.heap[last]
	h.heapPos[h.heap[0]] = 0
	h.heap = h.heap[:last]
	h.heapPos[top] = -1
	if len(h.heap) > 0 {
		h.siftDown(0)
	}
	return top
}

func (h *VariableHeuristic) remove(v Var) {
	i := h.heapPos[v]
	if i < 0 {
		return
	}
	last := len(h.heap) - 1
	h.heap[i] = h.heap[last]
	h.heapPos[h.heap[i]] = i
	h.heap = h.heap[:last]
	h.heapPos[v] = -1
	if int(i) < len(h.heap) {
		h.siftUp(int(i))
		h.siftDown(int(i))
	}
}

func (h *VariableHeuristic) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.activity[h.heap[parent]] >= h.activity[h.heap[i]] {
			break
		}
		h.heap[parent], h.heap[i] = h.heap[i], h.heap[parent]
		h.heapPos[h.heap[parent]] = int32(parent)
		h.heapPos[h.heap[i]] = int32(i)
		i = parent
	}
}

func (h *VariableHeuristic) siftDown(i int) {
	n := len(h.heap)
	for {
		l, r, largest := 2*i+1, 2*i+2, i
		if l < n && h.activity[h.heap[l]] > h.activity[h.heap[largest]] {
			largest = l
		}
		if r < n && h.activity[h.heap[r]] > h.activity[h.heap[largest]] {
			largest = r
		}
		if largest == i {
			return
		}
		h.heap[i], h.heap[largest] = h.heap[largest], h.heap[i]
		h.heapPos[h.heap[i]] = int32(i)
		h.heapPos[h.heap[largest]] = int32(largest)
		i = largest
	}
}

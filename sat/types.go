// Package sat implements a CDCL-based Weighted Partial MaxSAT engine: a
// clausal SAT solver with two-watched-literal propagation and clause
// learning, wrapped by linear and core-guided optimisation passes and a
// structural preprocessor built around an implication graph.
//
// Variables and literals are dense, non-negative integers rather than the
// named strings used by this package's sibling propositional-logic
// evaluator — the optimiser spends most of its time inside the propagation
// loop, and every allocation there is a cache line the heuristic has to
// wait on.
package sat

import "fmt"

// Var identifies a Boolean variable. Var 0 and Var 1 are reserved: 0 is the
// null variable (never assigned, used as a sentinel), 1 is the constant
// variable whose positive literal is always true.
type Var int32

const (
	// VarNull is the sentinel "no variable" value.
	VarNull Var = 0
	// VarConstant is permanently assigned true; Lit(VarConstant, false)
	// is the literal "true", its negation is the literal "false".
	VarConstant Var = 1
	// firstFreeVar is the first id handed out by a VarPool.
	firstFreeVar Var = 2
)

// Lit is a literal: a variable together with a polarity, packed into a
// single dense, non-negative integer so it can index directly into watch
// lists and activity arrays. The positive literal of a variable is even,
// its negation is the next odd number, so negation is `l ^ 1`.
type Lit int32

// LitNull is returned where no literal is applicable (e.g. a unit clause's
// "other" watch).
const LitNull Lit = -1

// MkLit builds the literal for variable v with the given polarity. negated
// selects the negative (odd) literal.
func MkLit(v Var, negated bool) Lit {
	l := Lit(v) << 1
	if negated {
		l |= 1
	}
	return l
}

// Var returns the variable underlying a literal.
func (l Lit) Var() Var { return Var(l >> 1) }

// Negated reports whether l is the negative polarity of its variable.
func (l Lit) Negated() bool { return l&1 == 1 }

// Not returns the negation of l in constant time.
func (l Lit) Not() Lit { return l ^ 1 }

// Index returns the dense non-negative index used to address per-literal
// arrays (watch lists, activity, polarity tables). For a non-sentinel
// literal this is simply the literal's own integer value.
func (l Lit) Index() int { return int(l) }

func (l Lit) String() string {
	if l == LitNull {
		return "<nil-lit>"
	}
	if l.Negated() {
		return fmt.Sprintf("-x%d", l.Var())
	}
	return fmt.Sprintf("x%d", l.Var())
}

// LitTrue and LitFalse are the literals of the constant variable.
var (
	LitTrue  = MkLit(VarConstant, false)
	LitFalse = MkLit(VarConstant, true)
)

// Value is the ternary truth value of a variable or literal during search.
type Value uint8

const (
	Unassigned Value = iota
	True
	False
)

// Flip returns the opposite of a definite value; Unassigned maps to itself.
func (v Value) Flip() Value {
	switch v {
	case True:
		return False
	case False:
		return True
	default:
		return Unassigned
	}
}

// Reason explains why a literal was propagated: either a clause reference,
// a non-clausal propagator id (totaliser, counter constraint, ...), or a
// decision (no reason). ReasonKind zero value is ReasonDecision so a freshly
// zeroed Reason is "this was a decision", matching an unassigned trail slot.
type ReasonKind uint8

const (
	ReasonDecision ReasonKind = iota
	ReasonClause
	ReasonPropagator
)

// Reason is attached to every non-decision trail entry.
type Reason struct {
	Kind  ReasonKind
	Ref   ClauseRef // valid iff Kind == ReasonClause
	PropID int32    // valid iff Kind == ReasonPropagator
}

// DecisionReason is the zero-value reason used for decisions and for the
// root-level "no reason needed" case.
var DecisionReason = Reason{Kind: ReasonDecision}

// Clause is a disjunction of literals stored in the clause arena. Literals
// never repeat and a clause never contains both a literal and its negation
// (the propagator enforces this at add time — see Propagator.AddPermanent /
// AddLearned). Positions 0 and 1 are the two watched literals while the
// clause is attached to the propagator's watch lists.
type Clause struct {
	Literals  []Lit
	Permanent bool // survives clause-database reduction
	Deleted   bool // tombstoned; arena compaction reclaims the space
	Activity  float64
	LBD       int // literal-block distance, computed at learning time
}

func (c *Clause) String() string {
	return fmt.Sprintf("%v", c.Literals)
}

// IsUnit reports whether c has exactly one literal.
func (c *Clause) IsUnit() bool { return len(c.Literals) == 1 }

// ClauseRef is a stable handle into the clause arena. It survives until the
// next call to Arena.Compact, which rewrites every reference passed to it.
type ClauseRef uint32

// RefNull is the "no clause" reference.
const RefNull ClauseRef = 0

// LinearFunction is an objective: a sum of non-negative weighted terms over
// integer variables (via their literals) plus a constant. CanonicalForm
// enforces the invariant of spec.md §3: every term's weight is strictly
// positive, with negative-weight terms folded into an inverse view and the
// constant term.
type LinearFunction struct {
	Terms    []WeightedLiteral
	Constant int64
}

// WeightedLiteral is one term of a LinearFunction: weight is paid whenever
// Literal is true.
type WeightedLiteral struct {
	Literal Lit
	Weight  int64
}

// Clone returns an independent copy of f.
func (f *LinearFunction) Clone() *LinearFunction {
	out := &LinearFunction{Constant: f.Constant, Terms: make([]WeightedLiteral, len(f.Terms))}
	copy(out.Terms, f.Terms)
	return out
}

// TotalWeight returns the sum of all term weights (the cost if every term
// literal is true), not counting the constant.
func (f *LinearFunction) TotalWeight() int64 {
	var sum int64
	for _, t := range f.Terms {
		sum += t.Weight
	}
	return sum
}

// CanonicalForm rewrites f so every term has strictly positive weight: a
// term with weight w < 0 on literal l becomes a term with weight -w on
// l.Not(), with the constant adjusted by w (since l being true costs w,
// i.e. ¬l being true "costs" -w relative to the new constant baseline,
// which absorbs w once). See spec.md §9 "Integer-view variable creation":
// no fresh variable or clause is introduced, the literal's negation is
// simply used directly.
func (f *LinearFunction) CanonicalForm() *LinearFunction {
	out := &LinearFunction{Constant: f.Constant, Terms: make([]WeightedLiteral, 0, len(f.Terms))}
	for _, t := range f.Terms {
		if t.Weight == 0 {
			continue
		}
		if t.Weight < 0 {
			out.Constant += t.Weight
			out.Terms = append(out.Terms, WeightedLiteral{Literal: t.Literal.Not(), Weight: -t.Weight})
		} else {
			out.Terms = append(out.Terms, t)
		}
	}
	return out
}

// IsCanonical reports whether every term of f has strictly positive weight,
// the invariant §8/4 of spec.md requires hold "at all times".
func (f *LinearFunction) IsCanonical() bool {
	for _, t := range f.Terms {
		if t.Weight <= 0 {
			return false
		}
	}
	return true
}

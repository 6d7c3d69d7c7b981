package sat

import "fmt"

// IntVar is an integer variable with a closed interval domain [Lb, Ub] and
// a family of reified Boolean literals: a lower-bound literal `[x >= v]`
// for every v in (Lb, Ub], and an equality literal `[x = v]` for every v in
// [Lb, Ub]. A plain Boolean variable is the special case Lb=0, Ub=1.
type IntVar struct {
	ID Var
	Lb int64
	Ub int64

	// lowerBound[v] is the literal `[x >= v]` for v in (origLb, origUb].
	// Indexed by v - origLb - 1 (v == origLb has no lower-bound literal:
	// it's trivially true).
	lowerBound []Lit
	// equality[v] is the literal `[x = v]` for v in [origLb, origUb].
	equality []Lit
	origLb   int64
	origUb   int64
}

// IntView wraps a source IntVar and applies an affine transform on read,
// so that canonicalising a negative-weight objective term never needs a
// fresh variable or clause (spec.md §9, "Integer-view variable creation").
// A view over Boolean variable v with negate=true behaves exactly like the
// variable (1 - v).
type IntView struct {
	Source *IntVar
	Negate bool
	Offset int64
}

// GEq returns the literal `[view >= v]`.
func (iv *IntView) GEq(v int64) Lit {
	if !iv.Negate {
		return iv.Source.GEq(v - iv.Offset)
	}
	// view = offset - source, so view >= v  <=>  source <= offset - v
	//                                     <=>  NOT (source >= offset - v + 1)
	return iv.Source.GEq(iv.Offset - v + 1).Not()
}

// DomainManager owns every IntVar's bounds and builds the reified literals
// that connect integer domains to the Boolean core. It is the sole writer
// of IntVar.Lb/Ub; the propagator and preprocessor only ever read bounds
// through it so that bound-tightening and literal creation stay consistent.
type DomainManager struct {
	vars []*IntVar // index 0 unused (VarNull), index 1 unused (VarConstant)
	pool *VarPool
}

// NewDomainManager creates a domain manager bound to the given variable
// pool, from which it allocates the fresh Boolean variables backing each
// IntVar's reified literals.
func NewDomainManager(pool *VarPool) *DomainManager {
	dm := &DomainManager{pool: pool}
	dm.vars = make([]*IntVar, firstFreeVar)
	return dm
}

// NewIntVar creates an integer variable over [lb, ub] and allocates its
// reified literals eagerly. Boolean variables are created by calling this
// with lb=0, ub=1.
func (dm *DomainManager) NewIntVar(lb, ub int64) *IntVar {
	if ub < lb {
		panic(fmt.Sprintf("sat: invalid int var domain [%d, %d]", lb, ub))
	}
	id := dm.pool.NewVar()
	iv := &IntVar{ID: id, Lb: lb, Ub: ub, origLb: lb, origUb: ub}

	n := ub - lb
	iv.lowerBound = make([]Lit, n) // for v = lb+1 .. ub
	iv.equality = make([]Lit, n+1) // for v = lb .. ub

	if n == 0 {
		iv.equality[0] = LitTrue
	} else if n == 1 {
		// Boolean case: a single literal suffices for both families.
		base := MkLit(id, false)
		iv.lowerBound[0] = base       // [x >= ub] == [x = 1] == base
		iv.equality[0] = base.Not()   // [x = lb] == [x = 0]
		iv.equality[1] = base         // [x = ub] == [x = 1]
	} else {
		for i := int64(0); i < n; i++ {
			v := lb + 1 + i
			iv.lowerBound[i] = MkLit(dm.pool.NewVar(), false)
			if i > 0 {
				// Order literals are monotone: [x>=v] -> [x>=v-1].
				_ = v
			}
		}
		for i := int64(0); i <= n; i++ {
			iv.equality[i] = MkLit(dm.pool.NewVar(), false)
		}
	}

	dm.grow(id)
	dm.vars[id] = iv
	return iv
}

func (dm *DomainManager) grow(upTo Var) {
	for Var(len(dm.vars)) <= upTo {
		dm.vars = append(dm.vars, nil)
	}
}

// Lookup returns the IntVar for a given id, or nil if v isn't an integer
// variable managed by dm.
func (dm *DomainManager) Lookup(v Var) *IntVar {
	if int(v) >= len(dm.vars) {
		return nil
	}
	return dm.vars[v]
}

// GEq returns the literal `[x >= v]`. v <= Lb is always true, v > Ub is
// always false.
func (iv *IntVar) GEq(v int64) Lit {
	if v <= iv.origLb {
		return LitTrue
	}
	if v > iv.origUb {
		return LitFalse
	}
	return iv.lowerBound[v-iv.origLb-1]
}

// Eq returns the literal `[x = v]`. v outside [Lb, Ub] is always false.
func (iv *IntVar) Eq(v int64) Lit {
	if v < iv.origLb || v > iv.origUb {
		return LitFalse
	}
	return iv.equality[v-iv.origLb]
}

// TightenUb narrows the variable's recorded upper bound. It does not by
// itself propagate anything through the reified literals; callers (the
// propagator, when a `[x >= v]` literal is set false at the root) are
// responsible for keeping Lb/Ub and the literal assignments consistent.
func (iv *IntVar) TightenUb(newUb int64) {
	if newUb < iv.Ub {
		iv.Ub = newUb
	}
}

// TightenLb narrows the variable's recorded lower bound.
func (iv *IntVar) TightenLb(newLb int64) {
	if newLb > iv.Lb {
		iv.Lb = newLb
	}
}

// IsFixed reports whether the domain has collapsed to a single value.
func (iv *IntVar) IsFixed() bool { return iv.Lb == iv.Ub }

// VarPool hands out fresh dense variable ids, starting after the two
// reserved ids (VarNull, VarConstant).
type VarPool struct {
	next Var
}

// NewVarPool creates a pool whose first allocated variable is 2.
func NewVarPool() *VarPool {
	return &VarPool{next: firstFreeVar}
}

// NewVar allocates and returns a fresh variable id.
func (p *VarPool) NewVar() Var {
	v := p.next
	p.next++
	return v
}

// Len returns one past the highest variable id ever allocated, i.e. the
// size an array indexed by Var needs to be.
func (p *VarPool) Len() int { return int(p.next) }

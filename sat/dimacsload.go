package sat

import "github.com/xDarkicex/maxsat/dimacs"

// intLitToLit converts a DIMACS-convention integer literal (positive n =
// variable n true, negative n = negation) into this package's dense Lit,
// given a mapping from DIMACS variable number to allocated Var.
func intLitToLit(varMap []Var, n int) Lit {
	v := n
	negated := false
	if v < 0 {
		v = -v
		negated = true
	}
	return MkLit(varMap[v], negated)
}

// allocateVars creates one fresh Var per DIMACS variable 1..numVars and
// returns the DIMACS-number-indexed lookup table (index 0 unused).
func allocateVars(pool *VarPool, heur *VariableHeuristic, trail *Trail, numVars int) []Var {
	varMap := make([]Var, numVars+1)
	for i := 1; i <= numVars; i++ {
		varMap[i] = pool.NewVar()
	}
	heur.Grow(pool.Len())
	trail.Grow(pool.Len())
	return varMap
}

// LoadCNF installs every clause of a parsed CNF instance into prop,
// allocating one fresh Var per DIMACS variable.
func LoadCNF(prop *Propagator, pool *VarPool, heur *VariableHeuristic, trail *Trail, cnf *dimacs.CNF) error {
	varMap := allocateVars(pool, heur, trail, cnf.NumVars)
	prop.Grow(pool.Len())
	for _, c := range cnf.Clauses {
		lits := make([]Lit, len(c))
		for i, n := range c {
			lits[i] = intLitToLit(varMap, n)
		}
		if err := prop.AddPermanent(lits); err != nil {
			return err
		}
	}
	return nil
}

// LoadWCNF installs a parsed WCNF instance's hard clauses into prop and
// returns the soft-clause literals/weights plus the equivalent objective
// (minimise the sum of weights of falsified soft clauses). softLits[i] is
// the objective's term literal, which costs softWeights[i] when true;
// CoreGuidedSearch takes the negated form (Optimiser.SolveWeighted
// negates them).
func LoadWCNF(prop *Propagator, pool *VarPool, heur *VariableHeuristic, trail *Trail, w *dimacs.WCNF) (softLits []Lit, softWeights []int64, objective LinearFunction, err error) {
	varMap := allocateVars(pool, heur, trail, w.NumVars)
	prop.Grow(pool.Len())

	for _, c := range w.HardClauses {
		lits := make([]Lit, len(c))
		for i, n := range c {
			lits[i] = intLitToLit(varMap, n)
		}
		if err := prop.AddPermanent(lits); err != nil {
			return nil, nil, LinearFunction{}, err
		}
	}

	for i, c := range w.SoftClauses {
		lits := make([]Lit, len(c))
		for j, n := range c {
			lits[j] = intLitToLit(varMap, n)
		}
		// spec.md §6: a unit soft clause is absorbed directly into the
		// objective, no selector variable — its own negation already is
		// the "this clause is falsified" literal. Only clauses of size
		// >= 2 need a fresh selector, since "falsified" there means
		// every literal false at once, not expressible as one literal.
		if len(lits) == 1 {
			softLits = append(softLits, lits[0].Not())
			softWeights = append(softWeights, w.SoftWeights[i])
			continue
		}
		v := pool.NewVar()
		heur.Grow(int(v) + 1)
		trail.Grow(int(v) + 1)
		prop.Grow(int(v) + 1)
		b := MkLit(v, false)
		if err := prop.AddPermanent(append(lits, b)); err != nil {
			return nil, nil, LinearFunction{}, err
		}
		softLits = append(softLits, b)
		softWeights = append(softWeights, w.SoftWeights[i])
	}

	terms := make([]WeightedLiteral, len(softLits))
	for i, l := range softLits {
		terms[i] = WeightedLiteral{Literal: l, Weight: softWeights[i]}
	}
	objective = LinearFunction{Terms: terms}
	return softLits, softWeights, objective, nil
}

package sat

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Status is the outcome of a CDCLCore.Solve call.
type Status int

const (
	Unknown Status = iota
	Satisfiable
	Unsatisfiable
)

func (s Status) String() string {
	switch s {
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	default:
		return "UNKNOWN"
	}
}

// SolveStats accumulates counters surfaced to callers and to the logger,
// mirroring the teacher's habit (sat/cdcl.go SolverStats) of returning a
// plain counter struct alongside a result rather than threading metrics
// through a side channel.
type SolveStats struct {
	Conflicts  int64
	Decisions  int64
	Propagations int64
	Restarts   int64
	LearnedClauses int64
}

// CDCLCore is the main conflict-driven clause-learning search loop
// (spec.md §4.6, C8). It owns no data structures itself beyond its
// scratch state; the trail, propagator, heuristic, and restart strategy
// are supplied so a caller can reuse them across an optimiser driver's
// repeated solves.
type CDCLCore struct {
	Trail    *Trail
	Prop     *Propagator
	Heur     *VariableHeuristic
	Restart  RestartStrategy
	Pool     *VarPool

	ReduceInterval int // conflicts between learned-clause database reductions
	Log            *logrus.Entry

	// Counters are native (non-clausal) cardinality checks polled once
	// clausal propagation reaches a fixpoint, e.g. the CounterPropagator
	// linear upper-bound search installs for an unweighted objective
	// instead of paying for a cardinality-network rebuild per bound.
	Counters []ExternalChecker

	stats              SolveStats
	conflictsSinceReduce int
	deadlinePollMask   int64 // check ctx.Err() every N conflicts
}

// NewCDCLCore wires together the components of one solver instance. Log
// may be nil, in which case a discarding entry is used.
func NewCDCLCore(trail *Trail, prop *Propagator, heur *VariableHeuristic, restart RestartStrategy, pool *VarPool, log *logrus.Entry) *CDCLCore {
	if log == nil {
		l := logrus.New()
		l.SetOutput(logrusDiscard{})
		log = logrus.NewEntry(l)
	}
	return &CDCLCore{
		Trail: trail, Prop: prop, Heur: heur, Restart: restart, Pool: pool,
		ReduceInterval:   2000,
		Log:              log,
		deadlinePollMask: 1023,
	}
}

type logrusDiscard struct{}

func (logrusDiscard) Write(p []byte) (int, error) { return len(p), nil }

// Stats returns a snapshot of this core's running counters.
func (c *CDCLCore) Stats() SolveStats { return c.stats }

// Solve runs CDCL search with no assumptions until the formula is decided
// SAT/UNSAT or ctx is cancelled. On Satisfiable, the trail holds a total
// assignment.
func (c *CDCLCore) Solve(ctx context.Context) (Status, error) {
	status, _, err := c.solve(ctx, nil)
	return status, err
}

// SolveAssumptions runs CDCL search with the given assumption literals
// pushed as decisions before any heuristic decision is made. On
// Unsatisfiable, the returned core is the subset of assumptions (negated
// in the learned clause) that was sufficient to derive the conflict —
// the input to core-guided lower-bound search (spec.md §4.7, C10).
func (c *CDCLCore) SolveAssumptions(ctx context.Context, assumptions []Lit) (Status, []Lit, error) {
	return c.solve(ctx, assumptions)
}

func (c *CDCLCore) solve(ctx context.Context, assumptions []Lit) (Status, []Lit, error) {
	assumpIdx := 0

	for {
		conflict := c.Prop.Propagate()
		if conflict == RefNull {
			conflict = c.checkCounters()
		}
		if conflict != RefNull {
			c.stats.Conflicts++
			if c.Trail.CurrentLevel() == 0 {
				return Unsatisfiable, nil, nil
			}

			learned, backjumpLevel, lbd := c.Prop.AnalyseConflict(conflict)
			c.stats.LearnedClauses++

			if backjumpLevel < assumpIdx {
				// The conflict is explained entirely by assumption
				// decisions: the learned clause's negation is the core.
				return Unsatisfiable, coreFromLearned(learned), nil
			}

			c.backtrackTo(backjumpLevel)
			c.Prop.ResetQueue()
			if len(learned) == 1 {
				if err := c.Prop.enqueueRoot(learned[0], RefNull); err != nil {
					return Unsatisfiable, nil, nil
				}
			} else {
				if err := c.Prop.AddLearned(learned, lbd); err != nil {
					return Unknown, nil, err
				}
				pool := c.Prop.learned
				if lbd <= c.Prop.LBDThreshold {
					pool = c.Prop.permanent // glue clauses are filed with the permanent ones
				}
				ref := pool[len(pool)-1]
				c.Trail.Enqueue(learned[0], Reason{Kind: ReasonClause, Ref: ref})
			}
			c.Heur.Decay()

			c.conflictsSinceReduce++
			if c.conflictsSinceReduce >= c.ReduceInterval {
				c.Prop.ReduceLearnedClauses()
				c.conflictsSinceReduce = 0
			}
			if c.Restart.ShouldRestart(lbd) {
				c.stats.Restarts++
				c.Restart.Reset()
				c.backtrackTo(max(assumpIdx, 0))
				c.Prop.ResetQueue()
			}

			if c.stats.Conflicts&c.deadlinePollMask == 0 {
				if err := ctx.Err(); err != nil {
					c.Log.WithFields(logrus.Fields{"conflicts": c.stats.Conflicts}).Debug("solve deadline exceeded")
					return Unknown, nil, nil
				}
			}
			continue
		}

		if assumpIdx < len(assumptions) {
			lit := assumptions[assumpIdx]
			switch c.Trail.ValueOf(lit) {
			case True:
				assumpIdx++
			case False:
				return Unsatisfiable, append([]Lit(nil), assumptions[:assumpIdx+1]...), nil
			default:
				c.Trail.NewDecisionLevel()
				c.Prop.ResetQueue()
				c.Trail.Enqueue(lit, DecisionReason)
				assumpIdx++
				c.stats.Decisions++
			}
			continue
		}

		lit, ok := c.Heur.NextDecision(c.Trail)
		if !ok {
			return Satisfiable, nil, nil
		}
		c.Trail.NewDecisionLevel()
		c.Prop.ResetQueue()
		c.Trail.Enqueue(lit, DecisionReason)
		c.stats.Decisions++
	}
}

// checkCounters polls every native cardinality checker once clausal
// propagation has reached a fixpoint, installing the first violated
// bound's conflict clause so it feeds ordinary first-UIP analysis.
func (c *CDCLCore) checkCounters() ClauseRef {
	for _, checker := range c.Counters {
		if lits := checker.Check(); lits != nil {
			ref, err := c.Prop.AddConflictClause(lits)
			if err == nil {
				return ref
			}
		}
	}
	return RefNull
}

func (c *CDCLCore) backtrackTo(level int) {
	for i := c.Trail.Len() - 1; i >= 0 && c.Trail.LevelOf(c.Trail.At(i).Var()) > level; i-- {
		l := c.Trail.At(i)
		c.Heur.SavePhase(l.Var(), !l.Negated())
	}
	c.Trail.BacktrackTo(level)
	for v := Var(firstFreeVar); int(v) < c.Pool.Len(); v++ {
		if c.Trail.LevelOf(v) < 0 {
			c.Heur.Restore(v)
		}
	}
}

// coreFromLearned converts a learned clause (all literals are negations
// of the assumption decisions that produced the conflict) back into the
// assumption literals themselves.
func coreFromLearned(learned []Lit) []Lit {
	core := make([]Lit, len(learned))
	for i, l := range learned {
		core[i] = l.Not()
	}
	return core
}

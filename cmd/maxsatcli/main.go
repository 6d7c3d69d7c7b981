// Command maxsatcli solves a DIMACS CNF or Weighted Partial MaxSAT (WCNF)
// instance and reports the result: SAT/UNSAT/UNKNOWN, the model for a
// satisfiable CNF instance, and for a WCNF instance OPTIMAL when proven
// plus the objective cost (no model is printed for WCNF).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xDarkicex/maxsat/dimacs"
	"github.com/xDarkicex/maxsat/sat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose        bool
		deadline       time.Duration
		restartKind    string
		polarityKind   string
		stratified     bool
		minimise       bool
		lexicographical bool
		weightAware    bool
	)

	root := &cobra.Command{
		Use:   "maxsatcli [flags] <input.cnf|input.wcnf>",
		Short: "Solve a CNF or Weighted Partial MaxSAT instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			params := sat.DefaultParamRegistry()
			if err := params.SetEnum("restart-strategy", restartKind); err != nil {
				return err
			}
			if err := params.SetEnum("value-selection", polarityKind); err != nil {
				return err
			}
			if err := params.SetBool("stratified-core-guided", stratified); err != nil {
				return err
			}
			if err := params.SetBool("clause-minimisation", minimise); err != nil {
				return err
			}
			if err := params.SetBool("lexicographical", lexicographical); err != nil {
				return err
			}
			if err := params.SetBool("weight-aware-core-extraction", weightAware); err != nil {
				return err
			}
			if err := params.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			if deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deadline)
				defer cancel()
			}

			return runSolve(ctx, f, args[0], params, log)
		},
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log solver progress")
	root.Flags().DurationVar(&deadline, "deadline", 0, "wall-clock solve budget (0 = unbounded)")
	root.Flags().StringVar(&restartKind, "restart", "glucose", "restart policy: constant|luby|glucose")
	root.Flags().StringVar(&polarityKind, "polarity", "phase-saving", "decision polarity policy")
	root.Flags().BoolVar(&stratified, "stratified", true, "weight-stratify core-guided search")
	root.Flags().BoolVar(&minimise, "minimise", true, "enable clause minimisation")
	root.Flags().BoolVar(&lexicographical, "lexicographical", false, "solve the objective one weight stratum at a time")
	root.Flags().BoolVar(&weightAware, "weight-aware-core-extraction", false, "harvest multiple disjoint cores per core-guided pass")

	return root
}

func newLogger(verbose bool) *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(l)
}

func buildCore(params *sat.ParamRegistry, log *logrus.Entry) (*sat.CDCLCore, *sat.Propagator, *sat.VarPool, *sat.Trail, *sat.VariableHeuristic) {
	pool := sat.NewVarPool()
	trail := sat.NewTrail(pool.Len())
	arena := sat.NewArena()
	arena.GarbageTolerance = params.GetFloat("garbage-tolerance-factor")
	prop := sat.NewPropagator(arena, trail)
	prop.LBDThreshold = int(params.GetInt("lbd-threshold"))
	prop.TempPoolLimit = int(params.GetInt("limit-num-temporary-clauses"))
	prop.EnableMinimisation = params.GetBool("clause-minimisation")

	var polarity sat.PolarityPolicy
	switch params.GetEnum("value-selection") {
	case "solution-guided-search":
		polarity = sat.PolaritySolutionGuided
	case "optimistic":
		polarity = sat.PolarityOptimistic
	case "optimistic-aux":
		polarity = sat.PolarityOptimisticAux
	default:
		polarity = sat.PolarityPhaseSaving
	}
	heur := sat.NewVariableHeuristic(pool.Len(), polarity)

	var restart sat.RestartStrategy
	switch params.GetEnum("restart-strategy") {
	case "constant":
		restart = sat.NewConstantRestart(int(params.GetInt("restart-multiplication-coefficient")))
	case "luby":
		restart = sat.NewLubyRestart(int(params.GetInt("restart-multiplication-coefficient")))
	default:
		restart = sat.NewGlucoseRestart()
	}

	core := sat.NewCDCLCore(trail, prop, heur, restart, pool, log)
	return core, prop, pool, trail, heur
}

func runSolve(ctx context.Context, f *os.File, path string, params *sat.ParamRegistry, log *logrus.Entry) error {
	core, prop, pool, trail, heur := buildCore(params, log)

	if isWCNF(path) {
		w, err := dimacs.ReadWCNF(f)
		if err != nil {
			return err
		}
		softLits, softWeights, objective, err := sat.LoadWCNF(prop, pool, heur, trail, w)
		if err != nil {
			return err
		}
		opt := sat.NewOptimiser(core, prop, pool, params, log)
		opt.SoftLits, opt.SoftWeights = softLits, softWeights
		objective, err = opt.Preprocess(objective)
		if err != nil {
			return reportInfeasible(err)
		}
		out, err := opt.SolveWeighted(ctx, objective)
		if err != nil {
			return err
		}
		printOutput(out)
		return nil
	}

	cnf, err := dimacs.ReadCNF(f)
	if err != nil {
		return err
	}
	if err := sat.LoadCNF(prop, pool, heur, trail, cnf); err != nil {
		return reportInfeasible(err)
	}
	status, err := core.Solve(ctx)
	if err != nil {
		return err
	}
	switch status {
	case sat.Satisfiable:
		fmt.Println("SAT")
		printModel(trail, pool)
	case sat.Unsatisfiable:
		fmt.Println("UNSAT")
	default:
		fmt.Println("UNKNOWN")
	}
	return nil
}

func reportInfeasible(err error) error {
	if sat.IsKind(err, sat.ErrRootUnsat) {
		fmt.Println("UNSAT")
		return nil
	}
	return err
}

func isWCNF(path string) bool {
	return len(path) >= 5 && path[len(path)-5:] == ".wcnf"
}

func printOutput(out *sat.SolverOutput) {
	switch out.Kind {
	case sat.OutcomeInfeasible:
		fmt.Println("UNSAT")
	case sat.OutcomeOptimal, sat.OutcomeFeasibleSuboptimal:
		fmt.Println("SAT")
		if out.Kind == sat.OutcomeOptimal {
			fmt.Println("OPTIMAL")
		}
		fmt.Printf("o %d\n", out.Costs[0])
	default:
		fmt.Println("UNKNOWN")
	}
}

func printModel(trail *sat.Trail, pool *sat.VarPool) {
	for v := 2; v < pool.Len(); v++ {
		lit := sat.MkLit(sat.Var(v), false)
		if v > 2 {
			fmt.Print(" ")
		}
		if trail.ValueOf(lit) == sat.False {
			fmt.Print(-v)
		} else {
			fmt.Print(v)
		}
	}
	fmt.Println()
}

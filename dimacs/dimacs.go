// Package dimacs reads the DIMACS CNF and WCNF text formats used to
// exchange SAT and Weighted Partial MaxSAT instances (spec.md §10, A2).
// It has no dependency on package sat: it parses into plain integers, and
// sat.LoadCNF/sat.LoadWCNF (see sat/dimacsload.go) turn those into a
// Propagator's clauses and a LinearFunction objective.
package dimacs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Clause is a CNF clause in DIMACS convention: positive int n means the
// literal for variable n, negative int -n means its negation. Never
// contains 0 (the clause terminator is consumed by the parser).
type Clause []int

// CNF is a parsed unweighted CNF instance.
type CNF struct {
	NumVars int
	Clauses []Clause
}

// WCNF is a parsed Weighted Partial MaxSAT instance: hard clauses must be
// satisfied, each soft clause costs its weight if left unsatisfied.
type WCNF struct {
	NumVars     int
	HardClauses []Clause
	SoftClauses []Clause
	SoftWeights []int64
}

// ReadCNF parses a DIMACS CNF stream. Following the same convenience
// rules a DIMACS parser in the wild tends to accept: comment lines may
// appear anywhere, and the problem line is optional.
func ReadCNF(r io.Reader) (*CNF, error) {
	clauses, nVars, err := scanDIMACS(r, false, 0)
	if err != nil {
		return nil, errors.Wrap(err, "dimacs: parse CNF")
	}
	out := &CNF{NumVars: nVars}
	for _, c := range clauses {
		out.Clauses = append(out.Clauses, c.lits)
	}
	return out, nil
}

// ReadWCNF parses a DIMACS WCNF stream, supporting both the classic
// format (problem line `p wcnf nvars nclauses top`, each clause line
// prefixed by its weight, weight == top marks a hard clause) and the
// newer format (each clause line prefixed by `h` for hard or an explicit
// positive weight for soft).
func ReadWCNF(r io.Reader) (*WCNF, error) {
	clauses, nVars, err := scanDIMACS(r, true, 0)
	if err != nil {
		return nil, errors.Wrap(err, "dimacs: parse WCNF")
	}
	out := &WCNF{NumVars: nVars}
	for _, c := range clauses {
		if c.hard {
			out.HardClauses = append(out.HardClauses, c.lits)
		} else {
			out.SoftClauses = append(out.SoftClauses, c.lits)
			out.SoftWeights = append(out.SoftWeights, c.weight)
		}
	}
	return out, nil
}

type parsedClause struct {
	lits   Clause
	weight int64
	hard   bool
}

func scanDIMACS(r io.Reader, weighted bool, _ int64) ([]parsedClause, int, error) {
	var (
		numVars    int
		numClauses int
		topWeight  int64 = -1
		haveHeader bool
		clauses    []parsedClause
	)

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || line[0] == 'c' {
			continue
		}
		if line == "%" {
			break
		}
		if line[0] == 'p' {
			if haveHeader {
				return nil, 0, errors.New("multiple problem lines")
			}
			fields := strings.Fields(line)
			if weighted {
				if len(fields) < 4 {
					return nil, 0, errors.Errorf("malformed wcnf problem line %q", line)
				}
				if fields[1] != "wcnf" {
					return nil, 0, errors.Errorf("expected wcnf format, got %q", fields[1])
				}
				var err error
				numVars, err = strconv.Atoi(fields[2])
				if err != nil {
					return nil, 0, errors.Wrap(err, "malformed #vars")
				}
				numClauses, err = strconv.Atoi(fields[3])
				if err != nil {
					return nil, 0, errors.Wrap(err, "malformed #clauses")
				}
				if len(fields) >= 5 {
					topWeight, err = strconv.ParseInt(fields[4], 10, 64)
					if err != nil {
						return nil, 0, errors.Wrap(err, "malformed top weight")
					}
				}
			} else {
				if len(fields) != 4 {
					return nil, 0, errors.Errorf("malformed cnf problem line %q", line)
				}
				if fields[1] != "cnf" {
					return nil, 0, errors.Errorf("expected cnf format, got %q", fields[1])
				}
				var err error
				numVars, err = strconv.Atoi(fields[2])
				if err != nil {
					return nil, 0, errors.Wrap(err, "malformed #vars")
				}
				numClauses, err = strconv.Atoi(fields[3])
				if err != nil {
					return nil, 0, errors.Wrap(err, "malformed #clauses")
				}
			}
			haveHeader = true
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pc := parsedClause{weight: 1}
		start := 0
		if weighted {
			if fields[0] == "h" {
				pc.hard = true
				start = 1
			} else {
				w, err := strconv.ParseInt(fields[0], 10, 64)
				if err != nil {
					return nil, 0, errors.Wrapf(err, "malformed clause weight %q", fields[0])
				}
				pc.weight = w
				pc.hard = topWeight >= 0 && w == topWeight
				start = 1
			}
		}
		for _, f := range fields[start:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "invalid literal %q", f)
			}
			if n == 0 {
				break
			}
			pc.lits = append(pc.lits, n)
		}
		clauses = append(clauses, pc)
	}
	if err := s.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "scanning input")
	}

	if haveHeader && len(clauses) != numClauses {
		return nil, 0, errors.Errorf("problem line specifies %d clauses, found %d", numClauses, len(clauses))
	}
	if haveHeader {
		for _, c := range clauses {
			for _, lit := range c.lits {
				v := lit
				if v < 0 {
					v = -v
				}
				if v > numVars {
					return nil, 0, errors.Errorf("variable %d exceeds declared #vars %d", v, numVars)
				}
			}
		}
	} else {
		numVars = maxVar(clauses)
	}
	return clauses, numVars, nil
}

func maxVar(clauses []parsedClause) int {
	m := 0
	for _, c := range clauses {
		for _, lit := range c.lits {
			v := lit
			if v < 0 {
				v = -v
			}
			if v > m {
				m = v
			}
		}
	}
	return m
}

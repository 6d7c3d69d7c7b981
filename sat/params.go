package sat

import "fmt"

// ParamKind is the type of value a ParamSpec accepts.
type ParamKind int

const (
	ParamInt ParamKind = iota
	ParamFloat
	ParamBool
	ParamEnum
)

// ParamSpec describes one tunable solver parameter: its type, bounds, and
// default, the way a spf13/pflag.Flag describes a CLI flag (spec.md §10,
// A1). The registry is the single source of truth both the CLI (cobra
// flags bound to it) and a library caller (constructing one
// programmatically) go through.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Description string
	Default     interface{}
	Min, Max    float64 // inclusive bounds for ParamInt/ParamFloat; ignored otherwise
	EnumValues  []string
}

// ParamRegistry holds a fixed set of parameter specs plus the current
// value for each, validating every Set call against the spec's bounds
// immediately rather than deferring validation to solve time.
type ParamRegistry struct {
	specs  map[string]ParamSpec
	values map[string]interface{}
	order  []string // registration order, for stable iteration/help text
}

// NewParamRegistry creates an empty registry.
func NewParamRegistry() *ParamRegistry {
	return &ParamRegistry{specs: make(map[string]ParamSpec), values: make(map[string]interface{})}
}

// Register adds a parameter spec and seeds its value with the default.
// Panics on a duplicate name: that's a programming error in the engine's
// own setup, not a runtime condition a caller can hit.
func (r *ParamRegistry) Register(spec ParamSpec) {
	if _, exists := r.specs[spec.Name]; exists {
		panic(fmt.Sprintf("sat: duplicate parameter %q", spec.Name))
	}
	r.specs[spec.Name] = spec
	r.values[spec.Name] = spec.Default
	r.order = append(r.order, spec.Name)
}

// Names returns every registered parameter name in registration order.
func (r *ParamRegistry) Names() []string { return append([]string(nil), r.order...) }

// Spec returns the spec for name, or false if it isn't registered.
func (r *ParamRegistry) Spec(name string) (ParamSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

func (r *ParamRegistry) mustSpec(op, name string) (ParamSpec, error) {
	s, ok := r.specs[name]
	if !ok {
		return ParamSpec{}, NewError(ErrInvalidOption, op, fmt.Sprintf("unknown parameter %q", name))
	}
	return s, nil
}

// SetInt sets an integer parameter, rejecting values outside [Min, Max].
func (r *ParamRegistry) SetInt(name string, v int64) error {
	spec, err := r.mustSpec("ParamRegistry.SetInt", name)
	if err != nil {
		return err
	}
	if spec.Kind != ParamInt {
		return NewError(ErrInvalidOption, "ParamRegistry.SetInt", fmt.Sprintf("%q is not an int parameter", name))
	}
	if float64(v) < spec.Min || float64(v) > spec.Max {
		return NewError(ErrInvalidOption, "ParamRegistry.SetInt", fmt.Sprintf("%q=%d out of range [%v, %v]", name, v, spec.Min, spec.Max))
	}
	r.values[name] = v
	return nil
}

// GetInt returns an integer parameter's current value.
func (r *ParamRegistry) GetInt(name string) int64 { return r.values[name].(int64) }

// SetFloat sets a floating-point parameter, rejecting values outside
// [Min, Max].
func (r *ParamRegistry) SetFloat(name string, v float64) error {
	spec, err := r.mustSpec("ParamRegistry.SetFloat", name)
	if err != nil {
		return err
	}
	if spec.Kind != ParamFloat {
		return NewError(ErrInvalidOption, "ParamRegistry.SetFloat", fmt.Sprintf("%q is not a float parameter", name))
	}
	if v < spec.Min || v > spec.Max {
		return NewError(ErrInvalidOption, "ParamRegistry.SetFloat", fmt.Sprintf("%q=%v out of range [%v, %v]", name, v, spec.Min, spec.Max))
	}
	r.values[name] = v
	return nil
}

// GetFloat returns a float parameter's current value.
func (r *ParamRegistry) GetFloat(name string) float64 { return r.values[name].(float64) }

// SetBool sets a boolean parameter.
func (r *ParamRegistry) SetBool(name string, v bool) error {
	spec, err := r.mustSpec("ParamRegistry.SetBool", name)
	if err != nil {
		return err
	}
	if spec.Kind != ParamBool {
		return NewError(ErrInvalidOption, "ParamRegistry.SetBool", fmt.Sprintf("%q is not a bool parameter", name))
	}
	r.values[name] = v
	return nil
}

// GetBool returns a bool parameter's current value.
func (r *ParamRegistry) GetBool(name string) bool { return r.values[name].(bool) }

// SetEnum sets an enum parameter, rejecting values outside spec.EnumValues.
func (r *ParamRegistry) SetEnum(name, v string) error {
	spec, err := r.mustSpec("ParamRegistry.SetEnum", name)
	if err != nil {
		return err
	}
	if spec.Kind != ParamEnum {
		return NewError(ErrInvalidOption, "ParamRegistry.SetEnum", fmt.Sprintf("%q is not an enum parameter", name))
	}
	valid := false
	for _, allowed := range spec.EnumValues {
		if allowed == v {
			valid = true
			break
		}
	}
	if !valid {
		return NewError(ErrInvalidOption, "ParamRegistry.SetEnum", fmt.Sprintf("%q=%q not in %v", name, v, spec.EnumValues))
	}
	r.values[name] = v
	return nil
}

// GetEnum returns an enum parameter's current value.
func (r *ParamRegistry) GetEnum(name string) string { return r.values[name].(string) }

// Validate re-checks every stored value against its spec's bounds, in
// case it was poked directly rather than through a SetX method.
func (r *ParamRegistry) Validate() error {
	for name, spec := range r.specs {
		v := r.values[name]
		switch spec.Kind {
		case ParamInt:
			if iv, ok := v.(int64); ok && (float64(iv) < spec.Min || float64(iv) > spec.Max) {
				return NewError(ErrInvalidOption, "ParamRegistry.Validate", fmt.Sprintf("%q=%d out of range", name, iv))
			}
		case ParamFloat:
			if fv, ok := v.(float64); ok && (fv < spec.Min || fv > spec.Max) {
				return NewError(ErrInvalidOption, "ParamRegistry.Validate", fmt.Sprintf("%q=%v out of range", name, fv))
			}
		}
	}
	return nil
}

// DefaultParamRegistry constructs the registry with every parameter the
// optimiser driver and its components read, matching spec.md §6's
// parameter table by name. A handful of table entries have no solver
// hook to bind to and are registered anyway (so GetX/SetX work) but are
// not read by any component; DESIGN.md lists each such case.
func DefaultParamRegistry() *ParamRegistry {
	r := NewParamRegistry()

	// Global budget (spec.md §6). cmd/maxsatcli takes its wall-clock
	// budget from its --deadline flag and passes one context to both the
	// linear and core-guided phases; deadline-seconds, time and
	// time-core-guided are accepted and validated but not read.
	r.Register(ParamSpec{Name: "deadline-seconds", Kind: ParamFloat, Default: 0.0, Min: 0, Max: 1e9, Description: "wall-clock solve budget; 0 means unbounded"})
	r.Register(ParamSpec{Name: "time", Kind: ParamFloat, Default: 0.0, Min: 0, Max: 1e9, Description: "alias of deadline-seconds for the linear upper-bound phase"})
	r.Register(ParamSpec{Name: "time-core-guided", Kind: ParamFloat, Default: 0.0, Min: 0, Max: 1e9, Description: "seconds of the global budget reserved for core-guided search"})

	// Variable ordering and VSIDS.
	r.Register(ParamSpec{Name: "seed", Kind: ParamInt, Default: int64(-1), Min: -1, Max: 1 << 31, Description: "-1 keeps index order; >=0 seeds a random initial VSIDS permutation"})
	r.Register(ParamSpec{Name: "bump-decision-variables", Kind: ParamBool, Default: true, Description: "additionally bump variables chosen as decisions, not only conflict-side ones"})
	r.Register(ParamSpec{Name: "decay-factor-variables", Kind: ParamFloat, Default: 0.95, Min: 0, Max: 1, Description: "VSIDS activity decay"})
	r.Register(ParamSpec{Name: "decay-factor-learned-clause", Kind: ParamFloat, Default: 0.999, Min: 0, Max: 1, Description: "learned-clause activity decay"})
	r.Register(ParamSpec{Name: "value-selection", Kind: ParamEnum, Default: "phase-saving", EnumValues: []string{"phase-saving", "solution-guided-search", "optimistic", "optimistic-aux"}, Description: "decision literal sign policy"})

	// Restarts.
	r.Register(ParamSpec{Name: "restart-strategy", Kind: ParamEnum, Default: "glucose", EnumValues: []string{"constant", "luby", "glucose"}, Description: "restart policy"})
	r.Register(ParamSpec{Name: "restart-multiplication-coefficient", Kind: ParamInt, Default: int64(100), Min: 1, Max: 1 << 30, Description: "base restart interval: conflicts between restarts under constant, or the Luby unit multiplier"})
	r.Register(ParamSpec{Name: "glucose-queue-lbd-limit", Kind: ParamInt, Default: int64(50), Min: 0, Max: 1 << 20, Description: "glucose short-window LBD queue length"})
	r.Register(ParamSpec{Name: "glucose-queue-reset-limit", Kind: ParamInt, Default: int64(5000), Min: 0, Max: 1 << 30, Description: "trail growth that resets the glucose short-window average"})
	r.Register(ParamSpec{Name: "num-min-conflicts-per-restart", Kind: ParamInt, Default: int64(100), Min: 0, Max: 1 << 30, Description: "minimum conflicts before a glucose restart is allowed to fire again"})

	// Clause database / memory.
	r.Register(ParamSpec{Name: "lbd-threshold", Kind: ParamInt, Default: int64(2), Min: 0, Max: 1 << 20, Description: "learned clauses at or below this LBD are kept forever"})
	r.Register(ParamSpec{Name: "limit-num-temporary-clauses", Kind: ParamInt, Default: int64(20000), Min: 1, Max: 1 << 30, Description: "size of the temporary learned-clause pool before eviction"})
	r.Register(ParamSpec{Name: "lbd-sorting-temporary-clauses", Kind: ParamBool, Default: true, Description: "evict the temporary pool by LBD instead of by activity"})
	r.Register(ParamSpec{Name: "clause-minimisation", Kind: ParamBool, Default: true, Description: "recursive self-subsumption clause minimisation"})
	r.Register(ParamSpec{Name: "garbage-tolerance-factor", Kind: ParamFloat, Default: 0.2, Min: 0, Max: 1, Description: "dead literal fraction that triggers arena compaction"})

	// Preprocessing (spec.md §4.8).
	r.Register(ParamSpec{Name: "preprocess-equivalent-literals", Kind: ParamBool, Default: true, Description: "merge strongly-connected-component equivalent literals"})

	// Linear upper-bound search (spec.md §4.5, §4.9).
	r.Register(ParamSpec{Name: "optimistic-initial-solution", Kind: ParamBool, Default: true, Description: "try the cost-free-polarity assumption solve before the main search (spec.md §4.9 step 3)"})
	r.Register(ParamSpec{Name: "lexicographical", Kind: ParamBool, Default: false, Description: "partition the objective into weight strata and solve highest-weight-first (spec.md §4.9 steps 6-7)"})
	// varying-resolution reorders which weight a counter/GTE-based UB
	// search tightens against first; this driver always tightens the
	// single combined bound returned by BestCost, so there is no
	// per-weight ordering to vary (see DESIGN.md).
	r.Register(ParamSpec{Name: "varying-resolution", Kind: ParamEnum, Default: "off", EnumValues: []string{"off", "basic", "ratio"}, Description: "UB-search weight prioritisation schedule"})
	r.Register(ParamSpec{Name: "ub-propagator", Kind: ParamBool, Default: true, Description: "use a dedicated CounterPropagator for unweighted objectives instead of a cardinality network"})
	r.Register(ParamSpec{Name: "ub-propagator-bump", Kind: ParamBool, Default: true, Description: "bump VSIDS activity for literals the counter propagator forces"})

	// Core-guided lower-bound search (spec.md §4.7).
	r.Register(ParamSpec{Name: "stratification", Kind: ParamEnum, Default: "basic", EnumValues: []string{"off", "basic", "ratio"}, Description: "core-guided stratum descent schedule"})
	r.Register(ParamSpec{Name: "stratified-core-guided", Kind: ParamBool, Default: true, Description: "weight-stratify core-guided lower-bound search"})
	r.Register(ParamSpec{Name: "weight-aware-core-extraction", Kind: ParamBool, Default: false, Description: "harvest multiple disjoint cores per pass before reformulating (spec.md §4.7 step 5)"})
	// cardinality-encoding's only alternative to totaliser is a
	// cardinality-network encoder; nothing in this package builds one,
	// so the option is accepted but only "totaliser" has any effect.
	r.Register(ParamSpec{Name: "cardinality-encoding", Kind: ParamEnum, Default: "totaliser", EnumValues: []string{"totaliser", "cardinality-network"}, Description: "core-guided reformulation cardinality encoder"})

	return r
}

package gates

import (
	"fmt"

	"github.com/narrativekit/moodcheck/internal/model"
)

// DefaultDomain is the native domain assumed for axes absent from the
// registry's domain table. Mood axes live on [-1, 1].
var DefaultDomain = model.AxisInterval{Min: -1, Max: 1}

// Constraint is the derived restriction on one axis. Min/Max are kept as raw
// floats so a contradictory pair of gates (Min > Max) can be recorded
// per-axis instead of failing the whole analysis.
type Constraint struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Empty bool    `json:"empty"`
}

// Interval returns the constraint as a valid AxisInterval. The second return
// is false for an empty constraint, which has no interval form.
func (c Constraint) Interval() (model.AxisInterval, bool) {
	if c.Empty {
		return model.AxisInterval{}, false
	}
	return model.AxisInterval{Min: c.Min, Max: c.Max}, true
}

// Result is the analyzer's output: per-axis constraints plus non-fatal
// warnings for structure the engine declines to intersect.
type Result struct {
	Constraints map[string]Constraint `json:"constraints"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// Intervals returns the non-empty constraints in AxisInterval form, suitable
// for handing to the bounds calculator.
func (r Result) Intervals() map[string]model.AxisInterval {
	out := make(map[string]model.AxisInterval, len(r.Constraints))
	for axis, c := range r.Constraints {
		if iv, ok := c.Interval(); ok {
			out[axis] = iv
		}
	}
	return out
}

// EmptyAxes returns the axes whose gates contradicted each other, sorted.
func (r Result) EmptyAxes() []string {
	var out []string
	for axis, c := range r.Constraints {
		if c.Empty {
			out = append(out, axis)
		}
	}
	return model.SortedUnique(out)
}

// Analyzer walks prerequisite expressions and tightens per-axis intervals.
// Native axis domains come from the registry's static domain table.
type Analyzer struct {
	domains map[string]model.AxisInterval
}

// NewAnalyzer creates an Analyzer over the given axis domain table.
// Axes not in the table default to DefaultDomain.
func NewAnalyzer(domains map[string]model.AxisInterval) *Analyzer {
	return &Analyzer{domains: domains}
}

// Domain returns the native domain for an axis.
func (a *Analyzer) Domain(axis string) model.AxisInterval {
	if d, ok := a.domains[axis]; ok {
		return d
	}
	return DefaultDomain
}

// Analyze derives per-axis constraints from an expression tree.
// A nil expression is "no signal" and yields an empty result.
func (a *Analyzer) Analyze(expr Expr) Result {
	v := &constraintVisitor{analyzer: a, result: Result{Constraints: map[string]Constraint{}}}
	// Walk cannot fail for the sealed node set; the error path exists only
	// for foreign Expr implementations.
	if err := Walk(expr, v); err != nil {
		v.result.Warnings = append(v.result.Warnings, err.Error())
	}
	return v.result
}

// MergeGates tightens an existing result with a prototype's own intrinsic
// gate clauses. The prototype's gates are conjunctive with everything the
// expression already imposed, and are merged with the same rules.
func (a *Analyzer) MergeGates(r Result, clauses []model.GateClause) Result {
	merged := Result{
		Constraints: make(map[string]Constraint, len(r.Constraints)+len(clauses)),
		Warnings:    append([]string(nil), r.Warnings...),
	}
	for axis, c := range r.Constraints {
		merged.Constraints[axis] = c
	}
	for _, clause := range clauses {
		applyClause(&merged, a.Domain(clause.Axis), clause)
	}
	return merged
}

// constraintVisitor implements Visitor for the analysis pass.
type constraintVisitor struct {
	analyzer *Analyzer
	result   Result
}

func (v *constraintVisitor) VisitAnd(And) error { return nil }

func (v *constraintVisitor) VisitOr(n Or) error {
	v.result.Warnings = append(v.result.Warnings, fmt.Sprintf(
		"OR over %d operand(s) is not intersectable; axes keep their pre-OR intervals", len(n.Operands)))
	return nil
}

func (v *constraintVisitor) VisitGate(n Gate) error {
	applyClause(&v.result, v.analyzer.Domain(n.Clause.Axis), n.Clause)
	return nil
}

func (v *constraintVisitor) VisitRef(n Ref) error {
	v.result.Warnings = append(v.result.Warnings, fmt.Sprintf(
		"condition reference %q cannot be resolved here and constrains nothing", n.Name))
	return nil
}

// applyClause tightens the constraint for one axis.
// Rule: >= and > raise Min to max(Min, threshold); <= and < lower Max to
// min(Max, threshold). Strict and non-strict operators tighten identically —
// interval openness is not modeled. Min > Max marks the axis empty; an
// already-empty axis stays empty.
func applyClause(r *Result, domain model.AxisInterval, clause model.GateClause) {
	c, ok := r.Constraints[clause.Axis]
	if !ok {
		c = Constraint{Min: domain.Min, Max: domain.Max}
	}
	if c.Empty {
		return
	}
	if clause.Operator.IsLowerBound() {
		if clause.Threshold > c.Min {
			c.Min = clause.Threshold
		}
	} else {
		if clause.Threshold < c.Max {
			c.Max = clause.Threshold
		}
	}
	if c.Min > c.Max {
		c.Empty = true
	}
	r.Constraints[clause.Axis] = c
}

// Package bounds computes the reachable intensity interval of a prototype
// under per-axis box constraints.
//
// Intensity is the normalized weighted sum over axes. Because the axes are
// constrained independently, the optimum is closed-form: each axis is pushed
// to the extreme of its interval that matches the sign of its weight. No
// general linear programming is involved.
package bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/narrativekit/moodcheck/internal/model"
)

// ErrEmptyInterval is returned when a prototype's intrinsic gates contradict
// the supplied constraints on some axis: the feasible set is empty, so no
// intensity is reachable.
var ErrEmptyInterval = errors.New("bounds: empty feasible interval")

// Registry is the capability the calculator needs from the prototype
// registry: prototype lookup by domain and the static axis domain table.
type Registry interface {
	// Prototype returns the prototype for a domain ("emotion" or "sexual").
	// Unknown domain or id is an error.
	Prototype(domain, id string) (model.Prototype, error)
	// AxisDomain returns the native domain of an axis.
	AxisDomain(axis string) model.AxisInterval
}

// Calculator computes reachable intensity intervals.
type Calculator struct {
	reg Registry
}

// NewCalculator creates a Calculator over the given registry.
func NewCalculator(reg Registry) *Calculator {
	return &Calculator{reg: reg}
}

// Bounds returns the achievable intensity interval for a prototype.
//
// constraints restricts axes beyond their native domains; nil or missing
// axes default to the full native domain, so a nil map yields theoretical
// global bounds. The prototype's own intrinsic gates are intersected with
// the constraints before optimization.
//
// Unknown prototype or domain returns the registry's not-found error.
// An axis whose effective interval is empty returns ErrEmptyInterval.
func (c *Calculator) Bounds(domain, prototypeID string, constraints map[string]model.AxisInterval) (model.AxisInterval, error) {
	proto, err := c.reg.Prototype(domain, prototypeID)
	if err != nil {
		return model.AxisInterval{}, err
	}

	var minRaw, maxRaw, sumAbs float64
	for axis, w := range proto.Weights {
		if w == 0 {
			continue
		}
		iv, err := c.effectiveInterval(axis, proto, constraints)
		if err != nil {
			return model.AxisInterval{}, err
		}
		// Maximizing w·x picks the high end for positive weights and the
		// low end for negative ones; minimizing picks the opposite.
		if w >= 0 {
			maxRaw += w * iv.Max
			minRaw += w * iv.Min
		} else {
			maxRaw += w * iv.Min
			minRaw += w * iv.Max
		}
		sumAbs += math.Abs(w)
	}

	if sumAbs == 0 {
		return model.AxisInterval{}, nil
	}
	return model.AxisInterval{Min: minRaw / sumAbs, Max: maxRaw / sumAbs}, nil
}

// Evaluate returns the intensity of a prototype at one concrete axis point.
// Axes missing from point evaluate at zero. This is the direct weighted-sum
// form a fully pinned constraint set must agree with.
func (c *Calculator) Evaluate(domain, prototypeID string, point map[string]float64) (float64, error) {
	proto, err := c.reg.Prototype(domain, prototypeID)
	if err != nil {
		return 0, err
	}
	var raw, sumAbs float64
	for axis, w := range proto.Weights {
		if w == 0 {
			continue
		}
		raw += w * point[axis]
		sumAbs += math.Abs(w)
	}
	if sumAbs == 0 {
		return 0, nil
	}
	return raw / sumAbs, nil
}

// effectiveInterval intersects the caller's constraint (or the native
// domain) with the prototype's intrinsic gates on the axis.
func (c *Calculator) effectiveInterval(axis string, proto model.Prototype, constraints map[string]model.AxisInterval) (model.AxisInterval, error) {
	iv, ok := constraints[axis]
	if !ok {
		iv = c.reg.AxisDomain(axis)
	}
	lo, hi := iv.Min, iv.Max
	for _, g := range proto.Gates {
		if g.Axis != axis {
			continue
		}
		if g.Operator.IsLowerBound() {
			if g.Threshold > lo {
				lo = g.Threshold
			}
		} else {
			if g.Threshold < hi {
				hi = g.Threshold
			}
		}
	}
	if lo > hi {
		return model.AxisInterval{}, fmt.Errorf("%w: axis %q after intrinsic gates of %q", ErrEmptyInterval, axis, proto.ID)
	}
	return model.AxisInterval{Min: lo, Max: hi}, nil
}

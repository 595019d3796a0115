package bounds

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/narrativekit/moodcheck/internal/model"
)

var errFakeNotFound = errors.New("fake registry: not found")

// fakeRegistry implements Registry over an in-memory table.
type fakeRegistry struct {
	protos  map[string]model.Prototype
	domains map[string]model.AxisInterval
}

func (f *fakeRegistry) Prototype(domain, id string) (model.Prototype, error) {
	if p, ok := f.protos[id]; ok {
		return p, nil
	}
	return model.Prototype{}, fmt.Errorf("%w: %s/%s", errFakeNotFound, domain, id)
}

func (f *fakeRegistry) AxisDomain(axis string) model.AxisInterval {
	if iv, ok := f.domains[axis]; ok {
		return iv
	}
	return model.AxisInterval{Min: -1, Max: 1}
}

// dreadWeights is a mixed-sign six-axis prototype used throughout.
func dreadWeights() map[string]float64 {
	return map[string]float64{
		"threat":          0.6,
		"arousal":         0.6,
		"valence":         -0.6,
		"agency_control":  -0.2,
		"engagement":      0.4,
		"self_evaluation": -0.25,
	}
}

func newTestRegistry() *fakeRegistry {
	return &fakeRegistry{
		protos: map[string]model.Prototype{
			"dread": {ID: "dread", Weights: dreadWeights()},
			"reluctance": {
				ID:      "reluctance",
				Weights: map[string]float64{"inhibition": 0.7, "desire_phys": -0.3},
				Gates: []model.GateClause{
					{Axis: "inhibition", Operator: model.OpGTE, Threshold: 0.3},
				},
			},
			"hollow": {ID: "hollow", Weights: map[string]float64{"valence": 0}},
		},
		domains: map[string]model.AxisInterval{
			"inhibition":  {Min: 0, Max: 1},
			"desire_phys": {Min: 0, Max: 1},
		},
	}
}

const eps = 1e-9

func TestBounds_UnconstrainedReachesFullIntensity(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	iv, err := c.Bounds("emotion", "dread", nil)
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	// Every axis free on [-1, 1]: each weight can be fully satisfied, so the
	// normalized maximum is exactly 1 and the minimum exactly -1.
	if math.Abs(iv.Max-1.0) > eps {
		t.Errorf("max = %g, want 1.0", iv.Max)
	}
	if math.Abs(iv.Min-(-1.0)) > eps {
		t.Errorf("min = %g, want -1.0", iv.Min)
	}
}

func TestBounds_MinNeverExceedsMax(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	constraintSets := []map[string]model.AxisInterval{
		nil,
		{"threat": {Min: 0, Max: 0.5}},
		{"valence": {Min: -0.2, Max: 0.8}, "arousal": {Min: 0.1, Max: 0.1}},
		{
			"threat":          {Min: -1, Max: -0.5},
			"arousal":         {Min: 0.9, Max: 1},
			"valence":         {Min: 0, Max: 0},
			"agency_control":  {Min: -0.3, Max: 0.3},
			"engagement":      {Min: 0.5, Max: 0.6},
			"self_evaluation": {Min: -1, Max: 1},
		},
	}
	for i, constraints := range constraintSets {
		iv, err := c.Bounds("emotion", "dread", constraints)
		if err != nil {
			t.Fatalf("set %d: Bounds error: %v", i, err)
		}
		if iv.Min > iv.Max {
			t.Errorf("set %d: min %g > max %g", i, iv.Min, iv.Max)
		}
	}
}

func TestBounds_FullyPinnedMatchesEvaluate(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	point := map[string]float64{
		"threat":          0.7,
		"arousal":         0.4,
		"valence":         -0.3,
		"agency_control":  0.1,
		"engagement":      0.5,
		"self_evaluation": -0.6,
	}
	constraints := make(map[string]model.AxisInterval, len(point))
	for axis, v := range point {
		constraints[axis] = model.AxisInterval{Min: v, Max: v}
	}

	iv, err := c.Bounds("emotion", "dread", constraints)
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	if !iv.IsDegenerate() && math.Abs(iv.Max-iv.Min) > eps {
		t.Errorf("fully pinned constraints should collapse the interval, got [%g, %g]", iv.Min, iv.Max)
	}

	direct, err := c.Evaluate("emotion", "dread", point)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if math.Abs(iv.Min-direct) > eps {
		t.Errorf("pinned bounds %g disagree with direct evaluation %g", iv.Min, direct)
	}
}

func TestBounds_ConstraintLowersAchievableMax(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	// Cap threat at 0: 0.6 of weight mass can no longer contribute fully.
	iv, err := c.Bounds("emotion", "dread", map[string]model.AxisInterval{
		"threat": {Min: -1, Max: 0},
	})
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	// maxRaw loses threat's 0.6 contribution entirely: (2.65 - 0.6) / 2.65.
	want := 2.05 / 2.65
	if math.Abs(iv.Max-want) > eps {
		t.Errorf("max = %g, want %g", iv.Max, want)
	}
}

func TestBounds_IntrinsicGatesIntersectConstraints(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	// reluctance carries inhibition >= 0.3; constraining inhibition to
	// [0, 0.5] leaves [0.3, 0.5] effective.
	iv, err := c.Bounds("sexual", "reluctance", map[string]model.AxisInterval{
		"inhibition":  {Min: 0, Max: 0.5},
		"desire_phys": {Min: 0, Max: 0},
	})
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	// weights: inhibition 0.7, desire_phys -0.3; sumAbs = 1.
	wantMax := 0.7 * 0.5
	wantMin := 0.7 * 0.3
	if math.Abs(iv.Max-wantMax) > eps || math.Abs(iv.Min-wantMin) > eps {
		t.Errorf("bounds = [%g, %g], want [%g, %g]", iv.Min, iv.Max, wantMin, wantMax)
	}
}

func TestBounds_EmptyFeasibleIntervalIsSentinel(t *testing.T) {
	c := NewCalculator(newTestRegistry())

	// Constraint [0, 0.2] contradicts reluctance's inhibition >= 0.3 gate.
	_, err := c.Bounds("sexual", "reluctance", map[string]model.AxisInterval{
		"inhibition": {Min: 0, Max: 0.2},
	})
	if !errors.Is(err, ErrEmptyInterval) {
		t.Errorf("expected ErrEmptyInterval, got %v", err)
	}
}

func TestBounds_UnknownPrototypePropagatesLookupError(t *testing.T) {
	c := NewCalculator(newTestRegistry())
	_, err := c.Bounds("emotion", "nope", nil)
	if !errors.Is(err, errFakeNotFound) {
		t.Errorf("expected registry lookup error, got %v", err)
	}
}

func TestBounds_AllZeroWeights(t *testing.T) {
	c := NewCalculator(newTestRegistry())
	iv, err := c.Bounds("emotion", "hollow", nil)
	if err != nil {
		t.Fatalf("Bounds error: %v", err)
	}
	if iv.Min != 0 || iv.Max != 0 {
		t.Errorf("zero-weight prototype bounds = [%g, %g], want [0, 0]", iv.Min, iv.Max)
	}
}

func TestEvaluate_MissingAxesCountAsZero(t *testing.T) {
	c := NewCalculator(newTestRegistry())
	got, err := c.Evaluate("emotion", "dread", map[string]float64{"threat": 1})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	want := 0.6 / 2.65
	if math.Abs(got-want) > eps {
		t.Errorf("Evaluate = %g, want %g", got, want)
	}
}

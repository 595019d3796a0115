package conflict

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/narrativekit/moodcheck/internal/model"
)

func leaderboard(scores ...float64) *model.PrototypeFitResult {
	fit := &model.PrototypeFitResult{}
	for i, s := range scores {
		fit.Leaderboard = append(fit.Leaderboard, model.FitLeaderboardEntry{
			PrototypeID:    []string{"dread", "joy", "rage", "grief"}[i%4],
			CompositeScore: s,
			Rank:           i + 1,
		})
	}
	return fit
}

func impossibleClause(id, varPath string, threshold, maxValue float64) model.FeasibilityClauseResult {
	return model.FeasibilityClauseResult{
		ClauseID:       id,
		VarPath:        varPath,
		Operator:       model.OpGTE,
		Threshold:      threshold,
		Signal:         model.SignalFinal,
		MaxValue:       maxValue,
		Classification: model.ClassImpossible,
	}
}

// --- Rule 1: fit vs impossible clause ---

func TestDetect_FitVsImpossible_Fires(t *testing.T) {
	d := NewDetector(nil)
	fit := leaderboard(0.41, 0.35, 0.12)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.612),
	}

	conflicts := d.Detect(fit, feas, nil)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != model.ConflictFitVsClauseImpossible {
		t.Errorf("type = %s", c.Type)
	}
	if len(c.ImpossibleClauseIDs) != 1 || c.ImpossibleClauseIDs[0] != "c1" {
		t.Errorf("clause ids = %v", c.ImpossibleClauseIDs)
	}
	if len(c.TopPrototypes) != 3 {
		t.Errorf("top prototypes = %v, want 3 entries", c.TopPrototypes)
	}
	if !strings.Contains(c.Explanation, "dread") ||
		!strings.Contains(c.Explanation, "emotions.dread.intensity") {
		t.Errorf("explanation should name prototypes and clause paths: %q", c.Explanation)
	}
}

func TestDetect_FitVsImpossible_BoundaryInclusive(t *testing.T) {
	d := NewDetector(nil)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.6),
	}

	// Exactly at the floor: fires.
	if got := d.Detect(leaderboard(0.30), feas, nil); len(got) != 1 {
		t.Errorf("score exactly at the floor should fire, got %d conflicts", len(got))
	}
	// Just below: never.
	if got := d.Detect(leaderboard(0.299), feas, nil); len(got) != 0 {
		t.Errorf("score below the floor should not fire, got %d conflicts", len(got))
	}
}

func TestDetect_FitVsImpossible_RequiresImpossible(t *testing.T) {
	d := NewDetector(nil)
	feas := []model.FeasibilityClauseResult{
		{ClauseID: "c1", VarPath: "emotions.joy.intensity", Classification: model.ClassRare},
		{ClauseID: "c2", VarPath: "emotions.joy.intensity", Classification: model.ClassUnknown},
		{ClauseID: "c3", VarPath: "emotions.joy.intensity", Classification: model.ClassOK},
	}
	if got := d.Detect(leaderboard(0.9), feas, nil); len(got) != 0 {
		t.Errorf("RARE/UNKNOWN/OK must not trigger the rule, got %d conflicts", len(got))
	}
}

func TestDetect_NilFitDisarmsRuleOne(t *testing.T) {
	d := NewDetector(nil)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.6),
	}
	if got := d.Detect(nil, feas, nil); len(got) != 0 {
		t.Errorf("nil fit result should disarm rule 1, got %d conflicts", len(got))
	}
	if got := d.Detect(&model.PrototypeFitResult{}, feas, nil); len(got) != 0 {
		t.Errorf("empty leaderboard should disarm rule 1, got %d conflicts", len(got))
	}
}

func TestSetMinCompositeScore_Overrides(t *testing.T) {
	d := NewDetector(nil)
	d.SetMinCompositeScore(0.5)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.6),
	}
	if got := d.Detect(leaderboard(0.41), feas, nil); len(got) != 0 {
		t.Errorf("raised floor should suppress the conflict, got %d", len(got))
	}
	if got := d.Detect(leaderboard(0.5), feas, nil); len(got) != 1 {
		t.Errorf("score at the raised floor should fire, got %d", len(got))
	}
}

// --- Suggested fixes ---

func TestDetect_FixOrderAndDedup(t *testing.T) {
	d := NewDetector(nil)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.612),
		{
			ClauseID:       "c2",
			VarPath:        "emotions.dread.arousal_level",
			Operator:       model.OpGTE,
			Threshold:      0.9,
			Signal:         model.SignalDelta,
			MaxValue:       0.3,
			Classification: model.ClassImpossible,
		},
	}

	conflicts := d.Detect(leaderboard(0.41), feas, nil)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	fixes := conflicts[0].SuggestedFixes
	if len(fixes) < 1 || len(fixes) > MaxSuggestedFixes {
		t.Fatalf("fix count %d outside [1, %d]", len(fixes), MaxSuggestedFixes)
	}

	// Threshold fixes come first, one per clause, citing exact numbers.
	if !strings.Contains(fixes[0], "0.8") || !strings.Contains(fixes[0], "0.612") {
		t.Errorf("first fix should cite threshold and achievable max: %q", fixes[0])
	}
	// Both clauses name dread, so exactly one refine fix appears.
	refines := 0
	for _, f := range fixes {
		if strings.Contains(f, "Refine the dread prototype") {
			refines++
		}
	}
	if refines != 1 {
		t.Errorf("expected exactly 1 refine fix for dread, got %d: %v", refines, fixes)
	}
	// The delta clause yields a final-signal fix.
	foundDelta := false
	for _, f := range fixes {
		if strings.Contains(f, "final value") {
			foundDelta = true
		}
	}
	if !foundDelta {
		t.Errorf("expected a delta→final fix: %v", fixes)
	}
}

func TestDetect_FixesCapped(t *testing.T) {
	d := NewDetector(nil)
	var feas []model.FeasibilityClauseResult
	for _, emotion := range []string{"dread", "joy", "rage", "grief", "shame", "pride"} {
		feas = append(feas, impossibleClause(
			"c-"+emotion, "emotions."+emotion+".intensity", 0.9, 0.1))
	}

	conflicts := d.Detect(leaderboard(0.41), feas, nil)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if got := len(conflicts[0].SuggestedFixes); got != MaxSuggestedFixes {
		t.Errorf("fixes = %d, want capped at %d", got, MaxSuggestedFixes)
	}
}

// --- Rule 2: gate contradiction ---

func TestDetect_GateContradiction_PerPair(t *testing.T) {
	d := NewDetector(nil)
	alignment := &model.GateAlignmentResult{
		Contradictions: []model.GateContradiction{
			{
				EmotionID:      "rage",
				Axis:           "arousal",
				RegimeInterval: model.AxisInterval{Min: -1, Max: 0},
				GateInterval:   model.AxisInterval{Min: 0.2, Max: 1},
			},
			{
				EmotionID:      "serenity",
				Axis:           "threat",
				RegimeInterval: model.AxisInterval{Min: 0.5, Max: 1},
				GateInterval:   model.AxisInterval{Min: -1, Max: 0},
			},
		},
		HasIssues: true,
	}

	conflicts := d.Detect(nil, nil, alignment)
	if len(conflicts) != 2 {
		t.Fatalf("expected one conflict per contradiction, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != model.ConflictGateContradiction {
		t.Errorf("type = %s", c.Type)
	}
	if len(c.ImpossibleClauseIDs) != 1 || c.ImpossibleClauseIDs[0] != "gate:rage:arousal" {
		t.Errorf("synthetic clause id = %v", c.ImpossibleClauseIDs)
	}
	if len(c.SuggestedFixes) != 1 {
		t.Errorf("gate contradictions carry a single fix, got %v", c.SuggestedFixes)
	}
}

func TestDetect_GateContradiction_NeverWithoutContradictions(t *testing.T) {
	d := NewDetector(nil)
	// HasIssues set but no contradictions (tight passages only): no conflict.
	alignment := &model.GateAlignmentResult{
		TightPassages: []model.TightPassage{{EmotionID: "rage", Axis: "arousal", Width: 0.05}},
		HasIssues:     true,
	}
	if got := d.Detect(nil, nil, alignment); len(got) != 0 {
		t.Errorf("no contradictions must mean no rule-2 conflicts, got %d", len(got))
	}
	if got := d.Detect(nil, nil, nil); len(got) != 0 {
		t.Errorf("nil alignment must disarm rule 2, got %d", len(got))
	}
}

// --- Determinism ---

func TestDetect_Deterministic(t *testing.T) {
	d := NewDetector(nil)
	fit := leaderboard(0.41, 0.35)
	feas := []model.FeasibilityClauseResult{
		impossibleClause("c1", "emotions.dread.intensity", 0.8, 0.612),
		impossibleClause("c2", "emotions.joy.intensity", 0.7, 0.2),
	}
	alignment := &model.GateAlignmentResult{
		Contradictions: []model.GateContradiction{
			{EmotionID: "rage", Axis: "arousal",
				RegimeInterval: model.AxisInterval{Min: -1, Max: 0},
				GateInterval:   model.AxisInterval{Min: 0.2, Max: 1}},
		},
	}

	first := d.Detect(fit, feas, alignment)
	second := d.Detect(fit, feas, alignment)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs produced different output (-first +second):\n%s", diff)
	}
}

// Package conflict cross-references already-classified feasibility results
// with the fit leaderboard and the gate-alignment report. It performs no
// bounds math itself — it only decides whether independently produced
// signals contradict each other.
package conflict

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/narrativekit/moodcheck/internal/model"
)

const (
	// MinCompositeScore is the leaderboard score floor below which an
	// impossible clause is not newsworthy: nothing currently prefers the
	// content. The boundary is inclusive.
	MinCompositeScore = 0.30

	// MaxSuggestedFixes caps the fixes attached to one conflict.
	MaxSuggestedFixes = 5

	// topPrototypeCount is how many leaderboard rows a conflict names.
	topPrototypeCount = 3

	// emotionNamespace prefixes variable paths that belong to an emotion,
	// e.g. "emotions.dread.intensity".
	emotionNamespace = "emotions."
)

// Detector detects fit-vs-feasibility and gate-contradiction conflicts.
// It is pure: identical inputs always produce identical output.
type Detector struct {
	log      *slog.Logger
	minScore float64
}

// NewDetector creates a Detector with the standard leaderboard floor.
// A nil logger discards the debug summary.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Detector{log: logger, minScore: MinCompositeScore}
}

// SetMinCompositeScore overrides the leaderboard floor, typically from a
// project's saved config.
func (d *Detector) SetMinCompositeScore(v float64) {
	d.minScore = v
}

// Detect runs both rules and returns every conflict that fired. Missing
// top-level inputs are "no signal": a nil fit result disarms rule 1, a nil
// alignment result disarms rule 2, and the function never returns an error.
func (d *Detector) Detect(
	fit *model.PrototypeFitResult,
	feasibility []model.FeasibilityClauseResult,
	alignment *model.GateAlignmentResult,
) []model.Conflict {
	var conflicts []model.Conflict

	if c := d.fitVsImpossible(fit, feasibility); c != nil {
		conflicts = append(conflicts, *c)
	}
	if alignment != nil {
		for _, contra := range alignment.Contradictions {
			conflicts = append(conflicts, gateContradiction(contra))
		}
	}

	d.log.Debug("conflict detection complete", "conflicts", len(conflicts))
	return conflicts
}

// fitVsImpossible implements rule 1: a non-empty descending leaderboard whose
// top composite score is at least the configured floor, combined with at
// least one IMPOSSIBLE feasibility classification. RARE and UNKNOWN are
// ignored.
func (d *Detector) fitVsImpossible(fit *model.PrototypeFitResult, feasibility []model.FeasibilityClauseResult) *model.Conflict {
	if fit == nil || len(fit.Leaderboard) == 0 {
		return nil
	}
	if fit.Leaderboard[0].CompositeScore < d.minScore {
		return nil
	}

	var impossible []model.FeasibilityClauseResult
	for _, r := range feasibility {
		if r.Classification == model.ClassImpossible {
			impossible = append(impossible, r)
		}
	}
	if len(impossible) == 0 {
		return nil
	}

	// Input order is preserved for the clause ids.
	ids := make([]string, len(impossible))
	paths := make([]string, len(impossible))
	for i, r := range impossible {
		ids[i] = r.ClauseID
		paths[i] = r.VarPath
	}

	top := fit.Leaderboard
	if len(top) > topPrototypeCount {
		top = top[:topPrototypeCount]
	}
	topScores := make([]model.PrototypeScore, len(top))
	topNames := make([]string, len(top))
	for i, e := range top {
		topScores[i] = model.PrototypeScore{ID: e.PrototypeID, Score: e.CompositeScore}
		topNames[i] = e.PrototypeID
	}

	return &model.Conflict{
		Type:                model.ConflictFitVsClauseImpossible,
		ImpossibleClauseIDs: ids,
		TopPrototypes:       topScores,
		Explanation: fmt.Sprintf(
			"Fit ranking prefers %s (top score %.2f), but the following clause(s) are impossible under current constraints: %s",
			strings.Join(topNames, ", "), fit.Leaderboard[0].CompositeScore, strings.Join(paths, ", ")),
		SuggestedFixes: clauseFixes(impossible),
	}
}

// gateContradiction implements rule 2: one conflict per (emotion, axis) pair
// whose mood-regime and gate-derived intervals do not overlap.
func gateContradiction(contra model.GateContradiction) model.Conflict {
	return model.Conflict{
		Type:                model.ConflictGateContradiction,
		ImpossibleClauseIDs: []string{fmt.Sprintf("gate:%s:%s", contra.EmotionID, contra.Axis)},
		Explanation: fmt.Sprintf(
			"Gate contradiction for emotion %s on axis %s: the mood-regime interval [%g, %g] and the gate-derived interval [%g, %g] never overlap",
			contra.EmotionID, contra.Axis,
			contra.RegimeInterval.Min, contra.RegimeInterval.Max,
			contra.GateInterval.Min, contra.GateInterval.Max),
		SuggestedFixes: []string{fmt.Sprintf(
			"Adjust the axis constraints on %s so the regime and gate intervals overlap, or retarget the gate to a different axis",
			contra.Axis)},
	}
}

// clauseFixes builds the deterministic, deduplicated fix list for rule-1
// conflicts, in fixed generation order:
//
//	(a) per impossible clause, a threshold-lowering fix citing the exact
//	    threshold and the achievable max to 3 decimals;
//	(b) per emotion named by a clause path, a prototype-refinement fix
//	    (deduplicated per emotion across clauses);
//	(c) per delta-signal clause, a final-signal fix.
//
// The list is capped at MaxSuggestedFixes.
func clauseFixes(impossible []model.FeasibilityClauseResult) []string {
	var fixes []string
	seen := make(map[string]bool)
	add := func(fix string) {
		if !seen[fix] {
			seen[fix] = true
			fixes = append(fixes, fix)
		}
	}

	for _, r := range impossible {
		add(fmt.Sprintf("Lower the threshold on %s from %g toward the achievable maximum %.3f",
			r.VarPath, r.Threshold, r.MaxValue))
	}

	seenEmotion := make(map[string]bool)
	for _, r := range impossible {
		emotion, ok := emotionFromPath(r.VarPath)
		if !ok || seenEmotion[emotion] {
			continue
		}
		seenEmotion[emotion] = true
		add(fmt.Sprintf("Refine the %s prototype: its weights or gates keep this clause out of reach", emotion))
	}

	for _, r := range impossible {
		if r.Signal == model.SignalDelta {
			add(fmt.Sprintf("Threshold %s on the final value instead of the per-step delta", r.VarPath))
		}
	}

	if len(fixes) > MaxSuggestedFixes {
		fixes = fixes[:MaxSuggestedFixes]
	}
	return fixes
}

// emotionFromPath extracts the emotion id from a namespaced variable path
// such as "emotions.dread.intensity".
func emotionFromPath(varPath string) (string, bool) {
	if !strings.HasPrefix(varPath, emotionNamespace) {
		return "", false
	}
	rest := varPath[len(emotionNamespace):]
	if i := strings.IndexByte(rest, '.'); i > 0 {
		return rest[:i], true
	}
	if rest != "" {
		return rest, true
	}
	return "", false
}

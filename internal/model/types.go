// Package model defines the data model shared by the diagnostic components:
// axis intervals, gate clauses, prototypes, feasibility classifications,
// conflicts, and recommendations.
//
// Everything here is a plain immutable value. Entities are created fresh per
// diagnostic pass and never persisted by the core — the run log keeps its own
// serialized copies.
package model

import (
	"fmt"
	"sort"
)

// --- Axis intervals ---

// AxisInterval is a closed interval [Min, Max] on one axis.
// Invariant: Min <= Max. Min == Max marks a pinned (degenerate) value,
// used to validate a single concrete evidentiary sample.
type AxisInterval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewAxisInterval returns an interval after checking the Min <= Max invariant.
func NewAxisInterval(min, max float64) (AxisInterval, error) {
	if min > max {
		return AxisInterval{}, fmt.Errorf("invalid axis interval: min %g > max %g", min, max)
	}
	return AxisInterval{Min: min, Max: max}, nil
}

// IsDegenerate reports whether the interval is pinned to a single value.
func (iv AxisInterval) IsDegenerate() bool {
	return iv.Min == iv.Max
}

// Contains reports whether v lies inside the interval (boundaries inclusive).
func (iv AxisInterval) Contains(v float64) bool {
	return v >= iv.Min && v <= iv.Max
}

// Overlaps reports whether two intervals share at least one point.
func (iv AxisInterval) Overlaps(other AxisInterval) bool {
	return iv.Min <= other.Max && other.Min <= iv.Max
}

// --- Gate clauses ---

// GateOperator is an inequality operator in a gate clause.
type GateOperator string

const (
	OpGTE GateOperator = ">="
	OpGT  GateOperator = ">"
	OpLTE GateOperator = "<="
	OpLT  GateOperator = "<"
)

// validOperators is the set of allowed gate operators.
var validOperators = map[GateOperator]bool{
	OpGTE: true,
	OpGT:  true,
	OpLTE: true,
	OpLT:  true,
}

// ValidateOperator returns an error if the operator is not recognized.
func ValidateOperator(op GateOperator) error {
	if !validOperators[op] {
		return fmt.Errorf("invalid gate operator %q: must be one of: >=, >, <=, <", op)
	}
	return nil
}

// IsLowerBound reports whether the operator constrains the axis from below.
func (op GateOperator) IsLowerBound() bool {
	return op == OpGTE || op == OpGT
}

// GateClause is an inequality on one axis required for a prototype or
// expression to be active. Multiple clauses on the same axis are conjunctive
// and must be intersected.
type GateClause struct {
	Axis      string       `json:"axis"`
	Operator  GateOperator `json:"operator"`
	Threshold float64      `json:"threshold"`
}

func (c GateClause) String() string {
	return fmt.Sprintf("%s %s %g", c.Axis, c.Operator, c.Threshold)
}

// --- Prototypes ---

// Prototype is a weighted-sum model over axes representing one discrete
// emotion or state. Axes absent from Weights contribute nothing.
type Prototype struct {
	ID      string             `json:"id"`
	Weights map[string]float64 `json:"weights"`
	Gates   []GateClause       `json:"gates,omitempty"`
}

// --- Feasibility classification ---

// Classification is the verdict on whether a threshold is achievable.
type Classification string

const (
	ClassOK         Classification = "OK"
	ClassRare       Classification = "RARE"
	ClassImpossible Classification = "IMPOSSIBLE"
	ClassUnknown    Classification = "UNKNOWN"
)

// SignalKind distinguishes which sampled value a clause thresholds on.
type SignalKind string

const (
	SignalFinal SignalKind = "final"
	SignalDelta SignalKind = "delta"
)

// FeasibilityClauseResult is the sampled verdict for one prerequisite clause,
// produced by the upstream feasibility engine. The core only consumes it.
type FeasibilityClauseResult struct {
	ClauseID       string         `json:"clause_id"`
	VarPath        string         `json:"var_path"`
	Operator       GateOperator   `json:"operator"`
	Threshold      float64        `json:"threshold"`
	Signal         SignalKind     `json:"signal"`
	Population     int            `json:"population"`
	PassRate       float64        `json:"pass_rate"`
	MaxValue       float64        `json:"max_value"`
	P95Value       float64        `json:"p95_value"`
	MarginMax      float64        `json:"margin_max"`
	Classification Classification `json:"classification"`
	Evidence       string         `json:"evidence,omitempty"`
	SourcePath     string         `json:"source_path,omitempty"`
}

// --- Conflicts ---

// ConflictType identifies which detection rule produced a conflict.
type ConflictType string

const (
	ConflictFitVsClauseImpossible ConflictType = "fit_vs_clause_impossible"
	ConflictGateContradiction     ConflictType = "gate_contradiction"
)

// PrototypeScore pairs a prototype id with its composite fit score.
type PrototypeScore struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Conflict is a cross-signal contradiction between what the fit ranking
// prefers and what the feasibility or gate-alignment engines proved
// unachievable. Constructed fresh per call, never mutated.
type Conflict struct {
	Type                ConflictType     `json:"type"`
	ImpossibleClauseIDs []string         `json:"impossible_clause_ids"`
	TopPrototypes       []PrototypeScore `json:"top_prototypes,omitempty"`
	Explanation         string           `json:"explanation"`
	SuggestedFixes      []string         `json:"suggested_fixes"`
}

// --- Recommendations ---

// Priority orders recommendations for the designer.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RecommendationType classifies what kind of model change is suggested.
type RecommendationType string

const (
	RecNewAxis        RecommendationType = "NEW_AXIS"
	RecInvestigate    RecommendationType = "INVESTIGATE"
	RecRefineExisting RecommendationType = "REFINE_EXISTING"
)

// RelationshipEntry links one recommendation to another by prototype-set
// similarity.
type RelationshipEntry struct {
	ID               string   `json:"id"`
	Similarity       float64  `json:"similarity"`
	SharedPrototypes []string `json:"shared_prototypes"`
}

// RelationshipSet groups the links of a recommendation by category.
// A nil set means no relationship qualified and the field is omitted.
type RelationshipSet struct {
	PotentiallyRedundant []RelationshipEntry `json:"potentially_redundant,omitempty"`
	Overlapping          []RelationshipEntry `json:"overlapping,omitempty"`
	Complementary        []RelationshipEntry `json:"complementary,omitempty"`
}

// Empty reports whether no category holds any entry.
func (rs *RelationshipSet) Empty() bool {
	return rs == nil ||
		(len(rs.PotentiallyRedundant) == 0 && len(rs.Overlapping) == 0 && len(rs.Complementary) == 0)
}

// Recommendation is one prioritized suggestion for evolving the axis model.
// ID is content-addressed over {Type, sorted AffectedPrototypes}: identical
// type and prototype set always yield the identical id.
type Recommendation struct {
	ID                 string             `json:"id"`
	Priority           Priority           `json:"priority"`
	Type               RecommendationType `json:"type"`
	Description        string             `json:"description"`
	AffectedPrototypes []string           `json:"affected_prototypes"`
	Evidence           []string           `json:"evidence"`
	Relationships      *RelationshipSet   `json:"relationships,omitempty"`
}

// --- Upstream signal envelopes ---
//
// These are produced by external collaborators (fit ranking, gate alignment,
// PCA/residual, similarity clustering, candidate validation). The core treats
// a nil envelope as "no signal".

// FitLeaderboardEntry is one row of the fit-ranking leaderboard,
// sorted descending by CompositeScore.
type FitLeaderboardEntry struct {
	PrototypeID    string  `json:"prototype_id"`
	CompositeScore float64 `json:"composite_score"`
	Rank           int     `json:"rank"`
}

// PrototypeFitResult is the fit-ranking engine's output.
type PrototypeFitResult struct {
	Leaderboard []FitLeaderboardEntry `json:"leaderboard"`
}

// GateContradiction marks a (emotion, axis) pair whose mood-regime interval
// and gate-derived interval do not overlap.
type GateContradiction struct {
	EmotionID      string       `json:"emotion_id"`
	Axis           string       `json:"axis"`
	RegimeInterval AxisInterval `json:"regime_interval"`
	GateInterval   AxisInterval `json:"gate_interval"`
}

// TightPassage marks a (emotion, axis) pair whose feasible overlap is
// narrow but nonempty.
type TightPassage struct {
	EmotionID string  `json:"emotion_id"`
	Axis      string  `json:"axis"`
	Width     float64 `json:"width"`
}

// GateAlignmentResult is the gate-alignment engine's output.
type GateAlignmentResult struct {
	Contradictions []GateContradiction `json:"contradictions"`
	TightPassages  []TightPassage      `json:"tight_passages,omitempty"`
	HasIssues      bool                `json:"has_issues"`
}

// PCAResidualResult is the PCA/residual engine's output: how much variance
// the current axis set fails to explain, and where.
type PCAResidualResult struct {
	ResidualVarianceRatio           float64            `json:"residual_variance_ratio"`
	AdditionalSignificantComponents int                `json:"additional_significant_components"`
	TopLoadingPrototypes            []string           `json:"top_loading_prototypes"`
	ReconstructionErrors            map[string]float64 `json:"reconstruction_errors,omitempty"`
	ResidualEigenvector             map[string]float64 `json:"residual_eigenvector,omitempty"`
}

// HubSignal marks a prototype whose similarity-space neighborhood overlaps
// many others, hinting at a missing axis.
type HubSignal struct {
	HubID                string   `json:"hub_id"`
	SuggestedAxisConcept string   `json:"suggested_axis_concept,omitempty"`
	OverlapPrototypes    []string `json:"overlap_prototypes"`
}

// CoverageGap is a cluster of prototypes poorly explained by any existing axis.
type CoverageGap struct {
	ID                 string   `json:"id"`
	CentroidPrototypes []string `json:"centroid_prototypes"`
}

// CandidateVerdict is the validation outcome for a pre-proposed axis candidate.
type CandidateVerdict string

const (
	VerdictAddAxis          CandidateVerdict = "add_axis"
	VerdictRefinePrototypes CandidateVerdict = "refine_prototypes"
	VerdictInsufficientData CandidateVerdict = "insufficient_data"
)

// CandidateAxisValidation is a pre-validated axis candidate supplied by an
// external validation pass.
type CandidateAxisValidation struct {
	CandidateID        string           `json:"candidate_id"`
	Source             string           `json:"source,omitempty"`
	Verdict            CandidateVerdict `json:"verdict"`
	AffectedPrototypes []string         `json:"affected_prototypes"`
}

// --- Helpers ---

// SortedUnique returns a sorted copy of ids with duplicates and empty
// strings removed. Used wherever prototype sets become part of output.
func SortedUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

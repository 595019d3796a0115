// Package axisgap synthesizes prioritized recommendations for evolving the
// axis model: where a new axis is needed, where an existing prototype should
// be refined, and where a weak signal merits investigation.
//
// Inputs are independent upstream signals (PCA residual, hubs, coverage
// gaps, conflicts, pre-validated candidates); a nil or empty input is "no
// signal". Output is deterministic for identical inputs — recommendation
// ids are content-addressed, so re-running a pass is idempotent.
package axisgap

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/narrativekit/moodcheck/internal/model"
)

// Options carries the builder's tunable thresholds.
type Options struct {
	// ResidualVarianceThreshold is the PCA residual variance ratio at or
	// above which the PCA signal counts as triggered.
	ResidualVarianceThreshold float64
	// RequireCorroboration demands a hub or coverage-gap signal before a
	// thin, component-less PCA residual is treated as more than diffuse.
	RequireCorroboration bool
	// RedundantSimilarity is the Jaccard cut-off for potentially-redundant
	// links between same-type recommendations.
	RedundantSimilarity float64
	// OverlapSimilarity is the Jaccard cut-off below which no relationship
	// is recorded at all.
	OverlapSimilarity float64
	// WorstFitCount is how many worst-reconstructed prototypes the diffuse
	// rule names.
	WorstFitCount int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		ResidualVarianceThreshold: 0.15,
		RequireCorroboration:      true,
		RedundantSimilarity:       0.70,
		OverlapSimilarity:         0.30,
		WorstFitCount:             5,
	}
}

// PrototypeSource is an optional capability for looking up prototype weights
// when building the full evidence form on conflict recommendations. A miss
// degrades the evidence, never the recommendation.
type PrototypeSource interface {
	Weights(id string) (map[string]float64, bool)
}

// Builder generates axis-gap recommendations.
type Builder struct {
	opts   Options
	protos PrototypeSource
	log    *slog.Logger
}

// NewBuilder creates a Builder. protos may be nil; a nil logger discards the
// debug summary.
func NewBuilder(opts Options, protos PrototypeSource, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{opts: opts, protos: protos, log: logger}
}

// Generate runs the evaluation rules in order and returns the prioritized,
// deduplicated, cross-linked recommendation list. All inputs empty or nil
// yields an empty list.
func (b *Builder) Generate(
	pca *model.PCAResidualResult,
	hubs []model.HubSignal,
	gaps []model.CoverageGap,
	conflicts []model.Conflict,
	candidates []model.CandidateAxisValidation,
) []model.Recommendation {
	var recs []model.Recommendation

	// 1. Validated candidates, independent of the other signals.
	recs = append(recs, b.fromCandidates(candidates)...)

	pcaTriggered := pca != nil &&
		(pca.ResidualVarianceRatio >= b.opts.ResidualVarianceThreshold ||
			pca.AdditionalSignificantComponents > 0)
	pcaConsumed := false

	// 2. HIGH — PCA residual corroborated by at least one coverage gap.
	if pcaTriggered && len(gaps) > 0 {
		recs = append(recs, b.pcaWithGaps(pca, gaps))
		pcaConsumed = true
	}

	// 3. HIGH — hub whose neighborhood overlaps a gap's centroid set.
	for _, hub := range hubs {
		if rec, ok := b.hubWithGaps(hub, gaps); ok {
			recs = append(recs, rec)
		}
	}

	// 4. MEDIUM — single uncorroborated signals. Any gap suppresses
	// standalone-hub recommendations, and any hub suppresses standalone-gap
	// recommendations, even for unrelated pairs.
	if len(gaps) == 0 {
		for _, hub := range hubs {
			recs = append(recs, b.standaloneHub(hub))
		}
	}
	if len(hubs) == 0 {
		for _, gap := range gaps {
			recs = append(recs, b.standaloneGap(gap))
		}
	}
	diffuse := false
	if pcaTriggered && !pcaConsumed {
		diffuse = pca.AdditionalSignificantComponents == 0 &&
			pca.ResidualVarianceRatio >= b.opts.ResidualVarianceThreshold &&
			b.opts.RequireCorroboration && len(hubs) == 0 && len(gaps) == 0
		if !diffuse {
			recs = append(recs, b.standalonePCA(pca))
		}
	}

	// 5. LOW — every conflict yields a refinement recommendation.
	otherSignals := pcaTriggered || len(hubs) > 0 || len(gaps) > 0
	for _, c := range conflicts {
		recs = append(recs, b.fromConflict(c, otherSignals))
	}

	// 6. LOW — diffuse PCA residual: variance spread thin, no clean axis
	// candidate, and no corroborating signal to lean on.
	if diffuse {
		recs = append(recs, b.diffusePCA(pca))
	}

	recs = SortByPriority(recs)
	linkRelationships(recs, b.opts)

	b.log.Debug("axis-gap recommendations generated", "count", len(recs))
	return recs
}

// --- Rule implementations ---

func (b *Builder) fromCandidates(candidates []model.CandidateAxisValidation) []model.Recommendation {
	var recs []model.Recommendation
	for _, cand := range candidates {
		switch cand.Verdict {
		case model.VerdictAddAxis:
			recs = append(recs, BuildRecommendation(Spec{
				Priority:    model.PriorityHigh,
				Type:        model.RecNewAxis,
				Description: fmt.Sprintf("Add validated candidate axis %s (source: %s)", cand.CandidateID, cand.Source),
				Prototypes:  cand.AffectedPrototypes,
				Evidence: []string{
					fmt.Sprintf("Candidate %s passed validation with verdict add_axis", cand.CandidateID),
				},
			}))
		case model.VerdictRefinePrototypes:
			recs = append(recs, BuildRecommendation(Spec{
				Priority:    model.PriorityLow,
				Type:        model.RecRefineExisting,
				Description: fmt.Sprintf("Refine existing prototypes instead of adding candidate %s (source: %s)", cand.CandidateID, cand.Source),
				Prototypes:  cand.AffectedPrototypes,
				Evidence: []string{
					fmt.Sprintf("Candidate %s validation verdict: refine_prototypes", cand.CandidateID),
				},
			}))
		case model.VerdictInsufficientData:
			// Skipped: nothing actionable yet.
		}
	}
	return recs
}

func (b *Builder) pcaWithGaps(pca *model.PCAResidualResult, gaps []model.CoverageGap) model.Recommendation {
	// PCA's top-loading ids first, then each gap's centroid ids; the
	// construction step dedups and sorts.
	merged := append([]string(nil), pca.TopLoadingPrototypes...)
	gapIDs := make([]string, 0, len(gaps))
	for _, gap := range gaps {
		merged = append(merged, gap.CentroidPrototypes...)
		gapIDs = append(gapIDs, gap.ID)
	}
	return BuildRecommendation(Spec{
		Priority: model.PriorityHigh,
		Type:     model.RecNewAxis,
		Description: fmt.Sprintf(
			"Add a new axis: PCA residual structure is corroborated by %d coverage gap(s)", len(gaps)),
		Prototypes: merged,
		Evidence: []string{
			fmt.Sprintf("Residual variance ratio %.1f%%", pca.ResidualVarianceRatio*100),
			fmt.Sprintf("Additional significant components: %d", pca.AdditionalSignificantComponents),
			fmt.Sprintf("Coverage gaps: %s", strings.Join(gapIDs, ", ")),
		},
	})
}

func (b *Builder) hubWithGaps(hub model.HubSignal, gaps []model.CoverageGap) (model.Recommendation, bool) {
	overlap := make(map[string]bool, len(hub.OverlapPrototypes))
	for _, id := range hub.OverlapPrototypes {
		overlap[id] = true
	}

	merged := append([]string(nil), hub.OverlapPrototypes...)
	var matchedGaps []string
	for _, gap := range gaps {
		intersects := false
		for _, id := range gap.CentroidPrototypes {
			if overlap[id] {
				intersects = true
				break
			}
		}
		if intersects {
			matchedGaps = append(matchedGaps, gap.ID)
			merged = append(merged, gap.CentroidPrototypes...)
		}
	}
	if len(matchedGaps) == 0 {
		return model.Recommendation{}, false
	}

	return BuildRecommendation(Spec{
		Priority: model.PriorityHigh,
		Type:     model.RecNewAxis,
		Description: fmt.Sprintf(
			"Add a new axis around hub %s: suggested concept %q", hub.HubID, hub.SuggestedAxisConcept),
		Prototypes: merged,
		Evidence: []string{
			fmt.Sprintf("Hub %s overlaps %d prototype(s)", hub.HubID, len(hub.OverlapPrototypes)),
			fmt.Sprintf("Corroborating coverage gap(s): %s", strings.Join(matchedGaps, ", ")),
		},
	}), true
}

func (b *Builder) standaloneHub(hub model.HubSignal) model.Recommendation {
	protos := append([]string{hub.HubID}, hub.OverlapPrototypes...)
	return BuildRecommendation(Spec{
		Priority: model.PriorityMedium,
		Type:     model.RecInvestigate,
		Description: fmt.Sprintf(
			"Investigate hub %s (%q): its neighborhood overlaps %d prototype(s) but no coverage gap corroborates it",
			hub.HubID, hub.SuggestedAxisConcept, len(hub.OverlapPrototypes)),
		Prototypes: protos,
		Evidence: []string{
			fmt.Sprintf("Hub %s overlap set: %s", hub.HubID, strings.Join(model.SortedUnique(hub.OverlapPrototypes), ", ")),
		},
	})
}

func (b *Builder) standaloneGap(gap model.CoverageGap) model.Recommendation {
	return BuildRecommendation(Spec{
		Priority: model.PriorityMedium,
		Type:     model.RecInvestigate,
		Description: fmt.Sprintf(
			"Investigate coverage gap %s: %d prototype(s) poorly explained by the existing axes",
			gap.ID, len(gap.CentroidPrototypes)),
		Prototypes: gap.CentroidPrototypes,
		Evidence: []string{
			fmt.Sprintf("Gap %s centroid set: %s", gap.ID, strings.Join(model.SortedUnique(gap.CentroidPrototypes), ", ")),
		},
	})
}

func (b *Builder) standalonePCA(pca *model.PCAResidualResult) model.Recommendation {
	return BuildRecommendation(Spec{
		Priority: model.PriorityMedium,
		Type:     model.RecInvestigate,
		Description: fmt.Sprintf(
			"Investigate PCA residual: variance ratio %.1f%%, %d additional significant component(s)",
			pca.ResidualVarianceRatio*100, pca.AdditionalSignificantComponents),
		Prototypes: pca.TopLoadingPrototypes,
		Evidence: []string{
			fmt.Sprintf("Residual variance ratio %.1f%%", pca.ResidualVarianceRatio*100),
			fmt.Sprintf("Additional significant components: %d", pca.AdditionalSignificantComponents),
		},
	})
}

func (b *Builder) fromConflict(c model.Conflict, otherSignals bool) model.Recommendation {
	var protos []string
	for _, p := range c.TopPrototypes {
		protos = append(protos, p.ID)
	}
	for _, id := range c.ImpossibleClauseIDs {
		// Gate-contradiction conflicts name emotions through synthetic
		// "gate:<emotion>:<axis>" ids.
		if parts := strings.Split(id, ":"); len(parts) == 3 && parts[0] == "gate" {
			protos = append(protos, parts[1])
		}
	}

	return BuildRecommendation(Spec{
		Priority:    model.PriorityLow,
		Type:        model.RecRefineExisting,
		Description: fmt.Sprintf("Refine prototypes involved in a %s conflict", c.Type),
		Prototypes:  protos,
		Evidence:    b.conflictEvidence(protos, otherSignals),
	})
}

// conflictEvidence describes the weight structure of the first affected
// prototype whose weights the source can supply. When other signals
// co-fired, the 2-line simplified form (active-axis count + sign balance)
// is enough; otherwise the positive/negative axis lists are added.
func (b *Builder) conflictEvidence(protos []string, otherSignals bool) []string {
	if b.protos == nil {
		return nil
	}
	for _, id := range model.SortedUnique(protos) {
		weights, ok := b.protos.Weights(id)
		if !ok {
			continue
		}
		var positive, negative []string
		for axis, w := range weights {
			switch {
			case w > 0:
				positive = append(positive, axis)
			case w < 0:
				negative = append(negative, axis)
			}
		}
		sort.Strings(positive)
		sort.Strings(negative)

		evidence := []string{
			fmt.Sprintf("%s: %d active axes", id, len(positive)+len(negative)),
			fmt.Sprintf("Sign balance: %d positive / %d negative", len(positive), len(negative)),
		}
		if otherSignals {
			return evidence
		}
		return append(evidence,
			fmt.Sprintf("Positive axes: %s", strings.Join(positive, ", ")),
			fmt.Sprintf("Negative axes: %s", strings.Join(negative, ", ")),
		)
	}
	return nil
}

func (b *Builder) diffusePCA(pca *model.PCAResidualResult) model.Recommendation {
	return BuildRecommendation(Spec{
		Priority: model.PriorityLow,
		Type:     model.RecInvestigate,
		Description: "Investigate diffuse PCA residual: variance is spread thin across components " +
			"and the broken-stick test found no clean axis candidate",
		Prototypes: worstReconstructed(pca.ReconstructionErrors, b.opts.WorstFitCount),
		Evidence: []string{
			fmt.Sprintf("Residual variance %.1f%% meets the %.0f%% threshold",
				pca.ResidualVarianceRatio*100, b.opts.ResidualVarianceThreshold*100),
			"Additional significant components: 0 (broken-stick)",
			fmt.Sprintf("Residual eigenvector: %s", formatVector(pca.ResidualEigenvector)),
			"No corroborating hub or coverage-gap signal",
		},
	})
}

// worstReconstructed returns the n prototypes with the largest
// reconstruction error, ties broken by id for determinism.
func worstReconstructed(errors map[string]float64, n int) []string {
	ids := make([]string, 0, len(errors))
	for id := range errors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if errors[ids[i]] != errors[ids[j]] {
			return errors[ids[i]] > errors[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// formatVector renders an axis→loading map deterministically.
func formatVector(vec map[string]float64) string {
	if len(vec) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(vec))
	for k := range vec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.3f", k, vec[k])
	}
	return strings.Join(parts, ", ")
}

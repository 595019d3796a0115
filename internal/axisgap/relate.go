package axisgap

import (
	"github.com/narrativekit/moodcheck/internal/model"
)

// linkRelationships computes pairwise Jaccard similarity over affected
// prototype sets and links recommendations symmetrically:
//
//	same type, similarity >= RedundantSimilarity      → potentiallyRedundant
//	same type, OverlapSimilarity <= sim < Redundant   → overlapping
//	different type, similarity >= OverlapSimilarity   → complementary
//
// Below OverlapSimilarity no relationship is recorded, and recommendations
// with no qualifying link keep a nil Relationships field.
func linkRelationships(recs []model.Recommendation, opts Options) {
	for i := range recs {
		for j := i + 1; j < len(recs); j++ {
			sim, shared := jaccard(recs[i].AffectedPrototypes, recs[j].AffectedPrototypes)
			if sim < opts.OverlapSimilarity {
				continue
			}

			sameType := recs[i].Type == recs[j].Type
			entryFor := func(other model.Recommendation) model.RelationshipEntry {
				return model.RelationshipEntry{
					ID:               other.ID,
					Similarity:       sim,
					SharedPrototypes: shared,
				}
			}

			switch {
			case sameType && sim >= opts.RedundantSimilarity:
				attach(&recs[i]).PotentiallyRedundant = append(attach(&recs[i]).PotentiallyRedundant, entryFor(recs[j]))
				attach(&recs[j]).PotentiallyRedundant = append(attach(&recs[j]).PotentiallyRedundant, entryFor(recs[i]))
			case sameType:
				attach(&recs[i]).Overlapping = append(attach(&recs[i]).Overlapping, entryFor(recs[j]))
				attach(&recs[j]).Overlapping = append(attach(&recs[j]).Overlapping, entryFor(recs[i]))
			default:
				attach(&recs[i]).Complementary = append(attach(&recs[i]).Complementary, entryFor(recs[j]))
				attach(&recs[j]).Complementary = append(attach(&recs[j]).Complementary, entryFor(recs[i]))
			}
		}
	}
}

// attach lazily allocates the relationship set for a recommendation.
func attach(rec *model.Recommendation) *model.RelationshipSet {
	if rec.Relationships == nil {
		rec.Relationships = &model.RelationshipSet{}
	}
	return rec.Relationships
}

// jaccard returns |A∩B| / |A∪B| over two already-sorted-unique id sets,
// along with the sorted intersection. Two empty sets have similarity 0.
func jaccard(a, b []string) (float64, []string) {
	if len(a) == 0 && len(b) == 0 {
		return 0, nil
	}
	inA := make(map[string]bool, len(a))
	for _, id := range a {
		inA[id] = true
	}
	var shared []string
	for _, id := range b {
		if inA[id] {
			shared = append(shared, id)
		}
	}
	union := len(a) + len(b) - len(shared)
	if union == 0 {
		return 0, nil
	}
	return float64(len(shared)) / float64(union), model.SortedUnique(shared)
}

package axisgap

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/narrativekit/moodcheck/internal/model"
)

// idHashLen is how many hex characters of the content hash appear in an id.
const idHashLen = 12

// Spec is the raw material for one recommendation before normalization.
type Spec struct {
	Priority    model.Priority
	Type        model.RecommendationType
	Description string
	Prototypes  []string
	Evidence    []string
}

// BuildRecommendation normalizes a spec into a Recommendation: affected
// prototypes are deduplicated and sorted, empty evidence becomes the
// "Signal detected" placeholder, and the id is content-addressed over
// {type, sorted prototypes} so identical inputs always reproduce it.
func BuildRecommendation(spec Spec) model.Recommendation {
	protos := model.SortedUnique(spec.Prototypes)
	evidence := spec.Evidence
	if len(evidence) == 0 {
		evidence = []string{"Signal detected"}
	}
	return model.Recommendation{
		ID:                 ContentID(spec.Type, protos),
		Priority:           spec.Priority,
		Type:               spec.Type,
		Description:        spec.Description,
		AffectedPrototypes: protos,
		Evidence:           evidence,
	}
}

// ContentID derives the content-addressed recommendation id
// "rec_<type-slug>_<hash>" from the type and the sorted prototype set.
// Description and evidence never influence the id.
func ContentID(recType model.RecommendationType, sortedPrototypes []string) string {
	h := sha256.New()
	h.Write([]byte(recType))
	for _, id := range sortedPrototypes {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	digest := hex.EncodeToString(h.Sum(nil))[:idHashLen]
	return "rec_" + typeSlug(recType) + "_" + digest
}

func typeSlug(recType model.RecommendationType) string {
	return strings.ReplaceAll(strings.ToLower(string(recType)), "_", "-")
}

// priorityRank orders priorities for sorting; unknown values sort last.
func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityMedium:
		return 1
	case model.PriorityLow:
		return 2
	default:
		return 3
	}
}

// SortByPriority returns the list stably sorted high → medium → low, with
// unknown priorities last. Generation order is preserved within a priority.
func SortByPriority(recs []model.Recommendation) []model.Recommendation {
	out := append([]model.Recommendation(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

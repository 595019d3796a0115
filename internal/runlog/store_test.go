package runlog_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/narrativekit/moodcheck/internal/model"
	"github.com/narrativekit/moodcheck/internal/runlog"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T, maxRuns int) *runlog.Store {
	t.Helper()
	s, err := runlog.New(runlog.Config{DataDir: t.TempDir(), MaxRuns: maxRuns})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleConflicts() []model.Conflict {
	return []model.Conflict{{
		Type:                model.ConflictGateContradiction,
		ImpossibleClauseIDs: []string{"gate:rage:arousal"},
		Explanation:         "intervals never overlap",
		SuggestedFixes:      []string{"retarget the gate"},
	}}
}

func TestAddRun_GetRun_Roundtrip(t *testing.T) {
	s := newTestStore(t, 0)

	recs := []model.Recommendation{{
		ID:                 "rec_new-axis_abc123def456",
		Priority:           model.PriorityHigh,
		Type:               model.RecNewAxis,
		Description:        "add an axis",
		AffectedPrototypes: []string{"dread", "joy"},
		Evidence:           []string{"Signal detected"},
	}}

	id, err := s.AddRun(runlog.AddRunParams{
		Project:         "my-story",
		Domain:          "emotion",
		Conflicts:       sampleConflicts(),
		Recommendations: recs,
	})
	if err != nil {
		t.Fatalf("AddRun: %v", err)
	}
	if id == "" {
		t.Fatal("AddRun returned empty id")
	}

	run, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Project != "my-story" || run.Domain != "emotion" {
		t.Errorf("run metadata = %s/%s", run.Project, run.Domain)
	}
	if run.ConflictCount != 1 || run.RecommendationCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", run.ConflictCount, run.RecommendationCount)
	}
	if diff := cmp.Diff(sampleConflicts(), run.Conflicts); diff != "" {
		t.Errorf("conflicts roundtrip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(recs, run.Recommendations); diff != "" {
		t.Errorf("recommendations roundtrip (-want +got):\n%s", diff)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.GetRun("nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("GetRun on missing id: %v", err)
	}
}

func TestRecentRuns_ListsWithoutPayloads(t *testing.T) {
	s := newTestStore(t, 0)

	for i := 0; i < 3; i++ {
		if _, err := s.AddRun(runlog.AddRunParams{
			Project:   "proj",
			Domain:    "emotion",
			Conflicts: sampleConflicts(),
		}); err != nil {
			t.Fatalf("AddRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns("proj", 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Conflicts != nil || run.Recommendations != nil {
			t.Error("listing should not carry JSON payloads")
		}
		if run.ConflictCount != 1 {
			t.Errorf("conflict count = %d, want 1", run.ConflictCount)
		}
	}

	// Other projects see nothing.
	other, err := s.RecentRuns("other", 10)
	if err != nil {
		t.Fatalf("RecentRuns(other): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated project returned %d runs", len(other))
	}
}

func TestAddRun_PrunesBeyondMaxRuns(t *testing.T) {
	s := newTestStore(t, 2)

	for i := 0; i < 5; i++ {
		if _, err := s.AddRun(runlog.AddRunParams{Project: "proj", Domain: "emotion"}); err != nil {
			t.Fatalf("AddRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns("proj", 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected pruning to keep 2 runs, got %d", len(runs))
	}
}

package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- AxisInterval ---

func TestNewAxisInterval_RejectsInverted(t *testing.T) {
	if _, err := NewAxisInterval(0.5, -0.5); err == nil {
		t.Error("expected error for min > max, got nil")
	}
	if _, err := NewAxisInterval(-1, 1); err != nil {
		t.Errorf("valid interval returned error: %v", err)
	}
}

func TestAxisInterval_IsDegenerate(t *testing.T) {
	pinned := AxisInterval{Min: 0.3, Max: 0.3}
	if !pinned.IsDegenerate() {
		t.Error("pinned interval should be degenerate")
	}
	wide := AxisInterval{Min: -1, Max: 1}
	if wide.IsDegenerate() {
		t.Error("wide interval should not be degenerate")
	}
}

func TestAxisInterval_Contains(t *testing.T) {
	iv := AxisInterval{Min: -0.5, Max: 0.5}
	tests := []struct {
		v    float64
		want bool
	}{
		{-0.5, true}, // boundary inclusive
		{0.5, true},
		{0, true},
		{-0.51, false},
		{0.51, false},
	}
	for _, tt := range tests {
		if got := iv.Contains(tt.v); got != tt.want {
			t.Errorf("Contains(%g) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestAxisInterval_Overlaps(t *testing.T) {
	a := AxisInterval{Min: -1, Max: 0}
	b := AxisInterval{Min: 0, Max: 1}
	c := AxisInterval{Min: 0.2, Max: 1}

	if !a.Overlaps(b) {
		t.Error("touching intervals should overlap")
	}
	if !b.Overlaps(a) {
		t.Error("Overlaps should be symmetric")
	}
	if a.Overlaps(c) {
		t.Error("[-1,0] should not overlap [0.2,1]")
	}
}

// --- Gate operators ---

func TestValidateOperator(t *testing.T) {
	for _, op := range []GateOperator{OpGTE, OpGT, OpLTE, OpLT} {
		if err := ValidateOperator(op); err != nil {
			t.Errorf("ValidateOperator(%q) = %v, want nil", op, err)
		}
	}
	for _, op := range []GateOperator{"==", "!=", "", ">>"} {
		if err := ValidateOperator(op); err == nil {
			t.Errorf("ValidateOperator(%q) = nil, want error", op)
		}
	}
}

func TestGateOperator_IsLowerBound(t *testing.T) {
	if !OpGTE.IsLowerBound() || !OpGT.IsLowerBound() {
		t.Error(">= and > should be lower bounds")
	}
	if OpLTE.IsLowerBound() || OpLT.IsLowerBound() {
		t.Error("<= and < should not be lower bounds")
	}
}

func TestGateClause_String(t *testing.T) {
	c := GateClause{Axis: "arousal", Operator: OpGTE, Threshold: 0.2}
	if got, want := c.String(), "arousal >= 0.2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// --- RelationshipSet ---

func TestRelationshipSet_Empty_NilSafe(t *testing.T) {
	var rs *RelationshipSet
	if !rs.Empty() {
		t.Error("nil set should be empty")
	}
	rs = &RelationshipSet{}
	if !rs.Empty() {
		t.Error("zero set should be empty")
	}
	rs.Overlapping = []RelationshipEntry{{ID: "rec_x"}}
	if rs.Empty() {
		t.Error("set with an entry should not be empty")
	}
}

// --- SortedUnique ---

func TestSortedUnique(t *testing.T) {
	got := SortedUnique([]string{"dread", "", "joy", "dread", "anger"})
	want := []string{"anger", "dread", "joy"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortedUnique mismatch (-want +got):\n%s", diff)
	}
}

func TestSortedUnique_Empty(t *testing.T) {
	if got := SortedUnique(nil); len(got) != 0 {
		t.Errorf("SortedUnique(nil) = %v, want empty", got)
	}
}

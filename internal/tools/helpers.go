// Package tools implements the MCP tool handlers for the diagnostic engine.
//
// Each tool is a struct holding its dependencies (injected at construction,
// never global) and exposing a Definition for registration plus a Handle
// compatible with mcp-go's CallToolRequest signature. One file per tool.
//
// Structured inputs (signal envelopes, constraint maps, expression trees)
// arrive as JSON strings: the authoring tool's assistant composes them from
// its own engine state.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/narrativekit/moodcheck/internal/model"
)

// wireGate is the JSON form of a gate clause parameter.
type wireGate struct {
	Axis      string  `json:"axis"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

// toClauses validates and converts wire-form gate clauses.
func toClauses(wire []wireGate) ([]model.GateClause, error) {
	clauses := make([]model.GateClause, 0, len(wire))
	for _, g := range wire {
		op := model.GateOperator(g.Operator)
		if err := model.ValidateOperator(op); err != nil {
			return nil, err
		}
		if g.Axis == "" {
			return nil, fmt.Errorf("gate clause missing axis")
		}
		clauses = append(clauses, model.GateClause{Axis: g.Axis, Operator: op, Threshold: g.Threshold})
	}
	return clauses, nil
}

// decodeParam unmarshals an optional JSON string parameter into target.
// Empty input is "no signal" and leaves target untouched.
func decodeParam(raw string, target any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// parseConstraints decodes an axis→[min,max] constraint map.
func parseConstraints(raw string) (map[string]model.AxisInterval, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var wire map[string][2]float64
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("invalid constraints JSON: %w", err)
	}
	out := make(map[string]model.AxisInterval, len(wire))
	for axis, pair := range wire {
		iv, err := model.NewAxisInterval(pair[0], pair[1])
		if err != nil {
			return nil, fmt.Errorf("axis %q: %w", axis, err)
		}
		out[axis] = iv
	}
	return out, nil
}

// RenderConflicts renders conflicts as a readable report section. The check
// subcommand shares it for one-shot CLI passes.
func RenderConflicts(conflicts []model.Conflict) string {
	if len(conflicts) == 0 {
		return "No conflicts detected.\n"
	}
	var b strings.Builder
	for i, c := range conflicts {
		fmt.Fprintf(&b, "## Conflict %d: %s\n\n%s\n\n", i+1, c.Type, c.Explanation)
		if len(c.TopPrototypes) > 0 {
			b.WriteString("Top prototypes:\n")
			for _, p := range c.TopPrototypes {
				fmt.Fprintf(&b, "- %s (%.2f)\n", p.ID, p.Score)
			}
			b.WriteString("\n")
		}
		if len(c.ImpossibleClauseIDs) > 0 {
			fmt.Fprintf(&b, "Clause ids: %s\n\n", strings.Join(c.ImpossibleClauseIDs, ", "))
		}
		b.WriteString("Suggested fixes:\n")
		for _, fix := range c.SuggestedFixes {
			fmt.Fprintf(&b, "- %s\n", fix)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRecommendations renders recommendations as a readable report section.
func RenderRecommendations(recs []model.Recommendation) string {
	if len(recs) == 0 {
		return "No recommendations.\n"
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "## [%s] %s — %s\n\n%s\n\n", r.Priority, r.Type, r.ID, r.Description)
		fmt.Fprintf(&b, "Affected prototypes: %s\n\n", strings.Join(r.AffectedPrototypes, ", "))
		b.WriteString("Evidence:\n")
		for _, e := range r.Evidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		if !r.Relationships.Empty() {
			b.WriteString("\nRelated:\n")
			writeRelated(&b, "potentially redundant", r.Relationships.PotentiallyRedundant)
			writeRelated(&b, "overlapping", r.Relationships.Overlapping)
			writeRelated(&b, "complementary", r.Relationships.Complementary)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeRelated(b *strings.Builder, label string, entries []model.RelationshipEntry) {
	for _, e := range entries {
		fmt.Fprintf(b, "- %s: %s (similarity %.2f)\n", label, e.ID, e.Similarity)
	}
}

// sortedKeys returns the sorted keys of a string-keyed map.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/bounds"
	"github.com/narrativekit/moodcheck/internal/registry"
)

// IntensityBoundsTool handles the mood_intensity_bounds MCP tool.
// It computes the reachable intensity interval of a prototype.
type IntensityBoundsTool struct {
	calc *bounds.Calculator
}

// NewIntensityBoundsTool creates an IntensityBoundsTool over the calculator.
func NewIntensityBoundsTool(calc *bounds.Calculator) *IntensityBoundsTool {
	return &IntensityBoundsTool{calc: calc}
}

// Definition returns the MCP tool definition for registration.
func (t *IntensityBoundsTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_intensity_bounds",
		mcp.WithDescription(
			"Compute the reachable intensity interval of a prototype under per-axis "+
				"box constraints. Omitting constraints yields the theoretical global "+
				"bounds; pinning every weighted axis to a single value validates one "+
				"concrete sample (min == max). Use this to verify that a gameplay "+
				"threshold is mathematically achievable before shipping content.",
		),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Prototype table: 'emotion' or 'sexual'."),
		),
		mcp.WithString("prototype_id",
			mcp.Required(),
			mcp.Description("Prototype id to evaluate, e.g. 'dread'."),
		),
		mcp.WithString("constraints",
			mcp.Description(
				`Optional JSON map of axis to [min, max], e.g. {"valence": [-1, 0], "arousal": [0.5, 0.5]}. `+
					"Missing axes default to their full native domain."),
		),
	)
}

// Handle processes the mood_intensity_bounds tool call.
func (t *IntensityBoundsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain := req.GetString("domain", "")
	prototypeID := req.GetString("prototype_id", "")
	if strings.TrimSpace(domain) == "" || strings.TrimSpace(prototypeID) == "" {
		return mcp.NewToolResultError("'domain' and 'prototype_id' are required"), nil
	}

	constraints, err := parseConstraints(req.GetString("constraints", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'constraints': %v", err)), nil
	}

	interval, err := t.calc.Bounds(domain, prototypeID, constraints)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, bounds.ErrEmptyInterval):
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Intensity Bounds: %s/%s\n\nUnreachable: %v\n\n"+
				"The prototype's intrinsic gates contradict the supplied constraints — "+
				"no intensity value is achievable.\n", domain, prototypeID, err)), nil
	case err != nil:
		return nil, fmt.Errorf("computing bounds: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Intensity Bounds: %s/%s\n\n", domain, prototypeID)
	fmt.Fprintf(&b, "min: %.4f\nmax: %.4f\n", interval.Min, interval.Max)
	if interval.IsDegenerate() {
		b.WriteString("\nThe constraint set is fully pinned: this is the exact intensity of the sample point.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/gates"
	"github.com/narrativekit/moodcheck/internal/registry"
)

// GateAnalyzeTool handles the mood_gate_analyze MCP tool.
// It derives per-axis interval constraints from a prerequisite expression.
type GateAnalyzeTool struct {
	reg *registry.Registry
}

// NewGateAnalyzeTool creates a GateAnalyzeTool over the given registry.
func NewGateAnalyzeTool(reg *registry.Registry) *GateAnalyzeTool {
	return &GateAnalyzeTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *GateAnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_gate_analyze",
		mcp.WithDescription(
			"Derive per-axis interval constraints from a prerequisite expression tree. "+
				"Only AND structure tightens axes; OR branches and condition references "+
				"produce warnings and constrain nothing. Contradictory gates mark an axis "+
				"empty instead of failing the analysis.",
		),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description(
				`Prerequisite expression as JSON. Nodes: {"and":[...]}, {"or":[...]}, `+
					`{"gate":{"axis":"valence","operator":">=","threshold":0.3}}, {"ref":"name"}. `+
					`A bare array is an implicit AND.`),
		),
		mcp.WithString("prototype_gates",
			mcp.Description(
				"Optional JSON array of intrinsic gate clauses to merge after the expression, "+
					`e.g. [{"axis":"arousal","operator":">=","threshold":0.2}].`),
		),
	)
}

// Handle processes the mood_gate_analyze tool call.
func (t *GateAnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exprJSON := req.GetString("expression", "")
	if strings.TrimSpace(exprJSON) == "" {
		return mcp.NewToolResultError("'expression' is required — provide the prerequisite expression as JSON"), nil
	}

	expr, err := gates.ParseExpr([]byte(exprJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analyzer := gates.NewAnalyzer(t.reg.AxisDomains())
	result := analyzer.Analyze(expr)

	var intrinsic []wireGate
	if err := decodeParam(req.GetString("prototype_gates", ""), &intrinsic); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'prototype_gates': %v", err)), nil
	}
	if len(intrinsic) > 0 {
		clauses, err := toClauses(intrinsic)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result = analyzer.MergeGates(result, clauses)
	}

	var b strings.Builder
	b.WriteString("# Gate Constraint Analysis\n\n")
	b.WriteString("| Axis | Interval | Empty |\n|------|----------|-------|\n")
	for _, axis := range sortedKeys(result.Constraints) {
		c := result.Constraints[axis]
		empty := ""
		if c.Empty {
			empty = "yes — gates contradict"
		}
		fmt.Fprintf(&b, "| %s | [%g, %g] | %s |\n", axis, c.Min, c.Max, empty)
	}
	if len(result.Constraints) == 0 {
		b.WriteString("\nNo axis constraints derived.\n")
	}
	if len(result.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

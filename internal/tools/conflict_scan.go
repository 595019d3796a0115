package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/conflict"
	"github.com/narrativekit/moodcheck/internal/model"
	"github.com/narrativekit/moodcheck/internal/runlog"
)

// ConflictScanTool handles the mood_conflict_scan MCP tool.
// It cross-references fit ranking, feasibility classifications, and gate
// alignment, and records the pass in the run log when one is available.
type ConflictScanTool struct {
	detector *conflict.Detector
	runs     *runlog.Store // nil-safe: history is optional
}

// NewConflictScanTool creates a ConflictScanTool. runs may be nil.
func NewConflictScanTool(detector *conflict.Detector, runs *runlog.Store) *ConflictScanTool {
	return &ConflictScanTool{detector: detector, runs: runs}
}

// Definition returns the MCP tool definition for registration.
func (t *ConflictScanTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_conflict_scan",
		mcp.WithDescription(
			"Detect conflicts between what the fit ranking prefers and what the "+
				"feasibility or gate-alignment engines proved unachievable. "+
				"Each input is optional; missing inputs disarm their rule. "+
				"Returns conflicts with ordered, deduplicated suggested fixes.",
		),
		mcp.WithString("fit_result",
			mcp.Description(
				`Fit leaderboard JSON: {"leaderboard":[{"prototype_id":"dread","composite_score":0.41,"rank":1}]}, `+
					"sorted descending by score."),
		),
		mcp.WithString("feasibility_results",
			mcp.Description(
				"JSON array of classified clause results (clause_id, var_path, operator, "+
					"threshold, signal, max_value, classification, ...)."),
		),
		mcp.WithString("gate_alignment",
			mcp.Description(
				`Gate-alignment JSON: {"contradictions":[{"emotion_id":"rage","axis":"arousal",`+
					`"regime_interval":{"min":-1,"max":0},"gate_interval":{"min":0.2,"max":1}}],"has_issues":true}.`),
		),
		mcp.WithString("project",
			mcp.Description("Project name for the run log entry. Defaults to 'default'."),
		),
	)
}

// Handle processes the mood_conflict_scan tool call.
func (t *ConflictScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var fit *model.PrototypeFitResult
	if err := decodeParam(req.GetString("fit_result", ""), &fit); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'fit_result': %v", err)), nil
	}
	var feasibility []model.FeasibilityClauseResult
	if err := decodeParam(req.GetString("feasibility_results", ""), &feasibility); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'feasibility_results': %v", err)), nil
	}
	var alignment *model.GateAlignmentResult
	if err := decodeParam(req.GetString("gate_alignment", ""), &alignment); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'gate_alignment': %v", err)), nil
	}

	conflicts := t.detector.Detect(fit, feasibility, alignment)

	if t.runs != nil {
		project := req.GetString("project", "default")
		// History is best-effort: a failed write never fails the scan.
		_, _ = t.runs.AddRun(runlog.AddRunParams{
			Project:   project,
			Domain:    "emotion",
			Conflicts: conflicts,
		})
	}

	report := "# Conflict Scan\n\n" + RenderConflicts(conflicts)
	return mcp.NewToolResultText(report), nil
}

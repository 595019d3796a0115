package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/axisgap"
	"github.com/narrativekit/moodcheck/internal/model"
	"github.com/narrativekit/moodcheck/internal/runlog"
)

// AxisGapsTool handles the mood_axis_gaps MCP tool.
// It synthesizes prioritized axis-model recommendations from the upstream
// diagnostic signals.
type AxisGapsTool struct {
	builder *axisgap.Builder
	runs    *runlog.Store // nil-safe: history is optional
}

// NewAxisGapsTool creates an AxisGapsTool. runs may be nil.
func NewAxisGapsTool(builder *axisgap.Builder, runs *runlog.Store) *AxisGapsTool {
	return &AxisGapsTool{builder: builder, runs: runs}
}

// Definition returns the MCP tool definition for registration.
func (t *AxisGapsTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_axis_gaps",
		mcp.WithDescription(
			"Synthesize prioritized recommendations for evolving the axis model: "+
				"NEW_AXIS where corroborating signals agree, INVESTIGATE for single "+
				"signals, REFINE_EXISTING for conflicts. Every input is optional. "+
				"Recommendation ids are content-addressed, so re-running an identical "+
				"pass reproduces them.",
		),
		mcp.WithString("pca_result",
			mcp.Description(
				`PCA residual JSON: {"residual_variance_ratio":0.2,"additional_significant_components":1,`+
					`"top_loading_prototypes":["dread"],"reconstruction_errors":{"dread":0.4},`+
					`"residual_eigenvector":{"valence":0.3}}.`),
		),
		mcp.WithString("hubs",
			mcp.Description(
				`JSON array of hub signals: [{"hub_id":"dread","suggested_axis_concept":"anticipation",`+
					`"overlap_prototypes":["rage","grief"]}].`),
		),
		mcp.WithString("gaps",
			mcp.Description(
				`JSON array of coverage gaps: [{"id":"gap-1","centroid_prototypes":["shame","pride"]}].`),
		),
		mcp.WithString("conflicts",
			mcp.Description("JSON array of conflicts from mood_conflict_scan's shape."),
		),
		mcp.WithString("candidates",
			mcp.Description(
				`JSON array of pre-validated axis candidates: [{"candidate_id":"anticipation",`+
					`"source":"designer","verdict":"add_axis","affected_prototypes":["dread"]}].`),
		),
		mcp.WithString("project",
			mcp.Description("Project name for the run log entry. Defaults to 'default'."),
		),
	)
}

// Handle processes the mood_axis_gaps tool call.
func (t *AxisGapsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var pca *model.PCAResidualResult
	if err := decodeParam(req.GetString("pca_result", ""), &pca); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'pca_result': %v", err)), nil
	}
	var hubs []model.HubSignal
	if err := decodeParam(req.GetString("hubs", ""), &hubs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'hubs': %v", err)), nil
	}
	var gaps []model.CoverageGap
	if err := decodeParam(req.GetString("gaps", ""), &gaps); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'gaps': %v", err)), nil
	}
	var conflicts []model.Conflict
	if err := decodeParam(req.GetString("conflicts", ""), &conflicts); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'conflicts': %v", err)), nil
	}
	var candidates []model.CandidateAxisValidation
	if err := decodeParam(req.GetString("candidates", ""), &candidates); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'candidates': %v", err)), nil
	}

	recs := t.builder.Generate(pca, hubs, gaps, conflicts, candidates)

	if t.runs != nil {
		project := req.GetString("project", "default")
		_, _ = t.runs.AddRun(runlog.AddRunParams{
			Project:         project,
			Domain:          "emotion",
			Conflicts:       conflicts,
			Recommendations: recs,
		})
	}

	report := "# Axis-Gap Recommendations\n\n" + RenderRecommendations(recs)
	return mcp.NewToolResultText(report), nil
}

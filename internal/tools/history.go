package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/runlog"
)

// HistoryTool handles the mood_history MCP tool.
// It reviews past diagnostic passes from the run log.
type HistoryTool struct {
	runs *runlog.Store
}

// NewHistoryTool creates a HistoryTool over the run log.
func NewHistoryTool(runs *runlog.Store) *HistoryTool {
	return &HistoryTool{runs: runs}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_history",
		mcp.WithDescription(
			"Review past diagnostic passes. Without run_id, lists a project's "+
				"recent runs; with run_id, returns that run's full conflicts and "+
				"recommendations.",
		),
		mcp.WithString("run_id",
			mcp.Description("Specific run to inspect. If omitted, lists recent runs."),
		),
		mcp.WithString("project",
			mcp.Description("Project name. Defaults to 'default'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("How many recent runs to list (default 10)."),
		),
	)
}

// Handle processes the mood_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := req.GetString("run_id", "")
	project := req.GetString("project", "default")

	if runID != "" {
		run, err := t.runs.GetRun(runID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Run %s\n\n**Project:** %s\n**Domain:** %s\n**Created:** %s\n\n",
			run.ID, run.Project, run.Domain, run.CreatedAt)
		b.WriteString(RenderConflicts(run.Conflicts))
		b.WriteString(RenderRecommendations(run.Recommendations))
		return mcp.NewToolResultText(b.String()), nil
	}

	limit := req.GetInt("limit", 10)
	runs, err := t.runs.RecentRuns(project, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No recorded runs for project %q.", project)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Recent Runs: %s\n\n", project)
	b.WriteString("| Run | Created | Conflicts | Recommendations |\n|-----|---------|-----------|------------------|\n")
	for _, run := range runs {
		fmt.Fprintf(&b, "| `%s` | %s | %d | %d |\n",
			run.ID, run.CreatedAt, run.ConflictCount, run.RecommendationCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Package server wires the diagnostic engines and creates the MCP server
// instance.
//
// This is the composition root: it loads the registry and project config,
// builds the analyzers with injected dependencies, and registers the tools.
// No diagnostic logic lives here — only wiring.
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/narrativekit/moodcheck/internal/axisgap"
	"github.com/narrativekit/moodcheck/internal/bounds"
	"github.com/narrativekit/moodcheck/internal/config"
	"github.com/narrativekit/moodcheck/internal/conflict"
	"github.com/narrativekit/moodcheck/internal/registry"
	"github.com/narrativekit/moodcheck/internal/runlog"
	"github.com/narrativekit/moodcheck/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// registryEnv names an optional project-local registry seed file. When unset,
// the embedded default seed is used.
const registryEnv = "MOODCHECK_REGISTRY"

// New creates and configures the MCP server with all tools registered. This
// is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the run log's database connection and
// must be called on shutdown (typically via defer). It is always non-nil and
// safe to call even if the run log failed to open.
func New() (*server.MCPServer, func(), error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// --- Load the axis-model registry ---

	var (
		reg *registry.Registry
		err error
	)
	if path := os.Getenv(registryEnv); path != "" {
		reg, err = registry.LoadFile(path)
		if err != nil {
			return nil, noop, fmt.Errorf("loading registry from %s: %w", registryEnv, err)
		}
	} else {
		reg, err = registry.LoadDefault()
		if err != nil {
			return nil, noop, fmt.Errorf("loading embedded registry: %w", err)
		}
	}

	// --- Load project thresholds ---

	cwd, err := os.Getwd()
	if err != nil {
		return nil, noop, fmt.Errorf("resolving working directory: %w", err)
	}
	cfg := config.NewFileStore().LoadOrDefault(cwd)

	// --- Build the diagnostic engines ---

	calc := bounds.NewCalculator(reg)

	detector := conflict.NewDetector(logger)
	detector.SetMinCompositeScore(cfg.MinCompositeScore)

	builder := axisgap.NewBuilder(axisgap.Options{
		ResidualVarianceThreshold: cfg.ResidualVarianceThreshold,
		RequireCorroboration:      cfg.RequireCorroboration,
		RedundantSimilarity:       cfg.RedundantSimilarity,
		OverlapSimilarity:         cfg.OverlapSimilarity,
		WorstFitCount:             cfg.WorstFitCount,
	}, reg, logger)

	// --- Open the run log ---
	//
	// History is an independent subsystem: if the store fails to open,
	// diagnostics still run and the scan tools simply skip recording.

	cleanup := noop
	runs, runsErr := runlog.New(runlog.DefaultConfig())
	if runsErr != nil {
		logger.Warn("run history disabled", "error", runsErr)
		runs = nil
	} else {
		cleanup = func() {
			if err := runs.Close(); err != nil {
				logger.Warn("run log close", "error", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"moodcheck",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register diagnostic tools ---

	gateTool := tools.NewGateAnalyzeTool(reg)
	s.AddTool(gateTool.Definition(), gateTool.Handle)

	boundsTool := tools.NewIntensityBoundsTool(calc)
	s.AddTool(boundsTool.Definition(), boundsTool.Handle)

	scanTool := tools.NewConflictScanTool(detector, runs)
	s.AddTool(scanTool.Definition(), scanTool.Handle)

	gapsTool := tools.NewAxisGapsTool(builder, runs)
	s.AddTool(gapsTool.Definition(), gapsTool.Handle)

	protoTool := tools.NewPrototypesTool(reg)
	s.AddTool(protoTool.Definition(), protoTool.Handle)

	if runs != nil {
		historyTool := tools.NewHistoryTool(runs)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the run log is
// disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how to
// run a diagnostic pass effectively.
func serverInstructions() string {
	return `You have access to moodcheck, a feasibility and axis-gap diagnostic
server for mood-driven narrative content.

## What it checks

Narrative content declares prerequisite gates over continuous mood axes
(valence, arousal, threat, ...) and emotion intensities derived from weighted
sums of those axes. Two failure modes matter:

1. Infeasible content: a gameplay threshold that no reachable mood state can
   ever satisfy, so the content silently never fires.
2. Axis-model gaps: the configured axes cannot express a distinction the
   content keeps reaching for, visible as PCA residual variance, prototype
   hubs, and coverage gaps.

## Tools

- mood_prototypes — browse the registry first: prototype weights, intrinsic
  gates, and axis native domains. Use it to ground every other call.
- mood_gate_analyze — turn a prerequisite expression into per-axis interval
  constraints. OR branches produce warnings, not constraints; contradictory
  gates mark the axis empty.
- mood_intensity_bounds — compute the reachable [min, max] intensity of a
  prototype under those constraints. Feed the constraints from
  mood_gate_analyze; compare the max against the content's threshold.
- mood_conflict_scan — cross-reference a fit leaderboard with classified
  feasibility results and gate-alignment contradictions. Returns conflicts
  with concrete suggested fixes.
- mood_axis_gaps — synthesize prioritized NEW_AXIS / INVESTIGATE /
  REFINE_EXISTING recommendations from PCA residuals, hubs, coverage gaps,
  conflicts, and pre-validated candidates.
- mood_history — review past passes (requires the run log to be available).

## Typical pass

1. mood_prototypes to see what axes and prototypes exist.
2. mood_gate_analyze on each piece of content's prerequisite expression.
3. mood_intensity_bounds per (prototype, constraints) pair; anything whose
   threshold exceeds the max is IMPOSSIBLE.
4. mood_conflict_scan with the leaderboard and the classified results.
5. mood_axis_gaps with every structural signal you have.

All inputs to the scan tools are optional: a missing input is "no signal",
never an error. Recommendation ids are content-addressed, so re-running an
identical pass is idempotent — use the ids to deduplicate across passes.

Priorities are evidence levels, not severities: HIGH means independent
signals corroborate, MEDIUM means a single strong signal, LOW means weak or
conflict-derived. Present HIGH recommendations first and say what
corroborates them.`
}

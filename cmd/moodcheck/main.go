// moodcheck: feasibility and axis-gap diagnostics for mood-driven
// narrative content.
//
// It runs as an MCP server embedded in an authoring tool, or as a one-shot
// CLI check over a JSON signal envelope.
//
// Usage:
//
//	moodcheck serve           # Start MCP server (stdio transport)
//	moodcheck check [file]    # One-shot diagnostic pass (stdin if no file)
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/narrativekit/moodcheck/internal/axisgap"
	"github.com/narrativekit/moodcheck/internal/conflict"
	"github.com/narrativekit/moodcheck/internal/model"
	"github.com/narrativekit/moodcheck/internal/registry"
	moodserver "github.com/narrativekit/moodcheck/internal/server"
	"github.com/narrativekit/moodcheck/internal/tools"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "check":
		runCheck(os.Args[2:])
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("moodcheck v%s\n", moodserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serve() error {
	s, cleanup, err := moodserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

// checkEnvelope is the JSON input of a one-shot diagnostic pass: every
// upstream signal in one document, all fields optional.
type checkEnvelope struct {
	FitResult          *model.PrototypeFitResult       `json:"fit_result,omitempty"`
	FeasibilityResults []model.FeasibilityClauseResult `json:"feasibility_results,omitempty"`
	GateAlignment      *model.GateAlignmentResult      `json:"gate_alignment,omitempty"`
	PCAResult          *model.PCAResidualResult        `json:"pca_result,omitempty"`
	Hubs               []model.HubSignal               `json:"hubs,omitempty"`
	Gaps               []model.CoverageGap             `json:"gaps,omitempty"`
	Candidates         []model.CandidateAxisValidation `json:"candidates,omitempty"`
}

// runCheck runs one diagnostic pass over a signal envelope and prints the
// report to stdout. Exit code 1 signals detected conflicts, so the command
// slots into CI content checks.
func runCheck(args []string) {
	data, err := readEnvelope(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var env checkEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Fprintf(os.Stderr, "Error: parsing envelope: %v\n", err)
		os.Exit(2)
	}

	reg, err := loadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	detector := conflict.NewDetector(nil)
	conflicts := detector.Detect(env.FitResult, env.FeasibilityResults, env.GateAlignment)

	builder := axisgap.NewBuilder(axisgap.DefaultOptions(), reg, nil)
	recs := builder.Generate(env.PCAResult, env.Hubs, env.Gaps, conflicts, env.Candidates)

	fmt.Print("# Diagnostic Pass\n\n")
	fmt.Print(tools.RenderConflicts(conflicts))
	fmt.Print(tools.RenderRecommendations(recs))

	if len(conflicts) > 0 {
		os.Exit(1)
	}
}

func readEnvelope(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading envelope: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func loadRegistry() (*registry.Registry, error) {
	if path := os.Getenv("MOODCHECK_REGISTRY"); path != "" {
		return registry.LoadFile(path)
	}
	return registry.LoadDefault()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `moodcheck v%s — feasibility and axis-gap diagnostics

Usage:
  moodcheck serve           Start the MCP server (stdio transport)
  moodcheck check [file]    Run one diagnostic pass over a JSON signal
                            envelope (stdin if no file; exit 1 on conflicts)

Environment:
  MOODCHECK_REGISTRY        Path to a project-local registry seed (YAML).
                            Defaults to the embedded seed.

Configuration:
  Add to your authoring tool's MCP config:

  {
    "mcpServers": {
      "moodcheck": {
        "command": "moodcheck",
        "args": ["serve"]
      }
    }
  }
`, moodserver.Version)
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/narrativekit/moodcheck/internal/registry"
)

// PrototypesTool handles the mood_prototypes MCP tool.
// It browses the registry's prototype tables and axis domains.
type PrototypesTool struct {
	reg *registry.Registry
}

// NewPrototypesTool creates a PrototypesTool over the given registry.
func NewPrototypesTool(reg *registry.Registry) *PrototypesTool {
	return &PrototypesTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *PrototypesTool) Definition() mcp.Tool {
	return mcp.NewTool("mood_prototypes",
		mcp.WithDescription(
			"List the registry's prototype tables: weights, intrinsic gates, and "+
				"axis native domains. Use before composing constraints or bounds calls.",
		),
		mcp.WithString("domain",
			mcp.Description("Restrict to one prototype table ('emotion' or 'sexual'). Omit for all."),
		),
	)
}

// Handle processes the mood_prototypes tool call.
func (t *PrototypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domainFilter := req.GetString("domain", "")

	domains := t.reg.DomainNames()
	if domainFilter != "" {
		if _, err := t.reg.Prototypes(domainFilter); errors.Is(err, registry.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"unknown domain %q: available domains are %s", domainFilter, strings.Join(domains, ", "))), nil
		}
		domains = []string{domainFilter}
	}

	var b strings.Builder
	b.WriteString("# Prototype Registry\n\n## Axis Domains\n\n")
	axisDomains := t.reg.AxisDomains()
	for _, axis := range sortedKeys(axisDomains) {
		iv := axisDomains[axis]
		fmt.Fprintf(&b, "- %s: [%g, %g]\n", axis, iv.Min, iv.Max)
	}

	for _, domain := range domains {
		protos, err := t.reg.Prototypes(domain)
		if err != nil {
			return nil, fmt.Errorf("listing domain %q: %w", domain, err)
		}
		fmt.Fprintf(&b, "\n## Domain: %s\n\n", domain)
		for _, id := range sortedKeys(protos) {
			proto := protos[id]
			fmt.Fprintf(&b, "### %s\n\n", id)
			for _, axis := range sortedKeys(proto.Weights) {
				fmt.Fprintf(&b, "- %s: %g\n", axis, proto.Weights[axis])
			}
			if len(proto.Gates) > 0 {
				b.WriteString("\nGates:\n")
				for _, g := range proto.Gates {
					fmt.Fprintf(&b, "- %s\n", g)
				}
			}
			b.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

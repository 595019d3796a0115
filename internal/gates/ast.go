// Package gates derives per-axis interval constraints from the logic tree of
// a prerequisite expression.
//
// Only conjunctive structure is fully supported: every gate clause under an
// unconditional AND chain tightens its axis. Clauses reachable only under an
// OR are not safely intersectable — they produce a warning and leave the
// axis at its pre-OR interval. Condition references cannot be resolved inside
// the engine and likewise constrain nothing.
package gates

import (
	"encoding/json"
	"fmt"

	"github.com/narrativekit/moodcheck/internal/model"
)

// Expr is a node in the prerequisite logic tree. It is a sealed tagged
// union: And, Or, Gate, and Ref are the only implementations.
type Expr interface {
	isExpr()
}

// And is a conjunction of operands. All operands apply simultaneously.
type And struct {
	Operands []Expr
}

// Or is a disjunction of operands. The engine does not resolve which branch
// holds, so nothing under an Or tightens an axis.
type Or struct {
	Operands []Expr
}

// Gate is a leaf inequality clause on one axis.
type Gate struct {
	Clause model.GateClause
}

// Ref is a reference to a named condition defined elsewhere in the content
// scope. The engine cannot resolve it and treats it as unconstraining.
type Ref struct {
	Name string
}

func (And) isExpr()  {}
func (Or) isExpr()   {}
func (Gate) isExpr() {}
func (Ref) isExpr()  {}

// Visitor receives one callback per node kind during a Walk.
type Visitor interface {
	VisitAnd(n And) error
	VisitOr(n Or) error
	VisitGate(n Gate) error
	VisitRef(n Ref) error
}

// Walk traverses the tree depth-first, calling the visitor for every node.
// The visitor for And and Or is invoked before the operands; returning an
// error stops the walk.
func Walk(e Expr, v Visitor) error {
	switch n := e.(type) {
	case And:
		if err := v.VisitAnd(n); err != nil {
			return err
		}
		for _, op := range n.Operands {
			if err := Walk(op, v); err != nil {
				return err
			}
		}
	case Or:
		return v.VisitOr(n)
	case Gate:
		return v.VisitGate(n)
	case Ref:
		return v.VisitRef(n)
	case nil:
		return nil
	default:
		return fmt.Errorf("gates: unknown expression node %T", e)
	}
	return nil
}

// --- Wire format ---
//
// Expressions arrive from the authoring tool as JSON:
//
//	{"and": [ ... ]}
//	{"or": [ ... ]}
//	{"gate": {"axis": "valence", "operator": ">=", "threshold": 0.3}}
//	{"ref": "scene.is_private"}
//	[ ... ]                         // bare array is an implicit AND
//
// Unknown shapes are rejected rather than guessed at.

type wireNode struct {
	And  []json.RawMessage `json:"and"`
	Or   []json.RawMessage `json:"or"`
	Gate *model.GateClause `json:"gate"`
	Ref  string            `json:"ref"`
}

// ParseExpr decodes the JSON wire form of a prerequisite expression.
func ParseExpr(data []byte) (Expr, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("gates: empty expression")
	}

	// Bare array → implicit AND.
	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("gates: parsing expression array: %w", err)
		}
		ops, err := parseAll(items)
		if err != nil {
			return nil, err
		}
		return And{Operands: ops}, nil
	}

	var node wireNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("gates: parsing expression node: %w", err)
	}

	switch {
	case node.And != nil:
		ops, err := parseAll(node.And)
		if err != nil {
			return nil, err
		}
		return And{Operands: ops}, nil
	case node.Or != nil:
		ops, err := parseAll(node.Or)
		if err != nil {
			return nil, err
		}
		return Or{Operands: ops}, nil
	case node.Gate != nil:
		if err := model.ValidateOperator(node.Gate.Operator); err != nil {
			return nil, fmt.Errorf("gates: %w", err)
		}
		if node.Gate.Axis == "" {
			return nil, fmt.Errorf("gates: gate clause missing axis")
		}
		return Gate{Clause: *node.Gate}, nil
	case node.Ref != "":
		return Ref{Name: node.Ref}, nil
	default:
		return nil, fmt.Errorf("gates: unrecognized expression node: %s", string(data))
	}
}

func parseAll(items []json.RawMessage) ([]Expr, error) {
	ops := make([]Expr, 0, len(items))
	for _, raw := range items {
		e, err := ParseExpr(raw)
		if err != nil {
			return nil, err
		}
		ops = append(ops, e)
	}
	return ops, nil
}

// Package exprjson is a developer convenience for feeding pre-normalised
// expression DAGs into the planner from a file or test fixture (spec §2
// "Expression source"). It is NOT the upstream expression parser — that
// remains an external collaborator — this package only deserializes the
// core's own DAG shape (Match/Negation/Combined/SpecialSet) from JSON.
package exprjson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"audlangsql/internal/expr"
	"audlangsql/internal/op"
)

// Node is the JSON shape of one expression node. Exactly the fields
// relevant to Kind are expected to be populated; the zero value of the
// others is ignored.
type Node struct {
	Kind string `json:"kind"` // "match", "negation", "combined", "specialSet"

	// match
	Arg      string `json:"arg,omitempty"`
	Op       string `json:"op,omitempty"`
	Literal  string `json:"literal,omitempty"`
	RefArg   string `json:"refArg,omitempty"`

	// negation
	Inner  *Node `json:"inner,omitempty"`
	Strict bool  `json:"strict,omitempty"`

	// combined
	CombineOp string `json:"combineOp,omitempty"` // "and" | "or"
	Members   []Node `json:"members,omitempty"`

	// specialSet
	SetName string `json:"setName,omitempty"`
}

// Decode parses a JSON document from r and builds it into arena, returning
// the root node id.
func Decode(r io.Reader, arena *expr.Arena) (expr.NodeID, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return 0, fmt.Errorf("exprjson: decode error: %w", err)
	}
	return build(&n, arena)
}

// DecodeFile opens path and decodes it via Decode.
func DecodeFile(path string, arena *expr.Arena) (expr.NodeID, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("exprjson: open file %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f, arena)
}

func build(n *Node, arena *expr.Arena) (expr.NodeID, error) {
	switch n.Kind {
	case "match":
		operator := op.MatchOperator(n.Op)
		if !operator.Valid() {
			return 0, fmt.Errorf("exprjson: unknown match operator %q", n.Op)
		}
		var operand expr.Operand
		if n.RefArg != "" {
			operand = expr.ReferenceOperand(n.RefArg)
		} else {
			operand = expr.LiteralOperand(n.Literal)
		}
		return arena.Match(n.Arg, operator, operand), nil

	case "negation":
		if n.Inner == nil {
			return 0, fmt.Errorf("exprjson: negation node missing inner")
		}
		inner, err := build(n.Inner, arena)
		if err != nil {
			return 0, err
		}
		return arena.Negation(inner, n.Strict), nil

	case "combined":
		if len(n.Members) == 0 {
			return 0, fmt.Errorf("exprjson: combined node has no members")
		}
		combineOp, err := parseCombineOp(n.CombineOp)
		if err != nil {
			return 0, err
		}
		members := make([]expr.NodeID, 0, len(n.Members))
		for i := range n.Members {
			id, err := build(&n.Members[i], arena)
			if err != nil {
				return 0, err
			}
			members = append(members, id)
		}
		return arena.Combined(combineOp, members...), nil

	case "specialSet":
		if n.SetName == "" {
			return 0, fmt.Errorf("exprjson: specialSet node missing setName")
		}
		return arena.SpecialSet(n.SetName), nil

	default:
		return 0, fmt.Errorf("exprjson: unknown node kind %q", n.Kind)
	}
}

func parseCombineOp(raw string) (expr.CombineOp, error) {
	switch raw {
	case "and", "AND", "":
		return expr.And, nil
	case "or", "OR":
		return expr.Or, nil
	default:
		return 0, fmt.Errorf("exprjson: unknown combineOp %q", raw)
	}
}

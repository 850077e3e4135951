// Package expr defines the core expression DAG the planner consumes (spec
// §3, §9): Match/Negation/Combined/SpecialSet nodes addressed by integer
// index in an arena, so the logical-equivalence helper can hash-key node
// and member-set equality cheaply instead of walking pointer structures.
//
// The upstream parser that produces this DAG is an external collaborator
// (spec §1 Non-goals); this package defines the shape the core compiles
// against, not a parser.
package expr

import "audlangsql/internal/op"

// NodeID addresses a node within an Arena.
type NodeID int

// Kind discriminates the four node shapes the core consumes.
type Kind int

const (
	KindMatch Kind = iota
	KindNegation
	KindCombined
	KindSpecialSet
	// KindInList is the coalesced arg IN (...) / NOT IN (...) shape (spec
	// §4.4.5) that the planner compiles when it meets one. Arena has no
	// constructor for it, and the planner's own IN-clause coalescing works
	// on private groups without rewriting the arena.
	KindInList
)

// CombineOp is the boolean combinator of a Combined node.
type CombineOp int

const (
	And CombineOp = iota
	Or
)

// OperandKind discriminates a Match node's right-hand operand.
type OperandKind int

const (
	OperandLiteral OperandKind = iota
	OperandReference
)

// Operand is a Match node's right-hand side: either a literal raw value or
// a reference to another attribute name (a reference match, spec §4.4.6).
type Operand struct {
	Kind    OperandKind
	Literal string
	RefArg  string
}

// LiteralOperand builds a literal operand.
func LiteralOperand(raw string) Operand { return Operand{Kind: OperandLiteral, Literal: raw} }

// ReferenceOperand builds a reference operand naming another attribute.
func ReferenceOperand(attr string) Operand { return Operand{Kind: OperandReference, RefArg: attr} }

// IsReference reports whether the operand names another attribute rather
// than carrying a literal value.
func (o Operand) IsReference() bool { return o.Kind == OperandReference }

// Node is one arena entry. Only the fields relevant to Kind are populated.
type Node struct {
	Kind Kind

	// Match fields.
	Arg     string
	Op      op.MatchOperator
	Operand Operand

	// Negation fields.
	Inner  NodeID
	Strict bool // true = STRICT NOT (set-theoretic complement, excludes unknowns)

	// Combined fields.
	CombineOp CombineOp
	Members   []NodeID

	// SpecialSet fields: a named, pre-computed id-set bound at plan time
	// via ProcessContext (SPEC_FULL §4.4 "SpecialSet").
	SetName string

	// InList fields (KindInList): the coalesced arg IN (values…) / NOT IN
	// (values…) form (spec §4.4.5).
	InValues  []string
	InNegated bool
}

// Arena owns a DAG of Nodes addressed by NodeID. The zero value is ready to
// use.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

func (a *Arena) add(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Match adds a leaf match node and returns its id.
func (a *Arena) Match(arg string, operator op.MatchOperator, operand Operand) NodeID {
	return a.add(Node{Kind: KindMatch, Arg: arg, Op: operator, Operand: operand})
}

// Negation adds a negation node wrapping inner. strict=true is the
// set-theoretic complement (STRICT NOT, excludes unknowns); strict=false is
// the lenient form (NOT, includes unknowns) (spec §3).
func (a *Arena) Negation(inner NodeID, strict bool) NodeID {
	return a.add(Node{Kind: KindNegation, Inner: inner, Strict: strict})
}

// Combined adds a combination node over members.
func (a *Arena) Combined(combineOp CombineOp, members ...NodeID) NodeID {
	return a.add(Node{Kind: KindCombined, CombineOp: combineOp, Members: append([]NodeID(nil), members...)})
}

// SpecialSet adds a named pre-computed id-set leaf.
func (a *Arena) SpecialSet(name string) NodeID {
	return a.add(Node{Kind: KindSpecialSet, SetName: name})
}

// Node returns the node stored at id.
func (a *Arena) Node(id NodeID) Node {
	return a.nodes[id]
}

// Len returns the number of nodes currently in the arena.
func (a *Arena) Len() int { return len(a.nodes) }

// Walk performs a depth-first pre-order traversal starting at root, calling
// visit for every node reached (each node is visited once per DAG path —
// callers that need dedup should track visited ids themselves).
func (a *Arena) Walk(root NodeID, visit func(NodeID, Node)) {
	n := a.Node(root)
	visit(root, n)
	switch n.Kind {
	case KindNegation:
		a.Walk(n.Inner, visit)
	case KindCombined:
		for _, m := range n.Members {
			a.Walk(m, visit)
		}
	}
}

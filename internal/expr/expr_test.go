package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audlangsql/internal/op"
)

func TestOperandConstructors(t *testing.T) {
	lit := LiteralOperand("DE")
	assert.False(t, lit.IsReference())
	assert.Equal(t, "DE", lit.Literal)

	ref := ReferenceOperand("other.attr")
	assert.True(t, ref.IsReference())
	assert.Equal(t, "other.attr", ref.RefArg)
}

func TestArenaMatchAndNode(t *testing.T) {
	a := NewArena()
	id := a.Match("user.country", op.Equals, LiteralOperand("DE"))
	n := a.Node(id)
	assert.Equal(t, KindMatch, n.Kind)
	assert.Equal(t, "user.country", n.Arg)
	assert.Equal(t, op.Equals, n.Op)
	assert.Equal(t, 1, a.Len())
}

func TestArenaNegationAndCombined(t *testing.T) {
	a := NewArena()
	leaf1 := a.Match("a", op.Equals, LiteralOperand("1"))
	leaf2 := a.Match("b", op.Equals, LiteralOperand("2"))
	neg := a.Negation(leaf2, true)
	combined := a.Combined(Or, leaf1, neg)

	n := a.Node(combined)
	require.Equal(t, KindCombined, n.Kind)
	assert.Equal(t, Or, n.CombineOp)
	require.Len(t, n.Members, 2)

	negNode := a.Node(n.Members[1])
	assert.Equal(t, KindNegation, negNode.Kind)
	assert.True(t, negNode.Strict)
	assert.Equal(t, leaf2, negNode.Inner)
}

func TestArenaSpecialSet(t *testing.T) {
	a := NewArena()
	id := a.SpecialSet("vip_customers")
	n := a.Node(id)
	assert.Equal(t, KindSpecialSet, n.Kind)
	assert.Equal(t, "vip_customers", n.SetName)
}

func TestArenaWalkVisitsEveryReachableNode(t *testing.T) {
	a := NewArena()
	leaf1 := a.Match("a", op.Equals, LiteralOperand("1"))
	leaf2 := a.Match("b", op.Equals, LiteralOperand("2"))
	neg := a.Negation(leaf2, false)
	root := a.Combined(And, leaf1, neg)

	var visited []NodeID
	a.Walk(root, func(id NodeID, _ Node) {
		visited = append(visited, id)
	})

	assert.Contains(t, visited, root)
	assert.Contains(t, visited, leaf1)
	assert.Contains(t, visited, neg)
	assert.Contains(t, visited, leaf2)
}

package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audlangsql/internal/binding"
	"audlangsql/internal/expr"
	"audlangsql/internal/op"
	"audlangsql/internal/param"
)

// These tests pin the exact SQL text (not a substring) for each of the
// seven boundary scenarios plus the column-filter and IN-coalescing
// behaviors they exercise. param.ResetSeq() makes every auto-issued
// parameter id deterministic; nextAlias() is already deterministic per
// Planner since it starts from 0 on every New().

func TestBoundaryScenario1SimpleEqualsInlinesOnBaseTable(t *testing.T) {
	param.ResetSeq()
	tbl := &binding.SingleTableConfig{
		TableName:    "TBL",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COLOR", SQLKind: "SQL_VARCHAR", AttributeMapping: "color"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{tbl}}

	a := expr.NewArena()
	root := a.Match("color", op.Equals, expr.LiteralOperand("red"))
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT base.ID AS ID\nFROM TBL base\nWHERE base.COLOR = ?", tmpl.SQL)
	require.Len(t, tmpl.Parameters, 1)
	assert.Equal(t, "SQL_VARCHAR", tmpl.Parameters[0].Kind.Name())
	assert.Equal(t, "red", tmpl.Parameters[0].Transfer.Str)
	assert.Equal(t, op.Equals, tmpl.Parameters[0].Operator)
}

func TestBoundaryScenario2LenientNegationOrsInUndecidedBranch(t *testing.T) {
	param.ResetSeq()
	tbl := &binding.SingleTableConfig{
		TableName:    "TBL",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COLOR", SQLKind: "SQL_VARCHAR", AttributeMapping: "color"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{tbl}}

	a := expr.NewArena()
	inner := a.Match("color", op.Equals, expr.LiteralOperand("red"))
	root := a.Negation(inner, false)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ID AS ID FROM TBL WHERE COLOR IS NOT NULL)\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM TBL base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE ((sq__1.ID IS NOT NULL) AND NOT (base.COLOR = ?)) OR NOT (sq__1.ID IS NOT NULL)"
	assert.Equal(t, want, tmpl.SQL)
	require.Len(t, tmpl.Parameters, 1)
	assert.Equal(t, "red", tmpl.Parameters[0].Transfer.Str)
}

func TestBoundaryScenario3StrictNegationDropsUndecidedBranch(t *testing.T) {
	param.ResetSeq()
	tbl := &binding.SingleTableConfig{
		TableName:    "TBL",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COLOR", SQLKind: "SQL_VARCHAR", AttributeMapping: "color"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{tbl}}

	a := expr.NewArena()
	inner := a.Match("color", op.Equals, expr.LiteralOperand("red"))
	root := a.Negation(inner, true)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ID AS ID FROM TBL WHERE COLOR IS NOT NULL)\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM TBL base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE (sq__1.ID IS NOT NULL) AND NOT (base.COLOR = ?)"
	assert.Equal(t, want, tmpl.SQL)
	require.Len(t, tmpl.Parameters, 1)
}

func TestBoundaryScenario4AnyOfCoalescesIntoSortedInList(t *testing.T) {
	param.ResetSeq()
	tbl := &binding.SingleTableConfig{
		TableName:    "TBL",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COLOR", SQLKind: "SQL_VARCHAR", AttributeMapping: "color"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{tbl}}

	a := expr.NewArena()
	leaf1 := a.Match("color", op.Equals, expr.LiteralOperand("red"))
	leaf2 := a.Match("color", op.Equals, expr.LiteralOperand("blue"))
	leaf3 := a.Match("color", op.Equals, expr.LiteralOperand("black"))
	root := a.Combined(expr.Or, leaf1, leaf2, leaf3)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ID AS ID FROM TBL WHERE COLOR IN (?, ?, ?))\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM TBL base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE (sq__1.ID IS NOT NULL)"
	assert.Equal(t, want, tmpl.SQL)
	require.Len(t, tmpl.Parameters, 3)
	assert.Equal(t, []string{"black", "blue", "red"}, []string{
		tmpl.Parameters[0].Transfer.Str, tmpl.Parameters[1].Transfer.Str, tmpl.Parameters[2].Transfer.Str,
	})
}

// TestBoundaryScenario5EAVColumnFiltersStayOnSeparateWithAliases fixes the
// review's scenario 5: two conditions on a multi-row fact table that share
// a physical column but are discriminated by a per-column FilterPredicate
// keyed by F_KEY must not be folded into the base table's own WHERE (the
// multi-row column never qualifies for the inline form), and each one's
// with-clause must AND in its own F_KEY filter alongside its data predicate.
func TestBoundaryScenario5EAVColumnFiltersStayOnSeparateWithAliases(t *testing.T) {
	param.ResetSeq()
	fact := &binding.SingleTableConfig{
		TableName:    "FACT",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs},
		Columns: []*binding.DataColumn{
			{
				ColumnName: "FLG", SQLKind: "SQL_INTEGER", AttributeMapping: "fact.hasDog.flg", MultiRow: true,
				FilterPredicates: []binding.FilterPredicate{{Column: "F_KEY", Value: "HAS_DOG"}},
			},
			{
				ColumnName: "FLG", SQLKind: "SQL_INTEGER", AttributeMapping: "fact.hasCat.flg", MultiRow: true,
				FilterPredicates: []binding.FilterPredicate{{Column: "F_KEY", Value: "HAS_CAT"}},
			},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{fact}}

	a := expr.NewArena()
	leaf1 := a.Match("fact.hasDog.flg", op.Equals, expr.LiteralOperand("1"))
	leaf2 := a.Match("fact.hasCat.flg", op.Equals, expr.LiteralOperand("0"))
	root := a.Combined(expr.And, leaf1, leaf2)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ID AS ID FROM FACT WHERE (FLG = ? AND F_KEY = ?)),\n" +
		"sq__2 AS (SELECT DISTINCT ID AS ID FROM FACT WHERE (FLG = ? AND F_KEY = ?))\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM FACT base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"LEFT OUTER JOIN sq__2 ON sq__2.ID = base.ID\n" +
		"WHERE (sq__1.ID IS NOT NULL AND sq__2.ID IS NOT NULL)"
	assert.Equal(t, want, tmpl.SQL)

	require.Len(t, tmpl.Parameters, 4)
	assert.Equal(t, int32(1), tmpl.Parameters[0].Transfer.I32)
	assert.Equal(t, "HAS_DOG", tmpl.Parameters[1].Transfer.Str)
	assert.Equal(t, int32(0), tmpl.Parameters[2].Transfer.I32)
	assert.Equal(t, "HAS_CAT", tmpl.Parameters[3].Transfer.Str)
}

func TestBoundaryScenario6ReferenceMatchSameTableUsesSelfJoinAlias(t *testing.T) {
	param.ResetSeq()
	account := &binding.SingleTableConfig{
		TableName:    "ACCOUNT",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "S_CODE", SQLKind: "SQL_INTEGER", AttributeMapping: "sCode"},
			{ColumnName: "TNT_CODE", SQLKind: "SQL_INTEGER", AttributeMapping: "tntCode"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{account}}

	a := expr.NewArena()
	root := a.Match("sCode", op.GreaterThan, expr.ReferenceOperand("tntCode"))
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ACCOUNT.ID AS ID FROM ACCOUNT ACCOUNT " +
		"INNER JOIN ACCOUNT sq__self ON ACCOUNT.ID = sq__self.ID " +
		"WHERE ACCOUNT.S_CODE > sq__self.TNT_CODE)\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM ACCOUNT base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE sq__1.ID IS NOT NULL"
	assert.Equal(t, want, tmpl.SQL)
	assert.Empty(t, tmpl.Parameters)
}

func TestBoundaryScenario7DateEqualsExpandsToHalfOpenTimestampInterval(t *testing.T) {
	param.ResetSeq()
	evt := &binding.SingleTableConfig{
		TableName:    "EVT",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "UPDATED_AT", SQLKind: "SQL_TIMESTAMP", AttributeMapping: "dateUpdated"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{evt}}

	a := expr.NewArena()
	root := a.Match("dateUpdated", op.Equals, expr.LiteralOperand("2024-12-13"))
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT DISTINCT base.ID AS ID\nFROM EVT base\nWHERE base.UPDATED_AT >= ? AND base.UPDATED_AT < ?",
		tmpl.SQL)
	require.Len(t, tmpl.Parameters, 2)
	assert.Equal(t, int64(24*60*60*1000), tmpl.Parameters[1].Transfer.Timestamp-tmpl.Parameters[0].Transfer.Timestamp)
}

// TestColumnFilterPredicateAndsIntoWithClauseAlongsideDataPredicate pins the
// review's second fix outside the EAV shape: a column-level FilterPredicate
// on a non-base table must AND into that column's with-clause WHERE next to
// its own data predicate, not be silently dropped.
func TestColumnFilterPredicateAndsIntoWithClauseAlongsideDataPredicate(t *testing.T) {
	param.ResetSeq()
	users := &binding.SingleTableConfig{
		TableName:    "USERS",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COUNTRY", SQLKind: "SQL_VARCHAR", AttributeMapping: "user.country"},
		},
	}
	orders := &binding.SingleTableConfig{
		TableName:    "ORDERS",
		IDColumnName: "USER_ID",
		Nature:       binding.TableNature{Cardinality: binding.IDSubset},
		Columns: []*binding.DataColumn{
			{
				ColumnName: "TOTAL", SQLKind: "SQL_INTEGER", AttributeMapping: "order.total",
				FilterPredicates: []binding.FilterPredicate{{Column: "SRC", Value: "WEB"}},
			},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{users, orders}}

	a := expr.NewArena()
	leaf1 := a.Match("user.country", op.Equals, expr.LiteralOperand("DE"))
	leaf2 := a.Match("order.total", op.GreaterThan, expr.LiteralOperand("100"))
	root := a.Combined(expr.And, leaf1, leaf2)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT USER_ID AS ID FROM ORDERS WHERE (TOTAL > ? AND SRC = ?))\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM USERS base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE (base.COUNTRY = ? AND sq__1.ID IS NOT NULL)"
	assert.Equal(t, want, tmpl.SQL)

	require.Len(t, tmpl.Parameters, 3)
	assert.Equal(t, int32(100), tmpl.Parameters[0].Transfer.I32)
	assert.Equal(t, "WEB", tmpl.Parameters[1].Transfer.Str)
	assert.Equal(t, "DE", tmpl.Parameters[2].Transfer.Str)
}

// TestInCoalescingFixedPointDedupesSubsumedNegatedMembers exercises the
// §4.4.5 "member fully subsumed by another" rule: three AND-combined
// negated-equals members on the same attribute, two of them carrying the
// same literal, must coalesce into one NOT IN group with the duplicate
// dropped rather than emitted twice.
func TestInCoalescingFixedPointDedupesSubsumedNegatedMembers(t *testing.T) {
	param.ResetSeq()
	tbl := &binding.SingleTableConfig{
		TableName:    "TBL",
		IDColumnName: "ID",
		Primary:      true,
		Nature:       binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
		Columns: []*binding.DataColumn{
			{ColumnName: "COLOR", SQLKind: "SQL_VARCHAR", AttributeMapping: "color"},
		},
	}
	b := &binding.Binding{Tables: []*binding.SingleTableConfig{tbl}}

	a := expr.NewArena()
	neg1 := a.Negation(a.Match("color", op.Equals, expr.LiteralOperand("DE")), true)
	neg2 := a.Negation(a.Match("color", op.Equals, expr.LiteralOperand("FR")), true)
	neg3 := a.Negation(a.Match("color", op.Equals, expr.LiteralOperand("DE")), true)
	root := a.Combined(expr.And, neg1, neg2, neg3)
	ctx := NewProcessContext(binding.NewContext("test", nil), Directives{}, nil, nil)
	p := New(a, root, b, ctx, nil)

	tmpl, err := p.Plan(SelectDistinctID)
	require.NoError(t, err)
	want := "WITH sq__1 AS (SELECT DISTINCT ID AS ID FROM TBL WHERE COLOR IN (?, ?))\n" +
		"SELECT DISTINCT base.ID AS ID\n" +
		"FROM TBL base\n" +
		"LEFT OUTER JOIN sq__1 ON sq__1.ID = base.ID\n" +
		"WHERE (sq__1.ID IS NULL)"
	assert.Equal(t, want, tmpl.SQL)

	require.Len(t, tmpl.Parameters, 2)
	assert.Equal(t, "DE", tmpl.Parameters[0].Transfer.Str)
	assert.Equal(t, "FR", tmpl.Parameters[1].Transfer.Str)
}

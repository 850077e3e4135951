package planner

import (
	"fmt"
	"sort"

	"audlangsql/internal/binding"
	"audlangsql/internal/cerr"
	"audlangsql/internal/expr"
	"audlangsql/internal/op"
)

// baseQuery is the resolved leftmost FROM of the assembled statement (spec
// §4.4.2): either a single physical table, or a synthetic id-union CTE.
type baseQuery struct {
	alias    string
	table    string // "tbl" or "(<union select>) " for a synthetic union
	idColumn string
	filter   string // extra WHERE fragment the base table's own filter predicates contribute, "" if none
}

// candidate is an eligible base-query subexpression together with the
// single physical table it resolves against and its §4.4.2 complexity
// score.
type candidate struct {
	node       expr.NodeID
	table      string
	complexity float64
}

// chooseBaseQuery implements §4.4.2: prefer a subexpression that is a
// logical superset of root and resolves to exactly one table, falling back
// to the primary table, falling back to a synthetic UNION.
func (p *Planner) chooseBaseQuery(root expr.NodeID, st stats) (baseQuery, error) {
	cands := p.eligibleCandidates(root)

	var best *candidate
	for i := range cands {
		ok, err := p.helper.LeftImpliesRight(cands[i].node, root)
		if err != nil {
			return baseQuery{}, err
		}
		if !ok {
			continue
		}
		if best == nil || cands[i].complexity > best.complexity {
			best = &cands[i]
		}
	}

	if best != nil {
		t, ok := p.findTable(best.table)
		if !ok {
			return baseQuery{}, &cerr.MappingFailedError{Attribute: best.table, Context: p.Ctx.BindingCtx.Name(), Reason: "base-query table vanished from binding"}
		}
		return baseQuery{alias: "base", table: t.TableName, idColumn: t.IDColumnName, filter: p.tableFilter(t, "base")}, nil
	}

	if primary, ok := p.Binding.Primary(); ok {
		return baseQuery{alias: "base", table: primary.TableName, idColumn: primary.IDColumnName, filter: p.tableFilter(primary, "base")}, nil
	}

	if err := p.checkDirective(p.Ctx.Directives.EnforcePrimaryTable, "ENFORCE_PRIMARY_TABLE is set but no primary table is configured"); err != nil {
		return baseQuery{}, err
	}

	if err := p.checkDirective(p.Ctx.Directives.DisableUnion, "no eligible base query and DISABLE_UNION forbids the synthetic union fallback"); err != nil {
		return baseQuery{}, err
	}

	return p.unionBaseQuery(st)
}

// eligibleCandidates collects the root itself and, when root is a Combined
// expression, its immediate members — the only shapes spec §4.4.2 admits
// (positive Match against a non-null value, Negation, Combined not
// sub-nested, and a table-resolvable IS_UNKNOWN).
func (p *Planner) eligibleCandidates(root expr.NodeID) []candidate {
	var out []candidate
	add := func(id expr.NodeID) {
		if t, ok := p.singleTable(id); ok {
			out = append(out, candidate{node: id, table: t, complexity: p.complexity(id)})
		}
	}
	add(root)
	n := p.Arena.Node(root)
	if n.Kind == expr.KindCombined {
		for _, m := range n.Members {
			add(m)
		}
	}
	return out
}

// singleTable reports the one physical table a subexpression resolves
// against, if all the attributes it touches resolve to the same table.
func (p *Planner) singleTable(id expr.NodeID) (string, bool) {
	tables := map[string]bool{}
	ok := true
	p.Arena.Walk(id, func(_ expr.NodeID, n expr.Node) {
		var attr string
		switch n.Kind {
		case expr.KindMatch:
			if n.Op == op.IsUnknown {
				res, err := p.resolve(n.Arg)
				if err != nil || res.Table.Nature.Cardinality != binding.AllIDs || res.Column.MultiRow {
					ok = false
				}
			}
			attr = n.Arg
		case expr.KindInList:
			attr = n.Arg
		case expr.KindSpecialSet:
			return
		default:
			return
		}
		res, err := p.resolve(attr)
		if err != nil {
			ok = false
			return
		}
		tables[res.Table.TableName] = true
	})
	if !ok || len(tables) != 1 {
		return "", false
	}
	for t := range tables {
		return t, true
	}
	return "", false
}

func (p *Planner) findTable(name string) (*binding.SingleTableConfig, bool) {
	for _, t := range p.Binding.Tables {
		if t.TableName == name {
			return t, true
		}
	}
	return nil, false
}

// complexity implements the §4.4.2 scoring table.
func (p *Planner) complexity(id expr.NodeID) float64 {
	n := p.Arena.Node(id)
	switch n.Kind {
	case expr.KindMatch:
		base := 1.0
		switch n.Op {
		case op.LessThan, op.GreaterThan:
			base = 1.2
		case op.Contains:
			base = 1.8
		}
		return base * p.dbPenalty(n)
	case expr.KindInList:
		return 1.0 * float64(len(n.InValues))
	case expr.KindNegation:
		return 1.5 * p.complexity(n.Inner)
	case expr.KindCombined:
		sum := 0.0
		for _, m := range n.Members {
			sum += p.complexity(m)
		}
		if n.CombineOp == expr.Or {
			return 1.1 * sum
		}
		return sum
	default:
		return 1.0
	}
}

func (p *Planner) dbPenalty(n expr.Node) float64 {
	leftMulti := p.isMultiRow(n.Arg)
	if n.Operand.IsReference() {
		rightMulti := p.isMultiRow(n.Operand.RefArg)
		switch {
		case leftMulti && rightMulti:
			return 19
		case leftMulti || rightMulti:
			return 11
		default:
			return 2
		}
	}
	if leftMulti {
		return 7
	}
	return 1
}

func (p *Planner) isMultiRow(attr string) bool {
	if info, ok := p.attrType[attr]; ok {
		return info.multiRow
	}
	res, err := p.resolve(attr)
	if err != nil {
		return false
	}
	return res.Column.MultiRow
}

// unionBaseQuery builds the synthetic UNION-over-every-table id universe
// (spec §4.4.2 fallback 3).
func (p *Planner) unionBaseQuery(st stats) (baseQuery, error) {
	tables := make([]string, 0, len(st.tables))
	for t := range st.tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	if len(tables) == 0 {
		for _, t := range p.Binding.Tables {
			tables = append(tables, t.TableName)
		}
	}
	if len(tables) == 0 {
		return baseQuery{}, &cerr.ConversionError{Code: cerr.CodeUnsatisfiableShape, Reason: "binding has no tables to build a synthetic union base query"}
	}

	parts := make([]string, 0, len(tables))
	for _, name := range tables {
		t, ok := p.findTable(name)
		if !ok {
			continue
		}
		filter := p.tableFilter(t, t.TableName)
		sel := fmt.Sprintf("SELECT %s.%s AS ID FROM %s %s", t.TableName, t.IDColumnName, t.TableName, t.TableName)
		if filter != "" {
			sel += " WHERE " + filter
		}
		parts = append(parts, sel)
	}
	union := "(" + joinStrings(parts, " UNION ") + ")"
	return baseQuery{alias: "base", table: union, idColumn: "ID"}, nil
}

// tableFilter renders a table's own filter predicates ANDed together,
// qualified by alias (spec §3 FilterPredicate: always ANDed into every
// reference to the table).
func (p *Planner) tableFilter(t *binding.SingleTableConfig, alias string) string {
	if len(t.FilterPredicates) == 0 {
		return ""
	}
	parts := make([]string, 0, len(t.FilterPredicates))
	for _, fp := range t.FilterPredicates {
		val, err := p.Ctx.BindingCtx.ResolveFilterValue("", fp.Value)
		if err != nil {
			val = fp.Value
		}
		ph := p.addParam(rawParam(val))
		parts = append(parts, fmt.Sprintf("%s.%s = %s", alias, fp.Column, ph))
	}
	return joinStrings(parts, " AND ")
}

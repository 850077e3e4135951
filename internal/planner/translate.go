package planner

import (
	"fmt"
	"sort"

	"audlangsql/internal/binding"
	"audlangsql/internal/cerr"
	"audlangsql/internal/expr"
	"audlangsql/internal/op"
	"audlangsql/internal/sqlkind"
	"audlangsql/internal/value"
)

// compiled is one translated subexpression: the with-clause CTEs and joins
// it needed, plus the boolean fragment to AND/OR into the enclosing WHERE
// (spec §4.4.3). A leaf that resolves to the chosen base table on a
// single-row column folds straight into this fragment with no CTE/join at
// all (the "inline join" form); anything else materialises its own
// with-clause alias and LEFT OUTER JOIN against base.
type compiled struct {
	ctes  []string
	joins []string
	where string
}

func (c compiled) merge(o compiled) compiled {
	return compiled{
		ctes:  append(append([]string(nil), c.ctes...), o.ctes...),
		joins: append(append([]string(nil), c.joins...), o.joins...),
	}
}

type compiler struct {
	p    *Planner
	base baseQuery
}

func newCompiler(p *Planner, base baseQuery) *compiler { return &compiler{p: p, base: base} }

// canInline reports whether res resolves to a single-row column on the
// already-chosen base table — the §4.4.3 "simple positive single-row
// condition on the base table" shape that can fold directly into base's
// own WHERE instead of materialising a with-clause alias. A synthetic
// union base never matches here since its table text is a parenthesized
// subquery, never a real table name.
func (c *compiler) canInline(res binding.Resolved) bool {
	return res.Table.TableName == c.base.table && !res.Column.MultiRow
}

// qualify prefixes col with qualifier (a table or alias name), or returns
// col bare when qualifier is empty.
func qualify(qualifier, col string) string {
	if qualifier == "" {
		return col
	}
	return qualifier + "." + col
}

// andWhere ANDs together the non-empty parts, wrapping in parens only when
// there is more than one — a single part is returned bare so the common
// case (no column filter predicate) keeps its minimal shape.
func andWhere(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	default:
		return "(" + joinStrings(nonEmpty, " AND ") + ")"
	}
}

// columnFilter renders a column's own filter predicates ANDed together,
// qualified by qualifier (spec §3 FilterPredicate: always ANDed alongside
// the column's own appearance in any WHERE/ON clause, mirroring
// (*Planner).tableFilter's table-level counterpart).
func (c *compiler) columnFilter(col *binding.DataColumn, qualifier string) string {
	if len(col.FilterPredicates) == 0 {
		return ""
	}
	parts := make([]string, 0, len(col.FilterPredicates))
	for _, fp := range col.FilterPredicates {
		val, err := c.p.Ctx.BindingCtx.ResolveFilterValue("", fp.Value)
		if err != nil {
			val = fp.Value
		}
		ph := c.p.addParam(rawParam(val))
		parts = append(parts, fmt.Sprintf("%s = %s", qualify(qualifier, fp.Column), ph))
	}
	return joinStrings(parts, " AND ")
}

func (c *compiler) compile(id expr.NodeID) (compiled, error) {
	n := c.p.Arena.Node(id)
	switch n.Kind {
	case expr.KindMatch:
		return c.compileMatch(n)
	case expr.KindNegation:
		return c.compileNegation(n)
	case expr.KindCombined:
		return c.compileCombined(n)
	case expr.KindSpecialSet:
		return c.compileSpecialSet(n)
	case expr.KindInList:
		return c.compileInList(n, n.InNegated)
	default:
		return compiled{}, fmt.Errorf("planner: unhandled node kind %d", n.Kind)
	}
}

// itemKind distinguishes an uncoalesced CombinedExpression member from an
// already-merged §4.4.5 IN/NOT-IN aggregate.
type itemKind int

const (
	itemRaw itemKind = iota
	itemGroup
)

// coalesceGroup is a merged arg-IN-(values…) / arg-NOT-IN-(values…)
// aggregate: the deduplicated union of every literal value contributed by
// the members it has absorbed.
type coalesceGroup struct {
	arg     string
	negated bool
	values  []string
}

// pendingItem is one element of compileCombined's working set: either an
// original member node or a coalesceGroup produced by a previous round.
type pendingItem struct {
	kind  itemKind
	node  expr.NodeID
	group *coalesceGroup
}

// compileCombined performs §4.4.5 IN-clause coalescing to a fixed point:
// same-attribute positive-equals members coalesce under OR into one
// arg-IN-(...) with-clause, and negated-equals members coalesce under AND
// into one arg-NOT-IN-(...) with-clause — absorbing both plain
// Match(arg, EQUALS, literal) members and members that are already
// IN/NOT-IN lists. Unioning every contributing member's values into one
// group handles the IN(S)∪IN(T) merge rule directly, and the same union on
// the AND/NOT-IN side handles NOT IN(S)∩NOT IN(T) subsumption when S⊆T,
// since S∪T collapses to T in that case. compileCombined reruns the
// grouping pass until a round absorbs nothing further, which — because a
// group is terminal and can only be classified once per attribute — always
// reaches that fixed point within two rounds.
func (c *compiler) compileCombined(n expr.Node) (compiled, error) {
	items := make([]pendingItem, len(n.Members))
	for i, m := range n.Members {
		items[i] = pendingItem{kind: itemRaw, node: m}
	}

	for {
		next, changed := c.coalesceRound(n.CombineOp, items)
		items = next
		if !changed {
			break
		}
	}

	var grouped compiled
	fragments := make([]string, 0, len(items))
	for _, it := range items {
		var sub compiled
		var err error
		if it.kind == itemGroup {
			sub, err = c.compileInListValues(it.group.arg, it.group.values, it.group.negated, op.Equals)
		} else {
			sub, err = c.compile(it.node)
		}
		if err != nil {
			return compiled{}, err
		}
		grouped = grouped.merge(sub)
		fragments = append(fragments, sub.where)
	}

	sep := " AND "
	if n.CombineOp == expr.Or {
		sep = " OR "
	}
	grouped.where = "(" + joinStrings(fragments, sep) + ")"
	return grouped, nil
}

// coalesceRound buckets items by attribute (only items classifyCoalescable
// accepts for combineOp contribute to a bucket), unions each bucket with
// two or more contributors into one coalesceGroup, and returns the next
// item list plus whether anything changed — the fixed-point loop in
// compileCombined stops as soon as a round changes nothing. Bucket order
// follows first appearance so the assembled WHERE fragment order stays
// deterministic.
func (c *compiler) coalesceRound(combineOp expr.CombineOp, items []pendingItem) ([]pendingItem, bool) {
	type bucket struct {
		negated bool
		values  []string
		seen    map[string]bool
		count   int
	}
	buckets := map[string]*bucket{}
	var order []string
	argOf := make([]string, len(items))

	for i, it := range items {
		arg, negated, values, ok := c.classifyCoalescable(combineOp, it)
		if !ok {
			continue
		}
		argOf[i] = arg
		b, exists := buckets[arg]
		if !exists {
			b = &bucket{negated: negated, seen: map[string]bool{}}
			buckets[arg] = b
			order = append(order, arg)
		}
		for _, v := range values {
			if !b.seen[v] {
				b.seen[v] = true
				b.values = append(b.values, v)
			}
		}
		b.count++
	}

	groupOf := map[string]pendingItem{}
	anyMerge := false
	for _, arg := range order {
		b := buckets[arg]
		if b.count < 2 {
			continue
		}
		sort.Strings(b.values)
		groupOf[arg] = pendingItem{kind: itemGroup, group: &coalesceGroup{arg: arg, negated: b.negated, values: b.values}}
		anyMerge = true
	}
	if !anyMerge {
		return items, false
	}

	next := make([]pendingItem, 0, len(items))
	emitted := map[string]bool{}
	for i, it := range items {
		g, ok := groupOf[argOf[i]]
		if !ok {
			next = append(next, it)
			continue
		}
		if !emitted[argOf[i]] {
			next = append(next, g)
			emitted[argOf[i]] = true
		}
	}
	return next, true
}

// classifyCoalescable reports whether it participates in combineOp's
// §4.4.5 coalescing: a plain positive equals Match or an already-merged
// group for OR, a Negation(Match(EQUALS)) or an already-merged negated
// group for AND — in every case excluding date-aligned comparisons, which
// spec §4.4.7 requires to keep their own range predicate.
func (c *compiler) classifyCoalescable(combineOp expr.CombineOp, it pendingItem) (arg string, negated bool, values []string, ok bool) {
	if it.kind == itemGroup {
		if it.group.negated != (combineOp == expr.And) {
			return "", false, nil, false
		}
		return it.group.arg, it.group.negated, it.group.values, true
	}

	mn := c.p.Arena.Node(it.node)
	if combineOp == expr.Or {
		if isPlainEquals(mn) && !c.isDateAligned(mn) {
			return mn.Arg, false, []string{mn.Operand.Literal}, true
		}
		if mn.Kind == expr.KindInList && !mn.InNegated {
			return mn.Arg, false, append([]string(nil), mn.InValues...), true
		}
	}
	if combineOp == expr.And {
		if mn.Kind == expr.KindNegation {
			inner := c.p.Arena.Node(mn.Inner)
			if isPlainEquals(inner) && !c.isDateAligned(inner) {
				return inner.Arg, true, []string{inner.Operand.Literal}, true
			}
		}
		if mn.Kind == expr.KindInList && mn.InNegated {
			return mn.Arg, true, append([]string(nil), mn.InValues...), true
		}
	}
	return "", false, nil, false
}

// isDateAligned reports whether a plain-equals member needs §4.4.7 date
// alignment and must therefore be excluded from §4.4.5 IN-clause
// coalescing (date-typed arguments with range alignment are excluded from
// coalescing per spec).
func (c *compiler) isDateAligned(n expr.Node) bool {
	res, err := c.p.resolve(n.Arg)
	if err != nil {
		return false
	}
	return res.Column.SQLKind == string(sqlkind.Timestamp) && looksLikeBareDate(n.Operand.Literal)
}

func isPlainEquals(n expr.Node) bool {
	return n.Kind == expr.KindMatch && n.Op == op.Equals && !n.Operand.IsReference()
}

func (c *compiler) compileInList(n expr.Node, negated bool) (compiled, error) {
	return c.compileInListValues(n.Arg, n.InValues, negated, op.Equals)
}

// compileInListValues materialises a with-clause selecting ids whose
// column's value is one of values, then predicates on alias membership
// (spec §4.4.5).
func (c *compiler) compileInListValues(attr string, values []string, negated bool, matchOp op.MatchOperator) (compiled, error) {
	res, err := c.p.resolve(attr)
	if err != nil {
		return compiled{}, err
	}
	if res.Column.SQLKind == "" {
		return compiled{}, fmt.Errorf("planner: column %q has no sql kind", res.Column.ColumnName)
	}

	placeholders := make([]string, 0, len(values))
	for _, v := range values {
		qp, err := c.p.Creator.Create("", attr, logicalType(res), v, matchOp, res.Column.SQLKind)
		if err != nil {
			return compiled{}, err
		}
		placeholders = append(placeholders, c.p.addParam(qp))
	}

	dataPred := fmt.Sprintf("%s IN (%s)", res.Column.ColumnName, joinStrings(placeholders, ", "))
	where := andWhere(dataPred, c.columnFilter(res.Column, ""))

	alias := c.p.nextAlias()
	cte := fmt.Sprintf("%s AS (SELECT DISTINCT %s AS ID FROM %s WHERE %s)",
		alias, res.Table.IDColumnName, res.Table.TableName, where)

	join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.%s", alias, alias, "ID")
	pred := alias + ".ID IS NOT NULL"
	if negated {
		pred = alias + ".ID IS NULL"
	}
	return compiled{ctes: []string{cte}, joins: []string{join}, where: pred}, nil
}

// compileMatch materialises the with-clause for a single leaf condition
// (spec §4.4.3, §4.4.6, §4.4.7).
func (c *compiler) compileMatch(n expr.Node) (compiled, error) {
	if err := c.p.checkOperator(n.Op); err != nil {
		return compiled{}, err
	}

	res, err := c.p.resolve(n.Arg)
	if err != nil {
		return compiled{}, err
	}

	if n.Op == op.IsUnknown {
		return c.compileIsUnknown(n.Arg, res)
	}

	if n.Operand.IsReference() {
		return c.compileReferenceMatch(n, res)
	}

	return c.compileLiteralMatch(n, res)
}

func (c *compiler) compileIsUnknown(attr string, res binding.Resolved) (compiled, error) {
	if res.Table.Nature.Cardinality != binding.AllIDs || res.Column.MultiRow {
		return compiled{}, &cerr.StaticResult{Value: false, Reason: "IS_UNKNOWN on a non-ALL_IDS or multi-row attribute is not well-defined; treating as AlwaysFalse per §4.4.2"}
	}
	dataPred := res.Column.ColumnName + " IS NOT NULL"
	where := andWhere(dataPred, c.columnFilter(res.Column, ""))

	alias := c.p.nextAlias()
	cte := fmt.Sprintf("%s AS (SELECT DISTINCT %s AS ID FROM %s WHERE %s)",
		alias, res.Table.IDColumnName, res.Table.TableName, where)
	join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
	return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NULL"}, nil
}

// compileLiteralMatch dispatches to the inline form (spec §4.4.3: "for
// simple positive single-row conditions on the base table, inline") when
// the leaf's column lives on the already-chosen base table, and to the
// with-clause alias form otherwise.
func (c *compiler) compileLiteralMatch(n expr.Node, res binding.Resolved) (compiled, error) {
	if c.canInline(res) {
		return c.inlineLiteralMatch(n, res)
	}
	return c.withClauseLiteralMatch(n, res)
}

// inlineLiteralMatch folds the condition directly into base's own WHERE,
// qualified by base's alias, with no CTE or join at all.
func (c *compiler) inlineLiteralMatch(n expr.Node, res binding.Resolved) (compiled, error) {
	aligned, cmpOp, err := c.dateAligned(n, res, c.base.alias)
	if err != nil {
		return compiled{}, err
	}
	filter := c.columnFilter(res.Column, c.base.alias)
	if aligned != "" {
		return compiled{where: andWhere(aligned, filter)}, nil
	}

	qp, err := c.p.Creator.Create("", n.Arg, logicalType(res), n.Operand.Literal, cmpOp, res.Column.SQLKind)
	if err != nil {
		return compiled{}, err
	}
	ph := c.p.addParam(qp)
	sqlOp := sqlOperator(cmpOp)
	dataPred := fmt.Sprintf("%s %s %s", qualify(c.base.alias, res.Column.ColumnName), sqlOp, ph)
	return compiled{where: andWhere(dataPred, filter)}, nil
}

// withClauseLiteralMatch is the §4.4.3 with-clause alias form: a CTE
// selecting ids matching the condition, LEFT OUTER JOINed against base.
func (c *compiler) withClauseLiteralMatch(n expr.Node, res binding.Resolved) (compiled, error) {
	aligned, cmpOp, err := c.dateAligned(n, res, "")
	if err != nil {
		return compiled{}, err
	}
	filter := c.columnFilter(res.Column, "")
	if aligned != "" {
		where := andWhere(aligned, filter)
		alias := c.p.nextAlias()
		cte := fmt.Sprintf("%s AS (SELECT DISTINCT %s AS ID FROM %s WHERE %s)",
			alias, res.Table.IDColumnName, res.Table.TableName, where)
		join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
		return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NOT NULL"}, nil
	}

	qp, err := c.p.Creator.Create("", n.Arg, logicalType(res), n.Operand.Literal, cmpOp, res.Column.SQLKind)
	if err != nil {
		return compiled{}, err
	}
	ph := c.p.addParam(qp)

	sqlOp := sqlOperator(cmpOp)
	dataPred := fmt.Sprintf("%s %s %s", res.Column.ColumnName, sqlOp, ph)
	where := andWhere(dataPred, filter)
	alias := c.p.nextAlias()
	cte := fmt.Sprintf("%s AS (SELECT DISTINCT %s AS ID FROM %s WHERE %s)",
		alias, res.Table.IDColumnName, res.Table.TableName, where)
	join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
	return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NOT NULL"}, nil
}

// compileReferenceMatch implements §4.4.6: same-table comparisons use a
// self-join alias, cross-table ones join both tables directly in the
// with-clause's own FROM.
func (c *compiler) compileReferenceMatch(n expr.Node, left binding.Resolved) (compiled, error) {
	if err := c.p.checkDirective(c.p.Ctx.Directives.DisableReferenceMatching, "reference matching is disabled by directive"); err != nil {
		return compiled{}, err
	}
	right, err := c.p.resolve(n.Operand.RefArg)
	if err != nil {
		return compiled{}, err
	}

	sqlOp := sqlOperator(n.Op)
	alias := c.p.nextAlias()

	if left.Table.TableName == right.Table.TableName {
		self := "sq__self"
		cmp := fmt.Sprintf("%s.%s %s %s.%s", left.Table.TableName, left.Column.ColumnName, sqlOp, self, right.Column.ColumnName)
		where := andWhere(cmp, c.columnFilter(left.Column, left.Table.TableName), c.columnFilter(right.Column, self))
		cte := fmt.Sprintf(
			"%s AS (SELECT DISTINCT %s.%s AS ID FROM %s %s INNER JOIN %s %s ON %s.%s = %s.%s WHERE %s)",
			alias, left.Table.TableName, left.Table.IDColumnName, left.Table.TableName, left.Table.TableName,
			left.Table.TableName, self, left.Table.TableName, left.Table.IDColumnName, self, left.Table.IDColumnName,
			where,
		)
		join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
		return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NOT NULL"}, nil
	}

	cmp := fmt.Sprintf("%s.%s %s %s.%s", left.Table.TableName, left.Column.ColumnName, sqlOp, right.Table.TableName, right.Column.ColumnName)
	where := andWhere(cmp, c.columnFilter(left.Column, left.Table.TableName), c.columnFilter(right.Column, right.Table.TableName))
	cte := fmt.Sprintf(
		"%s AS (SELECT DISTINCT %s.%s AS ID FROM %s %s INNER JOIN %s %s ON %s.%s = %s.%s WHERE %s)",
		alias, left.Table.TableName, left.Table.IDColumnName, left.Table.TableName, left.Table.TableName,
		right.Table.TableName, right.Table.TableName, left.Table.TableName, left.Table.IDColumnName, right.Table.TableName, right.Table.IDColumnName,
		where,
	)
	join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
	return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NOT NULL"}, nil
}

// compileNegation implements §4.4.4's two-alias decomposition, generalised
// from "a single Match leaf" to any inner expression: A is the ids
// satisfying the inner condition (computed by the normal positive
// compiler), E is the ids for which every attribute the inner condition
// touches is decided (has any value). Rather than re-deriving the literal
// "E NOT NULL AND A NULL" SQL text as a second pair of with-aliases, the
// decomposition is expressed directly with ANSI NOT(...) over A and E's
// own membership predicates, which is logically identical and avoids
// threading a duplicate alias pair through assembly.
func (c *compiler) compileNegation(n expr.Node) (compiled, error) {
	a, err := c.compile(n.Inner)
	if err != nil {
		return compiled{}, err
	}
	e, err := c.compileHasValue(n.Inner)
	if err != nil {
		return compiled{}, err
	}

	merged := a.merge(e)
	if n.Strict {
		merged.where = fmt.Sprintf("(%s) AND NOT (%s)", e.where, a.where)
		return merged, nil
	}
	merged.where = fmt.Sprintf("((%s) AND NOT (%s)) OR NOT (%s)", e.where, a.where, e.where)
	return merged, nil
}

// compileHasValue builds the "E" decided-set predicate for every distinct
// attribute an inner expression touches (spec §4.4.4's "has any value"
// set, generalised across every leaf the inner expression reaches —
// including both sides of a reference match, per the "existence witnesses
// for both sides" rule).
func (c *compiler) compileHasValue(root expr.NodeID) (compiled, error) {
	seen := map[string]bool{}
	var attrs []string
	c.p.Arena.Walk(root, func(_ expr.NodeID, node expr.Node) {
		switch node.Kind {
		case expr.KindMatch:
			if !seen[node.Arg] {
				seen[node.Arg] = true
				attrs = append(attrs, node.Arg)
			}
			if node.Operand.IsReference() && !seen[node.Operand.RefArg] {
				seen[node.Operand.RefArg] = true
				attrs = append(attrs, node.Operand.RefArg)
			}
		case expr.KindInList:
			if !seen[node.Arg] {
				seen[node.Arg] = true
				attrs = append(attrs, node.Arg)
			}
		}
	})

	var merged compiled
	var preds []string
	for _, attr := range attrs {
		res, err := c.p.resolve(attr)
		if err != nil {
			return compiled{}, err
		}
		where := andWhere(res.Column.ColumnName+" IS NOT NULL", c.columnFilter(res.Column, ""))
		alias := c.p.nextAlias()
		cte := fmt.Sprintf("%s AS (SELECT DISTINCT %s AS ID FROM %s WHERE %s)",
			alias, res.Table.IDColumnName, res.Table.TableName, where)
		join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
		merged.ctes = append(merged.ctes, cte)
		merged.joins = append(merged.joins, join)
		preds = append(preds, alias+".ID IS NOT NULL")
	}
	if len(preds) == 0 {
		merged.where = "1 = 1"
		return merged, nil
	}
	merged.where = joinStrings(preds, " AND ")
	return merged, nil
}

// compileSpecialSet materialises the §3/SPEC_FULL "SpecialSet" leaf: a
// named, pre-computed id-set bound at plan time through the process
// context. The context variable named after the set is bound, whole, as one
// VARCHAR parameter in a single-row "SELECT ? AS ID" CTE: it yields exactly
// one id, a list of ids in the variable is not split, and a variable naming
// an existing CTE is not treated as a reference to it.
func (c *compiler) compileSpecialSet(n expr.Node) (compiled, error) {
	alias := c.p.nextAlias()
	literal, err := c.p.Ctx.BindingCtx.ResolveFilterValue("", "${"+n.SetName+"}")
	if err != nil {
		return compiled{}, &cerr.ConversionError{Code: cerr.CodeMappingFailed, Reason: fmt.Sprintf("special set %q is not bound in the process context", n.SetName)}
	}
	ph := c.p.addParam(rawParam(literal))
	cte := fmt.Sprintf("%s AS (SELECT %s AS ID)", alias, ph)
	join := fmt.Sprintf("LEFT OUTER JOIN %s ON %s.ID = base.ID", alias, alias)
	return compiled{ctes: []string{cte}, joins: []string{join}, where: alias + ".ID IS NOT NULL"}, nil
}

// dateAligned implements §4.4.7: a logical DATE compared to a
// SQL_TIMESTAMP column expands to a half-open interval rather than an
// exact equality/ordered comparison. Returns ("", op, nil) when no
// alignment is needed.
func (c *compiler) dateAligned(n expr.Node, res binding.Resolved, qualifier string) (string, op.MatchOperator, error) {
	if res.Column.SQLKind != string(sqlkind.Timestamp) || !looksLikeBareDate(n.Operand.Literal) {
		return "", n.Op, nil
	}
	col := qualify(qualifier, res.Column.ColumnName)
	dayStart, err := c.p.Creator.Create("", n.Arg, logicalType(res), n.Operand.Literal, op.GreaterThan, res.Column.SQLKind)
	if err != nil {
		return "", n.Op, err
	}
	lo := c.p.addParam(dayStart)
	nextDayQP := dayStart
	nextDayQP.ID = ""
	nextDayQP.Transfer = value.TransferTimestamp(dayStart.Transfer.Timestamp + 24*60*60*1000)
	hi := c.p.addParam(nextDayQP)

	switch n.Op {
	case op.Equals:
		return fmt.Sprintf("%s >= %s AND %s < %s", col, lo, col, hi), n.Op, nil
	case op.GreaterThan:
		return fmt.Sprintf("%s >= %s", col, hi), n.Op, nil
	case op.LessThan:
		return fmt.Sprintf("%s < %s", col, lo), n.Op, nil
	default:
		return "", n.Op, nil
	}
}

// looksLikeBareDate reports whether raw is a yyyy-MM-dd literal with no
// time-of-day component, the trigger condition for §4.4.7 date alignment.
func looksLikeBareDate(raw string) bool {
	if len(raw) != 10 {
		return false
	}
	for i, r := range raw {
		switch i {
		case 4, 7:
			if r != '-' {
				return false
			}
		default:
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func sqlOperator(o op.MatchOperator) string {
	switch o {
	case op.Equals:
		return "="
	case op.GreaterThan:
		return ">"
	case op.LessThan:
		return "<"
	case op.Contains:
		return "LIKE"
	default:
		return "="
	}
}

func logicalType(res binding.Resolved) value.AttributeType {
	k, ok := sqlkindToLogical(res.Column.SQLKind)
	if !ok {
		k = value.KindString
	}
	return value.AttributeType{Kind: k}
}

// sqlkindToLogical infers a source logical kind from the target SQL kind's
// family. Attaching an attribute's own declared logical type is an
// upstream concern the core does not own (spec §1 Non-goals); absent one,
// the planner assumes the natural logical counterpart of the bound
// column's family, which is exact for every built-in kind except the
// numeric/character ones, where the caller's raw literal text still drives
// the real coercion inside param.Creator.Create.
func sqlkindToLogical(name string) (value.BaseKind, bool) {
	reg := sqlkind.DefaultRegistry()
	k, ok := reg.Lookup(name)
	if !ok {
		return "", false
	}
	switch k.Base().Family() {
	case sqlkind.FamilyBoolean:
		return value.KindBool, true
	case sqlkind.FamilyInteger:
		return value.KindInteger, true
	case sqlkind.FamilyFloating:
		return value.KindDecimal, true
	case sqlkind.FamilyDateTime:
		return value.KindDate, true
	default:
		return value.KindString, true
	}
}

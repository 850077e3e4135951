package planner

import "audlangsql/internal/expr"

// stats is the result of the §4.4.1 pre-pass: the attribute set used by the
// expression, their multi-row sensitivity, and the tables involved.
type stats struct {
	attrs  map[string]attrInfo
	tables map[string]bool
}

// collectStats walks the arena once from root, resolving every attribute
// through the binding to record its multi-row flag and tables. Later
// stages still resolve attributes through the binding themselves.
func (p *Planner) collectStats(root expr.NodeID) stats {
	st := stats{attrs: map[string]attrInfo{}, tables: map[string]bool{}}

	var touch func(attr string)
	touch = func(attr string) {
		if _, ok := st.attrs[attr]; ok {
			return
		}
		info := attrInfo{tables: map[string]bool{}}
		if res, err := p.resolve(attr); err == nil {
			info.multiRow = res.Column.MultiRow
			st.tables[res.Table.TableName] = true
			info.tables[res.Table.TableName] = true
		}
		st.attrs[attr] = info
	}

	p.Arena.Walk(root, func(_ expr.NodeID, n expr.Node) {
		switch n.Kind {
		case expr.KindMatch:
			touch(n.Arg)
			if n.Operand.IsReference() {
				touch(n.Operand.RefArg)
			}
		case expr.KindInList:
			touch(n.Arg)
		}
	})

	return st
}

// Package planner implements the expression-to-SQL planner (spec §4.4): it
// turns an already-normalised core expression plus a DataBinding and
// ProcessContext into a QueryTemplateWithParameters — a SQL template with
// ${id}-turned-? placeholders, an ordered parameter list, and the
// placeholder positions, ready for the template linker.
package planner

import (
	"fmt"

	"go.uber.org/zap"

	"audlangsql/internal/binding"
	"audlangsql/internal/cerr"
	"audlangsql/internal/equiv"
	"audlangsql/internal/expr"
	"audlangsql/internal/linker"
	"audlangsql/internal/op"
	"audlangsql/internal/param"
	"audlangsql/internal/sqlkind"
	"audlangsql/internal/value"
)

// QueryShape is one of the three top-level statement shapes the planner
// supports (spec §4.4).
type QueryShape int

const (
	SelectDistinctID QueryShape = iota
	SelectDistinctIDOrdered
	SelectDistinctCount
)

// Directives are the configuration flags a caller may set to forbid
// specific constructs (spec §4.4.8, §6).
type Directives struct {
	EnforcePrimaryTable        bool
	DisableUnion               bool
	DisableContains            bool
	DisableLessThanGreaterThan bool
	DisableReferenceMatching   bool
}

// ProcessContext bundles everything the planner needs beyond the arena
// itself: the variable/filter resolution context, the active directives, a
// logger for diagnostics, and the logical-equivalence time budget (spec
// §4.3, §4.4, §5).
type ProcessContext struct {
	BindingCtx *binding.Context
	Directives Directives
	Log        *zap.SugaredLogger
	TimeOut    *equiv.TimeOut
}

// NewProcessContext builds a ProcessContext, defaulting a nil logger to a
// no-op one so library consumers pay nothing unless they opt into logging
// (spec §9 "Global singletons" ambient-stack note).
func NewProcessContext(bindingCtx *binding.Context, directives Directives, log *zap.SugaredLogger, to *equiv.TimeOut) *ProcessContext {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if to == nil {
		to = equiv.Unbounded()
	}
	return &ProcessContext{BindingCtx: bindingCtx, Directives: directives, Log: log, TimeOut: to}
}

// QueryTemplateWithParameters is the planner's exit contract (spec §4.4,
// §6): a SQL template with ? placeholders, the ordered parameters bound to
// each placeholder, and the placeholder's character positions.
type QueryTemplateWithParameters struct {
	SQL        string
	Parameters []param.QueryParameter
	Positions  []int
}

// fromLinked wraps a linker.Linked value as a template, sharing its SQL,
// parameter and position slices without copying them.
func fromLinked(l linker.Linked) *QueryTemplateWithParameters {
	return &QueryTemplateWithParameters{SQL: l.SQL, Parameters: l.Parameters, Positions: l.Positions}
}

// Apply binds every parameter in order and invokes exec (spec §5 "apply").
func (q *QueryTemplateWithParameters) Apply(exec func(args ...any) error) error {
	return param.DefaultApplicator().Apply(exec, q.Parameters)
}

// Planner compiles one core expression (rooted at Root within Arena)
// against Binding under ProcessContext.
type Planner struct {
	Arena   *expr.Arena
	Root    expr.NodeID
	Binding *binding.Binding
	Ctx     *ProcessContext
	Creator *param.Creator
	helper  *equiv.Helper

	params   map[string]param.QueryParameter
	seq      int
	attrType map[string]attrInfo // filled by stats pass
}

type attrInfo struct {
	attrType  attrTypeInfo
	multiRow  bool
	tables    map[string]bool
}

// attrTypeInfo is a thin placeholder for the caller-supplied logical type
// of an attribute; the planner learns it lazily from the resolved
// DataColumn + the binding lookup rather than a separate type table, since
// spec §3/§4.3 ties an attribute's logical kind to the column it resolves
// to only at Lookup time.
type attrTypeInfo struct{}

// New builds a Planner. creator defaults to param.DefaultCreator() when nil.
func New(arena *expr.Arena, root expr.NodeID, b *binding.Binding, ctx *ProcessContext, creator *param.Creator) *Planner {
	if ctx == nil {
		ctx = NewProcessContext(binding.NewContext("default", nil), Directives{}, nil, nil)
	}
	if creator == nil {
		creator = param.DefaultCreator()
	}
	return &Planner{
		Arena:   arena,
		Root:    root,
		Binding: b,
		Ctx:     ctx,
		Creator: creator,
		helper:  equiv.NewHelper(arena, ctx.TimeOut),
		params:  map[string]param.QueryParameter{},
	}
}

// Plan runs the full pipeline and returns the finished template (spec
// §4.4 "Output").
func (p *Planner) Plan(shape QueryShape) (*QueryTemplateWithParameters, error) {
	if err := p.Binding.Validate(); err != nil {
		return nil, err
	}

	st := p.collectStats(p.Root)
	p.attrType = st.attrs

	base, err := p.chooseBaseQuery(p.Root, st)
	if err != nil {
		return nil, err
	}

	c := newCompiler(p, base)
	core, err := c.compile(p.Root)
	if err != nil {
		return nil, err
	}

	fragment, err := p.assemble(shape, base, core)
	if err != nil {
		return nil, err
	}

	linked, err := linker.Link(fragment, p.params)
	if err != nil {
		return nil, err
	}
	return fromLinked(linked), nil
}

// assemble wires the final SELECT/WITH/JOIN/WHERE text together (spec
// §4.4.3).
func (p *Planner) assemble(shape QueryShape, base baseQuery, core compiled) (string, error) {
	selectCol := fmt.Sprintf("%s.%s", base.alias, base.idColumn)

	var selectClause string
	switch shape {
	case SelectDistinctID, SelectDistinctIDOrdered:
		selectClause = fmt.Sprintf("SELECT DISTINCT %s AS ID", selectCol)
	case SelectDistinctCount:
		selectClause = fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS CNT", selectCol)
	default:
		return "", fmt.Errorf("planner: unknown query shape %d", shape)
	}

	withClause := ""
	if len(core.ctes) > 0 {
		withClause = "WITH " + joinStrings(core.ctes, ",\n") + "\n"
	}

	fromClause := fmt.Sprintf("FROM %s %s", base.table, base.alias)
	joinClause := ""
	if len(core.joins) > 0 {
		joinClause = "\n" + joinStrings(core.joins, "\n")
	}

	whereClause := ""
	switch {
	case base.filter != "" && core.where != "":
		whereClause = "\nWHERE (" + base.filter + ") AND (" + core.where + ")"
	case core.where != "":
		whereClause = "\nWHERE " + core.where
	case base.filter != "":
		whereClause = "\nWHERE " + base.filter
	}

	orderClause := ""
	if shape == SelectDistinctIDOrdered {
		orderClause = "\nORDER BY ID"
	}

	sql := withClause + selectClause + "\n" + fromClause + joinClause + whereClause + orderClause
	return sql, nil
}

func joinStrings(ss []string, sep string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

// nextAlias issues the next with-clause alias name (spec §4.4.3: sq__<n>).
func (p *Planner) nextAlias() string {
	p.seq++
	return fmt.Sprintf("sq__%d", p.seq)
}

// addParam registers a QueryParameter under its id (auto-issuing one when
// the id is empty) and returns the ${id} placeholder text referencing it.
func (p *Planner) addParam(qp param.QueryParameter) string {
	if qp.ID == "" {
		qp.ID = param.NextID()
	}
	p.params[qp.ID] = qp
	return "${" + qp.ID + "}"
}

// resolve looks up attribute through the binding, wrapping the planner's
// own context.
func (p *Planner) resolve(attribute string) (binding.Resolved, error) {
	return p.Binding.Lookup(attribute, p.Ctx.BindingCtx)
}

// checkDirective enforces a directive and returns a ConversionError when it
// is violated (spec §4.4.8).
func (p *Planner) checkDirective(cond bool, reason string) error {
	if cond {
		return &cerr.ConversionError{Code: cerr.CodeDirectiveViolation, Reason: reason}
	}
	return nil
}

// rawParam builds a QueryParameter carrying raw as a plain VARCHAR string,
// for contexts (table/column filter predicates, SpecialSet literals) that
// bind a configuration-time constant rather than a typed attribute value.
func rawParam(raw string) param.QueryParameter {
	kind, _ := sqlkind.DefaultRegistry().Lookup(string(sqlkind.VarChar))
	return param.QueryParameter{ID: param.NextID(), Kind: kind, Transfer: value.TransferStr(raw), Operator: op.Equals}
}

func (p *Planner) checkOperator(o op.MatchOperator) error {
	switch o {
	case op.Contains:
		return p.checkDirective(p.Ctx.Directives.DisableContains, "CONTAINS is disabled by directive")
	case op.GreaterThan, op.LessThan:
		return p.checkDirective(p.Ctx.Directives.DisableLessThanGreaterThan, "ordered comparison is disabled by directive")
	}
	return nil
}

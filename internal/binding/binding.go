// Package binding implements the data-binding model (spec §4.3, §3): the
// mapping from logical attribute names to physical (table, column) pairs,
// static and rule-based lookup, filter-predicate resolution against a
// process context, and table/column identifier validation.
package binding

import (
	"fmt"
	"regexp"
	"strings"

	"audlangsql/internal/cerr"
)

// Cardinality is the id-coverage shape of a table relative to the
// reference universe (spec §3 TableNature).
type Cardinality string

const (
	AllIDs   Cardinality = "ALL_IDS"
	IDSubset Cardinality = "ID_SUBSET"
	Sparse   Cardinality = "SPARSE"
)

// TableNature describes a table's id-coverage and uniqueness shape.
type TableNature struct {
	Cardinality Cardinality
	UniqueIDs   bool
}

// FilterPredicate is a literal column-equals condition, always ANDed into
// every reference to the table or column it is attached to (spec §3). Value
// may reference process-context variables via ${var} / ${var.local}.
type FilterPredicate struct {
	Column string
	Value  string
}

// AutoMappingPolicy derives a column name from an attribute name, e.g. by
// stripping a fixed suffix. It returns ok=false when the attribute does not
// match the policy's shape.
type AutoMappingPolicy func(attribute string) (column string, ok bool)

// SuffixStripPolicy builds an AutoMappingPolicy that accepts attributes
// ending in suffix and maps them to the attribute name with that suffix
// removed (the teacher-grounded idiom: a small predicate + transform pair
// rather than a regex DSL).
func SuffixStripPolicy(suffix string) AutoMappingPolicy {
	return func(attribute string) (string, bool) {
		if !strings.HasSuffix(attribute, suffix) {
			return "", false
		}
		base := strings.TrimSuffix(attribute, suffix)
		if base == "" {
			return "", false
		}
		return base, true
	}
}

// DataColumn is one physical column a table exposes for attribute binding.
type DataColumn struct {
	ColumnName       string
	SQLKind          string // registered sqlkind.Kind name
	AttributeMapping string // explicit attribute name this column serves ("" if rule-based only)
	MultiRow         bool
	FilterPredicates []FilterPredicate
}

// SingleTableConfig is one physical table participating in a DataBinding.
type SingleTableConfig struct {
	TableName        string
	IDColumnName     string
	FilterPredicates []FilterPredicate
	Columns          []*DataColumn
	Primary          bool
	Nature           TableNature
	AutoMapping      AutoMappingPolicy
}

// ColumnForAttribute resolves attribute to one of this table's columns,
// consulting explicit mappings first and the rule-based AutoMapping second
// (spec §4.3: "first acceptance wins").
func (t *SingleTableConfig) ColumnForAttribute(attribute string) (*DataColumn, bool) {
	for _, c := range t.Columns {
		if c.AttributeMapping == attribute {
			return c, true
		}
	}
	if t.AutoMapping != nil {
		if colName, ok := t.AutoMapping(attribute); ok {
			for _, c := range t.Columns {
				if c.ColumnName == colName {
					return c, true
				}
			}
		}
	}
	return nil, false
}

// hasExplicitMapping reports whether attribute is bound via an explicit
// AttributeMapping on this table (used to decide whether a second,
// rule-based acceptance elsewhere is a true ambiguity; spec §4.3).
func (t *SingleTableConfig) hasExplicitMapping(attribute string) bool {
	for _, c := range t.Columns {
		if c.AttributeMapping == attribute {
			return true
		}
	}
	return false
}

// Binding is the set of SingleTableConfigs forming one DataBinding (spec
// §3).
type Binding struct {
	Tables []*SingleTableConfig
}

// Primary returns the table tagged primary, if any.
func (b *Binding) Primary() (*SingleTableConfig, bool) {
	for _, t := range b.Tables {
		if t.Primary {
			return t, true
		}
	}
	return nil, false
}

// Validate enforces the binding-level invariants of spec §3: at most one
// primary table, and legal identifier syntax throughout.
func (b *Binding) Validate() error {
	primaries := 0
	seen := map[string]bool{}
	for _, t := range b.Tables {
		if t.Primary {
			primaries++
		}
		if !ValidTableName(t.TableName) {
			return &cerr.ConfigError{Entity: "table", Name: t.TableName, Message: "invalid table identifier"}
		}
		if seen[t.TableName] {
			return &cerr.ConfigError{Entity: "table", Name: t.TableName, Message: "duplicate table name in binding"}
		}
		seen[t.TableName] = true
		if !ValidColumnName(t.IDColumnName) {
			return &cerr.ConfigError{Entity: "table", Name: t.TableName, Field: "id_column_name", Message: "invalid column identifier"}
		}
		for _, c := range t.Columns {
			if !ValidColumnName(c.ColumnName) {
				return &cerr.ConfigError{Entity: "column", Name: c.ColumnName, Message: "invalid column identifier"}
			}
		}
	}
	if primaries > 1 {
		return &cerr.ConfigError{Entity: "binding", Message: "more than one table tagged primary"}
	}
	return nil
}

// Resolved is the (table, column) pair a Lookup resolves an attribute to.
type Resolved struct {
	Table  *SingleTableConfig
	Column *DataColumn
}

// Lookup resolves (attribute, ctx) to exactly one (table, column), applying
// explicit mappings before rule-based ones across every table, and
// reporting a MappingFailedError on no match or true ambiguity (spec §4.3:
// ambiguity from a second rule-based acceptance is only an error when no
// explicit mapping exists).
func (b *Binding) Lookup(attribute string, ctx *Context) (Resolved, error) {
	var explicitHit *Resolved
	var ruleHits []Resolved

	for _, t := range b.Tables {
		for _, c := range t.Columns {
			if c.AttributeMapping == attribute {
				if explicitHit != nil {
					return Resolved{}, &cerr.MappingFailedError{Attribute: attribute, Context: ctx.Name(), Reason: "ambiguous explicit mapping across multiple tables"}
				}
				explicitHit = &Resolved{Table: t, Column: c}
			}
		}
	}
	if explicitHit != nil {
		return *explicitHit, nil
	}

	for _, t := range b.Tables {
		if t.hasExplicitMapping(attribute) {
			continue
		}
		if t.AutoMapping == nil {
			continue
		}
		colName, ok := t.AutoMapping(attribute)
		if !ok {
			continue
		}
		for _, c := range t.Columns {
			if c.ColumnName == colName {
				ruleHits = append(ruleHits, Resolved{Table: t, Column: c})
			}
		}
	}

	switch len(ruleHits) {
	case 0:
		return Resolved{}, &cerr.MappingFailedError{Attribute: attribute, Context: ctx.Name(), Reason: "no table resolves this attribute"}
	case 1:
		return ruleHits[0], nil
	default:
		return Resolved{}, &cerr.MappingFailedError{Attribute: attribute, Context: ctx.Name(), Reason: "ambiguous rule-based mapping across multiple tables"}
	}
}

// Context carries the process-context variables filter predicates may
// reference via ${var} / ${var.local} (spec §4.3).
type Context struct {
	name string
	vars map[string]string
}

// NewContext builds a Context with the given name (used only for
// diagnostics) and variable bindings.
func NewContext(name string, vars map[string]string) *Context {
	if vars == nil {
		vars = map[string]string{}
	}
	return &Context{name: name, vars: vars}
}

// Name returns the context's diagnostic name.
func (c *Context) Name() string { return c.name }

var varRe = regexp.MustCompile(`\$\{([^}]*)\}`)

// ResolveFilterValue substitutes ${argName} and ${argName.local} references
// in a filter predicate's value template, where argName.local yields the
// trailing segment of argName after its first dot, and argName yields the
// full attribute name (spec §4.3).
func (c *Context) ResolveFilterValue(attribute, template string) (string, error) {
	var resolveErr error
	out := varRe.ReplaceAllStringFunc(template, func(m string) string {
		name := varRe.FindStringSubmatch(m)[1]
		if name == "" {
			resolveErr = fmt.Errorf("binding: empty ${} reference in filter predicate")
			return ""
		}
		base, local, hasLocal := strings.Cut(name, ".")
		if hasLocal && local == "local" {
			if v, ok := c.vars[base]; ok {
				segs := strings.SplitN(v, ".", 2)
				return segs[len(segs)-1]
			}
			if base == "argName" {
				segs := strings.SplitN(attribute, ".", 2)
				return segs[len(segs)-1]
			}
			resolveErr = fmt.Errorf("binding: unresolved process-context variable %q", base)
			return ""
		}
		if v, ok := c.vars[name]; ok {
			return v
		}
		if name == "argName" {
			return attribute
		}
		resolveErr = fmt.Errorf("binding: unresolved process-context variable %q", name)
		return ""
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

var (
	bareIdentRe = regexp.MustCompile(`^[A-Za-z0-9$_]+$`)
	bareTableRe = regexp.MustCompile(`^[A-Za-z0-9$_]+(\.[A-Za-z0-9$_]+)?$`)
)

// ValidColumnName reports whether name is a legal plain or backtick-quoted
// column identifier (spec §4.3).
func ValidColumnName(name string) bool {
	return validIdentifier(name, bareIdentRe)
}

// ValidTableName reports whether name is a legal plain (optionally
// single-dotted, e.g. schema.table) or backtick-quoted table identifier.
func ValidTableName(name string) bool {
	return validIdentifier(name, bareTableRe)
}

func validIdentifier(name string, bare *regexp.Regexp) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "`") {
		if !strings.HasSuffix(name, "`") || len(name) < 2 {
			return false
		}
		inner := name[1 : len(name)-1]
		return inner != "" && !strings.Contains(inner, "`")
	}
	return bare.MatchString(name)
}

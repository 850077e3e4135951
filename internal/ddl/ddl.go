// Package ddl is a dev-convenience loader that derives a starter
// binding.Binding straight from a CREATE TABLE dump, using the TiDB SQL
// parser (spec §9 "--from-ddl"). It is never wired into the planner core —
// the core's input is an already-normalised expression DAG plus a
// caller-built DataBinding; this package exists purely to save a developer
// from hand-writing TOML for a schema that already exists as SQL.
package ddl

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"audlangsql/internal/binding"
	"audlangsql/internal/sqlkind"
)

// Options controls how a parsed CREATE TABLE dump turns into a binding.
type Options struct {
	// IDColumnCandidates is tried, in order, against each table's columns
	// to pick its id column; the first match wins. A table's own primary
	// key column, if single-column, is tried first regardless.
	IDColumnCandidates []string
	// PrimaryTable names the one table to mark Primary in the binding, ""
	// to leave none marked.
	PrimaryTable string
}

// DefaultOptions mirrors the common "id"/"ID" convention.
func DefaultOptions() Options {
	return Options{IDColumnCandidates: []string{"id", "ID"}}
}

// Loader derives binding.Binding values from CREATE TABLE SQL text.
type Loader struct {
	p    *parser.Parser
	opts Options
}

// NewLoader builds a Loader with opts; a zero Options uses DefaultOptions's
// id-column candidates and leaves no table marked primary.
func NewLoader(opts Options) *Loader {
	if len(opts.IDColumnCandidates) == 0 {
		opts.IDColumnCandidates = DefaultOptions().IDColumnCandidates
	}
	return &Loader{p: parser.New(), opts: opts}
}

// Load parses sql (one or more CREATE TABLE statements) and returns a
// starter binding.Binding: every column is bound with an explicit
// AttributeMapping equal to its own name and an inferred SQLKind, leaving
// the developer to rename attributes and add filter predicates by hand.
func (l *Loader) Load(sql string) (*binding.Binding, error) {
	stmtNodes, _, err := l.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("ddl: parse error: %w", err)
	}

	b := &binding.Binding{}
	for _, stmt := range stmtNodes {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		t, err := l.convertTable(create)
		if err != nil {
			return nil, fmt.Errorf("ddl: table %q: %w", create.Table.Name.O, err)
		}
		b.Tables = append(b.Tables, t)
	}
	return b, nil
}

func (l *Loader) convertTable(stmt *ast.CreateTableStmt) (*binding.SingleTableConfig, error) {
	name := stmt.Table.Name.O
	t := &binding.SingleTableConfig{
		TableName: name,
		Primary:   name == l.opts.PrimaryTable,
		Nature:    binding.TableNature{Cardinality: binding.AllIDs, UniqueIDs: true},
	}

	pkCol := singleColumnPrimaryKey(stmt)

	for _, colDef := range stmt.Cols {
		colName := colDef.Name.Name.O
		t.Columns = append(t.Columns, &binding.DataColumn{
			ColumnName:       colName,
			SQLKind:          inferSQLKind(colDef),
			AttributeMapping: colName,
		})
	}

	switch {
	case pkCol != "":
		t.IDColumnName = pkCol
	default:
		t.IDColumnName = findIDColumn(stmt, l.opts.IDColumnCandidates)
	}
	if t.IDColumnName == "" && len(t.Columns) > 0 {
		t.IDColumnName = t.Columns[0].ColumnName
	}
	return t, nil
}

// singleColumnPrimaryKey returns the column name of a single-column PRIMARY
// KEY, whether declared inline (ast.ColumnOptionPrimaryKey) or as a
// table-level constraint; "" when the table has none or it spans multiple
// columns.
func singleColumnPrimaryKey(stmt *ast.CreateTableStmt) string {
	for _, colDef := range stmt.Cols {
		for _, opt := range colDef.Options {
			if opt.Tp == ast.ColumnOptionPrimaryKey {
				return colDef.Name.Name.O
			}
		}
	}
	for _, con := range stmt.Constraints {
		if con.Tp == ast.ConstraintPrimaryKey && len(con.Keys) == 1 {
			return con.Keys[0].Column.Name.O
		}
	}
	return ""
}

func findIDColumn(stmt *ast.CreateTableStmt, candidates []string) string {
	for _, cand := range candidates {
		for _, colDef := range stmt.Cols {
			if strings.EqualFold(colDef.Name.Name.O, cand) {
				return colDef.Name.Name.O
			}
		}
	}
	return ""
}

// inferSQLKind maps a parsed column's declared SQL type to the closest
// sqlkind.Base name, defaulting to VarChar for anything unrecognized —
// the loader only needs to get the caller close enough to finish by hand.
func inferSQLKind(colDef *ast.ColumnDef) string {
	tp := strings.ToLower(colDef.Tp.String())
	switch {
	case strings.Contains(tp, "bigint"):
		return string(sqlkind.BigInt)
	case strings.Contains(tp, "tinyint(1)"):
		return string(sqlkind.Boolean)
	case strings.Contains(tp, "tinyint"):
		return string(sqlkind.TinyInt)
	case strings.Contains(tp, "smallint"):
		return string(sqlkind.SmallInt)
	case strings.Contains(tp, "int"):
		return string(sqlkind.Integer)
	case strings.Contains(tp, "decimal"), strings.Contains(tp, "numeric"):
		return string(sqlkind.Decimal)
	case strings.Contains(tp, "double"):
		return string(sqlkind.Double)
	case strings.Contains(tp, "float"):
		return string(sqlkind.Float)
	case strings.Contains(tp, "bool"):
		return string(sqlkind.Boolean)
	case strings.Contains(tp, "timestamp"), strings.Contains(tp, "datetime"):
		return string(sqlkind.Timestamp)
	case strings.Contains(tp, "date"):
		return string(sqlkind.SQLDate)
	case strings.Contains(tp, "varchar"):
		return string(sqlkind.VarChar)
	case strings.Contains(tp, "char"):
		return string(sqlkind.Char)
	case strings.Contains(tp, "text"), strings.Contains(tp, "blob"):
		return string(sqlkind.LongVarChar)
	default:
		return string(sqlkind.VarChar)
	}
}

// Package tomlbind loads a binding.Binding from a TOML document (spec
// §4.3): a dialect-agnostic, declarative description of which physical
// tables and columns participate in a DataBinding, which attribute each
// column serves, and the filter predicates and auto-mapping rules that
// round out the lookup.
package tomlbind

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"audlangsql/internal/binding"
	"audlangsql/internal/cerr"
)

// schemaFile is the top-level TOML document shape.
type schemaFile struct {
	Tables []tomlTable `toml:"tables"`
}

// tomlTable maps [[tables]].
type tomlTable struct {
	Name             string             `toml:"name"`
	IDColumn         string             `toml:"id_column"`
	Primary          bool               `toml:"primary"`
	Cardinality      string             `toml:"cardinality"` // "ALL_IDS", "ID_SUBSET", "SPARSE"
	UniqueIDs        bool               `toml:"unique_ids"`
	FilterPredicates []tomlFilter       `toml:"filter"`
	AutoMapSuffix    string             `toml:"auto_map_suffix"`
	Columns          []tomlColumn       `toml:"columns"`
}

// tomlFilter maps [[tables.filter]] / [[tables.columns.filter]].
type tomlFilter struct {
	Column string `toml:"column"`
	Value  string `toml:"value"`
}

// tomlColumn maps [[tables.columns]].
type tomlColumn struct {
	Name             string       `toml:"name"`
	SQLKind          string       `toml:"sql_kind"`
	Attribute        string       `toml:"attribute"`
	MultiRow         bool         `toml:"multi_row"`
	FilterPredicates []tomlFilter `toml:"filter"`
}

// Loader parses TOML binding documents into binding.Binding values.
type Loader struct{}

// NewLoader returns a ready-to-use Loader.
func NewLoader() *Loader { return &Loader{} }

// LoadFile opens path and parses it as a binding document.
func (l *Loader) LoadFile(path string) (*binding.Binding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tomlbind: open file %q: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads a binding document from r and converts it into a
// binding.Binding, validating it before returning.
func (l *Loader) Load(r io.Reader) (*binding.Binding, error) {
	var sf schemaFile
	if _, err := toml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("tomlbind: decode error: %w", err)
	}

	b := &binding.Binding{Tables: make([]*binding.SingleTableConfig, 0, len(sf.Tables))}
	seen := map[string]bool{}
	for i := range sf.Tables {
		tt := &sf.Tables[i]
		if seen[tt.Name] {
			return nil, &cerr.ConfigError{Entity: "table", Name: tt.Name, Message: "duplicate table name in document"}
		}
		seen[tt.Name] = true

		t, err := convertTable(tt)
		if err != nil {
			return nil, fmt.Errorf("tomlbind: table %q: %w", tt.Name, err)
		}
		b.Tables = append(b.Tables, t)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func convertTable(tt *tomlTable) (*binding.SingleTableConfig, error) {
	nature, err := convertCardinality(tt.Cardinality)
	if err != nil {
		return nil, err
	}

	t := &binding.SingleTableConfig{
		TableName:        tt.Name,
		IDColumnName:     tt.IDColumn,
		FilterPredicates: convertFilters(tt.FilterPredicates),
		Primary:          tt.Primary,
		Nature:           binding.TableNature{Cardinality: nature, UniqueIDs: tt.UniqueIDs},
		Columns:          make([]*binding.DataColumn, 0, len(tt.Columns)),
	}
	if tt.AutoMapSuffix != "" {
		t.AutoMapping = binding.SuffixStripPolicy(tt.AutoMapSuffix)
	}

	for i := range tt.Columns {
		tc := &tt.Columns[i]
		t.Columns = append(t.Columns, &binding.DataColumn{
			ColumnName:       tc.Name,
			SQLKind:          tc.SQLKind,
			AttributeMapping: tc.Attribute,
			MultiRow:         tc.MultiRow,
			FilterPredicates: convertFilters(tc.FilterPredicates),
		})
	}
	return t, nil
}

func convertFilters(fs []tomlFilter) []binding.FilterPredicate {
	if len(fs) == 0 {
		return nil
	}
	out := make([]binding.FilterPredicate, 0, len(fs))
	for _, f := range fs {
		out = append(out, binding.FilterPredicate{Column: f.Column, Value: f.Value})
	}
	return out
}

func convertCardinality(raw string) (binding.Cardinality, error) {
	switch raw {
	case "", string(binding.AllIDs):
		return binding.AllIDs, nil
	case string(binding.IDSubset):
		return binding.IDSubset, nil
	case string(binding.Sparse):
		return binding.Sparse, nil
	default:
		return "", fmt.Errorf("tomlbind: unknown cardinality %q; expected ALL_IDS, ID_SUBSET, or SPARSE", raw)
	}
}

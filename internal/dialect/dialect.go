// Package dialect provides the registry of SQL dialect-parameterised
// literal-rendering variants used by the unsafe debug renderer (spec §6).
// Execution itself never touches dialect — prepared-statement binding is
// dialect-agnostic — this registry exists solely for the textual renderer.
package dialect

import (
	"fmt"
	"sync"
)

// Type identifies a dialect literal-rendering variant.
type Type string

const (
	Plain     Type = "plain"
	Default   Type = "default"
	MySQL     Type = "mysql"
	Oracle    Type = "oracle"
	SQLServer Type = "sqlserver"
)

// LiteralRenderer renders date/timestamp literals for one dialect variant.
// Grounded on the teacher's internal/dialect/mysql/format.go quoting
// helpers, generalized across variants.
type LiteralRenderer interface {
	Name() Type
	QuoteIdentifier(name string) string
	QuoteString(s string) string
	DateLiteral(isoDate string) string
	TimestampLiteral(isoDateTime string) string
}

var (
	mu       sync.RWMutex
	registry = map[Type]func() LiteralRenderer{}
)

// Register installs a constructor for dialect type t (spec §6, grounded on
// the teacher's dialect.RegisterDialect).
func Register(t Type, ctor func() LiteralRenderer) {
	mu.Lock()
	defer mu.Unlock()
	registry[t] = ctor
}

// Get returns the renderer for dialect type t.
func Get(t Type) (LiteralRenderer, error) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("dialect: %q is not registered", t)
	}
	return ctor(), nil
}

func init() {
	Register(Plain, func() LiteralRenderer { return plainRenderer{} })
	Register(Default, func() LiteralRenderer { return defaultRenderer{} })
	Register(MySQL, func() LiteralRenderer { return mysqlRenderer{} })
	Register(Oracle, func() LiteralRenderer { return oracleRenderer{} })
	Register(SQLServer, func() LiteralRenderer { return sqlServerRenderer{} })
}

type plainRenderer struct{}

func (plainRenderer) Name() Type                       { return Plain }
func (plainRenderer) QuoteIdentifier(name string) string { return name }
func (plainRenderer) QuoteString(s string) string        { return "'" + escapeQuote(s) + "'" }
func (plainRenderer) DateLiteral(d string) string         { return "'" + d + "'" }
func (plainRenderer) TimestampLiteral(ts string) string   { return "'" + ts + "'" }

type defaultRenderer struct{}

func (defaultRenderer) Name() Type                         { return Default }
func (defaultRenderer) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (defaultRenderer) QuoteString(s string) string        { return "'" + escapeQuote(s) + "'" }
func (defaultRenderer) DateLiteral(d string) string         { return "DATE '" + d + "'" }
func (defaultRenderer) TimestampLiteral(ts string) string   { return "TIMESTAMP '" + ts + "'" }

type mysqlRenderer struct{}

func (mysqlRenderer) Name() Type                         { return MySQL }
func (mysqlRenderer) QuoteIdentifier(name string) string { return "`" + name + "`" }
func (mysqlRenderer) QuoteString(s string) string        { return "'" + escapeQuote(s) + "'" }
func (mysqlRenderer) DateLiteral(d string) string         { return "'" + d + "'" }
func (mysqlRenderer) TimestampLiteral(ts string) string   { return "'" + ts + "'" }

type oracleRenderer struct{}

func (oracleRenderer) Name() Type                         { return Oracle }
func (oracleRenderer) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (oracleRenderer) QuoteString(s string) string        { return "'" + escapeQuote(s) + "'" }
func (oracleRenderer) DateLiteral(d string) string         { return "TO_DATE('" + d + "', 'YYYY-MM-DD')" }
func (oracleRenderer) TimestampLiteral(ts string) string {
	return "TO_TIMESTAMP('" + ts + "', 'YYYY-MM-DD HH24:MI:SS')"
}

// sqlServerRenderer reproduces the (possibly-buggy) source behavior of
// emitting TO_TIMESTAMP(...) for SQL_TIMESTAMP_SQL_SERVER rather than the
// conventional CAST(... AS DATETIME). Spec §9 Open Questions: flag as
// possibly-buggy source behavior, do not silently "fix".
type sqlServerRenderer struct{}

func (sqlServerRenderer) Name() Type                         { return SQLServer }
func (sqlServerRenderer) QuoteIdentifier(name string) string { return "[" + name + "]" }
func (sqlServerRenderer) QuoteString(s string) string        { return "'" + escapeQuote(s) + "'" }
func (sqlServerRenderer) DateLiteral(d string) string         { return "'" + d + "'" }
func (sqlServerRenderer) TimestampLiteral(ts string) string {
	return "TO_TIMESTAMP('" + ts + "')"
}

func escapeQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

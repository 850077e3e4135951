// Package param implements typed value coercion and parameter binding
// (spec §4.2): the QueryParameter model, the logical-to-SQL-kind
// compatibility matrix, raw-to-transfer conversion with range/format
// enforcement, and the default parameter id sequencer.
package param

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"audlangsql/internal/cerr"
	"audlangsql/internal/op"
	"audlangsql/internal/sqlkind"
	"audlangsql/internal/value"
)

// QueryParameter is the tuple (id, sql_kind, transfer_value, match_operator)
// produced by a ParameterCreator (spec §3).
type QueryParameter struct {
	ID        string
	Kind      sqlkind.Kind
	Transfer  value.Transfer
	Operator  op.MatchOperator
}

var idRe = regexp.MustCompile(`^[^\s${}]+$`)

// ValidID reports whether id is a legal QueryParameter id: non-empty,
// containing no whitespace and none of $ { }.
func ValidID(id string) bool {
	return id != "" && idRe.MatchString(id)
}

// Equal reports whether two parameters are value-equal for the purposes of
// sharing one id in the template linker (spec §6): same sql kind name and
// same transfer value.
func (p QueryParameter) Equal(o QueryParameter) bool {
	return p.Kind.Name() == o.Kind.Name() && p.Transfer == o.Transfer
}

// idSeq is the process-wide atomic id sequencer (spec §4.2, §5). It is
// seeded so the first auto-issued id is P_1001.
var idSeq atomic.Int64

func init() { idSeq.Store(1000) }

// NextID issues the next auto-generated parameter id from the process-wide
// sequence.
func NextID() string {
	return fmt.Sprintf("P_%d", idSeq.Add(1))
}

// ResetSeq resets the process-wide id sequencer. Test-only: spec §4.2 notes
// the sequencer is "resettable for deterministic tests", never for
// production use.
func ResetSeq() { idSeq.Store(1000) }

// compatibility matrix: source logical kind -> allowed target families.
var compatFamilies = map[value.BaseKind]map[sqlkind.Family]bool{
	value.KindString: {
		sqlkind.FamilyBoolean: true, sqlkind.FamilyInteger: true, sqlkind.FamilyFloating: true,
		sqlkind.FamilyDateTime: true, sqlkind.FamilyCharacter: true,
	},
	value.KindInteger: {
		sqlkind.FamilyBoolean: true, sqlkind.FamilyInteger: true, sqlkind.FamilyFloating: true,
		sqlkind.FamilyDateTime: true, sqlkind.FamilyCharacter: true,
	},
	value.KindDecimal: {
		// all except SQL_BIT / SQL_BOOLEAN
		sqlkind.FamilyInteger: true, sqlkind.FamilyFloating: true,
		sqlkind.FamilyDateTime: true, sqlkind.FamilyCharacter: true,
	},
	value.KindBool: {
		sqlkind.FamilyBoolean: true, sqlkind.FamilyInteger: true, sqlkind.FamilyCharacter: true,
	},
	value.KindDate: {
		sqlkind.FamilyDateTime: true, sqlkind.FamilyInteger: true, sqlkind.FamilyFloating: true,
		sqlkind.FamilyCharacter: true,
	},
}

// checkCompatible applies the compatibility matrix (spec §4.2), including
// the DATE-source carve-out that excludes SQL_FLOAT from the otherwise
// allowed floating family.
func checkCompatible(attr string, src value.BaseKind, target sqlkind.Base) error {
	if !src.Valid() {
		return &cerr.ConfigError{Entity: "attribute", Name: attr, Message: "unrecognized base kind " + string(src)}
	}
	found := false
	for _, b := range sqlkind.AllBuiltins() {
		if b == target {
			found = true
			break
		}
	}
	if !found {
		return &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "not one of the 19 built-in kinds"}
	}

	if src == value.KindDate && target == sqlkind.Float {
		return &cerr.TypeMismatchError{Attribute: attr, SourceKind: string(src), TargetKind: string(target)}
	}

	fam := target.Family()
	allowed := compatFamilies[src]
	if allowed == nil || !allowed[fam] {
		return &cerr.TypeMismatchError{Attribute: attr, SourceKind: string(src), TargetKind: string(target)}
	}
	return nil
}

// Creator turns a raw logical value into a validated QueryParameter
// (spec §4.2 contract).
type Creator struct {
	registry *sqlkind.Registry
}

// NewCreator builds a Creator bound to the given SQL kind registry.
func NewCreator(reg *sqlkind.Registry) *Creator {
	return &Creator{registry: reg}
}

var defaultCreator = NewCreator(sqlkind.DefaultRegistry())

// DefaultCreator returns the process-wide cached Creator (spec §9 "Global
// singletons").
func DefaultCreator() *Creator { return defaultCreator }

// Create implements the ParameterCreator contract: given an id (auto-issued
// via NextID when empty), the attribute's logical type, a raw value, the
// match operator it will be used under, and the target SQL kind name, it
// returns a validated QueryParameter or a coercion error.
func (c *Creator) Create(id string, attr string, attrType value.AttributeType, raw string, matchOp op.MatchOperator, targetKindName string) (QueryParameter, error) {
	if id == "" {
		id = NextID()
	} else if !ValidID(id) {
		return QueryParameter{}, &cerr.ConfigError{Entity: "parameter", Name: id, Message: "id must be non-empty and contain no whitespace, $, { or }"}
	}
	if !matchOp.Valid() {
		return QueryParameter{}, &cerr.ConfigError{Entity: "parameter", Name: id, Field: "match_operator", Message: "unrecognized operator " + string(matchOp)}
	}

	kind, ok := c.registry.Lookup(targetKindName)
	if !ok {
		return QueryParameter{}, &cerr.ConfigError{Entity: "sql_kind", Name: targetKindName, Message: "not registered"}
	}

	if err := checkCompatible(attr, attrType.Kind, kind.Base()); err != nil {
		return QueryParameter{}, err
	}

	if matchOp == op.Contains && !kind.Capabilities().SupportsContains {
		return QueryParameter{}, &cerr.ConfigError{Entity: "sql_kind", Name: targetKindName, Message: "does not support CONTAINS"}
	}
	if matchOp.Ordered() && !kind.Capabilities().SupportsLessThanGreaterThan {
		return QueryParameter{}, &cerr.ConfigError{Entity: "sql_kind", Name: targetKindName, Message: "does not support ordered comparison"}
	}

	if matchOp == op.IsUnknown {
		return QueryParameter{ID: id, Kind: kind, Transfer: value.NullTransfer(), Operator: matchOp}, nil
	}

	formatted, err := attrType.Format(raw)
	if err != nil {
		return QueryParameter{}, &cerr.FormatError{Attribute: attr, Raw: raw, Cause: err}
	}

	transfer, err := coerce(attr, attrType.Kind, formatted, kind.Base())
	if err != nil {
		return QueryParameter{}, err
	}

	return QueryParameter{ID: id, Kind: kind, Transfer: transfer, Operator: matchOp}, nil
}

// coerce runs the raw-to-transfer conversion pipeline (spec §4.2 step 2-3):
// parse into a canonical intermediate keyed by the source kind, then
// retarget to the SQL kind's transfer type with range checks.
func coerce(attr string, src value.BaseKind, formatted string, target sqlkind.Base) (value.Transfer, error) {
	switch src {
	case value.KindString:
		return coerceFromString(attr, formatted, target)
	case value.KindInteger:
		return coerceFromInteger(attr, formatted, target)
	case value.KindDecimal:
		return coerceFromDecimal(attr, formatted, target)
	case value.KindBool:
		return coerceFromBool(attr, formatted, target)
	case value.KindDate:
		return coerceFromDate(attr, formatted, target)
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "attribute", Name: attr, Message: "unsupported source kind"}
	}
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

func parseDateUTC(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation(timestampLayout, s, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func coerceFromString(attr, s string, target sqlkind.Base) (value.Transfer, error) {
	switch target.Family() {
	case sqlkind.FamilyCharacter:
		return value.TransferStr(s), nil
	case sqlkind.FamilyDateTime:
		t, ok := parseDateUTC(s)
		if !ok {
			return value.Transfer{}, &cerr.ValueFormatDateError{Attribute: attr, Raw: s}
		}
		return dateOrTimestamp(t, target)
	case sqlkind.FamilyInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return retargetInt(attr, n, target)
		}
		if t, ok := parseDateUTC(s); ok && target == sqlkind.BigInt {
			return retargetInt(attr, t.Unix(), target)
		}
		return value.Transfer{}, &cerr.ValueFormatError{Attribute: attr, Raw: s, Reason: "not a valid integer"}
	case sqlkind.FamilyFloating:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value.Transfer{}, &cerr.ValueFormatError{Attribute: attr, Raw: s, Reason: "not a valid decimal"}
		}
		return retargetFloat(attr, f, target)
	case sqlkind.FamilyBoolean:
		return parseBoolRaw(attr, s)
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "unhandled family"}
	}
}

func coerceFromInteger(attr, s string, target sqlkind.Base) (value.Transfer, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return value.Transfer{}, &cerr.ValueFormatError{Attribute: attr, Raw: s, Reason: "not a valid integer"}
	}
	switch target.Family() {
	case sqlkind.FamilyInteger:
		return retargetInt(attr, n, target)
	case sqlkind.FamilyFloating:
		return retargetFloat(attr, float64(n), target)
	case sqlkind.FamilyBoolean:
		return value.TransferBool(n != 0), nil
	case sqlkind.FamilyCharacter:
		return value.TransferStr(strconv.FormatInt(n, 10)), nil
	case sqlkind.FamilyDateTime:
		// INTEGER -> BIGINT epoch-seconds auto-convert is the DATE-source
		// direction (spec §4.2); an INTEGER source targeting a date/time
		// column is treated as epoch seconds.
		t := time.Unix(n, 0).UTC()
		return dateOrTimestamp(t, target)
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "unhandled family"}
	}
}

func coerceFromDecimal(attr, s string, target sqlkind.Base) (value.Transfer, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return value.Transfer{}, &cerr.ValueFormatError{Attribute: attr, Raw: s, Reason: "not a valid decimal"}
	}
	switch target.Family() {
	case sqlkind.FamilyFloating:
		return retargetFloat(attr, f, target)
	case sqlkind.FamilyInteger:
		return retargetInt(attr, int64(f), target)
	case sqlkind.FamilyCharacter:
		return value.TransferStr(strconv.FormatFloat(f, 'f', -1, 64)), nil
	default:
		return value.Transfer{}, &cerr.TypeMismatchError{Attribute: attr, SourceKind: string(value.KindDecimal), TargetKind: string(target)}
	}
}

func parseBoolRaw(attr, s string) (value.Transfer, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return value.TransferBool(false), nil
	case "1":
		return value.TransferBool(true), nil
	default:
		return value.Transfer{}, &cerr.ValueFormatBoolError{Attribute: attr, Raw: s}
	}
}

func coerceFromBool(attr, s string, target sqlkind.Base) (value.Transfer, error) {
	b, err := parseBoolRaw(attr, s)
	if err != nil {
		return value.Transfer{}, err
	}
	switch target.Family() {
	case sqlkind.FamilyBoolean:
		return b, nil
	case sqlkind.FamilyInteger:
		if b.Bool {
			return retargetInt(attr, 1, target)
		}
		return retargetInt(attr, 0, target)
	case sqlkind.FamilyCharacter:
		// spec §9 design note: the source occasionally round-trips through
		// "TRUE"/"FALSE"; we avoid that round-trip but must still render the
		// canonical "0"/"1" string form the rest of the system expects.
		if b.Bool {
			return value.TransferStr("1"), nil
		}
		return value.TransferStr("0"), nil
	default:
		return value.Transfer{}, &cerr.TypeMismatchError{Attribute: attr, SourceKind: string(value.KindBool), TargetKind: string(target)}
	}
}

func coerceFromDate(attr, s string, target sqlkind.Base) (value.Transfer, error) {
	t, ok := parseDateUTC(s)
	if !ok {
		return value.Transfer{}, &cerr.ValueFormatDateError{Attribute: attr, Raw: s}
	}
	switch target.Family() {
	case sqlkind.FamilyDateTime:
		return dateOrTimestamp(t, target)
	case sqlkind.FamilyInteger:
		if target == sqlkind.BigInt {
			return retargetInt(attr, t.Unix(), target)
		}
		return retargetInt(attr, t.UnixMilli(), target)
	case sqlkind.FamilyFloating:
		return retargetFloat(attr, float64(t.UnixMilli()), target)
	case sqlkind.FamilyCharacter:
		return value.TransferStr(t.Format(dateLayout)), nil
	default:
		return value.Transfer{}, &cerr.TypeMismatchError{Attribute: attr, SourceKind: string(value.KindDate), TargetKind: string(target)}
	}
}

func dateOrTimestamp(t time.Time, target sqlkind.Base) (value.Transfer, error) {
	switch target {
	case sqlkind.SQLDate:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return value.TransferDate(day.UnixMilli()), nil
	case sqlkind.Timestamp:
		ms := t.UnixMilli()
		min, max, _ := sqlkind.Timestamp.Range()
		if ms < min || ms > max {
			return value.Transfer{}, &cerr.ValueRangeError{SQLKind: string(sqlkind.Timestamp), Value: t.Format(timestampLayout), Min: min, Max: max}
		}
		return value.TransferTimestamp(ms), nil
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "not a date/time kind"}
	}
}

func retargetInt(attr string, n int64, target sqlkind.Base) (value.Transfer, error) {
	if min, max, ok := target.Range(); ok {
		if n < min || n > max {
			return value.Transfer{}, &cerr.ValueRangeError{Attribute: attr, SQLKind: string(target), Value: strconv.FormatInt(n, 10), Min: min, Max: max}
		}
	}
	switch target {
	case sqlkind.TinyInt:
		return value.TransferI8u(uint8(n)), nil
	case sqlkind.SmallInt:
		return value.TransferI16(int16(n)), nil
	case sqlkind.Integer:
		return value.TransferI32(int32(n)), nil
	case sqlkind.BigInt:
		return value.TransferI64(n), nil
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "not an integer kind"}
	}
}

func retargetFloat(attr string, f float64, target sqlkind.Base) (value.Transfer, error) {
	switch target {
	case sqlkind.Decimal, sqlkind.Double, sqlkind.Real:
		return value.TransferF64(f), nil
	case sqlkind.Float:
		return value.TransferF32(float32(f)), nil
	case sqlkind.Numeric:
		// scale 7, HALF_UP rounding (spec §4.2).
		scaled := roundHalfUp(f * 1e7)
		return value.TransferDecimal7(scaled), nil
	default:
		return value.Transfer{}, &cerr.ConfigError{Entity: "sql_kind", Name: string(target), Message: "not a floating kind"}
	}
}

func roundHalfUp(x float64) int64 {
	if x >= 0 {
		return int64(x + 0.5)
	}
	return -int64(-x + 0.5)
}

// Applicator binds a QueryParameter's transfer value to a prepared
// statement by position (spec §2 item 7, §5).
type Applicator struct{}

var defaultApplicator = &Applicator{}

// DefaultApplicator returns the process-wide cached Applicator.
func DefaultApplicator() *Applicator { return defaultApplicator }

// DriverValue converts a QueryParameter's Transfer into a database/sql
// driver.Value suitable for (*sql.Stmt).Exec / Query positional binding.
func (a *Applicator) DriverValue(p QueryParameter) (driver.Value, error) {
	t := p.Transfer
	switch t.Tag {
	case value.TagNull:
		return nil, nil
	case value.TagBool:
		return t.Bool, nil
	case value.TagI8u:
		return int64(t.I8u), nil
	case value.TagI16:
		return int64(t.I16), nil
	case value.TagI32:
		return int64(t.I32), nil
	case value.TagI64:
		return t.I64, nil
	case value.TagF32:
		return float64(t.F32), nil
	case value.TagF64:
		return t.F64, nil
	case value.TagDecimal7:
		return t.DecimalFloat(), nil
	case value.TagStr:
		return t.Str, nil
	case value.TagDate:
		return time.UnixMilli(t.Date).UTC(), nil
	case value.TagTimestamp:
		return time.UnixMilli(t.Timestamp).UTC(), nil
	default:
		return nil, fmt.Errorf("param: unbindable transfer tag %q", t.Tag)
	}
}

// Apply converts every parameter in order to its driver value and passes
// them as positional arguments to exec, returning exec's error. Apply never
// commits anything itself (spec §5).
func (a *Applicator) Apply(exec func(args ...any) error, params []QueryParameter) error {
	args := make([]any, len(params))
	for i, p := range params {
		v, err := a.DriverValue(p)
		if err != nil {
			return err
		}
		args[i] = v
	}
	return exec(args...)
}

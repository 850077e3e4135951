// Package cerr defines the error taxonomy shared by every compiler stage
// (spec §7): ConfigError, FormatError, ValueRange, the ValueFormat family,
// TypeMismatch, MappingFailed, AlwaysTrue/AlwaysFalse, ConversionError, and
// TemplateSyntax. Each kind is a distinct struct implementing error so
// callers can errors.As into the specific kind instead of string-matching.
package cerr

import "fmt"

// ConfigError reports a mapping ambiguity, unsupported SQL kind, invalid
// identifier, or incompatible transfer type — rejected before any SQL is
// emitted.
type ConfigError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("config error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// FormatError reports that an attribute's formatter rejected a raw value.
type FormatError struct {
	Attribute string
	Raw       string
	Cause     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error for attribute %q on value %q: %v", e.Attribute, e.Raw, e.Cause)
}

func (e *FormatError) Unwrap() error { return e.Cause }

// ValueRangeError reports a numeric or date value outside the target
// column's legal range.
type ValueRangeError struct {
	Attribute string
	SQLKind   string
	Value     string
	Min       int64
	Max       int64
}

func (e *ValueRangeError) Error() string {
	return fmt.Sprintf("value %q for attribute %q is out of range [%d, %d] for sql kind %s",
		e.Value, e.Attribute, e.Min, e.Max, e.SQLKind)
}

// ValueFormatError reports a generic parse failure of a raw value into the
// canonical intermediate representation.
type ValueFormatError struct {
	Attribute string
	Raw       string
	Reason    string
}

func (e *ValueFormatError) Error() string {
	return fmt.Sprintf("cannot parse value %q for attribute %q: %s", e.Raw, e.Attribute, e.Reason)
}

// ValueFormatBoolError reports a failure to parse a raw value as the
// canonical "0"/"1" boolean representation.
type ValueFormatBoolError struct {
	Attribute string
	Raw       string
}

func (e *ValueFormatBoolError) Error() string {
	return fmt.Sprintf("value %q for attribute %q is not a valid boolean (expected \"0\" or \"1\")", e.Raw, e.Attribute)
}

// ValueFormatDateError reports a failure to parse a raw value as
// yyyy-MM-dd or yyyy-MM-dd HH:mm:ss (UTC).
type ValueFormatDateError struct {
	Attribute string
	Raw       string
}

func (e *ValueFormatDateError) Error() string {
	return fmt.Sprintf("value %q for attribute %q is not a valid date (expected yyyy-MM-dd or yyyy-MM-dd HH:mm:ss)", e.Raw, e.Attribute)
}

// TypeMismatchError reports that the compatibility matrix refused a
// (source logical kind -> target SQL base kind) pairing.
type TypeMismatchError struct {
	Attribute  string
	SourceKind string
	TargetKind string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("attribute %q of logical kind %s cannot be targeted at sql kind %s",
		e.Attribute, e.SourceKind, e.TargetKind)
}

// MappingFailedError reports that a DataBinding could not resolve an
// attribute name in the given process context.
type MappingFailedError struct {
	Attribute string
	Context   string
	Reason    string
}

func (e *MappingFailedError) Error() string {
	return fmt.Sprintf("mapping failed for attribute %q in context %q: %s", e.Attribute, e.Context, e.Reason)
}

// StaticResult reports a static, context-independent Boolean verdict
// reached during planning (AlwaysTrue / AlwaysFalse).
type StaticResult struct {
	Value  bool
	Reason string
}

func (e *StaticResult) Error() string {
	if e.Value {
		return fmt.Sprintf("expression is always true: %s", e.Reason)
	}
	return fmt.Sprintf("expression is always false: %s", e.Reason)
}

// ConversionCode enumerates the specific reasons a ConversionError was
// raised.
type ConversionCode string

const (
	CodeTimeOut             ConversionCode = "TIME_OUT"
	CodeDirectiveViolation  ConversionCode = "DIRECTIVE_VIOLATION"
	CodeUnsatisfiableShape  ConversionCode = "UNSATISFIABLE_SHAPE"
	CodeMappingFailed       ConversionCode = "MAPPING_FAILED"
)

// ConversionError reports a directive violation, a TimeOut abort, or an
// unsatisfiable query shape (e.g. ENFORCE_PRIMARY_TABLE with no primary
// table configured).
type ConversionError struct {
	Code   ConversionCode
	Reason string
	Cause  error
}

func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversion error [%s]: %s: %v", e.Code, e.Reason, e.Cause)
	}
	return fmt.Sprintf("conversion error [%s]: %s", e.Code, e.Reason)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// TemplateSyntaxKind enumerates the placeholder grammar failures the
// template linker (spec §4.6) can raise.
type TemplateSyntaxKind string

const (
	SyntaxUnclosed TemplateSyntaxKind = "UNCLOSED"
	SyntaxEmpty    TemplateSyntaxKind = "EMPTY"
	SyntaxUnknown  TemplateSyntaxKind = "UNKNOWN"
	SyntaxDuplicate TemplateSyntaxKind = "DUPLICATE"
)

// TemplateSyntaxError reports a malformed or unresolvable ${id} placeholder.
type TemplateSyntaxError struct {
	Kind TemplateSyntaxKind
	ID   string
	Pos  int
}

func (e *TemplateSyntaxError) Error() string {
	switch e.Kind {
	case SyntaxUnclosed:
		return fmt.Sprintf("template: unclosed placeholder starting at position %d", e.Pos)
	case SyntaxEmpty:
		return fmt.Sprintf("template: empty placeholder ${} at position %d", e.Pos)
	case SyntaxUnknown:
		return fmt.Sprintf("template: placeholder ${%s} references an unknown parameter id", e.ID)
	case SyntaxDuplicate:
		return fmt.Sprintf("template: id %q is shared by two non-equal parameters", e.ID)
	default:
		return fmt.Sprintf("template: syntax error (id=%q, pos=%d)", e.ID, e.Pos)
	}
}

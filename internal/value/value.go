// Package value defines the logical attribute type system that the compiler
// core consumes: the five base kinds, attribute types built from them, and
// the tagged union used to carry coerced values between a ParameterCreator
// and a ParameterApplicator.
package value

import "fmt"

// BaseKind is one of the five logical kinds the upstream type system may
// assign to an attribute.
type BaseKind string

const (
	KindString  BaseKind = "STRING"
	KindInteger BaseKind = "INTEGER"
	KindDecimal BaseKind = "DECIMAL"
	KindBool    BaseKind = "BOOL"
	KindDate    BaseKind = "DATE"
)

// Valid reports whether k is one of the five recognized base kinds.
func (k BaseKind) Valid() bool {
	switch k {
	case KindString, KindInteger, KindDecimal, KindBool, KindDate:
		return true
	default:
		return false
	}
}

// Formatter normalizes a raw attribute value before it is parsed into a
// canonical intermediate representation. A nil Formatter is the identity.
type Formatter func(raw string) (string, error)

// Caster is a native type caster: a SQL fragment template that coerces a raw
// column expression to a requested logical kind at query time. %s is
// replaced with the column expression.
type Caster struct {
	Kind     BaseKind
	Template string // e.g. "CAST(%s AS DATE)"
}

// Render substitutes the column expression into the caster template.
func (c Caster) Render(columnExpr string) string {
	if c.Template == "" {
		return columnExpr
	}
	return fmt.Sprintf(c.Template, columnExpr)
}

// AttributeType describes an attribute's base kind plus its optional
// formatter and native caster. Equality is decided by Equal.
type AttributeType struct {
	Kind      BaseKind
	Formatter Formatter
	Caster    *Caster
}

// Equal reports whether a and b have the same base kind, both or neither
// carry a Formatter, and both or neither carry a Caster with equal field
// values. Formatter identity is not compared: any two non-nil formatters
// count as equal. Casters are compared by value, not by pointer identity.
func (a AttributeType) Equal(b AttributeType) bool {
	if a.Kind != b.Kind {
		return false
	}
	if (a.Formatter == nil) != (b.Formatter == nil) {
		return false
	}
	if (a.Caster == nil) != (b.Caster == nil) {
		return false
	}
	if a.Caster != nil && b.Caster != nil && *a.Caster != *b.Caster {
		return false
	}
	return true
}

// Format runs the attribute's formatter on a raw value, returning raw
// unchanged when no formatter is set.
func (a AttributeType) Format(raw string) (string, error) {
	if a.Formatter == nil {
		return raw, nil
	}
	return a.Formatter(raw)
}

// TransferTag identifies the runtime variant carried by a TransferValue. It
// MUST equal the target SQL kind's expected transfer tag (spec §9).
type TransferTag string

const (
	TagBool      TransferTag = "BOOL"
	TagI8u       TransferTag = "I8U" // unsigned byte, 0..255 (TINYINT)
	TagI16       TransferTag = "I16"
	TagI32       TransferTag = "I32"
	TagI64       TransferTag = "I64"
	TagF32       TransferTag = "F32"
	TagF64       TransferTag = "F64"
	TagDecimal7  TransferTag = "DECIMAL7"
	TagStr       TransferTag = "STR"
	TagDate      TransferTag = "DATE"
	TagTimestamp TransferTag = "TIMESTAMP"
	TagNull      TransferTag = "NULL"
)

// Transfer is the tagged union of runtime types that may be bound to a
// prepared statement placeholder. Exactly one of the typed fields is valid,
// selected by Tag; TagNull carries no payload.
type Transfer struct {
	Tag TransferTag

	Bool     bool
	I8u      uint8
	I16      int16
	I32      int32
	I64      int64
	F32      float32
	F64      float64
	Decimal7 int64 // fixed-point, scale 7 (value * 10^7), HALF_UP rounded
	Str      string
	// Date and Timestamp are both milliseconds since the Unix epoch (UTC).
	// Date carries only the calendar-day component (time-of-day is zero);
	// Timestamp may carry a full instant.
	Date      int64
	Timestamp int64
}

// Null reports whether the value represents SQL NULL.
func (t Transfer) Null() bool { return t.Tag == TagNull }

// NullTransfer returns the NULL variant.
func NullTransfer() Transfer { return Transfer{Tag: TagNull} }

// Transfer* constructors make range/tag violations unrepresentable at the
// call site per spec §9 ("all range checks become total on the variant
// constructor"). Range enforcement against a *target SQL kind* still lives
// in package param, since the same Go type (e.g. int32) may back more than
// one SQL kind with different legal ranges.

func TransferBool(b bool) Transfer { return Transfer{Tag: TagBool, Bool: b} }
func TransferI8u(v uint8) Transfer { return Transfer{Tag: TagI8u, I8u: v} }
func TransferI16(v int16) Transfer { return Transfer{Tag: TagI16, I16: v} }
func TransferI32(v int32) Transfer { return Transfer{Tag: TagI32, I32: v} }
func TransferI64(v int64) Transfer { return Transfer{Tag: TagI64, I64: v} }
func TransferF32(v float32) Transfer { return Transfer{Tag: TagF32, F32: v} }
func TransferF64(v float64) Transfer { return Transfer{Tag: TagF64, F64: v} }
func TransferDecimal7(scaled int64) Transfer {
	return Transfer{Tag: TagDecimal7, Decimal7: scaled}
}
func TransferStr(v string) Transfer          { return Transfer{Tag: TagStr, Str: v} }
func TransferDate(epochMillis int64) Transfer { return Transfer{Tag: TagDate, Date: epochMillis} }
func TransferTimestamp(epochMillis int64) Transfer {
	return Transfer{Tag: TagTimestamp, Timestamp: epochMillis}
}

// DecimalFloat returns the fixed-point Decimal7 value as a float64.
func (t Transfer) DecimalFloat() float64 {
	return float64(t.Decimal7) / 1e7
}

// Package render implements the "unsafe" textual SQL renderer (spec §6,
// §9): it substitutes each linked parameter's value directly into the SQL
// text for debugging only. It is never used for production execution,
// which goes through prepared-statement binding (package param).
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"audlangsql/internal/dialect"
	"audlangsql/internal/linker"
	"audlangsql/internal/value"
)

// unsafeBanner is prefixed to every rendered statement so a reader can
// never mistake debug output for something safe to execute directly.
const unsafeBanner = "-- UNSAFE DEBUG RENDER: do not execute directly; for inspection only.\n"

// Render substitutes each ? placeholder in linked.SQL, in order, with a
// textual literal rendered for dialect d. The result is prefixed with a
// banner making its unsafe nature explicit.
func Render(linked linker.Linked, d dialect.Type) (string, error) {
	r, err := dialect.Get(d)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(unsafeBanner)

	last := 0
	for i, pos := range linked.Positions {
		sb.WriteString(linked.SQL[last:pos])
		lit, err := literal(linked.Parameters[i].Transfer, r)
		if err != nil {
			return "", err
		}
		sb.WriteString(lit)
		last = pos + 1 // skip the '?'
	}
	sb.WriteString(linked.SQL[last:])
	return sb.String(), nil
}

func literal(t value.Transfer, r dialect.LiteralRenderer) (string, error) {
	switch t.Tag {
	case value.TagNull:
		return "NULL", nil
	case value.TagBool:
		if t.Bool {
			return "1", nil
		}
		return "0", nil
	case value.TagI8u:
		return strconv.FormatUint(uint64(t.I8u), 10), nil
	case value.TagI16:
		return strconv.FormatInt(int64(t.I16), 10), nil
	case value.TagI32:
		return strconv.FormatInt(int64(t.I32), 10), nil
	case value.TagI64:
		return strconv.FormatInt(t.I64, 10), nil
	case value.TagF32:
		return strconv.FormatFloat(float64(t.F32), 'f', -1, 32), nil
	case value.TagF64:
		return strconv.FormatFloat(t.F64, 'f', -1, 64), nil
	case value.TagDecimal7:
		return DecimalFormatter(t.Decimal7), nil
	case value.TagStr:
		return r.QuoteString(t.Str), nil
	case value.TagDate:
		return r.DateLiteral(time.UnixMilli(t.Date).UTC().Format("2006-01-02")), nil
	case value.TagTimestamp:
		return r.TimestampLiteral(time.UnixMilli(t.Timestamp).UTC().Format("2006-01-02 15:04:05")), nil
	default:
		return "", fmt.Errorf("render: unrenderable transfer tag %q", t.Tag)
	}
}

// DecimalFormatter renders a scale-7 fixed point value with between 1 and 7
// fractional digits, trimming trailing zeros but never collapsing to zero
// digits (spec §9 Open Question: a whole-number decimal always ends in
// ".0" — preserved deliberately, not "fixed").
func DecimalFormatter(scaled int64) string {
	neg := scaled < 0
	if neg {
		scaled = -scaled
	}
	whole := scaled / 1e7
	frac := scaled % 1e7
	fracStr := fmt.Sprintf("%07d", frac)
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%s", sign, whole, fracStr)
}

// ListenerPosition identifies one of the fixed augmentation-hook points a
// planner pass may invoke (spec §6 "Augmentation hooks").
type ListenerPosition string

const (
	BeforeScript       ListenerPosition = "BEFORE_SCRIPT"
	BeforeMainSelect   ListenerPosition = "BEFORE_MAIN_SELECT"
	AfterMainSelect    ListenerPosition = "AFTER_MAIN_SELECT"
	BeforeOnConditions ListenerPosition = "BEFORE_ON_CONDITIONS"
	AfterOnConditions  ListenerPosition = "AFTER_ON_CONDITIONS"
	BeforeWithSelect   ListenerPosition = "BEFORE_WITH_SELECT"
	AfterWithSelect    ListenerPosition = "AFTER_WITH_SELECT"
	AfterScript        ListenerPosition = "AFTER_SCRIPT"
)

// AugmentationListener may insert dialect comments at fixed positions. It
// must never emit executable tokens — callers that render its output treat
// it as decorative only (spec §6).
type AugmentationListener interface {
	Comment(pos ListenerPosition) string
}

// NopListener is an AugmentationListener that never emits anything.
type NopListener struct{}

func (NopListener) Comment(ListenerPosition) string { return "" }

// sanitizeComment strips anything that could terminate a SQL line comment
// early or smuggle a second statement, keeping the augmentation contract
// "purely decorative" even if a listener implementation is careless.
func sanitizeComment(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "*/", "")
	s = strings.ReplaceAll(s, ";", "")
	return strings.TrimSpace(s)
}

// Augment renders a listener's comment at pos as a SQL block comment, or
// the empty string when the listener has nothing to say.
func Augment(l AugmentationListener, pos ListenerPosition) string {
	if l == nil {
		return ""
	}
	c := sanitizeComment(l.Comment(pos))
	if c == "" {
		return ""
	}
	return "/* " + c + " */ "
}

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audlangsql/internal/dialect"
	"audlangsql/internal/linker"
	"audlangsql/internal/param"
	"audlangsql/internal/value"
)

func TestRenderPrefixesUnsafeBanner(t *testing.T) {
	linked := linker.Linked{SQL: "SELECT 1"}
	out, err := Render(linked, dialect.Plain)
	require.NoError(t, err)
	assert.Contains(t, out, "UNSAFE DEBUG RENDER")
	assert.Contains(t, out, "SELECT 1")
}

func TestRenderSubstitutesEachTagVariant(t *testing.T) {
	linked := linker.Linked{
		SQL: "a=? AND b=? AND c=? AND d=?",
		Parameters: []param.QueryParameter{
			{Transfer: value.NullTransfer()},
			{Transfer: value.TransferBool(true)},
			{Transfer: value.TransferI32(42)},
			{Transfer: value.TransferStr("o'brien")},
		},
		Positions: []int{2, 10, 18, 26},
	}
	out, err := Render(linked, dialect.Plain)
	require.NoError(t, err)
	assert.Contains(t, out, "a=NULL")
	assert.Contains(t, out, "b=1")
	assert.Contains(t, out, "c=42")
	assert.Contains(t, out, "d='o''brien'")
}

func TestRenderBoolFalse(t *testing.T) {
	linked := linker.Linked{
		SQL:        "a=?",
		Parameters: []param.QueryParameter{{Transfer: value.TransferBool(false)}},
		Positions:  []int{2},
	}
	out, err := Render(linked, dialect.Plain)
	require.NoError(t, err)
	assert.Contains(t, out, "a=0")
}

func TestRenderDateAndTimestamp(t *testing.T) {
	date := value.TransferDate(1704067200000) // 2024-01-01T00:00:00Z
	ts := value.TransferTimestamp(1704110400000) // 2024-01-01T12:00:00Z
	linked := linker.Linked{
		SQL:        "d=? AND t=?",
		Parameters: []param.QueryParameter{{Transfer: date}, {Transfer: ts}},
		Positions:  []int{2, 10},
	}
	out, err := Render(linked, dialect.Default)
	require.NoError(t, err)
	assert.Contains(t, out, "DATE '2024-01-01'")
	assert.Contains(t, out, "TIMESTAMP '2024-01-01 12:00:00'")
}

func TestRenderUsesDialectSpecificQuoting(t *testing.T) {
	linked := linker.Linked{
		SQL:        "x=?",
		Parameters: []param.QueryParameter{{Transfer: value.TransferStr("hi")}},
		Positions:  []int{2},
	}
	out, err := Render(linked, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out, "'hi'")
}

func TestRenderUnknownDialect(t *testing.T) {
	linked := linker.Linked{SQL: "SELECT 1"}
	_, err := Render(linked, dialect.Type("bogus"))
	assert.Error(t, err)
}

func TestDecimalFormatterWholeNumberKeepsTrailingDotZero(t *testing.T) {
	assert.Equal(t, "125.0", DecimalFormatter(1250000000))
	assert.Equal(t, "-15.0", DecimalFormatter(-150000000))
}

func TestDecimalFormatterTrimsTrailingZerosButKeepsOneDigit(t *testing.T) {
	assert.Equal(t, "1.5", DecimalFormatter(15000000))
	assert.Equal(t, "1.2345679", DecimalFormatter(12345679))
}

func TestNopListenerEmitsNothing(t *testing.T) {
	assert.Equal(t, "", NopListener{}.Comment(BeforeScript))
}

func TestAugmentReturnsEmptyForNilListener(t *testing.T) {
	assert.Equal(t, "", Augment(nil, BeforeScript))
}

func TestAugmentWrapsCommentInBlockDelimiters(t *testing.T) {
	l := stubListener{text: "note"}
	assert.Equal(t, "/* note */ ", Augment(l, AfterScript))
}

func TestAugmentSanitizesDangerousCommentContent(t *testing.T) {
	l := stubListener{text: "line1\nline2; DROP TABLE x; */ trailing"}
	out := Augment(l, BeforeMainSelect)
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, ";")
	assert.NotContains(t, out, "*/ trailing */")
}

func TestAugmentEmptyCommentYieldsEmptyString(t *testing.T) {
	l := stubListener{text: "   "}
	assert.Equal(t, "", Augment(l, AfterScript))
}

type stubListener struct{ text string }

func (s stubListener) Comment(ListenerPosition) string { return s.text }

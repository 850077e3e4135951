package cerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorMessage(t *testing.T) {
	e := &ConfigError{Entity: "table", Name: "users", Message: "invalid identifier"}
	assert.Equal(t, `config error in table "users": invalid identifier`, e.Error())

	withField := &ConfigError{Entity: "column", Name: "id", Field: "sql_kind", Message: "unknown"}
	assert.Contains(t, withField.Error(), `field "sql_kind"`)
}

func TestFormatErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	e := &FormatError{Attribute: "a", Raw: "x", Cause: cause}
	assert.ErrorIs(t, e, cause)
}

func TestValueRangeErrorMessage(t *testing.T) {
	e := &ValueRangeError{Attribute: "age", SQLKind: "SQL_TINYINT", Value: "300", Min: 0, Max: 255}
	msg := e.Error()
	assert.Contains(t, msg, "age")
	assert.Contains(t, msg, "300")
	assert.Contains(t, msg, "[0, 255]")
}

func TestConversionErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("inner")
	e := &ConversionError{Code: CodeTimeOut, Reason: "budget exhausted", Cause: cause}
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "TIME_OUT")
	assert.Contains(t, e.Error(), "budget exhausted")

	noCause := &ConversionError{Code: CodeDirectiveViolation, Reason: "disabled"}
	assert.NotContains(t, noCause.Error(), "<nil>")
}

func TestTemplateSyntaxErrorMessages(t *testing.T) {
	cases := []struct {
		err  *TemplateSyntaxError
		want string
	}{
		{&TemplateSyntaxError{Kind: SyntaxUnclosed, Pos: 3}, "unclosed"},
		{&TemplateSyntaxError{Kind: SyntaxEmpty, Pos: 3}, "empty"},
		{&TemplateSyntaxError{Kind: SyntaxUnknown, ID: "P_1"}, "unknown parameter id"},
		{&TemplateSyntaxError{Kind: SyntaxDuplicate, ID: "P_1"}, "shared by two"},
	}
	for _, c := range cases {
		assert.Contains(t, c.err.Error(), c.want)
	}
}

func TestStaticResultMessage(t *testing.T) {
	t.Helper()
	trueRes := &StaticResult{Value: true, Reason: "no rows excluded"}
	assert.Contains(t, trueRes.Error(), "always true")

	falseRes := &StaticResult{Value: false, Reason: "unsatisfiable"}
	assert.Contains(t, falseRes.Error(), "always false")
}

func TestErrorsAsDistinguishesKinds(t *testing.T) {
	var err error = &MappingFailedError{Attribute: "x", Context: "ctx", Reason: "no table"}

	var mapped *MappingFailedError
	assert.True(t, errors.As(err, &mapped))

	var cfg *ConfigError
	assert.False(t, errors.As(err, &cfg))
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloatField(t *testing.T) {
	v, err := ParseFloatField(" 30.5 ", "price")
	require.NoError(t, err)
	assert.Equal(t, 30.5, v)

	for _, bad := range []string{"", "abc", "NaN", "Inf", "1,5"} {
		_, err := ParseFloatField(bad, "price")
		assert.ErrorIs(t, err, ErrValidationFailed, "input %q", bad)
	}
}

func TestValidatePositiveAndNonNegative(t *testing.T) {
	assert.NoError(t, ValidatePositive(0.01, "quantity"))
	assert.Error(t, ValidatePositive(0, "quantity"))
	assert.NoError(t, ValidateNonNegative(0, "fees"))
	assert.Error(t, ValidateNonNegative(-1, "fees"))
}

func TestValidateTicker(t *testing.T) {
	for _, ok := range []string{"PETR4", "BTC-USD", "IVVB11", "AAPL.SA"} {
		assert.NoError(t, ValidateTicker(ok), ok)
	}
	for _, bad := range []string{"", "=HYPERLINK(1)", "petr4", strings.Repeat("A", 16), "-X"} {
		assert.Error(t, ValidateTicker(bad), bad)
	}
}

func TestValidateDateString(t *testing.T) {
	d, err := ValidateDateString("2024-02-29", "date")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = ValidateDateString("2024-02-30", "date")
	assert.Error(t, err)
	_, err = ValidateDateString("29/02/2024", "date")
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Carteira Previdência", "name"))
	assert.Error(t, ValidateName("  ", "name"))
	assert.Error(t, ValidateName(`<script>alert(1)</script>`, "name"))
	assert.Error(t, ValidateName("=cmd|' /C calc'!A0", "name"))
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText(" <b>hello</b> "))
	assert.Equal(t, "'=SUM(A1)", SanitizeForFormulaInjection("=SUM(A1)"))
	assert.Equal(t, "PETR4", SanitizeForFormulaInjection("PETR4"))
	assert.Equal(t, "ab\tc", StripUnprintable("a\x00b\tc"))
	assert.Error(t, CheckFormulaInjection("@cmd", "ticker", "line 2"))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	ct, err := ValidateFileContentByMagicBytes(strings.NewReader("date,ticker,type,quantity,price\n2024-01-01,PETR4,buy,10,30.5\n"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)

	_, err = ValidateFileContentByMagicBytes(strings.NewReader("\x00\x01\x02binary"))
	assert.Error(t, err)

	_, err = ValidateFileContentByMagicBytes(strings.NewReader(""))
	assert.Error(t, err)

	assert.NoError(t, ValidateClientContentType("text/csv"))
	assert.Error(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
}

// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxTickerLength        = 15
	MaxNameLength          = 120
	MaxDescriptionLength   = 1024
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// --- Numeric Validators ---

// ParseFloatField parses a required decimal field. Empty, non-numeric and
// non-finite values are rejected.
func ParseFloatField(s, fieldName string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	return val, nil
}

// ValidatePositive rejects zero, negative and non-finite values.
func ValidatePositive(val float64, fieldName string) error {
	if math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
		logger.L.Warn("Non-positive value rejected", "field", fieldName, "value", val)
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateNonNegative rejects negative and non-finite values.
func ValidateNonNegative(val float64, fieldName string) error {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		logger.L.Warn("Negative value rejected", "field", fieldName, "value", val)
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// --- Date Validator ---

// ValidateDateString checks for an ISO date (YYYY-MM-DD, optionally with a time part).
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, ok := models.ParseDate(trimmed)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// --- Specific Format Validators ---

var tickerRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]*$`)

// ValidateTicker checks an already upper-cased ticker symbol.
func ValidateTicker(s string) error {
	if err := ValidateStringNotEmpty(s, "ticker"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxTickerLength, "ticker"); err != nil {
		return err
	}
	return ValidateStringRegex(s, tickerRegex, "ticker", "letters, digits, dots and hyphens")
}

// ValidateName checks a required display name.
func ValidateName(s, fieldName string) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxNameLength, fieldName); err != nil {
		return err
	}
	if err := CheckXSSPatterns(s, fieldName, ""); err != nil {
		return err
	}
	return CheckFormulaInjection(s, fieldName, "")
}

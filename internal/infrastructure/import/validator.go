package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldValidator applies field rules to rows, tracking in-file uniqueness
type FieldValidator struct {
	rules     map[string]FieldRule
	firstSeen map[string]map[string]int // column -> value -> first row number
	errors    *ErrorCollection
}

// NewFieldValidator creates a validator for the given rules
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	byColumn := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		byColumn[r.Column] = r
	}
	return &FieldValidator{
		rules:     byColumn,
		firstSeen: make(map[string]map[string]int),
		errors:    NewErrorCollection(maxErrors),
	}
}

// ValidateRow checks every ruled column of the row, recording all failures.
// Returns true when the row passed.
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for column, rule := range v.rules {
		if !v.checkField(row, column, rule) {
			ok = false
		}
	}
	return ok
}

func (v *FieldValidator) checkField(row *Row, column string, rule FieldRule) bool {
	value := row.Get(column)

	if value == "" {
		if rule.Required {
			v.errors.AddRequiredError(row.LineNumber, column)
			return false
		}
		// Optional fields skip the remaining checks when empty
		return true
	}

	if err := parseAs(value, rule.Type, rule.DateFormat); err != nil {
		v.errors.AddTypeError(row.LineNumber, column, string(rule.Type), value)
		return false
	}

	ok := true
	if rule.MaxLength > 0 && len(value) > rule.MaxLength {
		v.errors.AddLengthError(row.LineNumber, column, rule.MinLength, rule.MaxLength)
		ok = false
	}
	if rule.MinLength > 0 && len(value) < rule.MinLength {
		v.errors.AddLengthError(row.LineNumber, column, rule.MinLength, rule.MaxLength)
		ok = false
	}

	if rule.Type == TypeInt || rule.Type == TypeDecimal {
		if err := boundsCheck(value, rule.MinValue, rule.MaxValue); err != nil {
			v.errors.AddValidationError(row.LineNumber, column, ErrCodeImportInvalidRange, err.Error())
			ok = false
		}
	}

	if rule.Unique && !v.checkFirstSeen(row.LineNumber, column, value) {
		ok = false
	}

	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(value); err != nil {
			v.errors.AddValidationError(row.LineNumber, column, ErrCodeImportValidation, err.Error())
			ok = false
		}
	}
	return ok
}

// checkFirstSeen enforces in-file uniqueness, remembering where each
// value first appeared.
func (v *FieldValidator) checkFirstSeen(line int, column, value string) bool {
	if v.firstSeen[column] == nil {
		v.firstSeen[column] = make(map[string]int)
	}
	if first, dup := v.firstSeen[column][value]; dup {
		v.errors.Add(NewRowErrorWithValue(line, column, ErrCodeImportDuplicateInFile,
			fmt.Sprintf("duplicate value '%s' (first seen in row %d)", value, first), value))
		return false
	}
	v.firstSeen[column][value] = line
	return true
}

// parseAs verifies a value parses as the declared type
func parseAs(value string, fieldType FieldType, dateFormat string) error {
	switch fieldType {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeDate:
		_, err := time.Parse(dateFormat, value)
		return err
	case TypeBool:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no", "y", "n":
			return nil
		}
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

// boundsCheck verifies a numeric value against the configured bounds
func boundsCheck(value string, min, max *decimal.Decimal) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}
	if min != nil && d.LessThan(*min) {
		return fmt.Errorf("value %s is less than minimum %s", value, min.String())
	}
	if max != nil && d.GreaterThan(*max) {
		return fmt.Errorf("value %s is greater than maximum %s", value, max.String())
	}
	return nil
}

// Errors returns the error collection
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}

// Reset clears the validator state for reuse
func (v *FieldValidator) Reset() {
	v.firstSeen = make(map[string]map[string]int)
	v.errors.Clear()
}

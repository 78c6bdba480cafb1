package core

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseDate accepts YYYY-MM-DD or RFC3339 and truncates to a calendar date in UTC.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	if parsed, err := time.Parse(DateLayout, raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, Invalid(field, "must be a valid date in YYYY-MM-DD format")
}

func ValidateEmail(email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return Invalid("email", "must be a valid email address")
	}
	return nil
}

// SalaryScale matches the NUMERIC(14, 2) salary column.
const SalaryScale = 2

var salaryLimit = decimal.New(1, 14-SalaryScale)

// ValidateSalary accepts non-negative amounts that the salary column stores exactly.
func ValidateSalary(salary decimal.Decimal) error {
	switch {
	case salary.IsNegative():
		return Invalid("salary", "must not be negative")
	case !salary.Equal(salary.Round(SalaryScale)):
		return Invalid("salary", "must have at most 2 decimal places")
	case salary.GreaterThanOrEqual(salaryLimit):
		return Invalid("salary", "is too large")
	}
	return nil
}

// ValidateStruct runs the struct tags and reports the first failing field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return Invalid(lowerFirst(fe.Field()), "failed "+fe.Tag()+" check")
	}
	return Invalid("", err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	if s == "ID" {
		return "id"
	}
	return strings.ToLower(s[:1]) + s[1:]
}

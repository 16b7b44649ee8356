// Package validation turns raw form text into typed values. Checks never stop
// at the first failure: every message is appended to a Report so the caller
// can show all of them at once.
package validation

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	TagLDAPURL             = "ldap_url"
	TagLeaveTypeColor      = "leave_type_color"
	TagUsernamePlaceholder = "username_placeholder"
	TagTimezone            = "timezone"

	UsernamePlaceholder = "{{username}}"
)

var (
	ldapURLPattern        = regexp.MustCompile(`(?i)^ldaps?://[a-z0-9.\-]+:\d+$`)
	leaveTypeColorPattern = regexp.MustCompile(`^leave_type_color_\d+$`)
)

// Report accumulates user facing validation messages.
type Report struct {
	errors []string
}

func (r *Report) Add(msg string) {
	r.errors = append(r.errors, msg)
}

func (r *Report) HasErrors() bool {
	return len(r.errors) > 0
}

func (r *Report) Errors() []string {
	if len(r.errors) == 0 {
		return nil
	}
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(TagLDAPURL, func(fl validator.FieldLevel) bool {
		return ldapURLPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(TagLeaveTypeColor, func(fl validator.FieldLevel) bool {
		return leaveTypeColorPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(TagUsernamePlaceholder, func(fl validator.FieldLevel) bool {
		return strings.Contains(fl.Field().String(), UsernamePlaceholder)
	})
	_ = v.RegisterValidation(TagTimezone, func(fl validator.FieldLevel) bool {
		return IsKnownTimezone(fl.Field().String())
	})
	return &Validator{v: v}
}

// Check runs a validator tag expression against value.
func (v *Validator) Check(value, tag string) bool {
	return v.v.Var(value, tag) == nil
}

// Text trims surrounding whitespace.
func Text(raw string) string {
	return strings.TrimSpace(raw)
}

// Bool reads a checkbox or select value. Missing values and the usual
// negative spellings are false; anything else is true.
func Bool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "off", "no", "n":
		return false
	default:
		return true
	}
}

// Alphanumeric requires letters and digits only.
func (v *Validator) Alphanumeric(raw, msg string, report *Report) string {
	value := Text(raw)
	if !v.Check(value, "required,alphanum") {
		report.Add(msg)
	}
	return value
}

// Numeric parses a decimal number.
func (v *Validator) Numeric(raw, msg string, report *Report) decimal.Decimal {
	value := Text(raw)
	if !v.Check(value, "required,numeric") {
		report.Add(msg)
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		report.Add(msg)
		return decimal.Zero
	}
	return parsed
}

// NonNegative parses a number that must be zero or more. An empty value
// resolves to def.
func (v *Validator) NonNegative(raw string, def decimal.Decimal, invalidMsg, negativeMsg string, report *Report) decimal.Decimal {
	value := Text(raw)
	if value == "" {
		return def
	}
	if !v.Check(value, "numeric") {
		report.Add(invalidMsg)
		return def
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		report.Add(invalidMsg)
		return def
	}
	if parsed.IsNegative() {
		report.Add(negativeMsg)
		return def
	}
	return parsed
}

// Match validates value with one of the registered tags.
func (v *Validator) Match(raw, tag, msg string, report *Report) string {
	value := Text(raw)
	if !v.Check(value, tag) {
		report.Add(msg)
	}
	return value
}

// Timezone requires a zone name that the tz database knows.
func (v *Validator) Timezone(raw, msg string, report *Report) string {
	return v.Match(raw, TagTimezone, msg, report)
}

// DateParser converts raw text into a calendar date.
type DateParser func(raw string) (time.Time, bool)

// Date parses raw with parse; failures are reported with msg.
func Date(raw string, parse DateParser, msg string, report *Report) time.Time {
	parsed, ok := parse(Text(raw))
	if !ok {
		report.Add(msg)
		return time.Time{}
	}
	return parsed
}

// OneOf requires value to be one of options.
func OneOf(raw string, options []string, msg string, report *Report) string {
	value := Text(raw)
	for _, option := range options {
		if option == value {
			return value
		}
	}
	report.Add(msg)
	return value
}

func IsKnownTimezone(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolParsing(t *testing.T) {
	for _, raw := range []string{"", "0", "false", "OFF", "no", " n "} {
		assert.False(t, Bool(raw), raw)
	}
	for _, raw := range []string{"1", "true", "on", "yes", "anything"} {
		assert.True(t, Bool(raw), raw)
	}
}

func TestAlphanumericCountry(t *testing.T) {
	v := New()
	var report Report

	assert.Equal(t, "GB", v.Alphanumeric(" GB ", "bad country", &report))
	assert.False(t, report.HasErrors())

	v.Alphanumeric("G-B", "bad country", &report)
	v.Alphanumeric("", "bad country", &report)
	assert.Equal(t, []string{"bad country", "bad country"}, report.Errors())
}

func TestNumeric(t *testing.T) {
	v := New()
	var report Report

	assert.True(t, v.Numeric("2.5", "nan", &report).Equal(decimal.RequireFromString("2.5")))
	assert.False(t, report.HasErrors())

	v.Numeric("five", "nan", &report)
	assert.Equal(t, []string{"nan"}, report.Errors())
}

func TestNonNegativeLimit(t *testing.T) {
	v := New()

	cases := []struct {
		raw      string
		want     decimal.Decimal
		messages []string
	}{
		{raw: "", want: decimal.Zero},
		{raw: "0", want: decimal.Zero},
		{raw: "10", want: decimal.NewFromInt(10)},
		{raw: "-1", want: decimal.Zero, messages: []string{"negative"}},
		{raw: "abc", want: decimal.Zero, messages: []string{"invalid"}},
	}
	for _, tc := range cases {
		var report Report
		got := v.NonNegative(tc.raw, decimal.Zero, "invalid", "negative", &report)
		assert.True(t, tc.want.Equal(got), tc.raw)
		assert.Equal(t, tc.messages, report.Errors(), tc.raw)
	}
}

func TestLDAPURL(t *testing.T) {
	v := New()
	assert.True(t, v.Check("ldap://ldap.example.com:389", TagLDAPURL))
	assert.True(t, v.Check("LDAPS://10.0.0.1:636", TagLDAPURL))
	assert.False(t, v.Check("ldap://ldap.example.com", TagLDAPURL))
	assert.False(t, v.Check("http://ldap.example.com:389", TagLDAPURL))
}

func TestUsernamePlaceholderRequired(t *testing.T) {
	v := New()
	var report Report

	v.Match("(mail={{username}})", TagUsernamePlaceholder, "missing", &report)
	assert.False(t, report.HasErrors())

	v.Match("(mail=*)", TagUsernamePlaceholder, "missing", &report)
	assert.Equal(t, []string{"missing"}, report.Errors())
}

func TestLeaveTypeColor(t *testing.T) {
	v := New()
	assert.True(t, v.Check("leave_type_color_3", TagLeaveTypeColor))
	assert.False(t, v.Check("red", TagLeaveTypeColor))
	assert.False(t, v.Check("leave_type_color_", TagLeaveTypeColor))
}

func TestTimezone(t *testing.T) {
	v := New()
	var report Report

	assert.Equal(t, "Europe/London", v.Timezone("Europe/London", "Time zone is unknown", &report))
	assert.False(t, report.HasErrors())

	v.Timezone("Mars/Phobos", "Time zone is unknown", &report)
	v.Timezone("Local", "Time zone is unknown", &report)
	assert.Len(t, report.Errors(), 2)
}

func TestDateAndOneOf(t *testing.T) {
	var report Report
	parse := func(raw string) (time.Time, bool) {
		d, err := time.Parse("2006-01-02", raw)
		return d, err == nil
	}

	got := Date("2026-05-01", parse, "bad date", &report)
	require.False(t, report.HasErrors())
	assert.Equal(t, 2026, got.Year())

	Date("01/05/2026", parse, "bad date", &report)
	OneOf("XX", []string{"YYYY-MM-DD"}, "Unknown date format was provided", &report)
	assert.Equal(t, []string{"bad date", "Unknown date format was provided"}, report.Errors())
}

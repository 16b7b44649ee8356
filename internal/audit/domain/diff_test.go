package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	name := "Acme"
	var missing *string
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"x", "x"},
		{true, "true"},
		{5, "5"},
		{int64(-3), "-3"},
		{uint8(7), "7"},
		{2.5, "2.5"},
		{decimal.RequireFromString("10.50"), "10.5"},
		{snowflake.ID(42), "42"},
		{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "2026-01-02T03:04:05Z"},
		{&name, "Acme"},
		{missing, "null"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Stringify(tc.in))
	}
}

func TestDiffComparesText(t *testing.T) {
	before := map[string]any{"carry_over": 5, "name": "Acme", "gone": "x"}
	after := map[string]any{"carry_over": "5", "name": "Acme Ltd", "timezone": "UTC"}

	changes := Diff(before, after)
	assert.Equal(t, []Change{
		{Attribute: "name", OldValue: "Acme", NewValue: "Acme Ltd"},
		{Attribute: "timezone", OldValue: "null", NewValue: "UTC"},
	}, changes)
}

func TestDiffNoChanges(t *testing.T) {
	state := map[string]any{"a": 1, "b": false}
	assert.Empty(t, Diff(state, state))
}

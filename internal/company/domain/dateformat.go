package domain

import (
	"slices"
	"strings"
	"time"
)

const ISODateLayout = "2006-01-02"

// dateLayouts maps the user facing format names onto Go layouts.
var dateLayouts = map[string]string{
	"YYYY-MM-DD": "2006-01-02",
	"YYYY/MM/DD": "2006/01/02",
	"DD MMM, YY": "02 Jan, 06",
	"DD/MM/YY":   "02/01/06",
	"DD/MM/YYYY": "02/01/2006",
	"MM/DD/YY":   "01/02/06",
	"MM/DD/YYYY": "01/02/2006",
}

var availableDateFormats = []string{
	"YYYY-MM-DD",
	"YYYY/MM/DD",
	"DD MMM, YY",
	"DD/MM/YY",
	"DD/MM/YYYY",
	"MM/DD/YY",
	"MM/DD/YYYY",
}

func AvailableDateFormats() []string {
	return slices.Clone(availableDateFormats)
}

func IsKnownDateFormat(format string) bool {
	_, ok := dateLayouts[format]
	return ok
}

func (c *Company) layout() string {
	if layout, ok := dateLayouts[c.DateFormat]; ok {
		return layout
	}
	return ISODateLayout
}

// ParseDate reads raw in the company format, falling back to ISO dates.
// The result is a UTC midnight.
func (c *Company) ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{c.layout(), ISODateLayout} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormaliseDate converts raw into the ISO form stored on records.
func (c *Company) NormaliseDate(raw string) (string, bool) {
	t, ok := c.ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(ISODateLayout), true
}

// FormatDate renders t in the company format.
func (c *Company) FormatDate(t time.Time) string {
	return t.Format(c.layout())
}

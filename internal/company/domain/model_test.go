package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateUsesCompanyFormat(t *testing.T) {
	c := &Company{DateFormat: "DD/MM/YYYY"}

	parsed, ok := c.ParseDate("25/12/2026")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), parsed)

	iso, ok := c.NormaliseDate("2026-12-25")
	require.True(t, ok)
	assert.Equal(t, "2026-12-25", iso)

	_, ok = c.ParseDate("not a date")
	assert.False(t, ok)
	_, ok = c.ParseDate("")
	assert.False(t, ok)
}

func TestFormatDateFallsBackToISO(t *testing.T) {
	c := &Company{DateFormat: "unknown"}
	assert.Equal(t, "2026-03-01", c.FormatDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsKnownDateFormat("unknown"))
	assert.Contains(t, AvailableDateFormats(), "MM/DD/YYYY")
}

func TestTodayFollowsCompanyTimezone(t *testing.T) {
	c := &Company{Timezone: "Pacific/Auckland"}
	now := time.Date(2026, 6, 30, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), c.Today(now))

	broken := &Company{Timezone: "Mars/Phobos"}
	assert.Equal(t, time.UTC, broken.Location())
}

func TestScheduleDefaultsToWeekdays(t *testing.T) {
	s := DefaultSchedule()
	assert.True(t, s.Works(time.Monday))
	assert.True(t, s.Works(time.Friday))
	assert.False(t, s.Works(time.Saturday))
	assert.False(t, s.IsUserSpecific())

	s.SetDay(time.Saturday, true)
	assert.Equal(t, true, s.Snapshot()["saturday"])

	user := NewUserSchedule(2, 9)
	assert.True(t, user.IsUserSpecific())
}

func TestMachineName(t *testing.T) {
	c := &Company{Name: "Acme Widgets Ltd"}
	assert.Equal(t, "acme_widgets_ltd", c.MachineName())
}

func TestLDAPRoundTripsThroughJSONType(t *testing.T) {
	c := &Company{}
	c.SetLDAP(LdapAuthConfig{URL: "ldap://ldap.example.com:389", SearchFilter: "(mail={{username}})"})
	assert.Equal(t, "ldap://ldap.example.com:389", c.LDAP().URL)
	assert.Equal(t, "ldap://ldap.example.com:389", c.LDAPSnapshot()["url"])
}

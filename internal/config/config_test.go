package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LDAP_CHECK_TIMEOUT", "")
	t.Setenv("FEED_DOMAIN", "")
	t.Setenv("ENVIRONMENT", "development")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.LDAPCheckTimeout)
	assert.Equal(t, "timeoff.management", cfg.FeedDomain)
	assert.False(t, cfg.IsProduction())
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
}

func TestBankHolidayCatalogEmbeddedDefaults(t *testing.T) {
	catalog, err := NewBankHolidayCatalog(Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	gb, ok := catalog.ForCountry("gb")
	require.True(t, ok)
	assert.NotEmpty(t, gb)

	fallback, ok := catalog.ForCountry("")
	require.True(t, ok)
	assert.Equal(t, gb, fallback)

	_, ok = catalog.ForCountry("ZZ")
	assert.False(t, ok)
	assert.Contains(t, catalog.Codes(), "US")
}

func TestBankHolidayCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yml")
	content := "countries:\n  fr:\n    name: France\n    bank_holidays:\n      - { name: \"Jour de l'an\", date: \"2026-01-01\" }\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := NewBankHolidayCatalog(Config{BankHolidaysConfig: path}, zaptest.NewLogger(t))
	require.NoError(t, err)

	fr, ok := catalog.ForCountry("FR")
	require.True(t, ok)
	require.Len(t, fr, 1)
	assert.Equal(t, "2026-01-01", fr[0].Date)
}

func TestBankHolidayCatalogRejectsBadDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yml")
	content := "countries:\n  fr:\n    bank_holidays:\n      - { name: \"Broken\", date: \"01/01/2026\" }\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewBankHolidayCatalog(Config{BankHolidaysConfig: path}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

//go:embed bank_holidays.yml
var defaultBankHolidays []byte

const DefaultCountry = "GB"

// BankHolidayTemplate is one entry of a country's default bank holiday list.
type BankHolidayTemplate struct {
	Name string `mapstructure:"name"`
	Date string `mapstructure:"date"`
}

type CountryHolidays struct {
	Name         string                `mapstructure:"name"`
	BankHolidays []BankHolidayTemplate `mapstructure:"bank_holidays"`
}

type BankHolidayConfig struct {
	Countries map[string]CountryHolidays `mapstructure:"countries"`
}

// BankHolidayCatalog serves the per-country default bank holidays and
// reloads them when the backing file changes.
type BankHolidayCatalog struct {
	current atomic.Value // holds BankHolidayConfig
}

func NewBankHolidayCatalog(cfg Config, log *zap.Logger) (*BankHolidayCatalog, error) {
	log = log.Named("config.bank_holidays")

	v := viper.New()
	v.SetConfigType("yml")

	path := strings.TrimSpace(cfg.BankHolidaysConfig)
	if path == "" {
		if err := v.ReadConfig(bytes.NewReader(defaultBankHolidays)); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read bank holidays config %s: %w", path, err)
		}
	}

	parsed, err := decodeBankHolidays(v)
	if err != nil {
		return nil, err
	}

	catalog := &BankHolidayCatalog{}
	catalog.current.Store(parsed)

	if path != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeBankHolidays(v)
			if err != nil {
				log.Warn("bank holidays reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			catalog.current.Store(updated)
			log.Info("bank holidays reloaded", zap.String("file", e.Name))
		})
	}

	return catalog, nil
}

// NewStaticBankHolidayCatalog builds a catalog that never reloads.
func NewStaticBankHolidayCatalog(countries map[string]CountryHolidays) *BankHolidayCatalog {
	normalized := make(map[string]CountryHolidays, len(countries))
	for code, entry := range countries {
		normalized[strings.ToUpper(code)] = entry
	}
	catalog := &BankHolidayCatalog{}
	catalog.current.Store(BankHolidayConfig{Countries: normalized})
	return catalog
}

func (c *BankHolidayCatalog) Get() BankHolidayConfig {
	return c.current.Load().(BankHolidayConfig)
}

// ForCountry returns the default bank holidays for the ISO country code.
func (c *BankHolidayCatalog) ForCountry(code string) ([]BankHolidayTemplate, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCountry
	}
	entry, ok := c.Get().Countries[code]
	if !ok {
		return nil, false
	}
	out := make([]BankHolidayTemplate, len(entry.BankHolidays))
	copy(out, entry.BankHolidays)
	return out, true
}

// Codes lists the country codes with known bank holidays.
func (c *BankHolidayCatalog) Codes() []string {
	countries := c.Get().Countries
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func decodeBankHolidays(v *viper.Viper) (BankHolidayConfig, error) {
	var raw BankHolidayConfig
	if err := v.Unmarshal(&raw); err != nil {
		return BankHolidayConfig{}, err
	}

	// viper lowercases map keys.
	cfg := BankHolidayConfig{Countries: make(map[string]CountryHolidays, len(raw.Countries))}
	for code, entry := range raw.Countries {
		cfg.Countries[strings.ToUpper(code)] = entry
	}
	if err := validateBankHolidays(cfg); err != nil {
		return BankHolidayConfig{}, err
	}
	return cfg, nil
}

func validateBankHolidays(cfg BankHolidayConfig) error {
	if len(cfg.Countries) == 0 {
		return errors.New("countries cannot be empty")
	}
	for code, entry := range cfg.Countries {
		for _, holiday := range entry.BankHolidays {
			if strings.TrimSpace(holiday.Name) == "" {
				return fmt.Errorf("countries.%s: bank holiday name is required", code)
			}
			if _, err := time.Parse("2006-01-02", holiday.Date); err != nil {
				return fmt.Errorf("countries.%s: invalid date %q", code, holiday.Date)
			}
		}
	}
	return nil
}

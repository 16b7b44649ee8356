package reference

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/biter777/countries"
	"github.com/smallbiznis/timeoff/internal/reference/domain"
)

// zoneinfoRoots are searched in order for the tz database.
var zoneinfoRoots = []string{"/usr/share/zoneinfo", "/usr/lib/zoneinfo", "/usr/share/lib/zoneinfo"}

// fallbackTimezones is used when the host has no tz database on disk.
var fallbackTimezones = []string{
	"Africa/Johannesburg", "America/Chicago", "America/Los_Angeles", "America/New_York",
	"America/Sao_Paulo", "Asia/Jakarta", "Asia/Kolkata", "Asia/Singapore", "Asia/Tokyo",
	"Australia/Sydney", "Europe/Berlin", "Europe/London", "Europe/Madrid", "Europe/Paris",
	"Pacific/Auckland", "UTC",
}

type repository struct {
	zonesOnce sync.Once
	zones     []domain.Timezone
}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	all := countries.All()
	out := make([]domain.Country, 0, len(all))
	for _, c := range all {
		if c == countries.Unknown {
			continue
		}
		out = append(out, domain.Country{Code: c.Alpha2(), Name: c.Info().Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repository) CountryName(code string) string {
	c := countries.ByName(strings.ToUpper(strings.TrimSpace(code)))
	if c == countries.Unknown {
		return ""
	}
	return c.Info().Name
}

func (r *repository) ListTimezones(ctx context.Context) ([]domain.Timezone, error) {
	r.zonesOnce.Do(func() {
		names := scanZoneinfo()
		if len(names) == 0 {
			names = fallbackTimezones
		}
		r.zones = make([]domain.Timezone, 0, len(names))
		for _, name := range names {
			region, _, _ := strings.Cut(name, "/")
			r.zones = append(r.zones, domain.Timezone{Name: name, Region: region})
		}
	})
	out := make([]domain.Timezone, len(r.zones))
	copy(out, r.zones)
	return out, nil
}

func scanZoneinfo() []string {
	for _, root := range zoneinfoRoots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}

		seen := map[string]struct{}{}
		_ = fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != "." && skipZoneDir(d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if !isZoneName(path) {
				return nil
			}
			if _, err := time.LoadLocation(path); err == nil {
				seen[path] = struct{}{}
			}
			return nil
		})

		if len(seen) == 0 {
			continue
		}
		names := make([]string, 0, len(seen))
		for name := range seen {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	return nil
}

func skipZoneDir(name string) bool {
	return name == "posix" || name == "right" || name == "Etc" || name == "SystemV"
}

// isZoneName keeps Area/Location names and UTC.
func isZoneName(path string) bool {
	if path == "UTC" {
		return true
	}
	if !strings.Contains(path, "/") || strings.ContainsAny(path, ".") {
		return false
	}
	first := path[0]
	return first >= 'A' && first <= 'Z'
}

package domain

import "context"

type Repository interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListTimezones(ctx context.Context) ([]Timezone, error)
	// CountryName returns "" for unknown codes.
	CountryName(code string) string
}

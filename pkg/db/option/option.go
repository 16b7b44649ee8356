// Package option holds composable query modifiers for the generic repository.
package option

import "gorm.io/gorm"

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Where adds a raw condition.
func Where(query string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// OrderBy sorts by the given column expression, e.g. "date asc".
func OrderBy(expr string) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

// Preload eagerly loads an association.
func Preload(association string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, args...)
	})
}

func Limit(n int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	})
}

// Scope wraps an arbitrary gorm scope.
func Scope(fn func(db *gorm.DB) *gorm.DB) QueryOption {
	return queryFunc(fn)
}

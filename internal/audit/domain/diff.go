package domain

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Change is one attribute whose rendered text differs.
type Change struct {
	Attribute string
	OldValue  string
	NewValue  string
}

// Diff compares the text form of every key in after with the same key in
// before. Keys only present in before are ignored.
func Diff(before, after map[string]any) []Change {
	keys := make([]string, 0, len(after))
	for key := range after {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var changes []Change
	for _, key := range keys {
		oldValue := Stringify(before[key])
		newValue := Stringify(after[key])
		if oldValue == newValue {
			continue
		}
		changes = append(changes, Change{Attribute: key, OldValue: oldValue, NewValue: newValue})
	}
	return changes
}

// Stringify renders a value the way it is compared and stored. Numbers and
// their decimal text render the same, so 5 and "5" are equal.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		return Stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(value)
}

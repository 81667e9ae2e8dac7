package services

import (
	"strings"
	"unicode"
)

// Setting keys are persisted in snake_case ("merchant_commission") and
// addressed in code and in the service API in camelCase ("merchantCommission").
// The two transforms below are exact inverses for every key in use; the
// round-trip is asserted in tests for the full key set.

// ToCamelKey converts a snake_case storage key to its camelCase form.
func ToCamelKey(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// ToSnakeKey converts a camelCase key to its snake_case storage form.
func ToSnakeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package util

import (
	"strings"
	"unicode"
)

// ToSnakeCase maps exported Go field names onto snake_case column names,
// e.g. "UpdateIntervalHours" -> "update_interval_hours".
func ToSnakeCase(str string) string {
	var b strings.Builder

	for i, r := range str {
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

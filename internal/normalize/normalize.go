// Package normalize reduces column definitions to canonical forms used for
// equality checks and decomposes them into structured details.
package normalize

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Definition upper-cases raw and collapses every whitespace run to a single
// space. Definition(Definition(x)) == Definition(x) for all x.
func Definition(raw string) string {
	return strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
}

// Identifier folds name to lower case when fold is set.
func Identifier(name string, fold bool) string {
	if fold {
		return strings.ToLower(name)
	}
	return name
}

// Value maps a blank optional value to nil.
func Value(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsNumericLiteral reports whether s is a plain decimal number such as 0, -1.5 or 1e3.
func IsNumericLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return false
	}
	// apd accepts NaN and Infinity, which are not literals in DDL.
	return d.Form == apd.Finite
}

// IsBooleanLiteral reports whether s is TRUE or FALSE in any case.
func IsBooleanLiteral(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "FALSE":
		return true
	}
	return false
}

// IsExpression reports whether a default value is a function call, keyword or
// parenthesised expression rather than a string literal.
func IsExpression(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "(") || strings.Contains(s, "(") || strings.Contains(s, "::") {
		return true
	}
	switch strings.ToUpper(s) {
	case "NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "LOCALTIMESTAMP",
		"LOCALTIME", "SYSDATE", "SYSTIMESTAMP", "CURRENT_USER", "SESSION_USER", "USER":
		return true
	}
	return false
}

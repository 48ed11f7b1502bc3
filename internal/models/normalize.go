package models

import "strings"

// NormalizeKey upper-cases and collapses whitespace so identifiers exported
// with inconsistent spacing compare equal.
func NormalizeKey(raw string) string {
	return strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
}

// Package normalize holds the canonical field normalizers applied before
// anything is persisted or compared. Keeping them in one place means the
// stores, the CSV importer, and the dispatch engine all agree on what a
// "clean" value looks like.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Place trims a district or village name and collapses internal runs of
// whitespace to single spaces.
func Place(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Mobile strips spaces, dashes, and parentheses from a phone number.
// It does not validate: malformed values pass through so the dispatch
// engine can apply its own formatting rules.
func Mobile(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '-', '(', ')':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameKey is the case-folded form of a country name. Every lookup by name
// goes through it, so "Nigeria" and "NIGERIA" address the same row.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Package utils holds small helpers shared by the vault packages and the CLI.
package utils

import "strings"

// TagList reads a comma-separated list typed on the command line. A leading
// sigil on each entry is dropped, so "+work, +home" and "work,home" give the
// same result. Empty entries and repeats are skipped; order is kept.
func TagList(s string, sigil byte) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		field = strings.TrimSpace(field)
		if sigil != 0 && len(field) > 0 && field[0] == sigil {
			field = strings.TrimSpace(field[1:])
		}
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, field)
	}
	return out
}

package storage

import "strings"

// sanitizeSearchTerm escapes SQLite LIKE special characters so user keywords
// cannot act as wildcards. LIKE specials: % (any sequence), _ (any single
// character), \ (the escape character we declare via ESCAPE '\').
func sanitizeSearchTerm(term string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\", // Escape backslash first
		"%", "\\%",
		"_", "\\_",
	)
	return replacer.Replace(term)
}

package cl

import "strings"

// Extensions is a set of extension names.
type Extensions map[string]struct{}

// ParseExtensions splits a space-delimited extension string.
func ParseExtensions(s string) Extensions {
	exts := Extensions{}
	for _, name := range strings.Fields(s) {
		exts[name] = struct{}{}
	}
	return exts
}

// Has reports whether name is in the set.
func (e Extensions) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// Missing returns the names of required that are absent, in the order
// given.
func (e Extensions) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if !e.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

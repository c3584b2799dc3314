package util

import (
	"sort"
	"unicode/utf8"
)

// Truncate shortens s to at most max runes, ending with "…" when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// DiffStrings returns the elements only in after (added) and only in before
// (removed), each sorted.
func DiffStrings(before, after []string) (added, removed []string) {
	in := func(set []string) map[string]struct{} {
		m := make(map[string]struct{}, len(set))
		for _, s := range set {
			m[s] = struct{}{}
		}
		return m
	}
	b, a := in(before), in(after)

	for s := range a {
		if _, ok := b[s]; !ok {
			added = append(added, s)
		}
	}
	for s := range b {
		if _, ok := a[s]; !ok {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

package builder

import (
	"regexp"
)

var (
	likeMeta  = regexp.MustCompile(`[\\_%|]`)
	regexMeta = regexp.MustCompile(`[\\_%|*+?{}()\[\]]`)
)

// EscapeLike escapes LIKE wildcards with a backslash.
func EscapeLike(s string) string {
	return likeMeta.ReplaceAllString(s, `\${0}`)
}

// EscapeRegex escapes regular expression metacharacters with a backslash.
func EscapeRegex(s string) string {
	return regexMeta.ReplaceAllString(s, `\${0}`)
}

// likePattern escapes s and anchors it with % on the requested sides.
func likePattern(s string, start, end bool) string {
	p := EscapeLike(s)
	if start {
		p = "%" + p
	}
	if end {
		p = p + "%"
	}
	return p
}

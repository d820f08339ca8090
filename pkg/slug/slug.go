// Package slug builds ASCII URL slugs and picks collision-free variants of them.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make converts an arbitrary Unicode string into a lowercase, hyphen-separated
// ASCII slug. It may return "" when nothing slug-worthy remains; callers
// substitute their own fallback word with OrDefault.
func Make(s string) string {
	// 1. Decompose accented runes and drop the combining marks
	t := transform.Chain(norm.NFKD, transform.RemoveFunc(isMn))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	// 2. Lowercase and trim
	result = strings.TrimSpace(strings.ToLower(result))

	// 3. Every run of non [a-z0-9] becomes one hyphen
	result = nonAlphanumeric.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// OrDefault returns s, or fallback when s is empty.
func OrDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Pattern returns the anchored expression matching base and its numbered
// variants ("base", "base-2", "base-17"). The first submatch is the number.
func Pattern(base string) string {
	return `^` + regexp.QuoteMeta(base) + `(?:-(\d+))?$`
}

// Next chooses the slug to use for base given the slugs already taken in the
// same scope. taken may contain unrelated values; only base and its numbered
// variants are considered (case-insensitively).
//
// When base itself is free it is returned unchanged. Otherwise the result is
// base-(max+1), where max is the highest numeric suffix in use and starts at 1,
// so the first collision yields base-2.
func Next(base string, taken []string) string {
	re := regexp.MustCompile(`(?i)` + Pattern(base))

	hasRoot := false
	maxN := 1
	for _, s := range taken {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if m[1] == "" {
			hasRoot = true
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxN {
			maxN = n
		}
	}

	if !hasRoot {
		return base
	}
	return base + "-" + strconv.Itoa(maxN+1)
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

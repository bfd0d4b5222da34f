package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/security"
)

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	codeFencePattern = regexp.MustCompile("```[a-zA-Z]*")
	sqlCommentOpen   = regexp.MustCompile(`/\*|\*/`)
)

// injectionFragments are markers that only appear in injected code or markup,
// never in a genuine question. They are collapsed to whitespace so the words
// around them survive as plain text.
var injectionFragments = []string{"--", ";", "`", "${", "{{", "}}"}

// Normalize lowers, strips control characters, and collapses injected code or
// markup into plain text. The result is what classification and retrieval see;
// nothing in it is ever executed.
func Normalize(query string) string {
	normalized, _ := NormalizeWithReport(query)
	return normalized
}

// NormalizeWithReport is Normalize plus a flag reporting whether any
// injected markup or control characters had to be removed.
func NormalizeWithReport(query string) (string, bool) {
	sanitized := security.SanitizeQuery(query)
	stripped := len(sanitized) != len(strings.TrimSpace(query))

	lowered := strings.ToLower(sanitized)

	collapsed := htmlTagPattern.ReplaceAllString(lowered, " ")
	collapsed = codeFencePattern.ReplaceAllString(collapsed, " ")
	collapsed = sqlCommentOpen.ReplaceAllString(collapsed, " ")
	for _, fragment := range injectionFragments {
		collapsed = strings.ReplaceAll(collapsed, fragment, " ")
	}
	if collapsed != lowered {
		stripped = true
	}

	// Collapse runs of whitespace left behind by the removals
	normalized := strings.Join(strings.Fields(collapsed), " ")

	return normalized, stripped
}

// Tokenize splits a normalized query into a token set for whole-word rule
// matching. Percent signs and hyphens survive so stat shorthand like "fg%"
// and "three-point" stay intact.
func Tokenize(normalized string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(normalized) {
		cleaned := cleanToken(word)
		if cleaned != "" {
			tokens[cleaned] = true
		}
	}
	return tokens
}

func cleanToken(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '%' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClauseCount estimates how many clauses a query holds. Comparative
// connectives and commas each open a new clause. Retrieval uses it to size
// result counts for multi-part questions.
func ClauseCount(normalized string) int {
	count := 1
	for _, sep := range []string{" and ", " but ", " versus ", " vs ", ", "} {
		count += strings.Count(normalized, sep)
	}
	return count
}

package ingest

import (
	"sort"
	"strings"
	"unicode"
)

const (
	summaryRunes = 200
	maxTags      = 5
	minTagLen    = 4
)

// Summarize truncates text to a bounded-length summary. Deterministic,
// no network involved.
func Summarize(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= summaryRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:summaryRunes])) + "..."
}

// DeriveTags picks the most frequent significant words as a small tag
// set. Ties break alphabetically so the result is stable.
func DeriveTags(text string) []string {
	counts := make(map[string]int)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(word)) < minTagLen || stopwords[word] {
			continue
		}
		counts[word]++
	}

	tags := make([]string, 0, len(counts))
	for w := range counts {
		tags = append(tags, w)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "because": true,
	"been": true, "being": true, "could": true, "each": true,
	"from": true, "have": true, "into": true, "more": true,
	"only": true, "other": true, "over": true, "should": true,
	"some": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true,
	"were": true, "what": true, "when": true, "which": true,
	"will": true, "with": true, "would": true, "your": true,
}

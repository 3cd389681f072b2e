package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "a short note", Summarize("  a short note \n"))
}

func TestSummarize_LongTextTruncatedWithEllipsis(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := Summarize(long)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), summaryRunes+3)
}

func TestSummarize_MultibyteBoundary(t *testing.T) {
	long := strings.Repeat("ü", summaryRunes+50)
	got := Summarize(long)

	assert.True(t, utf8.ValidString(got), "truncation must not split runes")
	assert.Equal(t, summaryRunes+3, utf8.RuneCountInString(got))
}

func TestDeriveTags_FrequencyThenAlphabetical(t *testing.T) {
	text := "kubernetes kubernetes kubernetes cluster cluster deploy deploy " +
		"backup backup alpha alpha zulu zulu nginx"
	tags := DeriveTags(text)

	assert.Len(t, tags, maxTags)
	assert.Equal(t, "kubernetes", tags[0])
	// two-count words tie and order alphabetically
	assert.Equal(t, []string{"alpha", "backup", "cluster", "deploy"}, tags[1:])
}

func TestDeriveTags_FiltersShortAndStopwords(t *testing.T) {
	tags := DeriveTags("the cat ran with them because it was fun")
	assert.Empty(t, tags, "short words and stopwords contribute nothing")
}

func TestDeriveTags_Deterministic(t *testing.T) {
	text := "postgres redis queue worker postgres redis queue worker extra"
	first := DeriveTags(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveTags(text))
	}
}

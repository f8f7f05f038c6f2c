package summarize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCompress_TextWithinLimitUnchanged(t *testing.T) {
	text := "Short answer."
	sum := Compress(text, 160)
	if sum.Truncated {
		t.Fatalf("expected no truncation")
	}
	if sum.ShortText != text {
		t.Fatalf("expected unchanged text, got %q", sum.ShortText)
	}
}

func TestCompress_NoLimitMeansNoCompression(t *testing.T) {
	text := strings.Repeat("long ", 1000)
	sum := Compress(text, 0)
	if sum.Truncated || sum.ShortText != text {
		t.Fatalf("expected text passed through without a limit")
	}
}

func TestCompress_LongAnswerAgainstSMSLimit(t *testing.T) {
	sentence := "This is a fairly long sentence about routing decisions. "
	full := strings.Repeat(sentence, 50)
	if len(full) < 2400 {
		t.Fatalf("fixture too short: %d", len(full))
	}

	sum := Compress(full, 160)
	if !sum.Truncated {
		t.Fatalf("expected truncation")
	}
	if utf8.RuneCountInString(sum.ShortText) > 160 {
		t.Fatalf("short text exceeds limit: %d", utf8.RuneCountInString(sum.ShortText))
	}
	if !strings.HasSuffix(sum.ShortText, Trailer) {
		t.Fatalf("expected short text to end with trailer, got %q", sum.ShortText)
	}
}

func TestCompress_SentenceBoundaryKeepsWholeSentences(t *testing.T) {
	full := "First sentence here. Second sentence follows! Third one is a bit longer than the others? " +
		strings.Repeat("Filler sentence to push the text over the limit. ", 10)
	sum := Compress(full, 120)
	if !sum.Truncated {
		t.Fatalf("expected truncation")
	}
	content := strings.TrimSuffix(sum.ShortText, " "+Trailer)
	if !strings.HasPrefix(full, content) {
		t.Fatalf("expected content to be a prefix of the original, got %q", content)
	}
	last := content[len(content)-1]
	if last != '.' && last != '!' && last != '?' {
		t.Fatalf("expected content to end on a sentence boundary, got %q", content)
	}
}

func TestCompress_KeepsFirstCodeBlock(t *testing.T) {
	full := "Here is the fix explained in a lot of words that will not fit. " +
		"```\nx := 1\n```\n" +
		strings.Repeat("More prose. ", 50)
	sum := Compress(full, 160)
	if !sum.Truncated {
		t.Fatalf("expected truncation")
	}
	if !strings.Contains(sum.ShortText, "```\nx := 1\n```") {
		t.Fatalf("expected code block to survive, got %q", sum.ShortText)
	}
	if utf8.RuneCountInString(sum.ShortText) > 160 {
		t.Fatalf("short text exceeds limit")
	}
}

func TestCompress_KeepsLeadingListItems(t *testing.T) {
	full := "Steps:\n1. Install the package\n2. Configure the database\n3. Run the migration\n4. Start the server\n" +
		strings.Repeat("Extra detail. ", 40)
	sum := Compress(full, 100)
	if !sum.Truncated {
		t.Fatalf("expected truncation")
	}
	if !strings.Contains(sum.ShortText, "1. Install the package") {
		t.Fatalf("expected first list item kept, got %q", sum.ShortText)
	}
	if utf8.RuneCountInString(sum.ShortText) > 100 {
		t.Fatalf("short text exceeds limit: %q", sum.ShortText)
	}
}

func TestCompress_PathologicalSingleSentence(t *testing.T) {
	full := strings.Repeat("a", 500)
	sum := Compress(full, 160)
	if !sum.Truncated {
		t.Fatalf("expected truncation")
	}
	if got := utf8.RuneCountInString(sum.ShortText); got != 160 {
		t.Fatalf("expected hard cut to land exactly on the limit, got %d", got)
	}
	if !strings.HasSuffix(sum.ShortText, Trailer) {
		t.Fatalf("expected trailer suffix")
	}
}

func TestCompress_SafetyProperty(t *testing.T) {
	inputs := []string{
		strings.Repeat("word ", 600),
		"One. Two. Three. " + strings.Repeat("Four five six. ", 100),
		strings.Repeat("x", 1000),
		"```\ncode block content\n```" + strings.Repeat(" prose", 200),
		"1. item one\n2. item two\n" + strings.Repeat("tail ", 300),
	}
	limits := []int{40, 80, 160, 320, 1000}
	for _, input := range inputs {
		for _, limit := range limits {
			if limit <= trailerLen {
				continue
			}
			sum := Compress(input, limit)
			if got := utf8.RuneCountInString(sum.ShortText); got > limit {
				t.Fatalf("limit %d: short text is %d chars", limit, got)
			}
		}
	}
}

// Package summarize compresses backend answers into channel-length-bounded
// text. Compression prefers exploitable structure (code blocks, numbered
// lists), then whole sentences, then a hard cut. It never fails.
package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Trailer is appended to every compressed answer so the user knows the full
// text is one reply away.
const Trailer = "… reply 'MORE' for details"

// trailerLen is the trailer length in characters.
var trailerLen = utf8.RuneCountInString(Trailer)

// Summary is the outcome of compressing one answer.
type Summary struct {
	ShortText string
	Truncated bool
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
	listItem    = regexp.MustCompile(`^\s*\d+[.)]\s`)
)

// Compress fits fullText into limit characters. A limit <= 0 means no
// compression is needed; text already within the limit is returned
// unchanged. Lengths are measured in runes, matching how message channels
// count characters.
func Compress(fullText string, limit int) Summary {
	if limit <= 0 {
		return Summary{ShortText: fullText}
	}
	if utf8.RuneCountInString(fullText) <= limit {
		return Summary{ShortText: fullText}
	}

	// Room for content, one separator, and the trailer.
	budget := limit - trailerLen - 1

	if budget > 0 {
		if block, ok := firstCodeBlock(fullText); ok && utf8.RuneCountInString(block) <= budget {
			return Summary{ShortText: block + "\n" + Trailer, Truncated: true}
		}
		if items, ok := listPrefix(fullText, budget); ok {
			return Summary{ShortText: items + "\n" + Trailer, Truncated: true}
		}
		if head, ok := sentencePrefix(fullText, budget); ok {
			return Summary{ShortText: head + " " + Trailer, Truncated: true}
		}
	}

	// Pathological single over-long sentence: hard cut plus ellipsis.
	cut := limit - trailerLen - 1
	if cut < 0 {
		cut = 0
	}
	return Summary{ShortText: truncateRunes(fullText, cut) + "…" + Trailer, Truncated: true}
}

// firstCodeBlock returns the first complete fenced code block, fences
// included.
func firstCodeBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	closeIdx := strings.Index(rest, "```")
	if closeIdx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[open : open+3+closeIdx+3]), true
}

// listPrefix returns the leading numbered list items that fit the budget.
// At least one complete item must fit.
func listPrefix(text string, budget int) (string, bool) {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if listItem.MatchString(line) {
			items = append(items, strings.TrimSpace(line))
		}
	}
	if len(items) == 0 {
		return "", false
	}

	out := ""
	for _, item := range items {
		candidate := item
		if out != "" {
			candidate = out + "\n" + item
		}
		if utf8.RuneCountInString(candidate) > budget {
			break
		}
		out = candidate
	}
	if out == "" {
		return "", false
	}
	return out, true
}

// sentencePrefix accumulates whole sentences until the next one would
// exceed the budget. At least one complete sentence must fit.
func sentencePrefix(text string, budget int) (string, bool) {
	out := ""
	for _, sentence := range splitSentences(text) {
		candidate := sentence
		if out != "" {
			candidate = out + " " + sentence
		}
		if utf8.RuneCountInString(candidate) > budget {
			break
		}
		out = candidate
	}
	if out == "" {
		return "", false
	}
	return out, true
}

// splitSentences splits on sentence-final punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(trimmed, -1) {
		out = append(out, strings.TrimSpace(trimmed[start:loc[0]+1]))
		start = loc[1]
	}
	if start < len(trimmed) {
		out = append(out, strings.TrimSpace(trimmed[start:]))
	}
	return out
}

// truncateRunes cuts a string to at most n runes.
func truncateRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

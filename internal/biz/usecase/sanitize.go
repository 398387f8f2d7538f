package usecase

import (
	"regexp"
	"strings"
)

// Matches any fenced block, with or without a language tag after the opening
// fence, across newlines. Non-greedy so adjacent blocks are removed one by one.
var fencedBlockRe = regexp.MustCompile("(?s)```.*?```")

// Sanitize strips fenced code/JSON blocks from AI output so only
// human-readable text is persisted. Each block is replaced with a single
// newline; leftover unmatched fences are dropped; the result is trimmed.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	s := fencedBlockRe.ReplaceAllString(raw, "\n")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// SplitTitleContent splits sanitized text on the first newline: first line is
// the title, the remainder is the content. A single-line reply has no separate
// title, so the line becomes the content and the title is empty.
func SplitTitleContent(sanitized string) (title, content string) {
	s := strings.TrimSpace(sanitized)
	head, rest, _ := strings.Cut(s, "\n")
	title = strings.TrimSpace(head)
	content = strings.TrimSpace(rest)
	if content == "" {
		content = title
		title = ""
	}
	return title, content
}

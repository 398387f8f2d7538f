package usecase

import (
	"strings"
	"testing"
)

func TestSanitizeRemovesFencedBlock(t *testing.T) {
	got := Sanitize("A\n```json\n{\"x\":1}\n```\nB")
	want := "A\n\n\nB"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSanitizeMultipleBlocks(t *testing.T) {
	in := "intro\n```go\ncode\n```\nmiddle\n```\nmore\n```\nend"
	got := Sanitize(in)
	if got == in {
		t.Fatal("Expected fenced blocks to be removed")
	}
	for _, banned := range []string{"code", "more", "```"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected %q to be stripped, got %q", banned, got)
		}
	}
	if !strings.Contains(got, "intro") || !strings.Contains(got, "middle") || !strings.Contains(got, "end") {
		t.Errorf("Expected surrounding text preserved, got %q", got)
	}
}

func TestSanitizeLoneFence(t *testing.T) {
	got := Sanitize("text with ``` a stray fence")
	if strings.Contains(got, "```") {
		t.Errorf("Expected stray fence removed, got %q", got)
	}
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	if got := Sanitize("  \n hello \n  "); got != "hello" {
		t.Errorf("Expected %q, got %q", "hello", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
	if got := Sanitize("```\nonly a block\n```"); got != "" {
		t.Errorf("Expected empty string for fence-only input, got %q", got)
	}
}

func TestSplitTitleContentMultiline(t *testing.T) {
	title, content := SplitTitleContent("Groceries\nmilk\neggs")
	if title != "Groceries" {
		t.Errorf("Expected title %q, got %q", "Groceries", title)
	}
	if content != "milk\neggs" {
		t.Errorf("Expected content %q, got %q", "milk\neggs", content)
	}
}

func TestSplitTitleContentSingleLine(t *testing.T) {
	title, content := SplitTitleContent("just one line")
	if title != "" {
		t.Errorf("Expected empty title for single line, got %q", title)
	}
	if content != "just one line" {
		t.Errorf("Expected content %q, got %q", "just one line", content)
	}
}

func TestSplitTitleContentBlankSecondLine(t *testing.T) {
	// A trailing blank line collapses to a single-line reply
	title, content := SplitTitleContent("heading\n\n")
	if title != "" || content != "heading" {
		t.Errorf("Expected (\"\", \"heading\"), got (%q, %q)", title, content)
	}
}

package pdf

import (
	"strings"
	"testing"
)

func TestPageTextFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty content",
			content: "",
			want:    "",
		},
		{
			name:    "simple show operations",
			content: "BT\n/F1 12 Tf\n(Hello) Tj\n(World) Tj\nET",
			want:    "Hello World",
		},
		{
			name:    "escaped parentheses",
			content: "(Balance \\(net\\)) Tj",
			want:    "Balance (net)",
		},
		{
			name:    "operator lines skipped",
			content: "q\n1 0 0 1 50 700 cm\n(Visible text) Tj\nQ",
			want:    "Visible text",
		},
		{
			name:    "whitespace collapsed",
			content: "(Several) Tj\n(  spaced  ) Tj\n(words) Tj",
			want:    "Several spaced words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageTextFromContent(tt.content); got != tt.want {
				t.Errorf("pageTextFromContent(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestParenOperands(t *testing.T) {
	got := parenOperands("[(First) -250 (Second)] TJ")
	if len(got) != 2 || got[0] != "First" || got[1] != "Second" {
		t.Errorf("parenOperands = %v, want [First Second]", got)
	}
}

func TestReadableLinesFallback(t *testing.T) {
	// No show operators at all: prose-looking lines survive, operator and
	// coordinate lines do not
	content := "This line reads like a sentence.\n0.5 0.5 0.5 rg\n612 792 re\nAnother readable line here"
	got := readableLines(content)

	if !strings.Contains(got, "This line reads like a sentence.") {
		t.Errorf("readableLines dropped prose: %q", got)
	}
	if strings.Contains(got, "612 792") {
		t.Errorf("readableLines kept coordinate data: %q", got)
	}
}

func TestCleanupTextOctalEscapes(t *testing.T) {
	got := cleanupText("Temperature 20\\260C\\037 and\\777 done")
	if strings.Contains(got, "\\260") || strings.Contains(got, "\\037") || strings.Contains(got, "\\777") {
		t.Errorf("cleanupText left octal escapes in %q", got)
	}
	if !strings.Contains(got, "20°C") {
		t.Errorf("cleanupText lost the degree replacement: %q", got)
	}
}

func TestCleanupTextControlCharacters(t *testing.T) {
	got := cleanupText("before\x01after")
	if strings.Contains(got, "\x01") {
		t.Errorf("cleanupText kept a control character: %q", got)
	}
}

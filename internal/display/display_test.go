package display

import (
	"strings"
	"testing"
)

func TestArticleStatusLabel(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"PUBLISHED", "published"},
		{"published", "published"},
		{"DRAFT", "draft"},
		{"OFFLINE", "offline"},
	}
	for _, tt := range tests {
		if got := ArticleStatusLabel(tt.status); !strings.Contains(got, tt.want) {
			t.Errorf("ArticleStatusLabel(%q) = %q", tt.status, got)
		}
	}

	// Unknown statuses pass through unstyled.
	if got := ArticleStatusLabel("ARCHIVED"); got != "ARCHIVED" {
		t.Errorf("ArticleStatusLabel(ARCHIVED) = %q", got)
	}
}

func TestModeLabel(t *testing.T) {
	if got := ModeLabel("FLEXIBLE"); !strings.Contains(got, "flexible") {
		t.Errorf("ModeLabel(FLEXIBLE) = %q", got)
	}
	if got := ModeLabel("article_only"); !strings.Contains(got, "article-only") {
		t.Errorf("ModeLabel(article_only) = %q", got)
	}
	if got := ModeLabel("CUSTOM"); got != "CUSTOM" {
		t.Errorf("ModeLabel(CUSTOM) = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime("2025-03-01T08:30:00Z"); !strings.HasPrefix(got, "2025-0") {
		t.Errorf("FormatTime = %q", got)
	}
	if got := FormatTime("2025-03-01T08:30:00.123456Z"); !strings.HasPrefix(got, "2025-0") {
		t.Errorf("FormatTime nano = %q", got)
	}
	// Unparseable input is returned as-is.
	if got := FormatTime("yesterday"); got != "yesterday" {
		t.Errorf("FormatTime(yesterday) = %q", got)
	}
}

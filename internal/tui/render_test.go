package tui

import (
	"strings"
	"testing"

	"lingdang-cli/internal/chat"
)

func TestCollapseQuote(t *testing.T) {
	t.Run("short quote unchanged", func(t *testing.T) {
		got, folded := collapseQuote("短引用", 140)
		if got != "短引用" || folded {
			t.Errorf("collapseQuote = %q, %v", got, folded)
		}
	})

	t.Run("long quote folds at rune boundary", func(t *testing.T) {
		long := strings.Repeat("铃", 200)
		got, folded := collapseQuote(long, 140)
		if !folded {
			t.Fatal("expected folded")
		}
		runes := []rune(got)
		if len(runes) != 141 {
			t.Errorf("collapsed length = %d runes, want 141", len(runes))
		}
		if runes[140] != '…' {
			t.Errorf("missing ellipsis, got %q", string(runes[140]))
		}
	})

	t.Run("exactly at limit unchanged", func(t *testing.T) {
		quote := strings.Repeat("a", 140)
		got, folded := collapseQuote(quote, 140)
		if got != quote || folded {
			t.Errorf("collapseQuote = %q, %v", got, folded)
		}
	})
}

func TestRenderCitationLines(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		if got := renderCitationLines(nil, false); got != nil {
			t.Errorf("renderCitationLines(nil) = %v", got)
		}
	})

	t.Run("collapsed quote shows expand hint", func(t *testing.T) {
		citations := []chat.Citation{
			{RefIndex: 2, Title: "检索原理", URL: "/articles/retrieval", Quote: strings.Repeat("长", 200)},
		}
		lines := renderCitationLines(citations, false)
		joined := strings.Join(lines, "\n")
		if !strings.Contains(joined, "引用来源") {
			t.Error("missing header")
		}
		if !strings.Contains(joined, "[2]") || !strings.Contains(joined, "检索原理") {
			t.Errorf("missing citation head: %q", joined)
		}
		if !strings.Contains(joined, "/expand 2") {
			t.Errorf("missing expand hint: %q", joined)
		}
	})

	t.Run("expanded quote has no hint", func(t *testing.T) {
		citations := []chat.Citation{
			{RefIndex: 1, Title: "检索原理", Quote: strings.Repeat("长", 200)},
		}
		joined := strings.Join(renderCitationLines(citations, true), "\n")
		if strings.Contains(joined, "/expand") {
			t.Errorf("expanded view still folded: %q", joined)
		}
		if strings.Count(joined, "长") != 200 {
			t.Error("expanded quote truncated")
		}
	})

	t.Run("untitled citation gets placeholder", func(t *testing.T) {
		joined := strings.Join(renderCitationLines([]chat.Citation{{RefIndex: 1}}, false), "\n")
		if !strings.Contains(joined, "(untitled)") {
			t.Errorf("missing placeholder: %q", joined)
		}
	})

	t.Run("score rendered when present", func(t *testing.T) {
		score := 0.83
		joined := strings.Join(renderCitationLines([]chat.Citation{
			{RefIndex: 1, Title: "首页", Score: &score},
		}, false), "\n")
		if !strings.Contains(joined, "0.83") {
			t.Errorf("missing score: %q", joined)
		}
	})
}

func TestRenderWelcome(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		out := renderWelcome("1.2.3", "", "FLEXIBLE", 80)
		if !strings.Contains(out, "v1.2.3") {
			t.Error("missing version")
		}
		if !strings.Contains(out, "/login") {
			t.Error("missing login hint")
		}
	})

	t.Run("configured shows server and mode", func(t *testing.T) {
		out := renderWelcome("1.2.3", "https://blog.example.com", "ARTICLE_ONLY", 80)
		if !strings.Contains(out, "blog.example.com") {
			t.Error("missing server")
		}
		if !strings.Contains(out, "ARTICLE_ONLY") {
			t.Error("missing mode")
		}
	})
}

func TestRenderMarkdownRepairsGluedHeading(t *testing.T) {
	out := renderMarkdown("结论## 下一步", 76)
	if !strings.Contains(out, "下一步") {
		t.Errorf("heading text lost: %q", out)
	}
	if !strings.Contains(out, "结论") {
		t.Errorf("body text lost: %q", out)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 80); got != "short" {
		t.Errorf("truncateText = %q", got)
	}
	long := strings.Repeat("字", 100)
	got := truncateText(long, 80)
	if runes := []rune(got); len(runes) != 80 || runes[79] != '…' {
		t.Errorf("truncateText length = %d", len([]rune(got)))
	}
}

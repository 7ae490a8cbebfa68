package tui

import (
	"fmt"
	"strings"

	"lingdang-cli/internal/chat"
	"lingdang-cli/internal/markdown"

	"github.com/charmbracelet/glamour"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, server, mode string, width int) string {
	titleLine := logoTitleStyle.Render("Lingdang CLI") + " " + versionStyle.Render("v"+version)

	var infoLine string
	if server == "" {
		infoLine = welcomeHintStyle.Render("Type /login to get started")
	} else {
		serverDisplay := server
		if len(serverDisplay) > 40 {
			serverDisplay = serverDisplay[:37] + "..."
		}
		infoLine = welcomeInfoLabel.Render(fmt.Sprintf("%s · %s", serverDisplay, mode))
	}

	return fmt.Sprintf("\n%s\n\n%s\n%s\n", renderBellArt(), titleLine, infoLine)
}

const bellASCIIArt = `
         __
       /  \
      | () |
     /      \
    /        \
   |          |
   |__________|
      \_()_/
`

func renderBellArt() string {
	lines := strings.Split(strings.Trim(bellASCIIArt, "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		var out strings.Builder
		for _, r := range line {
			switch r {
			case '(', ')':
				out.WriteString(logoAccentStyle.Render(string(r)))
			case ' ':
				out.WriteRune(r)
			default:
				out.WriteString(logoBodyStyle.Render(string(r)))
			}
		}
		lines[i] = "  " + out.String()
	}
	return strings.Join(lines, "\n")
}

// ─── Markdown ───────────────────────────────────────────────────────────────

// renderMarkdown repairs the markdown and renders it for the terminal.
// Falls back to the raw text when the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	content = markdown.Normalize(content)
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// ─── Citations ──────────────────────────────────────────────────────────────

// quoteCollapseLimit matches the point past which a citation quote is folded
// behind /expand.
const quoteCollapseLimit = 140

func collapseQuote(quote string, limit int) (string, bool) {
	runes := []rune(quote)
	if len(runes) <= limit {
		return quote, false
	}
	return string(runes[:limit]) + "…", true
}

// renderCitationLines formats a citation list for tea.Println output. Quotes
// longer than the collapse limit are folded unless expand is set.
func renderCitationLines(citations []chat.Citation, expand bool) []string {
	if len(citations) == 0 {
		return nil
	}

	lines := []string{citationHeaderStyle.Render("  📚 引用来源:")}
	for _, c := range citations {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		head := fmt.Sprintf("  [%d] %s", c.RefIndex, citationTitleStyle.Render(title))
		if c.URL != "" {
			head += "  " + dimStyle.Render(c.URL)
		}
		if c.Score != nil {
			head += "  " + dimStyle.Render(fmt.Sprintf("(%.2f)", *c.Score))
		}
		lines = append(lines, head)

		if c.Quote == "" {
			continue
		}
		quote := c.Quote
		folded := false
		if !expand {
			quote, folded = collapseQuote(quote, quoteCollapseLimit)
		}
		for _, ql := range strings.Split(quote, "\n") {
			lines = append(lines, dimStyle.Render("      "+ql))
		}
		if folded {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("      … /expand %d 查看全文", c.RefIndex)))
		}
	}
	return lines
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

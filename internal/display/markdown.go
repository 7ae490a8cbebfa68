package display

import (
	"fmt"
	"io"
	"strings"

	"lingdang-cli/internal/markdown"
)

// MarkdownPrinter renders a markdown token stream line by line as it arrives.
// Tokens are buffered until a newline completes the line, so partial lines
// never hit the terminal. Used by the one-shot ask command; the interactive
// mode has its own renderer.
type MarkdownPrinter struct {
	w      io.Writer
	buf    string
	inCode bool
}

func NewMarkdownPrinter(w io.Writer) *MarkdownPrinter {
	return &MarkdownPrinter{w: w}
}

// Write appends a token and prints every line it completes.
func (m *MarkdownPrinter) Write(text string) {
	m.buf += text
	for {
		idx := strings.IndexByte(m.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(m.buf[:idx], "\r")
		m.buf = m.buf[idx+1:]
		m.emitLine(line)
	}
}

// Flush prints whatever partial line remains. Call once at stream end.
func (m *MarkdownPrinter) Flush() {
	if m.buf == "" {
		return
	}
	m.emitLine(m.buf)
	m.buf = ""
}

// emitLine repairs and prints one completed raw line. A heading or list
// marker the model glued onto the line comes back from Normalize as extra
// lines; code fence bodies pass through untouched.
func (m *MarkdownPrinter) emitLine(line string) {
	if m.inCode {
		fmt.Fprintln(m.w, m.renderLine(line))
		return
	}
	for _, l := range strings.Split(markdown.Normalize(line), "\n") {
		fmt.Fprintln(m.w, m.renderLine(l))
	}
}

func (m *MarkdownPrinter) renderLine(line string) string {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") {
		if !m.inCode {
			m.inCode = true
			lang := strings.TrimSpace(trimmed[3:])
			if lang != "" {
				return fmt.Sprintf("  %s┌─ %s ─%s", Dim, lang, Reset)
			}
			return fmt.Sprintf("  %s┌──%s", Dim, Reset)
		}
		m.inCode = false
		return fmt.Sprintf("  %s└──%s", Dim, Reset)
	}

	if m.inCode {
		return fmt.Sprintf("  %s│%s %s", Dim, Reset, line)
	}

	if strings.HasPrefix(trimmed, "#### ") {
		return fmt.Sprintf("  %s%s%s", Bold, trimmed[5:], Reset)
	}
	if strings.HasPrefix(trimmed, "### ") {
		return fmt.Sprintf("  %s%s%s", Bold, trimmed[4:], Reset)
	}
	if strings.HasPrefix(trimmed, "## ") {
		return fmt.Sprintf("\n  %s%s%s", Bold+Cyan, trimmed[3:], Reset)
	}
	if strings.HasPrefix(trimmed, "# ") {
		return fmt.Sprintf("\n  %s%s%s", Bold+Cyan, trimmed[2:], Reset)
	}

	if trimmed == "---" || trimmed == "***" || trimmed == "___" {
		return fmt.Sprintf("  %s────────────────────────────────────────%s", Dim, Reset)
	}

	if strings.HasPrefix(trimmed, "> ") {
		return fmt.Sprintf("  %s│%s %s", Dim, Reset, renderInline(trimmed[2:]))
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	pad := strings.Repeat(" ", indent)

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return fmt.Sprintf("%s  • %s", pad, renderInline(trimmed[2:]))
	}

	if dotIdx := strings.Index(trimmed, ". "); dotIdx > 0 && dotIdx <= 3 {
		num := trimmed[:dotIdx]
		allDigit := true
		for _, c := range num {
			if c < '0' || c > '9' {
				allDigit = false
				break
			}
		}
		if allDigit {
			return fmt.Sprintf("%s  %s. %s", pad, num, renderInline(trimmed[dotIdx+2:]))
		}
	}

	return "  " + renderInline(line)
}

// renderInline handles inline formatting: **bold**, *italic*, `code`,
// [links](url).
func renderInline(text string) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if i+3 < len(text) && text[i] == '*' && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "**")
			if end > 0 {
				out.WriteString(Bold)
				out.WriteString(renderInline(text[i+2 : i+2+end]))
				out.WriteString(Reset)
				i += 4 + end
				continue
			}
		}

		if text[i] == '*' && (i == 0 || text[i-1] == ' ') {
			end := strings.IndexByte(text[i+1:], '*')
			if end > 0 {
				out.WriteString(Dim)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(Reset)
				i += 2 + end
				continue
			}
		}

		if text[i] == '`' {
			end := strings.IndexByte(text[i+1:], '`')
			if end >= 0 {
				out.WriteString(Yellow)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(Reset)
				i += 2 + end
				continue
			}
		}

		if text[i] == '[' {
			cb := strings.IndexByte(text[i:], ']')
			if cb > 1 && i+cb+1 < len(text) && text[i+cb+1] == '(' {
				cp := strings.IndexByte(text[i+cb+1:], ')')
				if cp > 0 {
					linkText := text[i+1 : i+cb]
					url := text[i+cb+2 : i+cb+1+cp]
					out.WriteString(Bold)
					out.WriteString(linkText)
					out.WriteString(Reset)
					out.WriteString(Dim)
					out.WriteString(" (")
					out.WriteString(url)
					out.WriteString(")")
					out.WriteString(Reset)
					i += cb + 1 + cp + 1
					continue
				}
			}
		}

		out.WriteByte(text[i])
		i++
	}
	return out.String()
}

// RenderMarkdown renders a complete markdown document in one pass. Repair
// happens per line inside the printer; Normalize is idempotent, so a document
// that needed no repair is untouched.
func RenderMarkdown(w io.Writer, text string) {
	p := NewMarkdownPrinter(w)
	p.Write(text)
	p.Flush()
}

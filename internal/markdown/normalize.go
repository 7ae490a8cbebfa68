// Package markdown repairs Markdown that was generated token-by-token.
//
// The assistant model sometimes omits the line break that would separate a
// heading or list item from the text before it, which makes a streaming
// renderer glue whole sections onto one line. Normalize inserts only the
// missing whitespace; it never removes or reorders content, so it is safe to
// call on every growing prefix of an answer.
package markdown

import (
	"regexp"
	"strings"
)

var (
	// Heading glued to the end of the previous text: "xxx#### 一、..."
	gluedHeadingRe = regexp.MustCompile(`([^\n])\s*(#{2,6}\s)`)

	// Unordered list item glued to the end of a heading line:
	// "#### 三、xxx- a". Ordered markers are left alone so a list split
	// across paragraphs keeps its numbering instead of restarting at 1.
	headingListRe = regexp.MustCompile(`(?m)^(#{2,6}[^\n]*?)(\s*)(- )`)

	// List marker glued to the end of a sentence: "...。[1]。- 要点".
	// Same-line only ([ \t], never \s) — a lookahead that crosses the
	// newline would eat the indentation of nested list items that already
	// start their own line.
	sentenceListRe = regexp.MustCompile(`([。！？.!?;；:：])[ \t]*((?:[-*+]|[0-9]+\.)\s+)`)
)

// Normalize repairs stream-induced line-break defects outside fenced code
// blocks. Text inside ``` fences passes through byte-for-byte.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	// Split on the fence delimiter: even segments are prose, odd segments
	// are code bodies. Joining with the same delimiter reconstructs every
	// fence exactly.
	parts := strings.Split(normalized, "```")
	for i := 0; i < len(parts); i += 2 {
		t := parts[i]
		t = gluedHeadingRe.ReplaceAllString(t, "${1}\n\n${2}")
		t = headingListRe.ReplaceAllString(t, "${1}\n\n${3}")
		t = sentenceListRe.ReplaceAllString(t, "${1}\n${2}")
		parts[i] = t
	}

	return strings.Join(parts, "```")
}

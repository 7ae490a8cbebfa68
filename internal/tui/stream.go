package tui

import (
	"strings"

	"lingdang-cli/internal/chat"
	"lingdang-cli/internal/markdown"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Controller bridge ──────────────────────────────────────────────────────
//
// The controller mutates conversation state from its own goroutines and calls
// notify after every visible commit. The bridge turns those callbacks into a
// dirty token on a 1-buffered channel: waitForUpdate delivers at most one
// streamUpdateMsg per pending change, and the model re-reads the full turn
// snapshot each time, so dropped intermediate notifies lose nothing.

type streamUpdateMsg struct{}

func newUpdateChannel() (chan tea.Msg, func()) {
	ch := make(chan tea.Msg, 1)
	notify := func() {
		select {
		case ch <- streamUpdateMsg{}:
		default:
		}
	}
	return ch, notify
}

// waitForUpdate reads the next dirty token. The model re-arms it after every
// streamUpdateMsg while a request is in flight.
func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// consumeStreamUpdate applies one dirty token: it prints newly completed
// answer lines, and on a finalized turn prints the closing block (citations,
// notice, or error) and drops back to idle.
func (m *model) consumeStreamUpdate() tea.Cmd {
	if m.ctrl == nil {
		m.mode = modeIdle
		return nil
	}
	turns := m.ctrl.Turns()
	if len(turns) == 0 {
		m.mode = modeIdle
		return nil
	}
	turn := turns[len(turns)-1]
	if turn.Role != chat.RoleAssistant {
		return nil
	}

	if turn.Streaming {
		if len(turn.Content) <= m.ansPrinted {
			return nil
		}
		newText := turn.Content[m.ansPrinted:]
		m.ansPrinted = len(turn.Content)
		m.ansStarted = true

		combined := m.ansBuffer + newText
		lines := strings.Split(combined, "\n")
		var printCmds []tea.Cmd
		for i, line := range lines {
			if i < len(lines)-1 {
				for _, l := range m.answerLines(line) {
					printCmds = append(printCmds, tea.Println("  "+l))
				}
			} else {
				m.ansBuffer = line
			}
		}
		if len(printCmds) > 0 {
			return tea.Sequence(printCmds...)
		}
		return nil
	}

	// Finalized turn.
	m.mode = modeIdle
	m.lastCitations = turn.Citations

	var cmds []tea.Cmd
	if turn.Error {
		if m.ansBuffer != "" {
			for _, l := range m.answerLines(m.ansBuffer) {
				cmds = append(cmds, tea.Println("  "+l))
			}
		}
		cmds = append(cmds,
			tea.Println(""),
			tea.Println(errorMsgStyle.Render("  ✗ "+turn.Content)),
			tea.Println(""),
		)
		m.resetStreamState()
		return tea.Sequence(cmds...)
	}

	var rest string
	if m.ansPrinted <= len(turn.Content) {
		rest = m.ansBuffer + turn.Content[m.ansPrinted:]
	} else {
		// Content was replaced outright, e.g. by the cancel notice. The
		// partial lines already printed stand; print the new content whole.
		if m.ansBuffer != "" {
			for _, l := range m.answerLines(m.ansBuffer) {
				cmds = append(cmds, tea.Println("  "+l))
			}
		}
		rest = turn.Content
	}
	if rest != "" {
		for _, line := range strings.Split(rest, "\n") {
			for _, l := range m.answerLines(line) {
				cmds = append(cmds, tea.Println("  "+l))
			}
		}
	}

	if len(turn.Citations) > 0 {
		cmds = append(cmds, tea.Println(""))
		for _, line := range renderCitationLines(turn.Citations, false) {
			cmds = append(cmds, tea.Println(line))
		}
		cmds = append(cmds, tea.Println(dimStyle.Render("  Tip: /sources to reprint · /expand <n> for a full quote")))
	}
	cmds = append(cmds, tea.Println(""))

	m.resetStreamState()
	return tea.Sequence(cmds...)
}

// answerLines repairs one completed raw answer line before display. Normalize
// may split a glued heading or list marker into several lines; code fence
// bodies pass through untouched.
func (m *model) answerLines(line string) []string {
	if strings.HasPrefix(strings.TrimSpace(line), "```") {
		m.ansInCode = !m.ansInCode
		return []string{line}
	}
	if m.ansInCode {
		return []string{line}
	}
	return strings.Split(markdown.Normalize(line), "\n")
}

// drainUpdates discards any stale dirty token before a new request starts.
func (m *model) drainUpdates() {
	for {
		select {
		case <-m.updateCh:
		default:
			return
		}
	}
}

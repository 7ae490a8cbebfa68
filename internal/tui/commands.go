package tui

import (
	"fmt"
	"strconv"
	"strings"

	"lingdang-cli/internal/api"
	"lingdang-cli/internal/chat"
	"lingdang-cli/internal/config"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	// Default: treat as a question for the assistant
	return m.cmdAsk(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/login":
		return m.cmdLogin(args)
	case "/logout":
		return m.cmdLogout()
	case "/config":
		return m.cmdConfig()
	case "/mode":
		return m.cmdMode(args)
	case "/articles":
		return m.cmdArticles(args)
	case "/article":
		return m.cmdArticle(args)
	case "/search":
		return m.cmdSearch(args)
	case "/sources":
		return m.cmdSources()
	case "/expand":
		return m.cmdExpand(args)
	case "/reset":
		return m.cmdReset()
	case "/clear":
		return m.cmdClear()
	case "/quit", "/exit", "/q":
		if m.ctrl != nil {
			m.ctrl.Close()
		}
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s — type /help", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		for len(s) < w {
			s += " "
		}
		return s
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render("  Shortcuts:")),
		tea.Println(""),
		tea.Println("  " + pad(hintKeyStyle.Render("/login [url]"), 30) + dimStyle.Render("Login to a Lingdang server")),
		tea.Println("  " + pad(hintKeyStyle.Render("/mode <m>"), 30) + dimStyle.Render("FLEXIBLE or ARTICLE_ONLY answers")),
		tea.Println("  " + pad(hintKeyStyle.Render("/articles [page]"), 30) + dimStyle.Render("Browse published articles")),
		tea.Println("  " + pad(hintKeyStyle.Render("/article <slug>"), 30) + dimStyle.Render("Read an article")),
		tea.Println("  " + pad(hintKeyStyle.Render("/search <keyword>"), 30) + dimStyle.Render("Full-text search the blog")),
		tea.Println("  " + pad(hintKeyStyle.Render("/sources"), 30) + dimStyle.Render("Citations for the last answer")),
		tea.Println("  " + pad(hintKeyStyle.Render("/expand <n>"), 30) + dimStyle.Render("Show citation n in full")),
		tea.Println("  " + pad(hintKeyStyle.Render("/reset"), 30) + dimStyle.Render("Start a fresh conversation")),
		tea.Println("  " + pad(hintKeyStyle.Render("/config"), 30) + dimStyle.Render("Show current configuration")),
		tea.Println("  " + pad(hintKeyStyle.Render("/clear"), 30) + dimStyle.Render("Clear the screen")),
		tea.Println("  " + pad(hintKeyStyle.Render("/quit"), 30) + dimStyle.Render("Exit Lingdang")),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just type a question — the assistant answers from the blog.")),
		tea.Println(""),
	}
	return m, tea.Sequence(lines...)
}

// ─── /login ─────────────────────────────────────────────────────────────────

func (m model) cmdLogin(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		m.loginServer = args[0]
		m.mode = modeLoginUser
		m.input.Placeholder = "Username..."
		m.input.SetValue("")
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Logging in to %s", m.loginServer)))
	}

	m.mode = modeLoginServer
	m.input.Placeholder = "Server URL (e.g. https://blog.example.com)..."
	m.input.SetValue("")
	return m, tea.Println(dimStyle.Render("  Enter the Lingdang server URL:"))
}

func (m model) handleLoginServerSubmit(value string) (tea.Model, tea.Cmd) {
	m.loginServer = value
	m.mode = modeLoginUser
	m.input.Placeholder = "Username..."
	m.input.SetValue("")
	return m, tea.Sequence(
		tea.Println(dimStyle.Render(fmt.Sprintf("  Server: %s", value))),
		tea.Println(dimStyle.Render("  Enter your username:")),
	)
}

func (m model) handleLoginUserSubmit(value string) (tea.Model, tea.Cmd) {
	m.loginUser = value
	m.mode = modeLoginPass
	m.input.Placeholder = "Password..."
	m.input.SetValue("")
	m.input.EchoCharacter = '•'
	m.input.EchoMode = textinput.EchoPassword
	return m, tea.Sequence(
		tea.Println(dimStyle.Render(fmt.Sprintf("  User: %s", value))),
		tea.Println(dimStyle.Render("  Enter your password:")),
	)
}

type loginResultMsg struct {
	cfg *config.Config
	err error
}

func (m model) handleLoginPassSubmit(value string) (tea.Model, tea.Cmd) {
	password := value
	m.input.EchoMode = textinput.EchoNormal
	m.input.SetValue("")
	m.input.Placeholder = "Authenticating..."

	serverURL := strings.TrimRight(m.loginServer, "/")
	username := m.loginUser
	profile := m.profile

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Authenticating...")),
		func() tea.Msg {
			client := api.NewClient(&config.Config{Server: serverURL})
			loginResp, err := client.Login(username, password)
			if err != nil {
				return loginResultMsg{err: fmt.Errorf("authentication failed: %w", err)}
			}

			cfg, err := config.Load(profile)
			if err != nil {
				cfg = &config.Config{Profile: profile}
			}
			cfg.Server = serverURL
			cfg.Username = username
			cfg.Token = loginResp.Token

			if err := cfg.Save(); err != nil {
				return loginResultMsg{err: err}
			}
			return loginResultMsg{cfg: cfg}
		},
	)
}

func (m model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.mode = modeIdle
	m.input.Placeholder = "Ask about the blog or type /help..."

	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", msg.err)))
	}

	m.cfg = msg.cfg
	m.client = api.NewClient(m.cfg)
	m.ctrl = chat.NewController(m.client, chat.Options{
		Mode:   m.cfg.QueryMode(),
		Notify: m.notify,
	})
	m.lastCitations = nil

	m.loginServer = ""
	m.loginUser = ""
	return m, tea.Sequence(
		tea.Println(successMsgStyle.Render("  ✓ Logged in successfully!")),
		tea.Println(dimStyle.Render(fmt.Sprintf("    Server: %s", m.cfg.Server))),
		tea.Println(dimStyle.Render(fmt.Sprintf("    User: %s", m.cfg.Username))),
		tea.Println(""),
	)
}

// ─── /logout ────────────────────────────────────────────────────────────────

type logoutResultMsg struct {
	err error
}

func (m model) cmdLogout() (tea.Model, tea.Cmd) {
	if m.cfg == nil || m.cfg.Token == "" {
		return m, tea.Println(warnMsgStyle.Render("  ! Not logged in."))
	}

	client := m.client
	cfg := m.cfg

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Logging out...")),
		func() tea.Msg {
			if client != nil {
				// Best effort: clear the token locally even if the server
				// call fails.
				_ = client.Logout()
			}
			cfg.Token = ""
			if err := cfg.Save(); err != nil {
				return logoutResultMsg{err: err}
			}
			return logoutResultMsg{}
		},
	)
}

func (m model) handleLogoutResult(msg logoutResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Logout failed: %v", msg.err)))
	}
	if m.cfg != nil && m.cfg.Server != "" {
		m.client = api.NewClient(m.cfg)
		m.ctrl = chat.NewController(m.client, chat.Options{
			Mode:   m.cfg.QueryMode(),
			Notify: m.notify,
		})
	}
	return m, tea.Println(successMsgStyle.Render("  ✓ Logged out."))
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	if m.cfg == nil {
		return m, tea.Println(warnMsgStyle.Render("  ! No configuration found. Run /login first."))
	}

	val := func(s string) string {
		if s == "" {
			return dimStyle.Render("(not set)")
		}
		return s
	}
	token := dimStyle.Render("(not set)")
	if m.cfg.Token != "" {
		end := 12
		if len(m.cfg.Token) < end {
			end = len(m.cfg.Token)
		}
		token = m.cfg.Token[:end] + "..."
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:  %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:   %s", val(m.cfg.Server))),
		tea.Println(fmt.Sprintf("    User:     %s", val(m.cfg.Username))),
		tea.Println(fmt.Sprintf("    Mode:     %s", modeStr(m.ctrl, m.cfg))),
		tea.Println(fmt.Sprintf("    Token:    %s", token)),
		tea.Println(""),
	)
}

// ─── /mode ──────────────────────────────────────────────────────────────────

func (m model) cmdMode(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Answer mode: %s (use /mode FLEXIBLE or /mode ARTICLE_ONLY)", modeStr(m.ctrl, m.cfg))))
	}

	mode := strings.ToUpper(args[0])
	if mode != "FLEXIBLE" && mode != "ARTICLE_ONLY" {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown mode: %s (valid: FLEXIBLE, ARTICLE_ONLY)", args[0])))
	}

	if m.ctrl != nil {
		m.ctrl.SetMode(mode)
	}
	if m.cfg != nil {
		m.cfg.Mode = mode
		if err := m.cfg.Save(); err != nil {
			return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to save config: %v", err)))
		}
	}
	return m, tea.Println(successMsgStyle.Render(fmt.Sprintf("  ✓ Answer mode set to %s", mode)))
}

// ─── /articles ──────────────────────────────────────────────────────────────

type articlesLoadedMsg struct {
	articles []api.Article
	page     int
	err      error
}

func (m model) cmdArticles(args []string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not connected. Type /login to get started."))
	}

	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			page = n
		}
	}

	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading articles...")),
		func() tea.Msg {
			articles, err := client.Articles(page, 10)
			if err != nil {
				return articlesLoadedMsg{err: err}
			}
			return articlesLoadedMsg{articles: articles, page: page}
		},
	)
}

func (m model) handleArticlesLoaded(msg articlesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load articles: %v", msg.err)))
	}

	if len(msg.articles) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No articles on this page."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Articles (page %d):", msg.page))),
		tea.Println(""),
	)

	for _, a := range msg.articles {
		cmds = append(cmds, tea.Println(fmt.Sprintf("  ⏺ %s  %s", a.Title, dimStyle.Render(a.Slug))))
		if a.Summary != "" {
			cmds = append(cmds, tea.Println(dimStyle.Render("    "+truncateText(a.Summary, 80))))
		}
	}

	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Tip: /article <slug> to read one")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

// ─── /article ───────────────────────────────────────────────────────────────

type articleLoadedMsg struct {
	article *api.Article
	err     error
}

func (m model) cmdArticle(args []string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not connected. Type /login to get started."))
	}
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /article <slug>"))
	}

	slug := args[0]
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render(fmt.Sprintf("  ⟳ Loading %s...", slug))),
		func() tea.Msg {
			article, err := client.Article(slug)
			if err != nil {
				return articleLoadedMsg{err: err}
			}
			return articleLoadedMsg{article: article}
		},
	)
}

func (m model) handleArticleLoaded(msg articleLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load article: %v", msg.err)))
	}

	a := msg.article
	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(logoTitleStyle.Render("  "+a.Title)),
	)
	if a.PublishedAt != "" || len(a.Tags) > 0 {
		meta := a.PublishedAt
		if len(a.Tags) > 0 {
			if meta != "" {
				meta += "  "
			}
			meta += strings.Join(a.Tags, " · ")
		}
		cmds = append(cmds, tea.Println(dimStyle.Render("  "+meta)))
	}
	cmds = append(cmds, tea.Println(""))

	width := min(m.width-4, 76)
	for _, line := range strings.Split(renderMarkdown(a.Content, width), "\n") {
		cmds = append(cmds, tea.Println("  "+line))
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /search ────────────────────────────────────────────────────────────────

type searchResultMsg struct {
	result  *api.SearchResult
	keyword string
	err     error
}

func (m model) cmdSearch(args []string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not connected. Type /login to get started."))
	}
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /search <keyword>"))
	}

	keyword := strings.Join(args, " ")
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render(fmt.Sprintf("  ⟳ Searching %q...", keyword))),
		func() tea.Msg {
			result, err := client.SearchArticles(keyword)
			if err != nil {
				return searchResultMsg{err: err}
			}
			return searchResultMsg{result: result, keyword: keyword}
		},
	)
}

func (m model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Search failed: %v", msg.err)))
	}

	if msg.result == nil || len(msg.result.Articles) == 0 {
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! No results for %q.", msg.keyword)))
	}

	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Results for %q (%d):", msg.keyword, msg.result.Total))),
		tea.Println(""),
	)
	for _, a := range msg.result.Articles {
		cmds = append(cmds, tea.Println(fmt.Sprintf("  ⏺ %s  %s", a.Title, dimStyle.Render(a.Slug))))
		if a.Summary != "" {
			cmds = append(cmds, tea.Println(dimStyle.Render("    "+truncateText(a.Summary, 80))))
		}
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /sources and /expand ───────────────────────────────────────────────────

func (m model) cmdSources() (tea.Model, tea.Cmd) {
	if len(m.lastCitations) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No citations yet — ask a question first."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds, tea.Println(""))
	for _, line := range renderCitationLines(m.lastCitations, false) {
		cmds = append(cmds, tea.Println(line))
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

func (m model) cmdExpand(args []string) (tea.Model, tea.Cmd) {
	if len(m.lastCitations) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No citations yet — ask a question first."))
	}
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /expand <refIndex>"))
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /expand <refIndex>"))
	}

	for _, c := range m.lastCitations {
		if c.RefIndex == n {
			var cmds []tea.Cmd
			cmds = append(cmds, tea.Println(""))
			for _, line := range renderCitationLines([]chat.Citation{c}, true) {
				cmds = append(cmds, tea.Println(line))
			}
			cmds = append(cmds, tea.Println(""))
			return m, tea.Sequence(cmds...)
		}
	}
	return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! No citation [%d] in the last answer.", n)))
}

// ─── /reset and /clear ──────────────────────────────────────────────────────

func (m model) cmdReset() (tea.Model, tea.Cmd) {
	if m.ctrl != nil {
		m.ctrl.Reset()
	}
	m.lastCitations = nil
	m.resetStreamState()
	return m, tea.Println(successMsgStyle.Render("  ✓ Conversation cleared."))
}

func (m model) cmdClear() (tea.Model, tea.Cmd) {
	return m, tea.ClearScreen
}

// ─── Ask ────────────────────────────────────────────────────────────────────

func (m model) cmdAsk(question string) (tea.Model, tea.Cmd) {
	if m.ctrl == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not connected. Type /login to get started."))
	}

	m.resetStreamState()
	m.drainUpdates()

	if err := m.ctrl.Submit(question); err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}
	m.mode = modeStreaming

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(userPromptStyle.Render("  ❯ "+question)),
		tea.Println(""),
		waitForUpdate(m.updateCh),
	)
}

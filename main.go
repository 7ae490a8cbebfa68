package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lingdang-cli/internal/api"
	"lingdang-cli/internal/chat"
	"lingdang-cli/internal/config"
	"lingdang-cli/internal/display"
	"lingdang-cli/internal/tui"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	activeProfile string
	jsonOutput    bool
)

func main() {
	_ = godotenv.Load()

	args := parseGlobalFlags(os.Args[1:])

	// No args → launch interactive mode (default)
	if len(args) == 0 {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	// Explicit -i flag also launches interactive mode
	if args[0] == "-i" || args[0] == "--interactive" || args[0] == "interactive" {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	var err error

	switch args[0] {
	case "login":
		err = cmdLogin(args[1:])
	case "logout":
		err = cmdLogout()
	case "set":
		err = cmdSet(args[1:])
	case "config":
		err = cmdConfig()
	case "ask":
		err = cmdAsk(args[1:])
	case "articles":
		err = cmdArticles(args[1:])
	case "article":
		err = cmdArticle(args[1:])
	case "search":
		err = cmdSearch(args[1:])
	case "studio":
		err = cmdStudio(args[1:])
	case "rag-config":
		err = cmdRagConfig(args[1:])
	case "rag-logs":
		err = cmdRagLogs(args[1:])
	case "chunks":
		err = cmdChunks(args[1:])
	case "profiles":
		err = cmdProfiles()
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Println(versionString())
	default:
		display.Error(fmt.Sprintf("Unknown command: %s", args[0]))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

// ─── login / logout ─────────────────────────────────────────────────────────

func cmdLogin(args []string) error {
	var username, password string
	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-u", "--username":
			if i+1 < len(args) {
				i++
				username = args[i]
			} else {
				return fmt.Errorf("--username requires a value")
			}
		case "-p", "--password":
			if i+1 < len(args) {
				i++
				password = args[i]
			} else {
				return fmt.Errorf("--password requires a value")
			}
		default:
			positional = append(positional, args[i])
		}
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	if len(positional) > 0 {
		cfg.Server = strings.TrimRight(positional[0], "/")
	}
	if cfg.Server == "" {
		fmt.Println("Usage: lingdang login <url> -u <username> -p <password>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  lingdang login https://blog.example.com -u admin -p secret")
		fmt.Println("  lingdang login http://localhost:8080 -u admin")
		return nil
	}

	if username == "" {
		fmt.Print("Username: ")
		fmt.Scanln(&username)
	}
	if password == "" {
		fmt.Print("Password: ")
		fmt.Scanln(&password)
	}

	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	fmt.Println()
	display.Spinner("Authenticating...")

	client := api.NewClient(cfg)
	loginResp, err := client.Login(username, password)
	if err != nil {
		display.ClearLine()
		return fmt.Errorf("authentication failed: %w", err)
	}

	display.ClearLine()
	display.Success("Authenticated successfully")

	cfg.Username = loginResp.Username
	if cfg.Username == "" {
		cfg.Username = username
	}
	cfg.Token = loginResp.Token

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Info("Server:", cfg.Server)
	display.Info("User:", cfg.Username)

	pf := ""
	if activeProfile != "" {
		pf = " --profile " + activeProfile
	}
	fmt.Println()
	fmt.Printf("  %sNext:%s Run %slingdang%s ask \"<question>\"%s or %slingdang%s studio list%s.\n\n",
		display.Dim, display.Reset, display.Cyan, pf, display.Reset, display.Cyan, pf, display.Reset)

	return nil
}

func cmdLogout() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if cfg.Token == "" {
		display.Warn("Not logged in.")
		return nil
	}

	// Revoke server-side, but clear the local token even if that fails.
	client := api.NewClient(cfg)
	if err := client.Logout(); err != nil {
		display.Warn(fmt.Sprintf("Server logout failed: %v", err))
	}

	cfg.Token = ""
	if err := cfg.Save(); err != nil {
		return err
	}
	display.Success("Logged out")
	return nil
}

// ─── set ────────────────────────────────────────────────────────────────────

func cmdSet(args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: lingdang set <key> <value>")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  server   Blog server URL  (e.g. https://blog.example.com)")
		fmt.Println("  mode     Assistant answer mode: FLEXIBLE | ARTICLE_ONLY")
		fmt.Println("  token    Auth token (normally set by login)")
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]

	switch key {
	case "server":
		cfg.Server = strings.TrimRight(value, "/")
	case "mode":
		mode := strings.ToUpper(value)
		if mode != "FLEXIBLE" && mode != "ARTICLE_ONLY" {
			return fmt.Errorf("invalid mode: %s (valid: FLEXIBLE, ARTICLE_ONLY)", value)
		}
		cfg.Mode = mode
		value = mode
	case "token":
		cfg.Token = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, mode, token)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

// ─── config ─────────────────────────────────────────────────────────────────

func cmdConfig() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]string{
			"profile":  config.ProfileName(activeProfile),
			"server":   cfg.Server,
			"username": cfg.Username,
			"mode":     cfg.QueryMode(),
		})
	}

	display.Header("Lingdang CLI Configuration")

	display.Info("Profile:", config.ProfileName(activeProfile))

	server := cfg.Server
	if server == "" {
		server = display.Dim + "(not set)" + display.Reset
	}
	display.Info("Server:", server)

	username := cfg.Username
	if username == "" {
		username = display.Dim + "(not set)" + display.Reset
	}
	display.Info("User:", username)

	display.Info("Mode:", display.ModeLabel(cfg.QueryMode()))

	token := display.Dim + "(not set)" + display.Reset
	if cfg.Token != "" {
		end := 12
		if len(cfg.Token) < end {
			end = len(cfg.Token)
		}
		token = cfg.Token[:end] + "..."
	}
	display.Info("Token:", token)
	fmt.Println()

	return nil
}

// ─── ask ────────────────────────────────────────────────────────────────────

func cmdAsk(args []string) error {
	var mode string
	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--mode":
			if i+1 < len(args) {
				i++
				mode = strings.ToUpper(args[i])
			} else {
				return fmt.Errorf("--mode requires a value")
			}
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) == 0 {
		fmt.Println("Usage: lingdang ask <question> [--mode FLEXIBLE|ARTICLE_ONLY]")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println(`  lingdang ask "这个博客写过哪些关于 Go 并发的文章？"`)
		fmt.Println(`  lingdang ask "How do I tune the RAG retriever?" --mode ARTICLE_ONLY`)
		return nil
	}
	question := strings.Join(positional, " ")

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if mode == "" {
		mode = cfg.QueryMode()
	}
	if mode != "FLEXIBLE" && mode != "ARTICLE_ONLY" {
		return fmt.Errorf("invalid mode: %s (valid: FLEXIBLE, ARTICLE_ONLY)", mode)
	}

	client := api.NewClient(cfg)

	fmt.Printf("\n %s── 🔔 铃铛 Assistant ─────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)
	fmt.Println()
	fmt.Printf("    %sQuestion:%s %s\n", display.Dim, display.Reset, question)
	fmt.Printf("    %sMode:%s     %s\n", display.Dim, display.Reset, display.ModeLabel(mode))
	fmt.Println()
	fmt.Printf(" %s──────────────────────────────────────────────────────────────────────────%s\n\n", display.Dim, display.Reset)

	ctx, cancel := context.WithTimeout(context.Background(), chat.DefaultTimeout)
	defer cancel()

	printer := display.NewMarkdownPrinter(os.Stdout)
	var citations []chat.Citation
	var streamErr string

	err = client.QueryStream(ctx, &api.QueryRequest{Question: question, Mode: mode}, func(ev api.Event) {
		switch ev.Type {
		case api.EventMessage:
			printer.Write(ev.Data)
		case api.EventCitations:
			var cites []chat.Citation
			if jsonErr := json.Unmarshal([]byte(ev.Data), &cites); jsonErr != nil {
				display.Warn(fmt.Sprintf("malformed citations payload: %v", jsonErr))
			} else {
				citations = cites
			}
		case api.EventError:
			streamErr = ev.Data
			if streamErr == "" {
				streamErr = "服务器错误"
			}
		}
	})
	printer.Flush()

	fmt.Printf("\n %s──────────────────────────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("请求超时，请稍后再试")
		}
		return fmt.Errorf("stream error: %w", err)
	}
	if streamErr != "" {
		return fmt.Errorf("assistant error: %s", streamErr)
	}

	if len(citations) > 0 {
		fmt.Printf("\n  %s📚 引用来源:%s\n", display.Bold+display.Cyan, display.Reset)
		for _, c := range citations {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Printf("    %s[%d]%s %s  %s%s%s\n", display.Cyan, c.RefIndex, display.Reset,
				title, display.Dim, c.URL, display.Reset)
			if c.Quote != "" {
				fmt.Printf("        %s%s%s\n", display.Gray, truncate(c.Quote, 140), display.Reset)
			}
		}
	}
	fmt.Println()

	return nil
}

// ─── articles / article / search ────────────────────────────────────────────

func cmdArticles(args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page: %s", args[0])
		}
		page = n
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg)
	articles, err := client.Articles(page, 10)
	if err != nil {
		return fmt.Errorf("listing articles: %w", err)
	}

	if jsonOutput {
		return printJSON(articles)
	}

	display.Header(fmt.Sprintf("Articles (page %d)", page))

	if len(articles) == 0 {
		display.Warn("No articles on this page.")
		return nil
	}

	for _, a := range articles {
		fmt.Printf("\n  %s%s%s\n", display.Bold, a.Title, display.Reset)
		fmt.Printf("    %sSlug:%s      %s\n", display.Dim, display.Reset, a.Slug)
		if a.PublishedAt != "" {
			fmt.Printf("    %sPublished:%s %s\n", display.Dim, display.Reset, display.FormatTime(a.PublishedAt))
		}
		if len(a.Tags) > 0 {
			fmt.Printf("    %sTags:%s      %s\n", display.Dim, display.Reset, strings.Join(a.Tags, ", "))
		}
		if a.Summary != "" {
			for _, line := range wrapText(a.Summary, 70) {
				fmt.Printf("    %s%s%s\n", display.Gray, line, display.Reset)
			}
		}
	}

	fmt.Println()
	fmt.Printf("  %sTip:%s Run %slingdang article <slug>%s to read one.\n\n",
		display.Dim, display.Reset, display.Cyan, display.Reset)

	return nil
}

func cmdArticle(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: lingdang article <slug>")
		return nil
	}
	slug := args[0]

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg)
	a, err := client.Article(slug)
	if err != nil {
		return fmt.Errorf("fetching article: %w", err)
	}

	if jsonOutput {
		return printJSON(a)
	}

	display.Header(a.Title)
	if a.PublishedAt != "" {
		display.Info("Published:", display.FormatTime(a.PublishedAt))
	}
	if len(a.Tags) > 0 {
		display.Info("Tags:", strings.Join(a.Tags, ", "))
	}
	fmt.Println()
	display.RenderMarkdown(os.Stdout, a.Content)
	fmt.Println()

	return nil
}

func cmdSearch(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: lingdang search <keyword>")
		return nil
	}
	keyword := strings.Join(args, " ")

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg)
	result, err := client.SearchArticles(keyword)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if jsonOutput {
		return printJSON(result)
	}

	display.Header(fmt.Sprintf("Search %q (%d results)", keyword, result.Total))

	if len(result.Articles) == 0 {
		display.Warn("No matching articles.")
		return nil
	}

	for _, a := range result.Articles {
		fmt.Printf("  • %s%s%s  %s%s%s\n", display.Bold, a.Title, display.Reset,
			display.Dim, a.Slug, display.Reset)
		if a.Summary != "" {
			fmt.Printf("    %s%s%s\n", display.Gray, truncate(a.Summary, 90), display.Reset)
		}
	}
	fmt.Println()

	return nil
}

// ─── studio ─────────────────────────────────────────────────────────────────

func cmdStudio(args []string) error {
	if len(args) == 0 {
		printStudioUsage()
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}
	client := api.NewClient(cfg)

	switch args[0] {
	case "list":
		return studioList(client)
	case "create":
		return studioCreate(client, args[1:])
	case "update":
		return studioUpdate(client, args[1:])
	case "publish":
		return studioLifecycle(client, args[1:], "publish")
	case "offline":
		return studioLifecycle(client, args[1:], "offline")
	case "delete":
		return studioDelete(client, args[1:])
	case "reindex":
		return studioReindex(client, args[1:])
	default:
		display.Error(fmt.Sprintf("Unknown studio command: %s", args[0]))
		printStudioUsage()
		return nil
	}
}

func studioList(client *api.Client) error {
	articles, err := client.StudioArticles()
	if err != nil {
		return fmt.Errorf("listing studio articles: %w", err)
	}

	if jsonOutput {
		return printJSON(articles)
	}

	display.Header(fmt.Sprintf("Studio Articles (%d)", len(articles)))

	if len(articles) == 0 {
		display.Warn("No articles yet.")
		return nil
	}

	for _, a := range articles {
		fmt.Printf("  %s%-5d%s %-14s %s%s%s  %s%s%s\n",
			display.Dim, a.ID, display.Reset,
			display.ArticleStatusLabel(a.Status),
			display.Bold, a.Title, display.Reset,
			display.Dim, a.Slug, display.Reset)
	}
	fmt.Println()

	return nil
}

func studioCreate(client *api.Client, args []string) error {
	upsert, err := parseUpsertFlags(args)
	if err != nil {
		return err
	}
	if upsert.Title == "" || upsert.Content == "" {
		fmt.Println("Usage: lingdang studio create --title <title> -f <markdown-file> [--slug s] [--summary s] [--tags a,b]")
		return nil
	}

	a, err := client.CreateArticle(upsert)
	if err != nil {
		return fmt.Errorf("creating article: %w", err)
	}
	display.Success(fmt.Sprintf("Created article %d (%s), status %s", a.ID, a.Slug, display.ArticleStatusLabel(a.Status)))
	return nil
}

func studioUpdate(client *api.Client, args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: lingdang studio update <id> [--title t] [-f <markdown-file>] [--summary s] [--tags a,b]")
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	upsert, err := parseUpsertFlags(args[1:])
	if err != nil {
		return err
	}

	a, err := client.UpdateArticle(id, upsert)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	display.Success(fmt.Sprintf("Updated article %d (%s)", a.ID, a.Slug))
	return nil
}

func studioLifecycle(client *api.Client, args []string, action string) error {
	if len(args) == 0 {
		fmt.Printf("Usage: lingdang studio %s <id>\n", action)
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var a *api.Article
	if action == "publish" {
		a, err = client.PublishArticle(id)
	} else {
		a, err = client.OfflineArticle(id)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	display.Success(fmt.Sprintf("Article %d is now %s", a.ID, display.ArticleStatusLabel(a.Status)))
	return nil
}

func studioDelete(client *api.Client, args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: lingdang studio delete <id>")
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := client.DeleteArticle(id); err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	display.Success(fmt.Sprintf("Deleted article %d", id))
	return nil
}

func studioReindex(client *api.Client, args []string) error {
	if len(args) == 0 || args[0] == "--all" {
		display.Spinner("Reindexing all articles...")
		if err := client.ReindexAll(); err != nil {
			display.ClearLine()
			return fmt.Errorf("reindexing: %w", err)
		}
		display.ClearLine()
		display.Success("Reindex of all articles started")
		return nil
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := client.ReindexArticle(id); err != nil {
		return fmt.Errorf("reindexing article %d: %w", id, err)
	}
	display.Success(fmt.Sprintf("Reindex of article %d started", id))
	return nil
}

// parseUpsertFlags reads --title/--slug/--summary/--tags plus content from
// -f <file> or, when the file is "-", from stdin.
func parseUpsertFlags(args []string) (*api.ArticleUpsert, error) {
	upsert := &api.ArticleUpsert{}

	for i := 0; i < len(args); i++ {
		flag := args[i]
		switch flag {
		case "--title", "--slug", "--summary", "--tags", "-f", "--file":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", flag)
			}
			i++
		default:
			return nil, fmt.Errorf("unknown flag: %s", flag)
		}
		value := args[i]

		switch flag {
		case "--title":
			upsert.Title = value
		case "--slug":
			upsert.Slug = value
		case "--summary":
			upsert.Summary = value
		case "--tags":
			for _, t := range strings.Split(value, ",") {
				if t = strings.TrimSpace(t); t != "" {
					upsert.Tags = append(upsert.Tags, t)
				}
			}
		case "-f", "--file":
			var data []byte
			var err error
			if value == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(value)
			}
			if err != nil {
				return nil, fmt.Errorf("reading content: %w", err)
			}
			upsert.Content = string(data)
		}
	}

	return upsert, nil
}

// ─── rag-config ─────────────────────────────────────────────────────────────

func cmdRagConfig(args []string) error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}
	client := api.NewClient(cfg)

	if len(args) >= 3 && args[0] == "set" {
		return ragConfigSet(client, args[1], args[2])
	}
	if len(args) > 0 && args[0] == "set" {
		fmt.Println("Usage: lingdang rag-config set <key> <value>")
		fmt.Println()
		fmt.Println("Keys: top-k, min-score, chunk-size, citations, vector-weight, bm25-weight")
		return nil
	}

	rc, err := client.RagConfig()
	if err != nil {
		return fmt.Errorf("getting RAG config: %w", err)
	}

	if jsonOutput {
		return printJSON(rc)
	}

	display.Header("RAG Configuration")
	display.Info("top-k:", intOr(rc.TopK, "(default)"))
	display.Info("min-score:", floatOr(rc.MinScore, "(default)"))
	display.Info("chunk-size:", intOr(rc.ChunkSize, "(default)"))
	display.Info("citations:", boolOr(rc.ReturnCitations, "(default)"))
	display.Info("vector-weight:", intOr(rc.VectorWeight, "(default)"))
	display.Info("bm25-weight:", intOr(rc.BM25Weight, "(default)"))
	fmt.Println()

	return nil
}

func ragConfigSet(client *api.Client, key, value string) error {
	update := &api.RagConfig{}

	switch key {
	case "top-k", "chunk-size", "vector-weight", "bm25-weight":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		switch key {
		case "top-k":
			update.TopK = &n
		case "chunk-size":
			update.ChunkSize = &n
		case "vector-weight":
			update.VectorWeight = &n
		case "bm25-weight":
			update.BM25Weight = &n
		}
	case "min-score":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for min-score: %s", value)
		}
		update.MinScore = &f
	case "citations":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for citations: %s", value)
		}
		update.ReturnCitations = &b
	default:
		return fmt.Errorf("unknown RAG config key: %s (valid: top-k, min-score, chunk-size, citations, vector-weight, bm25-weight)", key)
	}

	if _, err := client.UpdateRagConfig(update); err != nil {
		return fmt.Errorf("updating RAG config: %w", err)
	}
	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

// ─── rag-logs ───────────────────────────────────────────────────────────────

func cmdRagLogs(args []string) error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}
	client := api.NewClient(cfg)

	// With a request ID, show the full retrieval trace for one query.
	if len(args) > 0 {
		detail, err := client.RagLogDetail(args[0])
		if err != nil {
			return fmt.Errorf("getting log detail: %w", err)
		}
		return printJSON(detail)
	}

	logs, err := client.RagLogs()
	if err != nil {
		return fmt.Errorf("listing RAG logs: %w", err)
	}

	if jsonOutput {
		return printJSON(logs)
	}

	display.Header(fmt.Sprintf("Assistant Query Logs (%d)", len(logs)))

	if len(logs) == 0 {
		display.Warn("No queries logged yet.")
		return nil
	}

	for _, l := range logs {
		fmt.Printf("\n  %s%s%s  %s  %s%dms, %d citations%s\n",
			display.Dim, display.FormatTime(l.CreatedAt), display.Reset,
			display.ModeLabel(l.Mode),
			display.Gray, l.LatencyMs, l.CitationsCount, display.Reset)
		fmt.Printf("    %s❯%s %s\n", display.Cyan, display.Reset, truncate(l.Question, 90))
		fmt.Printf("    %sID:%s %s\n", display.Dim, display.Reset, l.RequestID)
	}

	fmt.Println()
	fmt.Printf("  %sTip:%s Run %slingdang rag-logs <request-id>%s for the full retrieval trace.\n\n",
		display.Dim, display.Reset, display.Cyan, display.Reset)

	return nil
}

// ─── chunks ─────────────────────────────────────────────────────────────────

func cmdChunks(args []string) error {
	var articleID int64
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		articleID = id
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}

	client := api.NewClient(cfg)
	chunks, err := client.Chunks(articleID)
	if err != nil {
		return fmt.Errorf("listing chunks: %w", err)
	}

	if jsonOutput {
		return printJSON(chunks)
	}

	if articleID > 0 {
		display.Header(fmt.Sprintf("Chunks for article %d (%d)", articleID, len(chunks)))
	} else {
		display.Header(fmt.Sprintf("Index Chunks (%d)", len(chunks)))
	}

	if len(chunks) == 0 {
		display.Warn("No chunks in the index.")
		return nil
	}

	for _, c := range chunks {
		fmt.Printf("\n  %s#%d%s %s%s%s  %s%s%s\n",
			display.Cyan, c.Position, display.Reset,
			display.Bold, c.Title, display.Reset,
			display.Dim, c.ChunkID, display.Reset)
		fmt.Printf("    %s%s%s\n", display.Gray, truncate(c.Text, 120), display.Reset)
	}
	fmt.Println()

	return nil
}

// ─── profiles ───────────────────────────────────────────────────────────────

func cmdProfiles() error {
	profiles, err := config.ListProfiles()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(profiles)
	}

	display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

	if len(profiles) == 0 {
		display.Warn("No profiles found.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p == config.ProfileName(activeProfile) {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Printf("  %s %s\n", marker, p)
	}
	fmt.Println()

	return nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

func versionString() string {
	s := "lingdang " + version
	if commit != "none" && commit != "" {
		s += fmt.Sprintf("\ncommit: %s\nbuilt:  %s", commit, date)
	}
	return s
}

func parseGlobalFlags(args []string) []string {
	var remaining []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--profile":
			if i+1 < len(args) {
				i++
				activeProfile = args[i]
			}
		case "-j", "--json":
			jsonOutput = true
		default:
			remaining = append(remaining, args[i])
		}
	}
	return remaining
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid article id: %s", s)
	}
	return id, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func intOr(v *int, fallback string) string {
	if v == nil {
		return display.Dim + fallback + display.Reset
	}
	return strconv.Itoa(*v)
}

func floatOr(v *float64, fallback string) string {
	if v == nil {
		return display.Dim + fallback + display.Reset
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func boolOr(v *bool, fallback string) string {
	if v == nil {
		return display.Dim + fallback + display.Reset
	}
	return strconv.FormatBool(*v)
}

func wrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		words := strings.Fields(paragraph)
		current := ""
		for _, word := range words {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// ─── usage ──────────────────────────────────────────────────────────────────

func printUsage() {
	fmt.Printf(`%s铃铛 Lingdang CLI%s — blog reader and assistant (%s)

%sUsage:%s
  lingdang                                           Launch interactive mode (default)
  lingdang [--profile <name>] [-j] <command> [args]  Run a specific command

%sGetting Started:%s
  set server <url>          Point the CLI at your blog
  ask "<question>"          Ask the assistant (streams the answer)
  articles [page]           Browse published articles
  article <slug>            Read one article
  search <keyword>          Full-text search

%sAssistant:%s
  ask "<question>"
    -m, --mode <mode>       FLEXIBLE (may answer beyond the blog) or ARTICLE_ONLY
  rag-config                Show retrieval settings            (login required)
  rag-config set <k> <v>    Tune retrieval settings            (login required)
  rag-logs [request-id]     Review past assistant queries      (login required)

%sStudio:%s (login required)
  login <url> -u <user> -p <pass>   Authenticate
  logout                            Clear the saved token
  studio list                       All articles including drafts
  studio create --title <t> -f <md> New draft from a markdown file
  studio update <id> [flags]        Edit a draft
  studio publish|offline <id>       Change article status
  studio delete <id>                Remove an article
  studio reindex [<id>|--all]       Rebuild the search index
  chunks [article-id]               Inspect indexed fragments

%sSettings:%s
  config                    Show current configuration
  set <key> <value>         server | mode | token
  profiles                  List config profiles
  --profile <name>          Use a named config profile
  -j, --json                Print raw JSON instead of formatted output

%sExamples:%s
  lingdang                                           # Start interactive mode
  lingdang set server https://blog.example.com
  lingdang ask "有哪些关于 Go 并发的文章？"
  lingdang ask "Summarize the latest post" --mode ARTICLE_ONLY
  lingdang login https://blog.example.com -u admin -p secret
  lingdang studio create --title "New post" -f draft.md
  lingdang --profile staging studio list

`, display.Bold, display.Reset, version,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset)
}

func printStudioUsage() {
	fmt.Println("Usage: lingdang studio <list|create|update|publish|offline|delete|reindex> [args]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  lingdang studio list")
	fmt.Println(`  lingdang studio create --title "New post" -f draft.md --tags go,concurrency`)
	fmt.Println("  lingdang studio publish 42")
	fmt.Println("  lingdang studio reindex --all")
}

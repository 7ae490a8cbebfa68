package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"lingdang-cli/internal/config"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	clientID   string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Server, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		token:    cfg.Token,
		clientID: uuid.NewString(),
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Id", c.clientID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// envelope is the backend's uniform response wrapper. Code 0 means success;
// anything else carries a human-readable message.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// --- Auth ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (c *Client) Login(username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.doJSON("POST", "/api/auth/login", LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout() error {
	return c.doJSON("POST", "/api/auth/logout", nil, nil)
}

// --- Articles (public) ---

type Article struct {
	ID          int64    `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Content     string   `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status,omitempty"`
	PublishedAt string   `json:"publishedAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

func (c *Client) Articles(page, size int) ([]Article, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	var articles []Article
	if err := c.doJSON("GET", "/api/articles?"+params.Encode(), nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) Article(slug string) (*Article, error) {
	var article Article
	if err := c.doJSON("GET", "/api/articles/"+url.PathEscape(slug), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

type SearchResult struct {
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
}

func (c *Client) SearchArticles(keyword string) (*SearchResult, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	var result SearchResult
	if err := c.doJSON("GET", "/api/articles/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Studio (admin, token required) ---

type ArticleUpsert struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (c *Client) StudioArticles() ([]Article, error) {
	var articles []Article
	if err := c.doJSON("GET", "/api/studio/articles", nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) CreateArticle(a *ArticleUpsert) (*Article, error) {
	var article Article
	if err := c.doJSON("POST", "/api/studio/articles", a, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) UpdateArticle(id int64, a *ArticleUpsert) (*Article, error) {
	var article Article
	if err := c.doJSON("PUT", fmt.Sprintf("/api/studio/articles/%d", id), a, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) PublishArticle(id int64) (*Article, error) {
	var article Article
	if err := c.doJSON("PUT", fmt.Sprintf("/api/studio/articles/%d/publish", id), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) OfflineArticle(id int64) (*Article, error) {
	var article Article
	if err := c.doJSON("PUT", fmt.Sprintf("/api/studio/articles/%d/offline", id), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) DeleteArticle(id int64) error {
	return c.doJSON("DELETE", fmt.Sprintf("/api/studio/articles/%d", id), nil, nil)
}

func (c *Client) ReindexArticle(id int64) error {
	return c.doJSON("POST", fmt.Sprintf("/api/studio/articles/%d/reindex", id), nil, nil)
}

func (c *Client) ReindexAll() error {
	return c.doJSON("POST", "/api/studio/reindex-all", nil, nil)
}

// RagConfig tunes the retrieval pipeline behind the assistant.
type RagConfig struct {
	TopK            *int     `json:"topK,omitempty"`
	MinScore        *float64 `json:"minScore,omitempty"`
	ChunkSize       *int     `json:"chunkSize,omitempty"`
	ReturnCitations *bool    `json:"returnCitations,omitempty"`
	VectorWeight    *int     `json:"vectorWeight,omitempty"`
	BM25Weight      *int     `json:"bm25Weight,omitempty"`
}

func (c *Client) RagConfig() (*RagConfig, error) {
	var cfg RagConfig
	if err := c.doJSON("GET", "/api/studio/rag-config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) UpdateRagConfig(cfg *RagConfig) (*RagConfig, error) {
	var updated RagConfig
	if err := c.doJSON("PUT", "/api/studio/rag-config", cfg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RagLog is one logged assistant query.
type RagLog struct {
	RequestID      string `json:"requestId"`
	Question       string `json:"question"`
	Mode           string `json:"mode"`
	CitationsCount int    `json:"citationsCount"`
	LatencyMs      int    `json:"latencyMs"`
	CreatedAt      string `json:"createdAt"`
}

func (c *Client) RagLogs() ([]RagLog, error) {
	var logs []RagLog
	if err := c.doJSON("GET", "/api/studio/rag-logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) RagLogDetail(requestID string) (map[string]any, error) {
	var detail map[string]any
	if err := c.doJSON("GET", "/api/studio/rag-logs/"+url.PathEscape(requestID), nil, &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// Chunk is one indexed article fragment.
type Chunk struct {
	ChunkID   string `json:"chunkId"`
	ArticleID int64  `json:"articleId"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
}

func (c *Client) Chunks(articleID int64) ([]Chunk, error) {
	path := "/api/studio/chunks"
	if articleID > 0 {
		path = fmt.Sprintf("/api/studio/articles/%d/chunks", articleID)
	}
	var chunks []Chunk
	if err := c.doJSON("GET", path, nil, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// --- Generic JSON helper ---

func (c *Client) doJSON(method, path string, reqBody any, result any) error {
	var bodyReader io.Reader
	if reqBody != nil && method != "GET" {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("server error: %s", env.Message)
	}

	if result != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("parsing response data: %w", err)
		}
	}
	return nil
}

package api

import "context"

// AssistantAPI is the surface of *Client used by the TUI and the chat
// controller. Tests substitute fakes.
type AssistantAPI interface {
	Login(username, password string) (*LoginResponse, error)
	Logout() error
	Articles(page, size int) ([]Article, error)
	Article(slug string) (*Article, error)
	SearchArticles(keyword string) (*SearchResult, error)
	StudioArticles() ([]Article, error)
	RagConfig() (*RagConfig, error)
	UpdateRagConfig(cfg *RagConfig) (*RagConfig, error)
	RagLogs() ([]RagLog, error)
	QueryStream(ctx context.Context, query *QueryRequest, cb EventCallback) error
}

// Package chat manages one streaming conversation with the blog assistant:
// the turn list, the in-flight request lifecycle (timeout, cancellation,
// supersession) and the coalescing of rapid answer updates into view commits.
package chat

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is one source reference backing part of an answer. The backend
// sends the full list as a single JSON array that replaces any previous list.
type Citation struct {
	RefIndex int      `json:"refIndex"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Quote    string   `json:"quote,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	ChunkID  string   `json:"chunkId,omitempty"`
}

// Turn is one message in the conversation. While Streaming is true the
// controller mutates Content and Citations in place; after that the turn is
// final. Error marks turns whose content is a failure notice rather than an
// answer.
type Turn struct {
	Role      Role
	Content   string
	Citations []Citation
	Streaming bool
	Error     bool
}

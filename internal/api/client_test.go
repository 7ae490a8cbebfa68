package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lingdang-cli/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(&config.Config{Server: server.URL, Token: "test-token"})
}

func writeEnvelope(w http.ResponseWriter, data any) {
	payload, _ := json.Marshal(data)
	fmt.Fprintf(w, `{"code":0,"message":"操作成功","data":%s}`, payload)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Username != "admin" || req.Password != "secret" {
			t.Errorf("credentials not forwarded: %+v", req)
		}
		writeEnvelope(w, LoginResponse{Token: "jwt-abc", Username: "admin"})
	}))
	defer server.Close()

	resp, err := newTestClient(server).Login("admin", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token != "jwt-abc" {
		t.Errorf("Token = %q, want jwt-abc", resp.Token)
	}
}

func TestServerErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1,"message":"用户名或密码错误","data":null}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Login("admin", "wrong")
	if err == nil {
		t.Fatal("expected error for non-zero envelope code")
	}
}

func TestNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newTestClient(server).Articles(0, 10); err == nil {
		t.Fatal("expected error for 500 status")
	}
}

func TestArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("size"); got != "20" {
			t.Errorf("size = %q, want 20", got)
		}
		writeEnvelope(w, []Article{
			{ID: 1, Slug: "llm-basics", Title: "大模型基础"},
			{ID: 2, Slug: "rag-intro", Title: "RAG 入门"},
		})
	}))
	defer server.Close()

	articles, err := newTestClient(server).Articles(0, 20)
	if err != nil {
		t.Fatalf("Articles() error = %v", err)
	}
	if len(articles) != 2 || articles[0].Slug != "llm-basics" {
		t.Errorf("articles = %+v", articles)
	}
}

func TestAuthHeaderAndClientID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Client-Id") == "" {
			t.Error("X-Client-Id header missing")
		}
		writeEnvelope(w, []Article{})
	}))
	defer server.Close()

	if _, err := newTestClient(server).StudioArticles(); err != nil {
		t.Fatalf("StudioArticles() error = %v", err)
	}
}

func TestRagConfigRoundTrip(t *testing.T) {
	topK := 5
	minScore := 0.35
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			writeEnvelope(w, RagConfig{TopK: &topK, MinScore: &minScore})
		case "PUT":
			var cfg RagConfig
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				t.Fatalf("decoding request: %v", err)
			}
			if cfg.TopK == nil || *cfg.TopK != 8 {
				t.Errorf("TopK not forwarded: %+v", cfg)
			}
			writeEnvelope(w, cfg)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	cfg, err := client.RagConfig()
	if err != nil {
		t.Fatalf("RagConfig() error = %v", err)
	}
	if cfg.TopK == nil || *cfg.TopK != 5 {
		t.Errorf("TopK = %v, want 5", cfg.TopK)
	}

	newTopK := 8
	if _, err := client.UpdateRagConfig(&RagConfig{TopK: &newTopK}); err != nil {
		t.Fatalf("UpdateRagConfig() error = %v", err)
	}
}

// --- Streaming ---

func TestQueryStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/assistant/query/stream" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Question != "什么是 RAG？" || req.Mode != "FLEXIBLE" {
			t.Errorf("request = %+v", req)
		}
		if len(req.History) != 2 {
			t.Errorf("history length = %d, want 2", len(req.History))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		// Flush between frames so the client sees multiple reads.
		fmt.Fprint(w, "event:message\ndata:RAG 是\n\n")
		flusher.Flush()
		fmt.Fprint(w, "event:message\ndata:检索增强生成。\n\n")
		flusher.Flush()
		fmt.Fprint(w, "event:citations\ndata:[{\"refIndex\":1,\"title\":\"RAG 入门\",\"url\":\"/blog/rag-intro\",\"chunkId\":\"c1\"}]\n\n")
		fmt.Fprint(w, "event:done\ndata:\n\n")
	}))
	defer server.Close()

	var events []Event
	err := newTestClient(server).QueryStream(context.Background(), &QueryRequest{
		Question: "什么是 RAG？",
		Mode:     "FLEXIBLE",
		History: []HistoryMessage{
			{Role: "user", Content: "你好"},
			{Role: "assistant", Content: "你好，有什么可以帮你？"},
		},
	}, func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("QueryStream() error = %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	if events[0].Type != EventMessage || events[0].Data != "RAG 是" {
		t.Errorf("events[0] = %v", events[0])
	}
	if events[2].Type != EventCitations {
		t.Errorf("events[2] = %v", events[2])
	}
	if events[3].Type != EventDone {
		t.Errorf("events[3] = %v", events[3])
	}
}

func TestQueryStreamNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := newTestClient(server).QueryStream(context.Background(), &QueryRequest{Question: "q", Mode: "FLEXIBLE"}, func(Event) {
		t.Error("callback must not run on non-OK status")
	})
	if err == nil {
		t.Fatal("expected error for 429 status")
	}
}

func TestQueryStreamCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:message\ndata:开始\n\n")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := newTestClient(server).QueryStream(ctx, &QueryRequest{Question: "q", Mode: "FLEXIBLE"}, func(Event) {})
	if err != context.Canceled {
		t.Fatalf("QueryStream() error = %v, want context.Canceled", err)
	}
}

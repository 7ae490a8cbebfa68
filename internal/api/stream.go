package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HistoryMessage is one prior conversation turn replayed as context.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryRequest is the payload of the streaming assistant endpoint.
type QueryRequest struct {
	Question string           `json:"question"`
	Mode     string           `json:"mode"`
	History  []HistoryMessage `json:"history"`
}

// EventCallback receives each decoded stream event in wire order.
type EventCallback func(ev Event)

// QueryStream posts a question to the assistant and decodes the streamed
// response until the body ends or ctx is cancelled. Transport failures and a
// non-OK status before any event are returned as errors; protocol-level
// "error" events are delivered through the callback like any other frame.
func (c *Client) QueryStream(ctx context.Context, query *QueryRequest, cb EventCallback) error {
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/assistant/query/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(errBody))
	}

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(string(buf[:n])) {
				cb(ev)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

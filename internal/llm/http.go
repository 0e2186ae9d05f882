package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of a backend reply is read
const maxResponseBytes = 4 << 20

// jsonCall is one JSON-over-HTTP exchange with a backend
type jsonCall struct {
	client  *http.Client
	method  string
	url     string
	headers map[string]string
	body    interface{}
	// errorMessage extracts a readable message from a non-200 body
	errorMessage func([]byte) string
}

// do sends the request and decodes a 200 reply into out. Other statuses
// become *StatusError so withRetry can classify them.
func (c jsonCall) do(ctx context.Context, out interface{}) error {
	var reader io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if c.errorMessage != nil {
			msg = c.errorMessage(data)
		}
		if msg == "" {
			msg = string(data)
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

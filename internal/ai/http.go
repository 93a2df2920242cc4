package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient forwards queries to a JSON endpoint, typically a local model
// server. The endpoint receives {"query": ...} and may answer with the
// command envelope, any object carrying a text field, or plain text.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *HTTPClient) Process(ctx context.Context, query string) (Reply, error) {
	raw, err := c.post(ctx, map[string]any{"query": query})
	if err != nil {
		return Reply{}, err
	}
	return parseReply(raw), nil
}

func (c *HTTPClient) AnalyzeCode(ctx context.Context, code, errMsg, notes string) (AnalysisReport, error) {
	raw, err := c.post(ctx, map[string]any{
		"analyze": code,
		"error":   errMsg,
		"context": notes,
	})
	if err != nil {
		return AnalysisReport{}, err
	}

	var report AnalysisReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return AnalysisReport{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return report, nil
}

func (c *HTTPClient) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("ai http status %d: %s", res.StatusCode, string(snippet))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	// Unwrap common {"text": ...} style wrappers; otherwise hand the raw
	// body to the envelope parser.
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, k := range []string{"text", "output", "message"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return s, nil
			}
		}
	}
	return strings.TrimSpace(string(data)), nil
}

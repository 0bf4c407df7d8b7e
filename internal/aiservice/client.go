package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sushihentaime/blogify/internal/common"
)

// Client talks to a proxy exposing the /api/ai contract, e.g. another Blogify
// deployment or a serverless function.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	defer common.TrackCall("ai_proxy", "complete")()

	b, err := json.Marshal(CompletionRequest{Messages: messages, MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai proxy request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("could not read AI proxy response: %w", err)
	}

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return parseCompletion(body)
	}

	var errRes errorResponse
	if err := json.Unmarshal(body, &errRes); err != nil {
		errRes = errorResponse{Details: errorSnippet(body)}
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case errRes.Error == NotConfiguredMessage:
		return "", ErrNotConfigured
	default:
		details := errRes.Details
		if details == "" {
			details = errRes.Error
		}
		return "", &APIError{Status: res.StatusCode, Details: details}
	}
}

// errorSnippet keeps the start of a body that is not a JSON error document.
func errorSnippet(body []byte) string {
	const max = 200

	text := strings.TrimSpace(string(body))
	if len(text) > max {
		text = text[:max]
	}
	return text
}

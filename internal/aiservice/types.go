package aiservice

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"

	DefaultMaxTokens = 1000
	DefaultModel     = "sonar-pro"
	DefaultEndpoint  = "https://api.perplexity.ai/chat/completions"
)

var (
	ErrNotConfigured = errors.New("ai api key is not configured")
	ErrRateLimited   = errors.New("ai rate limit exceeded")
	ErrEmptyResponse = errors.New("ai provider returned no content")
)

// Messages written to clients of the proxy.
const (
	NotConfiguredMessage = "AI API key is not configured on the server."
	RateLimitedMessage   = "Too many AI requests. Please wait a moment and try again."

	msgMethodNotAllowed = "Method Not Allowed"
	msgInvalidMessages  = "Invalid request body: messages array is required."
	msgInvalidRole      = "Invalid request body: message role must be system or user."
	msgInternal         = "Internal server error"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body accepted by the proxy.
type CompletionRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type upstreamRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// CompletionResponse holds the part of an OpenAI-compatible chat completion the blog reads.
type CompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Text returns the content of the first choice.
func (r *CompletionResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// APIError is a non-2xx answer of the AI provider or of a remote proxy.
type APIError struct {
	Status  int
	Details string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ai provider returned %d", e.Status)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func validMessages(messages []Message) bool {
	for _, m := range messages {
		if m.Role != RoleSystem && m.Role != RoleUser {
			return false
		}
	}
	return true
}

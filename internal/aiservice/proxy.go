// Package aiservice forwards chat-completion requests to the AI provider while
// keeping the provider credential on the server.
package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sushihentaime/blogify/internal/common"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 60 * time.Second
	maxRequestBytes = 1 << 20
)

type Config struct {
	APIKey        string
	Model         string
	Endpoint      string
	RatePerMinute int
	Timeout       time.Duration
}

type Proxy struct {
	key      string
	model    string
	endpoint string
	limiter  *rate.Limiter
	client   *http.Client
	logger   *slog.Logger
}

// NewProxy creates the proxy. RatePerMinute <= 0 disables local rate limiting.
func NewProxy(cfg Config, logger *slog.Logger) *Proxy {
	p := &Proxy{
		key:      cfg.APIKey,
		model:    cfg.Model,
		endpoint: cfg.Endpoint,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}

	if p.model == "" {
		p.model = DefaultModel
	}
	if p.endpoint == "" {
		p.endpoint = DefaultEndpoint
	}
	if p.client.Timeout <= 0 {
		p.client.Timeout = defaultTimeout
	}
	if cfg.RatePerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return p
}

func (p *Proxy) Configured() bool {
	return p.key != ""
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		p.writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, "")
		return
	}

	if !p.Configured() {
		p.writeError(w, http.StatusInternalServerError, NotConfiguredMessage, "")
		return
	}

	var input struct {
		Messages  *[]Message `json:"messages"`
		MaxTokens int        `json:"max_tokens"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Messages == nil {
		p.writeError(w, http.StatusBadRequest, msgInvalidMessages, "")
		return
	}

	if !validMessages(*input.Messages) {
		p.writeError(w, http.StatusBadRequest, msgInvalidRole, "")
		return
	}

	if !p.limiter.Allow() {
		p.writeError(w, http.StatusTooManyRequests, RateLimitedMessage, "")
		return
	}

	status, body, err := p.forward(r.Context(), *input.Messages, input.MaxTokens)
	if err != nil {
		p.logger.Error("AI proxy request failed", slog.String("error", err.Error()))
		p.writeError(w, http.StatusInternalServerError, msgInternal, err.Error())
		return
	}

	if status < 200 || status > 299 {
		p.logger.Error("AI provider error", slog.Int("status", status), slog.String("details", string(body)))
		p.writeError(w, status, fmt.Sprintf("AI provider returned %d", status), string(body))
		return
	}

	common.AIProxyRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Complete runs a completion in-process and returns the text of the first choice.
func (p *Proxy) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	if !p.limiter.Allow() {
		return "", ErrRateLimited
	}

	status, body, err := p.forward(ctx, messages, maxTokens)
	if err != nil {
		return "", err
	}

	if status < 200 || status > 299 {
		return "", &APIError{Status: status, Details: string(body)}
	}

	return parseCompletion(body)
}

// forward posts the completion to the provider and returns its raw answer.
func (p *Proxy) forward(ctx context.Context, messages []Message, maxTokens int) (int, []byte, error) {
	defer common.TrackCall("ai", "complete")()

	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	b, err := json.Marshal(upstreamRequest{Model: p.model, Messages: messages, MaxTokens: maxTokens})
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.key)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("could not read AI provider response: %w", err)
	}

	return res.StatusCode, body, nil
}

func (p *Proxy) writeError(w http.ResponseWriter, status int, message, details string) {
	common.AIProxyRequests.WithLabelValues(strconv.Itoa(status)).Inc()

	js, err := json.Marshal(errorResponse{Error: message, Details: details})
	if err != nil {
		p.logger.Error("could not encode AI proxy error", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func parseCompletion(body []byte) (string, error) {
	var res CompletionResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("could not decode AI provider response: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// IsRateLimited reports whether err is the local or upstream rate limit.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.Is(err, ErrRateLimited) || (errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests)
}

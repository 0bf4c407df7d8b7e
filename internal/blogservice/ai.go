package blogservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sushihentaime/blogify/internal/aiservice"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/content"
)

const (
	defaultImageSource = "https://picsum.photos"
	defaultTone        = "informative"
	defaultLength      = "medium"

	maxTopicSuggestions = 5
	minImageBytes       = 1000
)

// tones are the writing styles offered by the editor.
var tones = []string{"informative", "professional", "casual", "enthusiastic", "witty", "persuasive"}

var lengthGuides = map[string]struct {
	words     int
	maxTokens int
}{
	"short":  {words: 300, maxTokens: 800},
	"medium": {words: 600, maxTokens: 1500},
	"long":   {words: 1000, maxTokens: 2500},
}

// listMarkerRX matches "1.", "2)", "-", "*" and "•" prefixes of a suggestion line.
var listMarkerRX = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

const contentSystemPrompt = `You are an expert blog writer. Write well structured, engaging articles.
Answer with an HTML fragment only: one <h1> title followed by <h2>, <p>, <ul>, <li>, <strong> and <em> elements.
Do not include <html>, <head> or <body> tags, code fences, or any commentary.`

const topicsSystemPrompt = `You suggest catchy blog post titles.
Answer with a JSON array of exactly 5 short title strings and nothing else.`

// GenerateContent asks the generator for an HTML article. It never fails: an
// unconfigured generator yields a mock article and any other failure a short
// apology, both mentioning the topic.
func (s *BlogService) GenerateContent(ctx context.Context, topic, tone, length string) string {
	topic = strings.TrimSpace(topic)
	tone, length = normalizeTone(tone), normalizeLength(length)

	if s.ai == nil {
		common.AIFallbacks.WithLabelValues("unconfigured").Inc()
		return mockArticle(topic, tone, length)
	}

	guide := lengthGuides[length]
	messages := []aiservice.Message{
		{Role: aiservice.RoleSystem, Content: contentSystemPrompt},
		{Role: aiservice.RoleUser, Content: fmt.Sprintf("Write a %s blog post of about %d words about: %s", tone, guide.words, topic)},
	}

	text, err := s.ai.Complete(ctx, messages, guide.maxTokens)
	if err != nil {
		if errors.Is(err, aiservice.ErrNotConfigured) {
			common.AIFallbacks.WithLabelValues("unconfigured").Inc()
			return mockArticle(topic, tone, length)
		}

		s.logger.Error("could not generate content", slog.String("topic", topic), slog.String("error", err.Error()))
		common.AIFallbacks.WithLabelValues("content").Inc()
		return apology(topic, err)
	}

	body := content.StripCodeFence(text)
	if !content.LooksLikeHTML(body) {
		body = content.MarkdownToHTML(body)
	}
	body = sanitizeHTML(body)

	if !content.HasVisibleText(body) {
		common.AIFallbacks.WithLabelValues("content").Inc()
		return apology(topic, aiservice.ErrEmptyResponse)
	}

	return body
}

// GenerateTopicSuggestions returns at most five titles related to seed, or an empty list.
func (s *BlogService) GenerateTopicSuggestions(ctx context.Context, seed string) []string {
	seed = strings.TrimSpace(seed)
	if s.ai == nil || seed == "" {
		common.AIFallbacks.WithLabelValues("topics").Inc()
		return []string{}
	}

	messages := []aiservice.Message{
		{Role: aiservice.RoleSystem, Content: topicsSystemPrompt},
		{Role: aiservice.RoleUser, Content: "Suggest 5 blog post titles about: " + seed},
	}

	text, err := s.ai.Complete(ctx, messages, 300)
	if err != nil {
		s.logger.Error("could not generate topic suggestions", slog.String("seed", seed), slog.String("error", err.Error()))
		common.AIFallbacks.WithLabelValues("topics").Inc()
		return []string{}
	}

	return parseTopics(text)
}

// GenerateDraft generates an article and derives its title and slug. The title
// is the first <h1> of the article, or the topic in title case.
func (s *BlogService) GenerateDraft(ctx context.Context, topic, tone, length string) *Draft {
	body := s.GenerateContent(ctx, topic, tone, length)

	title := content.ExtractTitle(body)
	if title == "" {
		title = titleCase(topic)
	}

	return &Draft{Title: title, Slug: content.Slugify(title), Content: body}
}

// GenerateFeaturedImage fetches a placeholder image seeded by the topic and
// uploads it on behalf of userID.
func (s *BlogService) GenerateFeaturedImage(ctx context.Context, userID, topic string) (*FileRef, error) {
	seed := content.Slugify(topic)

	v := common.NewValidator()
	validateID(v, userID, "user_id")
	v.Check(seed != "", "topic", "must contain letters or numbers")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	url := fmt.Sprintf("%s/seed/%s/1280/720", s.imageSource, seed)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch featured image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image source returned %d", res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read featured image: %w", err)
	}

	if len(data) < minImageBytes {
		return nil, fmt.Errorf("image source returned %d bytes", len(data))
	}

	return s.UploadFile(ctx, userID, "featured-"+seed+".jpg", res.Header.Get("Content-Type"), data)
}

func parseTopics(text string) []string {
	text = content.StripCodeFence(text)

	var parsed []string
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		parsed = strings.Split(text, "\n")
	}

	topics := make([]string, 0, maxTopicSuggestions)
	for _, line := range parsed {
		line = listMarkerRX.ReplaceAllString(line, "")
		line = strings.Trim(line, " \t\r\"'`“”‘’,")
		if line == "" || line == "[" || line == "]" {
			continue
		}

		topics = append(topics, line)
		if len(topics) == maxTopicSuggestions {
			break
		}
	}

	return topics
}

// normalizeTone falls back to the default for tones the editor does not offer.
func normalizeTone(tone string) string {
	tone = strings.ToLower(strings.TrimSpace(tone))
	if !slices.Contains(tones, tone) {
		return defaultTone
	}
	return tone
}

func normalizeLength(length string) string {
	length = strings.ToLower(strings.TrimSpace(length))
	if _, ok := lengthGuides[length]; !ok {
		return defaultLength
	}
	return length
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func apology(topic string, err error) string {
	reason := "Please try again in a moment."
	if aiservice.IsRateLimited(err) {
		reason = aiservice.RateLimitedMessage
	}

	return fmt.Sprintf("<p>Sorry, we could not generate an article about <strong>%s</strong> right now. %s</p>", html.EscapeString(topic), reason)
}

func mockArticle(topic, tone, length string) string {
	t := html.EscapeString(topic)
	guide := lengthGuides[length]

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(titleCase(topic)))
	fmt.Fprintf(&b, "<p>This is a %s introduction to <strong>%s</strong>. AI generation is not configured on this server, so this sample article of about %d words stands in for generated content.</p>\n", html.EscapeString(tone), t, guide.words)
	fmt.Fprintf(&b, "<h2>Why %s matters</h2>\n", t)
	fmt.Fprintf(&b, "<p>%s touches more of our daily lives than most people notice. Understanding the basics helps you follow the conversation and make better decisions.</p>\n", t)
	fmt.Fprintf(&b, "<h2>Key ideas</h2>\n<ul>\n<li>Where %s came from</li>\n<li>How %s works today</li>\n<li>What to expect next</li>\n</ul>\n", t, t)
	b.WriteString("<h2>Conclusion</h2>\n")
	fmt.Fprintf(&b, "<p>Start small, stay curious and keep exploring %s.</p>", t)

	return b.String()
}

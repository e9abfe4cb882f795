package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
	"github.com/local/jarvis/internal/research"
)

const GeminiBackend = "gemini"

const groundingPrompt = `You are a search engine. Perform a comprehensive real-time Google Search for: %q.

1. Provide a very detailed summary of the findings, prioritizing data, statistics, and concrete facts.
2. If you find relevant images in the search results, embed them in the text using Markdown format: ![alt text](url).
3. Try to include at least 3 relevant images if possible.`

var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)\)`)

// GeminiGrounding searches through Gemini with the google_search tool enabled.
// Grounding chunks become hits; Markdown images in the text become images.
type GeminiGrounding struct {
	apiKey string
	url    string
	http   *http.Client
}

func NewGeminiGrounding(cfg config.GeminiConfig, timeout time.Duration) *GeminiGrounding {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiGrounding{apiKey: cfg.APIKey, url: cfg.URL, http: &http.Client{Timeout: timeout}}
}

func (g *GeminiGrounding) Name() string { return GeminiBackend }

func (g *GeminiGrounding) Configured() bool { return g.apiKey != "" && g.url != "" }

type groundingRequest struct {
	Contents []groundingContent `json:"contents"`
	Tools    []map[string]any   `json:"tools"`
}

type groundingContent struct {
	Parts []groundingPart `json:"parts"`
}

type groundingPart struct {
	Text string `json:"text"`
}

func (g *GeminiGrounding) Search(ctx context.Context, query string) (*research.SearchResults, error) {
	u, err := url.Parse(g.url)
	if err != nil {
		return nil, fmt.Errorf("gemini url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(groundingRequest{
		Contents: []groundingContent{{Parts: []groundingPart{{Text: fmt.Sprintf(groundingPrompt, query)}}}},
		Tools:    []map[string]any{{"google_search": map[string]any{}}},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini search request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini search read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini search HTTP %d", resp.StatusCode)
	}
	return parseGrounding(raw)
}

func parseGrounding(raw []byte) (*research.SearchResults, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("gemini search: invalid JSON response")
	}
	cand := gjson.GetBytes(raw, "candidates.0")
	var text strings.Builder
	for _, p := range cand.Get("content.parts.#.text").Array() {
		text.WriteString(p.String())
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrNoResults
	}

	out := &research.SearchResults{Answer: text.String()}
	cand.Get("groundingMetadata.groundingChunks").ForEach(func(_, c gjson.Result) bool {
		web := c.Get("web")
		if uri := web.Get("uri").String(); uri != "" {
			out.Results = append(out.Results, research.SearchHit{Title: web.Get("title").String(), URL: uri})
		}
		return true
	})
	for _, m := range markdownImage.FindAllStringSubmatch(out.Answer, -1) {
		out.Images = research.MergeImages(out.Images, []string{m[1]})
	}
	return out, nil
}

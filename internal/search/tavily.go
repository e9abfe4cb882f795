package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
	"github.com/local/jarvis/internal/research"
)

const TavilyBackend = "tavily"

// ErrNotConfigured is returned when no Tavily key is set.
var ErrNotConfigured = errors.New("tavily api key missing")

// Tavily is a web search client for the Tavily search API.
type Tavily struct {
	apiKey     string
	url        string
	maxResults int
	http       *http.Client
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeImages bool   `json:"include_images"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

func NewTavily(cfg config.SearchConfig) *Tavily {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}
	return &Tavily{
		apiKey:     cfg.TavilyAPIKey,
		url:        cfg.TavilyURL,
		maxResults: limit,
		http:       &http.Client{Timeout: timeout},
	}
}

func (t *Tavily) Name() string { return TavilyBackend }

// Configured reports whether a key is present.
func (t *Tavily) Configured() bool { return t.apiKey != "" }

// Search runs one advanced query with answer and images included.
func (t *Tavily) Search(ctx context.Context, query string) (*research.SearchResults, error) {
	if t.apiKey == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(tavilyRequest{
		APIKey:        t.apiKey,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeImages: true,
		IncludeAnswer: true,
		MaxResults:    t.maxResults,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("tavily read: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errors.New("tavily api key is invalid")
	case http.StatusTooManyRequests:
		return nil, errors.New("tavily rate limit exceeded")
	case 432:
		return nil, errors.New("tavily usage limit exceeded")
	default:
		msg := string(raw)
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, fmt.Errorf("tavily HTTP %d: %s", resp.StatusCode, msg)
	}

	out, err := parseTavily(raw)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("query", query).
		Int("results", len(out.Results)).
		Int("images", len(out.Images)).
		Dur("duration", time.Since(start)).
		Msg("tavily search done")
	return out, nil
}

// parseTavily reads answer, results and images. Images arrive either as plain
// URLs or as {url, description} objects depending on request flags.
func parseTavily(raw []byte) (*research.SearchResults, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("tavily: invalid JSON response")
	}
	doc := gjson.ParseBytes(raw)
	out := &research.SearchResults{Answer: doc.Get("answer").String()}
	doc.Get("results").ForEach(func(_, r gjson.Result) bool {
		out.Results = append(out.Results, research.SearchHit{
			Title:   r.Get("title").String(),
			Content: r.Get("content").String(),
			URL:     r.Get("url").String(),
		})
		return true
	})
	doc.Get("images").ForEach(func(_, img gjson.Result) bool {
		u := img.String()
		if img.IsObject() {
			u = img.Get("url").String()
		}
		if u != "" {
			out.Images = append(out.Images, u)
		}
		return true
	})
	return out, nil
}

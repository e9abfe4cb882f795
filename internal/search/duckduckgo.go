package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
	"github.com/local/jarvis/internal/research"
)

const (
	DuckDuckGoBackend = "duckduckgo"

	duckDuckGoSite    = "https://duckduckgo.com"
	summaryHits       = 3
	maxDuckDuckGoImgs = 5
)

// ErrNoResults is returned when a backend answered but found nothing usable.
var ErrNoResults = errors.New("search returned no results")

// DuckDuckGo queries the keyless DuckDuckGo Instant Answer API and shapes the
// answer like a Tavily response.
type DuckDuckGo struct {
	enabled    bool
	url        string
	maxResults int
	http       *http.Client
}

func NewDuckDuckGo(cfg config.SearchConfig) *DuckDuckGo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 10
	}
	return &DuckDuckGo{
		enabled:    cfg.DuckDuckGoEnabled && cfg.DuckDuckGoURL != "",
		url:        cfg.DuckDuckGoURL,
		maxResults: limit,
		http:       &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGo) Name() string { return DuckDuckGoBackend }

func (d *DuckDuckGo) Configured() bool { return d.enabled }

func (d *DuckDuckGo) Search(ctx context.Context, query string) (*research.SearchResults, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo HTTP %d", resp.StatusCode)
	}
	return parseDuckDuckGo(raw, d.maxResults)
}

// parseDuckDuckGo turns the abstract and related topics into hits. Topic
// groups nest their entries under "Topics".
func parseDuckDuckGo(raw []byte, limit int) (*research.SearchResults, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("duckduckgo: invalid JSON response")
	}
	doc := gjson.ParseBytes(raw)
	out := &research.SearchResults{}

	if abstract := doc.Get("AbstractText").String(); abstract != "" {
		out.Results = append(out.Results, research.SearchHit{
			Title:   orDefault(doc.Get("Heading").String(), "Untitled"),
			Content: abstract,
			URL:     orDefault(doc.Get("AbstractURL").String(), "#"),
		})
	}
	if img := resolveImage(doc.Get("Image").String()); img != "" {
		out.Images = append(out.Images, img)
	}

	var addTopic func(_, t gjson.Result) bool
	addTopic = func(_, t gjson.Result) bool {
		if len(out.Results) >= limit {
			return false
		}
		if nested := t.Get("Topics"); nested.Exists() {
			nested.ForEach(addTopic)
			return len(out.Results) < limit
		}
		text := t.Get("Text").String()
		if text == "" {
			return true
		}
		title := text
		if i := strings.Index(text, " - "); i > 0 {
			title = text[:i]
		}
		out.Results = append(out.Results, research.SearchHit{
			Title:   title,
			Content: text,
			URL:     orDefault(t.Get("FirstURL").String(), "#"),
		})
		if img := resolveImage(t.Get("Icon.URL").String()); img != "" && len(out.Images) < maxDuckDuckGoImgs {
			out.Images = research.MergeImages(out.Images, []string{img})
		}
		return true
	}
	doc.Get("RelatedTopics").ForEach(addTopic)

	if len(out.Results) == 0 {
		return nil, ErrNoResults
	}
	out.Answer = summarize(out.Results)
	return out, nil
}

func summarize(hits []research.SearchHit) string {
	n := min(len(hits), summaryHits)
	parts := make([]string, 0, n)
	for _, h := range hits[:n] {
		parts = append(parts, fmt.Sprintf("Title: %s\nContent: %s", h.Title, h.Content))
	}
	return strings.Join(parts, "\n\n")
}

// resolveImage makes the site-relative icon paths absolute.
func resolveImage(p string) string {
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return p
	case strings.HasPrefix(p, "/"):
		return duckDuckGoSite + p
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

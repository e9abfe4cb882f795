package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/research"
)

// ErrEmptyTopic is returned when a research request carries no topic.
var ErrEmptyTopic = errors.New("research topic is empty")

// Researcher gathers web context for the topic. Deep requests add follow-up
// angles to the base query.
type Researcher struct {
	search Searcher
}

func NewResearcher(s Searcher) *Researcher { return &Researcher{search: s} }

func (r *Researcher) Name() string { return ResearcherName }

func (r *Researcher) queries(rc *research.RequestContext) []string {
	topic := strings.TrimSpace(rc.Topic)
	if !rc.IsDeep {
		return []string{topic}
	}
	return []string{
		topic,
		topic + " latest developments",
		topic + " analysis and statistics",
	}
}

// Execute runs every query in order. A failed follow-up query is logged and
// skipped; the stage fails only when no query succeeds. rc is only written
// once the stage is known to succeed.
func (r *Researcher) Execute(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	if strings.TrimSpace(rc.Topic) == "" {
		return nil, ErrEmptyTopic
	}
	l := log.With().Str("request_id", rc.RequestID).Str("stage", ResearcherName).Logger()

	merged := &research.SearchResults{}
	if prev := rc.SearchResults; prev != nil {
		merged.Answer = prev.Answer
		merged.Results = append([]research.SearchHit(nil), prev.Results...)
		merged.Images = append([]string(nil), prev.Images...)
	}
	sources := append([]research.Source(nil), rc.Sources...)
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		seen[s.URI] = struct{}{}
	}
	var gathered []string

	var lastErr error
	succeeded := 0
	for _, q := range r.queries(rc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.Info().Str("query", q).Msg("searching")
		res, err := r.search.Search(ctx, q)
		if err != nil {
			l.Warn().Err(err).Str("query", q).Msg("search failed")
			lastErr = err
			continue
		}
		succeeded++

		if text := formatResults(res); text != "" {
			gathered = append(gathered, text)
		}
		if merged.Answer == "" {
			merged.Answer = res.Answer
		}
		merged.Results = append(merged.Results, res.Results...)
		merged.Images = research.MergeImages(merged.Images, res.Images)

		for _, hit := range res.Results {
			if hit.URL == "" {
				continue
			}
			if _, ok := seen[hit.URL]; ok {
				continue
			}
			seen[hit.URL] = struct{}{}
			sources = append(sources, research.Source{Title: hit.Title, URI: hit.URL})
		}
		if len(sources) >= maxUniqueSources {
			sources = sources[:maxUniqueSources]
			break
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("all searches failed: %w", lastErr)
	}

	for _, text := range gathered {
		rc.AppendContext(text)
	}
	rc.Sources = sources
	rc.SearchResults = merged
	l.Info().Int("sources", len(rc.Sources)).Int("images", len(merged.Images)).Int("context_chars", len(rc.Context)).Msg("research gathered")
	return rc, nil
}

func formatResults(res *research.SearchResults) string {
	var b strings.Builder
	b.WriteString(res.Answer)
	for _, hit := range res.Results {
		fmt.Fprintf(&b, "\nTitle: %s\nContent: %s\n", hit.Title, hit.Content)
	}
	return strings.TrimSpace(b.String())
}

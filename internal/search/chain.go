package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/config"
	mpkg "github.com/local/jarvis/internal/metrics"
	"github.com/local/jarvis/internal/research"
)

// ErrNoBackends is returned when no search backend is usable.
var ErrNoBackends = errors.New("no web search backend configured")

// Backend is one web search service.
type Backend interface {
	Name() string
	Configured() bool
	Search(ctx context.Context, query string) (*research.SearchResults, error)
}

// Chain tries its backends in order and returns the first successful result.
type Chain struct {
	backends []Backend
}

// NewChain keeps the configured backends, preserving order.
func NewChain(backends ...Backend) *Chain {
	c := &Chain{}
	for _, b := range backends {
		if b != nil && b.Configured() {
			c.backends = append(c.backends, b)
		}
	}
	return c
}

// Build assembles the chain named by cfg.Order. Unknown names are logged and
// skipped.
func Build(cfg config.SearchConfig, gemini config.GeminiConfig) *Chain {
	var backends []Backend
	for _, name := range cfg.Order {
		switch name {
		case GeminiBackend:
			backends = append(backends, NewGeminiGrounding(gemini, cfg.Timeout))
		case TavilyBackend:
			backends = append(backends, NewTavily(cfg))
		case DuckDuckGoBackend:
			backends = append(backends, NewDuckDuckGo(cfg))
		default:
			log.Warn().Str("backend", name).Msg("unknown search backend - ignoring")
		}
	}
	return NewChain(backends...)
}

// Names lists the usable backends in try order.
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		out = append(out, b.Name())
	}
	return out
}

func (c *Chain) Configured() bool { return len(c.backends) > 0 }

// Search fails only when no backend is usable, when ctx is done, or when every
// backend failed.
func (c *Chain) Search(ctx context.Context, query string) (*research.SearchResults, error) {
	if len(c.backends) == 0 {
		return nil, ErrNoBackends
	}
	var errs []error
	for i, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search aborted before %s: %w", b.Name(), err)
		}
		start := time.Now()
		res, err := b.Search(ctx, query)
		if err == nil {
			mpkg.ObserveSearch(b.Name(), true)
			log.Debug().Str("backend", b.Name()).Dur("duration", time.Since(start)).Msg("search backend answered")
			return res, nil
		}
		mpkg.ObserveSearch(b.Name(), false)
		log.Warn().
			Err(err).
			Str("backend", b.Name()).
			Str("query", query).
			Msgf("search backend failed [%d/%d] - trying next", i+1, len(c.backends))
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return nil, fmt.Errorf("all search backends failed: %w", errors.Join(errs...))
}

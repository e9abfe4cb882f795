package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	mpkg "github.com/local/jarvis/internal/metrics"
)

const (
	// DefaultTimeout bounds every single provider attempt.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 8 << 20
	maxErrorBody     = 512
)

// Generator walks the provider chain: first successful attempt wins, and an
// exhausted chain yields the synthetic fallback instead of an error.
type Generator struct {
	providers Builder
	http      *http.Client
	timeout   time.Duration
}

type Option func(*Generator)

// WithHTTPClient replaces the default client (tests, proxies).
func WithHTTPClient(c *http.Client) Option { return func(g *Generator) { g.http = c } }

// WithTimeout sets the per-attempt timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func NewGenerator(providers Builder, opts ...Option) *Generator {
	g := &Generator{providers: providers, http: &http.Client{}, timeout: DefaultTimeout}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Timeout returns the per-attempt timeout.
func (g *Generator) Timeout() time.Duration { return g.timeout }

// Generate tries each configured provider once, in order. It fails only when
// nothing is configured (ErrNoProviders) or when ctx itself is done; provider
// failures are logged and skipped.
func (g *Generator) Generate(ctx context.Context, prompt, system string, longForm bool) (Result, error) {
	specs := g.providers.Build(Prompt{Text: prompt, System: system, LongForm: longForm})
	if len(specs) == 0 {
		log.Error().Msg("no LLM providers configured")
		return Result{}, ErrNoProviders
	}

	var lastErr error
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("generation aborted before %s: %w", spec.Name, err)
		}

		log.Info().
			Str("provider", spec.Name).
			Bool("long_form", longForm).
			Msgf("trying LLM provider [%d/%d]", i+1, len(specs))

		start := time.Now()
		text, err := g.Call(ctx, spec)
		dur := time.Since(start)

		if err == nil {
			mpkg.ObserveAttempt(spec.Name, "success", dur)
			log.Info().Str("provider", spec.Name).Dur("duration", dur).Msg("generated content")
			return Result{Content: text, Provider: spec.Name}, nil
		}

		attemptErr := &AttemptError{Provider: spec.Name, Kind: Classify(err), Timeout: isTimeout(err), Err: err}
		mpkg.ObserveAttempt(spec.Name, string(attemptErr.Kind), dur)
		log.Warn().
			Err(err).
			Str("provider", spec.Name).
			Str("failure", string(attemptErr.Kind)).
			Bool("timeout", attemptErr.Timeout).
			Dur("duration", dur).
			Msg("LLM provider failed - trying next")
		lastErr = attemptErr
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("generation aborted: %w", err)
	}

	// TODO: a quota failure could park that provider for a cooldown window;
	// today it is only tagged in logs and metrics.
	mpkg.IncFallback()
	log.Warn().Err(lastErr).Int("attempts", len(specs)).Msg("all LLM providers failed - returning fallback response")
	return Result{Content: FallbackContent(prompt), Provider: FallbackProvider}, nil
}

// Call performs a single attempt against spec, bounded by the per-attempt
// timeout. A 2xx response that the spec's parser accepts is a success.
func (g *Generator) Call(ctx context.Context, spec Spec) (string, error) {
	body, err := json.Marshal(spec.Payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", spec.Name, err)
	}

	actx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, spec.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", spec.Name, err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		if actx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s request timed out after %s: %w", spec.Name, g.timeout, context.DeadlineExceeded)
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if actx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s response timed out after %s: %w", spec.Name, g.timeout, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("read %s response: %w", spec.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody), Provider: spec.Name}
	}

	text, err := spec.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s response: %w", spec.Name, err)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

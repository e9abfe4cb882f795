package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/research"
)

// Assistant answers a direct question with one generation call.
type Assistant struct {
	gen Generator
}

func NewAssistant(g Generator) *Assistant { return &Assistant{gen: g} }

func (a *Assistant) Name() string { return AssistantName }

func (a *Assistant) Execute(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	q := strings.TrimSpace(rc.Question)
	log.Info().Str("request_id", rc.RequestID).Str("stage", AssistantName).Int("question_chars", len(q)).Msg("answering question")

	res, err := a.gen.Generate(ctx, q, assistantSystemInstruction, false)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	rc.Report = res.Content
	rc.Provider = res.Provider
	rc.Sources = []research.Source{}
	rc.Images = []string{}
	return rc, nil
}

package agents

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/research"
)

// SourceStage normalizes the citation list.
type SourceStage struct{}

func NewSourceStage() *SourceStage { return &SourceStage{} }

func (s *SourceStage) Name() string { return SourceName }

func (s *SourceStage) Execute(_ context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	rc.Sources = research.DedupeSources(rc.Sources)
	log.Info().Str("request_id", rc.RequestID).Str("stage", SourceName).Int("sources", len(rc.Sources)).Msg("sources validated")
	return rc, nil
}

package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/research"
)

var (
	ErrReportTimeout = errors.New("report generation timed out, please try again later")
	ErrReportFailed  = errors.New("report generation failed")
)

// ReportStage writes the final report from the gathered context with a
// single generation call. Fallback between providers is the generator's job.
type ReportStage struct {
	gen Generator
}

func NewReportStage(g Generator) *ReportStage { return &ReportStage{gen: g} }

func (s *ReportStage) Name() string { return ReportName }

func (s *ReportStage) Execute(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	kind := "quick"
	if rc.IsDeep {
		kind = "deep"
	}
	l := log.With().Str("request_id", rc.RequestID).Str("stage", ReportName).Logger()
	l.Info().Str("topic", rc.Topic).Msgf("generating %s report", kind)

	start := time.Now()
	res, err := s.gen.Generate(ctx, ReportPrompt(rc.Topic, rc.Context, rc.IsDeep), reportSystemInstruction, true)
	if err != nil {
		if ai.IsTimeout(err) {
			l.Error().Err(err).Msg("report generation timed out")
			return nil, fmt.Errorf("%w: %w", ErrReportTimeout, err)
		}
		l.Error().Err(err).Msg("report generation failed")
		return nil, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}

	rc.Report = res.Content
	rc.Provider = res.Provider
	l.Info().Str("provider", res.Provider).Dur("duration", time.Since(start)).Int("chars", len(res.Content)).Msg("report generation completed")
	return rc, nil
}

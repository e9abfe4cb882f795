package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/config"
	"github.com/local/jarvis/internal/research"
)

// ErrPrimaryNotConfigured is returned when the document analyzer has no key.
var ErrPrimaryNotConfigured = errors.New("primary provider key missing for document analysis")

// DocumentAnalyzer sends the document inline to the primary provider, which
// reads it natively. It makes exactly one attempt.
type DocumentAnalyzer struct {
	cfg    config.GeminiConfig
	caller Caller
}

func NewDocumentAnalyzer(cfg config.GeminiConfig, c Caller) *DocumentAnalyzer {
	return &DocumentAnalyzer{cfg: cfg, caller: c}
}

func (d *DocumentAnalyzer) Name() string { return DocumentName }

func (d *DocumentAnalyzer) Execute(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	if d.cfg.APIKey == "" {
		return nil, ErrPrimaryNotConfigured
	}
	mimeType := documentMimeType(rc)
	spec := ai.GeminiDocumentSpec(d.cfg, ai.Prompt{
		Text:     DocumentPrompt(mimeType),
		System:   DocumentSystemInstruction,
		LongForm: true,
	}, mimeType, rc.FileBase64)

	log.Info().Str("request_id", rc.RequestID).Str("stage", DocumentName).Str("mime", mimeType).Msg("analyzing document via primary provider")
	text, err := d.caller.Call(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("document analysis via %s: %w", spec.Name, err)
	}

	rc.Report = text
	rc.Provider = spec.Name
	rc.Sources = []research.Source{research.UploadedDocumentSource}
	rc.Images = []string{}
	return rc, nil
}

func documentMimeType(rc *research.RequestContext) string {
	if rc.MimeType == "" {
		return "text/plain"
	}
	return rc.MimeType
}

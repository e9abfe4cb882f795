// Package agents holds the pipeline stages the orchestrator sequences. Each
// stage takes ownership of the RequestContext it is given and returns it.
package agents

import (
	"context"

	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/research"
)

// Generator is the content generation chain as stages see it.
type Generator interface {
	Generate(ctx context.Context, prompt, system string, longForm bool) (ai.Result, error)
}

// Caller performs one bounded provider attempt.
type Caller interface {
	Call(ctx context.Context, spec ai.Spec) (string, error)
}

// Searcher runs one web search query.
type Searcher interface {
	Search(ctx context.Context, query string) (*research.SearchResults, error)
}

const (
	maxUniqueSources = 10
	maxUniqueImages  = 10
)

// Stage names, used in logs, metrics and errors.
const (
	ResearcherName    = "Researcher"
	ImageName         = "Image"
	SourceName        = "Source"
	ReportName        = "Report"
	AssistantName     = "Assistant"
	DocumentName      = "DocumentAnalyzer"
	LocalDocumentName = "LocalDocumentAnalyzer"
)

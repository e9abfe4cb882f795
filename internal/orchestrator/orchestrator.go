package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/agents"
	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/archive"
	logpkg "github.com/local/jarvis/internal/logger"
	mpkg "github.com/local/jarvis/internal/metrics"
	"github.com/local/jarvis/internal/research"
	"github.com/local/jarvis/internal/statuscheck"
)

// Generator is the content generation chain, used directly by document mode
// and the raw generate endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt, system string, longForm bool) (ai.Result, error)
}

type Status struct {
	State     string
	Mode      string
	Message   string
	Provider  string
	ReportURL string
	Start     *time.Time
	End       *time.Time
}

type StatusStore interface {
	Set(ctx context.Context, requestID string, st Status) error
	Get(ctx context.Context, requestID string) (Status, bool, error)
}

// Archiver stores finished reports and returns their location.
type Archiver interface {
	Save(ctx context.Context, r archive.Report) (string, error)
}

// HealthReporter summarizes dependency readiness for /api/status.
type HealthReporter interface {
	Summary(ctx context.Context) statuscheck.Summary
}

// Stages are the collaborators each mode sequences.
type Stages struct {
	Researcher    research.Stage
	Image         research.Stage
	Source        research.Stage
	Report        research.Stage
	Assistant     research.Stage
	Document      research.Stage
	LocalDocument research.Stage
}

type Dependencies struct {
	Stages    Stages
	Generator Generator
	// optional
	Status         StatusStore
	Archive        Archiver
	Health         HealthReporter
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Error is returned when the selected mode fails. No partial result
// accompanies it.
type Error struct {
	RequestID string
	Mode      research.Mode
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("request %s (%s mode) failed: %v", e.RequestID, e.Mode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{deps: deps}
}

const documentGenerateStage = "DocumentGenerate"

// Run routes rc to one mode and returns the finished context. It takes
// ownership of rc; on failure the caller gets nil and an *Error.
func (o *Orchestrator) Run(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	if rc.RequestID == "" {
		rc.RequestID = uuid.NewString()
	}
	requestID := rc.RequestID
	mode := rc.Mode()
	l := logpkg.ForRequest(requestID).With().Str("mode", string(mode)).Logger()

	start := time.Now()
	l.Info().Msgf("starting %s workflow", mode)
	o.setStatus(ctx, requestID, Status{State: "processing", Mode: string(mode), Message: "processing", Start: &start})

	var (
		out *research.RequestContext
		err error
	)
	switch mode {
	case research.ModeQuestion:
		out, err = o.runStage(ctx, o.deps.Stages.Assistant, rc)
	case research.ModeDocument:
		out, err = o.runDocument(ctx, l, rc)
	default:
		out, err = o.runResearch(ctx, rc)
	}

	end := time.Now()
	if err != nil {
		l.Error().Err(err).Dur("duration", end.Sub(start)).Msg("workflow failed")
		mpkg.IncRequest(string(mode), "failure")
		o.setStatus(ctx, requestID, Status{State: "failed", Message: err.Error(), End: &end})
		return nil, &Error{RequestID: requestID, Mode: mode, Err: err}
	}

	mpkg.IncRequest(string(mode), "success")
	st := Status{State: "success", Message: "completed", Provider: out.Provider, End: &end}
	if loc := o.archive(ctx, l, mode, out); loc != "" {
		st.ReportURL = loc
	}
	o.setStatus(ctx, requestID, st)
	l.Info().Str("provider", out.Provider).Dur("duration", end.Sub(start)).Msg("workflow completed successfully")
	return out, nil
}

// runResearch sequences the four research stages. The first failure aborts.
func (o *Orchestrator) runResearch(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	s := o.deps.Stages
	for _, stage := range []research.Stage{s.Researcher, s.Image, s.Source, s.Report} {
		next, err := o.runStage(ctx, stage, rc)
		if err != nil {
			return nil, err
		}
		rc = next
	}
	return rc, nil
}

// runDocument tries the API analyzer, then one direct generation call, then
// the local analyzer, whose outcome is final. The generation call only fails
// without providers or when ctx is done; a fallback result is kept as the report.
func (o *Orchestrator) runDocument(ctx context.Context, l zerolog.Logger, rc *research.RequestContext) (*research.RequestContext, error) {
	out, err := o.runStage(ctx, o.deps.Stages.Document, rc)
	if err == nil {
		return out, nil
	}
	l.Warn().Err(err).Msg("API document analysis failed - trying direct generation")

	out, err = o.generateDocument(ctx, rc)
	if err == nil {
		return out, nil
	}
	l.Warn().Err(err).Msg("direct document generation failed - falling back to local analysis")

	return o.runStage(ctx, o.deps.Stages.LocalDocument, rc)
}

func (o *Orchestrator) generateDocument(ctx context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	if o.deps.Generator == nil {
		return nil, &research.StageError{Stage: documentGenerateStage, Err: ai.ErrNoProviders}
	}
	mimeType := rc.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}

	start := time.Now()
	res, err := o.deps.Generator.Generate(ctx, agents.DocumentPrompt(mimeType), agents.DocumentSystemInstruction, false)
	mpkg.ObserveStage(documentGenerateStage, err == nil, time.Since(start))
	if err != nil {
		return nil, &research.StageError{Stage: documentGenerateStage, Err: err}
	}
	if res.IsFallback() {
		log.Warn().Str("request_id", rc.RequestID).Msg("direct document generation answered with the fallback response")
	}

	rc.Report = res.Content
	rc.Provider = res.Provider
	rc.Images = []string{}
	rc.Sources = []research.Source{research.UploadedDocumentSource}
	return rc, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage research.Stage, rc *research.RequestContext) (*research.RequestContext, error) {
	if stage == nil {
		return nil, errors.New("stage not configured")
	}
	name := stage.Name()
	start := time.Now()
	out, err := stage.Execute(ctx, rc)
	if err == nil && out == nil {
		err = errors.New("stage returned no context")
	}
	dur := time.Since(start)
	mpkg.ObserveStage(name, err == nil, dur)
	if err != nil {
		return nil, &research.StageError{Stage: name, Err: err}
	}
	log.Debug().Str("request_id", out.RequestID).Str("stage", name).Dur("duration", dur).Msg("stage completed")
	return out, nil
}

func (o *Orchestrator) setStatus(ctx context.Context, requestID string, st Status) {
	if o.deps.Status == nil {
		return
	}
	if err := o.deps.Status.Set(context.WithoutCancel(ctx), requestID, st); err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("status update failed")
	}
}

func (o *Orchestrator) archive(ctx context.Context, l zerolog.Logger, mode research.Mode, rc *research.RequestContext) string {
	if o.deps.Archive == nil || rc.Report == "" {
		return ""
	}
	loc, err := o.deps.Archive.Save(context.WithoutCancel(ctx), archive.Report{
		RequestID: rc.RequestID,
		Mode:      string(mode),
		Topic:     rc.Topic,
		Provider:  rc.Provider,
		Body:      rc.Report,
	})
	if err != nil {
		l.Warn().Err(err).Msg("report archive failed")
		return ""
	}
	return loc
}

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/jarvis/internal/agents"
	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/archive"
	mpkg "github.com/local/jarvis/internal/metrics"
	"github.com/local/jarvis/internal/research"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeStage struct {
	name string
	log  *callLog
	err  error
	fn   func(rc *research.RequestContext)
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Execute(_ context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	s.log.add(s.name)
	if s.err != nil {
		return nil, s.err
	}
	if s.fn != nil {
		s.fn(rc)
	}
	return rc, nil
}

type fakeGenerator struct {
	log    *callLog
	result ai.Result
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt, _ string, _ bool) (ai.Result, error) {
	g.log.add("Generate")
	g.prompt = prompt
	return g.result, g.err
}

type harness struct {
	log       *callLog
	stages    map[string]*fakeStage
	generator *fakeGenerator
}

func newHarness() *harness {
	l := &callLog{}
	h := &harness{log: l, stages: map[string]*fakeStage{}, generator: &fakeGenerator{log: l, result: ai.Result{Content: "generated", Provider: ai.GroqName}}}
	for _, name := range []string{
		agents.ResearcherName, agents.ImageName, agents.SourceName, agents.ReportName,
		agents.AssistantName, agents.DocumentName, agents.LocalDocumentName,
	} {
		h.stages[name] = &fakeStage{name: name, log: l, fn: func(rc *research.RequestContext) {
			rc.Report = "report from " + name
			rc.Provider = name
		}}
	}
	return h
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Stages: Stages{
			Researcher:    h.stages[agents.ResearcherName],
			Image:         h.stages[agents.ImageName],
			Source:        h.stages[agents.SourceName],
			Report:        h.stages[agents.ReportName],
			Assistant:     h.stages[agents.AssistantName],
			Document:      h.stages[agents.DocumentName],
			LocalDocument: h.stages[agents.LocalDocumentName],
		},
		Generator: h.generator,
	}
}

func TestRunQuestionUsesAssistantOnly(t *testing.T) {
	h := newHarness()
	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{Question: "why?", FileBase64: "eA==", Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.AssistantName}, h.log.list())
	assert.Equal(t, "report from Assistant", out.Report)
	assert.NotEmpty(t, out.RequestID)
}

func TestRunResearchSequencesFourStages(t *testing.T) {
	h := newHarness()
	before := testutil.ToFloat64(mpkg.RequestCounter("research", "success"))
	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{Topic: "batteries"})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.ResearcherName, agents.ImageName, agents.SourceName, agents.ReportName}, h.log.list())
	assert.Equal(t, "report from Report", out.Report)
	assert.Equal(t, before+1, testutil.ToFloat64(mpkg.RequestCounter("research", "success")))
}

func TestRunResearchAbortsOnStageFailure(t *testing.T) {
	h := newHarness()
	cause := errors.New("image service down")
	h.stages[agents.ImageName].err = cause

	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{RequestID: "req-1", Topic: "t"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, []string{agents.ResearcherName, agents.ImageName}, h.log.list())

	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "req-1", oe.RequestID)
	assert.Equal(t, research.ModeResearch, oe.Mode)
	var se *research.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, agents.ImageName, se.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestRunDocumentTierOneWins(t *testing.T) {
	h := newHarness()
	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{FileBase64: "eA=="})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.DocumentName}, h.log.list())
	assert.Equal(t, "report from DocumentAnalyzer", out.Report)
}

func TestRunDocumentFallsBackToDirectGeneration(t *testing.T) {
	h := newHarness()
	h.stages[agents.DocumentName].err = errors.New("gemini 500")

	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{FileBase64: "eA==", MimeType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.DocumentName, "Generate"}, h.log.list())
	assert.Equal(t, "generated", out.Report)
	assert.Equal(t, ai.GroqName, out.Provider)
	assert.Equal(t, []research.Source{research.UploadedDocumentSource}, out.Sources)
	assert.Equal(t, []string{}, out.Images)
	assert.Contains(t, h.generator.prompt, "MIME type: application/pdf")
}

func TestRunDocumentFallsBackToLocal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no providers", ai.ErrNoProviders},
		{"deadline", context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.stages[agents.DocumentName].err = errors.New("gemini down")
			h.generator.err = tt.err

			out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{FileBase64: "eA=="})
			require.NoError(t, err)
			assert.Equal(t, []string{agents.DocumentName, "Generate", agents.LocalDocumentName}, h.log.list())
			assert.Equal(t, "report from LocalDocumentAnalyzer", out.Report)
		})
	}
}

func TestRunDocumentKeepsFallbackReport(t *testing.T) {
	h := newHarness()
	h.stages[agents.DocumentName].err = errors.New("gemini down")
	apology := ai.FallbackContent("analyze this")
	h.generator.result = ai.Result{Content: apology, Provider: ai.FallbackProvider}

	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{FileBase64: "eA=="})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.DocumentName, "Generate"}, h.log.list())
	assert.Equal(t, apology, out.Report)
	assert.Equal(t, ai.FallbackProvider, out.Provider)
	assert.Equal(t, []research.Source{research.UploadedDocumentSource}, out.Sources)
}

func TestRunDocumentLocalFailurePropagates(t *testing.T) {
	h := newHarness()
	h.stages[agents.DocumentName].err = errors.New("gemini down")
	h.generator.err = errors.New("chain broken")
	localErr := errors.New("unreadable")
	h.stages[agents.LocalDocumentName].err = localErr

	out, err := New(h.deps()).Run(context.Background(), &research.RequestContext{FileBase64: "eA=="})
	assert.Nil(t, out)
	require.ErrorIs(t, err, localErr)
	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, research.ModeDocument, oe.Mode)
}

type memStatus struct {
	mu      sync.Mutex
	history []Status
	last    map[string]Status
}

func (m *memStatus) Set(_ context.Context, id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = map[string]Status{}
	}
	m.history = append(m.history, st)
	m.last[id] = st
	return nil
}

func (m *memStatus) Get(_ context.Context, id string) (Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.last[id]
	return st, ok, nil
}

type memArchive struct {
	saved []archive.Report
	err   error
}

func (m *memArchive) Save(_ context.Context, r archive.Report) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, r)
	return "s3://bucket/" + r.RequestID + ".md", nil
}

func TestRunRecordsStatusAndArchives(t *testing.T) {
	h := newHarness()
	st := &memStatus{}
	arc := &memArchive{}
	deps := h.deps()
	deps.Status = st
	deps.Archive = arc

	_, err := New(deps).Run(context.Background(), &research.RequestContext{RequestID: "r9", Topic: "t"})
	require.NoError(t, err)

	require.Len(t, st.history, 2)
	assert.Equal(t, "processing", st.history[0].State)
	assert.Equal(t, "research", st.history[0].Mode)
	assert.Equal(t, "success", st.history[1].State)
	assert.Equal(t, "s3://bucket/r9.md", st.history[1].ReportURL)
	require.Len(t, arc.saved, 1)
	assert.Equal(t, "report from Report", arc.saved[0].Body)
}

func TestRunArchiveFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness()
	st := &memStatus{}
	deps := h.deps()
	deps.Status = st
	deps.Archive = &memArchive{err: errors.New("denied")}

	out, err := New(deps).Run(context.Background(), &research.RequestContext{RequestID: "r10", Question: "q"})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, "success", st.last["r10"].State)
	assert.Empty(t, st.last["r10"].ReportURL)
}

func TestRunFailureRecordsStatus(t *testing.T) {
	h := newHarness()
	h.stages[agents.AssistantName].err = ai.ErrNoProviders
	st := &memStatus{}
	deps := h.deps()
	deps.Status = st

	_, err := New(deps).Run(context.Background(), &research.RequestContext{RequestID: "r11", Question: "q"})
	require.ErrorIs(t, err, ai.ErrNoProviders)
	assert.Equal(t, "failed", st.last["r11"].State)
	assert.Contains(t, st.last["r11"].Message, "no API keys configured")
}

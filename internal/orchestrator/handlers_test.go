package orchestrator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/jarvis/internal/agents"
	"github.com/local/jarvis/internal/ai"
	"github.com/local/jarvis/internal/research"
	"github.com/local/jarvis/internal/statuscheck"
)

func newServer(t *testing.T, deps Dependencies) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(deps).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHandleResearch(t *testing.T) {
	h := newHarness()
	h.stages[agents.ImageName].fn = func(rc *research.RequestContext) { rc.Images = []string{"https://i.png"} }
	srv := newServer(t, h.deps())

	resp := postJSON(t, srv.URL+"/api/research", map[string]any{"topic": "graphene", "is_deep": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[resultResp](t, resp)
	assert.Equal(t, research.ModeResearch, got.Mode)
	assert.Equal(t, "report from Report", got.Report)
	assert.Equal(t, []string{"https://i.png"}, got.Images)
	assert.Equal(t, []research.Source{}, got.Sources)
	assert.NotEmpty(t, got.RequestID)
}

func TestHandleBadInput(t *testing.T) {
	srv := newServer(t, newHarness().deps())
	tests := []struct {
		path string
		body any
	}{
		{"/api/research", map[string]any{"topic": "  "}},
		{"/api/ask", map[string]any{}},
		{"/api/analyze", map[string]any{"mime_type": "text/plain"}},
		{"/api/generate", map[string]any{"system_instruction": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := postJSON(t, srv.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	get, err := http.Get(srv.URL + "/api/research")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestHandleAskNoProviders(t *testing.T) {
	h := newHarness()
	h.stages[agents.AssistantName].err = ai.ErrNoProviders
	srv := newServer(t, h.deps())

	resp := postJSON(t, srv.URL+"/api/ask", map[string]any{"question": "hello?"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	got := decode[errorResp](t, resp)
	assert.Contains(t, got.Error, "no API keys configured")
	assert.NotEmpty(t, got.RequestID)
}

func TestHandleResearchStageFailure(t *testing.T) {
	h := newHarness()
	h.stages[agents.ReportName].err = agents.ErrReportFailed
	srv := newServer(t, h.deps())

	resp := postJSON(t, srv.URL+"/api/research", map[string]any{"topic": "t"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode[errorResp](t, resp).Error, "report generation failed")
}

func TestHandleAnalyzeMultipart(t *testing.T) {
	h := newHarness()
	var seen *research.RequestContext
	h.stages[agents.DocumentName].fn = func(rc *research.RequestContext) {
		seen = rc
		rc.Report = "doc summary"
	}
	srv := newServer(t, h.deps())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("plain notes"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/analyze", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "doc summary", decode[resultResp](t, resp).Report)

	require.NotNil(t, seen)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("plain notes")), seen.FileBase64)
	assert.Equal(t, "text/plain", seen.MimeType)
}

func TestHandleAnalyzeJSON(t *testing.T) {
	h := newHarness()
	srv := newServer(t, h.deps())
	resp := postJSON(t, srv.URL+"/api/analyze", analyzeReq{FileBase64: "eA==", MimeType: "text/plain"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, research.ModeDocument, decode[resultResp](t, resp).Mode)
}

func TestHandleGenerate(t *testing.T) {
	h := newHarness()
	srv := newServer(t, h.deps())

	resp := postJSON(t, srv.URL+"/api/generate", generateReq{Prompt: "write", IsReport: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[ai.Result](t, resp)
	assert.Equal(t, ai.Result{Content: "generated", Provider: ai.GroqName}, got)

	h.generator.err = ai.ErrNoProviders
	resp = postJSON(t, srv.URL+"/api/generate", generateReq{Prompt: "write"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleRequestStatus(t *testing.T) {
	h := newHarness()
	st := &memStatus{}
	deps := h.deps()
	deps.Status = st
	require.NoError(t, st.Set(context.Background(), "abc", Status{State: "success", Mode: "question", Provider: "Groq"}))
	srv := newServer(t, deps)

	resp, err := http.Get(srv.URL + "/api/requests/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[requestStatusResp](t, resp)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "Groq", got.Provider)

	missing, err := http.Get(srv.URL + "/api/requests/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHandleRequestStatusDisabled(t *testing.T) {
	srv := newServer(t, newHarness().deps())
	resp, err := http.Get(srv.URL + "/api/requests/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

type staticHealth statuscheck.Summary

func (s staticHealth) Summary(context.Context) statuscheck.Summary { return statuscheck.Summary(s) }

func TestHandleHealthAndStatus(t *testing.T) {
	deps := newHarness().deps()
	deps.Health = staticHealth{Redis: statuscheck.Status{OK: true, Message: "Connected"}}
	srv := newServer(t, deps)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer status.Body.Close()
	require.Equal(t, http.StatusOK, status.StatusCode)
	assert.True(t, decode[statuscheck.Summary](t, status).Redis.OK)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

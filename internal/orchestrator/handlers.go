package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/ai"
	mpkg "github.com/local/jarvis/internal/metrics"
	"github.com/local/jarvis/internal/research"
)

const defaultMaxUpload = 20 << 20

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", mpkg.Handler())
	mux.HandleFunc("/api/status", o.handleStatus)
	mux.HandleFunc("/api/research", o.handleResearch)
	mux.HandleFunc("/api/ask", o.handleAsk)
	mux.HandleFunc("/api/analyze", o.handleAnalyze)
	mux.HandleFunc("/api/generate", o.handleGenerate)
	mux.HandleFunc("/api/requests/", o.handleRequestStatus)
}

type researchReq struct {
	Topic  string `json:"topic"`
	IsDeep bool   `json:"is_deep"`
}

type askReq struct {
	Question string `json:"question"`
}

type analyzeReq struct {
	FileBase64 string `json:"file_base64"`
	MimeType   string `json:"mime_type"`
}

type generateReq struct {
	Prompt            string `json:"prompt"`
	SystemInstruction string `json:"system_instruction"`
	IsReport          bool   `json:"is_report"`
}

type resultResp struct {
	RequestID string            `json:"request_id"`
	Mode      research.Mode     `json:"mode"`
	Report    string            `json:"report"`
	Provider  string            `json:"provider,omitempty"`
	Sources   []research.Source `json:"sources"`
	Images    []string          `json:"images"`
}

type errorResp struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (o *Orchestrator) handleResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req researchReq
	if !decodeJSON(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeError(w, http.StatusBadRequest, "missing topic", "")
		return
	}
	o.run(w, r, &research.RequestContext{Topic: topic, IsDeep: req.IsDeep})
}

func (o *Orchestrator) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req askReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "missing question", "")
		return
	}
	o.run(w, r, &research.RequestContext{Question: req.Question})
}

// handleAnalyze accepts either JSON with a base64 payload or a multipart
// upload in field "file".
func (o *Orchestrator) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := o.deps.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	// base64 inflates by 4/3
	r.Body = http.MaxBytesReader(w, r.Body, limit*4/3+4096)

	var req analyzeReq
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(limit); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form", "")
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file", "")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read file", "")
			return
		}
		if int64(len(data)) > limit {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", "")
			return
		}
		req.FileBase64 = base64.StdEncoding.EncodeToString(data)
		req.MimeType = hdr.Header.Get("Content-Type")
		if req.MimeType == "" || req.MimeType == "application/octet-stream" {
			req.MimeType = strings.SplitN(mimetype.Detect(data).String(), ";", 2)[0]
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.FileBase64) == "" {
		writeError(w, http.StatusBadRequest, "missing file_base64", "")
		return
	}
	o.run(w, r, &research.RequestContext{FileBase64: req.FileBase64, MimeType: req.MimeType})
}

func (o *Orchestrator) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req generateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "missing prompt", "")
		return
	}
	if o.deps.Generator == nil {
		writeError(w, http.StatusServiceUnavailable, ai.ErrNoProviders.Error(), "")
		return
	}
	ctx, cancel := o.requestContext(r)
	defer cancel()
	res, err := o.deps.Generator.Generate(ctx, req.Prompt, req.SystemInstruction, req.IsReport)
	if err != nil {
		writeError(w, statusFor(err), err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if o.deps.Health == nil {
		writeError(w, http.StatusServiceUnavailable, "status checks unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, o.deps.Health.Summary(r.Context()))
}

type requestStatusResp struct {
	RequestID string     `json:"request_id"`
	Status    string     `json:"status"`
	Mode      string     `json:"mode,omitempty"`
	Message   string     `json:"message,omitempty"`
	Provider  string     `json:"provider,omitempty"`
	ReportURL string     `json:"report_url,omitempty"`
	Start     *time.Time `json:"start_time,omitempty"`
	End       *time.Time `json:"end_time,omitempty"`
}

func (o *Orchestrator) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/requests/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing request id", "")
		return
	}
	if o.deps.Status == nil {
		writeError(w, http.StatusServiceUnavailable, "status tracking disabled", id)
		return
	}
	st, ok, err := o.deps.Status.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("request_id", id).Msg("status lookup failed")
		writeError(w, http.StatusInternalServerError, "status lookup failed", id)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "request not found", id)
		return
	}
	writeJSON(w, http.StatusOK, requestStatusResp{
		RequestID: id,
		Status:    st.State,
		Mode:      st.Mode,
		Message:   st.Message,
		Provider:  st.Provider,
		ReportURL: st.ReportURL,
		Start:     st.Start,
		End:       st.End,
	})
}

func (o *Orchestrator) run(w http.ResponseWriter, r *http.Request, rc *research.RequestContext) {
	rc.RequestID = uuid.NewString()
	ctx, cancel := o.requestContext(r)
	defer cancel()

	out, err := o.Run(ctx, rc)
	if err != nil {
		var oe *Error
		requestID := ""
		if errors.As(err, &oe) {
			requestID = oe.RequestID
		}
		writeError(w, statusFor(err), err.Error(), requestID)
		return
	}
	writeJSON(w, http.StatusOK, resultResp{
		RequestID: out.RequestID,
		Mode:      out.Mode(),
		Report:    out.Report,
		Provider:  out.Provider,
		Sources:   nonNilSources(out.Sources),
		Images:    nonNilImages(out.Images),
	})
}

func (o *Orchestrator) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if o.deps.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), o.deps.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ai.ErrNoProviders):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, requestID string) {
	writeJSON(w, status, errorResp{Error: msg, RequestID: requestID})
}

func nonNilSources(s []research.Source) []research.Source {
	if s == nil {
		return []research.Source{}
	}
	return s
}

func nonNilImages(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package research

// Mode is the execution route chosen for a request.
type Mode string

const (
	ModeQuestion Mode = "question"
	ModeDocument Mode = "document"
	ModeResearch Mode = "research"
)

// Source is a reference cited by a report.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// UploadedDocumentSource is the single placeholder source on document-mode results.
var UploadedDocumentSource = Source{Title: "Uploaded Document", URI: "#local-file"}

// SearchHit is one result row from the web search backend.
type SearchHit struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// SearchResults is the raw payload kept for stages that run after the researcher.
type SearchResults struct {
	Answer  string      `json:"answer,omitempty"`
	Results []SearchHit `json:"results,omitempty"`
	Images  []string    `json:"images,omitempty"`
}

// RequestContext is the per-request record threaded through the pipeline.
// Exactly one stage holds it at a time; a stage receives it, may mutate it and
// hands it back. Callers must use the returned pointer and drop the one they
// passed in.
type RequestContext struct {
	RequestID string `json:"request_id"`

	// inputs
	Topic      string `json:"topic,omitempty"`
	IsDeep     bool   `json:"is_deep"`
	Question   string `json:"question,omitempty"`
	FileBase64 string `json:"-"`
	MimeType   string `json:"mime_type,omitempty"`

	// accumulated by stages
	Context       string         `json:"-"`
	SearchResults *SearchResults `json:"-"`
	Report        string         `json:"report"`
	Provider      string         `json:"provider,omitempty"`
	Sources       []Source       `json:"sources"`
	Images        []string       `json:"images"`
}

// Mode selects the route by which optional field is present, checked in
// priority order: question, then document payload, else research.
func (r *RequestContext) Mode() Mode {
	switch {
	case r.Question != "":
		return ModeQuestion
	case r.FileBase64 != "":
		return ModeDocument
	default:
		return ModeResearch
	}
}

// AppendContext adds a block of gathered text, separated from earlier blocks
// by a blank line.
func (r *RequestContext) AppendContext(text string) {
	if text == "" {
		return
	}
	if r.Context != "" {
		r.Context += "\n\n"
	}
	r.Context += text
}

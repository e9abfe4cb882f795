package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind says how the local analyzer can read a document.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindPDF
)

// Info contains detected file type information
type Info struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// DetectBytes sniffs the payload. The declared MIME type from the client is
// only used when the content itself is ambiguous (plain text or generic
// binary), since browsers often send application/octet-stream.
func (d *Detector) DetectBytes(data []byte, declared string) *Info {
	mtype := mimetype.Detect(data)
	mimeType := mtype.String()
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	declared = strings.ToLower(strings.TrimSpace(declared))

	log.Debug().Str("mime", mimeType).Str("declared", declared).Int("bytes", len(data)).Msg("detected file type")

	if mimeType == "application/octet-stream" || mimeType == "text/plain" {
		if strings.HasPrefix(declared, "text/") || isTextual(declared) {
			mimeType = declared
		}
	}

	info := &Info{MIMEType: mimeType, Extension: mtype.Extension()}
	d.classify(info)
	return info
}

// classify determines how the document can be read
func (d *Detector) classify(info *Info) {
	mimeType := info.MIMEType

	switch {
	case mimeType == "application/pdf":
		info.Kind = KindPDF
		info.Description = "PDF document"

	case mimeType == "text/html":
		info.Kind = KindText
		info.Description = "HTML document"

	case mimeType == "text/markdown":
		info.Kind = KindText
		info.Description = "Markdown document"

	case mimeType == "text/csv":
		info.Kind = KindText
		info.Description = "CSV document"

	case strings.HasPrefix(mimeType, "text/"):
		info.Kind = KindText
		info.Description = "Plain text file"

	case mimeType == "application/xml":
		info.Kind = KindText
		info.Description = "XML document"

	case mimeType == "application/json":
		info.Kind = KindText
		info.Description = "JSON document"

	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = KindUnsupported
		info.Description = "Image file"

	default:
		info.Kind = KindUnsupported
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

func isTextual(mimeType string) bool {
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	}
	return false
}

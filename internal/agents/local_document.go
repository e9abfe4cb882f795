package agents

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/filetype"
	"github.com/local/jarvis/internal/pdftext"
	"github.com/local/jarvis/internal/research"
)

// LocalProvider tags reports produced without any network provider.
const LocalProvider = "Local Analyzer"

var (
	ErrEmptyDocument       = errors.New("document is empty")
	ErrUnsupportedDocument = errors.New("document type cannot be analyzed locally")
)

// PDFExtractor reads text from an in-memory PDF.
type PDFExtractor interface {
	Extract(data []byte) (*pdftext.Document, error)
}

// LocalDocumentAnalyzer summarizes a document on this host. It never calls a
// provider, so it is the last resort of document mode.
type LocalDocumentAnalyzer struct {
	detector *filetype.Detector
	pdf      PDFExtractor
}

func NewLocalDocumentAnalyzer(d *filetype.Detector, pdf PDFExtractor) *LocalDocumentAnalyzer {
	return &LocalDocumentAnalyzer{detector: d, pdf: pdf}
}

func (a *LocalDocumentAnalyzer) Name() string { return LocalDocumentName }

func (a *LocalDocumentAnalyzer) Execute(_ context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	data, err := DecodeDocument(rc.FileBase64)
	if err != nil {
		return nil, err
	}
	info := a.detector.DetectBytes(data, rc.MimeType)
	l := log.With().Str("request_id", rc.RequestID).Str("stage", LocalDocumentName).Str("mime", info.MIMEType).Logger()

	var (
		text  string
		pages int
	)
	switch info.Kind {
	case filetype.KindText:
		text = string(data)
		if info.MIMEType == "text/html" {
			text = stripTags(text)
		}
	case filetype.KindPDF:
		doc, err := a.pdf.Extract(data)
		if err != nil {
			return nil, fmt.Errorf("extract pdf text: %w", err)
		}
		text, pages = doc.Text, doc.Pages
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, info.Description)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	rc.Report = summarize(text, info, pages)
	rc.Provider = LocalProvider
	rc.Sources = []research.Source{research.UploadedDocumentSource}
	rc.Images = []string{}
	l.Info().Int("chars", len(text)).Int("pages", pages).Msg("local document analysis completed")
	return rc, nil
}

// DecodeDocument accepts raw standard base64 or a data: URL.
func DecodeDocument(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	if encoded == "" {
		return nil, ErrEmptyDocument
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	return data, nil
}

var (
	tagPattern      = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]+>`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]`)
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}']+`)
)

func stripTags(s string) string { return tagPattern.ReplaceAllString(s, " ") }

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "were": {},
	"which": {}, "their": {}, "there": {}, "been": {}, "will": {}, "would": {}, "about": {},
	"into": {}, "they": {}, "them": {}, "than": {}, "these": {}, "also": {}, "such": {}, "more": {},
}

const (
	keySentenceCount = 5
	openingParas     = 2
	maxParaChars     = 600
	wordsPerMinute   = 200
)

// summarize builds an extractive Markdown overview: document stats, the
// opening paragraphs and the highest scoring sentences in original order.
func summarize(text string, info *filetype.Info, pages int) string {
	words := wordPattern.FindAllString(text, -1)

	var b strings.Builder
	b.WriteString("# Document Analysis\n\n## Overview\n")
	fmt.Fprintf(&b, "- **Type:** %s (%s)\n", info.Description, info.MIMEType)
	if pages > 0 {
		fmt.Fprintf(&b, "- **Pages:** %d\n", pages)
	}
	fmt.Fprintf(&b, "- **Words:** %d\n", len(words))
	fmt.Fprintf(&b, "- **Characters:** %d\n", len(text))
	minutes := (len(words) + wordsPerMinute - 1) / wordsPerMinute
	fmt.Fprintf(&b, "- **Estimated reading time:** %d min\n", minutes)

	if paras := leadingParagraphs(text, openingParas); len(paras) > 0 {
		b.WriteString("\n## Opening\n")
		for _, p := range paras {
			b.WriteString("\n" + p + "\n")
		}
	}

	if key := keySentences(text, words, keySentenceCount); len(key) > 0 {
		b.WriteString("\n## Key Sentences\n")
		for _, s := range key {
			b.WriteString("- " + s + "\n")
		}
	}

	b.WriteString("\n_Generated locally because no AI provider could analyze the document._\n")
	return b.String()
}

func leadingParagraphs(text string, n int) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		if len(p) > maxParaChars {
			p = strings.TrimSpace(p[:maxParaChars]) + "..."
		}
		out = append(out, p)
		if len(out) == n {
			break
		}
	}
	return out
}

// keySentences scores sentences by the mean document frequency of their
// content words.
func keySentences(text string, words []string, n int) []string {
	freq := make(map[string]int, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		freq[w]++
	}

	type scored struct {
		idx   int
		text  string
		score float64
	}
	var all []scored
	seen := map[string]struct{}{}
	for i, s := range sentencePattern.FindAllString(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if len(s) < 20 {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		total, count := 0, 0
		for _, w := range wordPattern.FindAllString(s, -1) {
			if f, ok := freq[strings.ToLower(w)]; ok {
				total += f
				count++
			}
		}
		if count == 0 {
			continue
		}
		all = append(all, scored{idx: i, text: s, score: float64(total) / float64(count)})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > n {
		all = all[:n]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].idx < all[j].idx })

	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.text
	}
	return out
}

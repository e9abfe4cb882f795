package pdftext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Extractor pulls text out of in-memory PDFs with go-fitz (MuPDF bindings,
// no external tools needed).
type Extractor struct {
	maxPages int
}

// New returns an extractor that reads at most maxPages pages (0 = all).
func New(maxPages int) *Extractor {
	return &Extractor{maxPages: maxPages}
}

// Document is the extracted text with page bookkeeping.
type Document struct {
	Text       string
	Pages      int
	PagesRead  int
	FailedPage []int
}

// Extract opens data as a PDF and returns cleaned text from each page joined
// by blank lines. Pages that fail to extract are skipped and reported.
func (e *Extractor) Extract(data []byte) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	out := &Document{Pages: doc.NumPage()}
	n := out.Pages
	if e.maxPages > 0 && n > e.maxPages {
		n = e.maxPages
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		raw, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("failed to extract text from page")
			out.FailedPage = append(out.FailedPage, i+1)
			continue
		}
		text := cleanText(raw, i+1)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		out.PagesRead++
	}
	out.Text = b.String()

	log.Debug().Int("pages", out.Pages).Int("read", out.PagesRead).Int("chars", len(out.Text)).Msg("extracted text from PDF")
	return out, nil
}

// cleanText removes page numbers, running headers/footers and noise lines,
// then rejoins sentences broken across lines.
func cleanText(text string, pageNum int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageNumber(trimmed, pageNum) || isHeaderFooter(trimmed) || isNoise(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(joinBrokenLines(kept))
}

func isPageNumber(line string, pageNum int) bool {
	n := strconv.Itoa(pageNum)
	if line == n {
		return true
	}
	for _, pattern := range []string{"Page " + n, "- " + n + " -", "[" + n + "]"} {
		if strings.EqualFold(line, pattern) {
			return true
		}
	}
	return false
}

var footerMarkers = []string{"CONFIDENTIAL", "COPYRIGHT", "ALL RIGHTS RESERVED", "PROPRIETARY"}

func isHeaderFooter(line string) bool {
	if len(line) < 3 {
		return true
	}
	if len(line) < 50 && strings.ToUpper(line) == line && len(strings.Fields(line)) <= 2 {
		return true
	}
	if len(line) < 100 {
		upper := strings.ToUpper(line)
		for _, m := range footerMarkers {
			if strings.Contains(upper, m) {
				return true
			}
		}
	}
	return false
}

// isNoise reports lines with no letters or digits at all.
func isNoise(line string) bool {
	for _, r := range line {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// joinBrokenLines merges a line into the previous one when the previous line
// does not end a sentence and the next starts lowercase.
func joinBrokenLines(lines []string) string {
	var out []string
	for _, line := range lines {
		if len(out) > 0 {
			prev := out[len(out)-1]
			last := prev[len(prev)-1]
			endsSentence := strings.ContainsRune(".!?:;", rune(last))
			if !endsSentence && !strings.HasSuffix(prev, "-") && line[0] >= 'a' && line[0] <= 'z' {
				out[len(out)-1] = prev + " " + line
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

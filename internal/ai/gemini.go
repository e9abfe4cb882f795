package ai

import (
	"errors"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
)

const GeminiName = "Google Gemini"

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

func geminiSpec(cfg config.GeminiConfig, p Prompt, extra ...geminiPart) Spec {
	maxTokens := 2048
	if p.LongForm {
		maxTokens = 4096
	}
	parts := append([]geminiPart{{Text: p.Text}}, extra...)
	payload := geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.7, MaxOutputTokens: maxTokens},
	}
	if p.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: p.System}}}
	}
	return Spec{
		Name:    GeminiName,
		URL:     withQuery(cfg.URL, "key", cfg.APIKey),
		Headers: map[string]string{"Content-Type": "application/json"},
		Payload: payload,
		Parse:   parseGemini,
	}
}

// GeminiDocumentSpec builds a primary-provider spec that ships a document
// inline next to the instruction text.
func GeminiDocumentSpec(cfg config.GeminiConfig, p Prompt, mimeType, base64Data string) Spec {
	return geminiSpec(cfg, p, geminiPart{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64Data}})
}

func parseGemini(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("gemini: invalid JSON response")
	}
	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", errors.New("gemini: response has no candidates[0].content.parts[0].text")
	}
	return text.String(), nil
}

func withQuery(base, key, value string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + key + "=" + url.QueryEscape(value)
}

package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
)

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
	Temperature    float64 `json:"temperature"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

// HuggingFaceName is the provider name for a single Hugging Face model.
func HuggingFaceName(model string) string { return fmt.Sprintf("Hugging Face (%s)", model) }

func huggingFaceSpec(cfg config.HuggingFaceConfig, model string, p Prompt) Spec {
	system := p.System
	if system == "" {
		system = "You are a helpful assistant."
	}
	maxTokens := 500
	if p.LongForm {
		maxTokens = 1000
	}
	return Spec{
		Name: HuggingFaceName(model),
		URL:  strings.TrimRight(cfg.URL, "/") + "/" + model,
		Headers: map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Payload: hfRequest{
			Inputs:     system + "\n\n" + p.Text,
			Parameters: hfParameters{MaxNewTokens: maxTokens, ReturnFullText: false, Temperature: 0.7},
		},
		Parse: parseHuggingFace,
	}
}

// parseHuggingFace accepts either [{"generated_text": ...}] or {"generated_text": ...}.
func parseHuggingFace(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("huggingface: invalid JSON response")
	}
	res := gjson.ParseBytes(raw)
	path := "generated_text"
	if res.IsArray() {
		path = "0.generated_text"
	}
	text := res.Get(path)
	if !text.Exists() {
		return "", errors.New("huggingface: response has no generated_text")
	}
	return text.String(), nil
}

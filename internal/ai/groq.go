package ai

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/local/jarvis/internal/config"
)

const GroqName = "Groq"

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func groqSpec(cfg config.GroqConfig, p Prompt) Spec {
	system := p.System
	if system == "" {
		system = "You are a helpful research assistant."
	}
	maxTokens := 1024
	if p.LongForm {
		maxTokens = 2048
	}
	return Spec{
		Name: GroqName,
		URL:  cfg.URL,
		Headers: map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Payload: groqRequest{
			Model: cfg.Model,
			Messages: []groqMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: p.Text},
			},
			Temperature: 0.5,
			MaxTokens:   maxTokens,
		},
		Parse: parseGroq,
	}
}

func parseGroq(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("groq: invalid JSON response")
	}
	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", errors.New("groq: response has no choices[0].message.content")
	}
	return content.String(), nil
}

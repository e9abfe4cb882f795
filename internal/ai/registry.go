package ai

import "github.com/local/jarvis/internal/config"

// Builder produces the ordered provider list for one generation call.
type Builder interface {
	Build(p Prompt) []Spec
}

// Registry turns read-only provider configuration into attempt specs.
type Registry struct {
	cfg config.ProvidersConfig
}

func NewRegistry(cfg config.ProvidersConfig) *Registry {
	return &Registry{cfg: cfg}
}

// Build returns providers whose credential is present, in priority order:
// Gemini, Groq, then one Hugging Face entry per configured model. An empty
// result is valid; the caller decides what it means.
func (r *Registry) Build(p Prompt) []Spec {
	var specs []Spec
	if r.cfg.Gemini.APIKey != "" {
		specs = append(specs, geminiSpec(r.cfg.Gemini, p))
	}
	if r.cfg.Groq.APIKey != "" {
		specs = append(specs, groqSpec(r.cfg.Groq, p))
	}
	if r.cfg.HuggingFace.APIKey != "" {
		for _, model := range r.cfg.HuggingFace.Models {
			specs = append(specs, huggingFaceSpec(r.cfg.HuggingFace, model, p))
		}
	}
	return specs
}

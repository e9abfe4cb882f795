package ai

import "fmt"

// FallbackProvider is the provider name on results synthesized after every
// configured provider failed.
const FallbackProvider = "Fallback"

// Prompt carries the inputs every provider payload is built from.
type Prompt struct {
	Text     string
	System   string
	LongForm bool // report generation: larger output budgets
}

// Spec describes one provider attempt: where to POST, what to send and how
// to read the answer. Built once per generation call and never mutated.
type Spec struct {
	Name    string
	URL     string
	Headers map[string]string
	Payload any
	Parse   func(raw []byte) (string, error)
}

// Result is the outcome of a generation: text plus the provider that produced it.
type Result struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
}

// IsFallback reports whether the result is the synthetic exhausted-chain answer.
func (r Result) IsFallback() bool { return r.Provider == FallbackProvider }

// FallbackContent is the apology returned once the chain is exhausted. The
// prompt is embedded verbatim.
func FallbackContent(prompt string) string {
	return fmt.Sprintf("I apologize, but I'm unable to generate a detailed response at the moment due to API limitations. "+
		"Here's a brief overview based on general knowledge:\n\n%s\n\n"+
		"This is a fallback response because all AI providers are currently unavailable.", prompt)
}

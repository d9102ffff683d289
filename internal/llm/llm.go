// Package llm provides a provider-switchable text completer on top of
// LangChain Go. The extractor and the talk responder both consume it.
package llm

import (
	"context"
	"fmt"
)

// Completer turns a single prompt into a single text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "gemini"
)

func NewCompleter(provider Provider, model, baseURL string) (Completer, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAICompleter(model, baseURL)
	case ProviderOllama:
		return NewOllamaCompleter(model, baseURL)
	case ProviderGemini:
		return NewGeminiCompleter(model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type OllamaCompleter struct {
	client *ollama.LLM
	model  string
}

func NewOllamaCompleter(model, baseURL string) (*OllamaCompleter, error) {
	opts := []ollama.Option{
		ollama.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OllamaCompleter{client: client, model: model}, nil
}

func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.client, prompt)
}

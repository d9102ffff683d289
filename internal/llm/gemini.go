package llm

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type GeminiCompleter struct {
	client *googleai.GoogleAI
	model  string
}

func NewGeminiCompleter(model string) (*GeminiCompleter, error) {
	effectiveModel := model
	if effectiveModel == "" {
		effectiveModel = googleai.DefaultOptions().DefaultModel
	}

	opts := []googleai.Option{
		googleai.WithDefaultModel(effectiveModel),
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		opts = append(opts, googleai.WithAPIKey(key))
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		opts = append(opts, googleai.WithAPIKey(key))
	}

	client, err := googleai.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return &GeminiCompleter{client: client, model: effectiveModel}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.client, prompt, llms.WithModel(c.model))
}

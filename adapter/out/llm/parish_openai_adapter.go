package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

// OpenAIAdapter is the alternative provider, selected by configuration.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

var _ out.TextGenerator = (*OpenAIAdapter)(nil)

func NewOpenAI(apiKey, model string) *OpenAIAdapter {
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.WithField("component", "openai"),
	}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) GenerateContent(ctx context.Context, prompt string, opts out.GenerationOptions) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		wrapped := apperr.ProviderError("openai", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			wrapped = wrapped.WithDetail("status_code", apiErr.HTTPStatusCode)
		}
		return "", wrapped
	}
	if len(resp.Choices) == 0 {
		a.log.Warn("response without choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

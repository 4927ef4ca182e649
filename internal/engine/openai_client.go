package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

// openAIGenerator drives an OpenAI-compatible chat completion endpoint.
// The chat API has no top_k or repetition_penalty knobs; those parameters
// only take effect on the local backend.
type openAIGenerator struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func newOpenAIGenerator(cfg config.AIConfig, log zerolog.Logger) *openAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		log:    log,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, params interfaces.Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxLength,
		Temperature: float32(params.Temperature),
		TopP:        float32(params.TopP),
		N:           params.BeamSearches,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from model")
	}

	g.log.Debug().
		Str("model", g.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

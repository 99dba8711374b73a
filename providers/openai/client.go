// Package openai adapts the official OpenAI SDK to the llm.Client and
// llm.Embedder seams.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/stuurlui/compass/internal/llm"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultEmbedModel = "text-embedding-ada-002"
)

type Client struct {
	sdk sdk.Client
}

type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(cfg.BaseURL)))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	return &Client{sdk: sdk.NewClient(opts...)}, nil
}

// Chat sends one completion request with a single candidate.
func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	if c == nil {
		return llm.Response{}, fmt.Errorf("openai client is not initialized")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	if len(req.Messages) == 0 {
		return llm.Response{}, fmt.Errorf("at least one message is required")
	}

	params := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: toSDKMessages(req.Messages),
		N:        sdk.Int(1),
	}
	if req.ForceJSON {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	applyParameters(&params, req.Parameters)

	started := time.Now()
	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openai returned no choices")
	}
	return llm.Response{
		Text:     completion.Choices[0].Message.Content,
		Duration: time.Since(started),
	}, nil
}

// Embed returns the embedding vector for one input text.
func (c *Client) Embed(ctx context.Context, req llm.EmbedRequest) (llm.EmbedResponse, error) {
	if c == nil {
		return llm.EmbedResponse{}, fmt.Errorf("openai client is not initialized")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultEmbedModel
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return llm.EmbedResponse{}, fmt.Errorf("embedding input is required")
	}

	res, err := c.sdk.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Model: sdk.EmbeddingModel(model),
		Input: sdk.EmbeddingNewParamsInputUnion{OfString: sdk.String(input)},
	})
	if err != nil {
		return llm.EmbedResponse{}, fmt.Errorf("openai embedding: %w", err)
	}
	if len(res.Data) == 0 {
		return llm.EmbedResponse{}, fmt.Errorf("openai returned no embedding data")
	}
	return llm.EmbedResponse{Vector: res.Data[0].Embedding}, nil
}

func toSDKMessages(messages []llm.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, sdk.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

func applyParameters(params *sdk.ChatCompletionNewParams, extra map[string]any) {
	for key, value := range extra {
		switch key {
		case "temperature":
			if v, ok := toFloat(value); ok {
				params.Temperature = sdk.Float(v)
			}
		case "max_tokens":
			if v, ok := toFloat(value); ok {
				params.MaxTokens = sdk.Int(int64(v))
			}
		}
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Package llm defines the narrow seam between Compass and its language
// model provider. Everything above this package talks in Messages and
// Requests; the concrete provider lives in providers/.
package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request. Compass always asks for exactly
// one candidate; providers must not sample more.
type Request struct {
	Model      string
	Messages   []Message
	ForceJSON  bool
	Parameters map[string]any
}

type Response struct {
	Text     string
	Duration time.Duration
}

type EmbedRequest struct {
	Model string
	Input string
}

type EmbedResponse struct {
	Vector []float64
}

type Client interface {
	Chat(ctx context.Context, req Request) (Response, error)
}

type Embedder interface {
	Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error)
}

func System(content string) Message {
	return Message{Role: "system", Content: content}
}

func User(content string) Message {
	return Message{Role: "user", Content: content}
}

func Assistant(content string) Message {
	return Message{Role: "assistant", Content: content}
}

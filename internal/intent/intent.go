// Package intent classifies a free-text user message into one of a closed
// set of intents via a single model call.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stuurlui/compass/internal/jsonutil"
	"github.com/stuurlui/compass/internal/llm"
	"github.com/stuurlui/compass/internal/prompts"
)

type Kind string

const (
	KindWebsiteCount    Kind = "website_count"
	KindWebsiteTagCount Kind = "website_tag_count"
	KindSummarizeChat   Kind = "summarize_chat"
	KindUnknown         Kind = "unknown"
)

// Intent is the classified purpose of a user message. Tag is only set for
// KindWebsiteTagCount; Limit only for KindSummarizeChat (0 means unset).
type Intent struct {
	Kind  Kind
	Tag   string
	Limit int
}

func Unknown() Intent {
	return Intent{Kind: KindUnknown}
}

type Classifier struct {
	client llm.Client
	model  string
	log    *slog.Logger
}

func NewClassifier(client llm.Client, model string, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		client: client,
		model:  strings.TrimSpace(model),
		log:    log,
	}
}

type rawIntent struct {
	Intent string `json:"intent"`
	Tag    string `json:"tag"`
	Limit  int    `json:"limit"`
}

// Classify sends exactly one completion request and maps the response onto
// the closed intent set. Any malformed or unexpected model output collapses
// to the unknown intent: a misclassification should degrade to open-ended
// chat, not crash the conversation.
func (c *Classifier) Classify(ctx context.Context, userText string) Intent {
	if c == nil || c.client == nil {
		return Unknown()
	}
	res, err := c.client.Chat(ctx, llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			llm.System(prompts.AnalyseIntent + " " + userText),
		},
		Parameters: map[string]any{
			"temperature": 0,
		},
	})
	if err != nil {
		c.log.Warn("intent_classify_llm_error", "error", err.Error())
		return Unknown()
	}

	var raw rawIntent
	if err := jsonutil.DecodeWithFallback(res.Text, &raw); err != nil {
		c.log.Warn("intent_classify_parse_error", "error", err.Error())
		return Unknown()
	}
	return validate(raw)
}

// validate maps a parsed payload onto the closed variant set. Shapes that
// miss their required detail (a tag count without a tag) are not patched
// up; they collapse to unknown.
func validate(raw rawIntent) Intent {
	switch Kind(strings.TrimSpace(raw.Intent)) {
	case KindWebsiteCount:
		return Intent{Kind: KindWebsiteCount}
	case KindWebsiteTagCount:
		tag := strings.TrimSpace(raw.Tag)
		if tag == "" {
			return Unknown()
		}
		return Intent{Kind: KindWebsiteTagCount, Tag: tag}
	case KindSummarizeChat:
		limit := raw.Limit
		if limit < 0 {
			limit = 0
		}
		return Intent{Kind: KindSummarizeChat, Limit: limit}
	default:
		return Unknown()
	}
}

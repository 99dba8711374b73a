// Package router dispatches a classified intent to its data-fetch and
// phrasing routine. Intents it does not handle fall through to the
// assistant's default chat path via an explicit Unhandled result.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stuurlui/compass/internal/intent"
	"github.com/stuurlui/compass/internal/llm"
	"github.com/stuurlui/compass/internal/mainwp"
	"github.com/stuurlui/compass/internal/prompts"
)

// Result is the outcome of routing one intent. Handled=false is not an
// error: it tells the caller to continue with default chat handling.
type Result struct {
	Handled bool
	Text    string
}

func handled(text string) Result {
	return Result{Handled: true, Text: text}
}

var unhandled = Result{}

// SiteSource is the slice of MainWP the router reads.
type SiteSource interface {
	SiteCount(ctx context.Context) (mainwp.SiteCount, error)
	Tags(ctx context.Context) (mainwp.TagList, error)
}

type Router struct {
	sites  SiteSource
	client llm.Client
	model  string
	log    *slog.Logger
}

func New(sites SiteSource, client llm.Client, model string, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		sites:  sites,
		client: client,
		model:  strings.TrimSpace(model),
		log:    log,
	}
}

// Route performs at most one data fetch and one model call. summarize_chat
// is intentionally not handled here: summarization needs thread context the
// router does not have, so the assistant intercepts it earlier.
func (r *Router) Route(ctx context.Context, in intent.Intent) (Result, error) {
	if r == nil || r.sites == nil || r.client == nil {
		return unhandled, fmt.Errorf("router is not initialized")
	}
	switch in.Kind {
	case intent.KindWebsiteCount:
		return r.websiteCount(ctx)
	case intent.KindWebsiteTagCount:
		return r.websiteTagCount(ctx, in.Tag)
	default:
		return unhandled, nil
	}
}

func (r *Router) websiteCount(ctx context.Context) (Result, error) {
	count, err := r.sites.SiteCount(ctx)
	if err != nil {
		return unhandled, fmt.Errorf("fetch site count: %w", err)
	}
	payload, err := json.Marshal(count)
	if err != nil {
		return unhandled, err
	}
	text, err := r.phrase(ctx, prompts.WebsiteCount, string(payload))
	if err != nil {
		return unhandled, err
	}
	return handled(text), nil
}

func (r *Router) websiteTagCount(ctx context.Context, tagName string) (Result, error) {
	tags, err := r.sites.Tags(ctx)
	if err != nil {
		return unhandled, fmt.Errorf("fetch tags: %w", err)
	}
	tag, ok := tags.FindByName(tagName)
	if !ok {
		r.log.Debug("router_tag_not_found", "tag", tagName)
		return unhandled, nil
	}
	payload, err := json.Marshal(tag)
	if err != nil {
		return unhandled, err
	}
	text, err := r.phrase(ctx, prompts.WebsiteTagCount, string(payload))
	if err != nil {
		return unhandled, err
	}
	return handled(text), nil
}

func (r *Router) phrase(ctx context.Context, instruction, payload string) (string, error) {
	res, err := r.client.Chat(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			llm.System(prompts.Briefing),
			llm.System(instruction + " " + payload),
		},
	})
	if err != nil {
		return "", fmt.Errorf("phrase response: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}

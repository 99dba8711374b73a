// Package assistant orchestrates one conversational exchange: status
// indication, intent classification, routing, history retrieval, prompt
// assembly, completion, reply posting and title generation.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/chathistory"
	"github.com/stuurlui/compass/internal/intent"
	"github.com/stuurlui/compass/internal/llm"
	"github.com/stuurlui/compass/internal/promptprofile"
	"github.com/stuurlui/compass/internal/prompts"
	"github.com/stuurlui/compass/internal/router"
	"github.com/stuurlui/compass/internal/slackapi"
)

const defaultSummaryLimit = 50

// SlackThread is the slice of the Slack API the assistant drives.
// *slackapi.Client satisfies it.
type SlackThread interface {
	PostBlocks(ctx context.Context, channelID, text, threadTS string, blocks []blockkit.Block) error
	Replies(ctx context.Context, channelID, threadTS string) ([]slackapi.Message, error)
	History(ctx context.Context, channelID string, limit int) ([]slackapi.Message, error)
	Join(ctx context.Context, channelID string) error
	ChannelInfo(ctx context.Context, channelID string) (slackapi.Channel, error)
	SetStatus(ctx context.Context, channelID, threadTS, status string) error
	SetTitle(ctx context.Context, channelID, threadTS, title string) error
	SetSuggestedPrompts(ctx context.Context, channelID, threadTS, title string, suggestions []slackapi.SuggestedPrompt) error
}

type Classifier interface {
	Classify(ctx context.Context, userText string) intent.Intent
}

type Router interface {
	Route(ctx context.Context, in intent.Intent) (router.Result, error)
}

type Config struct {
	Model        string
	SummaryLimit int
	Profile      promptprofile.Profile
}

// MessageEvent is one inbound thread message, as delivered by the hosting
// chat platform. The assistant reconstructs everything else per event;
// nothing is cached between invocations.
type MessageEvent struct {
	ChannelID string
	ThreadTS  string
	UserID    string
	Text      string
}

type Handler struct {
	slack    SlackThread
	client   llm.Client
	classify Classifier
	route    Router
	cfg      Config
	log      *slog.Logger
}

func New(slack SlackThread, client llm.Client, classifier Classifier, route Router, cfg Config, log *slog.Logger) (*Handler, error) {
	if slack == nil {
		return nil, fmt.Errorf("slack thread client is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if route == nil {
		return nil, fmt.Errorf("router is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.SummaryLimit <= 0 {
		cfg.SummaryLimit = defaultSummaryLimit
	}
	if strings.TrimSpace(cfg.Profile.Briefing) == "" {
		cfg.Profile = promptprofile.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		slack:    slack,
		client:   client,
		classify: classifier,
		route:    route,
		cfg:      cfg,
		log:      log,
	}, nil
}

// HandleThreadStarted greets a freshly opened assistant thread and offers
// the suggested prompts.
func (h *Handler) HandleThreadStarted(ctx context.Context, ev MessageEvent) error {
	if err := h.slack.PostBlocks(ctx, ev.ChannelID, h.cfg.Profile.Greeting, ev.ThreadTS, []blockkit.Block{
		blockkit.Section(h.cfg.Profile.Greeting),
	}); err != nil {
		return err
	}
	suggestions := make([]slackapi.SuggestedPrompt, 0, len(h.cfg.Profile.SuggestedPrompts))
	for _, p := range h.cfg.Profile.SuggestedPrompts {
		suggestions = append(suggestions, slackapi.SuggestedPrompt{Title: p.Title, Message: p.Message})
	}
	return h.slack.SetSuggestedPrompts(ctx, ev.ChannelID, ev.ThreadTS, "Hier wat suggesties:", suggestions)
}

// HandleUserMessage runs the full flow for one inbound message. Failures
// anywhere are logged and answered with a fixed apology; nothing is
// retried — the user must resend.
func (h *Handler) HandleUserMessage(ctx context.Context, ev MessageEvent) {
	if err := h.respond(ctx, ev); err != nil {
		h.log.Error("assistant_message_error",
			"channel_id", ev.ChannelID,
			"thread_ts", ev.ThreadTS,
			"error", err.Error(),
		)
		apology := h.cfg.Profile.Apology
		if postErr := h.slack.PostBlocks(ctx, ev.ChannelID, apology, ev.ThreadTS, []blockkit.Block{
			blockkit.Section(apology),
		}); postErr != nil {
			h.log.Error("assistant_apology_error", "channel_id", ev.ChannelID, "error", postErr.Error())
		}
	}
}

func (h *Handler) respond(ctx context.Context, ev MessageEvent) error {
	// Best effort; a failed status indicator should not fail the exchange.
	if err := h.slack.SetStatus(ctx, ev.ChannelID, ev.ThreadTS, prompts.WorkingStatus); err != nil {
		h.log.Debug("assistant_set_status_error", "channel_id", ev.ChannelID, "error", err.Error())
	}

	classified := h.classify.Classify(ctx, ev.Text)

	// Summarization needs channel context the router does not have, so it
	// is intercepted before routing.
	if classified.Kind == intent.KindSummarizeChat {
		return h.summarize(ctx, ev, classified.Limit)
	}

	routed, err := h.route.Route(ctx, classified)
	if err != nil {
		return err
	}
	if routed.Handled {
		if err := h.postReply(ctx, ev, routed.Text); err != nil {
			return err
		}
		return h.generateTitle(ctx, ev, routed.Text)
	}

	return h.defaultChat(ctx, ev)
}

func (h *Handler) defaultChat(ctx context.Context, ev MessageEvent) error {
	// Thread replies come back oldest-first and are used as-is.
	history, err := h.slack.Replies(ctx, ev.ChannelID, ev.ThreadTS)
	if err != nil {
		return fmt.Errorf("fetch thread replies: %w", err)
	}
	messages := chathistory.ThreadConversation(h.cfg.Profile.Briefing, history, ev.Text)
	res, err := h.client.Chat(ctx, llm.Request{
		Model:    h.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	reply := strings.TrimSpace(res.Text)
	if err := h.postReply(ctx, ev, reply); err != nil {
		return err
	}
	return h.generateTitle(ctx, ev, reply)
}

func (h *Handler) summarize(ctx context.Context, ev MessageEvent, limit int) error {
	if limit <= 0 {
		limit = h.cfg.SummaryLimit
	}
	history, err := h.fetchChannelHistory(ctx, ev.ChannelID, limit)
	if err != nil {
		return fmt.Errorf("fetch channel history: %w", err)
	}
	transcript := chathistory.Transcript(chathistory.Chronological(history))

	res, err := h.client.Chat(ctx, llm.Request{
		Model: h.cfg.Model,
		Messages: []llm.Message{
			llm.System(h.cfg.Profile.Briefing),
			llm.System(prompts.SummarizeChat),
			llm.User(transcript),
		},
	})
	if err != nil {
		return fmt.Errorf("summarize completion: %w", err)
	}
	if err := h.postReply(ctx, ev, strings.TrimSpace(res.Text)); err != nil {
		return err
	}

	title := "Samenvatting"
	if channel, infoErr := h.slack.ChannelInfo(ctx, ev.ChannelID); infoErr == nil && strings.TrimSpace(channel.Name) != "" {
		title = "Samenvatting van #" + strings.TrimSpace(channel.Name)
	}
	return h.slack.SetTitle(ctx, ev.ChannelID, ev.ThreadTS, title)
}

// fetchChannelHistory pulls recent channel messages, joining the channel
// and retrying exactly once when the bot is not yet a member. Any other
// failure, and a second not_in_channel, propagate.
func (h *Handler) fetchChannelHistory(ctx context.Context, channelID string, limit int) ([]slackapi.Message, error) {
	history, err := h.slack.History(ctx, channelID, limit)
	if err == nil {
		return history, nil
	}
	if !errors.Is(err, slackapi.ErrNotInChannel) {
		return nil, err
	}
	h.log.Info("assistant_join_channel", "channel_id", channelID)
	if joinErr := h.slack.Join(ctx, channelID); joinErr != nil {
		return nil, joinErr
	}
	return h.slack.History(ctx, channelID, limit)
}

func (h *Handler) postReply(ctx context.Context, ev MessageEvent, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty reply text")
	}
	return h.slack.PostBlocks(ctx, ev.ChannelID, text, ev.ThreadTS, []blockkit.Block{
		blockkit.Section(text),
	})
}

// generateTitle issues a second, independent completion and sets its raw
// output as the thread title. Every successful reply gets a title, router
// handled ones included.
func (h *Handler) generateTitle(ctx context.Context, ev MessageEvent, replyText string) error {
	res, err := h.client.Chat(ctx, llm.Request{
		Model: h.cfg.Model,
		Messages: []llm.Message{
			llm.System(prompts.GenerateTitle + " " + replyText + "."),
		},
	})
	if err != nil {
		return fmt.Errorf("generate title: %w", err)
	}
	return h.slack.SetTitle(ctx, ev.ChannelID, ev.ThreadTS, strings.TrimSpace(res.Text))
}

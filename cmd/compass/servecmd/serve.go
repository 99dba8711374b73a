// Package servecmd hosts the Socket Mode event loop plus one-shot commands
// for the scheduled jobs.
package servecmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stuurlui/compass/internal/assistant"
	"github.com/stuurlui/compass/scheduler"
)

const (
	defaultFeedbackSchedule = "0 16 * * 1-5"
	defaultSyncSchedule     = "0 3 * * *"
	defaultEventTimeout     = 2 * time.Minute
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack assistant with Socket Mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}

			auth, err := rt.slack.AuthTest(cmd.Context())
			if err != nil {
				return fmt.Errorf("slack auth.test: %w", err)
			}
			rt.botUserID = strings.TrimSpace(auth.UserID)
			if rt.botUserID == "" {
				return fmt.Errorf("slack auth.test returned empty user_id")
			}

			if err := startScheduler(cmd.Context(), rt); err != nil {
				return err
			}

			eventTimeout := viper.GetDuration("slack.event_timeout")
			if eventTimeout <= 0 {
				eventTimeout = defaultEventTimeout
			}

			rt.log.Info("compass_start", "bot_user_id", rt.botUserID, "event_timeout", eventTimeout.String())

			for {
				if cmd.Context().Err() != nil {
					rt.log.Info("compass_stop", "reason", "context_canceled")
					return nil
				}
				conn, err := rt.slack.ConnectSocket(cmd.Context())
				if err != nil {
					if cmd.Context().Err() != nil {
						rt.log.Info("compass_stop", "reason", "context_canceled")
						return nil
					}
					rt.log.Warn("socket_connect_error", "error", err.Error())
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(2 * time.Second):
					}
					continue
				}
				rt.log.Info("socket_connected")
				readErr := consumeSocket(cmd.Context(), conn, func(envelope socketEnvelope) {
					go func() {
						ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
						defer cancel()
						rt.handleEnvelope(ctx, envelope)
					}()
				})
				_ = conn.Close()
				if readErr != nil && !errors.Is(readErr, context.Canceled) && !errors.Is(readErr, context.DeadlineExceeded) {
					rt.log.Warn("socket_read_error", "error", readErr.Error())
				}
			}
		},
	}
	return cmd
}

func startScheduler(ctx context.Context, rt *runtime) error {
	locName := strings.TrimSpace(viper.GetString("scheduler.location"))
	if locName == "" {
		locName = "Europe/Amsterdam"
	}
	loc, err := time.LoadLocation(locName)
	if err != nil {
		return fmt.Errorf("load scheduler location: %w", err)
	}

	runner := scheduler.NewRunner(loc, rt.log)
	if viper.GetBool("feedback.enabled") {
		schedule := strings.TrimSpace(viper.GetString("feedback.schedule"))
		if schedule == "" {
			schedule = defaultFeedbackSchedule
		}
		if err := runner.Add(scheduler.Job{
			Name:     "collect_feedback",
			Schedule: schedule,
			Run:      rt.feedback.Run,
		}); err != nil {
			return err
		}
	}
	if rt.syncer != nil && viper.GetBool("contentsync.enabled") {
		schedule := strings.TrimSpace(viper.GetString("contentsync.schedule"))
		if schedule == "" {
			schedule = defaultSyncSchedule
		}
		if err := runner.Add(scheduler.Job{
			Name:     "content_sync",
			Schedule: schedule,
			Timeout:  30 * time.Minute,
			Run:      rt.syncer.Run,
		}); err != nil {
			return err
		}
	}
	runner.Start(ctx)
	return nil
}

func consumeSocket(ctx context.Context, conn *websocket.Conn, onEnvelope func(envelope socketEnvelope)) error {
	if conn == nil {
		return fmt.Errorf("slack websocket connection is nil")
	}
	for {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var envelope socketEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			continue
		}
		if strings.TrimSpace(envelope.EnvelopeID) != "" {
			if err := conn.WriteJSON(map[string]string{"envelope_id": envelope.EnvelopeID}); err != nil {
				return err
			}
		}
		if onEnvelope == nil {
			continue
		}
		onEnvelope(envelope)
	}
}

func (rt *runtime) handleEnvelope(ctx context.Context, envelope socketEnvelope) {
	switch strings.TrimSpace(envelope.Type) {
	case "events_api":
		rt.handleEventsAPI(ctx, envelope.Payload)
	case "interactive":
		rt.handleInteractive(ctx, envelope.Payload)
	case "slash_commands":
		rt.handleSlashCommand(ctx, envelope.Payload)
	}
}

func (rt *runtime) handleEventsAPI(ctx context.Context, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var payload eventsAPIPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		rt.log.Warn("event_payload_invalid", "error", err.Error())
		return
	}
	var event slackEvent
	if err := json.Unmarshal(payload.Event, &event); err != nil {
		rt.log.Warn("event_payload_invalid", "error", err.Error())
		return
	}

	switch strings.TrimSpace(event.Type) {
	case "assistant_thread_started":
		ev := assistant.MessageEvent{
			ChannelID: strings.TrimSpace(event.AssistantThread.ChannelID),
			ThreadTS:  strings.TrimSpace(event.AssistantThread.ThreadTS),
			UserID:    strings.TrimSpace(event.AssistantThread.User),
		}
		if ev.ChannelID == "" || ev.ThreadTS == "" {
			return
		}
		if err := rt.assistant.HandleThreadStarted(ctx, ev); err != nil {
			rt.log.Warn("thread_started_error", "channel_id", ev.ChannelID, "error", err.Error())
		}
	case "message":
		if strings.TrimSpace(event.ChannelType) != "im" {
			return
		}
		if strings.TrimSpace(event.Subtype) != "" || strings.TrimSpace(event.BotID) != "" {
			return
		}
		userID := strings.TrimSpace(event.User)
		if userID == "" || userID == rt.botUserID {
			return
		}
		threadTS := strings.TrimSpace(event.ThreadTS)
		if threadTS == "" {
			threadTS = strings.TrimSpace(event.TS)
		}
		ev := assistant.MessageEvent{
			ChannelID: strings.TrimSpace(event.Channel),
			ThreadTS:  threadTS,
			UserID:    userID,
			Text:      strings.TrimSpace(event.Text),
		}
		if ev.ChannelID == "" || ev.Text == "" {
			return
		}
		rt.assistant.HandleUserMessage(ctx, ev)
	}
}

package servecmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/interactions"
)

type socketEnvelope struct {
	EnvelopeID string          `json:"envelope_id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type eventsAPIPayload struct {
	Event json.RawMessage `json:"event,omitempty"`
}

type slackEvent struct {
	Type            string `json:"type,omitempty"`
	Subtype         string `json:"subtype,omitempty"`
	User            string `json:"user,omitempty"`
	Text            string `json:"text,omitempty"`
	Channel         string `json:"channel,omitempty"`
	ChannelType     string `json:"channel_type,omitempty"`
	TS              string `json:"ts,omitempty"`
	ThreadTS        string `json:"thread_ts,omitempty"`
	BotID           string `json:"bot_id,omitempty"`
	AssistantThread struct {
		ChannelID string `json:"channel_id,omitempty"`
		ThreadTS  string `json:"thread_ts,omitempty"`
		User      string `json:"user_id,omitempty"`
	} `json:"assistant_thread,omitempty"`
}

type interactivePayload struct {
	Type      string `json:"type,omitempty"`
	TriggerID string `json:"trigger_id,omitempty"`
	User      struct {
		ID string `json:"id,omitempty"`
	} `json:"user,omitempty"`
	Channel struct {
		ID string `json:"id,omitempty"`
	} `json:"channel,omitempty"`
	Message struct {
		TS       string           `json:"ts,omitempty"`
		ThreadTS string           `json:"thread_ts,omitempty"`
		Blocks   []blockkit.Block `json:"blocks,omitempty"`
	} `json:"message,omitempty"`
	View struct {
		ID         string `json:"id,omitempty"`
		CallbackID string `json:"callback_id,omitempty"`
		State      struct {
			Values map[string]map[string]stateValue `json:"values,omitempty"`
		} `json:"state,omitempty"`
	} `json:"view,omitempty"`
	Actions []payloadAction `json:"actions,omitempty"`
}

type payloadAction struct {
	ActionID string `json:"action_id,omitempty"`
	Value    string `json:"value,omitempty"`
}

type stateValue struct {
	Value          string `json:"value,omitempty"`
	SelectedOption struct {
		Value string `json:"value,omitempty"`
	} `json:"selected_option,omitempty"`
}

func flattenStateValues(values map[string]map[string]stateValue) map[string]map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]map[string]string, len(values))
	for blockID, byAction := range values {
		flat := make(map[string]string, len(byAction))
		for actionID, state := range byAction {
			value := strings.TrimSpace(state.Value)
			if value == "" {
				value = strings.TrimSpace(state.SelectedOption.Value)
			}
			flat[actionID] = value
		}
		out[blockID] = flat
	}
	return out
}

func (rt *runtime) handleInteractive(ctx context.Context, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var payload interactivePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		rt.log.Warn("interactive_payload_invalid", "error", err.Error())
		return
	}

	switch strings.TrimSpace(payload.Type) {
	case "block_actions":
		if len(payload.Actions) == 0 {
			return
		}
		action := interactions.Action{
			ID:             strings.TrimSpace(payload.Actions[0].ActionID),
			Value:          payload.Actions[0].Value,
			TriggerID:      payload.TriggerID,
			ViewID:         payload.View.ID,
			ViewCallbackID: payload.View.CallbackID,
			UserID:         payload.User.ID,
			ChannelID:      payload.Channel.ID,
			MessageTS:      payload.Message.TS,
			ThreadTS:       payload.Message.ThreadTS,
			MessageBlocks:  payload.Message.Blocks,
		}
		if err := rt.interactions.HandleAction(ctx, action); err != nil {
			rt.log.Warn("block_action_error", "action_id", action.ID, "error", err.Error())
		}
	case "view_submission":
		sub := interactions.Submission{
			CallbackID: strings.TrimSpace(payload.View.CallbackID),
			TriggerID:  payload.TriggerID,
			Values:     flattenStateValues(payload.View.State.Values),
		}
		if err := rt.interactions.HandleViewSubmission(ctx, sub); err != nil {
			rt.log.Warn("view_submission_error", "callback_id", sub.CallbackID, "error", err.Error())
		}
	}
}

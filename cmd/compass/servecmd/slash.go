package servecmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stuurlui/compass/internal/blockkit"
	"github.com/stuurlui/compass/internal/interactions"
)

type slashCommandPayload struct {
	Command     string `json:"command,omitempty"`
	Text        string `json:"text,omitempty"`
	ResponseURL string `json:"response_url,omitempty"`
	TriggerID   string `json:"trigger_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
}

func (rt *runtime) handleSlashCommand(ctx context.Context, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var payload slashCommandPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		rt.log.Warn("slash_payload_invalid", "error", err.Error())
		return
	}
	if strings.TrimSpace(payload.Command) != "/kompas" {
		return
	}

	text := strings.ToLower(strings.TrimSpace(payload.Text))
	if text == "" {
		if err := rt.slack.Respond(ctx, payload.ResponseURL, "Probeer `/kompas help` om te zien waarmee ik je kan helpen.", nil); err != nil {
			rt.log.Warn("slash_respond_error", "error", err.Error())
		}
		return
	}

	var blocks []blockkit.Block
	switch text {
	case "hubspot":
		blocks = append(blocks,
			blockkit.Section("Wat wil je doen met HubSpot?"),
			blockkit.Actions(
				blockkit.Button("Bedrijfsinformatie bekijken", interactions.ActionCompanyInfo),
				blockkit.Button("Recente tickets bekijken", interactions.ActionRecentTickets),
			),
		)
	case "float":
		blocks = append(blocks,
			blockkit.Section("Wat wil je doen met Float?"),
			blockkit.Actions(
				blockkit.Button("Team bekijken", interactions.ActionProjectTeam),
				blockkit.Button("Projectmanager bekijken", interactions.ActionProjectManager),
			),
		)
	default:
		if err := rt.slack.Respond(ctx, payload.ResponseURL, "Probeer `/kompas hubspot` of `/kompas float`.", nil); err != nil {
			rt.log.Warn("slash_respond_error", "error", err.Error())
		}
		return
	}

	if err := rt.slack.Respond(ctx, payload.ResponseURL, "", blocks); err != nil {
		rt.log.Warn("slash_respond_error", "error", err.Error())
	}
}

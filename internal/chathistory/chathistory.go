// Package chathistory turns Slack message lists into model-ready
// conversation context. Ordering is load-bearing: the model contract wants
// the briefing first and the newest user message last.
package chathistory

import (
	"strings"

	"github.com/stuurlui/compass/internal/llm"
	"github.com/stuurlui/compass/internal/slackapi"
)

// Chronological returns a copy of msgs in oldest-first order, assuming the
// input is newest-first as conversations.history returns it. The input is
// not mutated.
func Chronological(msgs []slackapi.Message) []slackapi.Message {
	out := make([]slackapi.Message, len(msgs))
	for i, msg := range msgs {
		out[len(msgs)-1-i] = msg
	}
	return out
}

// Transcript renders chronological messages as one author-tagged line per
// message, the shape the summarization prompt expects.
func Transcript(msgs []slackapi.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		author := strings.TrimSpace(msg.User)
		if msg.FromBot() {
			author = "bot"
		}
		if author == "" {
			author = "onbekend"
		}
		b.WriteString(author)
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ThreadConversation assembles the completion request for default chat:
// the briefing, then the thread history with roles tagged by bot
// authorship, then the newest user message.
func ThreadConversation(briefing string, history []slackapi.Message, userText string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.System(briefing))
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		if msg.FromBot() {
			out = append(out, llm.Assistant(text))
			continue
		}
		out = append(out, llm.User(text))
	}
	out = append(out, llm.User(userText))
	return out
}

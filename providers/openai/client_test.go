package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stuurlui/compass/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestChatRequestsSingleCandidate(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"antwoord"}}]}`))
	})

	res, err := c.Chat(context.Background(), llm.Request{
		Model: "gpt-4o-mini",
		Messages: []llm.Message{
			llm.System("briefing"),
			llm.User("vraag"),
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Text != "antwoord" {
		t.Fatalf("text = %q", res.Text)
	}
	if got := body["n"]; got != float64(1) {
		t.Fatalf("n = %v, want 1", got)
	}
	if got := body["model"]; got != "gpt-4o-mini" {
		t.Fatalf("model = %v", got)
	}
}

func TestChatPassesTemperatureZero(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	})

	_, err := c.Chat(context.Background(), llm.Request{
		Messages:   []llm.Message{llm.User("vraag")},
		Parameters: map[string]any{"temperature": 0, "max_tokens": 300},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	temperature, ok := body["temperature"]
	if !ok {
		t.Fatalf("temperature missing from request: %v", body)
	}
	if temperature != float64(0) {
		t.Fatalf("temperature = %v, want 0", temperature)
	}
	if body["max_tokens"] != float64(300) {
		t.Fatalf("max_tokens = %v, want 300", body["max_tokens"])
	}
}

func TestChatMapsMessageRoles(t *testing.T) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	})

	_, err := c.Chat(context.Background(), llm.Request{
		Messages: []llm.Message{
			llm.System("briefing"),
			llm.User("eerste vraag"),
			llm.Assistant("eerste antwoord"),
			{Role: "onbekend", Content: "rare rol"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	roles := make([]string, 0, len(body.Messages))
	for _, msg := range body.Messages {
		roles = append(roles, msg.Role)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if body.Messages[0].Content != "briefing" {
		t.Fatalf("first message = %q, want the system briefing", body.Messages[0].Content)
	}
}

func TestChatForceJSONSetsResponseFormat(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{}"}}]}`))
	})

	_, err := c.Chat(context.Background(), llm.Request{
		Messages:  []llm.Message{llm.User("vraag")},
		ForceJSON: true,
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("response_format = %v", body["response_format"])
	}
}

func TestChatNoChoicesFails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Chat(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("vraag")},
	})
	if err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestChatNoMessagesFails(t *testing.T) {
	c, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Chat(context.Background(), llm.Request{}); err == nil {
		t.Fatalf("expected error for empty message list")
	}
}

func TestEmbedReturnsVector(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})

	res, err := c.Embed(context.Background(), llm.EmbedRequest{Input: "  Onboarding  "})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(res.Vector) != 3 || res.Vector[1] != 0.2 {
		t.Fatalf("vector = %v", res.Vector)
	}
	if body["model"] != DefaultEmbedModel {
		t.Fatalf("model = %v, want %q", body["model"], DefaultEmbedModel)
	}
	if body["input"] != "Onboarding" {
		t.Fatalf("input = %v, want trimmed text", body["input"])
	}
}

func TestEmbedEmptyInputFails(t *testing.T) {
	c, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Embed(context.Background(), llm.EmbedRequest{Input: "   "}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

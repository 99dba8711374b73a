package intent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stuurlui/compass/internal/llm"
)

type stubClient struct {
	text string
	err  error
	last llm.Request
}

func (s *stubClient) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.last = req
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text}, nil
}

func TestClassifyWebsiteCount(t *testing.T) {
	client := &stubClient{text: `{"intent":"website_count","tag":null}`}
	c := NewClassifier(client, "test-model", nil)

	got := c.Classify(context.Background(), "hoeveel websites beheren we?")
	if got.Kind != KindWebsiteCount {
		t.Fatalf("kind = %q, want %q", got.Kind, KindWebsiteCount)
	}
	if len(client.last.Messages) != 1 || client.last.Messages[0].Role != "system" {
		t.Fatalf("unexpected request messages: %+v", client.last.Messages)
	}
	if temp, ok := client.last.Parameters["temperature"]; !ok || temp != 0 {
		t.Fatalf("temperature = %v, want 0", temp)
	}
}

func TestClassifyTagCount(t *testing.T) {
	client := &stubClient{text: `{"intent":"website_tag_count","tag":"High Risk"}`}
	c := NewClassifier(client, "test-model", nil)

	got := c.Classify(context.Background(), "hoeveel high risk websites?")
	if got.Kind != KindWebsiteTagCount {
		t.Fatalf("kind = %q, want %q", got.Kind, KindWebsiteTagCount)
	}
	if got.Tag != "High Risk" {
		t.Fatalf("tag = %q, want %q", got.Tag, "High Risk")
	}
}

func TestClassifyTagCountWithoutTagCollapsesToUnknown(t *testing.T) {
	client := &stubClient{text: `{"intent":"website_tag_count","tag":""}`}
	c := NewClassifier(client, "test-model", nil)

	if got := c.Classify(context.Background(), "hoeveel websites met tag?"); got.Kind != KindUnknown {
		t.Fatalf("kind = %q, want %q", got.Kind, KindUnknown)
	}
}

func TestClassifySummarizeWithLimit(t *testing.T) {
	client := &stubClient{text: `{"intent":"summarize_chat","limit":25}`}
	c := NewClassifier(client, "test-model", nil)

	got := c.Classify(context.Background(), "vat de laatste 25 berichten samen")
	if got.Kind != KindSummarizeChat {
		t.Fatalf("kind = %q, want %q", got.Kind, KindSummarizeChat)
	}
	if got.Limit != 25 {
		t.Fatalf("limit = %d, want 25", got.Limit)
	}
}

func TestClassifyNegativeLimitClampedToZero(t *testing.T) {
	client := &stubClient{text: `{"intent":"summarize_chat","limit":-3}`}
	c := NewClassifier(client, "test-model", nil)

	if got := c.Classify(context.Background(), "samenvatting"); got.Limit != 0 {
		t.Fatalf("limit = %d, want 0", got.Limit)
	}
}

func TestClassifyFencedJSON(t *testing.T) {
	client := &stubClient{text: "```json\n{\"intent\":\"website_count\"}\n```"}
	c := NewClassifier(client, "test-model", nil)

	if got := c.Classify(context.Background(), "hoeveel websites?"); got.Kind != KindWebsiteCount {
		t.Fatalf("kind = %q, want %q", got.Kind, KindWebsiteCount)
	}
}

func TestClassifyFailsOpen(t *testing.T) {
	cases := []struct {
		name   string
		client *stubClient
	}{
		{"llm_error", &stubClient{err: fmt.Errorf("boom")}},
		{"prose_response", &stubClient{text: "ik weet het niet"}},
		{"unexpected_intent", &stubClient{text: `{"intent":"order_pizza"}`}},
		{"empty_response", &stubClient{text: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(tc.client, "test-model", nil)
			if got := c.Classify(context.Background(), "iets"); got.Kind != KindUnknown {
				t.Fatalf("kind = %q, want %q", got.Kind, KindUnknown)
			}
		})
	}
}

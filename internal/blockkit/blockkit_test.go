package blockkit

import (
	"encoding/json"
	"testing"
)

func TestDispatchInputJSON(t *testing.T) {
	block := DispatchInput(InputOptions{
		BlockID:     "feedback_12",
		ActionID:    "feedback_12",
		Label:       "Terugkoppeling",
		Placeholder: "Hoe is het gegaan?",
	})
	raw, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "input" || got["block_id"] != "feedback_12" {
		t.Fatalf("block = %s", raw)
	}
	if got["dispatch_action"] != true {
		t.Fatalf("dispatch_action missing: %s", raw)
	}
	element, _ := got["element"].(map[string]any)
	if element["type"] != "plain_text_input" || element["action_id"] != "feedback_12" {
		t.Fatalf("element = %v", element)
	}
}

func TestSectionAndContextJSON(t *testing.T) {
	raw, err := json.Marshal(Section("Ahoy *daar*"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"section","text":{"type":"mrkdwn","text":"Ahoy *daar*"}}`
	if string(raw) != want {
		t.Fatalf("section = %s, want %s", raw, want)
	}

	ctx := Context("kleine lettertjes")
	if ctx.Type != "context" || len(ctx.Elements) != 1 {
		t.Fatalf("context = %+v", ctx)
	}
}

func TestModalOmitsSubmitWithoutText(t *testing.T) {
	view := Modal(ModalOptions{
		CallbackID: "company_info",
		Title:      "Bedrijfsinformatie",
		Blocks:     []Block{Section("inhoud")},
	})
	if view.Submit != nil {
		t.Fatalf("submit = %+v, want nil", view.Submit)
	}
	if view.Close == nil || view.Close.Text != "Sluiten" {
		t.Fatalf("close = %+v", view.Close)
	}

	withSubmit := Modal(ModalOptions{Title: "Team opzoeken", SubmitText: "Bekijken"})
	if withSubmit.Submit == nil || withSubmit.Submit.Text != "Bekijken" {
		t.Fatalf("submit = %+v", withSubmit.Submit)
	}
}

func TestLinkButtonShape(t *testing.T) {
	block := LinkButton(LinkButtonOptions{
		Text:       "*Onderwerp:* Site down",
		ButtonText: "Bekijk op HubSpot",
		URL:        "https://app.hubspot.com/contacts/1/tickets/88",
		ActionID:   "view_ticket",
	})
	if block.Type != "section" || block.Accessory == nil {
		t.Fatalf("block = %+v", block)
	}
	if block.Accessory.Type != "button" || block.Accessory.URL == "" {
		t.Fatalf("accessory = %+v", block.Accessory)
	}
	if block.Accessory.Text.Type != "plain_text" || !block.Accessory.Text.Emoji {
		t.Fatalf("button text = %+v", block.Accessory.Text)
	}
}

func TestSelectInputOptions(t *testing.T) {
	block := SelectInput(SelectOptions{
		BlockID:     "select_project",
		ActionID:    "select_project",
		Label:       "Projecten",
		Placeholder: "Selecteer een project",
		Options: []Option{
			{Text: Plain("Webshop relaunch"), Value: "12"},
		},
	})
	if block.Element == nil || block.Element.Type != "static_select" {
		t.Fatalf("element = %+v", block.Element)
	}
	if len(block.Element.Options) != 1 || block.Element.Options[0].Value != "12" {
		t.Fatalf("options = %+v", block.Element.Options)
	}
}

// Package blockkit builds Slack Block Kit payloads from plain arguments.
// Block Kit is a JSON DSL; these helpers keep the call sites readable and
// the JSON shapes in one place.
package blockkit

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func Mrkdwn(text string) *Text {
	return &Text{Type: "mrkdwn", Text: text}
}

func Plain(text string) *Text {
	return &Text{Type: "plain_text", Text: text, Emoji: true}
}

type Block struct {
	Type           string   `json:"type"`
	BlockID        string   `json:"block_id,omitempty"`
	Text           *Text    `json:"text,omitempty"`
	Elements       []any    `json:"elements,omitempty"`
	Accessory      *Element `json:"accessory,omitempty"`
	Element        *Element `json:"element,omitempty"`
	Label          *Text    `json:"label,omitempty"`
	DispatchAction bool     `json:"dispatch_action,omitempty"`
}

type Element struct {
	Type         string   `json:"type"`
	ActionID     string   `json:"action_id,omitempty"`
	Text         *Text    `json:"text,omitempty"`
	Value        string   `json:"value,omitempty"`
	URL          string   `json:"url,omitempty"`
	Placeholder  *Text    `json:"placeholder,omitempty"`
	Options      []Option `json:"options,omitempty"`
	InitialValue string   `json:"initial_value,omitempty"`
	Multiline    bool     `json:"multiline,omitempty"`
	FocusOnLoad  bool     `json:"focus_on_load,omitempty"`
}

type Option struct {
	Text  *Text  `json:"text"`
	Value string `json:"value"`
}

func Section(text string) Block {
	return Block{Type: "section", Text: Mrkdwn(text)}
}

func Context(text string) Block {
	return Block{Type: "context", Elements: []any{Mrkdwn(text)}}
}

func Divider() Block {
	return Block{Type: "divider"}
}

// Whitespace is a section holding a single space, used as vertical padding
// between grouped blocks.
func Whitespace() Block {
	return Section(" ")
}

func Actions(elements ...*Element) Block {
	out := Block{Type: "actions"}
	for _, el := range elements {
		out.Elements = append(out.Elements, el)
	}
	return out
}

func Button(text, actionID string) *Element {
	return &Element{
		Type:     "button",
		Text:     Plain(text),
		ActionID: actionID,
	}
}

type LinkButtonOptions struct {
	Text       string
	ButtonText string
	URL        string
	Value      string
	ActionID   string
}

func LinkButton(opts LinkButtonOptions) Block {
	return Block{
		Type: "section",
		Text: Mrkdwn(opts.Text),
		Accessory: &Element{
			Type:     "button",
			Text:     Plain(opts.ButtonText),
			Value:    opts.Value,
			URL:      opts.URL,
			ActionID: opts.ActionID,
		},
	}
}

type InputOptions struct {
	BlockID      string
	ActionID     string
	Label        string
	Placeholder  string
	InitialValue string
	Multiline    bool
	FocusOnLoad  bool
}

// DispatchInput is a plain text input that dispatches a block action on
// submit, used for inline feedback fields.
func DispatchInput(opts InputOptions) Block {
	return Block{
		Type:           "input",
		BlockID:        opts.BlockID,
		DispatchAction: true,
		Element: &Element{
			Type:         "plain_text_input",
			ActionID:     opts.ActionID,
			InitialValue: opts.InitialValue,
			Placeholder:  Plain(opts.Placeholder),
		},
		Label: Plain(opts.Label),
	}
}

func TextInput(opts InputOptions) Block {
	actionID := opts.ActionID
	if actionID == "" {
		actionID = opts.BlockID
	}
	return Block{
		Type:    "input",
		BlockID: opts.BlockID,
		Element: &Element{
			Type:         "plain_text_input",
			ActionID:     actionID,
			InitialValue: opts.InitialValue,
			Multiline:    opts.Multiline,
			FocusOnLoad:  opts.FocusOnLoad,
			Placeholder:  Plain(opts.Placeholder),
		},
		Label: Plain(opts.Label),
	}
}

type SelectOptions struct {
	BlockID     string
	ActionID    string
	Label       string
	Placeholder string
	Options     []Option
}

func SelectInput(opts SelectOptions) Block {
	return Block{
		Type:    "input",
		BlockID: opts.BlockID,
		Element: &Element{
			Type:        "static_select",
			ActionID:    opts.ActionID,
			Placeholder: Plain(opts.Placeholder),
			Options:     opts.Options,
		},
		Label: Plain(opts.Label),
	}
}

type View struct {
	Type       string  `json:"type"`
	CallbackID string  `json:"callback_id,omitempty"`
	Title      *Text   `json:"title,omitempty"`
	Close      *Text   `json:"close,omitempty"`
	Submit     *Text   `json:"submit,omitempty"`
	Blocks     []Block `json:"blocks"`
}

type ModalOptions struct {
	CallbackID string
	Title      string
	Blocks     []Block
	SubmitText string
}

func Modal(opts ModalOptions) View {
	view := View{
		Type:       "modal",
		CallbackID: opts.CallbackID,
		Title:      Plain(opts.Title),
		Close:      Plain("Sluiten"),
		Blocks:     opts.Blocks,
	}
	if opts.SubmitText != "" {
		view.Submit = Plain(opts.SubmitText)
	}
	return view
}

// Package slackapi is a typed client for the slice of the Slack Web API
// Compass uses, including the Assistant thread endpoints and Socket Mode
// connection setup.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stuurlui/compass/internal/blockkit"
)

// ErrNotInChannel is returned when the bot reads or posts in a channel it
// has not joined. The summarization path recovers from it with one join.
var ErrNotInChannel = errors.New("slack: not in channel")

type Client struct {
	http     *http.Client
	baseURL  string
	botToken string
	appToken string
}

func NewClient(httpClient *http.Client, baseURL, botToken, appToken string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		botToken: strings.TrimSpace(botToken),
		appToken: strings.TrimSpace(appToken),
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func apiError(method, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "unknown_error"
	}
	if code == "not_in_channel" {
		return fmt.Errorf("slack %s: %w", method, ErrNotInChannel)
	}
	return fmt.Errorf("slack %s failed: %s", method, code)
}

type AuthTestResult struct {
	TeamID string
	UserID string
	BotID  string
	Team   string
	User   string
}

func (c *Client) AuthTest(ctx context.Context) (AuthTestResult, error) {
	var out struct {
		apiEnvelope
		TeamID string `json:"team_id,omitempty"`
		UserID string `json:"user_id,omitempty"`
		BotID  string `json:"bot_id,omitempty"`
		Team   string `json:"team,omitempty"`
		User   string `json:"user,omitempty"`
	}
	if err := c.callJSON(ctx, c.botToken, "/auth.test", nil, &out); err != nil {
		return AuthTestResult{}, err
	}
	if !out.OK {
		return AuthTestResult{}, apiError("auth.test", out.Error)
	}
	return AuthTestResult{
		TeamID: strings.TrimSpace(out.TeamID),
		UserID: strings.TrimSpace(out.UserID),
		BotID:  strings.TrimSpace(out.BotID),
		Team:   strings.TrimSpace(out.Team),
		User:   strings.TrimSpace(out.User),
	}, nil
}

func (c *Client) openSocketURL(ctx context.Context) (string, error) {
	var out struct {
		apiEnvelope
		URL string `json:"url,omitempty"`
	}
	if err := c.callJSON(ctx, c.appToken, "/apps.connections.open", nil, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", apiError("apps.connections.open", out.Error)
	}
	socketURL := strings.TrimSpace(out.URL)
	if socketURL == "" {
		return "", fmt.Errorf("slack apps.connections.open returned empty url")
	}
	return socketURL, nil
}

func (c *Client) ConnectSocket(ctx context.Context) (*websocket.Conn, error) {
	socketURL, err := c.openSocketURL(ctx)
	if err != nil {
		return nil, err
	}
	dialer := *websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, socketURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type postMessageRequest struct {
	Channel  string           `json:"channel"`
	Text     string           `json:"text,omitempty"`
	ThreadTS string           `json:"thread_ts,omitempty"`
	Blocks   []blockkit.Block `json:"blocks,omitempty"`
}

// PostMessage posts text into a channel or thread. Rate limited and 5xx
// responses are retried up to three attempts.
func (c *Client) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	return c.postMessage(ctx, postMessageRequest{
		Channel:  strings.TrimSpace(channelID),
		Text:     strings.TrimSpace(text),
		ThreadTS: strings.TrimSpace(threadTS),
	})
}

// PostBlocks posts a rich block message; text is the notification fallback.
func (c *Client) PostBlocks(ctx context.Context, channelID, text, threadTS string, blocks []blockkit.Block) error {
	return c.postMessage(ctx, postMessageRequest{
		Channel:  strings.TrimSpace(channelID),
		Text:     strings.TrimSpace(text),
		ThreadTS: strings.TrimSpace(threadTS),
		Blocks:   blocks,
	})
}

func (c *Client) postMessage(ctx context.Context, payload postMessageRequest) error {
	if payload.Channel == "" {
		return fmt.Errorf("channel_id is required")
	}
	if payload.Text == "" && len(payload.Blocks) == 0 {
		return fmt.Errorf("text or blocks are required")
	}
	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var out apiEnvelope
		status, headers, err := c.callJSONStatus(ctx, c.botToken, "/chat.postMessage", payload, &out)
		if err != nil {
			lastErr = err
		} else if out.OK {
			return nil
		} else {
			lastErr = apiError("chat.postMessage", out.Error)
		}
		if attempt >= maxAttempts {
			break
		}
		wait, retryable := retryDelay(status, headers, attempt)
		if !retryable {
			break
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

// Respond posts to a response_url handed out with a slash command or
// interactive payload. These URLs carry their own authorization.
func (c *Client) Respond(ctx context.Context, responseURL, text string, blocks []blockkit.Block) error {
	responseURL = strings.TrimSpace(responseURL)
	if responseURL == "" {
		return fmt.Errorf("response_url is required")
	}
	payload := struct {
		Text   string           `json:"text,omitempty"`
		Blocks []blockkit.Block `json:"blocks,omitempty"`
	}{Text: strings.TrimSpace(text), Blocks: blocks}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack response_url http %d", resp.StatusCode)
	}
	return nil
}

// UpdateMessage replaces the blocks of an existing message.
func (c *Client) UpdateMessage(ctx context.Context, channelID, ts string, blocks []blockkit.Block) error {
	payload := struct {
		Channel string           `json:"channel"`
		TS      string           `json:"ts"`
		Blocks  []blockkit.Block `json:"blocks"`
	}{
		Channel: strings.TrimSpace(channelID),
		TS:      strings.TrimSpace(ts),
		Blocks:  blocks,
	}
	if payload.Channel == "" || payload.TS == "" {
		return fmt.Errorf("channel_id and ts are required")
	}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/chat.update", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("chat.update", out.Error)
	}
	return nil
}

// Message is one entry of a conversation history or thread.
type Message struct {
	User     string `json:"user,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
	Text     string `json:"text,omitempty"`
	TS       string `json:"ts,omitempty"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// FromBot reports whether the message was authored by a bot account.
func (m Message) FromBot() bool {
	return strings.TrimSpace(m.BotID) != ""
}

type messageListResponse struct {
	apiEnvelope
	Messages []Message `json:"messages,omitempty"`
}

// Replies fetches the full reply chain of a thread. Slack returns thread
// replies oldest-first; they are passed through as-is.
func (c *Client) Replies(ctx context.Context, channelID, threadTS string) ([]Message, error) {
	query := url.Values{}
	query.Set("channel", strings.TrimSpace(channelID))
	query.Set("ts", strings.TrimSpace(threadTS))
	query.Set("oldest", strings.TrimSpace(threadTS))
	var out messageListResponse
	if err := c.getJSON(ctx, "/conversations.replies", query, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, apiError("conversations.replies", out.Error)
	}
	return out.Messages, nil
}

// History fetches up to limit recent channel messages. Slack returns them
// newest-first; callers that need a chronological transcript must reverse.
func (c *Client) History(ctx context.Context, channelID string, limit int) ([]Message, error) {
	query := url.Values{}
	query.Set("channel", strings.TrimSpace(channelID))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out messageListResponse
	if err := c.getJSON(ctx, "/conversations.history", query, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, apiError("conversations.history", out.Error)
	}
	return out.Messages, nil
}

func (c *Client) Join(ctx context.Context, channelID string) error {
	payload := map[string]string{"channel": strings.TrimSpace(channelID)}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/conversations.join", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("conversations.join", out.Error)
	}
	return nil
}

type Channel struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (c *Client) ChannelInfo(ctx context.Context, channelID string) (Channel, error) {
	query := url.Values{}
	query.Set("channel", strings.TrimSpace(channelID))
	var out struct {
		apiEnvelope
		Channel Channel `json:"channel"`
	}
	if err := c.getJSON(ctx, "/conversations.info", query, &out); err != nil {
		return Channel{}, err
	}
	if !out.OK {
		return Channel{}, apiError("conversations.info", out.Error)
	}
	return out.Channel, nil
}

type Member struct {
	ID      string `json:"id"`
	IsBot   bool   `json:"is_bot,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Profile struct {
		Email       string `json:"email,omitempty"`
		RealName    string `json:"real_name,omitempty"`
		DisplayName string `json:"display_name,omitempty"`
	} `json:"profile"`
}

func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var out struct {
		apiEnvelope
		Members []Member `json:"members,omitempty"`
	}
	if err := c.getJSON(ctx, "/users.list", url.Values{}, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, apiError("users.list", out.Error)
	}
	return out.Members, nil
}

func (c *Client) LookupMemberByEmail(ctx context.Context, email string) (Member, error) {
	query := url.Values{}
	query.Set("email", strings.TrimSpace(email))
	var out struct {
		apiEnvelope
		User Member `json:"user"`
	}
	if err := c.getJSON(ctx, "/users.lookupByEmail", query, &out); err != nil {
		return Member{}, err
	}
	if !out.OK {
		return Member{}, apiError("users.lookupByEmail", out.Error)
	}
	return out.User, nil
}

func (c *Client) OpenView(ctx context.Context, triggerID string, view blockkit.View) error {
	payload := struct {
		TriggerID string        `json:"trigger_id"`
		View      blockkit.View `json:"view"`
	}{TriggerID: strings.TrimSpace(triggerID), View: view}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/views.open", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("views.open", out.Error)
	}
	return nil
}

func (c *Client) UpdateView(ctx context.Context, viewID string, view blockkit.View) error {
	payload := struct {
		ViewID string        `json:"view_id"`
		View   blockkit.View `json:"view"`
	}{ViewID: strings.TrimSpace(viewID), View: view}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/views.update", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("views.update", out.Error)
	}
	return nil
}

// SetStatus sets the transient "typing" indicator on an assistant thread.
func (c *Client) SetStatus(ctx context.Context, channelID, threadTS, status string) error {
	payload := map[string]string{
		"channel_id": strings.TrimSpace(channelID),
		"thread_ts":  strings.TrimSpace(threadTS),
		"status":     status,
	}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/assistant.threads.setStatus", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("assistant.threads.setStatus", out.Error)
	}
	return nil
}

func (c *Client) SetTitle(ctx context.Context, channelID, threadTS, title string) error {
	payload := map[string]string{
		"channel_id": strings.TrimSpace(channelID),
		"thread_ts":  strings.TrimSpace(threadTS),
		"title":      strings.TrimSpace(title),
	}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/assistant.threads.setTitle", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("assistant.threads.setTitle", out.Error)
	}
	return nil
}

type SuggestedPrompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (c *Client) SetSuggestedPrompts(ctx context.Context, channelID, threadTS, title string, suggestions []SuggestedPrompt) error {
	payload := struct {
		ChannelID string            `json:"channel_id"`
		ThreadTS  string            `json:"thread_ts"`
		Title     string            `json:"title,omitempty"`
		Prompts   []SuggestedPrompt `json:"prompts"`
	}{
		ChannelID: strings.TrimSpace(channelID),
		ThreadTS:  strings.TrimSpace(threadTS),
		Title:     strings.TrimSpace(title),
		Prompts:   suggestions,
	}
	var out apiEnvelope
	if _, _, err := c.callJSONStatus(ctx, c.botToken, "/assistant.threads.setSuggestedPrompts", payload, &out); err != nil {
		return err
	}
	if !out.OK {
		return apiError("assistant.threads.setSuggestedPrompts", out.Error)
	}
	return nil
}

func retryDelay(status int, headers http.Header, attempt int) (time.Duration, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := strings.TrimSpace(headers.Get("Retry-After"))
		if retryAfter == "" {
			return 1 * time.Second, true
		}
		secs, err := strconv.Atoi(retryAfter)
		if err != nil || secs <= 0 {
			return 1 * time.Second, true
		}
		return time.Duration(secs) * time.Second, true
	case status >= 500 && status <= 599:
		switch attempt {
		case 1:
			return 300 * time.Millisecond, true
		case 2:
			return 1 * time.Second, true
		default:
			return 2 * time.Second, true
		}
	default:
		return 0, false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) callJSON(ctx context.Context, token, path string, payload, out any) error {
	status, _, err := c.callJSONStatus(ctx, token, path, payload, out)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("slack %s http %d", path, status)
	}
	return nil
}

func (c *Client) callJSONStatus(ctx context.Context, token, path string, payload, out any) (int, http.Header, error) {
	if c == nil || c.http == nil {
		return 0, nil, fmt.Errorf("slack client is not initialized")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil, fmt.Errorf("slack token is required")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, resp.Header, readErr
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, resp.Header, err
		}
	}
	return resp.StatusCode, resp.Header, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("slack client is not initialized")
	}
	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack %s http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}

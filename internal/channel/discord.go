package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordChannel publishes reports to a single Discord channel through the
// REST API. No gateway connection is held; send, list and delete are plain
// HTTP calls authenticated with the bot token.
type DiscordChannel struct {
	token     string
	channelID string
	baseURL   string
	client    *http.Client

	mu     sync.Mutex
	selfID string
}

// NewDiscordChannel creates a Discord REST notification channel.
func NewDiscordChannel(token, channelID string, timeout time.Duration) *DiscordChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordChannel{
		token:     token,
		channelID: channelID,
		baseURL:   discordAPIBase,
		client:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the channel at a different API root (used by tests).
func (d *DiscordChannel) WithBaseURL(baseURL string) *DiscordChannel {
	d.baseURL = baseURL
	return d
}

func (d *DiscordChannel) Type() string { return "discord" }

// Ready verifies the token by resolving the bot's own user id. The id is
// also needed to recognize our messages when scanning channel history.
func (d *DiscordChannel) Ready(ctx context.Context) error {
	_, err := d.resolveSelfID(ctx)
	return err
}

func (d *DiscordChannel) resolveSelfID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selfID != "" {
		return d.selfID, nil
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := d.do(ctx, http.MethodGet, "/users/@me", nil, &me); err != nil {
		return "", fmt.Errorf("resolve bot user: %w", err)
	}
	d.selfID = me.ID
	return d.selfID, nil
}

func (d *DiscordChannel) Send(ctx context.Context, content string) error {
	payload := map[string]string{"content": content}
	path := fmt.Sprintf("/channels/%s/messages", d.channelID)
	if err := d.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (d *DiscordChannel) Recent(ctx context.Context, limit int) ([]Message, error) {
	selfID, err := d.resolveSelfID(ctx)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		Author  struct {
			ID string `json:"id"`
		} `json:"author"`
	}
	path := fmt.Sprintf("/channels/%s/messages?limit=%s", d.channelID, strconv.Itoa(limit))
	if err := d.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, m := range raw {
		messages = append(messages, Message{
			ID:       m.ID,
			Content:  m.Content,
			FromSelf: m.Author.ID == selfID,
		})
	}
	return messages, nil
}

func (d *DiscordChannel) Delete(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", d.channelID, messageID)
	if err := d.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (d *DiscordChannel) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Package telegram is a minimal Bot API client covering the two calls
// this service makes: sendMessage for publishing and getChatMember for
// vote eligibility checks.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests)
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New creates a Bot API client
func New(token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !api.OK {
		return nil, fmt.Errorf("%s failed: %s", method, api.Description)
	}
	return api.Result, nil
}

// SendMessage posts a text message to a chat or channel
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set("text", text)
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// ChatMemberStatus returns the membership status of a user in a chat:
// creator, administrator, member, restricted, left or kicked.
func (c *Client) ChatMemberStatus(ctx context.Context, chatID, userID string) (string, error) {
	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set("user_id", userID)
	result, err := c.call(ctx, "getChatMember", params)
	if err != nil {
		return "", err
	}
	var member struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result, &member); err != nil {
		return "", fmt.Errorf("decoding chat member: %w", err)
	}
	return member.Status, nil
}

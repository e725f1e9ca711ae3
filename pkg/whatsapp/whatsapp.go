package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	AccessToken   string        `split_words:"true"`
	PhoneNumberID string        `split_words:"true"`
	VerifyToken   string        `split_words:"true" default:"salmon_verify_123"`
	APIBase       string        `envconfig:"API_BASE" default:"https://graph.facebook.com"`
	APIVersion    string        `envconfig:"API_VERSION" default:"v22.0"`
	Timeout       time.Duration `split_words:"true" default:"10s"`
}

var ErrNotConfigured = errors.New("whatsapp outbound is not configured")

// HTTPStatusError is returned when the Graph API answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("whatsapp send: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	messagesURL string
	accessToken string
	verifyToken string
	httpClient  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.APIBase)
	if base == "" {
		base = "https://graph.facebook.com"
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("whatsapp api base: %w", err)
	}

	version := strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if version == "" {
		version = "v22.0"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		accessToken: strings.TrimSpace(cfg.AccessToken),
		verifyToken: strings.TrimSpace(cfg.VerifyToken),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if phoneID := strings.TrimSpace(cfg.PhoneNumberID); phoneID != "" {
		client.messagesURL = strings.TrimRight(base, "/") + "/" + version + "/" + url.PathEscape(phoneID) + "/messages"
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Configured reports whether outbound sends can be made.
func (c *Client) Configured() bool {
	return c != nil && c.messagesURL != "" && c.accessToken != ""
}

// VerifyToken is the token Meta must echo during webhook verification.
func (c *Client) VerifyToken() string {
	if c == nil {
		return ""
	}
	return c.verifyToken
}

type textBody struct {
	Body string `json:"body"`
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("whatsapp recipient is required")
	}

	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

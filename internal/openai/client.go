// Package openai is a small client for the image edit and chat completion
// endpoints of the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"treatviz/internal/config"
)

// Client calls the OpenAI REST API. It is safe for concurrent use.
type Client struct {
	cfg  config.OpenAIConfig
	http *resty.Client
}

var _ API = (*Client)(nil)

// New creates a client with a bounded timeout and traced transport.
func New(cfg config.OpenAIConfig) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport))
	return &Client{cfg: cfg, http: hc}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// EditImage sends the image to /images/edits. The edited image is returned
// from inline base64 data or downloaded from the returned URL.
func (c *Client) EditImage(ctx context.Context, req EditRequest) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	form := map[string]string{
		"model":  c.cfg.ImageModel,
		"prompt": req.Prompt,
	}
	if c.cfg.ImageSize != "" {
		form["size"] = c.cfg.ImageSize
	}

	var out imagesResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetMultipartField("image", req.Filename, req.MIME, bytes.NewReader(req.Image)).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr).
		Post("/images/edits")
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	if resp.IsError() {
		return nil, newError("EditImage", resp, apiErr)
	}
	if len(out.Data) == 0 {
		return nil, ErrNoImage
	}

	edited := out.Data[0]
	switch {
	case edited.B64JSON != "":
		b, err := base64.StdEncoding.DecodeString(edited.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode edited image: %w", err)
		}
		return b, nil
	case edited.URL != "":
		return c.fetch(ctx, edited.URL)
	default:
		return nil, ErrNoImage
	}
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch edited image: %w", err)
	}
	if resp.IsError() {
		return nil, &Error{
			StatusCode: resp.StatusCode(),
			Message:    "failed to fetch edited image from URL",
			Op:         "FetchImage",
		}
	}
	return resp.Body(), nil
}

// Complete posts a chat completion with a system message and one multi-part
// user message, returning the first choice's text.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	body := chatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Parts},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	var out chatCompletionResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		return "", newError("Complete", resp, apiErr)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", ErrEmptyCompletion
	}
	content := *out.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

func newError(op string, resp *resty.Response, body errorResponse) *Error {
	msg := body.Error.Message
	if msg == "" {
		msg = abbreviate(strings.TrimSpace(resp.String()), 500)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &Error{StatusCode: resp.StatusCode(), Message: msg, Op: op}
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

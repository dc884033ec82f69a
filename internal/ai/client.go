// Package ai calls the Groq chat-completions API for email summaries,
// generated replies, and digests.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.3-70b-versatile"
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
)

// Options configures the completion client. Zero values fall back to the
// package defaults.
type Options struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// NewClient creates a Groq completion client.
func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		apiKey: apiKey,
		opts:   opts,
	}
}

// Client is a minimal chat-completions client.
type Client struct {
	apiKey string
	opts   Options
}

// Summarize produces a 2-3 sentence summary of an email. On API failure it
// returns a usable fallback line instead of an error, so a flaky model never
// blocks a listing.
func (c *Client) Summarize(ctx context.Context, sender, subject, body string) string {
	prompt := summaryPrompt(sender, subject, truncate(body, 1000))

	out, err := c.complete(ctx, completionParams{
		system:      "You are a helpful assistant that summarizes emails concisely.",
		user:        prompt,
		maxTokens:   150,
		temperature: c.opts.Temperature,
	})
	if err != nil {
		log.Printf("summary generation failed: %v", err)
		return fmt.Sprintf("Summary unavailable. Subject: %s", subject)
	}

	return out
}

// GenerateReply produces a professional reply to the given email.
func (c *Client) GenerateReply(ctx context.Context, sender, subject, body string) (string, error) {
	prompt := replyPrompt(sender, subject, truncate(body, 1500))

	out, err := c.complete(ctx, completionParams{
		system:      "You are a professional email assistant that writes clear, contextually appropriate email replies.",
		user:        prompt,
		maxTokens:   c.opts.MaxTokens,
		temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete failed: %w", err)
	}

	return out, nil
}

// DigestEmail is the slice of email data the digest and categorizer prompts
// need.
type DigestEmail struct {
	Sender  string
	Subject string
	Summary string
}

// DailyDigest summarizes a batch of emails into a single digest with
// suggested follow-ups. At most twenty emails are included.
func (c *Client) DailyDigest(ctx context.Context, emails []DigestEmail) (string, error) {
	if len(emails) > 20 {
		emails = emails[:20]
	}

	out, err := c.complete(ctx, completionParams{
		system:      "You are a helpful assistant that creates email digests.",
		user:        digestPrompt(emails),
		maxTokens:   800,
		temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete failed: %w", err)
	}

	return out, nil
}

// Categorize groups emails into Work, Promotions, Personal, Urgent, or Other.
// The returned map values are 1-based indices into the input slice.
func (c *Client) Categorize(ctx context.Context, emails []DigestEmail) (map[string][]int, error) {
	out, err := c.complete(ctx, completionParams{
		system:      "You are a helpful assistant that categorizes emails. Return only valid JSON.",
		user:        categorizePrompt(emails),
		maxTokens:   500,
		temperature: 0.5,
		jsonMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("complete failed: %w", err)
	}

	var categories map[string][]int
	if err := json.Unmarshal([]byte(out), &categories); err != nil {
		return nil, fmt.Errorf("decoding categories failed: %w", err)
	}

	// Drop out-of-range indices rather than failing the whole batch.
	for cat, indices := range categories {
		valid := indices[:0]
		for _, i := range indices {
			if i >= 1 && i <= len(emails) {
				valid = append(valid, i)
			}
		}
		categories[cat] = valid
	}

	return categories, nil
}

type completionParams struct {
	system      string
	user        string
	maxTokens   int
	temperature float64
	jsonMode    bool
}

func (c *Client) complete(ctx context.Context, params completionParams) (string, error) {
	reqBody := chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: params.system},
			{Role: "user", Content: params.user},
		},
		MaxTokens:   params.maxTokens,
		Temperature: params.temperature,
	}
	if params.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpClient.Do failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("io.ReadAll failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response failed: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("response contains no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// --- Groq (OpenAI-compatible) API types ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

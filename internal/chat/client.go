package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Replier is what the handler depends on; tests fake it.
type Replier interface {
	Reply(ctx context.Context, userMessage string) (string, error)
}

// fallback when the model answers with an empty candidate list
const emptyReply = "I couldn't process that request."

type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient talks to the generateContent REST endpoint of the Google
// generative language API.
type GeminiClient struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &GeminiClient{
		client: cli,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Reply(ctx context.Context, userMessage string) (string, error) {
	var out generateContentResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(generateContentRequest{
			Contents: []content{
				{Parts: []part{{Text: userMessage}}},
			},
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))

	if err != nil {
		return "", fmt.Errorf("generate content request: %w", err)
	}

	if resp.IsError() {
		return "", errors.New("generate content: upstream returned " + resp.Status())
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return emptyReply, nil
	}

	text := out.Candidates[0].Content.Parts[0].Text

	if text == "" {
		return emptyReply, nil
	}

	return text, nil
}

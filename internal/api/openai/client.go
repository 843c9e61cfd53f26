package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/marketbrief/marketbrief/internal/api"
)

// Client wraps the OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: log.With().Str("component", "openai_client").Logger(),
	}
}

// Summarize asks the model for a short recent-news blurb about a symbol.
func (c *Client) Summarize(ctx context.Context, symbol, name string) (string, error) {
	prompt := buildPrompt(symbol, name)
	c.logger.Debug().Str("symbol", symbol).Msg("Requesting news summary")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a financial news assistant. Answer in plain prose, no markdown, no disclaimers.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("OpenAI API error")
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("OpenAI returned empty choices")
		return "", fmt.Errorf("summary for %s: %w", symbol, api.ErrMalformed)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(symbol, name string) string {
	subject := symbol
	if name != "" && name != symbol {
		subject = fmt.Sprintf("%s (%s)", name, symbol)
	}
	var sb strings.Builder
	sb.WriteString("Summarize the most notable recent news affecting ")
	sb.WriteString(subject)
	sb.WriteString(" in 2-3 sentences. Mention concrete events and figures where you know them. ")
	sb.WriteString("If nothing notable happened recently, describe the general state of the company or asset instead.")
	return sb.String()
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return api.ErrTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return api.ErrAuthFailed
		case 429:
			return api.ErrRateLimited
		}
	}
	return err
}

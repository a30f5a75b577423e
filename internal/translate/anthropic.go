package translate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Messages API with Claude
type anthropicCompleter struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

func newAnthropicCompleter(opts Options, httpClient *http.Client) *anthropicCompleter {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL+"/"))
	}

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	// the Messages API accepts temperatures up to 1
	temperature := opts.Temperature
	if temperature > 1 {
		temperature = 1
	}

	return &anthropicCompleter{
		client:      anthropic.NewClient(clientOpts...),
		model:       model,
		maxTokens:   int64(opts.MaxTokens),
		temperature: temperature,
	}
}

func (c *anthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			Temperature: anthropic.Float(c.temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return "", err
	}

	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	if responseText == "" {
		return "", fmt.Errorf("no text in Anthropic response")
	}
	return responseText, nil
}

package translate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// chat completions against OpenAI or any compatible endpoint
type openAICompleter struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func newOpenAICompleter(opts Options, httpClient *http.Client) *openAICompleter {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		// retries are handled by the translator
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL+"/"))
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAICompleter{
		client:      openai.NewClient(clientOpts...),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model:       c.model,
			MaxTokens:   openai.Int(int64(c.maxTokens)),
			Temperature: openai.Float(c.temperature),
		},
	)
	if err != nil {
		return "", err
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	responseText := completion.Choices[0].Message.Content
	if responseText == "" {
		return "", fmt.Errorf("no text in OpenAI response")
	}
	return responseText, nil
}

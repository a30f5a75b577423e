package translate

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenerateContent with Google Gemini
type geminiCompleter struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func newGeminiCompleter(
	ctx context.Context,
	opts Options,
	httpClient *http.Client,
) (*geminiCompleter, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &geminiCompleter{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(opts.Temperature)),
			MaxOutputTokens: int32(opts.MaxTokens),
		},
	}, nil
}

func (c *geminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.config)
	if err != nil {
		return "", err
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}
	if responseText == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return responseText, nil
}

package translate

import (
	"context"
	"fmt"
	"strings"
)

// sends one prompt to a chat model and returns the reply text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// translation backend on top of any chat model
type llmBackend struct {
	completer Completer
	prompt    string
}

func newLLMBackend(completer Completer, extraPrompt string) *llmBackend {
	return &llmBackend{completer: completer, prompt: extraPrompt}
}

func (b *llmBackend) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	reply, err := b.completer.Complete(
		ctx,
		buildTextPrompt(languageName(source), targetName(target), b.prompt, text),
	)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func (b *llmBackend) TranslateList(
	ctx context.Context,
	texts []string,
	source string,
	target string,
) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	reply, err := b.completer.Complete(
		ctx,
		buildListPrompt(languageName(source), targetName(target), b.prompt, texts),
	)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return parseListResponse(reply, len(texts))
}

// target language name, falling back to the raw value
func targetName(target string) string {
	if name := languageName(target); name != "" {
		return name
	}
	return target
}

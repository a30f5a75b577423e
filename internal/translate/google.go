package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const defaultGoogleBaseURL = "https://translate.googleapis.com"

// keyless web translate endpoint (client=gtx)
type googleBackend struct {
	client  *http.Client
	baseURL string
}

func newGoogleBackend(client *http.Client, baseURL string) *googleBackend {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &googleBackend{client: client, baseURL: baseURL}
}

func (b *googleBackend) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	sl := normalizeLanguage(source)
	if sl == "" {
		sl = "auto"
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sl)
	query.Set("tl", normalizeLanguage(target))
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		b.baseURL+"/translate_a/single?"+query.Encode(),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google request failed: %w", err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	// [[["translated","original",...],...],null,"en",...]
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid google response: %s", truncateString(string(body), 200))
	}
	var sb strings.Builder
	for _, part := range gjson.GetBytes(body, "0.#.0").Array() {
		sb.WriteString(part.String())
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in google response")
	}
	return sb.String(), nil
}

package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	deeplFreeBaseURL = "https://api-free.deepl.com"
	deeplProBaseURL  = "https://api.deepl.com"
)

// DeepL v2 form API, which accepts many texts per request
type deeplBackend struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func newDeepLBackend(client *http.Client, apiKey, baseURL string) *deeplBackend {
	if baseURL == "" {
		// free plan keys end in ":fx"
		baseURL = deeplProBaseURL
		if strings.HasSuffix(apiKey, ":fx") {
			baseURL = deeplFreeBaseURL
		}
	}
	return &deeplBackend{client: client, apiKey: apiKey, baseURL: baseURL}
}

func (b *deeplBackend) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	out, err := b.TranslateList(ctx, []string{text}, source, target)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (b *deeplBackend) TranslateList(
	ctx context.Context,
	texts []string,
	source string,
	target string,
) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	form := url.Values{}
	for _, text := range texts {
		form.Add("text", text)
	}
	form.Set("target_lang", deeplLanguage(target))
	if sl := deeplLanguage(source); sl != "" {
		// DeepL source languages carry no region
		form.Set("source_lang", strings.SplitN(sl, "-", 2)[0])
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		b.baseURL+"/v2/translate",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepl request failed: %w", err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid deepl response: %s", truncateString(string(body), 200))
	}
	results := gjson.GetBytes(body, "translations.#.text").Array()
	if len(results) != len(texts) {
		return nil, fmt.Errorf("expected %d results, got %d", len(texts), len(results))
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.String()
	}
	return out, nil
}

// DeepL wants upper-case codes such as "JA" or "EN-GB"
func deeplLanguage(code string) string {
	return strings.ToUpper(normalizeLanguage(code))
}

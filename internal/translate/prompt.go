package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// one entry of the JSON list exchanged with LLM backends
type promptItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// prompt for translating a list of subtitle lines as a JSON index/text array
func buildListPrompt(source, target, extra string, texts []string) string {
	var sb strings.Builder

	if source != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s subtitle texts to %s.\n\n",
			source,
			target,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following subtitle texts to %s.\n\n",
			target,
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Preserve line breaks in the same positions.\n")
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not merge, split or drop entries.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if extra != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", extra))
	}

	items := make([]promptItem, len(texts))
	for i, text := range texts {
		items[i] = promptItem{Index: i, Text: text}
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

// prompt for a single line, answered as plain text
func buildTextPrompt(source, target, extra, text string) string {
	var sb strings.Builder
	if source != "" {
		sb.WriteString(fmt.Sprintf("Translate this %s subtitle line to %s.\n", source, target))
	} else {
		sb.WriteString(fmt.Sprintf("Translate this subtitle line to %s.\n", target))
	}
	sb.WriteString("Reply with the translation only, without quotes or explanation.\n")
	if extra != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n", extra))
	}
	sb.WriteString("\n")
	sb.WriteString(text)
	return sb.String()
}

// maps the model's answer back onto the input order. Every input index
// must be present exactly once.
func parseListResponse(responseText string, expectedCount int) ([]string, error) {
	responseText = cleanJSONResponse(responseText)

	results, err := extractTranslationResults(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(responseText, 200),
		)
	}
	if len(results) != expectedCount {
		return nil, fmt.Errorf("expected %d results, got %d", expectedCount, len(results))
	}

	out := make([]string, expectedCount)
	seen := make([]bool, expectedCount)
	for _, r := range results {
		if r.Index < 0 || r.Index >= expectedCount || seen[r.Index] {
			return nil, fmt.Errorf("unexpected result index %d", r.Index)
		}
		seen[r.Index] = true
		out[r.Index] = r.Text
	}
	return out, nil
}

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// escapes backslashes that do not start a valid JSON escape (like the ASS
// line break \N) so the literal survives decoding
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

// finds the first JSON value in text that decodes to a result list, either
// bare or under a wrapper key
func extractTranslationResults(text string) ([]promptItem, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok && len(results) > 0 {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]promptItem, bool) {
	var results []promptItem
	if err := json.Unmarshal(raw, &results); err == nil && validateResults(results) {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"results", "translations", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			var fieldResults []promptItem
			if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil &&
				validateResults(fieldResults) {
				return fieldResults, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		var fieldResults []promptItem
		if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil &&
			validateResults(fieldResults) {
			return fieldResults, true
		}
	}

	return nil, false
}

// at least one result carries text
func validateResults(results []promptItem) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

const defaultGeminiModel = "gemini-2.5-flash"

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client    *genai.Client
	model     string
	options   Options
	extractor *audio.Extractor
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

func NewGeminiTranscriber(
	ctx context.Context,
	opts Options,
	extractor *audio.Extractor,
) (*GeminiTranscriber, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(opts.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiTranscriber{
		client:    client,
		model:     model,
		options:   opts,
		extractor: extractor,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := t.parseTranscriptionResponse(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	return &Result{
		Segments: segments,
		Language: t.options.Language,
		Text:     joinText(segments),
		Duration: probeDuration(ctx, t.extractor, audioPath),
		Model:    t.model,
	}, nil
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if t.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio is in %s. ", t.options.Language))
	}
	if t.options.TranscriptLanguage != "" && t.options.TranscriptLanguage != "native" {
		sb.WriteString(fmt.Sprintf("Output the transcript in %s. ", t.options.TranscriptLanguage))
	}
	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

// parses Gemini's response into segments
func (t *GeminiTranscriber) parseTranscriptionResponse(
	result *genai.GenerateContentResponse,
) ([]subtitle.Segment, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			responseText += part.Text
		}
		if responseText != "" {
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	transcript, err := extractTranscriptSegments(cleanJSONResponse(responseText))
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(responseText, 200))
	}

	segments := make([]subtitle.Segment, len(transcript))
	for i, ts := range transcript {
		segments[i] = subtitle.Segment{
			Start:    subtitle.Seconds(ts.Start),
			End:      subtitle.Seconds(ts.End),
			Text:     strings.TrimSpace(ts.Text),
			Language: t.options.Language,
		}
	}
	return segments, nil
}

// finds the first JSON value in text that holds a transcript, either a bare
// array or an array nested under any object key
func extractTranscriptSegments(text string) ([]transcriptSegment, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if segments, ok := findSegments(raw, 0); ok {
			return segments, nil
		}
	}
	return nil, fmt.Errorf("no valid transcript JSON found in response")
}

func findSegments(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	if depth > 4 {
		return nil, false
	}

	var segments []transcriptSegment
	if err := json.Unmarshal(raw, &segments); err == nil && validateSegments(segments) {
		return segments, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range []string{"segments", "transcript", "data", "results"} {
		if fieldRaw, ok := wrapper[key]; ok {
			if segments, ok := findSegments(fieldRaw, depth+1); ok {
				return segments, true
			}
		}
	}
	for _, fieldRaw := range wrapper {
		if segments, ok := findSegments(fieldRaw, depth+1); ok {
			return segments, true
		}
	}
	return nil, false
}

// at least one segment carries text or a timestamp
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

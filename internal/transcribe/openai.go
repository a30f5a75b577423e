package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

const defaultWhisperModel = "whisper-1"

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client    openai.Client
	model     string
	options   Options
	extractor *audio.Extractor
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogprob *float64 `json:"avg_logprob"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(opts Options, extractor *audio.Extractor) (*OpenAITranscriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}

	model := opts.Model
	if model == "" {
		model = defaultWhisperModel
	}

	return &OpenAITranscriber{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		options:   opts,
		extractor: extractor,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("audio file not found: %s", audioPath)
		}
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = file.Close() }()

	duration := probeDuration(ctx, t.extractor, audioPath)

	var (
		rawJSON  string
		text     string
		language string
	)
	if t.shouldUseTranslation() {
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		rawJSON, text, language = resp.RawJSON(), resp.Text, "en"
	} else {
		params := openai.AudioTranscriptionNewParams{
			File:                   file,
			Model:                  openai.AudioModel(t.model),
			ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"segment"},
		}
		if t.options.Language != "" {
			params.Language = openai.String(t.options.Language)
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Transcriptions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("transcription failed: %w", err)
		}
		rawJSON, text, language = resp.RawJSON(), resp.Text, t.options.Language
	}

	parsed, err := parseVerboseJSONResponse(rawJSON, duration)
	if err != nil {
		parsed = &Result{Segments: fallbackSegments(text, duration)}
	}
	if parsed.Language == "" {
		parsed.Language = language
	}
	if parsed.Duration == 0 {
		parsed.Duration = duration
	}
	parsed.Text = joinText(parsed.Segments)
	parsed.Model = t.model
	return parsed, nil
}

// Whisper translations always produce English
func (t *OpenAITranscriber) shouldUseTranslation() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

func parseVerboseJSONResponse(rawJSON string, fallbackDuration time.Duration) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	result := &Result{
		Language: verboseResp.Language,
		Duration: subtitle.Seconds(verboseResp.Duration),
	}

	if len(verboseResp.Segments) == 0 {
		if strings.TrimSpace(verboseResp.Text) == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		dur := fallbackDuration
		if verboseResp.Duration > 0 {
			dur = result.Duration
		}
		result.Segments = fallbackSegments(verboseResp.Text, dur)
		return result, nil
	}

	result.Segments = make([]subtitle.Segment, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		s := subtitle.Segment{
			Start:    subtitle.Seconds(seg.Start),
			End:      subtitle.Seconds(seg.End),
			Text:     text,
			Language: verboseResp.Language,
		}
		if seg.AvgLogprob != nil {
			s.Confidence = subtitle.Confidence(math.Exp(*seg.AvgLogprob))
		}
		result.Segments = append(result.Segments, s)
	}
	return result, nil
}

// whole text as one segment, used when the response carries no timing
func fallbackSegments(text string, duration time.Duration) []subtitle.Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return []subtitle.Segment{}
	}
	return []subtitle.Segment{{Start: 0, End: duration, Text: text}}
}

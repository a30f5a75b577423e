package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

// transcription result
type Result struct {
	Segments []subtitle.Segment `json:"-"`
	Language string             `json:"language"`
	Text     string             `json:"text"`
	Duration time.Duration      `json:"-"`
	Model    string             `json:"model"`
}

// MarshalJSON writes Duration as seconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		DurationSeconds float64 `json:"duration_seconds"`
	}{plain(r), r.Duration.Seconds()})
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	APIKey             string
	BaseURL            string
	Language           string // source language of the audio, empty for auto
	TranscriptLanguage string // output language of the transcript, default "native"
	Model              string
	Prompt             string

	// audio longer than ChunkDuration is split and the pieces are
	// transcribed Concurrency at a time; zero disables chunking
	ChunkDuration time.Duration
	Concurrency   int
}

// creates transcriber based on provider. The extractor is used to probe
// durations and to split long audio.
func New(
	ctx context.Context,
	provider Provider,
	opts Options,
	extractor *audio.Extractor,
	logger *logging.Logger,
) (Transcriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required for %s transcription", provider)
	}

	var (
		single Transcriber
		err    error
	)
	switch Provider(strings.ToLower(string(provider))) {
	case ProviderOpenAI, "":
		single, err = NewOpenAITranscriber(opts, extractor)
	case ProviderGemini:
		single, err = NewGeminiTranscriber(ctx, opts, extractor)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	if opts.ChunkDuration <= 0 || extractor == nil {
		return single, nil
	}
	return NewChunked(single, extractor, opts.ChunkDuration, opts.Concurrency, logger), nil
}

// joins segment texts into the full transcript
func joinText(segs []subtitle.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// best effort duration, zero when unknown
func probeDuration(ctx context.Context, extractor *audio.Extractor, path string) time.Duration {
	if extractor == nil {
		return 0
	}
	d, err := extractor.Duration(ctx, path)
	if err != nil {
		return 0
	}
	return d
}

package config

import (
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	ffmpegbin "github.com/kelriclink/VideoTranSrt/internal/ffmpeg"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/transcribe"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

// ProcessingConfig builds the run settings for one input. An empty output
// lets the pipeline derive it from the input.
func (c *Config) ProcessingConfig(input, output string) pipeline.Config {
	name := c.General.DefaultTranslator
	opts, enabled := c.TranslatorOptions(name)
	if !enabled {
		name = translate.TypeSimple
	}

	return pipeline.Config{
		InputPath:          input,
		OutputPath:         output,
		SourceLanguage:     c.Transcription.Language,
		Bilingual:          c.General.Bilingual,
		TranslatorType:     name,
		TranslatorOptions:  opts,
		ASSStyle:           c.ASSStyleConfig(),
		MergeSegments:      c.General.MergeSegments,
		MinSegmentDuration: subtitle.Seconds(c.General.MinSegmentDuration),
		MaxSegmentDuration: subtitle.Seconds(c.General.MaxSegmentDuration),
		MaxSegmentChars:    c.General.MaxSegmentChars,
		OutputFormat:       c.General.OutputFormat,
		Device:             c.Transcription.Device,
		CPUThreads:         c.Transcription.CPUThreads,
		UseGPU:             c.Transcription.UseGPU,
		ModelSize:          c.Transcription.ModelSize,
	}
}

// TranslatorOptions returns the options for the named translator and
// whether it is enabled. Names without a section get defaults and count as
// enabled.
func (c *Config) TranslatorOptions(name string) (translate.Options, bool) {
	t, ok := c.Translators[name]
	if !ok {
		return translate.DefaultOptions(), true
	}
	return translate.Options{
		Timeout:            time.Duration(t.Timeout) * time.Second,
		RetryCount:         t.RetryCount,
		InsecureSkipVerify: t.UseSSLBypass,
		APIKey:             t.APIKey,
		BaseURL:            t.BaseURL,
		Model:              t.Model,
		MaxTokens:          t.MaxTokens,
		Temperature:        t.Temperature,
		BatchMode:          t.BatchMode,
		MaxBatchChars:      t.MaxBatchChars,
		MaxBatchSegments:   t.MaxBatchSegments,
		Concurrency:        t.Concurrency,
		Prompt:             t.Prompt,
	}, t.Enabled
}

// TranscriptionOptions returns the transcriber settings. The key and base
// URL fall back to the translator section of the same provider.
func (c *Config) TranscriptionOptions() (transcribe.Provider, transcribe.Options) {
	t := c.Transcription
	shared := c.Translators[t.Provider]

	apiKey := t.APIKey
	if apiKey == "" {
		apiKey = shared.APIKey
	}
	baseURL := t.BaseURL
	if baseURL == "" {
		baseURL = shared.BaseURL
	}

	return transcribe.Provider(t.Provider), transcribe.Options{
		APIKey:             apiKey,
		BaseURL:            baseURL,
		Language:           t.Language,
		TranscriptLanguage: t.TranscriptLanguage,
		Model:              t.Model,
		Prompt:             t.Prompt,
		ChunkDuration:      time.Duration(t.ChunkMinutes) * time.Minute,
		Concurrency:        t.Concurrency,
	}
}

// ASSStyleConfig converts the [ass_style] section.
func (c *Config) ASSStyleConfig() subtitle.ASSStyle {
	s := c.ASSStyle
	return subtitle.ASSStyle{
		Name:          s.StyleName,
		FontName:      s.FontName,
		FontSize:      s.FontSize,
		PrimaryColour: s.PrimaryColor,
		Outline:       s.Outline,
		Shadow:        s.Shadow,
		Alignment:     s.Alignment,
	}
}

// Locator returns an ffmpeg locator for the [ffmpeg] section.
func (c *Config) Locator(logger *logging.Logger) *ffmpegbin.Locator {
	locator := ffmpegbin.NewLocator(c.FFmpeg.FFmpegPath, c.FFmpeg.FFprobePath, logger)
	locator.AllowDownload = c.FFmpeg.AutoDownload
	locator.CacheDir = c.FFmpeg.CacheDir
	return locator
}

// Extractor returns a speech-ready audio extractor.
func (c *Config) Extractor(logger *logging.Logger) *audio.Extractor {
	return audio.NewExtractor(c.Locator(logger), audio.DefaultOptions(), logger)
}

package config

import (
	"fmt"
	"sort"

	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/transcribe"
)

// Validate ensures the configuration is usable. Every error wraps
// pipeline.ErrConfig.
func (c *Config) Validate() error {
	if err := c.validateGeneral(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslators(); err != nil {
		return err
	}
	if err := c.ASSStyleConfig().Validate(); err != nil {
		return invalid("ass_style: %v", err)
	}
	// the run settings get the same checks the pipeline applies
	if err := c.ProcessingConfig("", "").Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneral() error {
	g := c.General
	if _, err := subtitle.ParseFormat(g.OutputFormat); err != nil {
		return invalid("general.output_format: %v", err)
	}
	if g.MinSegmentDuration < 0 {
		return invalid("general.min_segment_duration must not be negative")
	}
	if g.MaxSegmentDuration <= 0 {
		return invalid("general.max_segment_duration must be positive")
	}
	if g.MaxSegmentDuration < g.MinSegmentDuration {
		return invalid("general.max_segment_duration must not be below general.min_segment_duration")
	}
	if g.MaxSegmentChars <= 0 {
		return invalid("general.max_segment_chars must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	switch transcribe.Provider(t.Provider) {
	case transcribe.ProviderOpenAI, transcribe.ProviderGemini:
	default:
		return invalid("transcription.provider %q: use openai or gemini", t.Provider)
	}
	if t.CPUThreads < 1 {
		return invalid("transcription.cpu_threads must be at least 1")
	}
	if t.ChunkMinutes < 0 {
		return invalid("transcription.chunk_minutes must not be negative")
	}
	if t.Concurrency < 1 {
		return invalid("transcription.concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateTranslators() error {
	names := make([]string, 0, len(c.Translators))
	for name := range c.Translators {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := c.Translators[name]
		if t.Timeout < 0 {
			return invalid("translators.%s.timeout must be positive", name)
		}
		if t.RetryCount < 0 {
			return invalid("translators.%s.retry_count must not be negative", name)
		}
		if t.Temperature < 0 || t.Temperature > 2 {
			return invalid("translators.%s.temperature must be between 0 and 2", name)
		}
		if t.MaxTokens < 0 || t.MaxBatchChars < 0 || t.MaxBatchSegments < 0 || t.Concurrency < 0 {
			return invalid("translators.%s limits must be positive", name)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", pipeline.ErrConfig, fmt.Sprintf(format, args...))
}

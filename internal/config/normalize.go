package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

// provider environment variables; a non-empty value overrides the file
var apiKeyEnv = map[string]string{
	translate.TypeOpenAI:    "OPENAI_API_KEY",
	translate.TypeAnthropic: "ANTHROPIC_API_KEY",
	translate.TypeGemini:    "GEMINI_API_KEY",
	translate.TypeDeepL:     "DEEPL_API_KEY",
}

func (c *Config) normalize() error {
	c.normalizeGeneral()
	c.normalizeTranscription()
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	c.normalizeTranslators()
	c.normalizeASSStyle()
	return nil
}

func (c *Config) normalizeGeneral() {
	c.General.DefaultTranslator = strings.ToLower(strings.TrimSpace(c.General.DefaultTranslator))
	if c.General.DefaultTranslator == "" {
		c.General.DefaultTranslator = defaultTranslator
	}
	c.General.OutputFormat = strings.ToLower(strings.TrimSpace(c.General.OutputFormat))
	if c.General.OutputFormat == "" {
		c.General.OutputFormat = defaultOutputFormat
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	if t.Provider == "" {
		t.Provider = defaultProvider
	}
	t.APIKey = strings.TrimSpace(t.APIKey)
	t.BaseURL = strings.TrimSpace(t.BaseURL)
	t.Model = strings.TrimSpace(t.Model)
	t.Language = strings.TrimSpace(t.Language)
	t.TranscriptLanguage = strings.TrimSpace(t.TranscriptLanguage)
	if t.TranscriptLanguage == "" {
		t.TranscriptLanguage = defaultTranscriptLanguage
	}
	t.Device = strings.ToLower(strings.TrimSpace(t.Device))
	if t.Device == "" {
		t.Device = defaultDevice
	}
	t.ModelSize = strings.ToLower(strings.TrimSpace(t.ModelSize))
	if t.ModelSize == "" {
		t.ModelSize = defaultModelSize
	}
	if t.Concurrency == 0 {
		t.Concurrency = defaultConcurrency
	}
}

func (c *Config) normalizeFFmpeg() error {
	var err error
	if c.FFmpeg.FFmpegPath, err = expandPath(strings.TrimSpace(c.FFmpeg.FFmpegPath)); err != nil {
		return fmt.Errorf("ffmpeg.ffmpeg_path: %w", err)
	}
	if c.FFmpeg.FFprobePath, err = expandPath(strings.TrimSpace(c.FFmpeg.FFprobePath)); err != nil {
		return fmt.Errorf("ffmpeg.ffprobe_path: %w", err)
	}
	if c.FFmpeg.CacheDir, err = expandPath(strings.TrimSpace(c.FFmpeg.CacheDir)); err != nil {
		return fmt.Errorf("ffmpeg.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslators() {
	if c.Translators == nil {
		c.Translators = make(map[string]Translator)
	}

	normalized := make(map[string]Translator, len(c.Translators))
	for name, t := range c.Translators {
		name = strings.ToLower(strings.TrimSpace(name))
		t.APIKey = strings.TrimSpace(t.APIKey)
		t.BaseURL = strings.TrimSpace(t.BaseURL)
		t.Model = strings.TrimSpace(t.Model)
		if t.Timeout == 0 {
			t.Timeout = defaultTranslatorTimeout
		}
		if t.MaxTokens == 0 {
			t.MaxTokens = translate.DefaultMaxTokens
		}
		if t.MaxBatchChars == 0 {
			t.MaxBatchChars = translate.DefaultMaxBatchChars
		}
		if t.MaxBatchSegments == 0 {
			t.MaxBatchSegments = translate.DefaultMaxBatchSegments
		}
		if t.Concurrency == 0 {
			t.Concurrency = translate.DefaultConcurrency
		}
		normalized[name] = t
	}

	for name, env := range apiKeyEnv {
		value, ok := os.LookupEnv(env)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		t, exists := normalized[name]
		if !exists {
			t = defaultTranslatorSection()
		}
		t.APIKey = strings.TrimSpace(value)
		normalized[name] = t
	}

	c.Translators = normalized
}

func (c *Config) normalizeASSStyle() {
	s := &c.ASSStyle
	s.StyleName = strings.TrimSpace(s.StyleName)
	s.FontName = strings.TrimSpace(s.FontName)
	s.PrimaryColor = strings.TrimSpace(s.PrimaryColor)
}

package config

import (
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

const (
	defaultTranslator         = translate.TypeSimple
	defaultOutputFormat       = "srt"
	defaultMinSegmentDuration = 1.0
	defaultMaxSegmentDuration = 30.0
	defaultMaxSegmentChars    = 500

	defaultProvider           = "openai"
	defaultTranscriptLanguage = "native"
	defaultDevice             = "auto"
	defaultCPUThreads         = 4
	defaultModelSize          = "base"
	defaultChunkMinutes       = 10
	defaultConcurrency        = 3

	defaultTranslatorTimeout = 15
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	style := subtitle.DefaultASSStyle()
	translators := make(map[string]Translator, len(translate.Types()))
	for _, name := range translate.Types() {
		translators[name] = defaultTranslatorSection()
	}

	return Config{
		General: General{
			DefaultTranslator:  defaultTranslator,
			OutputFormat:       defaultOutputFormat,
			MinSegmentDuration: defaultMinSegmentDuration,
			MaxSegmentDuration: defaultMaxSegmentDuration,
			MaxSegmentChars:    defaultMaxSegmentChars,
		},
		Transcription: Transcription{
			Provider:           defaultProvider,
			TranscriptLanguage: defaultTranscriptLanguage,
			Device:             defaultDevice,
			CPUThreads:         defaultCPUThreads,
			ModelSize:          defaultModelSize,
			ChunkMinutes:       defaultChunkMinutes,
			Concurrency:        defaultConcurrency,
		},
		FFmpeg: FFmpeg{
			AutoDownload: true,
		},
		Translators: translators,
		ASSStyle: ASSStyle{
			StyleName:    style.Name,
			FontName:     style.FontName,
			FontSize:     style.FontSize,
			PrimaryColor: style.PrimaryColour,
			Outline:      style.Outline,
			Shadow:       style.Shadow,
			Alignment:    style.Alignment,
		},
	}
}

func defaultTranslatorSection() Translator {
	return Translator{
		Enabled:          true,
		Timeout:          defaultTranslatorTimeout,
		RetryCount:       translate.DefaultRetryCount,
		MaxTokens:        translate.DefaultMaxTokens,
		Temperature:      translate.DefaultTemperature,
		MaxBatchChars:    translate.DefaultMaxBatchChars,
		MaxBatchSegments: translate.DefaultMaxBatchSegments,
		Concurrency:      translate.DefaultConcurrency,
	}
}

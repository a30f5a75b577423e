package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelriclink/VideoTranSrt/internal/config"
	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
	"github.com/kelriclink/VideoTranSrt/internal/transcribe"
)

var generateCmd = &cobra.Command{
	Use:   "generate [media_file]",
	Short: "Generate subtitles for an audio or video file",
	Long: `Generate subtitles for the specified audio or video file.

The command accepts both audio files (mp3, wav, aac, etc.) and video files (mp4, mkv, etc.).
Audio is extracted with ffmpeg as 16 kHz mono before transcription.

Long audio is split into chunks and transcribed in parallel. The transcript can be
translated with --translate-to and written as SRT, VTT, or ASS, optionally bilingual.

Examples:
  videotransrt generate video.mp4
  videotransrt generate audio.mp3 --format vtt
  videotransrt generate video.mp4 --translate-to zh --translator openai --bilingual
  videotransrt generate podcast.mp3 -f ass --provider gemini --chunk-duration 5`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addRunFlags(generateCmd)
}

// flags shared by generate and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("format", "f", "", "Output subtitle format (srt, vtt, ass)")
	cmd.Flags().
		StringP("translate-to", "t", "", "Translate subtitles into this language")
	cmd.Flags().
		String("translator", "", "Translator (simple, google, deepl, openai, anthropic, gemini)")
	cmd.Flags().
		Bool("bilingual", false, "Write original and translated text together")
	cmd.Flags().
		Bool("merge", false, "Merge neighbouring segments up to the configured limits")
	cmd.Flags().
		String("provider", "", "Transcription provider (openai, gemini)")
	cmd.Flags().
		StringP("api-key", "k", "", "Transcription API key (or set OPENAI_API_KEY/GEMINI_API_KEY env var)")
	cmd.Flags().
		String("model", "", "Transcription model (provider-specific, uses sensible defaults)")
	cmd.Flags().
		IntP("chunk-duration", "d", 0, "Chunk duration in minutes for splitting long audio")
	cmd.Flags().
		Int("concurrency", 0, "Number of parallel transcription workers")
	cmd.Flags().
		String("transcript-language", "", "Output language for transcript ('native' or 'english')")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	controller, err := newController(ctx, cfg, cmd)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	pc := processingConfig(cmd, cfg, mediaPath, outputPath)

	logger.Infow("Starting subtitle generation",
		"input", mediaPath,
		"output", pc.ResolvedOutputPath(),
		"format", pc.OutputFormat,
		"translate_to", pc.TranslateTo,
		"translator", pc.TranslatorType,
	)

	res := controller.Run(ctx, pc)
	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintf(cmd.OutOrStdout(), "Subtitles generated successfully: %s\n", res.OutputPath)
		fmt.Fprintln(cmd.OutOrStdout(), resultSummary(res))
	}
	if !res.Success {
		return res.Err
	}
	return nil
}

// copies changed flags into the loaded configuration
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.General.OutputFormat, _ = flags.GetString("format")
	}
	if flags.Changed("translator") {
		name, _ := flags.GetString("translator")
		cfg.General.DefaultTranslator = strings.ToLower(strings.TrimSpace(name))
	}
	if flags.Changed("bilingual") {
		cfg.General.Bilingual, _ = flags.GetBool("bilingual")
	}
	if flags.Changed("merge") {
		cfg.General.MergeSegments, _ = flags.GetBool("merge")
	}
	if flags.Changed("provider") {
		provider, _ := flags.GetString("provider")
		cfg.Transcription.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	if flags.Changed("api-key") {
		cfg.Transcription.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("model") {
		cfg.Transcription.Model, _ = flags.GetString("model")
	}
	if flags.Changed("chunk-duration") {
		cfg.Transcription.ChunkMinutes, _ = flags.GetInt("chunk-duration")
	}
	if flags.Changed("concurrency") {
		cfg.Transcription.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("transcript-language") {
		cfg.Transcription.TranscriptLanguage, _ = flags.GetString("transcript-language")
	}
	if flags.Changed("language") {
		cfg.Transcription.Language, _ = flags.GetString("language")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Transcription.Provider == string(transcribe.ProviderOpenAI) &&
		!isValidOpenAITranscriptLanguage(cfg.Transcription.TranscriptLanguage) {
		return fmt.Errorf(
			"OpenAI transcription only supports 'native' or 'english' transcript language, got %q",
			cfg.Transcription.TranscriptLanguage,
		)
	}
	return nil
}

// Whisper either keeps the spoken language or translates into English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

var providerKeyEnv = map[transcribe.Provider]string{
	transcribe.ProviderOpenAI: "OPENAI_API_KEY",
	transcribe.ProviderGemini: "GEMINI_API_KEY",
}

func newController(
	ctx context.Context,
	cfg *config.Config,
	cmd *cobra.Command,
) (*pipeline.Controller, error) {
	provider, opts := cfg.TranscriptionOptions()
	if opts.APIKey == "" {
		return nil, fmt.Errorf(
			"%s API key is required: use --api-key flag, set transcription.api_key, or set %s environment variable",
			provider,
			providerKeyEnv[provider],
		)
	}

	extractor := cfg.Extractor(logger)
	transcriber, err := transcribe.New(ctx, provider, opts, extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	return pipeline.New(extractor, transcriber, logger,
		pipeline.WithProgress(newProgress(cmd.ErrOrStderr())),
	), nil
}

func processingConfig(
	cmd *cobra.Command,
	cfg *config.Config,
	input, output string,
) pipeline.Config {
	pc := cfg.ProcessingConfig(input, output)
	pc.TranslateTo, _ = cmd.Flags().GetString("translate-to")
	if pc.TranslateTo != "" && pc.TranslatorType != cfg.General.DefaultTranslator {
		logger.Warnw("Translator is disabled in config, using passthrough",
			"translator", cfg.General.DefaultTranslator,
		)
	}
	return pc
}

// elapsed time of a batch, for the closing line
func since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

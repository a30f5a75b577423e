package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate an existing subtitle file",
	Long: `Translate an existing subtitle file to another language.

Supports SRT, VTT, and ASS/SSA input. Timings are kept; for ASS files the first
style of the input is reused. The output format defaults to the input format.

The --bilingual flag writes the original text with the translation on the
next line.

Examples:
  videotransrt translate video.srt --target-language ja
  videotransrt translate video.ass -t ja --bilingual --translator gemini
  videotransrt translate video.vtt -l en -t es -f srt -o translated.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addTranslateFlags(translateCmd)
	_ = translateCmd.MarkFlagRequired("target-language")
}

func addTranslateFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	cmd.Flags().
		Bool("bilingual", false, "Keep the original text above the translation")
	cmd.Flags().
		String("translator", "", "Translator (google, deepl, openai, anthropic, gemini); defaults to the configured one")
	cmd.Flags().
		StringP("api-key", "k", "", "Translator API key (or set the provider's env var)")
	cmd.Flags().
		String("model", "", "Model to use for LLM translators")
	cmd.Flags().
		StringP("format", "f", "", "Output subtitle format (srt, vtt, ass); defaults to the input format")
	cmd.Flags().
		Int("concurrency", 0, "Number of parallel translation requests")
	cmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request (enables batch mode)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := context.Background()

	targetLang, _ := cmd.Flags().GetString("target-language")
	bilingual, _ := cmd.Flags().GetBool("bilingual")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")
	formatStr, _ := cmd.Flags().GetString("format")

	if !fileExists(subtitlePath) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}
	if _, ok := subtitle.FormatFromPath(subtitlePath); !ok {
		return fmt.Errorf(
			"unsupported subtitle format %q: use .srt, .vtt, .ass, or .ssa",
			filepath.Ext(subtitlePath),
		)
	}

	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), targetLang) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := cfg.General.DefaultTranslator
	if cmd.Flags().Changed("translator") {
		name, _ = cmd.Flags().GetString("translator")
		name = strings.ToLower(strings.TrimSpace(name))
	}
	opts, enabled := cfg.TranslatorOptions(name)
	if !enabled {
		logger.Warnw("Translator is disabled in config, using passthrough", "translator", name)
		name = translate.TypeSimple
	}
	if err := applyTranslatorFlags(cmd, &opts); err != nil {
		return err
	}

	logger.Infow("Parsing subtitle file")
	doc, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(doc.Segments) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}
	logger.Infow("Parsed subtitle file",
		"entries", len(doc.Segments),
		"format", doc.Format,
	)

	format := doc.Format
	if formatStr != "" {
		if format, err = subtitle.ParseFormat(formatStr); err != nil {
			return err
		}
	}

	if outputPath == "" {
		outputPath = defaultTranslationPath(subtitlePath, targetLang, format, bilingual)
	}

	style := cfg.ASSStyleConfig()
	if doc.Style != nil {
		style = *doc.Style
	}
	renderer, err := subtitle.NewRenderer(format, subtitle.WithASSStyle(style))
	if err != nil {
		return err
	}

	logger.Infow("Translating subtitles",
		"items", len(doc.Segments),
		"translator", name,
		"target_language", targetLang,
	)
	translator := translate.New(ctx, name, opts, logger)
	result := translator.Translate(ctx, doc.Segments, targetLang, inputLang)
	if result.Fallbacks > 0 {
		logger.Warnw("Some entries kept their original text",
			"fallbacks", result.Fallbacks,
			"entries", len(doc.Segments),
		)
	}

	var content string
	if bilingual {
		content = renderer.RenderBilingual(doc.Segments, result.Segments)
	} else {
		content = renderer.Render(result.Segments)
	}

	logger.Infow("Writing output file")
	if err := subtitle.WriteFile(outputPath, content); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), struct {
			OutputPath string `json:"output_path"`
			Entries    int    `json:"entries"`
			translate.Result
		}{outputPath, len(doc.Segments), result})
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", len(doc.Segments))
	fmt.Fprintf(out, "  Target language: %s\n", targetLang)
	fmt.Fprintf(out, "  Translator: %s\n", result.Translator)
	if result.Fallbacks > 0 {
		fmt.Fprintf(out, "  Untranslated entries: %d\n", result.Fallbacks)
	}
	if bilingual {
		fmt.Fprintf(out, "  Mode: bilingual\n")
	}

	return nil
}

func applyTranslatorFlags(cmd *cobra.Command, opts *translate.Options) error {
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		opts.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("model") {
		opts.Model, _ = flags.GetString("model")
	}
	if flags.Changed("concurrency") {
		concurrency, _ := flags.GetInt("concurrency")
		if concurrency <= 0 {
			return fmt.Errorf("concurrency must be positive, got %d", concurrency)
		}
		opts.Concurrency = concurrency
	}
	if flags.Changed("batch-size") {
		batchSize, _ := flags.GetInt("batch-size")
		if batchSize <= 0 {
			return fmt.Errorf("batch-size must be positive, got %d", batchSize)
		}
		opts.BatchMode = true
		opts.MaxBatchSegments = batchSize
	}
	return nil
}

// <base>.<target>[.bilingual].<ext>
func defaultTranslationPath(input, target string, format subtitle.Format, bilingual bool) string {
	baseName := strings.TrimSuffix(input, filepath.Ext(input))
	if bilingual {
		return fmt.Sprintf("%s.%s.bilingual%s", baseName, target, format.Extension())
	}
	return fmt.Sprintf("%s.%s%s", baseName, target, format.Extension())
}

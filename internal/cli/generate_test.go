package cli

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelriclink/VideoTranSrt/internal/config"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

func TestIsValidOpenAITranscriptLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		// Valid cases
		{"", true},
		{"native", true},
		{"Native", true},
		{" native ", true},
		{"english", true},
		{"ENGLISH", true},
		{"en", true},
		{" en ", true},

		// Invalid cases - non-English languages
		{"spanish", false},
		{"french", false},
		{"japanese", false},
		{"es", false},
		{"zh", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := isValidOpenAITranscriptLanguage(tt.lang)
			if got != tt.want {
				t.Errorf(
					"isValidOpenAITranscriptLanguage(%q) = %v, want %v",
					tt.lang,
					got,
					tt.want,
				)
			}
		})
	}
}

func newRunTestCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	logger = logging.Nop()
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	cmd.Flags().StringP("language", "l", "", "")
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set flag %s: %v", name, err)
		}
	}
	return cmd
}

func TestApplyRunFlags(t *testing.T) {
	cmd := newRunTestCmd(t, map[string]string{
		"format":         "vtt",
		"translator":     " OpenAI ",
		"bilingual":      "true",
		"merge":          "true",
		"provider":       "gemini",
		"api-key":        "sk-flag",
		"chunk-duration": "5",
		"concurrency":    "2",
		"language":       "ja",
	})
	cfg := config.Default()
	if err := applyRunFlags(cmd, &cfg); err != nil {
		t.Fatalf("applyRunFlags() error = %v", err)
	}

	if cfg.General.OutputFormat != "vtt" {
		t.Errorf("OutputFormat = %q, want vtt", cfg.General.OutputFormat)
	}
	if cfg.General.DefaultTranslator != translate.TypeOpenAI {
		t.Errorf("DefaultTranslator = %q, want openai", cfg.General.DefaultTranslator)
	}
	if !cfg.General.Bilingual || !cfg.General.MergeSegments {
		t.Errorf("bilingual/merge not applied: %+v", cfg.General)
	}
	if cfg.Transcription.Provider != "gemini" || cfg.Transcription.APIKey != "sk-flag" {
		t.Errorf("transcription = %+v", cfg.Transcription)
	}
	if cfg.Transcription.ChunkMinutes != 5 || cfg.Transcription.Concurrency != 2 {
		t.Errorf("chunking = %d/%d, want 5/2", cfg.Transcription.ChunkMinutes, cfg.Transcription.Concurrency)
	}
	if cfg.Transcription.Language != "ja" {
		t.Errorf("Language = %q, want ja", cfg.Transcription.Language)
	}
}

func TestApplyRunFlagsRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"format", map[string]string{"format": "txt"}},
		{"concurrency", map[string]string{"concurrency": "0"}},
		{"openai transcript language", map[string]string{"provider": "openai", "transcript-language": "spanish"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRunTestCmd(t, tt.flags)
			cfg := config.Default()
			if err := applyRunFlags(cmd, &cfg); err == nil {
				t.Fatal("applyRunFlags() error = nil, want error")
			}
		})
	}
}

func TestApplyRunFlagsGeminiAllowsAnyTranscriptLanguage(t *testing.T) {
	cmd := newRunTestCmd(t, map[string]string{"provider": "gemini", "transcript-language": "spanish"})
	cfg := config.Default()
	if err := applyRunFlags(cmd, &cfg); err != nil {
		t.Fatalf("applyRunFlags() error = %v", err)
	}
}

func TestProcessingConfigUsesTranslateFlag(t *testing.T) {
	cmd := newRunTestCmd(t, map[string]string{"translate-to": "fr"})
	cfg := config.Default()

	pc := processingConfig(cmd, &cfg, "talk.mp4", "")
	if pc.TranslateTo != "fr" {
		t.Errorf("TranslateTo = %q, want fr", pc.TranslateTo)
	}
	if pc.InputPath != "talk.mp4" {
		t.Errorf("InputPath = %q, want talk.mp4", pc.InputPath)
	}
	if got := pc.ResolvedOutputPath(); got != "talk.srt" {
		t.Errorf("ResolvedOutputPath() = %q, want talk.srt", got)
	}
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.mp3", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := collectInputs([]string{dir, "missing.wav"})
	if err != nil {
		t.Fatalf("collectInputs() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.mkv"),
		"missing.wav",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectInputs() = %v, want %v", got, want)
	}
}

func TestResultsTable(t *testing.T) {
	results := []*pipeline.Result{
		{
			Success:        true,
			InputPath:      "/media/talk.mp4",
			OutputPath:     "/media/talk.srt",
			Segments:       12,
			OutputBytes:    2048,
			Translation:    &translate.Result{Fallbacks: 1234},
			ProcessingTime: 1500 * time.Millisecond,
		},
		{
			InputPath:    "/media/broken.mp4",
			ErrorMessage: "stage failure: transcription",
			Err:          errors.New("boom"),
		},
	}

	out := resultsTable(results)
	for _, want := range []string{"talk.mp4", "/media/talk.srt", "2.0 kB", "1,234", "1.5s", "OK", "FAILED: stage failure: transcription"} {
		if !strings.Contains(out, want) {
			t.Errorf("resultsTable() missing %q:\n%s", want, out)
		}
	}
}

func TestFallbacksLabel(t *testing.T) {
	if got := fallbacksLabel(&pipeline.Result{}); got != "-" {
		t.Errorf("fallbacksLabel(no translation) = %q, want -", got)
	}
	res := &pipeline.Result{Translation: &translate.Result{Fallbacks: 3}}
	if got := fallbacksLabel(res); got != "3" {
		t.Errorf("fallbacksLabel() = %q, want 3", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Errorf("renderTable() = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable() without headers should be empty")
	}
}

func TestFormatsTable(t *testing.T) {
	out := formatsTable(subtitle.Formats())
	for _, want := range []string{"SubRip", "WebVTT", ".ass", "text/vtt"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatsTable() missing %q:\n%s", want, out)
		}
	}
}

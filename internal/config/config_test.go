package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/kelriclink/VideoTranSrt/internal/config"
	"github.com/kelriclink/VideoTranSrt/internal/pipeline"
	"github.com/kelriclink/VideoTranSrt/internal/transcribe"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

// clears provider keys so the host environment cannot leak in
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "DEEPL_API_KEY"} {
		t.Setenv(env, "")
	}
	t.Chdir(t.TempDir())
	return home
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videotransrt.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "videotransrt", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.General.DefaultTranslator != translate.TypeSimple {
		t.Fatalf("unexpected default translator %q", cfg.General.DefaultTranslator)
	}
	if cfg.General.OutputFormat != "srt" {
		t.Fatalf("unexpected output format %q", cfg.General.OutputFormat)
	}
	if cfg.Transcription.Provider != "openai" || cfg.Transcription.CPUThreads != 4 {
		t.Fatalf("unexpected transcription defaults %+v", cfg.Transcription)
	}
	if !cfg.FFmpeg.AutoDownload {
		t.Fatal("expected ffmpeg auto download by default")
	}
	for _, name := range translate.Types() {
		section, ok := cfg.Translators[name]
		if !ok {
			t.Fatalf("missing default section for %s", name)
		}
		if !section.Enabled || section.Timeout != 15 || section.RetryCount != 3 {
			t.Fatalf("unexpected defaults for %s: %+v", name, section)
		}
	}
}

func TestLoadProjectFile(t *testing.T) {
	isolateEnv(t)
	if err := os.WriteFile("videotransrt.toml", []byte("[general]\noutput_format = \"vtt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "videotransrt.toml" {
		t.Fatalf("expected project file, got %q exists=%v", resolved, exists)
	}
	if cfg.General.OutputFormat != "vtt" {
		t.Fatalf("expected vtt, got %q", cfg.General.OutputFormat)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
[general]
default_translator = "OpenAI"
output_format = "ASS"
bilingual = true
min_segment_duration = 0.5

[transcription]
provider = "gemini"
chunk_minutes = 5

[translators.openai]
api_key = "file-key"
model = "gpt-4o"
batch_mode = true

[ass_style]
font_name = "Noto Sans"
font_size = 48
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.General.DefaultTranslator != "openai" || cfg.General.OutputFormat != "ass" {
		t.Fatalf("expected lower-cased names, got %+v", cfg.General)
	}

	openai := cfg.Translators["openai"]
	if openai.APIKey != "file-key" || openai.Model != "gpt-4o" || !openai.BatchMode {
		t.Fatalf("unexpected openai section %+v", openai)
	}
	if openai.Timeout != 15 || openai.MaxBatchSegments != translate.DefaultMaxBatchSegments {
		t.Fatalf("expected defaults to survive a partial section, got %+v", openai)
	}

	pc := cfg.ProcessingConfig("in.mp4", "")
	if pc.TranslatorType != "openai" || pc.TranslatorOptions.APIKey != "file-key" {
		t.Fatalf("unexpected translator settings %+v", pc)
	}
	if pc.MinSegmentDuration != 500*time.Millisecond || pc.MaxSegmentDuration != 30*time.Second {
		t.Fatalf("unexpected durations %v %v", pc.MinSegmentDuration, pc.MaxSegmentDuration)
	}
	if pc.ASSStyle.FontName != "Noto Sans" || pc.ASSStyle.FontSize != 48 || pc.ASSStyle.Alignment != 2 {
		t.Fatalf("unexpected ass style %+v", pc.ASSStyle)
	}
	if !pc.Bilingual || pc.Format() != "ass" {
		t.Fatalf("unexpected output settings %+v", pc)
	}
	if err := pc.Validate(); err != nil {
		t.Fatalf("processing config invalid: %v", err)
	}

	provider, topts := cfg.TranscriptionOptions()
	if provider != transcribe.ProviderGemini || topts.ChunkDuration != 5*time.Minute {
		t.Fatalf("unexpected transcription options %v %+v", provider, topts)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
[translators.openai]
api_key = "file-openai"

[translators.deepl]
api_key = "file-deepl"
`)
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Translators["openai"].APIKey; got != "env-openai" {
		t.Errorf("expected openai key from env, got %q", got)
	}
	if got := cfg.Translators["anthropic"].APIKey; got != "env-anthropic" {
		t.Errorf("expected anthropic key from env, got %q", got)
	}
	if got := cfg.Translators["deepl"].APIKey; got != "file-deepl" {
		t.Errorf("expected deepl key from file, got %q", got)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolateEnv(t)
	if err := os.WriteFile(".env", []byte("GEMINI_API_KEY=dotenv-gemini\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_API_KEY", "placeholder")
	if err := os.Unsetenv("GEMINI_API_KEY"); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Translators["gemini"].APIKey; got != "dotenv-gemini" {
		t.Fatalf("expected key from .env, got %q", got)
	}
}

func TestTranscriptionKeyFallsBackToTranslator(t *testing.T) {
	cfg := config.Default()
	section := cfg.Translators["openai"]
	section.APIKey = "shared"
	section.BaseURL = "http://localhost:8080/v1"
	cfg.Translators["openai"] = section

	_, opts := cfg.TranscriptionOptions()
	if opts.APIKey != "shared" || opts.BaseURL != "http://localhost:8080/v1" {
		t.Fatalf("expected shared credentials, got %+v", opts)
	}

	cfg.Transcription.APIKey = "own"
	if _, opts := cfg.TranscriptionOptions(); opts.APIKey != "own" {
		t.Fatalf("expected own key, got %q", opts.APIKey)
	}
}

func TestDisabledTranslatorFallsBackToSimple(t *testing.T) {
	cfg := config.Default()
	cfg.General.DefaultTranslator = "deepl"
	section := cfg.Translators["deepl"]
	section.Enabled = false
	cfg.Translators["deepl"] = section

	if got := cfg.ProcessingConfig("a.mp4", "").TranslatorType; got != translate.TypeSimple {
		t.Fatalf("expected simple, got %q", got)
	}
}

func TestTranslatorOptionsConversion(t *testing.T) {
	cfg := config.Default()
	section := cfg.Translators["google"]
	section.Timeout = 7
	section.UseSSLBypass = true
	cfg.Translators["google"] = section

	opts, enabled := cfg.TranslatorOptions("google")
	if !enabled || opts.Timeout != 7*time.Second || !opts.InsecureSkipVerify {
		t.Fatalf("unexpected options %+v enabled=%v", opts, enabled)
	}

	opts, enabled = cfg.TranslatorOptions("simple")
	if !enabled || opts.Timeout != translate.DefaultTimeout {
		t.Fatalf("expected defaults for a name without a section, got %+v", opts)
	}
}

func TestCreateSample(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_openai_api_key_here") {
		t.Fatalf("sample config missing placeholder key: %s", contents)
	}

	var raw config.Config
	if err := toml.Unmarshal(contents, &raw); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if !exists || cfg.Translators["openai"].Model != "gpt-4o-mini" {
		t.Fatalf("unexpected sample contents %+v", cfg.Translators["openai"])
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "[general\noutput_format = ")
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"output format", func(c *config.Config) { c.General.OutputFormat = "mp4" }},
		{"negative min duration", func(c *config.Config) { c.General.MinSegmentDuration = -1 }},
		{"max below min", func(c *config.Config) { c.General.MaxSegmentDuration = 0.5 }},
		{"max chars", func(c *config.Config) { c.General.MaxSegmentChars = 0 }},
		{"provider", func(c *config.Config) { c.Transcription.Provider = "whisper-cpp" }},
		{"cpu threads", func(c *config.Config) { c.Transcription.CPUThreads = 0 }},
		{"device", func(c *config.Config) { c.Transcription.Device = "tpu" }},
		{"model size", func(c *config.Config) { c.Transcription.ModelSize = "gigantic" }},
		{"chunk minutes", func(c *config.Config) { c.Transcription.ChunkMinutes = -1 }},
		{"temperature", func(c *config.Config) {
			s := c.Translators["openai"]
			s.Temperature = 3
			c.Translators["openai"] = s
		}},
		{"retry count", func(c *config.Config) {
			s := c.Translators["google"]
			s.RetryCount = -1
			c.Translators["google"] = s
		}},
		{"ass alignment", func(c *config.Config) { c.ASSStyle.Alignment = 10 }},
		{"ass font size", func(c *config.Config) { c.ASSStyle.FontSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, pipeline.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

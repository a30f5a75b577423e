package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultConfigPath = "~/.config/videotransrt/config.toml"
	projectConfigName = "videotransrt.toml"
	dotEnvFile        = ".env"
)

// General contains output and segment shaping settings.
type General struct {
	DefaultTranslator  string  `toml:"default_translator"`
	OutputFormat       string  `toml:"output_format"`
	Bilingual          bool    `toml:"bilingual"`
	MergeSegments      bool    `toml:"merge_segments"`
	MinSegmentDuration float64 `toml:"min_segment_duration"` // seconds
	MaxSegmentDuration float64 `toml:"max_segment_duration"` // seconds
	MaxSegmentChars    int     `toml:"max_segment_chars"`
}

// Transcription contains speech recognition settings.
type Transcription struct {
	Provider           string `toml:"provider"`
	APIKey             string `toml:"api_key"`  // falls back to the provider's translator key
	BaseURL            string `toml:"base_url"` // falls back to the provider's translator base URL
	Model              string `toml:"model"`
	Language           string `toml:"language"`
	TranscriptLanguage string `toml:"transcript_language"`
	Prompt             string `toml:"prompt"`
	Device             string `toml:"device"`
	CPUThreads         int    `toml:"cpu_threads"`
	UseGPU             bool   `toml:"use_gpu"`
	ModelSize          string `toml:"model_size"`
	ChunkMinutes       int    `toml:"chunk_minutes"` // 0 disables chunking
	Concurrency        int    `toml:"concurrency"`
}

// FFmpeg contains external binary locations.
type FFmpeg struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	AutoDownload bool   `toml:"auto_download"`
	CacheDir     string `toml:"cache_dir"`
}

// Translator contains the settings of one translation backend.
type Translator struct {
	Enabled          bool    `toml:"enabled"`
	Timeout          int     `toml:"timeout"` // seconds per attempt
	RetryCount       int     `toml:"retry_count"`
	UseSSLBypass     bool    `toml:"use_ssl_bypass"`
	APIKey           string  `toml:"api_key"`
	BaseURL          string  `toml:"base_url"`
	Model            string  `toml:"model"`
	MaxTokens        int     `toml:"max_tokens"`
	Temperature      float64 `toml:"temperature"`
	BatchMode        bool    `toml:"batch_mode"`
	MaxBatchChars    int     `toml:"max_batch_chars"`
	MaxBatchSegments int     `toml:"max_batch_segments"`
	Concurrency      int     `toml:"concurrency"`
	Prompt           string  `toml:"prompt"`
}

// ASSStyle contains the style line used for ASS output.
type ASSStyle struct {
	StyleName    string `toml:"style_name"`
	FontName     string `toml:"font_name"`
	FontSize     int    `toml:"font_size"`
	PrimaryColor string `toml:"primary_color"`
	Outline      int    `toml:"outline"`
	Shadow       int    `toml:"shadow"`
	Alignment    int    `toml:"alignment"`
}

// Config encapsulates all configuration values for VideoTranSrt.
type Config struct {
	General       General               `toml:"general"`
	Transcription Transcription         `toml:"transcription"`
	FFmpeg        FFmpeg                `toml:"ffmpeg"`
	Translators   map[string]Translator `toml:"translators"`
	ASSStyle      ASSStyle              `toml:"ass_style"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. It returns the resolved path and whether it existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// variables already set in the environment win over the file
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

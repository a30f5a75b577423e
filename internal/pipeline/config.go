package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

const (
	DefaultMinSegmentDuration = time.Second
	DefaultMaxSegmentDuration = 30 * time.Second
	DefaultMaxSegmentChars    = 500
	DefaultCPUThreads         = 4
	DefaultModelSize          = "base"
	DefaultDevice             = "auto"
)

var (
	validDevices    = map[string]bool{"auto": true, "cpu": true, "cuda": true}
	validModelSizes = map[string]bool{
		"tiny": true, "base": true, "small": true, "medium": true,
		"large": true, "large-v2": true, "large-v3": true, "turbo": true,
	}
)

// Config describes one run. It is read-only once the run starts.
type Config struct {
	InputPath  string
	OutputPath string // empty derives it from InputPath and OutputFormat

	TranslateTo    string // empty skips translation
	SourceLanguage string // empty or "auto" lets the backend detect it
	Bilingual      bool

	TranslatorType    string
	TranslatorOptions translate.Options
	ASSStyle          subtitle.ASSStyle

	MergeSegments      bool
	MinSegmentDuration time.Duration
	MaxSegmentDuration time.Duration
	MaxSegmentChars    int

	OutputFormat string

	Device     string
	CPUThreads int
	UseGPU     bool
	ModelSize  string
}

// DefaultConfig returns the defaults for input.
func DefaultConfig(input string) Config {
	return Config{
		InputPath:          input,
		TranslatorType:     translate.TypeSimple,
		TranslatorOptions:  translate.DefaultOptions(),
		ASSStyle:           subtitle.DefaultASSStyle(),
		MinSegmentDuration: DefaultMinSegmentDuration,
		MaxSegmentDuration: DefaultMaxSegmentDuration,
		MaxSegmentChars:    DefaultMaxSegmentChars,
		OutputFormat:       string(subtitle.FormatSRT),
		Device:             DefaultDevice,
		CPUThreads:         DefaultCPUThreads,
		ModelSize:          DefaultModelSize,
	}
}

// Validate reports the first unusable setting as an ErrConfig.
func (c Config) Validate() error {
	if _, err := subtitle.ParseFormat(c.OutputFormat); err != nil {
		return wrap(ErrConfig, StageInit, "output format", err)
	}
	if c.MinSegmentDuration < 0 {
		return wrap(ErrConfig, StageInit, "min segment duration must not be negative", nil)
	}
	if c.MaxSegmentDuration <= 0 {
		return wrap(ErrConfig, StageInit, "max segment duration must be positive", nil)
	}
	if c.MaxSegmentDuration < c.MinSegmentDuration {
		return wrap(ErrConfig, StageInit, fmt.Sprintf(
			"max segment duration %s is below min segment duration %s",
			c.MaxSegmentDuration, c.MinSegmentDuration,
		), nil)
	}
	if c.MaxSegmentChars <= 0 {
		return wrap(ErrConfig, StageInit, "max segment chars must be positive", nil)
	}
	if c.CPUThreads < 1 {
		return wrap(ErrConfig, StageInit, fmt.Sprintf("cpu threads must be at least 1, got %d", c.CPUThreads), nil)
	}
	if device := strings.ToLower(strings.TrimSpace(c.Device)); device != "" && !validDevices[device] {
		return wrap(ErrConfig, StageInit, fmt.Sprintf("unsupported device %q: use auto, cpu or cuda", c.Device), nil)
	}
	if size := strings.ToLower(strings.TrimSpace(c.ModelSize)); size != "" && !validModelSizes[size] {
		return wrap(ErrConfig, StageInit, fmt.Sprintf("unsupported model size %q", c.ModelSize), nil)
	}
	if err := c.ASSStyle.Validate(); err != nil {
		return wrap(ErrConfig, StageInit, "ass style", err)
	}
	return nil
}

// Format is the parsed output format; call after Validate.
func (c Config) Format() subtitle.Format {
	format, err := subtitle.ParseFormat(c.OutputFormat)
	if err != nil {
		return subtitle.FormatSRT
	}
	return format
}

// ResolvedOutputPath is OutputPath, or the input path with the output
// format's extension when unset.
func (c Config) ResolvedOutputPath() string {
	if strings.TrimSpace(c.OutputPath) != "" {
		return c.OutputPath
	}
	return subtitle.ReplaceExtension(c.InputPath, c.Format())
}

func (c Config) translationRequested() bool {
	return strings.TrimSpace(c.TranslateTo) != ""
}

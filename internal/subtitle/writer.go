package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// minimum cue length each renderer enforces unless overridden
const (
	DefaultSRTMinDuration = 500 * time.Millisecond
	DefaultVTTMinDuration = 500 * time.Millisecond
	DefaultASSMinDuration = 500 * time.Millisecond
)

// renders segments into subtitle file text
type Renderer interface {
	Format() Format
	Render(segs []Segment) string
	// pairs original and translated text per segment; falls back to the
	// original alone when the lengths differ
	RenderBilingual(original, translated []Segment) string
}

// SubRip format
type SRTRenderer struct {
	MinDuration time.Duration
}

// WebVTT format
type VTTRenderer struct {
	MinDuration time.Duration
}

// Advanced SubStation Alpha format
type ASSRenderer struct {
	MinDuration time.Duration
	Style       ASSStyle
}

type rendererConfig struct {
	minDuration    time.Duration
	hasMinDuration bool
	style          ASSStyle
}

type RenderOption func(*rendererConfig)

// overrides the renderer's default minimum cue length
func WithMinDuration(d time.Duration) RenderOption {
	return func(c *rendererConfig) {
		c.minDuration = d
		c.hasMinDuration = true
	}
}

// style for ASS output, ignored by other formats
func WithASSStyle(style ASSStyle) RenderOption {
	return func(c *rendererConfig) {
		c.style = style
	}
}

func NewRenderer(format Format, opts ...RenderOption) (Renderer, error) {
	cfg := rendererConfig{style: DefaultASSStyle()}
	for _, opt := range opts {
		opt(&cfg)
	}
	pick := func(def time.Duration) time.Duration {
		if cfg.hasMinDuration {
			return cfg.minDuration
		}
		return def
	}

	switch format {
	case FormatSRT:
		return &SRTRenderer{MinDuration: pick(DefaultSRTMinDuration)}, nil
	case FormatVTT:
		return &VTTRenderer{MinDuration: pick(DefaultVTTMinDuration)}, nil
	case FormatASS:
		return &ASSRenderer{
			MinDuration: pick(DefaultASSMinDuration),
			Style:       cfg.style.withDefaults(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (r *SRTRenderer) Format() Format { return FormatSRT }

func (r *SRTRenderer) Render(segs []Segment) string {
	segs = Normalize(segs, r.MinDuration)

	blocks := make([]string, 0, len(segs))
	for i, seg := range segs {
		var sb strings.Builder
		// index (1-based, assigned after empty cues are dropped)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(seg.Start),
			formatSRTTime(seg.End)))
		sb.WriteString(seg.Text)
		sb.WriteString("\n")
		blocks = append(blocks, sb.String())
	}

	return strings.Join(blocks, "\n")
}

func (r *SRTRenderer) RenderBilingual(original, translated []Segment) string {
	return r.Render(pairSegments(original, translated))
}

func (r *VTTRenderer) Format() Format { return FormatVTT }

func (r *VTTRenderer) Render(segs []Segment) string {
	segs = Normalize(segs, r.MinDuration)

	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for _, seg := range segs {
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(seg.Start),
			formatVTTTime(seg.End)))
		sb.WriteString(seg.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func (r *VTTRenderer) RenderBilingual(original, translated []Segment) string {
	return r.Render(pairSegments(original, translated))
}

func (r *ASSRenderer) Format() Format { return FormatASS }

func (r *ASSRenderer) Render(segs []Segment) string {
	segs = Normalize(segs, r.MinDuration)
	style := r.Style.withDefaults()

	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(style.line())
	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segs {
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatASSTime(seg.Start),
			formatASSTime(seg.End),
			style.Name,
			escapeASSText(seg.Text)))
	}

	return sb.String()
}

func (r *ASSRenderer) RenderBilingual(original, translated []Segment) string {
	return r.Render(pairSegments(original, translated))
}

func pairSegments(original, translated []Segment) []Segment {
	if len(original) != len(translated) {
		return original
	}
	out := Clone(original)
	for i := range out {
		out[i].Text = original[i].Text + "\n" + translated[i].Text
	}
	return out
}

// splits d into clock fields, negative values clamp to zero
func clock(d time.Duration) (hours, minutes, seconds int, rem time.Duration) {
	if d < 0 {
		d = 0
	}
	hours = int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes = int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds = int(d / time.Second)
	rem = d - time.Duration(seconds)*time.Second
	return hours, minutes, seconds, rem
}

func formatSRTTime(d time.Duration) string {
	h, m, s, rem := clock(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, rem/time.Millisecond)
}

func formatVTTTime(d time.Duration) string {
	h, m, s, rem := clock(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, rem/time.Millisecond)
}

func formatASSTime(d time.Duration) string {
	h, m, s, rem := clock(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, rem/(10*time.Millisecond))
}

func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\\N")
	text = strings.ReplaceAll(text, "\n", "\\N")
	text = strings.ReplaceAll(text, "\r", "\\N")
	return text
}

// WriteFile stores content as UTF-8 at path, creating parent directories.
func WriteFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Save is WriteFile reduced to success or failure.
func Save(path, content string) bool {
	return WriteFile(path, content) == nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

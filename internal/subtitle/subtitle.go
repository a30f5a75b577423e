package subtitle

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// represents a timed text unit produced by transcription
type Segment struct {
	Start      time.Duration
	End        time.Duration
	Text       string
	Language   string   // empty when unknown
	Confidence *float64 // nil when the recognizer gave none
}

func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// converts float seconds to a duration, rounding to the nearest nanosecond
func Seconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}

// helper for building optional confidences
func Confidence(v float64) *float64 {
	return &v
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// descriptive metadata for a format
type FormatInfo struct {
	Format    Format
	Name      string
	Extension string
	MIMEType  string
}

var formatInfos = []FormatInfo{
	{Format: FormatSRT, Name: "SubRip", Extension: ".srt", MIMEType: "application/x-subrip"},
	{Format: FormatVTT, Name: "WebVTT", Extension: ".vtt", MIMEType: "text/vtt"},
	{Format: FormatASS, Name: "Advanced SubStation Alpha", Extension: ".ass", MIMEType: "text/x-ssa"},
}

// all supported formats in display order
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formatInfos))
	copy(out, formatInfos)
	return out
}

// case-insensitive format lookup
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	case "ass":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, or ass", s)
	}
}

func (f Format) Info() (FormatInfo, bool) {
	for _, info := range formatInfos {
		if info.Format == f {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// file extension for a format, srt when unknown
func (f Format) Extension() string {
	if info, ok := f.Info(); ok {
		return info.Extension
	}
	return ".srt"
}

// subtitle format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass", ".ssa":
		return FormatASS, true
	default:
		return "", false
	}
}

// replaces the extension of path with the one for format
func ReplaceExtension(path string, format Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + format.Extension()
}

// texts of segs in order
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

// copies segs so callers can transform without touching the input
func Clone(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = s
		if s.Confidence != nil {
			out[i].Confidence = Confidence(*s.Confidence)
		}
	}
	return out
}

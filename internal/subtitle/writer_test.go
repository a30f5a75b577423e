package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func mustRenderer(t *testing.T, format Format, opts ...RenderOption) Renderer {
	t.Helper()
	r, err := NewRenderer(format, opts...)
	if err != nil {
		t.Fatalf("NewRenderer(%s): %v", format, err)
	}
	return r
}

func TestRenderSRT(t *testing.T) {
	r := mustRenderer(t, FormatSRT)

	got := r.Render([]Segment{seg(0, 1.5, "Hello")})
	if want := "1\n00:00:00,000 --> 00:00:01,500\nHello\n"; got != want {
		t.Errorf("single block:\n got %q\nwant %q", got, want)
	}

	got = r.Render([]Segment{seg(0, 1, "a"), seg(1, 2, "   "), seg(3661.5, 3662, "b")})
	want := "1\n00:00:00,000 --> 00:00:01,000\na\n" +
		"\n" +
		"2\n01:01:01,500 --> 01:01:02,000\nb\n"
	if got != want {
		t.Errorf("indices after dropping blank:\n got %q\nwant %q", got, want)
	}

	if got := r.Render(nil); got != "" {
		t.Errorf("empty render = %q, want empty", got)
	}
}

func TestRenderVTT(t *testing.T) {
	r := mustRenderer(t, FormatVTT)

	got := r.Render([]Segment{seg(0, 1.5, "Hello"), seg(2, 3.25, "World")})
	want := "WEBVTT\n\n" +
		"00:00:00.000 --> 00:00:01.500\nHello\n\n" +
		"00:00:02.000 --> 00:00:03.250\nWorld\n\n"
	if got != want {
		t.Errorf("VTT render:\n got %q\nwant %q", got, want)
	}

	if got := r.Render(nil); got != "WEBVTT\n\n" {
		t.Errorf("empty render = %q", got)
	}
}

func TestRenderASS(t *testing.T) {
	style := DefaultASSStyle()
	style.Name = "Main"
	style.FontSize = 48
	r := mustRenderer(t, FormatASS, WithASSStyle(style))

	got := r.Render([]Segment{seg(75.256, 77, "line one\nline two"), seg(80, 81, "crlf\r\nbreak")})

	for _, want := range []string{
		"[Script Info]\nScriptType: v4.00+\nWrapStyle: 0\nScaledBorderAndShadow: yes\n\n[V4+ Styles]\n",
		"Style: Main,Arial,48,&H00FFFFFF,&H000000FF,&H00000000,&H3F000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,10,1\n\n[Events]\n",
		"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n",
		"Dialogue: 0,0:01:15.25,0:01:17.00,Main,,0,0,0,,line one\\Nline two\n",
		"Dialogue: 0,0:01:20.00,0:01:21.00,Main,,0,0,0,,crlf\\Nbreak\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ASS output missing %q\n---\n%s", want, got)
		}
	}
}

func TestTimeFormatting(t *testing.T) {
	tests := []struct {
		in       time.Duration
		srt, vtt string
		ass      string
	}{
		{in: 0, srt: "00:00:00,000", vtt: "00:00:00.000", ass: "0:00:00.00"},
		{in: Seconds(75.256), srt: "00:01:15,256", vtt: "00:01:15.256", ass: "0:01:15.25"},
		{in: Seconds(1.9999), srt: "00:00:01,999", vtt: "00:00:01.999", ass: "0:00:01.99"},
		{in: Seconds(36000.5), srt: "10:00:00,500", vtt: "10:00:00.500", ass: "10:00:00.50"},
		{in: -time.Second, srt: "00:00:00,000", vtt: "00:00:00.000", ass: "0:00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := formatSRTTime(tt.in); got != tt.srt {
				t.Errorf("formatSRTTime = %q, want %q", got, tt.srt)
			}
			if got := formatVTTTime(tt.in); got != tt.vtt {
				t.Errorf("formatVTTTime = %q, want %q", got, tt.vtt)
			}
			if got := formatASSTime(tt.in); got != tt.ass {
				t.Errorf("formatASSTime = %q, want %q", got, tt.ass)
			}
		})
	}
}

func TestRendererMinDuration(t *testing.T) {
	in := []Segment{seg(0, 0.1, "a")}

	def := mustRenderer(t, FormatSRT).Render(in)
	if !strings.Contains(def, "00:00:00,000 --> 00:00:00,500") {
		t.Errorf("default minimum not applied:\n%s", def)
	}

	custom := mustRenderer(t, FormatSRT, WithMinDuration(time.Second)).Render(in)
	if !strings.Contains(custom, "00:00:00,000 --> 00:00:01,000") {
		t.Errorf("override minimum not applied:\n%s", custom)
	}
}

func TestRenderBilingual(t *testing.T) {
	orig := []Segment{seg(0, 1, "Hello"), seg(1, 2, "Bye")}
	trans := []Segment{seg(0, 1, "Hola"), seg(1, 2, "Adiós")}

	for _, format := range []Format{FormatSRT, FormatVTT, FormatASS} {
		t.Run(string(format), func(t *testing.T) {
			r := mustRenderer(t, format)

			got := r.RenderBilingual(orig, trans)
			sep := "\n"
			if format == FormatASS {
				sep = "\\N"
			}
			if !strings.Contains(got, "Hello"+sep+"Hola") || !strings.Contains(got, "Bye"+sep+"Adiós") {
				t.Errorf("bilingual text missing:\n%s", got)
			}

			mismatch := r.RenderBilingual(orig, trans[:1])
			if want := r.Render(orig); mismatch != want {
				t.Errorf("length mismatch should render original only:\n got %q\nwant %q", mismatch, want)
			}
		})
	}

	if orig[0].Text != "Hello" {
		t.Error("bilingual render mutated the original segments")
	}
}

func TestNewRendererUnknownFormat(t *testing.T) {
	if _, err := NewRenderer(Format("mp4")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"srt", "SRT", " Vtt ", "ASS"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", in, err)
		}
	}
	if _, err := ParseFormat("mp4"); err == nil {
		t.Error("ParseFormat(mp4) expected error")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"movie.SRT", FormatSRT, true},
		{"a/b/c.vtt", FormatVTT, true},
		{"old.ssa", FormatASS, true},
		{"clip.mp4", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = %q,%v want %q,%v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
	if got := ReplaceExtension("/tmp/talk.mp4", FormatVTT); got != "/tmp/talk.vtt" {
		t.Errorf("ReplaceExtension = %q", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "out.srt")

	if !Save(path, "héllo") {
		t.Fatal("Save returned false for writable path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "héllo" {
		t.Errorf("content = %q", data)
	}

	// parent is a regular file, so the directory cannot be created
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if Save(filepath.Join(blocker, "out.srt"), "x") {
		t.Error("Save returned true for unwritable path")
	}
}

func TestASSStyleValidate(t *testing.T) {
	if err := DefaultASSStyle().Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}
	bad := DefaultASSStyle()
	bad.Alignment = 10
	if err := bad.Validate(); err == nil {
		t.Error("expected alignment error")
	}
	bad = DefaultASSStyle()
	bad.FontName = "Arial,Bold"
	if err := bad.Validate(); err == nil {
		t.Error("expected comma error")
	}
}

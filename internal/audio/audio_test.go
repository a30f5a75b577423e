package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ffmpegbin "github.com/kelriclink/VideoTranSrt/internal/ffmpeg"
)

func TestIsSupportedInput(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"talk.mp4", true},
		{"TALK.MKV", true},
		{"clip.webm", true},
		{"song.mp3", true},
		{"voice.M4A", true},
		{"raw.wma", true},
		{"subs.srt", false},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupportedInput(tt.path); got != tt.want {
			t.Errorf("IsSupportedInput(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if n := len(SupportedExtensions()); n != 15 {
		t.Errorf("expected 15 supported extensions, got %d", n)
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("/videos/My Talk.mp4", "wav"); got != "My Talk.wav" {
		t.Errorf("OutputName = %q", got)
	}
	if got := OutputName("a.b.mkv", ""); got != "a.b.wav" {
		t.Errorf("OutputName default = %q", got)
	}
}

func TestEncodeArgs(t *testing.T) {
	args := encodeArgs(DefaultOptions())
	if args["acodec"] != "pcm_s16le" || args["ar"] != 16000 || args["ac"] != 1 {
		t.Errorf("default args = %v", args)
	}

	args = encodeArgs(Options{Format: "mp3", SampleRate: 44100, Channels: 2, Bitrate: "128k"})
	if args["acodec"] != "libmp3lame" || args["b:a"] != "128k" {
		t.Errorf("mp3 args = %v", args)
	}
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    time.Duration
		wantErr bool
	}{
		{"seconds string", `{"format": {"duration": "12.500000"}}`, 12500 * time.Millisecond, false},
		{"missing", `{"format": {}}`, 0, true},
		{"zero", `{"format": {"duration": "0.0"}}`, 0, true},
		{"not json", `ffprobe: error`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanChunks(t *testing.T) {
	jobs := planChunks(25*time.Second, 10*time.Second, "/tmp/audio.wav", "/out")

	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	last := jobs[2]
	if last.startSeconds != 20 || last.endSeconds != 25 {
		t.Errorf("last chunk = %v..%v", last.startSeconds, last.endSeconds)
	}
	if want := filepath.Join("/out", "audio_chunk_002.wav"); last.chunkPath != want {
		t.Errorf("chunk path = %q, want %q", last.chunkPath, want)
	}

	if jobs := planChunks(0, time.Second, "a.wav", "/out"); len(jobs) != 0 {
		t.Errorf("expected no jobs for empty audio, got %d", len(jobs))
	}
}

func TestExtractMissingInput(t *testing.T) {
	e := NewExtractor(ffmpegbin.NewLocator("/nonexistent/ffmpeg", "/nonexistent/ffprobe", nil), Options{}, nil)

	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), t.TempDir()); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestChunkRejectsNonPositiveDuration(t *testing.T) {
	e := NewExtractor(ffmpegbin.NewLocator("", "", nil), Options{}, nil)
	if _, err := e.Chunk(context.Background(), "a.wav", 0, t.TempDir(), 1); err == nil {
		t.Error("expected error for zero chunk duration")
	}
}

func TestCleanupChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.wav")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	chunks := []ChunkInfo{{Path: path}, {Path: filepath.Join(dir, "gone.wav")}}
	if err := CleanupChunks(chunks); err != nil {
		t.Errorf("CleanupChunks: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("chunk file not removed")
	}
}

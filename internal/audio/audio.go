package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/kelriclink/VideoTranSrt/internal/ffmpeg"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
)

// audio chunk info
type ChunkInfo struct {
	Path      string
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
}

// output encoding for extracted audio
type Options struct {
	Format     string // wav, mp3, aac or flac
	SampleRate int    // Hz
	Channels   int    // 1 = mono
	Bitrate    string // lossy formats only, e.g. "64k"
}

// 16 kHz mono PCM, what speech recognizers expect
func DefaultOptions() Options {
	return Options{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

var videoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".ogg":  true,
	".wma":  true,
	".m4a":  true,
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// media the pipeline accepts as input
func IsSupportedInput(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// supported input extensions, sorted
func SupportedExtensions() []string {
	exts := make([]string, 0, len(videoExts)+len(audioExts))
	for ext := range videoExts {
		exts = append(exts, ext)
	}
	for ext := range audioExts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extractor turns media files into audio with ffmpeg.
type Extractor struct {
	locator *ffmpegbin.Locator
	logger  *logging.Logger
	opts    Options
}

func NewExtractor(locator *ffmpegbin.Locator, opts Options, logger *logging.Logger) *Extractor {
	def := DefaultOptions()
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = def.Channels
	}
	return &Extractor{locator: locator, logger: logging.OrNop(logger), opts: opts}
}

// Extract writes the audio track of input into dir and returns its path.
func (e *Extractor) Extract(ctx context.Context, input, dir string) (string, error) {
	outputPath := filepath.Join(dir, OutputName(input, e.opts.Format))
	if err := e.ExtractTo(ctx, input, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// ExtractTo writes the audio track of input to outputPath.
func (e *Extractor) ExtractTo(ctx context.Context, input, outputPath string) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input file not found: %s", input)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := e.locator.FFmpeg(ctx)
	if err != nil {
		return err
	}

	e.logger.Debugw("extracting audio",
		"input", input,
		"output", outputPath,
		"format", e.opts.Format,
		"sample_rate", e.opts.SampleRate,
	)

	err = ffmpeg.Input(input).
		Output(outputPath, encodeArgs(e.opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}
	return nil
}

func encodeArgs(opts Options) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",              // no video
		"ar": opts.SampleRate, // sample rate
		"ac": opts.Channels,   // channels
	}

	switch opts.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
		if opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	case "aac":
		kwargs["acodec"] = "aac"
		if opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	case "flac":
		kwargs["acodec"] = "flac"
	default:
		kwargs["acodec"] = "pcm_s16le"
	}
	return kwargs
}

// file name for the extracted audio of input
func OutputName(input, format string) string {
	if format == "" {
		format = "wav"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return base + "." + format
}

// Duration of an audio or video file, read with ffprobe.
func (e *Extractor) Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	ffprobePath, err := e.locator.FFprobe(ctx)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(out.Bytes())
}

// format.duration from ffprobe JSON, a string of seconds
func parseProbeDuration(data []byte) (time.Duration, error) {
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("failed to parse ffprobe output")
	}
	field := gjson.GetBytes(data, "format.duration")
	if !field.Exists() {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}
	seconds := field.Float()
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid duration %q", field.String())
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// chunkJob represents a single chunk to be created
type chunkJob struct {
	index        int
	startSeconds float64
	endSeconds   float64
	chunkPath    string
}

// time slices of total, the last one possibly shorter
func planChunks(total, chunkDuration time.Duration, audioPath, outputDir string) []chunkJob {
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	chunkSeconds := chunkDuration.Seconds()
	totalSeconds := total.Seconds()

	var jobs []chunkJob
	for i := 0; ; i++ {
		startSeconds := float64(i) * chunkSeconds
		if startSeconds >= totalSeconds {
			break
		}
		endSeconds := startSeconds + chunkSeconds
		if endSeconds > totalSeconds {
			endSeconds = totalSeconds
		}
		jobs = append(jobs, chunkJob{
			index:        i,
			startSeconds: startSeconds,
			endSeconds:   endSeconds,
			chunkPath:    filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", baseName, i, ext)),
		})
	}
	return jobs
}

// Chunk splits an audio file into pieces of chunkDuration, running up to
// concurrency ffmpeg processes at once (10 when not positive).
func (e *Extractor) Chunk(
	ctx context.Context,
	audioPath string,
	chunkDuration time.Duration,
	outputDir string,
	concurrency int,
) ([]ChunkInfo, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	totalDuration, err := e.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	ffmpegPath, err := e.locator.FFmpeg(ctx)
	if err != nil {
		return nil, err
	}

	jobs := planChunks(totalDuration, chunkDuration, audioPath, outputDir)

	var (
		mu       sync.Mutex
		chunks   []ChunkInfo
		firstErr error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(j chunkJob) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			skip := firstErr != nil || ctx.Err() != nil
			mu.Unlock()
			if skip {
				return
			}

			err := ffmpeg.Input(audioPath).
				Output(j.chunkPath, ffmpeg.KwArgs{
					"ss": j.startSeconds,
					"t":  j.endSeconds - j.startSeconds,
					"c":  "copy",
				}).
				OverWriteOutput().
				SetFfmpegPath(ffmpegPath).
				Run()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to create chunk %d: %w", j.index, err)
				}
				return
			}
			chunks = append(chunks, ChunkInfo{
				Path:      j.chunkPath,
				Index:     j.index,
				StartTime: time.Duration(j.startSeconds * float64(time.Second)),
				EndTime:   time.Duration(j.endSeconds * float64(time.Second)),
			})
		}(job)
	}
	wg.Wait()

	if firstErr != nil {
		_ = CleanupChunks(chunks)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		_ = CleanupChunks(chunks)
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	e.logger.Debugw("audio chunked", "path", audioPath, "chunks", len(chunks))
	return chunks, nil
}

// removes all chunk files
func CleanupChunks(chunks []ChunkInfo) error {
	var lastErr error
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
	"github.com/kelriclink/VideoTranSrt/internal/transcribe"
	"github.com/kelriclink/VideoTranSrt/internal/translate"
)

// AudioExtractor writes the audio track of input into scratchDir and
// returns the path of the written file.
type AudioExtractor interface {
	Extract(ctx context.Context, input, scratchDir string) (string, error)
}

// TranslatorFactory builds the translator named by a config.
type TranslatorFactory func(
	ctx context.Context,
	name string,
	opts translate.Options,
	logger *logging.Logger,
) translate.Translator

// Result summarizes one run.
type Result struct {
	RunID             string             `json:"run_id"`
	Success           bool               `json:"success"`
	InputPath         string             `json:"input_path"`
	OutputPath        string             `json:"output_path,omitempty"`
	Format            subtitle.Format    `json:"format,omitempty"`
	Segments          int                `json:"segments"`
	OutputBytes       int                `json:"output_bytes"`
	Transcription     *transcribe.Result `json:"transcription,omitempty"`
	Translation       *translate.Result  `json:"translation,omitempty"`
	ErrorMessage      string             `json:"error,omitempty"`
	Err               error              `json:"-"`
	ProcessingTime    time.Duration      `json:"-"`
	ProcessingSeconds float64            `json:"processing_time_seconds"`
}

// Controller drives extraction, transcription, segment processing,
// translation and rendering for a run. Stages run strictly in order.
type Controller struct {
	extractor   AudioExtractor
	transcriber transcribe.Transcriber
	translators TranslatorFactory
	progress    ProgressFunc
	logger      *logging.Logger
	scratchRoot string
}

type Option func(*Controller)

// WithProgress registers a callback for stage updates.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) {
		c.progress = fn
	}
}

// WithTranslatorFactory replaces translate.New.
func WithTranslatorFactory(f TranslatorFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.translators = f
		}
	}
}

// WithScratchRoot sets the parent of the per-run scratch directory.
func WithScratchRoot(dir string) Option {
	return func(c *Controller) {
		c.scratchRoot = dir
	}
}

func New(
	extractor AudioExtractor,
	transcriber transcribe.Transcriber,
	logger *logging.Logger,
	opts ...Option,
) *Controller {
	c := &Controller{
		extractor:   extractor,
		transcriber: transcriber,
		translators: translate.New,
		logger:      logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes cfg.InputPath into a subtitle file. Failures are reported
// through the result and never panic; errors.Is on Result.Err classifies
// them against ErrConfig, ErrInput, ErrStage and ErrIO.
func (c *Controller) Run(ctx context.Context, cfg Config) *Result {
	started := time.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		InputPath: cfg.InputPath,
	}
	log := c.logger.With("run_id", res.RunID, "input", cfg.InputPath)
	progress := newProgressReporter(c.progress)

	progress.report(StageInit, progressInit, "starting")
	err := c.run(ctx, cfg, res, log, progress)
	res.ProcessingTime = time.Since(started)
	res.ProcessingSeconds = res.ProcessingTime.Seconds()

	if err != nil {
		res.Err = err
		res.ErrorMessage = err.Error()
		progress.fail(err.Error())
		log.Errorw("processing failed", "error", err, "elapsed", res.ProcessingTime)
		return res
	}

	res.Success = true
	progress.report(StageDone, progressDone, "done")
	log.Infow("processing complete",
		"output", res.OutputPath,
		"segments", res.Segments,
		"elapsed", res.ProcessingTime,
	)
	return res
}

func (c *Controller) run(
	ctx context.Context,
	cfg Config,
	res *Result,
	log *logging.Logger,
	progress *progressReporter,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkInput(cfg.InputPath); err != nil {
		return err
	}
	if c.extractor == nil || c.transcriber == nil {
		return wrap(ErrConfig, StageInit, "controller needs an audio extractor and a transcriber", nil)
	}

	format := cfg.Format()
	res.Format = format
	outputPath := cfg.ResolvedOutputPath()

	scratch, err := os.MkdirTemp(c.scratchRoot, "videotransrt-*")
	if err != nil {
		return wrap(ErrIO, StageInit, "create scratch directory", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	progress.report(StageAudioExtraction, progressAudioStart, "extracting audio")
	audioPath, err := c.extractor.Extract(ctx, cfg.InputPath, scratch)
	if err != nil {
		return wrap(ErrStage, StageAudioExtraction, "extract audio", err)
	}
	progress.report(StageAudioExtraction, progressAudioEnd, "audio extracted")
	log.Debugw("audio extracted", "audio", audioPath)

	progress.report(StageTranscription, progressTranscribe, "transcribing")
	transcription, err := c.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return wrap(ErrStage, StageTranscription, "transcribe audio", err)
	}
	if transcription == nil {
		return wrap(ErrStage, StageTranscription, "transcriber returned no result", nil)
	}
	res.Transcription = transcription
	progress.report(StageTranscription, progressTranscribed,
		fmt.Sprintf("transcribed %d segments", len(transcription.Segments)))
	log.Infow("transcription complete",
		"segments", len(transcription.Segments),
		"language", transcription.Language,
		"model", transcription.Model,
	)

	progress.report(StageSegmentProcessing, progressSegments, "processing segments")
	segs := subtitle.Clone(transcription.Segments)
	if cfg.MergeSegments {
		before := len(segs)
		segs = subtitle.MergeByLimits(segs, cfg.MaxSegmentDuration, cfg.MaxSegmentChars)
		log.Debugw("segments merged", "before", before, "after", len(segs))
	}

	var translated []subtitle.Segment
	if cfg.translationRequested() {
		progress.report(StageTranslation, progressTranslation, "translating to "+cfg.TranslateTo)
		translator := c.translators(ctx, cfg.TranslatorType, cfg.TranslatorOptions, log)
		tr := translator.Translate(ctx, segs, cfg.TranslateTo,
			sourceLanguage(cfg.SourceLanguage, transcription.Language))
		res.Translation = &tr
		translated = tr.Segments
		if tr.Fallbacks > 0 {
			log.Warnw("some segments kept their original text",
				"translator", tr.Translator,
				"fallbacks", tr.Fallbacks,
				"segments", len(segs),
			)
		}
	}

	progress.report(StageRendering, progressRendering, "rendering "+string(format))
	renderer, err := subtitle.NewRenderer(format,
		subtitle.WithMinDuration(cfg.MinSegmentDuration),
		subtitle.WithASSStyle(cfg.ASSStyle),
	)
	if err != nil {
		return wrap(ErrIO, StageRendering, "create renderer", err)
	}
	var content string
	switch {
	case translated != nil && cfg.Bilingual:
		content = renderer.RenderBilingual(segs, translated)
	case translated != nil:
		content = renderer.Render(translated)
	default:
		content = renderer.Render(segs)
	}

	if err := subtitle.WriteFile(outputPath, content); err != nil {
		return wrap(ErrIO, StagePersisted, "save subtitles", err)
	}
	progress.report(StagePersisted, progressPersisted, "saved "+outputPath)

	res.OutputPath = outputPath
	res.Segments = len(segs)
	res.OutputBytes = len(content)
	return nil
}

func checkInput(path string) error {
	if path == "" {
		return wrap(ErrInput, StageInit, "input path is empty", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return wrap(ErrInput, StageInit, "input file not found: "+path, nil)
		}
		return wrap(ErrInput, StageInit, "stat input", err)
	}
	if info.IsDir() {
		return wrap(ErrInput, StageInit, "input is a directory: "+path, nil)
	}
	if !audio.IsSupportedInput(path) {
		return wrap(ErrInput, StageInit, fmt.Sprintf(
			"unsupported file type %q (expected audio or video file)", filepath.Ext(path),
		), nil)
	}
	return nil
}

// configured source language unless it is empty or "auto", else the one the
// transcriber detected
func sourceLanguage(configured, detected string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && !strings.EqualFold(configured, "auto") {
		return configured
	}
	return strings.TrimSpace(detected)
}

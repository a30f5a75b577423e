package transcribe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/audio"
	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

// splits audio into chunks
type chunker interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
	Chunk(
		ctx context.Context,
		audioPath string,
		chunkDuration time.Duration,
		outputDir string,
		concurrency int,
	) ([]audio.ChunkInfo, error)
}

// Chunked transcribes long audio piece by piece with an inner transcriber
// and stitches the results back onto one timeline.
type Chunked struct {
	inner         Transcriber
	chunker       chunker
	chunkDuration time.Duration
	concurrency   int
	logger        *logging.Logger
}

func NewChunked(
	inner Transcriber,
	extractor *audio.Extractor,
	chunkDuration time.Duration,
	concurrency int,
	logger *logging.Logger,
) *Chunked {
	return newChunked(inner, extractor, chunkDuration, concurrency, logger)
}

func newChunked(
	inner Transcriber,
	c chunker,
	chunkDuration time.Duration,
	concurrency int,
	logger *logging.Logger,
) *Chunked {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Chunked{
		inner:         inner,
		chunker:       c,
		chunkDuration: chunkDuration,
		concurrency:   concurrency,
		logger:        logging.OrNop(logger),
	}
}

func (t *Chunked) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	total, err := t.chunker.Duration(ctx, audioPath)
	if err != nil || total <= t.chunkDuration {
		return t.inner.Transcribe(ctx, audioPath)
	}

	dir, err := os.MkdirTemp("", "videotransrt-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	chunks, err := t.chunker.Chunk(ctx, audioPath, t.chunkDuration, dir, t.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to split audio: %w", err)
	}
	t.logger.Infow("transcribing in chunks",
		"chunks", len(chunks),
		"chunk_duration", t.chunkDuration,
		"concurrency", t.concurrency,
	)

	result, err := transcribeChunks(ctx, t.inner, chunks, t.concurrency)
	if err != nil {
		return nil, err
	}
	result.Duration = total
	return result, nil
}

// holds the result of transcribing a chunk
type chunkResult struct {
	Index  int
	Result *Result
	Error  error
}

// transcribes chunks in parallel, shifting each chunk's timestamps by its
// offset. The first failure cancels the remaining work.
func transcribeChunks(
	ctx context.Context,
	inner Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{Segments: []subtitle.Segment{}}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan int)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(chunks); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workChan {
				if ctx.Err() != nil {
					resultChan <- chunkResult{Index: idx, Error: ctx.Err()}
					continue
				}
				res, err := inner.Transcribe(ctx, chunks[idx].Path)
				if err != nil {
					cancel()
				}
				resultChan <- chunkResult{Index: idx, Result: res, Error: err}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range chunks {
			workChan <- i
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*Result, len(chunks))
	var firstErr error
	for r := range resultChan {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d failed: %w", chunks[r.Index].Index, r.Error)
			}
			continue
		}
		results[r.Index] = r.Result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	merged := &Result{Segments: []subtitle.Segment{}}
	for i, res := range results {
		offset := chunks[i].StartTime
		for _, seg := range res.Segments {
			seg.Start += offset
			seg.End += offset
			merged.Segments = append(merged.Segments, seg)
		}
		if merged.Language == "" {
			merged.Language = res.Language
		}
		if merged.Model == "" {
			merged.Model = res.Model
		}
	}
	merged.Text = joinText(merged.Segments)
	merged.Duration = chunks[len(chunks)-1].EndTime
	return merged, nil
}

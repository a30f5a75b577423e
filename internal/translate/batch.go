package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

// groups segments into chunks and makes one backend request per chunk
type RemoteBatch struct {
	name    string
	backend ListBackend
	opts    Options
	logger  *logging.Logger
	sleep   func(context.Context, time.Duration)
}

func NewRemoteBatch(
	name string,
	backend ListBackend,
	opts Options,
	logger *logging.Logger,
) *RemoteBatch {
	return &RemoteBatch{
		name:    name,
		backend: backend,
		opts:    opts.withDefaults(),
		logger:  logging.OrNop(logger),
		sleep:   sleepContext,
	}
}

func (t *RemoteBatch) Name() string { return t.name }

// contiguous run of segment positions sent in one request
type chunk struct {
	positions []int
	texts     []string
}

// splits the non-blank segments into ordered chunks bounded by maxChars
// (runes) and maxSegments. A segment larger than maxChars gets a chunk of
// its own.
func buildChunks(segs []subtitle.Segment, maxChars, maxSegments int) []chunk {
	var (
		chunks  []chunk
		current chunk
		chars   int
	)
	flush := func() {
		if len(current.positions) > 0 {
			chunks = append(chunks, current)
		}
		current = chunk{}
		chars = 0
	}

	for i, seg := range segs {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		n := utf8.RuneCountInString(seg.Text)
		if len(current.positions) > 0 &&
			(chars+n > maxChars || len(current.positions) >= maxSegments) {
			flush()
		}
		current.positions = append(current.positions, i)
		current.texts = append(current.texts, seg.Text)
		chars += n
	}
	flush()
	return chunks
}

func (t *RemoteBatch) Translate(
	ctx context.Context,
	segs []subtitle.Segment,
	target string,
	source string,
) Result {
	out := tagged(segs, target)
	result := Result{
		SourceLanguage: sourceOrAuto(source),
		TargetLanguage: target,
		Translator:     t.name,
	}

	chunks := buildChunks(out, t.opts.MaxBatchChars, t.opts.MaxBatchSegments)
	if len(chunks) == 0 {
		result.Segments = out
		return result
	}

	type chunkResult struct {
		Index int
		Texts []string
		Error error
	}

	workChan := make(chan int)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < t.opts.Concurrency && i < len(chunks); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workChan {
				texts, err := t.translateChunk(ctx, chunks[idx].texts, source, target)
				resultChan <- chunkResult{Index: idx, Texts: texts, Error: err}
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

	// written by chunk index, completion order does not matter
	translated := make([][]string, len(chunks))
	for r := range resultChan {
		if r.Error != nil {
			t.logger.Warnw("chunk translation failed, keeping original text",
				"translator", t.name,
				"chunk", r.Index,
				"segments", len(chunks[r.Index].positions),
				"error", r.Error,
			)
			result.Fallbacks += len(chunks[r.Index].positions)
			continue
		}
		translated[r.Index] = r.Texts
	}

	for i, c := range chunks {
		if translated[i] == nil {
			continue
		}
		for j, pos := range c.positions {
			// an empty item keeps its source text, the rest of the chunk is fine
			if translated[i][j] == "" {
				result.Fallbacks++
				continue
			}
			out[pos].Text = translated[i][j]
		}
	}

	result.Segments = out
	return result
}

func (t *RemoteBatch) translateChunk(
	ctx context.Context,
	texts []string,
	source string,
	target string,
) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= t.opts.RetryCount; attempt++ {
		if attempt > 0 {
			t.sleep(ctx, retryBackoff)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, err := t.attempt(ctx, texts, source, target)
		if err == nil {
			return out, nil
		}
		lastErr = err
		t.logger.Debugw("chunk attempt failed",
			"translator", t.name,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", t.opts.RetryCount+1, lastErr)
}

func (t *RemoteBatch) attempt(
	ctx context.Context,
	texts []string,
	source string,
	target string,
) ([]string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	out, err := t.backend.TranslateList(attemptCtx, texts, source, target)
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("expected %d results, got %d", len(texts), len(out))
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out, nil
}

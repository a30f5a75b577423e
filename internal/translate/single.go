package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

// makes one backend request per segment
type RemoteSingle struct {
	name    string
	backend TextBackend
	opts    Options
	logger  *logging.Logger
	sleep   func(context.Context, time.Duration)
}

func NewRemoteSingle(
	name string,
	backend TextBackend,
	opts Options,
	logger *logging.Logger,
) *RemoteSingle {
	return &RemoteSingle{
		name:    name,
		backend: backend,
		opts:    opts.withDefaults(),
		logger:  logging.OrNop(logger),
		sleep:   sleepContext,
	}
}

func (t *RemoteSingle) Name() string { return t.name }

func (t *RemoteSingle) Translate(
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

	for i := range out {
		if strings.TrimSpace(out[i].Text) == "" {
			continue
		}
		text, err := t.translateText(ctx, out[i].Text, source, target)
		if err != nil {
			t.logger.Warnw("segment translation failed, keeping original text",
				"translator", t.name,
				"segment", i,
				"error", err,
			)
			result.Fallbacks++
			continue
		}
		out[i].Text = text
	}

	result.Segments = out
	return result
}

// first attempt plus RetryCount retries, each with its own timeout
func (t *RemoteSingle) translateText(ctx context.Context, text, source, target string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= t.opts.RetryCount; attempt++ {
		if attempt > 0 {
			t.sleep(ctx, retryBackoff)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		out, err := t.attempt(ctx, text, source, target)
		if err == nil {
			return out, nil
		}
		lastErr = err
		t.logger.Debugw("translation attempt failed",
			"translator", t.name,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return "", fmt.Errorf("all %d attempts failed: %w", t.opts.RetryCount+1, lastErr)
}

func (t *RemoteSingle) attempt(ctx context.Context, text, source, target string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	out, err := t.backend.TranslateText(attemptCtx, text, source, target)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

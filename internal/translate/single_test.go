package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
)

// fails the first failures calls for each text, then upper-cases it
type flakyTextBackend struct {
	mu        sync.Mutex
	failures  map[string]int
	calls     map[string]int
	deadlines int
}

func (b *flakyTextBackend) TranslateText(ctx context.Context, text, _, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	b.calls[text]++
	if _, ok := ctx.Deadline(); ok {
		b.deadlines++
	}
	if b.calls[text] <= b.failures[text] {
		return "", errors.New("backend unavailable")
	}
	if text == "blank" {
		return "   ", nil
	}
	return strings.ToUpper(text), nil
}

func newTestSingle(backend TextBackend, retries int, logger *logging.Logger) (*RemoteSingle, *[]time.Duration) {
	var slept []time.Duration
	tr := NewRemoteSingle("fake", backend, Options{RetryCount: retries}, logger)
	tr.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }
	return tr, &slept
}

func TestRemoteSingleRetriesThenSucceeds(t *testing.T) {
	backend := &flakyTextBackend{failures: map[string]int{"hello": 2}}
	tr, slept := newTestSingle(backend, 3, nil)

	res := tr.Translate(context.Background(), testSegments("hello", "world"), "fr", "en")

	if got := []string{res.Segments[0].Text, res.Segments[1].Text}; got[0] != "HELLO" || got[1] != "WORLD" {
		t.Errorf("texts = %v", got)
	}
	if res.Fallbacks != 0 {
		t.Errorf("fallbacks = %d, want 0", res.Fallbacks)
	}
	if backend.calls["hello"] != 3 {
		t.Errorf("hello attempts = %d, want 3", backend.calls["hello"])
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 backoffs, got %d", len(*slept))
	}
	for _, d := range *slept {
		if d != 300*time.Millisecond {
			t.Errorf("backoff = %v, want 300ms", d)
		}
	}
	if backend.deadlines != 4 {
		t.Errorf("expected every attempt to carry a deadline, got %d of 4", backend.deadlines)
	}
}

func TestRemoteSingleFallsBackPerSegment(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	backend := &flakyTextBackend{failures: map[string]int{"bad": 100}}
	tr, _ := newTestSingle(backend, 2, logging.New(core))

	res := tr.Translate(context.Background(), testSegments("good", "bad", "blank", "fine"), "de", "")

	want := []string{"GOOD", "bad", "blank", "FINE"}
	for i, seg := range res.Segments {
		if seg.Text != want[i] {
			t.Errorf("segment %d = %q, want %q", i, seg.Text, want[i])
		}
		if seg.Language != "de" {
			t.Errorf("segment %d language = %q, want de", i, seg.Language)
		}
	}
	if backend.calls["bad"] != 3 {
		t.Errorf("bad attempts = %d, want 1 + 2 retries", backend.calls["bad"])
	}
	if res.Fallbacks != 2 {
		t.Errorf("fallbacks = %d, want 2", res.Fallbacks)
	}
	if n := logs.FilterMessage("segment translation failed, keeping original text").Len(); n != 2 {
		t.Errorf("expected 2 fallback warnings, got %d", n)
	}
}

func TestRemoteSingleSkipsBlankSegments(t *testing.T) {
	backend := &flakyTextBackend{}
	tr, _ := newTestSingle(backend, 0, nil)

	res := tr.Translate(context.Background(), testSegments("  ", "x"), "es", "")

	if len(backend.calls) != 1 {
		t.Errorf("expected only the non-blank segment to be sent, got %v", backend.calls)
	}
	if res.Segments[0].Language != "es" {
		t.Error("blank segment should still be tagged with the target language")
	}
}

func TestRemoteSingleStopsOnCancelledContext(t *testing.T) {
	backend := &flakyTextBackend{}
	tr, _ := newTestSingle(backend, 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := tr.Translate(ctx, testSegments("a", "b"), "it", "")

	if len(backend.calls) != 0 {
		t.Errorf("backend called after cancellation: %v", backend.calls)
	}
	if res.Fallbacks != 2 || len(res.Segments) != 2 {
		t.Errorf("fallbacks = %d, segments = %d", res.Fallbacks, len(res.Segments))
	}
}

package subtitle

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func seg(start, end float64, text string) Segment {
	return Segment{Start: Seconds(start), End: Seconds(end), Text: text}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Segment
		min  time.Duration
		want []Segment
	}{
		{
			name: "empty",
			in:   nil,
			min:  time.Second,
			want: []Segment{},
		},
		{
			name: "drops blank and trims text",
			in:   []Segment{seg(0, 2, "  hi  "), seg(2, 3, "   "), seg(3, 5, "")},
			min:  500 * time.Millisecond,
			want: []Segment{seg(0, 2, "hi")},
		},
		{
			name: "sorts and resolves overlap",
			in:   []Segment{seg(3, 5, "b"), seg(0, 4, "a")},
			min:  500 * time.Millisecond,
			want: []Segment{seg(0, 4, "a"), seg(4, 5, "b")},
		},
		{
			name: "extends short and inverted segments",
			in:   []Segment{seg(0, 0.2, "a"), seg(5, 4, "b")},
			min:  time.Second,
			want: []Segment{seg(0, 1, "a"), seg(5, 6, "b")},
		},
		{
			name: "clamps negative times",
			in:   []Segment{seg(-2, -1, "a")},
			min:  500 * time.Millisecond,
			want: []Segment{seg(0, 0.5, "a")},
		},
		{
			name: "pushed segment keeps minimum",
			in:   []Segment{seg(0, 3, "a"), seg(1, 3.2, "b")},
			min:  time.Second,
			want: []Segment{seg(0, 3, "a"), seg(3, 4, "b")},
		},
		{
			name: "zero minimum still leaves a span",
			in:   []Segment{seg(2, 2, "a"), seg(5, 4, "b")},
			min:  0,
			want: []Segment{
				{Start: 2 * time.Second, End: 2*time.Second + time.Millisecond, Text: "a"},
				{Start: 5 * time.Second, End: 5*time.Second + time.Millisecond, Text: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, tt.min)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := []Segment{seg(3, 5, " b "), seg(0, 4, "a")}
	before := Clone(in)
	_ = Normalize(in, time.Second)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func randomSegments(r *rand.Rand, n int) []Segment {
	words := []string{"alpha", "beta", "", "  ", "gamma", "delta"}
	segs := make([]Segment, n)
	for i := range segs {
		start := r.Float64()*60 - 5
		segs[i] = Segment{
			Start: Seconds(start),
			End:   Seconds(start + r.Float64()*4 - 1),
			Text:  words[r.Intn(len(words))],
		}
	}
	return segs
}

func TestNormalizeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		min := time.Duration(r.Intn(1500)) * time.Millisecond
		in := randomSegments(r, r.Intn(25))
		out := Normalize(in, min)

		for i, s := range out {
			if s.Start < 0 {
				t.Fatalf("round %d: segment %d starts before zero: %v", round, i, s.Start)
			}
			if s.End <= s.Start {
				t.Fatalf("round %d: segment %d has no span: %v-%v", round, i, s.Start, s.End)
			}
			if s.Duration() < min {
				t.Fatalf("round %d: segment %d shorter than %v: %v", round, i, min, s.Duration())
			}
			if strings.TrimSpace(s.Text) == "" {
				t.Fatalf("round %d: segment %d has blank text", round, i)
			}
			if i > 0 && s.Start < out[i-1].End {
				t.Fatalf("round %d: segment %d overlaps previous", round, i)
			}
		}

		again := Normalize(out, min)
		if diff := cmp.Diff(out, again); diff != "" {
			t.Fatalf("round %d: Normalize not idempotent (-once +twice):\n%s", round, diff)
		}
	}
}

func TestMergeShort(t *testing.T) {
	got := MergeShort([]Segment{seg(0, 0.3, "Hi"), seg(0.4, 2.0, "there")}, time.Second)
	want := []Segment{seg(0, 2, "Hi there")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeShort mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeShortFlushesLongSegments(t *testing.T) {
	in := []Segment{seg(0, 2, "one"), seg(2, 2.2, "two"), seg(2.3, 2.5, "three"), seg(3, 5, "four")}
	got := MergeShort(in, time.Second)
	want := []Segment{seg(0, 2, "one"), seg(2, 5, "two three four")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeShort mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeCombinesLanguageAndConfidence(t *testing.T) {
	a := seg(0, 0.2, "a")
	b := seg(0.2, 0.4, "b")
	b.Language = "en"
	b.Confidence = Confidence(0.8)
	c := seg(0.4, 2, "c")
	c.Language = "fr"
	c.Confidence = Confidence(0.4)

	got := MergeShort([]Segment{a, b, c}, time.Second)
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0].Language != "en" {
		t.Errorf("language = %q, want first non-empty en", got[0].Language)
	}
	if got[0].Confidence == nil {
		t.Fatal("confidence lost")
	}
	// b alone is taken as-is, then averaged with c
	if want := 0.6; *got[0].Confidence < want-1e-9 || *got[0].Confidence > want+1e-9 {
		t.Errorf("confidence = %v, want %v", *got[0].Confidence, want)
	}
	if b.Confidence == nil || *b.Confidence != 0.8 {
		t.Error("input confidence mutated")
	}
}

func TestMergeByLimits(t *testing.T) {
	tests := []struct {
		name     string
		in       []Segment
		maxDur   time.Duration
		maxChars int
		want     []string
	}{
		{
			name:     "merges within limits",
			in:       []Segment{seg(0, 1, "a"), seg(1.5, 2, "b"), seg(2.5, 3, "c")},
			maxDur:   10 * time.Second,
			maxChars: 200,
			want:     []string{"a b c"},
		},
		{
			name:     "duration limit",
			in:       []Segment{seg(0, 4, "a"), seg(4, 8, "b"), seg(8, 12, "c")},
			maxDur:   8 * time.Second,
			maxChars: 200,
			want:     []string{"a b", "c"},
		},
		{
			name:     "char limit counts separator",
			in:       []Segment{seg(0, 1, "abcd"), seg(1, 2, "efgh")},
			maxDur:   10 * time.Second,
			maxChars: 8,
			want:     []string{"abcd", "efgh"},
		},
		{
			name:     "gap above two seconds",
			in:       []Segment{seg(0, 1, "a"), seg(3.5, 4, "b")},
			maxDur:   30 * time.Second,
			maxChars: 500,
			want:     []string{"a", "b"},
		},
		{
			name:     "gap of exactly two seconds merges",
			in:       []Segment{seg(0, 1, "a"), seg(3, 4, "b")},
			maxDur:   30 * time.Second,
			maxChars: 500,
			want:     []string{"a b"},
		},
		{
			name:     "counts runes not bytes",
			in:       []Segment{seg(0, 1, "日本"), seg(1, 2, "語だ")},
			maxDur:   30 * time.Second,
			maxChars: 5,
			want:     []string{"日本 語だ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Texts(MergeByLimits(tt.in, tt.maxDur, tt.maxChars))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeByLimits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeNeverDropsText(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		in := Normalize(randomSegments(r, r.Intn(20)+1), 200*time.Millisecond)
		if len(in) == 0 {
			continue
		}
		for name, merged := range map[string][]Segment{
			"short":  MergeShort(in, 2*time.Second),
			"limits": MergeByLimits(in, 6*time.Second, 40),
		} {
			joined := strings.Join(Texts(merged), " ")
			pos := 0
			for _, s := range in {
				idx := strings.Index(joined[pos:], s.Text)
				if idx < 0 {
					t.Fatalf("round %d %s: text %q missing or out of order", round, name, s.Text)
				}
				pos += idx + len(s.Text)
			}
		}
	}
}

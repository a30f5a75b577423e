package subtitle

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// largest silence MergeByLimits will bridge
const MaxMergeGap = 2 * time.Second

// shortest span Normalize emits, so End is always after Start
const minSpan = time.Millisecond

// Normalize returns a sorted, non-overlapping copy of segs in which every
// segment lasts at least minDuration, and never less than a millisecond.
// Segments with blank text are dropped, negative times are clamped to zero,
// and a segment starting before the previous one ends is pushed back to
// that end.
func Normalize(segs []Segment, minDuration time.Duration) []Segment {
	if minDuration < minSpan {
		minDuration = minSpan
	}

	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		s.Text = text
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End < 0 {
			s.End = 0
		}
		if s.Confidence != nil {
			s.Confidence = Confidence(*s.Confidence)
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})

	var lastEnd time.Duration
	for i := range out {
		s := &out[i]
		if s.Start < lastEnd {
			s.Start = lastEnd
		}
		if s.End <= s.Start || s.End-s.Start < minDuration {
			s.End = s.Start + minDuration
		}
		lastEnd = s.End
	}

	return out
}

// MergeShort folds each segment shorter than minDuration into its
// successors until the accumulated segment is long enough.
func MergeShort(segs []Segment, minDuration time.Duration) []Segment {
	if len(segs) == 0 {
		return []Segment{}
	}

	out := make([]Segment, 0, len(segs))
	current := cloneSegment(segs[0])
	for _, next := range segs[1:] {
		if current.Duration() < minDuration {
			current = combine(current, next)
			continue
		}
		out = append(out, current)
		current = cloneSegment(next)
	}
	return append(out, current)
}

// MergeByLimits greedily joins neighbours while the joined segment stays
// within maxDuration and maxChars and the silence between them is at most
// MaxMergeGap.
func MergeByLimits(
	segs []Segment,
	maxDuration time.Duration,
	maxChars int,
) []Segment {
	if len(segs) == 0 {
		return []Segment{}
	}

	out := make([]Segment, 0, len(segs))
	current := cloneSegment(segs[0])
	for _, next := range segs[1:] {
		if canMerge(current, next, maxDuration, maxChars) {
			current = combine(current, next)
			continue
		}
		out = append(out, current)
		current = cloneSegment(next)
	}
	return append(out, current)
}

func canMerge(cur, next Segment, maxDuration time.Duration, maxChars int) bool {
	if next.End-cur.Start > maxDuration {
		return false
	}
	if utf8.RuneCountInString(cur.Text+" "+next.Text) > maxChars {
		return false
	}
	return next.Start-cur.End <= MaxMergeGap
}

// joins next onto acc, shared by both merge policies
func combine(acc, next Segment) Segment {
	acc.Text = acc.Text + " " + next.Text
	acc.End = next.End
	if acc.Language == "" {
		acc.Language = next.Language
	}
	switch {
	case acc.Confidence != nil && next.Confidence != nil:
		acc.Confidence = Confidence((*acc.Confidence + *next.Confidence) / 2)
	case next.Confidence != nil:
		acc.Confidence = Confidence(*next.Confidence)
	}
	return acc
}

func cloneSegment(s Segment) Segment {
	if s.Confidence != nil {
		s.Confidence = Confidence(*s.Confidence)
	}
	return s
}

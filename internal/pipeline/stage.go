package pipeline

import "sync"

// Stage names a step of a pipeline run.
type Stage string

const (
	StageInit              Stage = "init"
	StageAudioExtraction   Stage = "audio_extraction"
	StageTranscription     Stage = "transcription"
	StageSegmentProcessing Stage = "segment_processing"
	StageTranslation       Stage = "translation"
	StageRendering         Stage = "rendering"
	StagePersisted         Stage = "persisted"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// progress points per stage
const (
	progressInit        = 0.0
	progressAudioStart  = 0.1
	progressAudioEnd    = 0.3
	progressTranscribe  = 0.4
	progressTranscribed = 0.8
	progressSegments    = 0.85
	progressTranslation = 0.9
	progressRendering   = 0.95
	progressPersisted   = 0.98
	progressDone        = 1.0
)

// ProgressFunc receives stage updates; fraction is in [0,1].
type ProgressFunc func(stage Stage, fraction float64, message string)

// reports progress without ever going backwards
type progressReporter struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) report(stage Stage, fraction float64, message string) {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	if fraction < p.last {
		fraction = p.last
	}
	p.last = fraction
	p.mu.Unlock()
	p.fn(stage, fraction, message)
}

// failure keeps the fraction reached so far
func (p *progressReporter) fail(message string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	p.report(StageFailed, last, message)
}

package translate

import (
	"context"
	"strings"
	"time"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
	"github.com/kelriclink/VideoTranSrt/internal/subtitle"
)

// translates a segment sequence into a target language. Implementations
// never fail: anything that cannot be translated keeps its original text
// and is counted in Result.Fallbacks.
type Translator interface {
	Name() string
	Translate(
		ctx context.Context,
		segs []subtitle.Segment,
		target string,
		source string,
	) Result
}

// output of a translation pass, always the same length as the input
type Result struct {
	Segments       []subtitle.Segment `json:"-"`
	SourceLanguage string             `json:"source_language"`
	TargetLanguage string             `json:"target_language"`
	Translator     string             `json:"translator"`
	Fallbacks      int                `json:"fallbacks"`
}

// translates one text per request
type TextBackend interface {
	TranslateText(ctx context.Context, text, source, target string) (string, error)
}

// translates an ordered list in one request; the returned slice must have
// the same length and order as texts
type ListBackend interface {
	TranslateList(ctx context.Context, texts []string, source, target string) ([]string, error)
}

const (
	DefaultTimeout          = 15 * time.Second
	DefaultRetryCount       = 3
	DefaultMaxTokens        = 4000
	DefaultTemperature      = 0.3
	DefaultMaxBatchChars    = 4000
	DefaultMaxBatchSegments = 50
	DefaultConcurrency      = 3

	// pause between attempts of the same request
	retryBackoff = 300 * time.Millisecond
)

type Options struct {
	Timeout            time.Duration // per attempt
	RetryCount         int           // extra attempts after the first
	InsecureSkipVerify bool
	APIKey             string
	BaseURL            string
	Model              string
	MaxTokens          int
	Temperature        float64

	BatchMode        bool
	MaxBatchChars    int
	MaxBatchSegments int
	Concurrency      int // chunk requests in flight

	Prompt string // extra LLM instructions
}

func DefaultOptions() Options {
	return Options{
		Timeout:          DefaultTimeout,
		RetryCount:       DefaultRetryCount,
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		MaxBatchChars:    DefaultMaxBatchChars,
		MaxBatchSegments: DefaultMaxBatchSegments,
		Concurrency:      DefaultConcurrency,
	}
}

// fills zero values with defaults and clamps the temperature to [0,2]
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryCount < 0 {
		o.RetryCount = 0
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature < 0 {
		o.Temperature = 0
	}
	if o.Temperature > 2 {
		o.Temperature = 2
	}
	if o.MaxBatchChars <= 0 {
		o.MaxBatchChars = DefaultMaxBatchChars
	}
	if o.MaxBatchSegments <= 0 {
		o.MaxBatchSegments = DefaultMaxBatchSegments
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o
}

// translator type names
const (
	TypeSimple      = "simple"
	TypePassthrough = "passthrough"
	TypeGoogle      = "google"
	TypeDeepL       = "deepl"
	TypeOpenAI      = "openai"
	TypeAnthropic   = "anthropic"
	TypeGemini      = "gemini"
)

// all remote translator types
func Types() []string {
	return []string{TypeGoogle, TypeDeepL, TypeOpenAI, TypeAnthropic, TypeGemini}
}

// New builds the translator for a type name. Unknown names, and remote
// types that cannot be set up, degrade to Passthrough with a warning.
func New(
	ctx context.Context,
	name string,
	opts Options,
	logger *logging.Logger,
) Translator {
	logger = logging.OrNop(logger)
	opts = opts.withDefaults()
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "", TypeSimple, TypePassthrough:
		return NewPassthrough()
	case TypeGoogle:
		backend := newGoogleBackend(newHTTPClient(opts, logger), opts.BaseURL)
		return NewRemoteSingle(name, backend, opts, logger)
	}

	if !requiresKey(name) {
		logger.Warnw("unknown translator type, using passthrough", "translator", name)
		return NewPassthrough()
	}
	if opts.APIKey == "" {
		logger.Warnw("translator has no api key, using passthrough", "translator", name)
		return NewPassthrough()
	}

	var backend interface {
		TextBackend
		ListBackend
	}
	switch name {
	case TypeDeepL:
		backend = newDeepLBackend(newHTTPClient(opts, logger), opts.APIKey, opts.BaseURL)
	case TypeOpenAI:
		backend = newLLMBackend(newOpenAICompleter(opts, newHTTPClient(opts, logger)), opts.Prompt)
	case TypeAnthropic:
		backend = newLLMBackend(newAnthropicCompleter(opts, newHTTPClient(opts, logger)), opts.Prompt)
	case TypeGemini:
		completer, err := newGeminiCompleter(ctx, opts, newHTTPClient(opts, logger))
		if err != nil {
			logger.Warnw("failed to create gemini client, using passthrough", "error", err)
			return NewPassthrough()
		}
		backend = newLLMBackend(completer, opts.Prompt)
	}

	if opts.BatchMode {
		return NewRemoteBatch(name, backend, opts, logger)
	}
	return NewRemoteSingle(name, backend, opts, logger)
}

func requiresKey(name string) bool {
	switch name {
	case TypeDeepL, TypeOpenAI, TypeAnthropic, TypeGemini:
		return true
	}
	return false
}

// copies text unchanged and tags every segment with the target language
type Passthrough struct{}

func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (p *Passthrough) Name() string { return TypeSimple }

func (p *Passthrough) Translate(
	_ context.Context,
	segs []subtitle.Segment,
	target string,
	source string,
) Result {
	return Result{
		Segments:       tagged(segs, target),
		SourceLanguage: sourceOrAuto(source),
		TargetLanguage: target,
		Translator:     p.Name(),
	}
}

// clone of segs with the language set to target
func tagged(segs []subtitle.Segment, target string) []subtitle.Segment {
	out := subtitle.Clone(segs)
	for i := range out {
		out[i].Language = target
	}
	return out
}

func sourceOrAuto(source string) string {
	if strings.TrimSpace(source) == "" {
		return "auto"
	}
	return source
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

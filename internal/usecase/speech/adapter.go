package speech

import (
	"context"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

// MimeTypeOggOpus is the container the provider returns
const MimeTypeOggOpus = "audio/ogg; codecs=opus"

// Provider renders one piece of text to audio
type Provider interface {
	Speech(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// Options controls the rendered voice
type Options struct {
	Voice string
	Speed float64
}

// Adapter turns text into playable clips. It has no session side effects.
type Adapter struct {
	provider    Provider
	defaults    Options
	maxAttempts uint64
	interval    time.Duration
	logger      *zap.Logger
}

// NewAdapter creates a synthesis adapter
func NewAdapter(provider Provider, defaults Options, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Voice == "" {
		defaults.Voice = "alloy"
	}
	if defaults.Speed <= 0 {
		defaults.Speed = 1.0
	}
	return &Adapter{
		provider:    provider,
		defaults:    defaults,
		maxAttempts: 3,
		interval:    500 * time.Millisecond,
		logger:      logger,
	}
}

// WithRetry overrides the retry budget for transient failures
func (a *Adapter) WithRetry(attempts uint64, interval time.Duration) *Adapter {
	if attempts < 1 {
		attempts = 1
	}
	a.maxAttempts = attempts
	a.interval = interval
	return a
}

// Synthesize renders text into a clip, splitting long input into several
// segments. Errors are *SynthesisError.
func (a *Adapter) Synthesize(ctx context.Context, text string, opts Options) (*meeting.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &SynthesisError{Kind: Permanent, Err: ErrEmptyText}
	}
	if opts.Voice == "" {
		opts.Voice = a.defaults.Voice
	}
	if opts.Speed <= 0 {
		opts.Speed = a.defaults.Speed
	}

	clip := &meeting.Clip{Text: text, MimeType: MimeTypeOggOpus}
	for i, chunk := range SplitText(text, MaxInputChars) {
		audio, err := a.synthesizeChunk(ctx, chunk, opts)
		if err != nil {
			a.logger.Warn("Speech synthesis failed",
				zap.Int("segment", i),
				zap.String("kind", string(err.Kind)),
				zap.Error(err.Err),
			)
			return nil, err
		}
		clip.Segments = append(clip.Segments, audio)
	}
	return clip, nil
}

func (a *Adapter) synthesizeChunk(ctx context.Context, chunk string, opts Options) ([]byte, *SynthesisError) {
	var audio []byte
	op := func() error {
		out, err := a.provider.Speech(ctx, chunk, opts.Voice, opts.Speed)
		if err != nil {
			se := classify(err)
			if se.Kind == Permanent {
				return backoff.Permanent(se)
			}
			return se
		}
		audio = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.interval
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, a.maxAttempts-1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, classify(err)
	}
	return audio, nil
}

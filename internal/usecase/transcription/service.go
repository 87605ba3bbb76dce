package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
	"github.com/johnquangdev/focus-group-bot/pkg/jobcontext"
)

var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrCleanupFailed       = errors.New("transcript cleanup failed")
	ErrSummarizationFailed = errors.New("summarization failed")
)

// SpeechToText turns an audio container into text
type SpeechToText interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// TextModel post-processes transcripts
type TextModel interface {
	Clean(ctx context.Context, raw string) (string, error)
	Summarize(ctx context.Context, question string, answers []string) (string, error)
}

// Options controls timeouts and retries of external calls
type Options struct {
	Timeout     time.Duration
	MaxAttempts uint64
	Interval    time.Duration
}

// DefaultOptions mirrors the 60s timeout / 3 attempts of the provider clients
func DefaultOptions() Options {
	return Options{Timeout: 60 * time.Second, MaxAttempts: 3, Interval: time.Second}
}

// Service is the transcription capability used by the orchestrator
type Service struct {
	stt    SpeechToText
	text   TextModel
	opts   Options
	logger *zap.Logger
}

// NewService creates a transcription service
func NewService(stt SpeechToText, text TextModel, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Service{stt: stt, text: text, opts: opts, logger: logger}
}

// Transcribe converts one utterance into raw text
func (s *Service) Transcribe(ctx context.Context, u meeting.Utterance) (string, error) {
	if len(u.Audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}

	var text string
	err := s.retry(ctx, func(ctx context.Context) error {
		out, err := s.stt.Transcribe(ctx, bytes.NewReader(u.Audio))
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return text, nil
}

// Clean tidies a raw transcript
func (s *Service) Clean(ctx context.Context, raw string) (string, error) {
	var cleaned string
	err := s.retry(ctx, func(ctx context.Context) error {
		out, err := s.text.Clean(ctx, raw)
		if err != nil {
			return err
		}
		cleaned = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCleanupFailed, err)
	}
	return cleaned, nil
}

// Summarize condenses the answers given to one question
func (s *Service) Summarize(ctx context.Context, question string, answers []string) (string, error) {
	if len(answers) == 0 {
		return "", fmt.Errorf("%w: no answers", ErrSummarizationFailed)
	}

	var summary string
	err := s.retry(ctx, func(ctx context.Context) error {
		out, err := s.text.Summarize(ctx, question, answers)
		if err != nil {
			return err
		}
		summary = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}
	return summary, nil
}

func (s *Service) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		callCtx, cancel := s.callContext(ctx)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if jobcontext.IsNonRetryableError(err) && !jobcontext.IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		s.logger.Debug("External call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.Interval
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, s.opts.MaxAttempts-1), ctx))
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

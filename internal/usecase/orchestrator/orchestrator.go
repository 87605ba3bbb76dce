// Package orchestrator drives one focus group session: join the meeting,
// greet, ask every question, listen, summarize, and close, checkpointing the
// session after every meaningful transition.
package orchestrator

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/speech"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

var (
	// ErrPersistence is returned when a checkpoint could not be written
	ErrPersistence = errors.New("session persistence failed")
	// ErrStopped is logged when an administrative stop ended the run
	ErrStopped = errors.New("stop requested")
)

// Synthesizer renders text to playable audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts speech.Options) (*meeting.Clip, error)
}

// Transcriber turns utterances into text and condenses answers
type Transcriber interface {
	Transcribe(ctx context.Context, u meeting.Utterance) (string, error)
	Clean(ctx context.Context, raw string) (string, error)
	Summarize(ctx context.Context, question string, answers []string) (string, error)
}

// StopSignal reports administrative stop requests
type StopSignal interface {
	IsStopRequested(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// ArtifactStore keeps raw utterance audio and the final transcript
type ArtifactStore interface {
	UploadUtteranceAudio(ctx context.Context, sessionID uuid.UUID, question int, data []byte, contentType string) (string, error)
	UploadTranscript(ctx context.Context, sessionID uuid.UUID, transcript string) (string, error)
}

// Options tunes retry budgets of a run
type Options struct {
	JoinAttempts    uint64
	PersistAttempts uint64
	RetryInterval   time.Duration
	FinalizeTimeout time.Duration
	Now             func() time.Time
}

// DefaultOptions returns the production retry budgets
func DefaultOptions() Options {
	return Options{
		JoinAttempts:    3,
		PersistAttempts: 3,
		RetryInterval:   time.Second,
		FinalizeTimeout: 15 * time.Second,
		Now:             time.Now,
	}
}

// Result is what a finished run reports to its worker
type Result struct {
	SessionID      uuid.UUID
	Status         entities.SessionStatus
	QuestionsAsked int
	Err            error
}

// Orchestrator runs focus group sessions. It is safe to run several sessions
// concurrently; each Run owns its session exclusively.
type Orchestrator struct {
	driver      meeting.Driver
	synthesizer Synthesizer
	transcriber Transcriber
	sessions    repositories.SessionRepository
	focusGroups repositories.FocusGroupRepository
	stop        StopSignal
	artifacts   ArtifactStore
	prompts     config.Prompts
	opts        Options
	logger      *zap.Logger
}

// New creates an orchestrator
func New(
	driver meeting.Driver,
	synthesizer Synthesizer,
	transcriber Transcriber,
	sessions repositories.SessionRepository,
	focusGroups repositories.FocusGroupRepository,
	prompts config.Prompts,
	opts Options,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.JoinAttempts == 0 {
		opts.JoinAttempts = defaults.JoinAttempts
	}
	if opts.PersistAttempts == 0 {
		opts.PersistAttempts = defaults.PersistAttempts
	}
	if opts.FinalizeTimeout <= 0 {
		opts.FinalizeTimeout = defaults.FinalizeTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(prompts.Transitions) == 0 {
		prompts.Transitions = config.DefaultTransitions
	}

	return &Orchestrator{
		driver:      driver,
		synthesizer: synthesizer,
		transcriber: transcriber,
		sessions:    sessions,
		focusGroups: focusGroups,
		prompts:     prompts,
		opts:        opts,
		logger:      logger,
	}
}

// WithStopSignal enables polling for administrative stops between steps
func (o *Orchestrator) WithStopSignal(stop StopSignal) *Orchestrator {
	o.stop = stop
	return o
}

// WithArtifacts enables uploading utterance audio and the final transcript
func (o *Orchestrator) WithArtifacts(store ArtifactStore) *Orchestrator {
	o.artifacts = store
	return o
}

// Run executes the whole session. It blocks until the session reached a
// terminal status or could not be persisted. fg must have its questionnaire
// loaded. Failures are recorded on the session, never returned as panics.
func (o *Orchestrator) Run(ctx context.Context, fg *entities.FocusGroup, session *entities.FocusGroupSession) Result {
	r := &run{
		o:       o,
		fg:      fg,
		session: session,
		clips:   newClipCache(),
		logger: o.logger.With(
			zap.String("session_id", session.ID.String()),
			zap.String("focus_group_id", fg.ID.String()),
		),
	}
	return r.execute(ctx)
}

func (o *Orchestrator) retryPolicy(ctx context.Context, attempts uint64) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = o.opts.RetryInterval
	eb.MaxElapsedTime = 0
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, attempts-1), ctx)
}

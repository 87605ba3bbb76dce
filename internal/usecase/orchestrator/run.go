package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

type outcome int

const (
	outcomeContinue outcome = iota
	outcomeDegraded
	outcomeFatal
	outcomeStopped
)

func (o outcome) String() string {
	switch o {
	case outcomeContinue:
		return "continue"
	case outcomeDegraded:
		return "degraded"
	case outcomeFatal:
		return "fatal"
	case outcomeStopped:
		return "stopped"
	}
	return "unknown"
}

// stepResult is the typed outcome of one step
type stepResult struct {
	outcome outcome
	step    string
	err     error
}

func proceed() stepResult { return stepResult{outcome: outcomeContinue} }

func degraded(step string, err error) stepResult {
	return stepResult{outcome: outcomeDegraded, step: step, err: err}
}

func fatal(step string, err error) stepResult {
	return stepResult{outcome: outcomeFatal, step: step, err: err}
}

func stopped(step string) stepResult {
	return stepResult{outcome: outcomeStopped, step: step, err: ErrStopped}
}

func (s stepResult) ends() bool {
	return s.outcome == outcomeFatal || s.outcome == outcomeStopped
}

// run is the state of one Orchestrator.Run call
type run struct {
	o          *Orchestrator
	fg         *entities.FocusGroup
	session    *entities.FocusGroupSession
	conn       meeting.Connection
	clips      *clipCache
	fillers    fillerPlayer
	transition int
	left       bool
	logger     *zap.Logger
}

func (r *run) now() time.Time {
	return r.o.opts.Now()
}

func (r *run) execute(ctx context.Context) Result {
	if r.session.IsTerminal() {
		r.logger.Warn("Session already terminal, nothing to run", zap.String("status", string(r.session.Status)))
		return r.result(nil)
	}

	if sr := r.join(ctx); sr.ends() {
		return r.finish(ctx, sr)
	}
	defer r.leave()

	if sr := r.boundary(ctx, "greeting"); sr.ends() {
		return r.finish(ctx, sr)
	}
	if sr := r.greet(ctx); sr.ends() {
		return r.finish(ctx, sr)
	}

	questions := r.fg.Questions()
	for i, q := range questions {
		step := questionStep(i)
		if sr := r.boundary(ctx, step); sr.ends() {
			return r.finish(ctx, sr)
		}
		if sr := r.askQuestion(ctx, i, len(questions), q); sr.ends() {
			return r.finish(ctx, sr)
		}
	}

	if sr := r.boundary(ctx, "closing"); sr.ends() {
		return r.finish(ctx, sr)
	}
	return r.close(ctx)
}

// boundary runs the checks made before every step
func (r *run) boundary(ctx context.Context, step string) stepResult {
	if r.stopRequested(ctx) {
		return stopped(step)
	}
	if err := ctx.Err(); err != nil {
		return fatal(step, err)
	}
	if r.conn != nil && !r.conn.IsConnected() {
		return fatal(step, meeting.ErrDisconnected)
	}
	return proceed()
}

func (r *run) stopRequested(ctx context.Context) bool {
	if r.o.stop == nil {
		return false
	}
	requested, err := r.o.stop.IsStopRequested(ctx, r.session.ID)
	if err != nil {
		r.logger.Warn("Failed to poll stop signal", zap.Error(err))
		return false
	}
	return requested
}

// note records a degraded step on the session and carries on
func (r *run) note(sr stepResult) stepResult {
	if sr.outcome != outcomeDegraded {
		return sr
	}
	r.session.LogError(r.now(), sr.err, sr.step)
	r.logger.Warn("Step degraded", zap.String("step", sr.step), zap.Error(sr.err))
	return proceed()
}

// failure classifies a synthesis or playback error. Losing the meeting ends
// the run, anything else is skippable.
func (r *run) failure(step string, err error) stepResult {
	if errors.Is(err, meeting.ErrDisconnected) || (r.conn != nil && !r.conn.IsConnected()) {
		return fatal(step, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fatal(step, err)
	}
	return degraded(step, err)
}

func (r *run) join(ctx context.Context) stepResult {
	r.session.BeginJoin(r.now())
	if err := r.checkpoint(ctx); err != nil {
		return fatal("join", err)
	}

	attempt := 0
	var conn meeting.Connection
	op := func() error {
		attempt++
		c, err := r.o.driver.Join(ctx, r.fg.MeetingLink)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("Join attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, r.o.retryPolicy(ctx, r.o.opts.JoinAttempts), notify); err != nil {
		if !errors.Is(err, meeting.ErrJoinFailed) {
			err = fmt.Errorf("%w: %v", meeting.ErrJoinFailed, err)
		}
		return fatal("join", err)
	}
	r.conn = conn

	if err := r.session.Activate(); err != nil {
		return fatal("join", err)
	}
	r.updateFocusGroup(ctx, (*entities.FocusGroup).MarkInProgress)
	if err := r.checkpoint(ctx); err != nil {
		return fatal("join", err)
	}

	r.logger.Info("Bot joined meeting", zap.String("meeting_id", r.fg.MeetingID), zap.Int("attempts", attempt))
	return proceed()
}

func (r *run) greet(ctx context.Context) stepResult {
	text := greetingText(r.o.prompts.Greeting, r.fg.Title, len(r.fg.Participants))
	if err := r.say(ctx, text); err != nil {
		return r.note(r.failure("greeting", err))
	}
	return proceed()
}

func (r *run) askQuestion(ctx context.Context, i, total int, q entities.Question) stepResult {
	step := questionStep(i)
	logger := r.logger.With(zap.Int("question", i+1))

	if err := r.say(ctx, questionText(i, total, q.Text)); err != nil {
		if sr := r.note(r.failure("ask "+step, err)); sr.ends() {
			return sr
		}
	}

	idx := r.session.AskQuestion(q, r.askedAt())
	logger.Info("Question asked", zap.String("question_id", q.ID))

	if sr := r.listen(ctx, idx, i); sr.ends() {
		return sr
	}

	if r.fg.BotSettings().EnableSummarization {
		if sr := r.note(r.summarize(ctx, idx, i)); sr.ends() {
			return sr
		}
	}

	if err := r.checkpoint(ctx); err != nil {
		return fatal(step, err)
	}
	logger.Info("Question checkpointed", zap.Int("responses", len(r.session.QuestionResponses[idx].Responses)))
	return proceed()
}

// askedAt is strictly increasing across the questions of a session
func (r *run) askedAt() time.Time {
	now := r.now()
	if n := len(r.session.QuestionResponses); n > 0 {
		if last := r.session.QuestionResponses[n-1].AskedAt; !now.After(last) {
			now = last.Add(time.Millisecond)
		}
	}
	return now
}

func (r *run) listen(ctx context.Context, idx, i int) stepResult {
	window := r.fg.BotSettings().ListenWindow()
	deadline := time.Now().Add(window)

	for u := range r.conn.Listen(ctx, window) {
		r.record(ctx, idx, i, u)
		if time.Until(deadline) > 0 {
			r.playFiller(ctx)
		}
	}
	r.fillers.wait()

	if err := ctx.Err(); err != nil {
		return fatal("listen "+questionStep(i), err)
	}
	if !r.conn.IsConnected() {
		return fatal("listen "+questionStep(i), meeting.ErrDisconnected)
	}
	return proceed()
}

func (r *run) record(ctx context.Context, idx, i int, u meeting.Utterance) {
	raw, err := r.o.transcriber.Transcribe(ctx, u)
	if err != nil {
		r.note(degraded("transcribe "+questionStep(i), err))
		return
	}

	text := raw
	if cleaned, err := r.o.transcriber.Clean(ctx, raw); err != nil {
		r.logger.Debug("Cleanup failed, keeping raw text", zap.Error(err))
	} else if cleaned != "" {
		text = cleaned
	}

	name := u.Participant.Name
	if invited, ok := r.fg.ParticipantName(u.Participant.Email); ok && invited != "" {
		name = invited
	}
	startedAt := u.StartedAt
	if startedAt.IsZero() {
		startedAt = r.now()
	}

	resp := entities.Response{
		ParticipantEmail: u.Participant.Email,
		ParticipantName:  name,
		Text:             text,
		Timestamp:        startedAt,
		Duration:         u.Duration.Seconds(),
	}
	if err := r.session.RecordResponse(idx, resp); err != nil {
		r.note(degraded("transcribe "+questionStep(i), err))
		return
	}
	r.fg.MarkParticipantJoined(u.Participant.Email)

	if r.o.artifacts != nil && len(u.Audio) > 0 {
		if _, err := r.o.artifacts.UploadUtteranceAudio(ctx, r.session.ID, i+1, u.Audio, u.MimeType); err != nil {
			r.logger.Warn("Failed to upload utterance audio", zap.Error(err))
		}
	}
}

func (r *run) playFiller(ctx context.Context) {
	if len(r.o.prompts.Transitions) == 0 {
		return
	}
	text := r.o.prompts.Transitions[r.transition%len(r.o.prompts.Transitions)]
	started := r.fillers.play(func() {
		if err := r.say(ctx, text); err != nil {
			r.logger.Debug("Transition filler failed", zap.Error(err))
		}
	})
	if started {
		r.transition++
	}
}

func (r *run) summarize(ctx context.Context, idx, i int) stepResult {
	qr := r.session.QuestionResponses[idx]
	if len(qr.Responses) == 0 {
		return proceed()
	}

	answers := make([]string, 0, len(qr.Responses))
	for _, resp := range qr.Responses {
		answers = append(answers, resp.Text)
	}

	step := "summarize " + questionStep(i)
	summary, err := r.o.transcriber.Summarize(ctx, qr.QuestionText, answers)
	if err != nil {
		return degraded(step, err)
	}
	r.session.SetSummary(idx, summary)

	if err := r.say(ctx, summaryText(summary)); err != nil {
		return r.failure(step, err)
	}
	return proceed()
}

func (r *run) close(ctx context.Context) Result {
	if err := r.say(ctx, r.o.prompts.Closing); err != nil {
		if sr := r.note(r.failure("closing", err)); sr.ends() {
			return r.finish(ctx, sr)
		}
	}
	return r.complete(ctx, "closing")
}

// complete writes the completed checkpoint. When it cannot be persisted the
// session falls back to failed.
func (r *run) complete(ctx context.Context, step string) Result {
	snapshot := r.session.Clone()
	if err := r.session.Complete(r.now()); err != nil {
		return r.finish(ctx, fatal(step, err))
	}
	fctx, cancel := r.finalizeContext(ctx)
	defer cancel()

	speakers := r.joinedParticipants()
	r.updateFocusGroup(fctx, func(fg *entities.FocusGroup) {
		for _, email := range speakers {
			fg.MarkParticipantJoined(email)
		}
		fg.MarkCompleted()
	})
	if err := r.checkpoint(fctx); err != nil {
		r.session = snapshot
		return r.finish(ctx, fatal(step, err))
	}

	r.leave()
	r.uploadTranscript(fctx)
	r.logger.Info("Session completed", zap.Int("questions", len(r.session.QuestionResponses)))
	return r.result(nil)
}

// finish ends the run after a fatal step or a stop request
func (r *run) finish(ctx context.Context, sr stepResult) Result {
	if errors.Is(sr.err, entities.ErrSessionFinalized) {
		return r.abandoned(ctx, sr.step)
	}
	if sr.outcome == outcomeStopped {
		r.session.LogError(r.now(), ErrStopped, "stop")
		r.logger.Info("Stop requested, closing session", zap.String("step", sr.step))
		return r.complete(ctx, "stop")
	}

	now := r.now()
	r.session.LogError(now, sr.err, sr.step)
	if err := r.session.Fail(now); err != nil {
		r.logger.Error("Failed to mark session failed", zap.Error(err))
	}
	r.logger.Error("Session failed", zap.String("step", sr.step), zap.Stringer("outcome", sr.outcome), zap.Error(sr.err))

	fctx, cancel := r.finalizeContext(ctx)
	defer cancel()

	var err error
	if errors.Is(sr.err, ErrPersistence) {
		err = r.o.sessions.Save(fctx, r.session)
	} else {
		err = r.checkpoint(fctx)
	}
	if errors.Is(err, entities.ErrSessionFinalized) {
		return r.abandoned(ctx, sr.step)
	}
	if err != nil {
		r.logger.Error("Failed to persist failed session", zap.Error(err))
	}

	r.leave()
	return r.result(sr.err)
}

// abandoned leaves a session that was finalized outside this run, typically
// a stop that closed it before the bot got in, and reports the stored state.
func (r *run) abandoned(ctx context.Context, step string) Result {
	r.leave()

	fctx, cancel := r.finalizeContext(ctx)
	defer cancel()
	if stored, err := r.o.sessions.FindByID(fctx, r.session.ID); err == nil && stored != nil {
		r.session = stored
	}
	r.logger.Info("Session finalized elsewhere, leaving",
		zap.String("step", step),
		zap.String("status", string(r.session.Status)))
	return r.result(nil)
}

func (r *run) finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.o.opts.FinalizeTimeout)
}

// checkpoint persists the whole session with a bounded retry budget
func (r *run) checkpoint(ctx context.Context) error {
	r.session.UpdatedAt = r.now()
	op := func() error {
		err := r.o.sessions.Save(ctx, r.session)
		if errors.Is(err, entities.ErrSessionFinalized) || errors.Is(err, entities.ErrSessionConflict) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("Checkpoint failed, retrying", zap.Duration("wait", wait), zap.Error(err))
	}
	err := backoff.RetryNotify(op, r.o.retryPolicy(ctx, r.o.opts.PersistAttempts), notify)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entities.ErrSessionFinalized):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// joinedParticipants lists invitees seen in the meeting during this run
func (r *run) joinedParticipants() []string {
	var out []string
	for _, p := range r.fg.Participants {
		if p.Status != entities.ParticipantStatusInvited {
			out = append(out, p.Email)
		}
	}
	return out
}

// updateFocusGroup applies mark to the stored focus group rather than the copy
// loaded at start, keeping joins recorded by webhooks during the run.
func (r *run) updateFocusGroup(ctx context.Context, mark func(*entities.FocusGroup)) {
	fresh, err := r.o.focusGroups.Update(ctx, r.fg.ID, func(fg *entities.FocusGroup) error {
		mark(fg)
		return nil
	})
	if err != nil {
		mark(r.fg)
		r.logger.Warn("Failed to update focus group", zap.String("status", string(r.fg.Status)), zap.Error(err))
		return
	}
	r.fg.Status = fresh.Status
	r.fg.Participants = fresh.Participants
}

func (r *run) leave() {
	if r.conn == nil || r.left {
		return
	}
	r.fillers.wait()
	r.left = true
	if err := r.conn.Leave(); err != nil {
		r.logger.Warn("Failed to leave meeting", zap.Error(err))
	}
}

func (r *run) uploadTranscript(ctx context.Context) {
	if r.o.artifacts == nil || r.session.FullTranscript == "" {
		return
	}
	url, err := r.o.artifacts.UploadTranscript(ctx, r.session.ID, r.session.FullTranscript)
	if err != nil {
		r.logger.Warn("Failed to upload transcript", zap.Error(err))
		return
	}
	r.logger.Info("Transcript uploaded", zap.String("url", url))
}

// say synthesizes text, reusing clips of this run, and plays it
func (r *run) say(ctx context.Context, text string) error {
	clip, err := r.clips.get(ctx, r.o.synthesizer, text, r.o.voice())
	if err != nil {
		return err
	}
	return r.conn.Play(ctx, clip)
}

func (r *run) result(err error) Result {
	return Result{
		SessionID:      r.session.ID,
		Status:         r.session.Status,
		QuestionsAsked: len(r.session.QuestionResponses),
		Err:            err,
	}
}

func questionStep(i int) string {
	return fmt.Sprintf("q%d", i+1)
}

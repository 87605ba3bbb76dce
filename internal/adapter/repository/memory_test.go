package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

func TestMemorySessionSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusWaiting, session.Status)
	assert.Equal(t, entities.BotStatusIdle, session.BotStatus)

	require.NoError(t, session.Activate())
	idx := session.AskQuestion(entities.Question{ID: "q1", Text: "Why?"}, time.Now())
	require.NoError(t, session.RecordResponse(idx, entities.Response{ParticipantEmail: "a@x.io", Text: "because", Timestamp: time.Now()}))

	require.NoError(t, repo.Save(ctx, session))
	first, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, session))
	second, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second.QuestionResponses, 1)
	assert.Len(t, second.QuestionResponses[0].Responses, 1)
}

func TestMemorySessionCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)

	session.LogError(time.Now(), assert.AnError, "greeting")
	stored, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ErrorLogs)

	stored.LogError(time.Now(), assert.AnError, "greeting")
	again, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, again.ErrorLogs)
}

func TestMemorySessionFindLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	fgID := uuid.New()

	_, err := repo.FindLatestByFocusGroup(ctx, fgID)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)

	_, err = repo.Create(ctx, fgID)
	require.NoError(t, err)
	second, err := repo.Create(ctx, fgID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, uuid.New())
	require.NoError(t, err)

	latest, err := repo.FindLatestByFocusGroup(ctx, fgID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestMemorySessionSaveKeepsEndedSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, session.Activate())
	require.NoError(t, repo.Save(ctx, session))

	stale := session.Clone()
	require.NoError(t, session.Complete(time.Now()))
	require.NoError(t, repo.Save(ctx, session))

	// replaying the final write is harmless
	require.NoError(t, repo.Save(ctx, session))

	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, entities.ErrSessionFinalized)

	require.NoError(t, stale.Fail(time.Now()))
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, entities.ErrSessionFinalized)

	stored, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusCompleted, stored.Status)
	assert.Equal(t, entities.BotStatusEnded, stored.BotStatus)
}

func TestMemorySessionSaveRejectsOlderStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)

	waiting := session.Clone()
	require.NoError(t, session.Activate())
	require.NoError(t, repo.Save(ctx, session))

	err = repo.Save(ctx, waiting)
	assert.ErrorIs(t, err, entities.ErrSessionConflict)
}

func TestMemorySessionStopMark(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, session.Activate())
	require.NoError(t, repo.Save(ctx, session))

	at := time.Now()
	marked, err := repo.MarkStopRequested(ctx, session.ID, at)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusInProgress, marked.Status)
	assert.Equal(t, entities.BotStatusEnded, marked.BotStatus)

	// a checkpoint from the running bot does not bring it back
	session.BotStatus = entities.BotStatusActive
	require.NoError(t, repo.Save(ctx, session))
	assert.Equal(t, entities.BotStatusEnded, session.BotStatus)
	stored, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BotStatusEnded, stored.BotStatus)
	require.NotNil(t, stored.EndedAt)
	assert.True(t, stored.EndedAt.Equal(at))

	require.NoError(t, session.Complete(time.Now()))
	require.NoError(t, repo.Save(ctx, session))
	final, err := repo.MarkStopRequested(ctx, session.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusCompleted, final.Status)

	_, err = repo.MarkStopRequested(ctx, uuid.New(), at)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestMemorySessionSaveIfUnclaimed(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	session, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)

	closed := session.Clone()
	require.NoError(t, closed.Complete(time.Now()))

	session.BeginJoin(time.Now())
	require.NoError(t, repo.Save(ctx, session))

	err = repo.SaveIfUnclaimed(ctx, closed)
	assert.ErrorIs(t, err, entities.ErrSessionConflict)
	stored, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BotStatusJoining, stored.BotStatus)

	other, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, other.Complete(time.Now()))
	require.NoError(t, repo.SaveIfUnclaimed(ctx, other))

	err = repo.SaveIfUnclaimed(ctx, &entities.FocusGroupSession{ID: uuid.New()})
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestMemorySessionFindStale(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	old := time.Now().Add(-time.Hour)

	stale, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	stale.UpdatedAt = old
	require.NoError(t, repo.Save(ctx, stale))

	done, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, done.Activate())
	require.NoError(t, done.Complete(old))
	done.UpdatedAt = old
	require.NoError(t, repo.Save(ctx, done))

	_, err = repo.Create(ctx, uuid.New()) // fresh
	require.NoError(t, err)

	found, err := repo.FindStale(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}

func TestMemoryFocusGroupLoadsQuestionnaire(t *testing.T) {
	ctx := context.Background()
	questionnaires := NewMemoryQuestionnaireRepository()
	owner := uuid.New()
	q := &entities.Questionnaire{ID: uuid.New(), OwnerID: owner, IsActive: true, Questions: []entities.Question{{ID: "1", Order: 1, Text: "Hi?"}}}
	questionnaires.Put(q)

	repo := NewMemoryFocusGroupRepository(questionnaires)
	fg := entities.NewFocusGroup("Tea", "", owner, q.ID, time.Now(), 0, nil, entities.DefaultFocusGroupSettings())
	fg.MeetingID = "fg-room"
	require.NoError(t, repo.Create(ctx, fg))

	got, err := repo.FindByID(ctx, fg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Questionnaire)
	assert.Len(t, got.Questions(), 1)

	byRoom, err := repo.FindByMeetingID(ctx, "fg-room")
	require.NoError(t, err)
	assert.Equal(t, fg.ID, byRoom.ID)

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrFocusGroupNotFound)
	_, err = questionnaires.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrQuestionnaireNotFound)
}

func TestMemoryFocusGroupUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFocusGroupRepository(NewMemoryQuestionnaireRepository())
	participants := []entities.FocusGroupParticipant{{Email: "ann@example.com", Name: "Ann"}}
	fg := entities.NewFocusGroup("Tea", "", uuid.New(), uuid.New(), time.Now(), 0, participants, entities.DefaultFocusGroupSettings())
	require.NoError(t, repo.Create(ctx, fg))

	stale := *fg
	updated, err := repo.Update(ctx, fg.ID, func(fresh *entities.FocusGroup) error {
		fresh.MarkParticipantJoined("ann@example.com")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ParticipantStatusJoined, updated.Participants[0].Status)

	// a later update starts from the stored row, not from stale
	_, err = repo.Update(ctx, stale.ID, func(fresh *entities.FocusGroup) error {
		fresh.MarkCompleted()
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, fg.ID, func(fresh *entities.FocusGroup) error {
		fresh.Status = entities.FocusGroupStatusCancelled
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := repo.FindByID(ctx, fg.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.FocusGroupStatusCompleted, got.Status)
	assert.Equal(t, entities.ParticipantStatusCompleted, got.Participants[0].Status)

	_, err = repo.Update(ctx, uuid.New(), func(*entities.FocusGroup) error { return nil })
	assert.ErrorIs(t, err, entities.ErrFocusGroupNotFound)
}

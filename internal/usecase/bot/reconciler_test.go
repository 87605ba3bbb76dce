package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/internal/adapter/repository"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

func TestReconcileFailsStaleSessions(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemorySessionRepository()
	old := time.Now().Add(-time.Hour)

	stuck, err := sessions.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, stuck.Activate())
	stuck.UpdatedAt = old
	require.NoError(t, sessions.Save(ctx, stuck))

	fresh, err := sessions.Create(ctx, uuid.New())
	require.NoError(t, err)

	r := NewReconciler(sessions, 15*time.Minute, nil)
	n, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := sessions.FindByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusFailed, got.Status)
	assert.Equal(t, entities.BotStatusDisconnected, got.BotStatus)
	require.Len(t, got.ErrorLogs, 1)
	assert.Equal(t, "reconcile", got.ErrorLogs[0].Context)

	untouched, err := sessions.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusWaiting, untouched.Status)

	n, err = r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcilerSchedule(t *testing.T) {
	r := NewReconciler(repository.NewMemorySessionRepository(), time.Minute, nil)
	assert.Error(t, r.Start("not a schedule"))

	require.NoError(t, r.Start("@every 1h"))
	r.Stop()
}

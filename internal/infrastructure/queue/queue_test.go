package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(2)

	first := entities.NewBotTask(uuid.New(), uuid.New())
	second := entities.NewBotTask(uuid.New(), uuid.New())
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))
	assert.ErrorIs(t, q.Enqueue(ctx, entities.NewBotTask(uuid.New(), uuid.New())), ErrQueueFull)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, got.SessionID)
}

func TestMemoryQueueTimeout(t *testing.T) {
	q := NewMemoryQueue(1)

	got, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeTask(t *testing.T) {
	task := entities.NewBotTask(uuid.New(), uuid.New())
	payload, err := json.Marshal(task)
	require.NoError(t, err)

	got, err := decodeTask(payload)
	require.NoError(t, err)
	assert.Equal(t, task.FocusGroupID, got.FocusGroupID)
	assert.Equal(t, task.SessionID, got.SessionID)

	_, err = decodeTask([]byte("{not json"))
	assert.Error(t, err)
}

package livekit

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

// MockDriver joins no real room. The bot plays into the void and hears
// silence, which lets the whole pipeline run without a LiveKit server.
type MockDriver struct {
	logger *zap.Logger
}

// NewMockDriver creates a driver for LIVEKIT_USE_MOCK
func NewMockDriver(logger *zap.Logger) *MockDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockDriver{logger: logger}
}

// Join accepts any link that names a room
func (d *MockDriver) Join(ctx context.Context, meetingLink string) (meeting.Connection, error) {
	if _, err := RoomNameFromLink(meetingLink); err != nil {
		return nil, err
	}
	c := &mockConnection{logger: d.logger}
	c.connected.Store(true)
	return c, nil
}

type mockConnection struct {
	connected atomic.Bool
	logger    *zap.Logger
}

func (c *mockConnection) Play(ctx context.Context, clip *meeting.Clip) error {
	if !c.connected.Load() {
		return meeting.ErrDisconnected
	}
	c.logger.Debug("Mock playback", zap.String("text", clip.Text))
	return ctx.Err()
}

func (c *mockConnection) Listen(ctx context.Context, budget time.Duration) <-chan meeting.Utterance {
	out := make(chan meeting.Utterance)
	go func() {
		defer close(out)
		timer := time.NewTimer(budget)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}()
	return out
}

func (c *mockConnection) IsConnected() bool {
	return c.connected.Load()
}

func (c *mockConnection) Leave() error {
	c.connected.Store(false)
	return nil
}

package livekit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

func TestRoomNameFromLink(t *testing.T) {
	tests := []struct {
		link    string
		want    string
		wantErr bool
	}{
		{link: "http://localhost:3000/meet/fg-123", want: "fg-123"},
		{link: "https://meet.example.com/meet/fg-abc/", want: "fg-abc"},
		{link: "fg-plain", want: "fg-plain"},
		{link: "https://meet.example.com", wantErr: true},
		{link: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, err := RoomNameFromLink(tt.link)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func collect(ch <-chan meeting.Utterance) []meeting.Utterance {
	var out []meeting.Utterance
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func TestListenDeliversInCompletionOrder(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())
	c.connected.Store(true)

	// before the window opens: dropped
	c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "early@example.com"}})

	ch := c.Listen(context.Background(), 100*time.Millisecond)
	c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "ann@example.com"}})
	c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "bob@example.com"}})

	got := collect(ch)
	require.Len(t, got, 2)
	assert.Equal(t, "ann@example.com", got[0].Participant.Email)
	assert.Equal(t, "bob@example.com", got[1].Participant.Email)

	c.mu.Lock()
	assert.Nil(t, c.window)
	c.mu.Unlock()
}

func TestListenBoundedWithSlowConsumer(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())
	c.connected.Store(true)

	const budget = 100 * time.Millisecond
	start := time.Now()
	deadline := start.Add(budget)
	ch := c.Listen(context.Background(), budget)

	stop := make(chan struct{})
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "ann@example.com"}, StartedAt: now})
			}
		}
	}()

	var got []meeting.Utterance
	for u := range ch {
		got = append(got, u)
		time.Sleep(40 * time.Millisecond)
	}
	elapsed := time.Since(start)
	close(stop)
	<-produced

	// one item in the consumer's hands when the window closes, plus scheduling slack
	assert.Less(t, elapsed, budget+40*time.Millisecond+60*time.Millisecond)
	assert.NotEmpty(t, got)
	for _, u := range got {
		assert.False(t, u.StartedAt.After(deadline), "utterance started after the window")
	}

	c.mu.Lock()
	assert.Nil(t, c.window)
	c.mu.Unlock()
}

func TestListenDropsSpeechAfterDeadline(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())
	c.connected.Store(true)

	ch := c.Listen(context.Background(), 50*time.Millisecond)
	c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "late@example.com"}, StartedAt: time.Now().Add(time.Second)})
	c.deliver(meeting.Utterance{Participant: meeting.Participant{Email: "ann@example.com"}, StartedAt: time.Now()})

	got := collect(ch)
	require.Len(t, got, 1)
	assert.Equal(t, "ann@example.com", got[0].Participant.Email)
}

func TestListenWindowRejectsPushAfterClose(t *testing.T) {
	w := newListenWindow(time.Now().Add(time.Hour))
	w.push(meeting.Utterance{Participant: meeting.Participant{Email: "ann@example.com"}})
	w.close()
	w.push(meeting.Utterance{Participant: meeting.Participant{Email: "bob@example.com"}})

	pending := w.take()
	require.Len(t, pending, 1)
	assert.Equal(t, "ann@example.com", pending[0].Participant.Email)
}

func TestListenEndsOnDisconnect(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())
	c.connected.Store(true)

	ch := c.Listen(context.Background(), time.Hour)
	c.markGone()

	done := make(chan struct{})
	go func() {
		collect(ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listen window did not close after disconnect")
	}
	assert.False(t, c.IsConnected())
}

func TestListenEndsOnContext(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	ch := c.Listen(ctx, time.Hour)
	cancel()
	assert.Empty(t, collect(ch))
}

func TestPlayWhenDisconnected(t *testing.T) {
	c := newConnection(DefaultSegmenterOptions(), zap.NewNop())

	assert.NoError(t, c.Play(context.Background(), &meeting.Clip{}))
	err := c.Play(context.Background(), &meeting.Clip{Segments: [][]byte{[]byte("OggS")}})
	assert.ErrorIs(t, err, meeting.ErrDisconnected)
	assert.NoError(t, c.Leave())
	assert.NoError(t, c.Leave())
}

func TestMockDriver(t *testing.T) {
	d := NewMockDriver(nil)

	_, err := d.Join(context.Background(), "https://meet.example.com")
	assert.Error(t, err)

	conn, err := d.Join(context.Background(), "https://meet.example.com/meet/fg-1")
	require.NoError(t, err)
	assert.True(t, conn.IsConnected())
	assert.NoError(t, conn.Play(context.Background(), &meeting.Clip{Text: "hi"}))
	assert.Empty(t, collect(conn.Listen(context.Background(), 10*time.Millisecond)))
	require.NoError(t, conn.Leave())
	assert.ErrorIs(t, conn.Play(context.Background(), &meeting.Clip{Text: "hi"}), meeting.ErrDisconnected)
}

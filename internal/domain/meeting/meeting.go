// Package meeting defines the boundary between the session orchestrator and a
// live meeting platform.
package meeting

import (
	"context"
	"errors"
	"time"
)

var (
	ErrJoinFailed     = errors.New("meeting join failed")
	ErrDisconnected   = errors.New("meeting connection lost")
	ErrPlaybackFailed = errors.New("audio playback failed")
)

// Clip is synthesized audio ready to be played into the meeting.
// Segments are Ogg/Opus payloads played back to back.
type Clip struct {
	Text     string
	MimeType string
	Segments [][]byte
}

// Empty reports whether the clip has nothing to play
func (c *Clip) Empty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Segments {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Participant identifies a speaker in the meeting
type Participant struct {
	Email string
	Name  string
}

// Utterance is a single contiguous stretch of one participant's speech
type Utterance struct {
	Participant Participant
	Audio       []byte // Ogg/Opus container
	MimeType    string
	StartedAt   time.Time
	Duration    time.Duration
}

// Driver joins meetings
type Driver interface {
	// Join enters the meeting behind meetingLink. Errors wrap ErrJoinFailed.
	Join(ctx context.Context, meetingLink string) (Connection, error)
}

// Connection is the bot's presence in one meeting
type Connection interface {
	// Play blocks until the clip finished playing. Errors wrap
	// ErrPlaybackFailed or ErrDisconnected.
	Play(ctx context.Context, clip *Clip) error

	// Listen streams completed utterances until budget elapses, ctx is done
	// or the connection drops. The channel is closed at the end and a
	// connection serves one listening window at a time.
	Listen(ctx context.Context, budget time.Duration) <-chan Utterance

	// IsConnected reports whether the bot is still in the meeting
	IsConnected() bool

	// Leave exits the meeting. Safe to call more than once.
	Leave() error
}

package livekit

import (
	"bytes"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

type packetFeed struct {
	seq uint16
	ts  uint32
	at  time.Time
}

func (f *packetFeed) next(payloadSize int) (*rtp.Packet, time.Time) {
	f.seq++
	f.ts += 960
	f.at = f.at.Add(opusFrame)
	return &rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 111, SequenceNumber: f.seq, Timestamp: f.ts},
		Payload: bytes.Repeat([]byte{0xfc}, payloadSize),
	}, f.at
}

func (f *packetFeed) speak(t *testing.T, s *segmenter, frames int) []*meeting.Utterance {
	t.Helper()
	var out []*meeting.Utterance
	for i := 0; i < frames; i++ {
		pkt, at := f.next(40)
		u, err := s.push(pkt, at)
		require.NoError(t, err)
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

func testOptions() SegmenterOptions {
	return SegmenterOptions{SilenceGap: 200 * time.Millisecond, MinDuration: 100 * time.Millisecond}
}

func TestSegmenterSplitsOnSilenceGap(t *testing.T) {
	speaker := meeting.Participant{Email: "ann@example.com", Name: "Ann"}
	s := newSegmenter(speaker, testOptions())
	feed := &packetFeed{at: time.Unix(1000, 0)}

	assert.Empty(t, feed.speak(t, s, 25)) // 500ms of speech

	// 300ms without voice
	feed.at = feed.at.Add(300 * time.Millisecond)
	got := feed.speak(t, s, 10)
	require.Len(t, got, 1)

	u := got[0]
	assert.Equal(t, speaker, u.Participant)
	assert.Equal(t, "audio/ogg", u.MimeType)
	assert.Equal(t, time.Unix(1000, 0).Add(opusFrame), u.StartedAt)
	assert.Equal(t, 500*time.Millisecond, u.Duration)
	assert.True(t, bytes.HasPrefix(u.Audio, []byte("OggS")))

	last, err := s.flush(feed.at, true)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 200*time.Millisecond, last.Duration)
}

func TestSegmenterDropsShortNoise(t *testing.T) {
	s := newSegmenter(meeting.Participant{Email: "bob@example.com"}, testOptions())
	feed := &packetFeed{at: time.Unix(0, 0)}

	feed.speak(t, s, 2) // 40ms blip
	u, err := s.flush(feed.at.Add(time.Second), false)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, s.packets)
}

func TestSegmenterSilentPacketsCloseUtterance(t *testing.T) {
	s := newSegmenter(meeting.Participant{Email: "bob@example.com"}, testOptions())
	feed := &packetFeed{at: time.Unix(0, 0)}
	feed.speak(t, s, 10)

	var closed *meeting.Utterance
	for i := 0; i < 20 && closed == nil; i++ {
		pkt, at := feed.next(1)
		u, err := s.push(pkt, at)
		require.NoError(t, err)
		closed = u
	}
	require.NotNil(t, closed)
	assert.Equal(t, 200*time.Millisecond, closed.Duration)
}

func TestSegmenterFlushWaitsForGap(t *testing.T) {
	s := newSegmenter(meeting.Participant{Email: "ann@example.com"}, testOptions())
	feed := &packetFeed{at: time.Unix(0, 0)}
	feed.speak(t, s, 10)

	u, err := s.flush(feed.at.Add(50*time.Millisecond), false)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.flush(feed.at.Add(250*time.Millisecond), false)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestSegmenterMaxDuration(t *testing.T) {
	opts := testOptions()
	opts.MaxDuration = 400 * time.Millisecond
	s := newSegmenter(meeting.Participant{Email: "ann@example.com"}, opts)
	feed := &packetFeed{at: time.Unix(0, 0)}

	got := feed.speak(t, s, 50) // one second of speech
	assert.Len(t, got, 2)
}

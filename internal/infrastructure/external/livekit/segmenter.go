package livekit

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

const (
	opusSampleRate = 48000
	opusChannels   = 2
	opusFrame      = 20 * time.Millisecond

	// Opus DTX and comfort-noise frames carry at most a few bytes
	silencePayloadMax = 3
)

// SegmenterOptions controls how a speaker's packets are cut into utterances
type SegmenterOptions struct {
	SilenceGap  time.Duration // silence that ends an utterance
	MinDuration time.Duration // shorter utterances are dropped as noise
	MaxDuration time.Duration // longer utterances are cut, 0 disables
}

// DefaultSegmenterOptions returns the defaults used by the driver
func DefaultSegmenterOptions() SegmenterOptions {
	return SegmenterOptions{
		SilenceGap:  1200 * time.Millisecond,
		MinDuration: 400 * time.Millisecond,
		MaxDuration: 60 * time.Second,
	}
}

// segmenter accumulates the RTP packets of one remote audio track and emits
// utterances as Ogg/Opus containers. Payloads are never decoded.
type segmenter struct {
	opts        SegmenterOptions
	participant meeting.Participant

	mu        sync.Mutex
	packets   []*rtp.Packet
	startedAt time.Time
	lastVoice time.Time
}

func newSegmenter(p meeting.Participant, opts SegmenterOptions) *segmenter {
	return &segmenter{opts: opts, participant: p}
}

// push adds a packet received at now. It returns the previous utterance when
// the packet closed it.
func (s *segmenter) push(pkt *rtp.Packet, now time.Time) (*meeting.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voiced := len(pkt.Payload) > silencePayloadMax
	active := len(s.packets) > 0

	if !voiced {
		if active && now.Sub(s.lastVoice) >= s.opts.SilenceGap {
			return s.cut()
		}
		if active {
			s.packets = append(s.packets, pkt)
		}
		return nil, nil
	}

	var done *meeting.Utterance
	if active && now.Sub(s.lastVoice) >= s.opts.SilenceGap {
		u, err := s.cut()
		if err != nil {
			return nil, err
		}
		done = u
	}

	if len(s.packets) == 0 {
		s.startedAt = now
	}
	s.packets = append(s.packets, pkt)
	s.lastVoice = now

	if done == nil && s.opts.MaxDuration > 0 && now.Sub(s.startedAt) >= s.opts.MaxDuration {
		return s.cut()
	}
	return done, nil
}

// flush closes the open utterance when the speaker has been silent long
// enough, or unconditionally when force is set.
func (s *segmenter) flush(now time.Time, force bool) (*meeting.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.packets) == 0 {
		return nil, nil
	}
	if !force && now.Sub(s.lastVoice) < s.opts.SilenceGap {
		return nil, nil
	}
	return s.cut()
}

// cut packages the buffered packets and resets the buffer. Must hold mu.
func (s *segmenter) cut() (*meeting.Utterance, error) {
	packets := s.packets
	s.packets = nil

	duration := s.lastVoice.Sub(s.startedAt) + opusFrame
	if duration < s.opts.MinDuration {
		return nil, nil
	}

	audio, err := encodeOgg(packets)
	if err != nil {
		return nil, err
	}

	return &meeting.Utterance{
		Participant: s.participant,
		Audio:       audio,
		MimeType:    "audio/ogg",
		StartedAt:   s.startedAt,
		Duration:    duration,
	}, nil
}

func encodeOgg(packets []*rtp.Packet) ([]byte, error) {
	var buf bytes.Buffer
	w, err := oggwriter.NewWith(&buf, opusSampleRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to create ogg writer: %w", err)
	}
	for _, pkt := range packets {
		if err := w.WriteRTP(pkt); err != nil {
			return nil, fmt.Errorf("failed to write ogg page: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ogg writer: %w", err)
	}
	return buf.Bytes(), nil
}

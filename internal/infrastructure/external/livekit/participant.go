package livekit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

const (
	botTrackName  = "moderator-voice"
	sweepInterval = 200 * time.Millisecond
)

// DriverOptions configures the bot participant
type DriverOptions struct {
	URL       string
	Identity  string
	Name      string
	TokenTTL  time.Duration
	Segmenter SegmenterOptions
}

// Driver joins LiveKit rooms as the moderator bot
type Driver struct {
	client Client
	opts   DriverOptions
	logger *zap.Logger
}

var _ meeting.Driver = (*Driver)(nil)

// NewDriver creates a meeting driver backed by LiveKit
func NewDriver(client Client, opts DriverOptions, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 6 * time.Hour
	}
	if opts.Segmenter.SilenceGap <= 0 {
		opts.Segmenter = DefaultSegmenterOptions()
	}
	return &Driver{client: client, opts: opts, logger: logger}
}

// RoomNameFromLink extracts the LiveKit room name, the last path segment of
// a meeting link
func RoomNameFromLink(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("invalid meeting link: %w", err)
	}
	name := path.Base(strings.TrimRight(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("meeting link %q has no room name", link)
	}
	return name, nil
}

// Join connects the bot to the room behind meetingLink
func (d *Driver) Join(ctx context.Context, meetingLink string) (meeting.Connection, error) {
	roomName, err := RoomNameFromLink(meetingLink)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrJoinFailed, err)
	}

	token, err := d.client.GenerateToken(d.opts.Identity, roomName, d.opts.Name, &TokenOptions{
		ValidFor:     d.opts.TokenTTL,
		CanPublish:   true,
		CanSubscribe: true,
		RoomJoin:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrJoinFailed, err)
	}

	conn := newConnection(d.opts.Segmenter, d.logger.With(zap.String("room", roomName)))
	room, err := lksdk.ConnectToRoomWithToken(d.opts.URL, token, conn.callback(), lksdk.WithAutoSubscribe(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrJoinFailed, err)
	}
	if err := ctx.Err(); err != nil {
		room.Disconnect()
		return nil, fmt.Errorf("%w: %v", meeting.ErrJoinFailed, err)
	}

	conn.attach(room)
	d.logger.Info("Bot connected to room", zap.String("room", roomName), zap.String("identity", d.opts.Identity))
	return conn, nil
}

// connection is the bot's presence in one LiveKit room
type connection struct {
	opts   SegmenterOptions
	logger *zap.Logger

	lkRoom    *lksdk.Room
	connected atomic.Bool
	gone      chan struct{}
	goneOnce  sync.Once
	playMu    sync.Mutex

	mu         sync.Mutex
	window     *listenWindow
	segmenters map[string]*segmenter
}

func newConnection(opts SegmenterOptions, logger *zap.Logger) *connection {
	return &connection{
		opts:       opts,
		logger:     logger,
		gone:       make(chan struct{}),
		segmenters: make(map[string]*segmenter),
	}
}

func (c *connection) attach(r *lksdk.Room) {
	c.lkRoom = r
	c.connected.Store(true)
	go c.sweep()
}

func (c *connection) callback() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		OnDisconnected: func() {
			c.logger.Warn("Disconnected from room")
			c.markGone()
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if track.Kind() != webrtc.RTPCodecTypeAudio {
					return
				}
				speaker := meeting.Participant{Email: rp.Identity(), Name: rp.Name()}
				c.logger.Info("Subscribed to participant audio", zap.String("identity", speaker.Email))
				go c.readTrack(track, speaker)
			},
		},
	}
}

func (c *connection) markGone() {
	c.connected.Store(false)
	c.goneOnce.Do(func() { close(c.gone) })
}

// readTrack feeds one remote audio track into its speaker's segmenter
func (c *connection) readTrack(track *webrtc.TrackRemote, speaker meeting.Participant) {
	seg := newSegmenter(speaker, c.opts)
	key := track.ID() + "/" + speaker.Email

	c.mu.Lock()
	c.segmenters[key] = seg
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.segmenters, key)
		c.mu.Unlock()
		if u, err := seg.flush(time.Now(), true); err == nil && u != nil {
			c.deliver(*u)
		}
	}()

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug("Audio track ended", zap.String("identity", speaker.Email), zap.Error(err))
			}
			return
		}
		u, err := seg.push(pkt, time.Now())
		if err != nil {
			c.logger.Warn("Failed to package utterance", zap.Error(err))
			continue
		}
		if u != nil {
			c.deliver(*u)
		}
	}
}

// sweep closes utterances of speakers that stopped sending packets
func (c *connection) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.gone:
			return
		case now := <-ticker.C:
			c.flushSegments(now, false)
		}
	}
}

func (c *connection) flushSegments(now time.Time, force bool) {
	c.mu.Lock()
	segs := make([]*segmenter, 0, len(c.segmenters))
	for _, s := range c.segmenters {
		segs = append(segs, s)
	}
	c.mu.Unlock()

	for _, s := range segs {
		u, err := s.flush(now, force)
		if err != nil {
			c.logger.Warn("Failed to package utterance", zap.Error(err))
			continue
		}
		if u != nil {
			c.deliver(*u)
		}
	}
}

// deliver hands a finished utterance to the open listening window. Speech
// outside a window is dropped.
func (c *connection) deliver(u meeting.Utterance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.window != nil {
		c.window.push(u)
	}
}

// Play publishes every segment of the clip as an Opus track and waits for it
// to finish
func (c *connection) Play(ctx context.Context, clip *meeting.Clip) error {
	if clip.Empty() {
		return nil
	}
	if !c.IsConnected() {
		return meeting.ErrDisconnected
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	for _, segment := range clip.Segments {
		if len(segment) == 0 {
			continue
		}
		if err := c.playSegment(ctx, segment); err != nil {
			return err
		}
	}
	return nil
}

func (c *connection) playSegment(ctx context.Context, segment []byte) error {
	done := make(chan struct{})
	var once sync.Once
	track, err := lksdk.NewLocalReaderTrack(
		io.NopCloser(bytes.NewReader(segment)),
		webrtc.MimeTypeOpus,
		lksdk.ReaderTrackWithOnWriteComplete(func() { once.Do(func() { close(done) }) }),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", meeting.ErrPlaybackFailed, err)
	}

	pub, err := c.lkRoom.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{Name: botTrackName})
	if err != nil {
		if !c.IsConnected() {
			return fmt.Errorf("%w: %v", meeting.ErrDisconnected, err)
		}
		return fmt.Errorf("%w: %v", meeting.ErrPlaybackFailed, err)
	}
	defer func() {
		if err := c.lkRoom.LocalParticipant.UnpublishTrack(pub.SID()); err != nil {
			c.logger.Debug("Failed to unpublish track", zap.Error(err))
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", meeting.ErrPlaybackFailed, ctx.Err())
	case <-c.gone:
		return meeting.ErrDisconnected
	}
}

// Listen opens a listening window of at most budget. The channel closes at
// the budget even when the consumer lags; speech it cannot take by then is
// dropped.
func (c *connection) Listen(ctx context.Context, budget time.Duration) <-chan meeting.Utterance {
	out := make(chan meeting.Utterance)
	w := newListenWindow(time.Now().Add(budget))

	c.mu.Lock()
	c.window = w
	c.mu.Unlock()

	closeWindow := func() {
		c.mu.Lock()
		if c.window == w {
			c.window = nil
		}
		w.close()
		c.mu.Unlock()
	}

	go func() {
		defer close(out)
		defer closeWindow()
		dropped := w.run(ctx, out, budget, c.gone, func() {
			c.flushSegments(time.Now(), true)
			closeWindow()
		})
		if dropped > 0 {
			c.logger.Debug("Listening window closed with undelivered speech", zap.Int("dropped", dropped))
		}
	}()
	return out
}

// IsConnected reports whether the bot is still in the room
func (c *connection) IsConnected() bool {
	return c.connected.Load()
}

// Leave disconnects from the room
func (c *connection) Leave() error {
	if c.lkRoom != nil && c.IsConnected() {
		c.lkRoom.Disconnect()
	}
	c.markGone()
	return nil
}

// listenWindow queues utterances so producers never block on the consumer
type listenWindow struct {
	deadline time.Time
	notify   chan struct{}

	mu      sync.Mutex
	pending []meeting.Utterance
	closed  bool
}

func newListenWindow(deadline time.Time) *listenWindow {
	return &listenWindow{deadline: deadline, notify: make(chan struct{}, 1)}
}

func (w *listenWindow) push(u meeting.Utterance) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = append(w.pending, u)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *listenWindow) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *listenWindow) take() []meeting.Utterance {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.pending
	w.pending = nil
	return out
}

// requeue puts back utterances that could not be forwarded
func (w *listenWindow) requeue(us []meeting.Utterance) {
	w.mu.Lock()
	w.pending = append(us, w.pending...)
	w.mu.Unlock()
}

// late reports speech that started after the window closed
func (w *listenWindow) late(u meeting.Utterance) bool {
	return !u.StartedAt.IsZero() && u.StartedAt.After(w.deadline)
}

// forward blocks on out until everything pending is sent or one of the stop
// channels fires. It reports whether it sent everything.
func (w *listenWindow) forward(ctx context.Context, out chan<- meeting.Utterance, expired <-chan time.Time, gone <-chan struct{}) bool {
	pending := w.take()
	for i, u := range pending {
		if w.late(u) {
			continue
		}
		select {
		case out <- u:
		case <-expired:
			w.requeue(pending[i:])
			return false
		case <-gone:
			w.requeue(pending[i:])
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// drain sends what the consumer is ready for right now and returns how many
// utterances were dropped
func (w *listenWindow) drain(out chan<- meeting.Utterance) int {
	pending := w.take()
	for i, u := range pending {
		if w.late(u) {
			continue
		}
		select {
		case out <- u:
		default:
			return len(pending) - i
		}
	}
	return 0
}

// run forwards utterances to out until budget elapses, ctx is done or the
// connection is gone. onClose runs at the budget so trailing speech is kept;
// it must stop further pushes. run returns the number of dropped utterances.
func (w *listenWindow) run(ctx context.Context, out chan<- meeting.Utterance, budget time.Duration, gone <-chan struct{}, onClose func()) int {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	expire := func() int {
		if onClose != nil {
			onClose()
		} else {
			w.close()
		}
		return w.drain(out)
	}

	for {
		select {
		case <-timer.C:
			return expire()
		default:
		}

		if !w.forward(ctx, out, timer.C, gone) {
			select {
			case <-ctx.Done():
				return 0
			case <-gone:
				return w.drain(out)
			default:
				return expire()
			}
		}

		select {
		case <-w.notify:
		case <-timer.C:
			return expire()
		case <-ctx.Done():
			return 0
		case <-gone:
			return w.drain(out)
		}
	}
}

package transcription

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
)

type fakeSTT struct {
	errs  []error
	text  string
	calls int
	got   []byte
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	f.calls++
	f.got, _ = io.ReadAll(audio)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.text, nil
}

type fakeText struct {
	cleanErr   error
	summaryErr error
	calls      int
}

func (f *fakeText) Clean(ctx context.Context, raw string) (string, error) {
	f.calls++
	if f.cleanErr != nil {
		return "", f.cleanErr
	}
	return "clean: " + raw, nil
}

func (f *fakeText) Summarize(ctx context.Context, question string, answers []string) (string, error) {
	f.calls++
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return " summary of " + question + " ", nil
}

func testOptions() Options {
	return Options{Timeout: time.Second, MaxAttempts: 3, Interval: time.Millisecond}
}

func TestTranscribe(t *testing.T) {
	stt := &fakeSTT{text: "hello"}
	s := NewService(stt, &fakeText{}, testOptions(), nil)

	out, err := s.Transcribe(context.Background(), meeting.Utterance{Audio: []byte("OggS")})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, []byte("OggS"), stt.got)
}

func TestTranscribeRetriesTransientErrors(t *testing.T) {
	stt := &fakeSTT{text: "hello", errs: []error{errors.New("status 503 service unavailable")}}
	s := NewService(stt, &fakeText{}, testOptions(), nil)

	out, err := s.Transcribe(context.Background(), meeting.Utterance{Audio: []byte("OggS")})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, 2, stt.calls)
}

func TestTranscribeLogsRetries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	stt := &fakeSTT{text: "hello", errs: []error{errors.New("status 503 service unavailable")}}
	s := NewService(stt, &fakeText{}, testOptions(), zap.New(core))

	_, err := s.Transcribe(context.Background(), meeting.Utterance{Audio: []byte("OggS")})
	require.NoError(t, err)

	retries := logs.FilterMessage("External call failed, retrying").All()
	require.Len(t, retries, 1)
	assert.Equal(t, int64(1), retries[0].ContextMap()["attempt"])
}

func TestTranscribeStopsOnPermanentErrors(t *testing.T) {
	stt := &fakeSTT{errs: []error{errors.New("400 bad request")}}
	s := NewService(stt, &fakeText{}, testOptions(), nil)

	_, err := s.Transcribe(context.Background(), meeting.Utterance{Audio: []byte("OggS")})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Equal(t, 1, stt.calls)
}

func TestTranscribeEmptyAudio(t *testing.T) {
	stt := &fakeSTT{}
	s := NewService(stt, &fakeText{}, testOptions(), nil)

	_, err := s.Transcribe(context.Background(), meeting.Utterance{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Equal(t, 0, stt.calls)
}

func TestClean(t *testing.T) {
	s := NewService(&fakeSTT{}, &fakeText{}, testOptions(), nil)
	out, err := s.Clean(context.Background(), "uh hi")
	require.NoError(t, err)
	assert.Equal(t, "clean: uh hi", out)

	failing := NewService(&fakeSTT{}, &fakeText{cleanErr: errors.New("invalid api key")}, testOptions(), nil)
	_, err = failing.Clean(context.Background(), "uh hi")
	assert.ErrorIs(t, err, ErrCleanupFailed)
}

func TestSummarize(t *testing.T) {
	text := &fakeText{}
	s := NewService(&fakeSTT{}, text, testOptions(), nil)

	_, err := s.Summarize(context.Background(), "Q?", nil)
	assert.ErrorIs(t, err, ErrSummarizationFailed)
	assert.Equal(t, 0, text.calls)

	out, err := s.Summarize(context.Background(), "Q?", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "summary of Q?", out)

	failing := NewService(&fakeSTT{}, &fakeText{summaryErr: errors.New("rate limit")}, testOptions(), nil)
	_, err = failing.Summarize(context.Background(), "Q?", []string{"a"})
	assert.ErrorIs(t, err, ErrSummarizationFailed)
}

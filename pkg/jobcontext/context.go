package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type metadataKey struct{}

// JobMetadata describes one attempt at running a focus group bot task.
type JobMetadata struct {
	JobID        uuid.UUID
	JobType      string
	SessionID    uuid.UUID
	FocusGroupID uuid.UUID
	WorkerID     int
	StartTime    time.Time
}

// JobBegin derives a job context carrying metadata. A positive timeout bounds
// the whole job.
func JobBegin(parentCtx context.Context, meta JobMetadata, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}

	if meta.StartTime.IsZero() {
		meta.StartTime = time.Now()
	}
	return context.WithValue(ctx, metadataKey{}, meta), cancel
}

// JobEnd runs jobFunc unless ctx is already done. A panic comes back as an
// error carrying the stack, keeping the worker goroutine alive.
func JobEnd(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	if ctx.Err() != nil {
		return fmt.Errorf("job not started: %w", ctx.Err())
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v\n%s", p, debug.Stack())
		}
	}()

	return jobFunc(ctx)
}

func GetJobMetadata(ctx context.Context) (JobMetadata, bool) {
	meta, ok := ctx.Value(metadataKey{}).(JobMetadata)
	return meta, ok
}

// GetWorkerID is -1 outside a job.
func GetWorkerID(ctx context.Context) int {
	meta, ok := GetJobMetadata(ctx)
	if !ok {
		return -1
	}
	return meta.WorkerID
}

// Fields tags log lines with the running job, or nothing outside one.
func Fields(ctx context.Context) []zap.Field {
	meta, ok := GetJobMetadata(ctx)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("job_id", meta.JobID.String()),
		zap.String("job_type", meta.JobType),
		zap.String("session_id", meta.SessionID.String()),
		zap.String("focus_group_id", meta.FocusGroupID.String()),
		zap.Int("worker_id", meta.WorkerID),
	}
}

// Substrings of transient failures reported by the store, LiveKit and the
// speech and chat APIs.
var retryableMarkers = []string{
	"context deadline exceeded",
	"connection refused", "connection reset", "network unreachable",
	"no such host", "i/o timeout", "eof",
	"deadlock", "40001", "40p01",
	"rate limit", "too many requests", "429",
	"status 5", "internal server error", "service unavailable", "bad gateway",
	"temporary failure", "try again",
}

var permanentMarkers = []string{
	"context canceled",
	"400", "401", "403", "404", "bad request",
	"invalid", "validation failed", "malformed", "parse error",
}

// IsRetryableError reports whether a bot job step failing with err is worth
// another attempt. A cancelled context never is.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return containsAny(err, retryableMarkers)
}

// IsNonRetryableError reports client-side failures that will not heal on
// their own.
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return containsAny(err, permanentMarkers)
}

func containsAny(err error, markers []string) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// CalculateBackoff calculates exponential backoff duration, capped at max
func CalculateBackoff(attempt int, baseDelay, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 16 {
		attempt = 16
	}

	backoff := time.Duration(1<<uint(attempt)) * baseDelay
	if max > 0 && backoff > max {
		backoff = max
	}
	return backoff
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

// presignExpiry is the lifetime of artifact links (the S3 maximum)
const presignExpiry = 7 * 24 * time.Hour

// MinIOClient stores session artifacts: raw utterance audio and the final transcript
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL for generating accessible URLs (e.g., https://minio.example.com)
	now       func() time.Time
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       time.Now,
	}

	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return client, nil
}

// ensureBucket creates the bucket when missing. Artifacts hold participant
// speech, so the bucket stays private and is read through presigned URLs.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// UploadUtteranceAudio stores one utterance of a question and returns a link to it
func (m *MinIOClient) UploadUtteranceAudio(ctx context.Context, sessionID uuid.UUID, question int, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "audio/ogg"
	}
	key := utteranceKey(sessionID, question, m.now())
	if err := m.upload(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return m.GetFileURL(ctx, key, presignExpiry)
}

// UploadTranscript stores the full transcript of a session and returns a link to it
func (m *MinIOClient) UploadTranscript(ctx context.Context, sessionID uuid.UUID, transcript string) (string, error) {
	key := transcriptKey(sessionID)
	if err := m.upload(ctx, key, []byte(transcript), "text/plain; charset=utf-8"); err != nil {
		return "", err
	}
	return m.GetFileURL(ctx, key, presignExpiry)
}

func (m *MinIOClient) upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// GetFileURL gets a presigned URL for accessing a file
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return rewriteHost(u, m.publicURL), nil
}

// rewriteHost swaps the internal endpoint for the public one when MinIO sits
// behind a reverse proxy
func rewriteHost(u *url.URL, publicURL string) string {
	if publicURL == "" {
		return u.String()
	}
	pathAndQuery := u.EscapedPath()
	if u.RawQuery != "" {
		pathAndQuery += "?" + u.RawQuery
	}
	return publicURL + pathAndQuery
}

func utteranceKey(sessionID uuid.UUID, question int, at time.Time) string {
	return fmt.Sprintf("sessions/%s/q%02d/%d.ogg", sessionID, question, at.UnixNano())
}

func transcriptKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("sessions/%s/transcript.txt", sessionID)
}

package storage

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeys(t *testing.T) {
	id := uuid.MustParse("7f1c2a34-5b6d-4e8f-9a0b-1c2d3e4f5a6b")
	at := time.Unix(0, 42)

	assert.Equal(t, "sessions/7f1c2a34-5b6d-4e8f-9a0b-1c2d3e4f5a6b/q03/42.ogg", utteranceKey(id, 3, at))
	assert.Equal(t, "sessions/7f1c2a34-5b6d-4e8f-9a0b-1c2d3e4f5a6b/transcript.txt", transcriptKey(id))
}

func TestRewriteHost(t *testing.T) {
	u, err := url.Parse("http://minio:9000/focus-groups/sessions/a/transcript.txt?X-Amz-Signature=abc")
	require.NoError(t, err)

	assert.Equal(t, u.String(), rewriteHost(u, ""))
	assert.Equal(t,
		"https://files.example.com/focus-groups/sessions/a/transcript.txt?X-Amz-Signature=abc",
		rewriteHost(u, "https://files.example.com"))
}

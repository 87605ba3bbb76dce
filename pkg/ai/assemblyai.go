package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

// ErrEmptyTranscript is returned when the audio contained no recognizable speech
var ErrEmptyTranscript = errors.New("transcript is empty")

// AssemblyAIClient transcribes short audio clips with the AssemblyAI SDK
type AssemblyAIClient struct {
	client   *aai.Client
	language string
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig) *AssemblyAIClient {
	var apiKey, baseURL, language string
	httpClient := &http.Client{}
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		language = cfg.Language
		if cfg.Timeout > 0 {
			httpClient.Timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	if language == "" {
		language = "en"
	}

	opts := []aai.ClientOption{aai.WithAPIKey(apiKey), aai.WithHTTPClient(httpClient)}
	if baseURL != "" {
		opts = append(opts, aai.WithBaseURL(baseURL))
	}

	return &AssemblyAIClient{
		client:   aai.NewClientWithOptions(opts...),
		language: language,
	}
}

// Transcribe uploads the audio and waits for the transcript text
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageCode: aai.TranscriptLanguageCode(c.language),
	}

	transcript, err := c.client.Transcripts.TranscribeFromReader(ctx, audio, params)
	if err != nil {
		return "", fmt.Errorf("assemblyai transcription failed: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return "", fmt.Errorf("assemblyai transcription failed: %s", msg)
	}

	if transcript.Text == nil || strings.TrimSpace(*transcript.Text) == "" {
		return "", ErrEmptyTranscript
	}

	return strings.TrimSpace(*transcript.Text), nil
}

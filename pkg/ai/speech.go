package ai

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

// SpeechClient synthesizes speech with the OpenAI audio API
type SpeechClient struct {
	client openai.Client
	model  string
}

// NewSpeechClient creates a TTS client. Retries are left to the caller so
// failures can be classified.
func NewSpeechClient(cfg *config.SpeechConfig) *SpeechClient {
	var apiKey, baseURL, model string
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		model = cfg.Model
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-mini-tts"
	}

	opts = append(opts, option.WithAPIKey(apiKey))
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &SpeechClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Speech returns an Ogg/Opus rendition of text
func (c *SpeechClient) Speech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	res, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatOpus,
		Speed:          openai.Float(speed),
	})
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech audio is empty")
	}
	return audio, nil
}

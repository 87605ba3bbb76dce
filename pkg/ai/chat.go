package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

const (
	cleanupPrompt = "You clean up speech-to-text output from a focus group discussion. " +
		"Fix punctuation, casing and obvious recognition errors. Remove filler words. " +
		"Do not add, summarize or change the meaning. Reply with the cleaned text only."

	summaryPrompt = "You are the moderator of a focus group. Summarize the participants' answers " +
		"to the question in two or three sentences, spoken aloud to the group. " +
		"Mention points of agreement and disagreement. Reply with the summary only."
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint (Groq by default)
type ChatClient struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewChatClient creates a chat client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewChatClient(cfg *config.LLMConfig) *ChatClient {
	var apiKey, baseURL, model string
	temperature := 0.2
	opts := []option.RequestOption{}
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		model = cfg.Model
		temperature = cfg.Temperature
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1/"
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	opts = append(opts, option.WithAPIKey(apiKey), option.WithBaseURL(baseURL))
	return &ChatClient{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}
}

// Clean returns a cleaned-up version of a raw transcript
func (c *ChatClient) Clean(ctx context.Context, raw string) (string, error) {
	return c.complete(ctx, cleanupPrompt, raw)
}

// Summarize returns a short spoken summary of the answers to a question
func (c *ChatClient) Summarize(ctx context.Context, question string, answers []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nAnswers:\n", question)
	for _, a := range answers {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return c.complete(ctx, summaryPrompt, b.String())
}

func (c *ChatClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return content, nil
}

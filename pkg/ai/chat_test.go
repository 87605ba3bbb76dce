package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

func chatServer(t *testing.T, reply string, seen *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		*seen = append(*seen, payload)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   payload["model"],
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func TestChatClientClean(t *testing.T) {
	var seen []map[string]interface{}
	ts := chatServer(t, "  I like the blue one.  ", &seen)
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{APIKey: "k", BaseURL: ts.URL + "/", Model: "test-model"})
	out, err := client.Clean(context.Background(), "uh i like the the blue one")
	require.NoError(t, err)
	assert.Equal(t, "I like the blue one.", out)

	require.Len(t, seen, 1)
	assert.Equal(t, "test-model", seen[0]["model"])
	messages, ok := seen[0]["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestChatClientSummarize(t *testing.T) {
	var seen []map[string]interface{}
	ts := chatServer(t, "Most of you liked the price.", &seen)
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{APIKey: "k", BaseURL: ts.URL + "/", Model: "m"})
	out, err := client.Summarize(context.Background(), "What do you think of the price?", []string{"Cheap", "Fair"})
	require.NoError(t, err)
	assert.Equal(t, "Most of you liked the price.", out)

	messages := seen[0]["messages"].([]interface{})
	user := messages[1].(map[string]interface{})
	assert.Contains(t, user["content"], "- Cheap")
	assert.Contains(t, user["content"], "What do you think of the price?")
}

func TestChatClientEmptyReply(t *testing.T) {
	var seen []map[string]interface{}
	ts := chatServer(t, "   ", &seen)
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{APIKey: "k", BaseURL: ts.URL + "/", Model: "m"})
	_, err := client.Clean(context.Background(), "text")
	assert.Error(t, err)
}

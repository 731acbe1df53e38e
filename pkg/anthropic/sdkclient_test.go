package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a client pointing at a local test server with SDK
// retries disabled.
func newTestClient(baseURL string) Client {
	return NewClient("test-key", WithBaseURL(baseURL), WithMaxRetries(0))
}

func writeMessage(w http.ResponseWriter, id, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"id":   id,
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-sonnet-4-5-20250929",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                1600,
			"output_tokens":               8,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     400,
		},
	})
}

func TestSDKClient_CreateMessage_InlineImage(t *testing.T) {
	img := []byte("\x89PNG fake")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body struct {
			System      []map[string]any `json:"system"`
			Temperature float64          `json:"temperature"`
			Messages    []struct {
				Role    string           `json:"role"`
				Content []map[string]any `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		require.Len(t, body.System, 1)
		assert.Equal(t, "system prompt", body.System[0]["text"])
		assert.NotNil(t, body.System[0]["cache_control"])
		assert.Equal(t, 0.0, body.Temperature)

		require.Len(t, body.Messages, 1)
		content := body.Messages[0].Content
		require.Len(t, content, 2)
		assert.Equal(t, "image", content[0]["type"])
		source := content[0]["source"].(map[string]any)
		assert.Equal(t, "base64", source["type"])
		assert.Equal(t, "image/png", source["media_type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(img), source["data"])
		assert.Equal(t, "text", content[1]["type"])

		writeMessage(w, "msg_inline", `{"present":"yes"}`)
	}))
	defer ts.Close()

	temp := 0.0
	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   16,
		System:      BuildCachedSystemBlocks("system prompt", ""),
		Temperature: &temp,
		Messages: []Message{{
			Role:    "user",
			Content: "Answer yes or no.",
			Images:  []Image{{MediaType: "image/png", Data: img}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_inline", resp.ID)
	assert.Equal(t, `{"present":"yes"}`, resp.Text())
	assert.Equal(t, int64(1600), resp.Usage.InputTokens)
	assert.Equal(t, int64(400), resp.Usage.CacheReadInputTokens)
}

func TestSDKClient_CreateMessage_URLImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content []map[string]any `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		source := body.Messages[0].Content[0]["source"].(map[string]any)
		assert.Equal(t, "url", source["type"])
		assert.Equal(t, "https://maps.example.test/tile.png", source["url"])

		writeMessage(w, "msg_url", "no")
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 16,
		Messages: []Message{{
			Role:    "user",
			Content: "Answer yes or no.",
			Images:  []Image{{URL: "https://maps.example.test/tile.png"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "no", resp.Text())
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type": "error",
			"error": map[string]any{
				"type":    "api_error",
				"message": "Internal server error",
			},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	assert.NotNil(t, NewClient("key"))
	assert.NotNil(t, NewClient("key", WithBaseURL("http://localhost"), WithMaxRetries(2)))
}

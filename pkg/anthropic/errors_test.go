package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func apiError(t *testing.T, status int) error {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"x"}}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 8,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	return err
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(apiError(t, http.StatusServiceUnavailable)))
	assert.True(t, IsTransient(apiError(t, statusOverloaded)))
	assert.True(t, IsTransient(apiError(t, http.StatusTooManyRequests)))
	assert.False(t, IsTransient(apiError(t, http.StatusBadRequest)))
	assert.True(t, IsTransient(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.False(t, IsTransient(errors.New("invalid model")))
}

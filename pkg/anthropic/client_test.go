package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSDKMessages_ImageBeforeText(t *testing.T) {
	msgs := toSDKMessages([]Message{{
		Role:    "user",
		Content: "Is there a site in this image?",
		Images:  []Image{{MediaType: "image/png", Data: []byte("png")}},
	}})

	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 2)
	assert.NotNil(t, msgs[0].Content[0].OfImage)
	assert.NotNil(t, msgs[0].Content[1].OfText)
	assert.Equal(t, "Is there a site in this image?", msgs[0].Content[1].OfText.Text)
}

func TestToSDKMessages_ImageOnly(t *testing.T) {
	msgs := toSDKMessages([]Message{{
		Role:   "user",
		Images: []Image{{URL: "https://example.test/tile.png"}},
	}})

	require.Len(t, msgs[0].Content, 1)
	assert.NotNil(t, msgs[0].Content[0].OfImage)
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "Q"},
		{Role: "assistant", Content: "A"},
		{Role: "other", Content: "Q2"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestToSDKSystemBlocks(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "plain"},
		{Text: "cached", CacheControl: &CacheControl{TTL: "1h"}},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "plain", blocks[0].Text)
	assert.Equal(t, "cached", blocks[1].Text)
	assert.Equal(t, "1h", string(blocks[1].CacheControl.TTL))
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: `{"present":`},
		{Type: "thinking", Text: "ignored"},
		{Type: "text", Text: `"yes"}`},
	}}
	assert.Equal(t, `{"present":"yes"}`, resp.Text())
}

func TestTokenUsage_Add(t *testing.T) {
	a := TokenUsage{InputTokens: 10, OutputTokens: 2, CacheReadInputTokens: 5}
	b := TokenUsage{InputTokens: 1, OutputTokens: 1, CacheCreationInputTokens: 7}
	assert.Equal(t, TokenUsage{
		InputTokens:              11,
		OutputTokens:             3,
		CacheCreationInputTokens: 7,
		CacheReadInputTokens:     5,
	}, a.Add(b))
}

func TestEstimateCost_Haiku(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	// input: 1M * $1.00/MTok = $1.00
	// output: 1M * $5.00/MTok = $5.00
	assert.InDelta(t, 6.00, cost, 0.001)
}

func TestEstimateCost_Sonnet(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	cost := usage.EstimateCost("claude-sonnet-4-5-20250929")
	assert.InDelta(t, 18.00, cost, 0.001)
}

func TestEstimateCost_WithCache(t *testing.T) {
	usage := TokenUsage{
		InputTokens:              500_000,
		OutputTokens:             100_000,
		CacheCreationInputTokens: 200_000,
		CacheReadInputTokens:     300_000,
	}
	cost := usage.EstimateCost("claude-sonnet-4-5-20250929")
	// input: 0.5M * $3 = $1.50
	// output: 0.1M * $15 = $1.50
	// cacheWrite: 0.2M * $3 * 1.25 = $0.75
	// cacheRead: 0.3M * $3 * 0.10 = $0.09
	assert.InDelta(t, 3.84, cost, 0.001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.Equal(t, 0.0, usage.EstimateCost("unknown-model"))
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 100, OutputTokens: 50}.LogCost("claude-haiku-4-5-20251001", "classify")
	})
	assert.NotPanics(t, func() {
		TokenUsage{}.LogCost("unknown-model", "")
	})
}

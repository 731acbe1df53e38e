package cost

import "math"

const (
	// maxImageEdgePx is the longest square edge the model accepts without
	// downscaling (about 1.15 megapixels).
	maxImageEdgePx = 1092
	// pixelsPerToken is the model's image tokenization rate.
	pixelsPerToken = 750
	// promptTokens covers the system prompt, question and message framing.
	promptTokens = 120
	// replyTokens is a generous bound on a {"present": "..."} reply.
	replyTokens = 12
)

// ImageTokens estimates the input tokens of one square tile image of
// sizePx at the given provider scale.
func ImageTokens(sizePx, scale int) int64 {
	if scale < 1 {
		scale = 1
	}
	edge := min(sizePx*scale, maxImageEdgePx)
	if edge <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(edge*edge) / pixelsPerToken))
}

// SweepEstimate is the projected classification spend of a sweep.
type SweepEstimate struct {
	Model               string  `json:"model"`
	Tiles               int     `json:"tiles"`
	InputTokensPerTile  int64   `json:"input_tokens_per_tile"`
	OutputTokensPerTile int64   `json:"output_tokens_per_tile"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CostUSD             float64 `json:"cost_usd"`
	// KnownModel is false when no rate exists for Model; CostUSD is then 0.
	KnownModel bool `json:"known_model"`
}

// EstimateSweep projects the worst case where every tile has imagery and is
// sent to the model once.
func (c *Calculator) EstimateSweep(model string, tiles, sizePx, scale int) SweepEstimate {
	perIn := ImageTokens(sizePx, scale) + promptTokens
	est := SweepEstimate{
		Model:               model,
		Tiles:               tiles,
		InputTokensPerTile:  perIn,
		OutputTokensPerTile: replyTokens,
		InputTokens:         perIn * int64(tiles),
		OutputTokens:        replyTokens * int64(tiles),
		KnownModel:          c.Known(model),
	}
	est.CostUSD = c.Claude(model, est.InputTokens, est.OutputTokens, 0, 0)
	return est
}

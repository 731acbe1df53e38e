package sweep

import (
	"time"

	"go.uber.org/zap"
)

// Summary reports what one invocation did.
type Summary struct {
	SweepID    string `json:"sweep_id"`
	RunID      string `json:"run_id"`
	OutputDir  string `json:"output_dir"`
	TotalTiles int    `json:"total_tiles"`
	StartIndex int    `json:"start_index"`

	Evaluated      int `json:"evaluated"`
	WithImagery    int `json:"with_imagery"`
	NoImagery      int `json:"no_imagery"`
	Positive       int `json:"positive"`
	Saved          int `json:"saved"`
	AlreadySaved   int `json:"already_saved"`
	FetchFailed    int `json:"fetch_failed"`
	ClassifyFailed int `json:"classify_failed"`
	PersistFailed  int `json:"persist_failed"`
	// Resumed counts tiles skipped because an earlier run processed them.
	Resumed int `json:"resumed"`

	LastProcessedIndex int           `json:"last_processed_index"`
	PendingFailures    int           `json:"pending_failures"`
	CostUSD            float64       `json:"cost_usd"`
	Duration           time.Duration `json:"duration"`
	Halted             bool          `json:"halted"`
	Canceled           bool          `json:"canceled"`
}

// Failed is the number of tiles processed this run without a clean outcome.
func (s *Summary) Failed() int {
	return s.FetchFailed + s.ClassifyFailed + s.PersistFailed
}

// Log writes the summary as a single structured line.
func (s *Summary) Log(log *zap.Logger) {
	log.Info("sweep summary",
		zap.Int("total_tiles", s.TotalTiles),
		zap.Int("start_index", s.StartIndex),
		zap.Int("evaluated", s.Evaluated),
		zap.Int("with_imagery", s.WithImagery),
		zap.Int("no_imagery", s.NoImagery),
		zap.Int("positive", s.Positive),
		zap.Int("saved", s.Saved),
		zap.Int("already_saved", s.AlreadySaved),
		zap.Int("fetch_failed", s.FetchFailed),
		zap.Int("classify_failed", s.ClassifyFailed),
		zap.Int("persist_failed", s.PersistFailed),
		zap.Int("resumed", s.Resumed),
		zap.Int("last_processed_index", s.LastProcessedIndex),
		zap.Int("pending_failures", s.PendingFailures),
		zap.Float64("cost_usd", s.CostUSD),
		zap.Duration("duration", s.Duration),
		zap.Bool("halted", s.Halted),
		zap.Bool("canceled", s.Canceled),
	)
}

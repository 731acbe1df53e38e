// Package progress persists per-sweep progress so an interrupted sweep can
// resume exactly where it stopped.
package progress

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/tiles"
)

// Spec is the set of sweep parameters that determine tile count, order and
// outcome. Changing any field yields a different sweep id.
type Spec struct {
	Center      geodesy.GeoPoint `json:"center" yaml:"center"`
	RadiusKm    float64          `json:"radius_km" yaml:"radius_km"`
	TileKm      float64          `json:"tile_km" yaml:"tile_km"`
	SizePx      int              `json:"size_px" yaml:"size_px"`
	Scale       int              `json:"scale" yaml:"scale"`
	MapType     string           `json:"map_type" yaml:"map_type"`
	Date        string           `json:"date,omitempty" yaml:"date,omitempty"`
	Classifier  string           `json:"classifier" yaml:"classifier"`
	TargetLabel string           `json:"target_label" yaml:"target_label"`
}

// Canonical renders the spec in a fixed textual form used for hashing.
func (s Spec) Canonical() string {
	return fmt.Sprintf("center=%.6f,%.6f;radius_km=%s;tile_km=%s;size_px=%d;scale=%d;map_type=%s;date=%s;classifier=%s;target_label=%s",
		s.Center.Lat, s.Center.Lon,
		tiles.FormatKm(s.RadiusKm), tiles.FormatKm(s.TileKm),
		s.SizePx, s.Scale,
		strings.ToLower(s.MapType), strings.TrimSpace(s.Date), s.Classifier, strings.ToLower(s.TargetLabel),
	)
}

// SweepID derives the stable identity of a sweep: a readable prefix plus
// the first 12 hex characters of the SHA-256 of the canonical spec.
func SweepID(s Spec) string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return fmt.Sprintf("%.4f_%.4f_r%skm_%s",
		s.Center.Lat, s.Center.Lon, tiles.FormatKm(s.RadiusKm), hex.EncodeToString(sum[:])[:12])
}

// Failure stages.
const (
	StageFetch    = "fetch"
	StageClassify = "classify"
	StagePersist  = "persist"
)

// Failure records a tile that was counted as processed without a clean
// outcome. Failures are retried only on request.
type Failure struct {
	Index    int       `json:"index" yaml:"index"`
	Lat      float64   `json:"lat" yaml:"lat"`
	Lon      float64   `json:"lon" yaml:"lon"`
	Stage    string    `json:"stage" yaml:"stage"`
	Kind     string    `json:"kind" yaml:"kind"`
	Error    string    `json:"error" yaml:"error"`
	FailedAt time.Time `json:"failed_at" yaml:"failed_at"`
}

// Range is an inclusive span of tile indices.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Record is the durable progress of one sweep.
type Record struct {
	SweepID            string    `json:"sweep_id" yaml:"sweep_id"`
	Spec               Spec      `json:"spec" yaml:"spec"`
	RunID              string    `json:"run_id" yaml:"run_id"`
	LastProcessedIndex int       `json:"last_processed_index" yaml:"last_processed_index"`
	TotalTiles         int       `json:"total_tiles" yaml:"total_tiles"`
	SavedCountThisRun  int       `json:"saved_count_this_run" yaml:"saved_count_this_run"`
	Completed          []Range   `json:"completed,omitempty" yaml:"completed,omitempty"`
	Failures           []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	CreatedAt          time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewRecord starts an empty record for spec.
func NewRecord(spec Spec, totalTiles int, now time.Time) *Record {
	return &Record{
		SweepID:    SweepID(spec),
		Spec:       spec,
		TotalTiles: totalTiles,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// StartIndex returns the first index a resumed sweep must visit and whether
// the sweep is already complete. A watermark outside [1, total] restarts
// from 1.
func (r *Record) StartIndex() (start int, complete bool) {
	switch {
	case r.TotalTiles > 0 && r.LastProcessedIndex == r.TotalTiles:
		return r.TotalTiles + 1, true
	case r.LastProcessedIndex >= 1 && r.LastProcessedIndex < r.TotalTiles:
		return r.LastProcessedIndex + 1, false
	default:
		return 1, false
	}
}

// Done reports whether index i is already processed.
func (r *Record) Done(i int) bool {
	return i <= r.LastProcessedIndex || containsIndex(r.Completed, i)
}

// MarkDone records index i as processed and advances the contiguous
// watermark over any completed ranges it now touches.
func (r *Record) MarkDone(i int) {
	if i <= r.LastProcessedIndex {
		return
	}
	r.Completed = addIndex(r.Completed, i)
	for len(r.Completed) > 0 && r.Completed[0].Start <= r.LastProcessedIndex+1 {
		r.LastProcessedIndex = max(r.LastProcessedIndex, r.Completed[0].End)
		r.Completed = r.Completed[1:]
	}
	if len(r.Completed) == 0 {
		r.Completed = nil
	}
}

// Complete reports whether every tile has been processed.
func (r *Record) Complete() bool {
	return r.TotalTiles > 0 && r.LastProcessedIndex >= r.TotalTiles
}

// AddFailure records f, replacing any earlier failure for the same index.
func (r *Record) AddFailure(f Failure) {
	r.ClearFailure(f.Index)
	r.Failures = append(r.Failures, f)
	slices.SortFunc(r.Failures, func(a, b Failure) int { return a.Index - b.Index })
}

// ClearFailure removes the failure for index i, if any.
func (r *Record) ClearFailure(i int) {
	r.Failures = slices.DeleteFunc(r.Failures, func(f Failure) bool { return f.Index == i })
	if len(r.Failures) == 0 {
		r.Failures = nil
	}
}

// FailedIndices returns the indices with a recorded failure, ascending.
func (r *Record) FailedIndices() []int {
	out := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Index)
	}
	return out
}

func containsIndex(ranges []Range, i int) bool {
	_, found := slices.BinarySearchFunc(ranges, i, func(r Range, target int) int {
		switch {
		case r.End < target:
			return -1
		case r.Start > target:
			return 1
		default:
			return 0
		}
	})
	return found
}

// addIndex inserts i into the sorted, non-overlapping ranges, merging
// neighbours.
func addIndex(ranges []Range, i int) []Range {
	if containsIndex(ranges, i) {
		return ranges
	}
	pos, _ := slices.BinarySearchFunc(ranges, i, func(r Range, target int) int {
		if r.End < target {
			return -1
		}
		return 1
	})
	joinLeft := pos > 0 && ranges[pos-1].End == i-1
	joinRight := pos < len(ranges) && ranges[pos].Start == i+1
	switch {
	case joinLeft && joinRight:
		ranges[pos-1].End = ranges[pos].End
		return slices.Delete(ranges, pos, pos+1)
	case joinLeft:
		ranges[pos-1].End = i
	case joinRight:
		ranges[pos].Start = i
	default:
		ranges = slices.Insert(ranges, pos, Range{Start: i, End: i})
	}
	return ranges
}

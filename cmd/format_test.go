package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tilesweep/internal/cost"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/sweep"
	"github.com/sells-group/tilesweep/internal/tiles"
)

func TestFormatSummary(t *testing.T) {
	s := &sweep.Summary{
		SweepID:            "40.0000_-105.0000_r5.0km_abcdef012345",
		RunID:              "run-1",
		OutputDir:          "output/x",
		TotalTiles:         81,
		StartIndex:         31,
		Evaluated:          51,
		WithImagery:        49,
		NoImagery:          2,
		Positive:           3,
		Saved:              2,
		AlreadySaved:       1,
		FetchFailed:        1,
		Resumed:            30,
		LastProcessedIndex: 81,
		PendingFailures:    1,
		CostUSD:            0.1234,
		Duration:           90 * time.Second,
	}

	var buf bytes.Buffer
	formatSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, s.SweepID)
	assert.Contains(t, out, "81/81 (started at 31)")
	assert.Contains(t, out, "Saved:")
	assert.Contains(t, out, "Fetch:")
	assert.Contains(t, out, "--retry-failed")
	assert.Contains(t, out, "$0.1234")
	assert.Contains(t, out, "complete")
}

func TestFormatSummary_Interrupted(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, &sweep.Summary{TotalTiles: 10, LastProcessedIndex: 4, Canceled: true})
	assert.Contains(t, buf.String(), "interrupted")
	assert.NotContains(t, buf.String(), "Fetch:")

	buf.Reset()
	formatSummary(&buf, &sweep.Summary{TotalTiles: 10, LastProcessedIndex: 4, Halted: true})
	assert.Contains(t, buf.String(), "halted")
}

func TestFormatRecordList(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)
	recs := []progress.Record{
		{SweepID: "a", TotalTiles: 10, LastProcessedIndex: 10, UpdatedAt: now},
		{SweepID: "b", TotalTiles: 10, LastProcessedIndex: 3, UpdatedAt: now,
			Failures: []progress.Failure{{Index: 2}}},
	}

	var buf bytes.Buffer
	formatRecordList(&buf, recs)

	out := buf.String()
	assert.Contains(t, out, "10/10")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "3/10")
	assert.Contains(t, out, "in progress")
	assert.Contains(t, out, "2026-06-15 10:30")
}

func TestEncode_UnknownFormat(t *testing.T) {
	err := encode(&bytes.Buffer{}, "xml", struct{}{})
	assert.Error(t, err)
}

func TestFormatPlan(t *testing.T) {
	plan := &sweep.Plan{
		SweepID:   "id-1",
		Zoom:      15,
		OutputDir: "output/dir",
		Tiles:     make([]tiles.TileCenter, 12),
		Spec:      progress.Spec{Classifier: "anthropic:m:aaa"},
	}

	var buf bytes.Buffer
	formatPlan(&buf, plan, cost.SweepEstimate{Model: "m", KnownModel: true, CostUSD: 1.5, InputTokensPerTile: 700, OutputTokensPerTile: 12})
	out := buf.String()
	assert.Contains(t, out, "id-1")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "$1.50")
	assert.Contains(t, out, "700 in / 12 out")

	buf.Reset()
	formatPlan(&buf, plan, cost.SweepEstimate{Model: "m"})
	assert.Contains(t, buf.String(), "unknown (no rate for m)")
}

package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tilesweep/internal/geodesy"
)

func testSpec() Spec {
	return Spec{
		Center:      geodesy.Point(39.0, 125.0),
		RadiusKm:    10,
		TileKm:      2,
		SizePx:      1024,
		Scale:       2,
		MapType:     "satellite",
		Classifier:  "anthropic:claude-sonnet-4-5-20250929:aaa",
		TargetLabel: "yes",
	}
}

func TestSweepID_StableAndSensitive(t *testing.T) {
	a := SweepID(testSpec())
	assert.Equal(t, a, SweepID(testSpec()))
	assert.Regexp(t, `^39\.0000_125\.0000_r10\.0km_[0-9a-f]{12}$`, a)

	mutations := []func(*Spec){
		func(s *Spec) { s.Center.Lat += 0.001 },
		func(s *Spec) { s.RadiusKm = 11 },
		func(s *Spec) { s.TileKm = 1 },
		func(s *Spec) { s.SizePx = 640 },
		func(s *Spec) { s.MapType = "hybrid" },
		func(s *Spec) { s.Date = "2020-01" },
		func(s *Spec) { s.Classifier = "anthropic:other:aaa" },
		func(s *Spec) { s.TargetLabel = "no" },
	}
	for i, mutate := range mutations {
		s := testSpec()
		mutate(&s)
		assert.NotEqual(t, a, SweepID(s), "mutation %d", i)
	}
}

func TestSweepID_MapTypeCaseInsensitive(t *testing.T) {
	s := testSpec()
	s.MapType = "SATELLITE"
	assert.Equal(t, SweepID(testSpec()), SweepID(s))
}

func TestRecord_StartIndex(t *testing.T) {
	tests := []struct {
		last, total int
		start       int
		complete    bool
	}{
		{0, 10, 1, false},
		{1, 10, 2, false},
		{9, 10, 10, false},
		{10, 10, 11, true},
		{12, 10, 1, false},
		{-3, 10, 1, false},
	}
	for _, tt := range tests {
		r := &Record{LastProcessedIndex: tt.last, TotalTiles: tt.total}
		start, complete := r.StartIndex()
		assert.Equal(t, tt.start, start, "last=%d", tt.last)
		assert.Equal(t, tt.complete, complete, "last=%d", tt.last)
	}
}

func TestRecord_MarkDoneSequential(t *testing.T) {
	r := NewRecord(testSpec(), 5, time.Now())
	for i := 1; i <= 5; i++ {
		r.MarkDone(i)
		assert.Equal(t, i, r.LastProcessedIndex)
		assert.Nil(t, r.Completed)
	}
	assert.True(t, r.Complete())
}

func TestRecord_MarkDoneOutOfOrder(t *testing.T) {
	r := NewRecord(testSpec(), 10, time.Now())

	r.MarkDone(3)
	r.MarkDone(5)
	r.MarkDone(4)
	assert.Equal(t, 0, r.LastProcessedIndex)
	assert.Equal(t, []Range{{Start: 3, End: 5}}, r.Completed)
	assert.True(t, r.Done(4))
	assert.False(t, r.Done(2))

	r.MarkDone(1)
	assert.Equal(t, 1, r.LastProcessedIndex)

	r.MarkDone(2)
	assert.Equal(t, 5, r.LastProcessedIndex)
	assert.Nil(t, r.Completed)

	r.MarkDone(8)
	r.MarkDone(8)
	assert.Equal(t, []Range{{Start: 8, End: 8}}, r.Completed)
	r.MarkDone(2)
	assert.Equal(t, 5, r.LastProcessedIndex)
}

func TestAddIndex_Merges(t *testing.T) {
	var rs []Range
	for _, i := range []int{10, 2, 6, 4, 3, 5, 11, 9} {
		rs = addIndex(rs, i)
	}
	assert.Equal(t, []Range{{Start: 2, End: 6}, {Start: 9, End: 11}}, rs)
	assert.True(t, containsIndex(rs, 9))
	assert.False(t, containsIndex(rs, 7))
	assert.False(t, containsIndex(nil, 1))
}

func TestRecord_Failures(t *testing.T) {
	r := NewRecord(testSpec(), 10, time.Now())
	r.AddFailure(Failure{Index: 7, Stage: StageFetch, Error: "timeout"})
	r.AddFailure(Failure{Index: 3, Stage: StageClassify, Error: "bad label"})
	r.AddFailure(Failure{Index: 7, Stage: StagePersist, Error: "disk full"})

	require.Len(t, r.Failures, 2)
	assert.Equal(t, []int{3, 7}, r.FailedIndices())
	assert.Equal(t, StagePersist, r.Failures[1].Stage)

	r.ClearFailure(3)
	r.ClearFailure(42)
	assert.Equal(t, []int{7}, r.FailedIndices())
	r.ClearFailure(7)
	assert.Nil(t, r.Failures)
}

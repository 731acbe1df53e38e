package geodesy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Austin to Dallas is roughly 293 km.
	d := HaversineKm(Point(30.2672, -97.7431), Point(32.7767, -96.7970))
	assert.InDelta(t, 293, d, 5)
}

func TestHaversineKm_ZeroForSamePoint(t *testing.T) {
	p := Point(39.0, 125.0)
	assert.Equal(t, 0.0, HaversineKm(p, p))
}

func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][2]GeoPoint{
		{Point(39.0, 125.0), Point(39.01, 125.02)},
		{Point(-33.86, 151.21), Point(51.5, -0.12)},
		{Point(89.9, 0), Point(89.9, 180)},
		{Point(0, 179.9), Point(0, -179.9)},
	}
	for _, p := range pairs {
		assert.Equal(t, HaversineKm(p[0], p[1]), HaversineKm(p[1], p[0]))
	}
}

func TestHaversineKm_AcrossAntimeridian(t *testing.T) {
	d := HaversineKm(Point(0, 179.95), Point(0, -179.95))
	assert.InDelta(t, 11.1, d, 0.1)
}

func TestKmPerDegree(t *testing.T) {
	assert.InDelta(t, 110.574, KmPerDegreeLatitude(), 1e-12)
	assert.InDelta(t, 111.320, KmPerDegreeLongitude(0), 1e-9)
	assert.InDelta(t, 111.320*math.Cos(39*math.Pi/180), KmPerDegreeLongitude(39), 1e-9)
	assert.InDelta(t, 0, KmPerDegreeLongitude(90), 1e-9)
}

func TestLonStepDegrees_GuardsPoles(t *testing.T) {
	step := LonStepDegrees(1, 90)
	assert.False(t, math.IsInf(step, 0))
	assert.False(t, math.IsNaN(step))
	assert.Greater(t, step, 0.0)

	assert.InDelta(t, 1/111.320, LonStepDegrees(1, 0), 1e-12)
}

func TestLatStepDegrees(t *testing.T) {
	assert.InDelta(t, 2/110.574, LatStepDegrees(2), 1e-12)
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{179.5, 179.5},
		{-180, -180},
		{180, -180},
		{181, -179},
		{-181, 179},
		{540, -180},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeLon(tt.in), 1e-9, "NormalizeLon(%v)", tt.in)
	}
}

func TestGeoPoint_Validate(t *testing.T) {
	require.NoError(t, Point(39, 125).Validate())
	require.NoError(t, Point(-90, -180).Validate())
	assert.Error(t, Point(91, 0).Validate())
	assert.Error(t, Point(0, -181).Validate())
	assert.Error(t, Point(math.NaN(), 0).Validate())
	assert.Error(t, Point(0, math.Inf(1)).Validate())
}

func TestGeoPoint_String(t *testing.T) {
	assert.Equal(t, "39.00000,125.00000", Point(39, 125).String())
	assert.Equal(t, "-33.86880,151.20930", Point(-33.8688, 151.2093).String())
}

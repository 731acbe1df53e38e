package tiles

import "math"

const (
	// MinZoom and MaxZoom bound the provider's zoom levels.
	MinZoom = 0
	MaxZoom = 21

	// EquatorCircumferenceKm is the ground span of the zoom-0 raster.
	EquatorCircumferenceKm = 40075.0

	// BaseTilePx is the raster width covering the whole equator at zoom 0.
	BaseTilePx = 256
)

// GroundDistanceKm returns the equatorial ground span of a square image of
// sizePx pixels at zoom z. Each zoom step halves the span.
func GroundDistanceKm(z, sizePx int) float64 {
	kmPerPx := EquatorCircumferenceKm / (BaseTilePx * math.Pow(2, float64(z)))
	return kmPerPx * float64(sizePx)
}

// ResolveZoom picks the zoom level whose ground span for a sizePx image is
// closest to groundKm. Ties go to the smaller zoom (wider view), so the
// requested distance is never under-covered by a tie-break.
func ResolveZoom(groundKm float64, sizePx int) int {
	best := MinZoom
	bestDiff := math.Inf(1)
	for z := MinZoom; z <= MaxZoom; z++ {
		diff := math.Abs(GroundDistanceKm(z, sizePx) - groundKm)
		if diff < bestDiff {
			best, bestDiff = z, diff
		}
	}
	return best
}

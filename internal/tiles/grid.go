// Package tiles lays out the sweep: zoom resolution for the imagery provider,
// the tile-center lattice clipped to a radius, and deterministic artifact names.
package tiles

import (
	"iter"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tilesweep/internal/geodesy"
)

const (
	// DistanceTolerance keeps boundary points lost to floating-point error.
	DistanceTolerance = 1e-9

	// MaxTiles caps the lattice size so a typo in radius or tile size fails fast
	// instead of enumerating millions of requests.
	MaxTiles = 4_000_000

	// MinTileKm is the smallest lattice spacing. Artifact names carry
	// coordinates to 5 decimals (about 1.1 m), so closer centers would share
	// a file name.
	MinTileKm = 0.01

	latticeTolerance = 1e-9
)

// ErrInvalidGrid reports grid parameters that cannot describe a sweep.
var ErrInvalidGrid = eris.New("tiles: invalid grid parameters")

// TileCenter is one grid point together with its 1-based position in the
// enumeration order. The index is the unit of resumability.
type TileCenter struct {
	Index int              `json:"index"`
	Point geodesy.GeoPoint `json:"point"`
}

// Grid enumerates tile centers on a lattice spaced by the tile's ground size
// and clipped to a circle around the center.
//
// The lattice is anchored at the center: offset (0,0) is the center itself and
// offsets run from -n to +n on each axis, where n is the number of whole tile
// steps that fit inside the radius. Rows are scanned south to north and each
// row west to east. Only points within radiusKm (haversine) are kept.
type Grid struct {
	center   geodesy.GeoPoint
	radiusKm float64
	tileKm   float64

	dLat, dLon float64
	nLat, nLon int
}

// NewGrid validates the parameters and prepares the lattice.
func NewGrid(center geodesy.GeoPoint, radiusKm, tileKm float64) (*Grid, error) {
	if err := center.Validate(); err != nil {
		return nil, eris.Wrapf(ErrInvalidGrid, "center: %v", err)
	}
	if !(radiusKm > 0) || math.IsInf(radiusKm, 0) {
		return nil, eris.Wrapf(ErrInvalidGrid, "radius_km must be a positive number, got %v", radiusKm)
	}
	if !(tileKm > 0) || math.IsInf(tileKm, 0) {
		return nil, eris.Wrapf(ErrInvalidGrid, "tile_km must be a positive number, got %v", tileKm)
	}
	if tileKm < MinTileKm {
		return nil, eris.Wrapf(ErrInvalidGrid, "tile_km must be at least %v, got %v", MinTileKm, tileKm)
	}

	g := &Grid{
		center:   center,
		radiusKm: radiusKm,
		tileKm:   tileKm,
		dLat:     geodesy.LatStepDegrees(tileKm),
		dLon:     geodesy.LonStepDegrees(tileKm, center.Lat),
	}
	g.nLat = steps(geodesy.LatStepDegrees(radiusKm), g.dLat)
	g.nLon = steps(geodesy.LonStepDegrees(radiusKm, center.Lat), g.dLon)

	// Near the poles a longitude step can be several degrees; never let the
	// row wrap onto itself.
	if maxLon := int(math.Ceil(180/g.dLon)) - 1; g.nLon > maxLon {
		g.nLon = max(maxLon, 0)
	}

	if rows, cols := 2*g.nLat+1, 2*g.nLon+1; float64(rows)*float64(cols) > MaxTiles {
		return nil, eris.Wrapf(ErrInvalidGrid, "lattice of %dx%d exceeds %d tiles", rows, cols, MaxTiles)
	}
	return g, nil
}

func steps(radiusDeg, stepDeg float64) int {
	return int(math.Floor(radiusDeg/stepDeg + latticeTolerance))
}

// Center returns the sweep center.
func (g *Grid) Center() geodesy.GeoPoint { return g.center }

// RadiusKm returns the clipping radius.
func (g *Grid) RadiusKm() float64 { return g.radiusKm }

// TileKm returns the lattice spacing in kilometers.
func (g *Grid) TileKm() float64 { return g.tileKm }

// Centers yields the kept lattice points in scan order. The sequence is pure
// and may be ranged over any number of times.
func (g *Grid) Centers() iter.Seq[geodesy.GeoPoint] {
	return func(yield func(geodesy.GeoPoint) bool) {
		for i := -g.nLat; i <= g.nLat; i++ {
			lat := g.center.Lat + float64(i)*g.dLat
			if lat < -90 || lat > 90 {
				continue
			}
			for j := -g.nLon; j <= g.nLon; j++ {
				p := geodesy.Point(lat, geodesy.NormalizeLon(g.center.Lon+float64(j)*g.dLon))
				if geodesy.HaversineKm(g.center, p) > g.radiusKm+DistanceTolerance {
					continue
				}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Tiles yields centers paired with their 1-based enumeration index.
func (g *Grid) Tiles() iter.Seq[TileCenter] {
	return func(yield func(TileCenter) bool) {
		idx := 0
		for p := range g.Centers() {
			idx++
			if !yield(TileCenter{Index: idx, Point: p}) {
				return
			}
		}
	}
}

// Count walks the lattice and returns the number of kept tiles.
func (g *Grid) Count() int {
	n := 0
	for range g.Centers() {
		n++
	}
	return n
}

// Collect materializes the enumeration.
func (g *Grid) Collect() []TileCenter {
	var out []TileCenter
	for tc := range g.Tiles() {
		out = append(out, tc)
	}
	return out
}

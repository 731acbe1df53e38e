package staticmaps

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// MapType selects the provider's rendering style.
type MapType string

// Supported map types.
const (
	MapTypeRoadmap   MapType = "roadmap"
	MapTypeSatellite MapType = "satellite"
	MapTypeHybrid    MapType = "hybrid"
	MapTypeTerrain   MapType = "terrain"
)

// AllMapTypes lists the accepted map types.
func AllMapTypes() []MapType {
	return []MapType{MapTypeRoadmap, MapTypeSatellite, MapTypeHybrid, MapTypeTerrain}
}

// ParseMapType validates a user-supplied map type.
func ParseMapType(s string) (MapType, error) {
	mt := MapType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMapTypes() {
		if mt == known {
			return mt, nil
		}
	}
	return "", eris.Errorf("staticmaps: unknown map type %q (want roadmap, satellite, hybrid or terrain)", s)
}

// ParseDate converts a historical-imagery date into the provider's unix
// timestamp. Accepted forms are YYYY-MM-DD, YYYY-MM (first of the month) and
// raw unix seconds. Dates are interpreted as UTC midnight. An empty string
// means "latest imagery" and returns 0.
func ParseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !strings.Contains(s, "-") {
		ts, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ts <= 0 {
			return 0, eris.Errorf("staticmaps: invalid date %q (want YYYY-MM-DD, YYYY-MM or unix seconds)", s)
		}
		return ts, nil
	}

	var layout string
	switch strings.Count(s, "-") {
	case 2:
		layout = time.DateOnly
	case 1:
		layout = "2006-01"
	default:
		return 0, eris.Errorf("staticmaps: invalid date %q (want YYYY-MM-DD, YYYY-MM or unix seconds)", s)
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return 0, eris.Wrapf(err, "staticmaps: invalid date %q", s)
	}
	if t.Unix() <= 0 {
		return 0, eris.Errorf("staticmaps: invalid date %q (must be after 1970-01-01)", s)
	}
	return t.Unix(), nil
}

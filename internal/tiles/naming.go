package tiles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/tilesweep/internal/geodesy"
)

// ArtifactExt is the extension of every saved tile image.
const ArtifactExt = ".png"

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._+-]+`)
	artifactPattern = regexp.MustCompile(`^(.+)_(-?\d+\.\d{5})_(-?\d+\.\d{5})_(\d+(?:\.\d+)?)km\.png$`)
	tagReplacer     = strings.NewReplacer(":", "_", "/", "_", `\`, "_")
)

// SanitizeName reduces s to a file-name-safe token: accents are folded to
// their base letters, path separators and any other characters outside
// [A-Za-z0-9._+-] become underscores, and leading/trailing dots and
// underscores are trimmed.
func SanitizeName(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("/", "_", `\`, "_").Replace(folded)
	folded = unsafeNameChars.ReplaceAllString(folded, "_")
	folded = strings.Trim(folded, "._")
	if folded == "" {
		return "tile"
	}
	return folded
}

// FormatKm renders a distance in its shortest decimal form, always keeping a
// fractional part: 2 -> "2.0", 0.5 -> "0.5".
func FormatKm(km float64) string {
	s := strconv.FormatFloat(km, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ArtifactName is the deterministic file name for a saved tile. It is the only
// deduplication key, so it must not depend on run order or wall-clock time.
func ArtifactName(name string, p geodesy.GeoPoint, tileKm float64) string {
	return fmt.Sprintf("%s_%.5f_%.5f_%skm%s", SanitizeName(name), p.Lat, p.Lon, FormatKm(tileKm), ArtifactExt)
}

// ParseArtifactName recovers the components of a name built by ArtifactName.
func ParseArtifactName(file string) (name string, p geodesy.GeoPoint, tileKm float64, ok bool) {
	m := artifactPattern.FindStringSubmatch(file)
	if m == nil {
		return "", geodesy.GeoPoint{}, 0, false
	}
	lat, err1 := strconv.ParseFloat(m[2], 64)
	lon, err2 := strconv.ParseFloat(m[3], 64)
	km, err3 := strconv.ParseFloat(m[4], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", geodesy.GeoPoint{}, 0, false
	}
	return m[1], geodesy.Point(lat, lon), km, true
}

// SweepDirName names the per-sweep output folder:
// <lat>_<lon>_R<radius>km_T<tile>km_<classifier>.
func SweepDirName(center geodesy.GeoPoint, radiusKm, tileKm float64, classifierID string) string {
	return fmt.Sprintf("%.5f_%.5f_R%skm_T%skm_%s",
		center.Lat, center.Lon, FormatKm(radiusKm), FormatKm(tileKm), tagReplacer.Replace(classifierID))
}

package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Target describes what the classifier looks for.
type Target struct {
	Name     string
	System   string
	Question string
}

const answerFormat = `Respond only with a JSON object {"present": "yes"|"no"}.`

var presets = map[string]Target{
	"aaa": {
		Name: "aaa",
		System: "You are an expert imagery analyst. Classify if the satellite image contains " +
			"an anti-aircraft artillery (AAA) site. " + answerFormat,
		Question: "Does this image contain an anti-aircraft artillery (AAA) site?",
	},
	"double-fences": {
		Name: "double-fences",
		System: "You are an expert imagery analyst looking for double fences around buildings. " +
			"Double fences appear from above as two parallel lines, distinct from roads, railways " +
			"and other linear features. They often have a rectangular gate somewhere along the line " +
			"and cast a darker shadow line beside the fence. " + answerFormat,
		Question: "Does this image contain double fences?",
	},
}

// PresetNames lists the built-in targets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupTarget resolves a target by preset name. A non-empty customPrompt
// overrides the preset and becomes the question. The target is then named
// "custom-" plus the first 8 hex characters of the prompt's SHA-256, so each
// question gets its own classifier id.
func LookupTarget(name, customPrompt string) (Target, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if p := strings.TrimSpace(customPrompt); p != "" {
		sum := sha256.Sum256([]byte(p))
		return Target{
			Name:     "custom-" + hex.EncodeToString(sum[:])[:8],
			System:   "You are an expert imagery analyst. Answer the question about the satellite image. " + answerFormat,
			Question: p,
		}, nil
	}
	t, ok := presets[name]
	if !ok {
		return Target{}, eris.Errorf("classify: unknown target %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return t, nil
}

// Package classify decides whether a tile image shows the target feature.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Label is a binary classification outcome.
type Label string

// Labels.
const (
	Yes Label = "yes"
	No  Label = "no"
)

// ErrInvalidLabel means the model replied with something other than a yes/no
// answer in the accepted shapes.
var ErrInvalidLabel = eris.New("classify: invalid label")

// ParseLabel accepts "yes" or "no", ignoring case and surrounding space.
func ParseLabel(s string) (Label, error) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case Yes:
		return Yes, nil
	case No:
		return No, nil
	default:
		return "", eris.Wrapf(ErrInvalidLabel, "got %q", s)
	}
}

// parseReply extracts the label from a model reply. Two shapes are
// accepted: a JSON object with a "present" field, or a bare yes/no token.
// Markdown code fences around either are tolerated.
func parseReply(text string) (Label, error) {
	text = stripCodeFence(text)
	if strings.HasPrefix(text, "{") {
		var reply struct {
			Present *string `json:"present"`
		}
		if err := json.Unmarshal([]byte(text), &reply); err != nil {
			return "", eris.Wrapf(ErrInvalidLabel, "malformed json reply %q", text)
		}
		if reply.Present == nil {
			return "", eris.Wrapf(ErrInvalidLabel, "reply %q has no present field", text)
		}
		return ParseLabel(*reply.Present)
	}
	return ParseLabel(text)
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

package classify

import (
	"context"
	"errors"

	"github.com/sells-group/tilesweep/internal/resilience"
	"github.com/sells-group/tilesweep/pkg/anthropic"
)

// ImageRef points at one tile image. Data holds the bytes when they are
// available locally; URL is the provider URL the bytes came from.
type ImageRef struct {
	URL       string
	Data      []byte
	MediaType string
}

// Classifier labels a tile image.
type Classifier interface {
	Classify(ctx context.Context, img ImageRef) (Label, error)
	// ID identifies the model and target so that progress for different
	// classifiers is kept apart.
	ID() string
}

// CostReporter is implemented by classifiers that track spend.
type CostReporter interface {
	CostUSD() float64
}

// FailureKind returns resilience.KindTransient for outages (open circuit,
// retryable API status, network trouble) and resilience.KindPermanent for
// everything else, including unparseable replies.
func FailureKind(err error) string {
	if errors.Is(err, resilience.ErrCircuitOpen) || anthropic.IsTransient(err) {
		return resilience.KindTransient
	}
	return resilience.KindPermanent
}

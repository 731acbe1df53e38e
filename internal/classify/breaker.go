package classify

import (
	"context"

	"github.com/sells-group/tilesweep/internal/resilience"
	"github.com/sells-group/tilesweep/pkg/anthropic"
)

// Breaker guards a Classifier with a circuit breaker. Only transient
// failures trip it; a malformed reply is the model's answer, not an outage.
type Breaker struct {
	next Classifier
	cb   *resilience.CircuitBreaker
}

// NewBreaker wraps next. cfg.ShouldTrip defaults to anthropic.IsTransient,
// which also covers generic network failures.
func NewBreaker(next Classifier, cfg resilience.CircuitBreakerConfig) *Breaker {
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = anthropic.IsTransient
	}
	return &Breaker{next: next, cb: resilience.NewCircuitBreaker(cfg)}
}

// Classify runs the wrapped classifier unless the circuit is open, in which
// case it returns resilience.ErrCircuitOpen.
func (b *Breaker) Classify(ctx context.Context, img ImageRef) (Label, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (Label, error) {
		return b.next.Classify(ctx, img)
	})
}

// ID returns the wrapped classifier's id.
func (b *Breaker) ID() string { return b.next.ID() }

// State reports the circuit state.
func (b *Breaker) State() resilience.CircuitState { return b.cb.State() }

// CostUSD forwards to the wrapped classifier when it tracks cost.
func (b *Breaker) CostUSD() float64 {
	if cr, ok := b.next.(CostReporter); ok {
		return cr.CostUSD()
	}
	return 0
}
